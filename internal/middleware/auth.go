package middleware

import (
	"context"
	"net/http"

	"todo-backend/pkg/api"
	"todo-backend/pkg/auth"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"go.uber.org/zap"
)

const userIDKey contextKey = "userID"

// WithUserID returns a context carrying the caller identity.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the caller identity set by Authenticate.
func UserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// Authenticate resolves the caller identity and stores it in the request
// context. Behind API Gateway a "sub" already verified by the gateway
// authorizer wins; otherwise the bearer token in the Authorization header
// is parsed. Requests without a usable identity get a 401.
func Authenticate(parser *auth.Parser, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := authorizerSubject(r.Context()); userID != "" {
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
				return
			}

			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			userID, err := parser.UserID(token)
			if err != nil {
				logger.Warn("rejected token",
					zap.String("requestID", GetRequestID(r.Context())),
					zap.Error(err))
				api.Error(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func authorizerSubject(ctx context.Context) string {
	proxyCtx, ok := core.GetAPIGatewayV2ContextFromContext(ctx)
	if !ok || proxyCtx.Authorizer == nil {
		return ""
	}
	if jwt := proxyCtx.Authorizer.JWT; jwt != nil && jwt.Claims["sub"] != "" {
		return jwt.Claims["sub"]
	}
	if sub, ok := proxyCtx.Authorizer.Lambda["sub"].(string); ok {
		return sub
	}
	return ""
}
