package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todo-backend/internal/observability"
	"todo-backend/pkg/api"
	"todo-backend/pkg/auth"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("Should generate request ID when not provided", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()

		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotEmpty(t, GetRequestID(r.Context()))
			w.WriteHeader(http.StatusOK)
		}))

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("Should use provided request ID", func(t *testing.T) {
		expectedID := "test-request-id"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Request-ID", expectedID)
		w := httptest.NewRecorder()

		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, expectedID, GetRequestID(r.Context()))
			w.WriteHeader(http.StatusOK)
		}))

		handler.ServeHTTP(w, req)

		assert.Equal(t, expectedID, w.Header().Get("X-Request-ID"))
	})

	t.Run("Should prefer the API Gateway request ID over the header", func(t *testing.T) {
		req := gatewayRequest(t, events.APIGatewayV2HTTPRequestContext{RequestID: "gw-123"})
		req.Header.Set("X-Request-ID", "client-id")
		w := httptest.NewRecorder()

		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "gw-123", GetRequestID(r.Context()))
		}))

		handler.ServeHTTP(w, req)

		assert.Equal(t, "gw-123", w.Header().Get("X-Request-ID"))
	})
}

// gatewayRequest converts an HTTP API event into a request the way the
// Lambda adapter does, so the gateway context is attached.
func gatewayRequest(t *testing.T, rc events.APIGatewayV2HTTPRequestContext) *http.Request {
	t.Helper()
	rc.HTTP.Method = http.MethodGet
	rc.HTTP.Path = "/todos"
	var accessor core.RequestAccessorV2
	req, err := accessor.EventToRequestWithContext(context.Background(), events.APIGatewayV2HTTPRequest{
		Version:        "2.0",
		RawPath:        "/todos",
		Headers:        map[string]string{},
		RequestContext: rc,
	})
	require.NoError(t, err)
	return req
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Run("Should handle panic gracefully", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()

		handler := Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("test panic")
		}))

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "error")
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	})

	t.Run("Should pass through normal requests", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()

		handler := Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
		}))

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	req := httptest.NewRequest("POST", "/todos", nil)
	w := httptest.NewRecorder()

	handler := RequestID(Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))
	handler.ServeHTTP(w, req)

	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
	assert.NotEmpty(t, fields["requestID"])
}

func TestAuthenticateMiddleware(t *testing.T) {
	parser := auth.NewParser("s3cret")
	token, err := auth.NewToken("s3cret", "u1", time.Hour)
	require.NoError(t, err)

	protected := Authenticate(parser, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserID(r.Context())
		assert.True(t, ok)
		api.Success(w, http.StatusOK, map[string]string{"userId": userID})
	}))

	t.Run("Should put the token subject in context", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/todos", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		protected.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"userId":"u1"}`, w.Body.String())
	})

	t.Run("Should trust the gateway authorizer subject without a token", func(t *testing.T) {
		req := gatewayRequest(t, events.APIGatewayV2HTTPRequestContext{
			RequestID: "gw-1",
			Authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
				JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
					Claims: map[string]string{"sub": "gw-user"},
				},
			},
		})
		w := httptest.NewRecorder()

		protected.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"userId":"gw-user"}`, w.Body.String())
	})

	t.Run("Should reject a missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, httptest.NewRequest("GET", "/todos", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Should reject a bad token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/todos", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()

		protected.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestMetricsMiddleware(t *testing.T) {
	collector := observability.NewCollector("test")
	r := chi.NewRouter()
	r.Use(Metrics(collector))
	r.Get("/todos/{todoId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/todos/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/todos/def", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("GET", "/todos/{todoId}", "204")))
}
