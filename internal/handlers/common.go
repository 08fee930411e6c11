// Package handlers provides the HTTP handlers and upload event handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"todo-backend/internal/middleware"
	"todo-backend/pkg/api"
	appErrors "todo-backend/pkg/errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

// getUserID safely extracts userID from context
func getUserID(r *http.Request) (string, bool) {
	return middleware.UserID(r.Context())
}

// handleServiceError converts service errors to appropriate HTTP responses
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case appErrors.IsValidation(err):
		logger.Info("validation error", zap.Error(err))
		api.Error(w, http.StatusBadRequest, err.Error())
	case appErrors.IsNotFound(err):
		logger.Info("not found", zap.Error(err))
		api.Error(w, http.StatusNotFound, err.Error())
	case appErrors.IsConflict(err):
		logger.Warn("conflict", zap.Error(err))
		api.Error(w, http.StatusConflict, err.Error())
	case appErrors.IsUnauthorized(err):
		api.Error(w, http.StatusUnauthorized, "Unauthorized")
	default:
		// Full detail goes to the log only.
		logger.Error("internal error", zap.Error(err), zap.String("type", fmt.Sprintf("%T", err)))
		api.Error(w, http.StatusInternalServerError, "An internal error occurred")
	}
}

// decodeBody reads a JSON body into dst and runs its validation tags.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return appErrors.NewValidation("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return appErrors.NewValidation("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return appErrors.NewValidation(formatValidationError(err))
	}
	return nil
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}
