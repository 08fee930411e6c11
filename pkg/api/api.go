// Package api defines the contracts for API requests and responses.
// It decouples the API structure from the internal domain models.
package api

import "todo-backend/internal/domain"

// CreateTodoRequest is the expected body for a POST /todos request.
type CreateTodoRequest struct {
	Name    string `json:"name" validate:"required"`
	DueDate string `json:"dueDate"`
}

// UpdateTodoRequest is the expected body for a PATCH /todos/{todoId} request.
// Omitted fields keep their stored values.
type UpdateTodoRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1"`
	DueDate *string `json:"dueDate,omitempty"`
	Done    *bool   `json:"done,omitempty"`
}

// ItemResponse wraps a single todo. Update and delete return an empty item.
type ItemResponse struct {
	Item interface{} `json:"item"`
}

// ItemsResponse wraps the caller's todos.
type ItemsResponse struct {
	Items []domain.Todo `json:"items"`
}

// UploadURLResponse carries a presigned upload URL.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
}

// ErrorResponse is a standardized error message for API responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Empty is serialized as {}.
type Empty struct{}
