package handlers

import (
	"net/http"

	"todo-backend/internal/domain"
	"todo-backend/internal/observability"
	"todo-backend/internal/service/todo"
	"todo-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TodoHandler serves the /todos resource.
type TodoHandler struct {
	svc     todo.Service
	metrics *observability.Collector
	logger  *zap.Logger
}

// NewTodoHandler creates a TodoHandler. metrics may be nil.
func NewTodoHandler(svc todo.Service, metrics *observability.Collector, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{svc: svc, metrics: metrics, logger: logger}
}

func (h *TodoHandler) record(op string, err error) {
	if h.metrics != nil {
		h.metrics.RecordOperation(op, err)
	}
}

// CreateTodo handles POST /todos.
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req api.CreateTodoRequest
	if err := decodeBody(r, &req); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	created, err := h.svc.CreateTodo(r.Context(), userID, req.Name, req.DueDate)
	h.record("create", err)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	api.Success(w, http.StatusCreated, api.ItemResponse{Item: created})
}

// ListTodos handles GET /todos.
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	todos, err := h.svc.ListTodos(r.Context(), userID)
	h.record("list", err)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	api.Success(w, http.StatusOK, api.ItemsResponse{Items: todos})
}

// UpdateTodo handles PATCH /todos/{todoId}.
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req api.UpdateTodoRequest
	if err := decodeBody(r, &req); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	err := h.svc.UpdateTodo(r.Context(), userID, chi.URLParam(r, "todoId"), domain.TodoUpdate{
		Name:    req.Name,
		DueDate: req.DueDate,
		Done:    req.Done,
	})
	h.record("update", err)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	api.Success(w, http.StatusCreated, api.ItemResponse{Item: api.Empty{}})
}

// DeleteTodo handles DELETE /todos/{todoId}.
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	err := h.svc.DeleteTodo(r.Context(), userID, chi.URLParam(r, "todoId"))
	h.record("delete", err)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	api.Success(w, http.StatusCreated, api.ItemResponse{Item: api.Empty{}})
}

// GenerateUploadURL handles POST /todos/{todoId}/attachment.
func (h *TodoHandler) GenerateUploadURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	url, err := h.svc.UploadURL(r.Context(), userID, chi.URLParam(r, "todoId"))
	h.record("upload_url", err)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	api.Success(w, http.StatusCreated, api.UploadURLResponse{UploadURL: url})
}
