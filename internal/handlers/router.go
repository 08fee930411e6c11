package handlers

import (
	"net/http"

	"todo-backend/internal/middleware"
	"todo-backend/internal/observability"
	"todo-backend/internal/service/todo"
	"todo-backend/pkg/api"
	"todo-backend/pkg/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterDeps are the collaborators the HTTP router needs.
type RouterDeps struct {
	Service todo.Service
	Parser  *auth.Parser
	Metrics *observability.Collector // optional
	Logger  *zap.Logger
}

// NewRouter builds the chi router shared by the Lambda function and the
// local server.
func NewRouter(deps RouterDeps) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Error(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	todos := NewTodoHandler(deps.Service, deps.Metrics, logger.Named("http"))
	r.Route("/todos", func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.Parser, logger))

		r.Post("/", todos.CreateTodo)
		r.Get("/", todos.ListTodos)
		r.Patch("/{todoId}", todos.UpdateTodo)
		r.Delete("/{todoId}", todos.DeleteTodo)
		r.Post("/{todoId}/attachment", todos.GenerateUploadURL)
	})

	return r
}
