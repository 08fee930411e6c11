// Package todo provides the business operations behind the todo endpoints
// and the upload event handlers.
package todo

import (
	"context"
	"strings"
	"time"

	"todo-backend/internal/domain"
	"todo-backend/internal/events"
	"todo-backend/internal/objectstore"
	"todo-backend/internal/repository"
	appErrors "todo-backend/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// createdAtLayout is ISO-8601 in UTC with millisecond precision.
const createdAtLayout = "2006-01-02T15:04:05.000Z"

// Service defines the todo operations.
type Service interface {
	// CreateTodo stores a new todo for userID with done=false and no attachment.
	CreateTodo(ctx context.Context, userID, name, dueDate string) (domain.Todo, error)

	// ListTodos returns every todo owned by userID.
	ListTodos(ctx context.Context, userID string) ([]domain.Todo, error)

	// UpdateTodo changes the fields present in update on one of userID's todos.
	UpdateTodo(ctx context.Context, userID, todoID string, update domain.TodoUpdate) error

	// DeleteTodo permanently removes one of userID's todos.
	DeleteTodo(ctx context.Context, userID, todoID string) error

	// UploadURL issues a presigned upload URL keyed by todoID.
	UploadURL(ctx context.Context, userID, todoID string) (string, error)

	// AttachUpload records the URL of an uploaded object on the todo whose
	// id equals the object key.
	AttachUpload(ctx context.Context, key string) (string, error)
}

// service implements the Service interface.
type service struct {
	repo         repository.TodoRepository
	store        objectstore.Gateway
	publisher    events.Publisher
	uploadBucket string
	logger       *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a todo service.
func NewService(
	repo repository.TodoRepository,
	store objectstore.Gateway,
	publisher events.Publisher,
	uploadBucket string,
	logger *zap.Logger,
) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:         repo,
		store:        store,
		publisher:    publisher,
		uploadBucket: uploadBucket,
		logger:       logger.Named("todo"),
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
}

func (s *service) CreateTodo(ctx context.Context, userID, name, dueDate string) (domain.Todo, error) {
	if userID == "" {
		return domain.Todo{}, appErrors.NewUnauthorized("missing user identity", nil)
	}
	if strings.TrimSpace(name) == "" {
		return domain.Todo{}, appErrors.NewValidation("name cannot be empty")
	}

	todo := domain.Todo{
		UserID:    userID,
		TodoID:    s.newID(),
		CreatedAt: s.now().UTC().Format(createdAtLayout),
		Name:      name,
		DueDate:   dueDate,
		Done:      false,
	}

	created, err := s.repo.Create(ctx, todo)
	if err != nil {
		return domain.Todo{}, translate(err, "failed to create todo")
	}

	ev := events.New(events.TodoCreated, created.TodoID)
	ev.UserID = userID
	s.publish(ctx, ev)
	return created, nil
}

func (s *service) ListTodos(ctx context.Context, userID string) ([]domain.Todo, error) {
	if userID == "" {
		return nil, appErrors.NewUnauthorized("missing user identity", nil)
	}

	todos, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, translate(err, "failed to list todos")
	}
	return todos, nil
}

func (s *service) UpdateTodo(ctx context.Context, userID, todoID string, update domain.TodoUpdate) error {
	if userID == "" {
		return appErrors.NewUnauthorized("missing user identity", nil)
	}
	if todoID == "" {
		return appErrors.NewValidation("todoId is required")
	}
	if update.IsEmpty() {
		return appErrors.NewValidation("at least one of name, dueDate or done is required")
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return appErrors.NewValidation("name cannot be empty")
	}

	if err := s.repo.Update(ctx, update, todoID, userID); err != nil {
		return translate(err, "failed to update todo")
	}
	return nil
}

func (s *service) DeleteTodo(ctx context.Context, userID, todoID string) error {
	if userID == "" {
		return appErrors.NewUnauthorized("missing user identity", nil)
	}
	if todoID == "" {
		return appErrors.NewValidation("todoId is required")
	}

	if err := s.repo.DeleteByKey(ctx, todoID, userID); err != nil {
		return translate(err, "failed to delete todo")
	}

	ev := events.New(events.TodoDeleted, todoID)
	ev.UserID = userID
	s.publish(ctx, ev)
	return nil
}

func (s *service) UploadURL(ctx context.Context, userID, todoID string) (string, error) {
	if userID == "" {
		return "", appErrors.NewUnauthorized("missing user identity", nil)
	}
	if todoID == "" {
		return "", appErrors.NewValidation("todoId is required")
	}

	url, err := s.store.UploadURL(ctx, todoID)
	if err != nil {
		return "", appErrors.Wrap(err, "failed to issue upload url")
	}
	return url, nil
}

func (s *service) AttachUpload(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", appErrors.NewValidation("object key is required")
	}

	url := s.store.ObjectURL(s.uploadBucket, key)
	if err := s.repo.AttachURL(ctx, url, key); err != nil {
		return "", translate(err, "failed to attach upload")
	}

	ev := events.New(events.AttachmentAdded, key)
	ev.Key = key
	ev.URL = url
	s.publish(ctx, ev)
	return url, nil
}

// publish never fails the caller; delivery problems are only logged.
func (s *service) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("eventType", ev.Type),
			zap.String("todoId", ev.TodoID),
			zap.Error(err))
	}
}

// translate maps repository errors onto application error types.
func translate(err error, message string) error {
	switch {
	case repository.IsNotFound(err):
		return appErrors.NewNotFound(err.Error())
	case repository.IsConflict(err):
		return appErrors.NewConflict(err.Error())
	default:
		return appErrors.Wrap(err, message)
	}
}
