// Package repository defines the storage contract for todo records.
package repository

import (
	"context"

	"todo-backend/internal/domain"
)

// TodoRepository is implemented by every record store.
type TodoRepository interface {
	// ListByOwner returns all todos owned by userID, in index order.
	ListByOwner(ctx context.Context, userID string) ([]domain.Todo, error)

	// Create stores a new todo unconditionally and returns it unchanged.
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)

	// Update changes name, dueDate and done of an existing todo.
	// Returns ErrNotFound when no todo matches both ids.
	Update(ctx context.Context, update domain.TodoUpdate, todoID, userID string) error

	// AttachURL sets attachmentUrl on the todo with the given id, whoever owns it.
	AttachURL(ctx context.Context, url, todoID string) error

	// DeleteByKey removes a todo. Returns ErrNotFound when no todo matches both ids.
	DeleteByKey(ctx context.Context, todoID, userID string) error
}
