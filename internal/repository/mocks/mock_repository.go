// Package mocks provides mock implementations of repository interfaces for testing.
package mocks

import (
	"context"
	"fmt"
	"sync"

	"todo-backend/internal/domain"
	"todo-backend/internal/repository"
)

// MockRepository provides an in-memory mock implementation of TodoRepository.
// It mirrors the DynamoDB store: records are keyed by (userId, todoId),
// listing omits userId, and writes to a missing key fail with ErrNotFound.
type MockRepository struct {
	mu sync.RWMutex

	todos map[string]domain.Todo // userId#todoId -> Todo
	order []string

	// For testing error scenarios
	shouldFailOn map[string]error
}

var _ repository.TodoRepository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository instance.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		todos:        make(map[string]domain.Todo),
		shouldFailOn: make(map[string]error),
	}
}

// SetError configures the mock to return an error for a specific method.
func (m *MockRepository) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn[method] = err
}

// ClearErrors removes all configured errors.
func (m *MockRepository) ClearErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn = make(map[string]error)
}

func (m *MockRepository) checkError(method string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shouldFailOn[method]
}

func mapKey(userID, todoID string) string {
	return fmt.Sprintf("%s#%s", userID, todoID)
}

// Get returns the stored todo with its owner, for assertions.
func (m *MockRepository) Get(userID, todoID string) (domain.Todo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.todos[mapKey(userID, todoID)]
	return t, ok
}

// Count returns the number of stored todos.
func (m *MockRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.todos)
}

func (m *MockRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Todo, error) {
	if err := m.checkError("ListByOwner"); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	todos := []domain.Todo{}
	for _, k := range m.order {
		t, ok := m.todos[k]
		if !ok || t.UserID != userID {
			continue
		}
		t.UserID = ""
		todos = append(todos, t)
	}
	return todos, nil
}

func (m *MockRepository) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	if err := m.checkError("Create"); err != nil {
		return domain.Todo{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := mapKey(todo.UserID, todo.TodoID)
	if _, exists := m.todos[k]; !exists {
		m.order = append(m.order, k)
	}
	m.todos[k] = todo
	return todo, nil
}

func (m *MockRepository) Update(ctx context.Context, update domain.TodoUpdate, todoID, userID string) error {
	if err := m.checkError("Update"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := mapKey(userID, todoID)
	t, ok := m.todos[k]
	if !ok {
		return repository.NewNotFoundWithUser("todo", todoID, userID)
	}
	if update.Name != nil {
		t.Name = *update.Name
	}
	if update.DueDate != nil {
		t.DueDate = *update.DueDate
	}
	if update.Done != nil {
		t.Done = *update.Done
	}
	m.todos[k] = t
	return nil
}

func (m *MockRepository) AttachURL(ctx context.Context, url, todoID string) error {
	if err := m.checkError("AttachURL"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var owners []string
	for _, t := range m.todos {
		if t.TodoID == todoID {
			owners = append(owners, t.UserID)
		}
	}
	switch len(owners) {
	case 0:
		return repository.NewNotFound("todo", todoID)
	case 1:
	default:
		return repository.NewConflict("todo", todoID, fmt.Sprintf("owned by %d users", len(owners)))
	}

	k := mapKey(owners[0], todoID)
	t := m.todos[k]
	t.AttachmentURL = &url
	m.todos[k] = t
	return nil
}

func (m *MockRepository) DeleteByKey(ctx context.Context, todoID, userID string) error {
	if err := m.checkError("DeleteByKey"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := mapKey(userID, todoID)
	if _, ok := m.todos[k]; !ok {
		return repository.NewNotFoundWithUser("todo", todoID, userID)
	}
	delete(m.todos, k)
	for i, o := range m.order {
		if o == k {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
