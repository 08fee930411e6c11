package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound represents a resource not found error in the repository layer.
type ErrNotFound struct {
	Resource string // The type of resource (e.g., "todo")
	ID       string // The identifier that was not found
	UserID   string // The user context, if applicable
}

func (e ErrNotFound) Error() string {
	if e.UserID != "" {
		return fmt.Sprintf("%s with ID '%s' not found for user '%s'", e.Resource, e.ID, e.UserID)
	}
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

// IsNotFound checks if an error is a repository not found error.
func IsNotFound(err error) bool {
	var target ErrNotFound
	return errors.As(err, &target)
}

// ErrConflict represents a conflict error in the repository layer.
type ErrConflict struct {
	Resource string
	ID       string
	Reason   string
}

func (e ErrConflict) Error() string {
	return fmt.Sprintf("conflict with %s '%s': %s", e.Resource, e.ID, e.Reason)
}

// IsConflict checks if an error is a repository conflict error.
func IsConflict(err error) bool {
	var target ErrConflict
	return errors.As(err, &target)
}

// NewNotFound creates a new ErrNotFound.
func NewNotFound(resource, id string) ErrNotFound {
	return ErrNotFound{Resource: resource, ID: id}
}

// NewNotFoundWithUser creates a new ErrNotFound with user context.
func NewNotFoundWithUser(resource, id, userID string) ErrNotFound {
	return ErrNotFound{Resource: resource, ID: id, UserID: userID}
}

// NewConflict creates a new ErrConflict.
func NewConflict(resource, id, reason string) ErrConflict {
	return ErrConflict{Resource: resource, ID: id, Reason: reason}
}
