package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("Should return nil for nil error", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "context"))
	})

	t.Run("Should preserve type of inner AppError", func(t *testing.T) {
		err := Wrap(NewNotFound("todo not found"), "update failed")
		assert.True(t, IsNotFound(err))
		assert.Contains(t, err.Error(), "update failed: todo not found")
	})

	t.Run("Should treat foreign errors as internal", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, "query failed")
		assert.True(t, IsInternal(err))
		assert.ErrorIs(t, err, cause)
	})
}

func TestTypeChecks(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewConflict("two owners"))

	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.True(t, IsValidation(NewValidation("name is required")))
	assert.True(t, IsUnauthorized(NewUnauthorized("bad token", nil)))
	assert.False(t, IsInternal(errors.New("plain")))
}
