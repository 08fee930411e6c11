package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TODOS_TABLE", "Todos")
	t.Setenv("TODOS_S3_BUCKET", "uploads")
	t.Setenv("ATTACHMENTS_S3_BUCKET", "thumbs")
}

func TestLoad(t *testing.T) {
	t.Run("Should apply defaults for optional keys", func(t *testing.T) {
		setRequired(t)
		t.Setenv("BUCKET_REGION", "")
		t.Setenv("AWS_REGION", "")

		cfg, err := Load(NewViper())
		require.NoError(t, err)

		assert.Equal(t, "Todos", cfg.TodosTable)
		assert.Equal(t, "UserIdIndex", cfg.UserIDIndex)
		assert.Equal(t, "TodoIdIndex", cfg.TodoIDIndex)
		assert.Equal(t, "us-east-1", cfg.Region)
		assert.Equal(t, 300*time.Second, cfg.URLExpiration)
		assert.Equal(t, ":8080", cfg.HTTPAddress)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.False(t, cfg.DualWrite())
		assert.False(t, cfg.TracingEnabled)
	})

	t.Run("Should read every environment variable", func(t *testing.T) {
		setRequired(t)
		t.Setenv("USER_TODOS_TABLE", "UserTodos")
		t.Setenv("USERID_INDEX", "ByUser")
		t.Setenv("TODOID_INDEX", "ByTodo")
		t.Setenv("BUCKET_REGION", "eu-west-1")
		t.Setenv("SIGNED_URL_EXPIRATION", "60")
		t.Setenv("DYNAMODB_ENDPOINT", "http://localhost:8000")
		t.Setenv("S3_ENDPOINT", "http://localhost:4566")
		t.Setenv("AUTH_SIGNING_SECRET", "s3cret")
		t.Setenv("EVENT_BUS_NAME", "todo-bus")
		t.Setenv("ENABLE_TRACING", "true")
		t.Setenv("ENABLE_METRICS", "true")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load(NewViper())
		require.NoError(t, err)

		assert.Equal(t, "UserTodos", cfg.UserTodosTable)
		assert.True(t, cfg.DualWrite())
		assert.Equal(t, "ByUser", cfg.UserIDIndex)
		assert.Equal(t, "ByTodo", cfg.TodoIDIndex)
		assert.Equal(t, "eu-west-1", cfg.Region)
		assert.Equal(t, time.Minute, cfg.URLExpiration)
		assert.Equal(t, "http://localhost:8000", cfg.DynamoDBEndpoint)
		assert.Equal(t, "http://localhost:4566", cfg.S3Endpoint)
		assert.Equal(t, "s3cret", cfg.SigningSecret)
		assert.Equal(t, "todo-bus", cfg.EventBusName)
		assert.True(t, cfg.TracingEnabled)
		assert.True(t, cfg.MetricsEnabled)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("Should fall back to AWS_REGION", func(t *testing.T) {
		setRequired(t)
		t.Setenv("BUCKET_REGION", "")
		t.Setenv("AWS_REGION", "ap-south-1")

		cfg, err := Load(NewViper())
		require.NoError(t, err)
		assert.Equal(t, "ap-south-1", cfg.Region)
	})

	t.Run("Should let explicit values override the environment", func(t *testing.T) {
		setRequired(t)
		v := NewViper()
		v.Set("todos.table", "Override")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "Override", cfg.TodosTable)
	})
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		unset string
		env   map[string]string
	}{
		{name: "missing table", unset: "TODOS_TABLE"},
		{name: "missing upload bucket", unset: "TODOS_S3_BUCKET"},
		{name: "missing thumbnail bucket", unset: "ATTACHMENTS_S3_BUCKET"},
		{name: "zero expiry", env: map[string]string{"SIGNED_URL_EXPIRATION": "0"}},
		{name: "same table twice", env: map[string]string{"USER_TODOS_TABLE": "Todos"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			if tt.unset != "" {
				t.Setenv(tt.unset, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(NewViper())
			assert.Error(t, err)
		})
	}
}
