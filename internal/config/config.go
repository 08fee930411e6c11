// Package config loads runtime settings from the environment, flags and an
// optional config file through viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultRegion        = "us-east-1"
	defaultUserIndex     = "UserIdIndex"
	defaultTodoIndex     = "TodoIdIndex"
	defaultURLExpiration = 300
	defaultHTTPAddress   = ":8080"
	defaultLogLevel      = "info"
)

// envBindings lists the environment variables each key is read from, in
// priority order.
var envBindings = map[string][]string{
	"todos.table":         {"TODOS_TABLE"},
	"todos.user_table":    {"USER_TODOS_TABLE"},
	"todos.user_index":    {"USERID_INDEX"},
	"todos.todo_index":    {"TODOID_INDEX"},
	"s3.upload_bucket":    {"TODOS_S3_BUCKET"},
	"s3.thumbnail_bucket": {"ATTACHMENTS_S3_BUCKET"},
	"s3.url_expiration":   {"SIGNED_URL_EXPIRATION"},
	"s3.endpoint":         {"S3_ENDPOINT"},
	"aws.region":          {"BUCKET_REGION", "AWS_REGION"},
	"dynamodb.endpoint":   {"DYNAMODB_ENDPOINT"},
	"auth.signing_secret": {"AUTH_SIGNING_SECRET"},
	"events.bus_name":     {"EVENT_BUS_NAME"},
	"http.address":        {"HTTP_ADDRESS"},
	"log.level":           {"LOG_LEVEL"},
	"tracing.enabled":     {"ENABLE_TRACING"},
	"metrics.enabled":     {"ENABLE_METRICS"},
}

// Config captures every recognised option.
type Config struct {
	TodosTable     string
	UserTodosTable string // empty selects single-table writes
	UserIDIndex    string
	TodoIDIndex    string

	UploadBucket    string
	ThumbnailBucket string
	URLExpiration   time.Duration
	S3Endpoint      string

	Region           string
	DynamoDBEndpoint string

	SigningSecret string // empty means tokens are decoded but not verified
	EventBusName  string // empty disables event publishing

	HTTPAddress    string
	LogLevel       string
	TracingEnabled bool
	MetricsEnabled bool
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	v := viper.New()
	ApplyDefaults(v)
	return v
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(v *viper.Viper) {
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			panic(err)
		}
	}

	v.SetDefault("todos.user_index", defaultUserIndex)
	v.SetDefault("todos.todo_index", defaultTodoIndex)
	v.SetDefault("aws.region", defaultRegion)
	v.SetDefault("s3.url_expiration", defaultURLExpiration)
	v.SetDefault("http.address", defaultHTTPAddress)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("metrics.enabled", false)
}

// Load parses runtime configuration from viper.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		TodosTable:       v.GetString("todos.table"),
		UserTodosTable:   v.GetString("todos.user_table"),
		UserIDIndex:      v.GetString("todos.user_index"),
		TodoIDIndex:      v.GetString("todos.todo_index"),
		UploadBucket:     v.GetString("s3.upload_bucket"),
		ThumbnailBucket:  v.GetString("s3.thumbnail_bucket"),
		URLExpiration:    time.Duration(v.GetInt("s3.url_expiration")) * time.Second,
		S3Endpoint:       v.GetString("s3.endpoint"),
		Region:           v.GetString("aws.region"),
		DynamoDBEndpoint: v.GetString("dynamodb.endpoint"),
		SigningSecret:    v.GetString("auth.signing_secret"),
		EventBusName:     v.GetString("events.bus_name"),
		HTTPAddress:      v.GetString("http.address"),
		LogLevel:         v.GetString("log.level"),
		TracingEnabled:   v.GetBool("tracing.enabled"),
		MetricsEnabled:   v.GetBool("metrics.enabled"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromEnv builds a config from the process environment only.
func LoadFromEnv() (Config, error) {
	return Load(NewViper())
}

func (c Config) validate() error {
	required := []struct{ key, value string }{
		{"todos.table (TODOS_TABLE)", c.TodosTable},
		{"todos.user_index (USERID_INDEX)", c.UserIDIndex},
		{"todos.todo_index (TODOID_INDEX)", c.TodoIDIndex},
		{"s3.upload_bucket (TODOS_S3_BUCKET)", c.UploadBucket},
		{"s3.thumbnail_bucket (ATTACHMENTS_S3_BUCKET)", c.ThumbnailBucket},
		{"aws.region (BUCKET_REGION)", c.Region},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}
	if c.URLExpiration <= 0 {
		return fmt.Errorf("s3.url_expiration (SIGNED_URL_EXPIRATION) must be a positive number of seconds")
	}
	if c.UserTodosTable != "" && c.UserTodosTable == c.TodosTable {
		return fmt.Errorf("todos.user_table must differ from todos.table")
	}
	return nil
}

// DualWrite reports whether records are mirrored into the user table.
func (c Config) DualWrite() bool {
	return c.UserTodosTable != ""
}
