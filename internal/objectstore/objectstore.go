// Package objectstore issues upload URLs and reads and writes raw objects.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrObjectNotFound is returned by GetObject when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Gateway is the object storage contract used by the handlers and the
// thumbnail processor.
type Gateway interface {
	// UploadURL returns a time-limited URL allowing a single PUT of key into
	// the upload bucket. It does not check that key names an existing todo.
	UploadURL(ctx context.Context, key string) (string, error)
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error
	// ObjectURL returns the public URL of an object.
	ObjectURL(bucket, key string) string
}

// Config holds the settings shared by Gateway implementations.
type Config struct {
	UploadBucket  string
	URLExpiration time.Duration
}

// Validate checks the config is usable.
func (c Config) Validate() error {
	if c.UploadBucket == "" {
		return fmt.Errorf("UploadBucket is required")
	}
	if c.URLExpiration <= 0 {
		return fmt.Errorf("URLExpiration must be positive, got %s", c.URLExpiration)
	}
	return nil
}

// PublicURL is the virtual-hosted URL of an object in the default partition.
// key is the decoded object key; each path segment is escaped.
func PublicURL(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, strings.Join(segments, "/"))
}
