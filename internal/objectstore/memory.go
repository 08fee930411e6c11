package objectstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Gateway for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	config  Config
	objects map[string]memoryObject
}

type memoryObject struct {
	body        []byte
	contentType string
}

var _ Gateway = (*MemoryStore)(nil)

func NewMemoryStore(config Config) *MemoryStore {
	return &MemoryStore{config: config, objects: make(map[string]memoryObject)}
}

func (m *MemoryStore) UploadURL(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("memory://%s/%s?expires=%d", m.config.UploadBucket, key, int(m.config.URLExpiration.Seconds())), nil
}

func (m *MemoryStore) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrObjectNotFound)
	}
	return append([]byte(nil), obj.body...), nil
}

func (m *MemoryStore) PutObject(_ context.Context, bucket, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = memoryObject{body: append([]byte(nil), body...), contentType: contentType}
	return nil
}

func (m *MemoryStore) ObjectURL(bucket, key string) string {
	return PublicURL(bucket, key)
}

// ContentType reports the content type an object was stored with.
func (m *MemoryStore) ContentType(bucket, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[bucket+"/"+key]
	return obj.contentType, ok
}
