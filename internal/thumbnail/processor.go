package thumbnail

import (
	"context"
	"fmt"

	"todo-backend/internal/objectstore"

	"go.uber.org/zap"
)

// Processor reads an uploaded image, resizes it and stores the thumbnail.
type Processor struct {
	store        objectstore.Gateway
	sourceBucket string
	targetBucket string
	logger       *zap.Logger
}

func NewProcessor(store objectstore.Gateway, sourceBucket, targetBucket string, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		store:        store,
		sourceBucket: sourceBucket,
		targetBucket: targetBucket,
		logger:       logger.Named("thumbnail"),
	}
}

// Process writes the thumbnail of key and returns the thumbnail key.
// Running it twice for the same key overwrites the earlier result.
func (p *Processor) Process(ctx context.Context, key string) (string, error) {
	p.logger.Info("processing upload", zap.String("bucket", p.sourceBucket), zap.String("key", key))

	src, err := p.store.GetObject(ctx, p.sourceBucket, key)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	thumb, err := Resize(src)
	if err != nil {
		return "", fmt.Errorf("failed to resize %s: %w", key, err)
	}

	target := Key(key)
	if err := p.store.PutObject(ctx, p.targetBucket, target, thumb, ContentType); err != nil {
		return "", fmt.Errorf("failed to write thumbnail: %w", err)
	}

	p.logger.Info("wrote thumbnail",
		zap.String("bucket", p.targetBucket),
		zap.String("key", target),
		zap.Int("bytes", len(thumb)))
	return target, nil
}
