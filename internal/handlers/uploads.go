package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	appEvents "todo-backend/internal/events"
	"todo-backend/internal/observability"
	"todo-backend/internal/service/todo"
	"todo-backend/internal/thumbnail"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// ObjectKeys extracts the URL-decoded object keys from an S3 notification,
// delivered either directly or wrapped in SNS messages.
func ObjectKeys(payload []byte) ([]string, error) {
	var sns events.SNSEvent
	if err := json.Unmarshal(payload, &sns); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}

	var s3Events []events.S3Event
	wrapped := false
	for _, record := range sns.Records {
		if record.EventSource != "aws:sns" && record.SNS.Message == "" {
			continue
		}
		wrapped = true
		var inner events.S3Event
		if err := json.Unmarshal([]byte(record.SNS.Message), &inner); err != nil {
			return nil, fmt.Errorf("invalid S3 event in SNS message %s: %w", record.SNS.MessageID, err)
		}
		s3Events = append(s3Events, inner)
	}
	if !wrapped {
		var direct events.S3Event
		if err := json.Unmarshal(payload, &direct); err != nil {
			return nil, fmt.Errorf("invalid S3 event: %w", err)
		}
		s3Events = append(s3Events, direct)
	}

	var keys []string
	for _, ev := range s3Events {
		for _, record := range ev.Records {
			key, err := url.QueryUnescape(record.S3.Object.Key)
			if err != nil {
				return nil, fmt.Errorf("invalid object key %q: %w", record.S3.Object.Key, err)
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// UploadHandler reacts to object-created notifications in the upload bucket.
type UploadHandler struct {
	svc       todo.Service
	processor *thumbnail.Processor
	publisher appEvents.Publisher
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewUploadHandler creates an UploadHandler. publisher and metrics may be nil.
func NewUploadHandler(
	svc todo.Service,
	processor *thumbnail.Processor,
	publisher appEvents.Publisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *UploadHandler {
	if publisher == nil {
		publisher = appEvents.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadHandler{
		svc:       svc,
		processor: processor,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.Named("uploads"),
	}
}

// Attach records the object URL on the todo named by each uploaded key.
func (h *UploadHandler) Attach(ctx context.Context, payload json.RawMessage) error {
	return h.forEachKey(ctx, payload, "attach", func(ctx context.Context, key string) error {
		u, err := h.svc.AttachUpload(ctx, key)
		if h.metrics != nil {
			h.metrics.RecordOperation("attach", err)
		}
		if err != nil {
			return err
		}
		h.logger.Info("attached upload", zap.String("key", key), zap.String("url", u))
		return nil
	})
}

// Thumbnail writes a resized copy of each uploaded object.
func (h *UploadHandler) Thumbnail(ctx context.Context, payload json.RawMessage) error {
	return h.forEachKey(ctx, payload, "thumbnail", func(ctx context.Context, key string) error {
		target, err := h.processor.Process(ctx, key)
		if h.metrics != nil {
			h.metrics.RecordThumbnail(err)
		}
		if err != nil {
			return err
		}

		ev := appEvents.New(appEvents.ThumbnailCreated, key)
		ev.Key = target
		if err := h.publisher.Publish(ctx, ev); err != nil {
			h.logger.Warn("failed to publish event", zap.String("eventType", ev.Type), zap.Error(err))
		}
		return nil
	})
}

// forEachKey runs fn for every key. One failing key does not stop the
// others; the joined errors fail the invocation.
func (h *UploadHandler) forEachKey(ctx context.Context, payload json.RawMessage, op string, fn func(context.Context, string) error) error {
	keys, err := ObjectKeys(payload)
	if err != nil {
		h.logger.Error("unreadable event", zap.String("op", op), zap.Error(err))
		return err
	}

	var errs []error
	for _, key := range keys {
		if err := fn(ctx, key); err != nil {
			h.logger.Error("upload processing failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s %s: %w", op, key, err))
		}
	}
	return errors.Join(errs...)
}
