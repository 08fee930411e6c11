// Package app provides application-level dependency container and initialization.
package app

import (
	"context"
	"fmt"
	"os"

	"todo-backend/internal/config"
	"todo-backend/internal/events"
	"todo-backend/internal/handlers"
	"todo-backend/internal/objectstore"
	"todo-backend/internal/observability"
	"todo-backend/internal/repository"
	"todo-backend/internal/repository/ddb"
	"todo-backend/internal/service/todo"
	"todo-backend/internal/thumbnail"
	"todo-backend/pkg/auth"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Container holds all application dependencies.
type Container struct {
	Config config.Config
	Logger *zap.Logger

	DynamoDBClient    *dynamodb.Client
	S3Client          *s3.Client
	EventBridgeClient *eventbridge.Client

	Repository  repository.TodoRepository
	ObjectStore objectstore.Gateway
	Publisher   events.Publisher
	Metrics     *observability.Collector // nil unless metrics are enabled

	TodoService todo.Service
	Processor   *thumbnail.Processor
	Uploads     *handlers.UploadHandler
	Router      *chi.Mux
}

// New builds every dependency from cfg. It makes no network calls.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c.DynamoDBClient = dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
	c.S3Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	c.Repository, err = ddb.NewRepository(c.DynamoDBClient, repository.Config{
		TableName:          cfg.TodosTable,
		SecondaryTableName: cfg.UserTodosTable,
		UserIndexName:      cfg.UserIDIndex,
		TodoIndexName:      cfg.TodoIDIndex,
	}, logger)
	if err != nil {
		return nil, err
	}

	c.ObjectStore, err = objectstore.NewS3Store(c.S3Client, objectstore.Config{
		UploadBucket:  cfg.UploadBucket,
		URLExpiration: cfg.URLExpiration,
	}, logger)
	if err != nil {
		return nil, err
	}

	c.Publisher = events.NopPublisher{}
	if cfg.EventBusName != "" {
		c.EventBridgeClient = eventbridge.NewFromConfig(awsCfg)
		c.Publisher = events.NewEventBridgePublisher(c.EventBridgeClient, cfg.EventBusName, logger)
	}

	if cfg.MetricsEnabled {
		c.Metrics = observability.NewCollector("todo")
	}

	c.TodoService = todo.NewService(c.Repository, c.ObjectStore, c.Publisher, cfg.UploadBucket, logger)
	c.Processor = thumbnail.NewProcessor(c.ObjectStore, cfg.UploadBucket, cfg.ThumbnailBucket, logger)
	c.Uploads = handlers.NewUploadHandler(c.TodoService, c.Processor, c.Publisher, c.Metrics, logger)
	c.Router = handlers.NewRouter(handlers.RouterDeps{
		Service: c.TodoService,
		Parser:  auth.NewParser(cfg.SigningSecret),
		Metrics: c.Metrics,
		Logger:  logger,
	})

	logger.Info("container initialized",
		zap.String("table", cfg.TodosTable),
		zap.Bool("dualWrite", cfg.DualWrite()),
		zap.String("uploadBucket", cfg.UploadBucket),
		zap.String("thumbnailBucket", cfg.ThumbnailBucket),
		zap.Bool("events", cfg.EventBusName != ""),
		zap.Bool("tracing", cfg.TracingEnabled),
		zap.Bool("verifyTokens", cfg.SigningSecret != ""))
	return c, nil
}

func loadAWSConfig(ctx context.Context, cfg config.Config) (aws.Config, error) {
	opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(cfg.Region)}

	// Local emulators accept any key pair.
	local := cfg.DynamoDBEndpoint != "" || cfg.S3Endpoint != ""
	if local && os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", "")))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}

	if cfg.TracingEnabled {
		observability.InstrumentAWS(&awsCfg)
	}
	return awsCfg, nil
}
