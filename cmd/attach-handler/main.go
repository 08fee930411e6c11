// Command attach-handler attaches the public object URL of each uploaded attachment to its todo.
// It is triggered by S3 object-created notifications, directly or through SNS.
package main

import (
	"context"
	"log"
	"time"

	"todo-backend/internal/app"
	"todo-backend/internal/config"
	"todo-backend/internal/logging"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	container, err := app.New(ctx, cfg, logger.With(zap.String("function", "attach-handler")))
	if err != nil {
		logger.Fatal("Failed to initialize container", zap.Error(err))
	}

	lambda.Start(container.Uploads.Attach)
}
