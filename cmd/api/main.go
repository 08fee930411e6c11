// Command todo-api serves the todo HTTP API outside Lambda, for local
// development against DynamoDB Local and an S3 emulator.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-backend/internal/app"
	"todo-backend/internal/config"
	"todo-backend/internal/logging"
	"todo-backend/pkg/auth"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	envFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "todo-api",
		Short: "Todo backend HTTP server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(newTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to configuration file")
	flags.StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")
	flags.String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	flags.String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	flags.String("todos-table", "", "DynamoDB todos table")
	flags.String("user-todos-table", "", "Optional second table that mirrors every write")
	flags.String("upload-bucket", "", "Bucket receiving attachment uploads")
	flags.String("thumbnail-bucket", "", "Bucket receiving generated thumbnails")
	flags.String("region", defaults.GetString("aws.region"), "AWS region")
	flags.String("dynamodb-endpoint", "", "DynamoDB endpoint override (e.g. http://localhost:8000)")
	flags.String("s3-endpoint", "", "S3 endpoint override (e.g. http://localhost:4566)")
	flags.String("signing-secret", "", "HS256 secret used to verify bearer tokens")
	flags.String("event-bus", "", "EventBridge bus for domain events")
	flags.Bool("metrics", false, "Expose Prometheus metrics on /metrics")
	flags.Bool("tracing", false, "Instrument AWS clients with X-Ray")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "todos.table", "todos-table")
	bindFlag(cmd, "todos.user_table", "user-todos-table")
	bindFlag(cmd, "s3.upload_bucket", "upload-bucket")
	bindFlag(cmd, "s3.thumbnail_bucket", "thumbnail-bucket")
	bindFlag(cmd, "aws.region", "region")
	bindFlag(cmd, "dynamodb.endpoint", "dynamodb-endpoint")
	bindFlag(cmd, "s3.endpoint", "s3-endpoint")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
	bindFlag(cmd, "events.bus_name", "event-bus")
	bindFlag(cmd, "metrics.enabled", "metrics")
	bindFlag(cmd, "tracing.enabled", "tracing")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	container, err := app.New(ctx, appConfig, logger)
	if err != nil {
		return err
	}

	if container.Metrics != nil {
		container.Router.Handle("/metrics", container.Metrics.Handler())
	}

	httpServer := &http.Server{
		Addr:         appConfig.HTTPAddress,
		Handler:      container.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// newTokenCmd issues a bearer token for local testing.
func newTokenCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := viper.GetString("auth.signing_secret")
			if secret == "" {
				return errors.New("auth.signing_secret (AUTH_SIGNING_SECRET) is required to sign tokens")
			}
			token, err := auth.NewToken(secret, userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID placed in the sub claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
