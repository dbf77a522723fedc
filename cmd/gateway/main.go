package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/api"
	appconfig "github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/config"
	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/dlq"
	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/events"
	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/protocol"
	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/secrets"
	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/storage/postgres"
	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/telemetry"
	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/webhook"
)

func main() {
	_ = godotenv.Load()

	if keys, err := secrets.BootstrapFromOpenBao(context.Background()); err != nil {
		log.Fatalf("OpenBao bootstrap failed: %v", err)
	} else if len(keys) > 0 {
		log.Printf("[Secrets] Loaded %d secrets from OpenBao", len(keys))
	}

	app := fx.New(
		fx.Provide(
			appconfig.Load,
			newLogger,
			newKafkaProducer,
			newSQLDB,
			newDeadLetterStore,
			newDetector,
			newQueue,
			newScheduler,
			newPipeline,
			newReplayer,
			newRouter,
		),
		fx.Invoke(
			func(logger *log.Logger, cfg appconfig.Config) {
				logger.Printf("Starting %s...", cfg.ServiceName)
			},
			setupTelemetry,
			registerHTTPServer,
			registerPipeline,
		),
	)

	app.Run()
}

func newLogger(cfg appconfig.Config) *log.Logger {
	prefix := ""
	if cfg.ServiceName != "" {
		prefix = fmt.Sprintf("[%s] ", cfg.ServiceName)
	}
	logger := log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds)
	log.SetOutput(os.Stdout)
	log.SetFlags(logger.Flags())
	log.SetPrefix(prefix)
	return logger
}

// newKafkaProducer constructs the shared audit producer and binds its
// lifecycle to Fx.
func newKafkaProducer(cfg appconfig.Config, lc fx.Lifecycle) *events.Producer {
	prod := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return prod.Close()
		},
	})
	return prod
}

// newSQLDB opens the dead letter database when one is configured. Without
// DLQ_DB_* the gateway runs on the in-memory store and no connection is made.
func newSQLDB(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger) (*sql.DB, error) {
	if !cfg.UseDatabase {
		return nil, nil
	}
	logger.Printf("Connecting to PostgreSQL database %s@%s:%d", cfg.Database.Database, cfg.Database.Host, cfg.Database.Port)
	db, err := postgres.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

func newDeadLetterStore(cfg appconfig.Config, db *sql.DB, logger *log.Logger) dlq.Store {
	if cfg.UseDatabase && db != nil {
		return dlq.NewPostgresStore(db)
	}
	logger.Printf("DLQ_DB_HOST not set, using in-memory dead letter store")
	return dlq.NewMemoryStore()
}

func newDetector() *protocol.Detector {
	return protocol.NewDetector(protocol.NewMetrics())
}

func newQueue(cfg appconfig.Config) *webhook.Queue {
	return webhook.NewQueue(cfg.Webhook.QueueCapacity, cfg.Webhook.EnqueueMode)
}

func newScheduler(cfg appconfig.Config) *webhook.RetryScheduler {
	return webhook.NewRetryScheduler(cfg.Webhook.BaseDelay, cfg.Webhook.MaxDelay, cfg.Webhook.MaxRetries)
}

func newPipeline(cfg appconfig.Config, queue *webhook.Queue, scheduler *webhook.RetryScheduler, store dlq.Store, prod *events.Producer, logger *log.Logger) *webhook.Pipeline {
	return webhook.NewPipeline(webhook.PipelineConfig{
		Endpoint:   cfg.Webhook.Endpoint,
		MerchantID: cfg.Webhook.MerchantID,
		Secret:     []byte(cfg.Webhook.SigningSecret),
		Workers:    cfg.Webhook.Workers,
	}, queue, scheduler, store, prod, logger)
}

func newReplayer(store dlq.Store, pipeline *webhook.Pipeline) *dlq.Replayer {
	return dlq.NewReplayer(store, pipeline)
}

func newRouter(cfg appconfig.Config, detector *protocol.Detector, store dlq.Store, replayer *dlq.Replayer) http.Handler {
	h := api.NewHandler(detector, store, replayer, cfg.Webhook.MerchantID, []byte(cfg.Webhook.SigningSecret))
	return api.NewRouter(h)
}

func setupTelemetry(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger) {
	var shutdown func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = telemetry.Init(ctx, cfg.ServiceName)
			if err != nil {
				return err
			}
			logger.Printf("OpenTelemetry initialized for service: %s", cfg.ServiceName)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown != nil {
				return shutdown(ctx)
			}
			return nil
		},
	})
}

func registerHTTPServer(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger, shutdowner fx.Shutdowner, handler http.Handler) {
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: handler,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Printf("Gateway API listening on %s", cfg.HTTP.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Printf("HTTP server error: %v", err)
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	})
}

// registerPipeline runs the delivery worker pool for the app's lifetime.
func registerPipeline(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger, pipeline *webhook.Pipeline) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				logger.Printf("Webhook delivery pipeline started (%d workers)", cfg.Webhook.Workers)
				if err := pipeline.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Printf("Delivery pipeline error: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
