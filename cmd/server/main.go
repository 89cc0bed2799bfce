// Command server runs the dealer deal lifecycle API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	activityapp "github.com/dealer/backend/internal/application/activity"
	dealapp "github.com/dealer/backend/internal/application/deal"
	docapp "github.com/dealer/backend/internal/application/document"
	"github.com/dealer/backend/internal/domain/document"
	"github.com/dealer/backend/internal/infrastructure/cache"
	"github.com/dealer/backend/internal/infrastructure/config"
	"github.com/dealer/backend/internal/infrastructure/event"
	"github.com/dealer/backend/internal/infrastructure/logger"
	"github.com/dealer/backend/internal/infrastructure/migration"
	"github.com/dealer/backend/internal/infrastructure/persistence"
	"github.com/dealer/backend/internal/infrastructure/storage"
	"github.com/dealer/backend/internal/infrastructure/telemetry"
	"github.com/dealer/backend/internal/infrastructure/token"
	"github.com/dealer/backend/internal/interfaces/http/handler"
	"github.com/dealer/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting dealer backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize OTLP logs", zap.Error(err))
	}
	log = logProvider.Bridge(log, logger.ParseLevel(cfg.Log.Level))

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)

	dealMetrics, err := telemetry.NewDealMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register deal metrics", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := migrateUp(db.DB, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	var scopeOpts []persistence.ScopeOption
	var redisClient *redis.Client
	if cfg.Document.CounterBackend == config.CounterBackendRedis {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()

		counter := cache.NewRedisDocumentCounter(redisClient, redislock.New(redisClient), seedFromDatabase(db.DB))
		scopeOpts = append(scopeOpts, persistence.WithCounterFactory(func(*gorm.DB) document.Counter {
			return counter
		}))
		log.Info("Document numbers allocated from Redis", zap.String("addr", cfg.Redis.Addr()))
	}

	// LogoSigner stays a nil interface when storage is off
	var signer docapp.LogoSigner
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiry),
		)
		if err != nil {
			log.Fatal("Failed to initialize logo storage", zap.Error(err))
		}
		signer = s3
	}

	shareTokens, err := token.NewShareTokenService(cfg.Document.ShareSecret, cfg.Document.ShareTokenExpiry, cfg.App.Name)
	if err != nil {
		log.Fatal("Failed to initialize share tokens", zap.Error(err))
	}

	eventBus := event.NewInMemoryEventBus(log)
	activityHandler := activityapp.NewDealActivityHandler(persistence.NewGormActivityRepository(db.DB), log)
	eventBus.Subscribe(activityHandler, activityHandler.EventTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	scope := persistence.NewGormTransactionScope(db.DB, scopeOpts...)
	snapshotter := docapp.NewSnapshotter(docapp.SnapshotterConfig{
		Prefixes:      documentPrefixes(cfg.Document),
		LogoURLExpiry: cfg.Storage.PresignExpiry,
	}, signer, shareTokens, docapp.WithIssueRecorder(dealMetrics))

	dealService := dealapp.NewDealService(scope,
		dealapp.NewPartExchangeConverter(cfg.Document.DefaultPrepTasks),
		snapshotter,
		dealapp.WithEventPublisher(eventBus),
		dealapp.WithTransitionRecorder(dealMetrics),
	)
	documentService := docapp.NewDocumentService(scope, snapshotter, shareTokens)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version).
		AddCheck("database", func(ctx context.Context) error {
			sqlDB, err := db.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	engine, err := router.NewEngine(cfg, log, meter, router.Handlers{
		Deals:     handler.NewDealHandler(dealService),
		Documents: handler.NewDocumentHandler(documentService),
		System:    systemHandler,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush metrics", zap.Error(err))
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush traces", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush logs", zap.Error(err))
	}
}

func migrateUp(db *gorm.DB, log *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared connection pool.
	return m.Up()
}

func seedFromDatabase(db *gorm.DB) cache.SeedFunc {
	return func(ctx context.Context, tenantID uuid.UUID, docType document.Type) (int64, error) {
		return persistence.NewGormDocumentRepository(db).MaxSequence(ctx, tenantID, docType)
	}
}

func documentPrefixes(cfg config.DocumentConfig) map[document.Type]string {
	prefixes := make(map[document.Type]string, len(document.DefaultPrefixes))
	for t, fallback := range document.DefaultPrefixes {
		prefixes[t] = cfg.Prefix(string(t), fallback)
	}
	return prefixes
}
