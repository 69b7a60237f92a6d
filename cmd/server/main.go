package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"story-server/internal/config"
	"story-server/internal/handler"
	"story-server/internal/service"
	"story-server/pkg/migration"
	sharedDatabase "story-server/shared/database"
	"story-server/shared/interfaces"
	"story-server/shared/messaging"
	sharedLogger "story-server/shared/logger"
	sharedMiddleware "story-server/shared/middleware"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	_ = godotenv.Load()
	log.Println("Starting Story Server...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := sharedLogger.New(sharedLogger.Config{
		Level: cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	// PostgreSQL
	dbPool, err := setupDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to the database", zap.Error(err))
	}
	defer dbPool.Close()
	logger.Info("Connected to PostgreSQL")

	// Schema migrations run on startup, before anything touches the tables.
	if err := runMigrations(dbPool); err != nil {
		logger.Fatal("Failed to apply database migrations", zap.Error(err))
	}

	// Redis (current-node cache). Optional: without it every read hits Postgres.
	var nodeCache interfaces.CurrentNodeCache
	if !cfg.CacheDisabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		cancel()
		defer redisClient.Close()
		nodeCache = sharedDatabase.NewRedisNodeCache(redisClient, logger)
		logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Warn("Current-node cache disabled, all reads go to PostgreSQL")
	}

	// RabbitMQ (progress events)
	rabbitConn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbitConn.Close()
	logger.Info("Connected to RabbitMQ")

	progressPublisher, err := messaging.NewRabbitMQProgressPublisher(rabbitConn, cfg.ProgressEventQueue, logger)
	if err != nil {
		logger.Fatal("Failed to create ProgressEventPublisher", zap.Error(err))
	}
	defer progressPublisher.Close()

	// Dependency wiring. Repositories receive the querier per call, so the
	// same instances serve pool reads and transactional writes.
	storyRepo := sharedDatabase.NewPgStoryRepository(logger)
	saveRepo := sharedDatabase.NewPgSaveRepository(logger)
	txManager := sharedDatabase.NewTransactionHelper(dbPool, logger)

	progressionService := service.NewProgressionService(dbPool, txManager, storyRepo, saveRepo, nodeCache, progressPublisher, cfg.NodeCacheTTL, logger)
	statsService := service.NewStatsService(dbPool, storyRepo, saveRepo, logger)
	progressionHandler := handler.NewProgressionHandler(progressionService, statsService, logger, cfg.JWTSecret)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(sharedMiddleware.EchoZapLogger(logger))
	e.Use(echoMiddleware.Recover())

	progressionHandler.RegisterRoutes(e)

	log.Printf("Story server listening on port %s", cfg.Port)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("HTTP server error: ", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received, stopping...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal("Echo graceful shutdown error: ", err)
	}

	log.Println("Story server stopped")
}

// setupDatabase initializes the PostgreSQL connection pool.
func setupDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err = dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return dbPool, nil
}

// runMigrations applies the embedded schema migrations.
func runMigrations(pool *pgxpool.Pool) error {
	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to access embedded migrations: %w", err)
	}

	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: ".",
		MigrationsFS:   migrationsDir,
	}, pool)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	return migrator.Up(ctx)
}

// connectRabbitMQ dials RabbitMQ with a few retries so the service survives
// the broker coming up slightly later in docker-compose.
func connectRabbitMQ(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, err
}
