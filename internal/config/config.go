package config

import (
	"fmt"
	"log"
	"time"

	"story-server/shared/utils"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration of the story progression service.
type Config struct {
	// Server settings
	Port     string `envconfig:"SERVER_PORT" default:"8083"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// PostgreSQL settings
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Secret field WITHOUT an envconfig tag
	DBPassword string

	// Redis settings (current-node read-through cache)
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	NodeCacheTTL  time.Duration `envconfig:"NODE_CACHE_TTL" default:"10m"`
	CacheDisabled bool          `envconfig:"NODE_CACHE_DISABLED" default:"false"`

	// RabbitMQ settings (progress events for downstream consumers)
	RabbitMQURL        string `envconfig:"RABBITMQ_URL" required:"true"`
	ProgressEventQueue string `envconfig:"PROGRESS_EVENT_QUEUE" default:"story_progress_events"`

	// JWT settings (player token verification in middleware)
	// Secret field WITHOUT an envconfig tag
	JWTSecret string
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig loads configuration from environment variables and secrets.
func LoadConfig() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load story-server configuration: %w", err)
	}

	// Required secrets come from files, never from env.
	var loadErr error
	cfg.DBPassword, loadErr = utils.ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.JWTSecret, loadErr = utils.ReadSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	log.Printf("Story server configuration loaded (secrets from files):")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  DB Max Conns: %d", cfg.DBMaxConns)
	log.Printf("  Redis Addr: %s (cache disabled: %v)", cfg.RedisAddr, cfg.CacheDisabled)
	log.Printf("  RabbitMQ URL: %s", cfg.RabbitMQURL)
	log.Printf("  Progress Event Queue: %s", cfg.ProgressEventQueue)
	log.Println("  JWT Secret: [LOADED]")

	return &cfg, nil
}
