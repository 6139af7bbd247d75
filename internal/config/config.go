package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"mystic-forest-server/internal/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Поддерживаемые хранилища сессий.
const (
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
)

// Config содержит конфигурацию сервера истории.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"5000"`

	// История и изображения
	StoryFile    string `envconfig:"STORY_FILE"` // пусто - встроенная история
	ImageBaseURL string `envconfig:"IMAGE_BASE_URL" default:"https://image.pollinations.ai/prompt"`

	// Сессии
	SessionBackend      string        `envconfig:"SESSION_BACKEND" default:"memory"`
	SessionCookieName   string        `envconfig:"SESSION_COOKIE_NAME" default:"session_id"`
	SessionCookieMaxAge time.Duration `envconfig:"SESSION_COOKIE_MAX_AGE" default:"720h"`
	SessionCookieSecure bool          `envconfig:"SESSION_COOKIE_SECURE" default:"false"`

	// CORS Settings
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:5000"`

	// Redis
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
	// Секретное поле БЕЗ envconfig тега
	RedisPassword string

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"mystic_forest"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// RabbitMQ (пустой URL отключает публикацию игровых событий)
	RabbitMQURL     string `envconfig:"RABBITMQ_URL"`
	GameEventsQueue string `envconfig:"GAME_EVENTS_QUEUE" default:"game_events"`

	SwaggerEnabled bool `envconfig:"SWAGGER_ENABLED" default:"true"`

	// Лимит запросов на изменение сессии с одного IP в минуту, 0 - без лимита
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`

	SecretsDir string `envconfig:"SECRETS_DIR" default:"/run/secrets"`
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if strings.TrimSpace(c.CORSAllowedOrigins) == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// EventsEnabled сообщает, нужно ли подключаться к RabbitMQ.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}

// LoadConfig загружает конфигурацию из .env (если есть), переменных окружения и секретов.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	cfg.SessionBackend = strings.ToLower(strings.TrimSpace(cfg.SessionBackend))
	switch cfg.SessionBackend {
	case SessionBackendMemory, SessionBackendRedis, SessionBackendPostgres:
	default:
		return nil, fmt.Errorf("unsupported SESSION_BACKEND %q (expected memory, redis or postgres)", cfg.SessionBackend)
	}

	if cfg.RateLimitPerMinute < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative, got %d", cfg.RateLimitPerMinute)
	}

	// Пароль БД обязателен только для postgres
	if cfg.SessionBackend == SessionBackendPostgres {
		pass, err := utils.ReadSecret(cfg.SecretsDir, "db_password")
		if err != nil {
			return nil, err
		}
		cfg.DBPassword = pass
	}

	if cfg.SessionBackend == SessionBackendRedis {
		if pass, err := utils.ReadSecret(cfg.SecretsDir, "redis_password"); err == nil {
			cfg.RedisPassword = pass
		} else {
			log.Printf("Optional secret 'redis_password' not found or failed to read: %v. Assuming no password.", err)
		}
	}

	return &cfg, nil
}
