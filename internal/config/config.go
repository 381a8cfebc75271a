package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	AI        AIConfig
	Mail      MailConfig
	Workflow  WorkflowConfig
	Telemetry TelemetryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"ai-ticket-assistant"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	CORSAllowOrigins      string `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	MigrationsDir  string `env:"POSTGRES_MIGRATIONS_DIR" envDefault:"migrations"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string `env:"AUTH_JWT_SECRET" envDefault:"dev-secret"`
	AccessTokenTTLMinutes int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"60"`
	BcryptCost            int    `env:"AUTH_BCRYPT_COST" envDefault:"12"`
}

// AIConfig configures the enrichment collaborator. An empty APIKey disables enrichment.
type AIConfig struct {
	APIKey         string `env:"AI_API_KEY"`
	BaseURL        string `env:"AI_BASE_URL"`
	Model          string `env:"AI_MODEL" envDefault:"gpt-4o-mini"`
	TimeoutSeconds int    `env:"AI_TIMEOUT_SECONDS" envDefault:"30"`
}

// MailConfig configures SMTP delivery. An empty Host logs mail instead of sending it.
type MailConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"MAIL_FROM" envDefault:"noreply@example.com"`
}

// WorkflowConfig tunes the ticket pipeline.
type WorkflowConfig struct {
	Retries       int           `env:"WORKFLOW_RETRIES" envDefault:"2"`
	RetryBackoff  time.Duration `env:"WORKFLOW_RETRY_BACKOFF" envDefault:"1s"`
	RetryMaxDelay time.Duration `env:"WORKFLOW_RETRY_MAX_DELAY" envDefault:"30s"`
	Concurrency   int           `env:"WORKFLOW_CONCURRENCY" envDefault:"8"`
	MemoTTL       time.Duration `env:"WORKFLOW_MEMO_TTL" envDefault:"24h"`
	Queue         string        `env:"WORKFLOW_QUEUE" envDefault:"memory"`
}

// TelemetryConfig enables OTLP tracing when an endpoint is set.
type TelemetryConfig struct {
	Enabled      bool   `env:"OTEL_ENABLED" envDefault:"true"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Workflow.Retries < 0 {
		return fmt.Errorf("invalid WORKFLOW_RETRIES: %d", c.Workflow.Retries)
	}
	if c.Workflow.Concurrency <= 0 {
		return fmt.Errorf("invalid WORKFLOW_CONCURRENCY: %d", c.Workflow.Concurrency)
	}
	switch c.Workflow.Queue {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("WORKFLOW_QUEUE=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("invalid WORKFLOW_QUEUE: %q", c.Workflow.Queue)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-call AI timeout.
func (a AIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}
