// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type QdrantConfig struct {
	Host string `envconfig:"QDRANT_HOST" default:"qdrant"`
	Port int    `envconfig:"QDRANT_PORT" default:"6334"`
}

type TypesenseConfig struct {
	Host   string `envconfig:"TYPESENSE_HOST" default:"typesense"`
	Port   int    `envconfig:"TYPESENSE_PORT" default:"8108"`
	APIKey string `envconfig:"TYPESENSE_API_KEY" default:"xyz"`
}

// BenchmarkConfig controls how a benchmark run talks to the LLM providers.
type BenchmarkConfig struct {
	Models          string        `envconfig:"BENCHMARK_MODELS" default:"gpt-4.1"`
	MockModels      string        `envconfig:"MOCK_MODELS" default:"claude-3-5-sonnet,gemini-1.5-pro,perplexity-sonar"`
	QuestionSetPath string        `envconfig:"QUESTION_SET_PATH"`
	CallTimeout     time.Duration `envconfig:"LLM_CALL_TIMEOUT" default:"60s"`
	CallDelay       time.Duration `envconfig:"LLM_CALL_DELAY" default:"1s"`
	MaxRetries      int           `envconfig:"LLM_MAX_RETRIES" default:"2"`
	StaleAfter      time.Duration `envconfig:"SCHEDULE_STALE_AFTER" default:"168h"`
}

type Config struct {
	Port              string `envconfig:"PORT" default:"8000"`
	Environment       string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`
	StorageBackend    string `envconfig:"STORAGE_BACKEND" default:"postgres"`
	InngestEventKey   string `envconfig:"INNGEST_EVENT_KEY"`
	InngestSigningKey string `envconfig:"INNGEST_SIGNING_KEY"`
	OpenAIAPIKey      string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey   string `envconfig:"ANTHROPIC_API_KEY"`
	DatabaseURL       string `envconfig:"DATABASE_URL"`
	SlackWebhookURL   string `envconfig:"SLACK_WEBHOOK_URL"`
	APIKey            string `envconfig:"API_KEY"`
	AnswerIndex       bool   `envconfig:"ANSWER_INDEX_ENABLED" default:"false"`

	Benchmark BenchmarkConfig
	Database  DatabaseConfig
	Qdrant    QdrantConfig
	Typesense TypesenseConfig
}

// DatabaseConfig is filled from DATABASE_URL when present, otherwise from DB_* variables.
type DatabaseConfig struct {
	Host            string `envconfig:"DB_HOST" default:"localhost"`
	Port            int    `envconfig:"DB_PORT" default:"5432"`
	User            string `envconfig:"DB_USER" default:"postgres"`
	Password        string `envconfig:"DB_PASSWORD"`
	Name            string `envconfig:"DB_NAME" default:"benchmarks"`
	SSLMode         string `envconfig:"DB_SSLMODE" default:"require"`
	MaxOpenConns    int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int    `envconfig:"DB_MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime int    `envconfig:"DB_CONN_MAX_LIFETIME" default:"300"`
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ModelNames returns the configured live models.
func (b BenchmarkConfig) ModelNames() []string {
	return splitList(b.Models)
}

// MockModelNames returns the model names used for mock answers.
func (b BenchmarkConfig) MockModelNames() []string {
	return splitList(b.MockModels)
}

// Load reads .env (or dev.env) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = godotenv.Load("dev.env")
	}
	return FromEnv()
}

// FromEnv processes the environment without touching dotenv files.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if cfg.DatabaseURL != "" {
		db, err := parseDatabaseURL(cfg.DatabaseURL, cfg.Database)
		if err != nil {
			return nil, err
		}
		cfg.Database = db
	}

	switch cfg.StorageBackend {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	return &cfg, nil
}

func parseDatabaseURL(dbURL string, base DatabaseConfig) (DatabaseConfig, error) {
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if parsedURL.Hostname() == "" {
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_URL: missing host")
	}

	cfg := base
	cfg.Host = parsedURL.Hostname()
	cfg.Port = 5432
	cfg.User = parsedURL.User.Username()
	cfg.Name = strings.TrimPrefix(parsedURL.Path, "/")

	if password, ok := parsedURL.User.Password(); ok {
		cfg.Password = password
	}
	if parsedURL.Port() != "" {
		if port, err := strconv.Atoi(parsedURL.Port()); err == nil {
			cfg.Port = port
		}
	}
	if mode := parsedURL.Query().Get("sslmode"); mode != "" {
		cfg.SSLMode = mode
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
