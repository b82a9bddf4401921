package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/utils"
)

// Config is the full runtime configuration. Embedding dimensions must match
// the vector column widths the schema was migrated with; changing them against
// an existing database is a deployment error, not something detected at
// request time.
type Config struct {
	ServerPort string `yaml:"server_port"`
	LogMode    string `yaml:"log_mode"`

	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresName     string `yaml:"postgres_name"`

	FaceEmbeddingDim int `yaml:"face_embedding_dim"`
	TextEmbeddingDim int `yaml:"text_embedding_dim"`

	SearchLimitCap       int `yaml:"search_limit_cap"`
	DefaultSearchLimit   int `yaml:"default_search_limit"`
	DefaultSessionsLimit int `yaml:"default_sessions_limit"`

	RedisAddr            string `yaml:"redis_addr"`
	RedisPassword        string `yaml:"redis_password"`
	ContextCacheTTLSecs  int    `yaml:"context_cache_ttl_secs"`

	OtelEnabled     bool   `yaml:"otel_enabled"`
	OtelServiceName string `yaml:"otel_service_name"`
	OtelEnvironment string `yaml:"otel_environment"`
}

// Load builds the config from environment variables, then overlays values from
// the YAML file named by CONFIG_FILE when set. File values win over env so a
// mounted config can pin a deployment.
func Load(log *logger.Logger) (Config, error) {
	cfg := Config{
		ServerPort: utils.GetEnv("SERVER_PORT", "8080", log),
		LogMode:    utils.GetEnv("LOG_MODE", "development", log),

		PostgresHost:     utils.GetEnv("POSTGRES_HOST", "localhost", log),
		PostgresPort:     utils.GetEnv("POSTGRES_PORT", "5432", log),
		PostgresUser:     utils.GetEnv("POSTGRES_USER", "postgres", log),
		PostgresPassword: utils.GetEnv("POSTGRES_PASSWORD", "", log),
		PostgresName:     utils.GetEnv("POSTGRES_NAME", "clienteling", log),

		FaceEmbeddingDim: utils.GetEnvAsInt("FACE_EMBEDDING_DIM", 512, log),
		TextEmbeddingDim: utils.GetEnvAsInt("TEXT_EMBEDDING_DIM", 1536, log),

		SearchLimitCap:       utils.GetEnvAsInt("SEARCH_LIMIT_CAP", 100, log),
		DefaultSearchLimit:   utils.GetEnvAsInt("DEFAULT_SEARCH_LIMIT", 10, log),
		DefaultSessionsLimit: utils.GetEnvAsInt("DEFAULT_SESSIONS_LIMIT", 20, log),

		RedisAddr:           utils.GetEnv("REDIS_ADDR", "", log),
		RedisPassword:       utils.GetEnv("REDIS_PASSWORD", "", log),
		ContextCacheTTLSecs: utils.GetEnvAsInt("CONTEXT_CACHE_TTL_SECS", 60, log),

		OtelEnabled:     utils.GetEnvAsBool("OTEL_ENABLED", false, log),
		OtelServiceName: utils.GetEnv("OTEL_SERVICE_NAME", "clienteling-backend", log),
		OtelEnvironment: utils.GetEnv("OTEL_ENVIRONMENT", "development", log),
	}

	if path := utils.GetEnv("CONFIG_FILE", "", log); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.FaceEmbeddingDim <= 0 {
		return fmt.Errorf("face_embedding_dim must be positive, got %d", c.FaceEmbeddingDim)
	}
	if c.TextEmbeddingDim <= 0 {
		return fmt.Errorf("text_embedding_dim must be positive, got %d", c.TextEmbeddingDim)
	}
	if c.SearchLimitCap < 1 {
		return fmt.Errorf("search_limit_cap must be at least 1, got %d", c.SearchLimitCap)
	}
	if c.DefaultSearchLimit < 1 || c.DefaultSearchLimit > c.SearchLimitCap {
		return fmt.Errorf("default_search_limit must be in [1, %d], got %d", c.SearchLimitCap, c.DefaultSearchLimit)
	}
	if c.DefaultSessionsLimit < 1 {
		return fmt.Errorf("default_sessions_limit must be at least 1, got %d", c.DefaultSessionsLimit)
	}
	return nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresName)
}
