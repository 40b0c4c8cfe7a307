package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Completion CompletionConfig
	Cache      CacheConfig
	Store      StoreConfig
	Catalog    CatalogConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CompletionConfig holds completion service configuration
type CompletionConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	RetrievalModel    string        `mapstructure:"retrieval_model"`
	ValidationModel   string        `mapstructure:"validation_model"`
	Models            []string      `mapstructure:"models"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	// AcquisitionTimeout bounds a background acquisition; zero means none
	AcquisitionTimeout time.Duration `mapstructure:"acquisition_timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory", "redis" or "none"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StoreConfig selects where final product records go
type StoreConfig struct {
	Type     string `mapstructure:"type"` // "memory" or "mongo"
	MongoURI string `mapstructure:"mongo_uri"`
	Database string `mapstructure:"database"`
}

// CatalogConfig points at optional overrides of the built-in schemas and prompt
type CatalogConfig struct {
	SchemaPath         string `mapstructure:"schema_path"`
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
}

// LogConfig controls the process logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/partscatalog/")

	// PARTSCATALOG_COMPLETION_API_KEY -> completion.api_key
	v.SetEnvPrefix("PARTSCATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile reads ./.env when present. Variables already set win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values. Every key needs a default,
// even an empty one, for AutomaticEnv to reach it through Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	v.SetDefault("completion.api_key", "")
	v.SetDefault("completion.base_url", "https://api.perplexity.ai")
	v.SetDefault("completion.retrieval_model", "llama-3.1-sonar-huge-128k-online")
	v.SetDefault("completion.validation_model", "llama-3.1-sonar-small-128k-online")
	v.SetDefault("completion.models", []string{
		"llama-3.1-sonar-huge-128k-online",
		"llama-3.1-sonar-large-128k-online",
		"llama-3.1-sonar-small-128k-online",
	})
	v.SetDefault("completion.max_tokens", 4000)
	v.SetDefault("completion.timeout", "120s")
	v.SetDefault("completion.requests_per_minute", 50)
	v.SetDefault("completion.acquisition_timeout", "5m")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("store.type", "memory")
	v.SetDefault("store.mongo_uri", "")
	v.SetDefault("store.database", "fpv_parts")

	v.SetDefault("catalog.schema_path", "")
	v.SetDefault("catalog.prompt_template_path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validate validates the configuration. An empty completion API key is allowed;
// acquisitions then fail with ErrMissingCredential.
func validate(config *Config) error {
	switch config.Cache.Type {
	case "memory", "none":
	case "redis":
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when cache type is 'redis'")
		}
	default:
		return fmt.Errorf("cache type must be 'memory', 'redis' or 'none', got: %s", config.Cache.Type)
	}

	switch config.Store.Type {
	case "memory":
	case "mongo":
		if config.Store.MongoURI == "" {
			return fmt.Errorf("MongoDB URI is required when store type is 'mongo'")
		}
		if config.Store.Database == "" {
			return fmt.Errorf("database name is required when store type is 'mongo'")
		}
	default:
		return fmt.Errorf("store type must be 'memory' or 'mongo', got: %s", config.Store.Type)
	}

	if config.Completion.MaxTokens <= 0 {
		return fmt.Errorf("completion max_tokens must be positive, got: %d", config.Completion.MaxTokens)
	}

	if len(config.Completion.Models) > 0 {
		for _, model := range []string{config.Completion.RetrievalModel, config.Completion.ValidationModel} {
			if !contains(config.Completion.Models, model) {
				return fmt.Errorf("default model %q is not in completion.models", model)
			}
		}
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'text' or 'json', got: %s", config.Log.Format)
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
