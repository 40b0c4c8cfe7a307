package config

import (
	"os"
	"testing"
	"time"
)

// chdirTemp runs the test from an empty directory so no stray config.yaml or .env is read
func chdirTemp(t *testing.T) string {
	t.Helper()
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() { os.Chdir(originalDir) })
	return dir
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		chdirTemp(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Completion.APIKey != "" {
			t.Errorf("Completion.APIKey = %q, want empty", cfg.Completion.APIKey)
		}
		if cfg.Completion.BaseURL != "https://api.perplexity.ai" {
			t.Errorf("Completion.BaseURL = %s, want https://api.perplexity.ai", cfg.Completion.BaseURL)
		}
		if cfg.Completion.RetrievalModel != "llama-3.1-sonar-huge-128k-online" {
			t.Errorf("Completion.RetrievalModel = %s", cfg.Completion.RetrievalModel)
		}
		if cfg.Completion.ValidationModel != "llama-3.1-sonar-small-128k-online" {
			t.Errorf("Completion.ValidationModel = %s", cfg.Completion.ValidationModel)
		}
		if cfg.Completion.MaxTokens != 4000 {
			t.Errorf("Completion.MaxTokens = %d, want 4000", cfg.Completion.MaxTokens)
		}
		if cfg.Completion.Timeout != 120*time.Second {
			t.Errorf("Completion.Timeout = %v, want 120s", cfg.Completion.Timeout)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.Store.Type != "memory" {
			t.Errorf("Store.Type = %s, want memory", cfg.Store.Type)
		}
		if cfg.Log.Format != "text" {
			t.Errorf("Log.Format = %s, want text", cfg.Log.Format)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("PARTSCATALOG_SERVER_PORT", "9090")
		t.Setenv("PARTSCATALOG_SERVER_ENVIRONMENT", "production")
		t.Setenv("PARTSCATALOG_COMPLETION_API_KEY", "pplx-key")
		t.Setenv("PARTSCATALOG_COMPLETION_BASE_URL", "https://custom.api.com")
		t.Setenv("PARTSCATALOG_COMPLETION_MAX_TOKENS", "2000")
		t.Setenv("PARTSCATALOG_CACHE_TYPE", "redis")
		t.Setenv("PARTSCATALOG_CACHE_REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("PARTSCATALOG_CACHE_TTL", "1h")
		t.Setenv("PARTSCATALOG_STORE_TYPE", "mongo")
		t.Setenv("PARTSCATALOG_STORE_MONGO_URI", "mongodb://localhost:27017")
		t.Setenv("PARTSCATALOG_LOG_FORMAT", "json")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Completion.APIKey != "pplx-key" {
			t.Errorf("Completion.APIKey = %s, want pplx-key", cfg.Completion.APIKey)
		}
		if cfg.Completion.BaseURL != "https://custom.api.com" {
			t.Errorf("Completion.BaseURL = %s, want https://custom.api.com", cfg.Completion.BaseURL)
		}
		if cfg.Completion.MaxTokens != 2000 {
			t.Errorf("Completion.MaxTokens = %d, want 2000", cfg.Completion.MaxTokens)
		}
		if cfg.Cache.Type != "redis" {
			t.Errorf("Cache.Type = %s, want redis", cfg.Cache.Type)
		}
		if cfg.Cache.RedisURL != "redis://localhost:6379/0" {
			t.Errorf("Cache.RedisURL = %s, want redis://localhost:6379/0", cfg.Cache.RedisURL)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.Store.Type != "mongo" || cfg.Store.MongoURI != "mongodb://localhost:27017" {
			t.Errorf("Store = %+v, want mongo at localhost", cfg.Store)
		}
		if cfg.Store.Database != "fpv_parts" {
			t.Errorf("Store.Database = %s, want fpv_parts", cfg.Store.Database)
		}
		if cfg.Log.Format != "json" {
			t.Errorf("Log.Format = %s, want json", cfg.Log.Format)
		}
	})

	t.Run("reads config file", func(t *testing.T) {
		dir := chdirTemp(t)
		content := "completion:\n  retrieval_model: sonar-pro\n  models: [sonar-pro, llama-3.1-sonar-small-128k-online]\ncatalog:\n  schema_path: /srv/schemas.yaml\n"
		if err := os.WriteFile(dir+"/config.yaml", []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Completion.RetrievalModel != "sonar-pro" {
			t.Errorf("Completion.RetrievalModel = %s, want sonar-pro", cfg.Completion.RetrievalModel)
		}
		if len(cfg.Completion.Models) != 2 {
			t.Errorf("Completion.Models = %v, want 2 entries", cfg.Completion.Models)
		}
		if cfg.Catalog.SchemaPath != "/srv/schemas.yaml" {
			t.Errorf("Catalog.SchemaPath = %s, want /srv/schemas.yaml", cfg.Catalog.SchemaPath)
		}
	})

	t.Run("picks up .env file", func(t *testing.T) {
		dir := chdirTemp(t)
		if err := os.WriteFile(dir+"/.env", []byte("PARTSCATALOG_COMPLETION_API_KEY=from-dotenv\n"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		t.Setenv("PARTSCATALOG_COMPLETION_API_KEY", "")
		os.Unsetenv("PARTSCATALOG_COMPLETION_API_KEY")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Completion.APIKey != "from-dotenv" {
			t.Errorf("Completion.APIKey = %s, want from-dotenv", cfg.Completion.APIKey)
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("PARTSCATALOG_CACHE_TYPE", "invalid")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("PARTSCATALOG_CACHE_TYPE", "redis")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for missing Redis URL")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		chdirTemp(t)

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("skips empty lines and comments", func(t *testing.T) {
		dir := chdirTemp(t)
		envContent := `
# This is a comment

TEST_SKIP_1=value1
TEST_SKIP_2=value2
# TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(dir+"/.env", []byte(envContent), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		t.Cleanup(func() {
			os.Unsetenv("TEST_SKIP_1")
			os.Unsetenv("TEST_SKIP_2")
		})

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_SKIP_1") != "value1" {
			t.Errorf("TEST_SKIP_1 not loaded correctly")
		}
		if os.Getenv("TEST_SKIP_2") != "value2" {
			t.Errorf("TEST_SKIP_2 not loaded correctly")
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		dir := chdirTemp(t)
		t.Setenv("TEST_OVERRIDE", "existing-value")

		if err := os.WriteFile(dir+"/.env", []byte("TEST_OVERRIDE=new-value"), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Completion: CompletionConfig{
				RetrievalModel:  "a",
				ValidationModel: "b",
				Models:          []string{"a", "b"},
				MaxTokens:       4000,
			},
			Cache: CacheConfig{Type: "memory"},
			Store: StoreConfig{Type: "memory"},
			Log:   LogConfig{Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid defaults", mutate: func(c *Config) {}},
		{name: "missing API key is allowed", mutate: func(c *Config) { c.Completion.APIKey = "" }},
		{name: "cache disabled", mutate: func(c *Config) { c.Cache.Type = "none" }},
		{name: "redis with URL", mutate: func(c *Config) { c.Cache = CacheConfig{Type: "redis", RedisURL: "redis://localhost:6379"} }},
		{name: "redis without URL", mutate: func(c *Config) { c.Cache.Type = "redis" }, wantErr: true},
		{name: "invalid cache type", mutate: func(c *Config) { c.Cache.Type = "disk" }, wantErr: true},
		{name: "mongo with URI", mutate: func(c *Config) { c.Store = StoreConfig{Type: "mongo", MongoURI: "mongodb://x", Database: "db"} }},
		{name: "mongo without URI", mutate: func(c *Config) { c.Store = StoreConfig{Type: "mongo", Database: "db"} }, wantErr: true},
		{name: "mongo without database", mutate: func(c *Config) { c.Store = StoreConfig{Type: "mongo", MongoURI: "mongodb://x"} }, wantErr: true},
		{name: "invalid store type", mutate: func(c *Config) { c.Store.Type = "postgres" }, wantErr: true},
		{name: "zero max tokens", mutate: func(c *Config) { c.Completion.MaxTokens = 0 }, wantErr: true},
		{name: "default model outside allow-list", mutate: func(c *Config) { c.Completion.RetrievalModel = "c" }, wantErr: true},
		{name: "empty allow-list accepts any model", mutate: func(c *Config) {
			c.Completion.Models = nil
			c.Completion.RetrievalModel = "c"
		}},
		{name: "invalid log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
