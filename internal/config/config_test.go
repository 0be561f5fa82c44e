package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_API_KEY", "test-key")
	t.Setenv("API_BASE_URL", "http://localhost/api")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AIProvider != ProviderGemini {
		t.Errorf("default provider = %q, want gemini", cfg.AIProvider)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("default MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 5*time.Second {
		t.Errorf("default RetryDelay = %v, want 5s", cfg.RetryDelay)
	}
	if cfg.ScoreThreshold != 8 {
		t.Errorf("default ScoreThreshold = %d, want 8", cfg.ScoreThreshold)
	}
	if cfg.NewsMaxAge != 24*time.Hour {
		t.Errorf("default NewsMaxAge = %v, want 24h", cfg.NewsMaxAge)
	}
	if cfg.PhotoMarker != "포토" {
		t.Errorf("default PhotoMarker = %q", cfg.PhotoMarker)
	}
	if cfg.StorageBackend != BackendAPI {
		t.Errorf("default StorageBackend = %q, want api", cfg.StorageBackend)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("RETRY_DELAY", "10")
	t.Setenv("SCORE_THRESHOLD", "6")
	t.Setenv("NEWS_MAX_AGE_HOURS", "48")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 10*time.Second {
		t.Errorf("RetryDelay = %v, want 10s", cfg.RetryDelay)
	}
	if cfg.ScoreThreshold != 6 {
		t.Errorf("ScoreThreshold = %d, want 6", cfg.ScoreThreshold)
	}
	if cfg.NewsMaxAge != 48*time.Hour {
		t.Errorf("NewsMaxAge = %v, want 48h", cfg.NewsMaxAge)
	}
}

func TestLoadYAMLOverlayThenEnvWins(t *testing.T) {
	setBaseEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	overlay := "geminiModel: gemini-2.0-flash\nscoreThreshold: 5\n"
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("NEWS_TRACKER_CONFIG", path)
	t.Setenv("SCORE_THRESHOLD", "9")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Errorf("GeminiModel = %q, overlay not applied", cfg.GeminiModel)
	}
	if cfg.ScoreThreshold != 9 {
		t.Errorf("ScoreThreshold = %d, env should override overlay", cfg.ScoreThreshold)
	}
}

func TestValidate(t *testing.T) {
	setBaseEnv(t)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid gemini", func(c *Config) {}, false},
		{"gemini without key", func(c *Config) { c.GoogleAPIKey = "" }, true},
		{"deepseek without key", func(c *Config) { c.AIProvider = ProviderDeepSeek }, true},
		{"deepseek with key", func(c *Config) {
			c.AIProvider = ProviderDeepSeek
			c.DeepSeekAPIKey = "k"
		}, false},
		{"unknown provider", func(c *Config) { c.AIProvider = "llama" }, true},
		{"postgres without dsn", func(c *Config) { c.StorageBackend = BackendPostgres }, true},
		{"postgres with dsn", func(c *Config) {
			c.StorageBackend = BackendPostgres
			c.DatabaseURL = "postgres://localhost/news"
		}, false},
		{"unknown backend", func(c *Config) { c.StorageBackend = "redis" }, true},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }, true},
		{"negative threshold", func(c *Config) { c.ScoreThreshold = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
