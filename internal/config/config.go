// Package config loads runtime settings from environment variables, with an
// optional YAML overlay file for non-secret defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini   = "gemini"
	ProviderDeepSeek = "deepseek"

	BackendAPI      = "api"
	BackendPostgres = "postgres"
)

type Config struct {
	// AI provider settings (exactly one provider is active)
	AIProvider      string
	GoogleAPIKey    string
	GeminiModel     string
	DeepSeekAPIKey  string
	DeepSeekModel   string
	DeepSeekBaseURL string
	MaxRetries      int
	RetryDelay      time.Duration
	SuccessDelay    time.Duration
	MaxAIRequests   int // per run, 0 = unlimited

	// Classification settings
	ScoreThreshold int
	PromptDir      string
	PromptTemplate string

	// Filtering settings
	NewsMaxAge  time.Duration
	PhotoMarker string

	// Storage settings
	StorageBackend       string
	APIBaseURL           string
	DatabaseURL          string
	StorageRetryAttempts int
	StorageRetryDelay    time.Duration

	// Scrape enrichment
	ScrapeFullContent bool
	ScrapeTimeout     time.Duration

	// Operator notification (optional)
	TelegramToken  string
	TelegramChatID string

	Debug bool
}

// fileConfig is the YAML overlay shape. Secrets stay in the environment.
type fileConfig struct {
	AIProvider      string `yaml:"aiProvider"`
	GeminiModel     string `yaml:"geminiModel"`
	DeepSeekModel   string `yaml:"deepseekModel"`
	DeepSeekBaseURL string `yaml:"deepseekBaseUrl"`
	StorageBackend  string `yaml:"storageBackend"`
	APIBaseURL      string `yaml:"apiBaseUrl"`
	PromptDir       string `yaml:"promptDir"`
	PromptTemplate  string `yaml:"promptTemplate"`
	PhotoMarker     string `yaml:"photoMarker"`
	ScoreThreshold  int    `yaml:"scoreThreshold"`
}

// Load builds the configuration: defaults, then the optional YAML file named
// by NEWS_TRACKER_CONFIG, then environment overrides. The returned Config is
// always populated so callers can still reach notification settings when
// validation fails.
func Load() (*Config, error) {
	cfg := &Config{
		AIProvider:           ProviderGemini,
		GeminiModel:          "gemini-1.5-flash-8b",
		DeepSeekModel:        "deepseek-chat",
		DeepSeekBaseURL:      "https://api.deepseek.com",
		MaxRetries:           3,
		RetryDelay:           5 * time.Second,
		SuccessDelay:         3 * time.Second,
		ScoreThreshold:       8,
		PromptDir:            "prompt",
		PromptTemplate:       "step1_prompt.md",
		NewsMaxAge:           24 * time.Hour,
		PhotoMarker:          "포토",
		StorageBackend:       BackendAPI,
		APIBaseURL:           "http://localhost/api",
		StorageRetryAttempts: 3,
		StorageRetryDelay:    2 * time.Second,
		ScrapeTimeout:        15 * time.Second,
	}

	if path := os.Getenv("NEWS_TRACKER_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()

	return cfg, cfg.Validate()
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.AIProvider != "" {
		c.AIProvider = fc.AIProvider
	}
	if fc.GeminiModel != "" {
		c.GeminiModel = fc.GeminiModel
	}
	if fc.DeepSeekModel != "" {
		c.DeepSeekModel = fc.DeepSeekModel
	}
	if fc.DeepSeekBaseURL != "" {
		c.DeepSeekBaseURL = fc.DeepSeekBaseURL
	}
	if fc.StorageBackend != "" {
		c.StorageBackend = fc.StorageBackend
	}
	if fc.APIBaseURL != "" {
		c.APIBaseURL = fc.APIBaseURL
	}
	if fc.PromptDir != "" {
		c.PromptDir = fc.PromptDir
	}
	if fc.PromptTemplate != "" {
		c.PromptTemplate = fc.PromptTemplate
	}
	if fc.PhotoMarker != "" {
		c.PhotoMarker = fc.PhotoMarker
	}
	if fc.ScoreThreshold > 0 {
		c.ScoreThreshold = fc.ScoreThreshold
	}
	return nil
}

func (c *Config) applyEnv() {
	c.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	c.DeepSeekAPIKey = os.Getenv("DEEPSEEK_API_KEY")
	c.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	c.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")

	c.AIProvider = getEnvOrDefault("AI_PROVIDER", c.AIProvider)
	c.GeminiModel = getEnvOrDefault("GEMINI_MODEL", c.GeminiModel)
	c.DeepSeekModel = getEnvOrDefault("DEEPSEEK_MODEL", c.DeepSeekModel)
	c.DeepSeekBaseURL = getEnvOrDefault("DEEPSEEK_BASE_URL", c.DeepSeekBaseURL)
	c.StorageBackend = getEnvOrDefault("STORAGE_BACKEND", c.StorageBackend)
	c.APIBaseURL = getEnvOrDefault("API_BASE_URL", c.APIBaseURL)
	c.DatabaseURL = getEnvOrDefault("DATABASE_URL", c.DatabaseURL)
	c.PromptDir = getEnvOrDefault("PROMPT_DIR", c.PromptDir)
	c.PromptTemplate = getEnvOrDefault("PROMPT_TEMPLATE", c.PromptTemplate)
	c.PhotoMarker = getEnvOrDefault("PHOTO_MARKER", c.PhotoMarker)

	c.MaxRetries = getEnvIntOrDefault("MAX_RETRIES", c.MaxRetries)
	c.MaxAIRequests = getEnvIntOrDefault("MAX_AI_REQUESTS", c.MaxAIRequests)
	c.ScoreThreshold = getEnvIntOrDefault("SCORE_THRESHOLD", c.ScoreThreshold)
	c.StorageRetryAttempts = getEnvIntOrDefault("STORAGE_RETRY_ATTEMPTS", c.StorageRetryAttempts)

	c.RetryDelay = getEnvSecondsOrDefault("RETRY_DELAY", c.RetryDelay)
	c.SuccessDelay = getEnvSecondsOrDefault("SUCCESS_DELAY", c.SuccessDelay)
	c.StorageRetryDelay = getEnvSecondsOrDefault("STORAGE_RETRY_DELAY", c.StorageRetryDelay)
	c.ScrapeTimeout = getEnvSecondsOrDefault("SCRAPE_TIMEOUT", c.ScrapeTimeout)

	if hours := getEnvIntOrDefault("NEWS_MAX_AGE_HOURS", 0); hours > 0 {
		c.NewsMaxAge = time.Duration(hours) * time.Hour
	}

	if os.Getenv("SCRAPE_FULL_CONTENT") == "true" {
		c.ScrapeFullContent = true
	}
	if os.Getenv("DEBUG") == "true" {
		c.Debug = true
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvSecondsOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

// Validate checks the settings whose absence must abort the run before any
// feed processing.
func (c *Config) Validate() error {
	switch c.AIProvider {
	case ProviderGemini:
		if c.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required when AI_PROVIDER=gemini")
		}
	case ProviderDeepSeek:
		if c.DeepSeekAPIKey == "" {
			return fmt.Errorf("DEEPSEEK_API_KEY is required when AI_PROVIDER=deepseek")
		}
	default:
		return fmt.Errorf("AI_PROVIDER must be %q or %q", ProviderGemini, ProviderDeepSeek)
	}

	switch c.StorageBackend {
	case BackendAPI:
		if c.APIBaseURL == "" {
			return fmt.Errorf("API_BASE_URL is required when STORAGE_BACKEND=api")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q", BackendAPI, BackendPostgres)
	}

	if c.MaxRetries <= 0 {
		return fmt.Errorf("MAX_RETRIES must be positive")
	}
	if c.ScoreThreshold < 0 {
		return fmt.Errorf("SCORE_THRESHOLD must not be negative")
	}
	return nil
}
