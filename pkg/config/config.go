package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr        string
	AppEnv      string
	DatabaseURL string
	JWTSecret   string

	ProviderType    string // "openai" or "anthropic"
	OpenAIAPIKey    string
	AnthropicAPIKey string
	ChatModel       string
	ClassifierModel string
	LLMCallTimeout  time.Duration

	// MetricsRefreshInterval drives the admin dashboard snapshot refresher.
	MetricsRefreshInterval time.Duration
}

// fileConfig is the optional YAML overlay (CONFIG_FILE). Env vars win for
// secrets; the file covers the rest.
type fileConfig struct {
	Addr                   string `yaml:"addr"`
	AppEnv                 string `yaml:"app_env"`
	ProviderType           string `yaml:"provider"`
	ChatModel              string `yaml:"chat_model"`
	ClassifierModel        string `yaml:"classifier_model"`
	LLMCallTimeout         string `yaml:"llm_call_timeout"`
	MetricsRefreshInterval string `yaml:"metrics_refresh_interval"`
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Addr:                   getEnv("ADDR", ":8090"),
		AppEnv:                 getEnv("APP_ENV", "development"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		ProviderType:           getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:           os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:        os.Getenv("ANTHROPIC_API_KEY"),
		ChatModel:              getEnv("CHAT_MODEL", "gpt-4"),
		ClassifierModel:        getEnv("CLASSIFIER_MODEL", "gpt-3.5-turbo"),
		LLMCallTimeout:         30 * time.Second,
		MetricsRefreshInterval: 30 * time.Second,
	}

	if v := os.Getenv("LLM_CALL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("LLM_CALL_TIMEOUT: %w", err)
		}
		cfg.LLMCallTimeout = d
	}
	if v := os.Getenv("METRICS_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("METRICS_REFRESH_INTERVAL: %w", err)
		}
		cfg.MetricsRefreshInterval = d
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fc.Addr != "" {
		c.Addr = fc.Addr
	}
	if fc.AppEnv != "" {
		c.AppEnv = fc.AppEnv
	}
	if fc.ProviderType != "" {
		c.ProviderType = fc.ProviderType
	}
	if fc.ChatModel != "" {
		c.ChatModel = fc.ChatModel
	}
	if fc.ClassifierModel != "" {
		c.ClassifierModel = fc.ClassifierModel
	}
	if fc.LLMCallTimeout != "" {
		d, err := time.ParseDuration(fc.LLMCallTimeout)
		if err != nil {
			return fmt.Errorf("llm_call_timeout: %w", err)
		}
		c.LLMCallTimeout = d
	}
	if fc.MetricsRefreshInterval != "" {
		d, err := time.ParseDuration(fc.MetricsRefreshInterval)
		if err != nil {
			return fmt.Errorf("metrics_refresh_interval: %w", err)
		}
		c.MetricsRefreshInterval = d
	}
	return nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	switch c.ProviderType {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return errors.New("config: OPENAI_API_KEY is required for the openai provider")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return errors.New("config: ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	default:
		return fmt.Errorf("config: unknown LLM_PROVIDER %q", c.ProviderType)
	}
	return nil
}

// APIKey returns the key for the configured provider type.
func (c *Config) APIKey() string {
	if c.ProviderType == "anthropic" {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
