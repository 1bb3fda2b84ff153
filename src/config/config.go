// Package config loads server settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gourmet/src/session"
)

var ErrMissingSigningKey = errors.New("MY_SIGNING_KEY is not set")

type Config struct {
	Addr        string `yaml:"addr"`
	Shops       string `yaml:"shops"`
	Reviews     string `yaml:"reviews"`
	ElasticURL  string `yaml:"elasticsearch_url"`
	SigningKey  string `yaml:"-"`
	Credentials string `yaml:"credentials"`
	LogLevel    string `yaml:"log_level"`
	Lang        string `yaml:"lang"`
	Images      string `yaml:"images"`

	TokenTTL      time.Duration `yaml:"token_ttl"`
	SessionIdle   time.Duration `yaml:"session_idle"`
	SecureCookies bool          `yaml:"secure_cookies"`

	SeedUsers []session.SeedUser `yaml:"seed_users"`
}

func defaults() Config {
	return Config{
		Addr:        ":8888",
		Shops:       "data/shops.json",
		Reviews:     "data/reviews.json",
		ElasticURL:  "http://localhost:9200",
		LogLevel:    "info",
		Lang:        "ja",
		Images:      "images",
		TokenTTL:    24 * time.Hour,
		SessionIdle: 2 * time.Hour,
	}
}

// Load reads path when non-empty, then lets environment variables override.
// The signing key is only read from the environment.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Addr = getEnv("GOURMET_ADDR", cfg.Addr)
	cfg.Shops = getEnv("GOURMET_SHOPS", cfg.Shops)
	cfg.Reviews = getEnv("GOURMET_REVIEWS", cfg.Reviews)
	cfg.ElasticURL = getEnv("ELASTICSEARCH_URL", cfg.ElasticURL)
	cfg.SigningKey = getEnv("MY_SIGNING_KEY", "")
	cfg.Credentials = getEnv("GOURMET_CREDENTIALS", cfg.Credentials)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Lang = getEnv("GOURMET_LANG", cfg.Lang)
	cfg.Images = getEnv("GOURMET_IMAGES", cfg.Images)

	if v := os.Getenv("GOURMET_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("GOURMET_TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token_ttl must be positive, got %s", cfg.TokenTTL)
	}
	return &cfg, nil
}

// RequireSigningKey fails when the server cannot sign session tokens.
func (c *Config) RequireSigningKey() error {
	if c.SigningKey == "" {
		return ErrMissingSigningKey
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
