// Package config loads server configuration from the environment plus an
// optional YAML keyword-table file for rule tuning without a redeploy.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the server configuration, populated from QUERYPILOT_* env vars.
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	RedisURL string `envconfig:"REDIS_URL"`

	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	ProfileCacheTTL time.Duration `envconfig:"PROFILE_CACHE_TTL" default:"2m"`

	// Provider selects the LLM backend: "openai" or "anthropic".
	Provider string `envconfig:"LLM_PROVIDER" default:"openai"`
	Model    string `envconfig:"LLM_MODEL"`

	ClassifierURL string `envconfig:"CLASSIFIER_URL"`
	ExtractorURL  string `envconfig:"EXTRACTOR_URL"`
	VoiceURL      string `envconfig:"VOICE_URL"`
	SearchURL     string `envconfig:"SEARCH_URL"`
	RetrainURL    string `envconfig:"RETRAIN_URL"`

	// KeywordsFile points at the optional YAML keyword tables.
	KeywordsFile string `envconfig:"KEYWORDS_FILE"`
}

// Load reads the configuration from QUERYPILOT_-prefixed environment
// variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("querypilot", &cfg); err != nil {
		return nil, fmt.Errorf("process environment configuration: %w", err)
	}
	return &cfg, nil
}
