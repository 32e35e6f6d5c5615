// Package config provides configuration loading and validation for the
// server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Config holds the runtime configuration. Values come from an optional JSON
// file overlaid with environment variables; the environment always wins.
type Config struct {
	// Server
	Port int `json:"port,omitempty" validate:"min=0,max=65535"`

	// Storage
	DatabaseURL string `json:"database_url,omitempty"`

	// Vision analysis
	VisionProvider string `json:"vision_provider,omitempty" validate:"omitempty,oneof=openai gemini"`
	VisionModel    string `json:"vision_model,omitempty"`
	VisionAPIKey   string `json:"vision_api_key,omitempty"`

	// Rate limiting
	RateLimitPerUser  int  `json:"rate_limit_per_user,omitempty" validate:"min=0"`
	RateLimitGlobal   int  `json:"rate_limit_global,omitempty" validate:"min=0"`
	RateLimitDisabled bool `json:"rate_limit_disabled,omitempty"`

	// Result cache
	CacheTTLHours int `json:"cache_ttl_hours,omitempty" validate:"min=0"`

	// Logging
	LogLevel  string `json:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn error"`
	LogFormat string `json:"log_format,omitempty" validate:"omitempty,oneof=json console"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		Port:             8080,
		VisionProvider:   "gemini",
		RateLimitPerUser: 100,
		RateLimitGlobal:  1000,
		CacheTTLHours:    24,
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// Load builds the effective configuration: defaults, then the JSON file at
// path (if path is non-empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		cfg.overlay(fileCfg)
	}

	cfg.overlay(fromEnv())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFile reads a JSON config file. Returns an error if the file cannot be
// read or parsed.
func loadFile(path string) (*Config, error) {
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// fromEnv reads configuration from environment variables.
func fromEnv() *Config {
	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		VisionProvider: os.Getenv("VISION_PROVIDER"),
		VisionModel:    os.Getenv("VISION_MODEL"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		LogFormat:      os.Getenv("LOG_FORMAT"),
	}

	cfg.VisionAPIKey = os.Getenv("VISION_API_KEY")
	if cfg.VisionAPIKey == "" {
		// Provider-specific keys as a fallback for local setups.
		if cfg.VisionAPIKey = os.Getenv("OPENAI_API_KEY"); cfg.VisionAPIKey == "" {
			cfg.VisionAPIKey = os.Getenv("GEMINI_API_KEY")
		}
	}

	cfg.Port = envInt("PORT")
	cfg.RateLimitPerUser = envInt("RATE_LIMIT_PER_USER")
	cfg.RateLimitGlobal = envInt("RATE_LIMIT_GLOBAL")
	cfg.CacheTTLHours = envInt("CACHE_TTL_HOURS")
	cfg.RateLimitDisabled = envBool("RATE_LIMIT_DISABLED")

	return cfg
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

// overlay copies non-zero fields of other onto c. Bool fields only flip from
// false to true since unset and false are indistinguishable.
func (c *Config) overlay(other *Config) {
	if other == nil {
		return
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.DatabaseURL != "" {
		c.DatabaseURL = other.DatabaseURL
	}
	if other.VisionProvider != "" {
		c.VisionProvider = other.VisionProvider
	}
	if other.VisionModel != "" {
		c.VisionModel = other.VisionModel
	}
	if other.VisionAPIKey != "" {
		c.VisionAPIKey = other.VisionAPIKey
	}
	if other.RateLimitPerUser != 0 {
		c.RateLimitPerUser = other.RateLimitPerUser
	}
	if other.RateLimitGlobal != 0 {
		c.RateLimitGlobal = other.RateLimitGlobal
	}
	if other.CacheTTLHours != 0 {
		c.CacheTTLHours = other.CacheTTLHours
	}
	if other.RateLimitDisabled {
		c.RateLimitDisabled = true
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}
