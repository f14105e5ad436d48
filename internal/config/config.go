// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/wins-exporter/internal/pipeline"
)

// Config represents settings that can be loaded from a JSON or YAML file and overridden by
// the environment. All fields are optional; missing values use pipeline defaults.
type Config struct {
	SessionToken   string  `json:"session_token,omitempty" yaml:"session_token,omitempty"`                             // Alphabot session cookie
	Cutoff         string  `json:"cutoff,omitempty" yaml:"cutoff,omitempty"`                                           // YYYY-MM-DD or RFC 3339
	Concurrency    int     `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"gte=0,lte=1000"`       // Detail fan-out
	RetentionDays  int     `json:"retention_days,omitempty" yaml:"retention_days,omitempty" validate:"gte=0,lte=3650"` // Mint date horizon
	BaseURL        string  `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`              // Upstream site root
	DetailRPS      float64 `json:"detail_rps,omitempty" yaml:"detail_rps,omitempty" validate:"gte=0"`                  // Detail request rate; 0 is unlimited
	TimeoutSeconds int     `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"gte=0"`        // Per-request timeout
	DatabaseURL    string  `json:"database_url,omitempty" yaml:"database_url,omitempty"`                               // PostgreSQL connection URL
	Port           int     `json:"port,omitempty" yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`          // API server port
	Verbose        bool    `json:"verbose,omitempty" yaml:"verbose,omitempty"`                                         // Print detailed debug information
}

var validate = validator.New()

// LoadConfig loads configuration from a file. Files ending in .yaml or .yml are parsed as
// YAML; anything else as JSON.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

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
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Load reads the optional file at path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields with any of the recognised environment variables that are set.
func (c *Config) ApplyEnv() {
	envString(&c.SessionToken, "ALPHABOT_SESSION_TOKEN")
	envString(&c.Cutoff, "WINS_CUTOFF")
	envInt(&c.Concurrency, "WINS_CONCURRENCY")
	envInt(&c.RetentionDays, "WINS_RETENTION_DAYS")
	envString(&c.BaseURL, "WINS_BASE_URL")
	envFloat(&c.DetailRPS, "WINS_DETAIL_RPS")
	envInt(&c.TimeoutSeconds, "WINS_TIMEOUT_SECONDS")
	envString(&c.DatabaseURL, "DATABASE_URL")
	envInt(&c.Port, "PORT")
}

// Validate checks that the configuration has valid values.
// Required values such as the session token are checked by the command that needs them.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Cutoff != "" {
		if _, err := ParseCutoff(c.Cutoff); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.SessionToken == "" {
		result.SessionToken = defaults.SessionToken
	}
	if result.Cutoff == "" {
		result.Cutoff = defaults.Cutoff
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.RetentionDays == 0 {
		result.RetentionDays = defaults.RetentionDays
	}
	if result.DetailRPS == 0 {
		result.DetailRPS = defaults.DetailRPS
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bools cannot distinguish unset from false, so flags always win for them.
	return result
}

// PipelineOptions converts the configuration into pipeline options. Zero fields keep the
// pipeline's own defaults.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	opts := pipeline.Options{
		Concurrency:   c.Concurrency,
		RetentionDays: c.RetentionDays,
		BaseURL:       c.BaseURL,
		DetailRPS:     c.DetailRPS,
		Timeout:       time.Duration(c.TimeoutSeconds) * time.Second,
	}
	if c.Cutoff != "" {
		cutoff, err := ParseCutoff(c.Cutoff)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Cutoff = cutoff
	}
	return opts, nil
}

// ParseCutoff accepts a calendar date (taken as midnight UTC) or an RFC 3339 timestamp.
func ParseCutoff(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid cutoff %q: want YYYY-MM-DD or RFC 3339", value)
}
