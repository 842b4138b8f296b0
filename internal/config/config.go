// Package config holds user preferences for the PaperChat client. Settings
// live in a JSON file under a project-local .paperchat directory (or
// ~/.paperchat as a fallback) and can be overridden through the environment,
// including a .env file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
)

const defaultAPIURL = "http://localhost:8000"

// Config holds user preferences.
type Config struct {
	APIURL         string `json:"api_url"`
	Theme          string `json:"theme"` // "light" or "dark"
	RequestTimeout int    `json:"request_timeout_seconds"`
	LogFile        string `json:"log_file"`
	Debug          bool   `json:"debug"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		APIURL:         defaultAPIURL,
		Theme:          "light",
		RequestTimeout: 60,
	}
}

// Validate checks the configuration for obvious mistakes.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.APIURL, validation.Required, is.URL),
		validation.Field(&c.Theme, validation.In("light", "dark")),
		// Required rejects the zero value; ozzo skips Min/Max on empty fields.
		validation.Field(&c.RequestTimeout, validation.Required, validation.Min(1), validation.Max(600)),
	)
}

// Timeout returns the request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Dir returns the directory where config and usage data are stored.
func Dir() (string, error) {
	// Prefer a project-local .paperchat directory if present or creatable.
	if cwd, err := os.Getwd(); err == nil {
		localDir := filepath.Join(cwd, ".paperchat")
		if stat, err := os.Stat(localDir); (err == nil && stat.IsDir()) || os.IsNotExist(err) {
			return localDir, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".paperchat"), nil
}

// File returns the full path to the config file.
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the configuration from disk and applies environment overrides.
// A missing file yields the defaults.
func Load() (Config, error) {
	// A .env in the working directory supplies environment overrides; its
	// absence is not an error.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	path, err := File()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return DefaultConfig(), err
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration to disk.
func Save(cfg Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path, err := File()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PAPERCHAT_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("PAPERCHAT_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("PAPERCHAT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RequestTimeout = n
		}
	}
	if v := os.Getenv("PAPERCHAT_DEBUG"); v != "" {
		cfg.Debug = v == "1" || v == "true"
	}
}
