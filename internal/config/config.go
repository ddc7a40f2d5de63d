// Package config manages application configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"ytq/internal/storage"
)

// FileName is the config file inside the config directory.
const FileName = "config.json"

// ErrConfig indicates an unknown key or an invalid value.
var ErrConfig = errors.New("config: invalid setting")

// Config holds the user's settings. It is loaded once per command and
// passed explicitly to whatever needs it.
type Config struct {
	// Mode selects queue (FIFO) or stack (LIFO) popping.
	Mode storage.Mode `json:"mode"`
	// Offline disables every network call; fetch refuses to run and next
	// only prints the URL.
	Offline bool `json:"offline"`
	// APIKey is the YouTube Data API v3 key.
	APIKey string `json:"youtube_api_key,omitempty"`
}

// Default returns configuration with safe defaults.
func Default() *Config {
	return &Config{
		Mode:    storage.ModeQueue,
		Offline: true,
	}
}

// Load reads the config file at path and applies environment overrides.
// Priority: env vars > config file > defaults. A missing file is not an
// error. A corrupt file or an invalid stored value falls back to the
// default with a warning, so `ytq config` can still repair it.
func Load(path string, logger *slog.Logger) (*Config, error) {
	cfg, err := LoadForEdit(path, logger)
	if err != nil {
		return nil, err
	}
	cfg.loadFromEnv()
	return cfg, nil
}

// LoadFile reads only the config file, without environment overrides or
// repairs. Undecodable content wraps storage.ErrStorageCorrupt.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := storage.ReadJSONFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load config file: %w", err)
	}
	if cfg.Mode == "" {
		cfg.Mode = storage.ModeQueue
	}
	return cfg, nil
}

// LoadForEdit reads the config file for a read-modify-write. Environment
// values are left out so they are never persisted; a corrupt file yields
// the defaults and invalid values are repaired, each with a warning.
func LoadForEdit(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg, err := LoadFile(path)
	switch {
	case errors.Is(err, storage.ErrStorageCorrupt):
		logger.Warn("config file is unreadable, using defaults", "path", path, "error", err)
		cfg = Default()
	case err != nil:
		return nil, err
	}
	for _, fix := range cfg.Repair() {
		logger.Warn("invalid config value replaced", "path", path, "fix", fix)
	}
	return cfg, nil
}

// Repair resets invalid values to their defaults and describes each reset.
func (c *Config) Repair() []string {
	var fixes []string
	if _, err := storage.ParseMode(string(c.Mode)); err != nil {
		fixes = append(fixes, fmt.Sprintf("mode %q reset to %q", c.Mode, storage.ModeQueue))
		c.Mode = storage.ModeQueue
	}
	return fixes
}

// Save atomically writes the config to path.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := storage.WriteJSONFile(path, c); err != nil {
		return fmt.Errorf("save config file: %w", err)
	}
	return nil
}

// loadFromEnv overrides config with environment variables. YTQ_API_KEY
// wins over YOUTUBE_API_KEY.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("YTQ_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("YTQ_MODE"); v != "" {
		if mode, err := storage.ParseMode(v); err == nil {
			c.Mode = mode
		}
	}
	if v := os.Getenv("YTQ_OFFLINE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Offline = b
		}
	}
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if _, err := storage.ParseMode(string(c.Mode)); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return nil
}

// Keys lists the settable keys in display order.
var Keys = []string{"mode", "offline", "youtube_api_key"}

// Set assigns value to key. "api_key" is accepted as an alias for
// "youtube_api_key"; an empty key value clears it.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "mode":
		mode, err := storage.ParseMode(value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
		c.Mode = mode
	case "offline":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: offline must be true or false, got %q", ErrConfig, value)
		}
		c.Offline = b
	case "youtube_api_key", "api_key":
		c.APIKey = value
	default:
		return fmt.Errorf("%w: unknown key %q (valid keys: %s)", ErrConfig, key, strings.Join(Keys, ", "))
	}
	return nil
}

// Get returns the display value of key. The API key is masked.
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "mode":
		return string(c.Mode), nil
	case "offline":
		return strconv.FormatBool(c.Offline), nil
	case "youtube_api_key", "api_key":
		return MaskKey(c.APIKey), nil
	}
	return "", fmt.Errorf("%w: unknown key %q", ErrConfig, key)
}

// MaskKey hides all but the last four characters of an API key.
func MaskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// LoadDotEnv loads KEY=VALUE pairs from dir/.env into the process
// environment. Variables that are already set are left alone, and a
// missing file is ignored.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
