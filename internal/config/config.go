// Package config loads rab settings from a TOML file, .env, and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables consulted for the Gemini API key, in order.
var apiKeyEnv = []string{"GEMINI_API_KEY", "API_KEY"}

// Config holds all rab configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Gemini     GeminiConfig     `toml:"gemini"`
	Server     ServerConfig     `toml:"server"`
	Export     ExportConfig     `toml:"export"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format,omitempty"`
}

// GeminiConfig holds AI extraction settings.
type GeminiConfig struct {
	APIKey     string `toml:"api_key,omitempty"`
	BaseURL    string `toml:"base_url,omitempty"`
	Model      string `toml:"model"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// ServerConfig holds settings for `rab serve`.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	EventsBuffer int    `toml:"events_buffer,omitempty"`
}

// ExportConfig holds document export settings.
type ExportConfig struct {
	Title string `toml:"title,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Gemini: GeminiConfig{
			Model:      "gemini-2.5-flash",
			TimeoutSec: 60,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rab")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "rab")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// LoadDotEnv loads variables from .env files without overriding the
// environment. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading %s: %w", strings.Join(existing, ", "), err)
	}
	return nil
}

// GetAPIKey returns the Gemini API key from env vars or config, in that order.
func GetAPIKey(cfg Config) string {
	for _, name := range apiKeyEnv {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key
		}
	}
	return strings.TrimSpace(cfg.Gemini.APIKey)
}

// APIKeySource names where GetAPIKey found the key.
func APIKeySource(cfg Config) string {
	for _, name := range apiKeyEnv {
		if strings.TrimSpace(os.Getenv(name)) != "" {
			return "env:" + name
		}
	}
	if strings.TrimSpace(cfg.Gemini.APIKey) != "" {
		return "config"
	}
	return "not set"
}

// Timeout returns the extraction timeout.
func (c Config) Timeout() time.Duration {
	if c.Gemini.TimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Gemini.TimeoutSec) * time.Second
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.Gemini.TimeoutSec < 0 {
		errs = append(errs, errors.New("gemini.timeout_sec must not be negative"))
	}
	if c.Server.EventsBuffer < 0 {
		errs = append(errs, errors.New("server.events_buffer must not be negative"))
	}
	if c.Gemini.BaseURL != "" && !strings.HasPrefix(c.Gemini.BaseURL, "http") {
		errs = append(errs, fmt.Errorf("gemini.base_url %q is not an http(s) URL", c.Gemini.BaseURL))
	}
	return errors.Join(errs...)
}

// MaskKey hides all but the last four characters of a secret.
func MaskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
