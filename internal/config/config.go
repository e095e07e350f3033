package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/indexer"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/launcher"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/logging"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/session"
)

// AppName names the configuration directory
const AppName = "gnome-search-providers-jetbrains"

// ConfigFileName is the name of the configuration file
const ConfigFileName = "config.toml"

// PathEnv overrides the configuration file path
const PathEnv = "SEARCH_PROVIDERS_CONFIG"

// Duration is a time.Duration written as a string like "5s" in TOML
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	if parsed < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", text)
	}
	d.Duration = parsed
	return nil
}

// MarshalText formats the duration
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the service configuration
type Config struct {
	// Debounce is the quiet window during which the index is reused; "0s" disables it
	Debounce Duration `toml:"debounce"`

	// RetainedSnapshots is the number of snapshots kept for resolving old result IDs
	RetainedSnapshots int `toml:"retained_snapshots"`

	// Watch enables refreshing when a store file changes
	Watch bool `toml:"watch"`

	// ReadConcurrency bounds concurrent store reads of one provider
	ReadConcurrency int `toml:"read_concurrency"`

	// Disabled lists desktop IDs of providers not to register
	Disabled []string `toml:"disabled"`

	Log    LogSettings    `toml:"log"`
	Launch LaunchSettings `toml:"launch"`
}

// LogSettings configures logging
type LogSettings struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// LaunchSettings configures how applications are started
type LaunchSettings struct {
	// Command receives the desktop entry path and an optional URI as arguments
	Command []string `toml:"command"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Debounce:          Duration{indexer.DefaultDebounce},
		RetainedSnapshots: session.DefaultRetainedSnapshots,
		Watch:             true,
		ReadConcurrency:   indexer.DefaultReadConcurrency,
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
		Launch: LaunchSettings{
			Command: append([]string(nil), launcher.DefaultCommand...),
		},
	}
}

// DefaultPath returns the configuration file path, honoring PathEnv and
// XDG_CONFIG_HOME
func DefaultPath() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	dir, err := ConfigHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, ConfigFileName), nil
}

// ConfigHome returns the user's configuration directory
func ConfigHome() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory required: %w", err)
	}
	return filepath.Join(home, ".config"), nil
}

// Load reads the configuration at path. A missing file yields the defaults;
// keys absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Default(), fmt.Errorf("config.toml parse error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for unusable values
func (c *Config) Validate() error {
	if c.RetainedSnapshots < 1 {
		return fmt.Errorf("retained_snapshots must be at least 1")
	}
	if c.ReadConcurrency < 1 {
		return fmt.Errorf("read_concurrency must be at least 1")
	}
	if len(c.Launch.Command) == 0 {
		return fmt.Errorf("launch.command must not be empty")
	}
	for _, id := range c.Disabled {
		if _, ok := Lookup(id); !ok {
			return fmt.Errorf("disabled: unknown provider %q", id)
		}
	}
	return nil
}

// Enabled returns the providers not disabled by the configuration
func (c *Config) Enabled() []Provider {
	disabled := make(map[string]bool, len(c.Disabled))
	for _, id := range c.Disabled {
		disabled[id] = true
	}
	var out []Provider
	for _, p := range Providers {
		if !disabled[p.DesktopID] {
			out = append(out, p)
		}
	}
	return out
}

// Logging returns the logging configuration
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}

// Indexer returns the indexer configuration
func (c *Config) Indexer() indexer.Config {
	return indexer.Config{
		Debounce:        c.Debounce.Duration,
		ReadConcurrency: c.ReadConcurrency,
	}
}

// Session returns the session manager configuration
func (c *Config) Session() session.Config {
	return session.Config{RetainedSnapshots: c.RetainedSnapshots}
}
