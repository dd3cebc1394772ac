// Package config loads runtime settings from defaults, an optional TOML file and
// TERMLOOP_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. TERMLOOP_POLL_INTERVAL
	EnvPrefix = "TERMLOOP"
	// EnvConfigFile points at an explicit config file
	EnvConfigFile = "TERMLOOP_CONFIG"
	// EnvLogging enables file logging when set to any value
	EnvLogging = "TERMLOOP_LOGGING"
)

// Config holds application configuration
type Config struct {
	Poll      PollConfig
	Workspace WorkspaceConfig
	Audio     AudioConfig
	Log       LogConfig
}

// PollConfig holds event source sampling intervals
type PollConfig struct {
	Interval     time.Duration
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// WorkspaceConfig holds demo application settings
type WorkspaceConfig struct {
	Root         string
	ScanInterval time.Duration `mapstructure:"scan_interval"`
	Watch        bool
	ShowHidden   bool `mapstructure:"show_hidden"`
}

// AudioConfig holds refresh chime settings
type AudioConfig struct {
	Enabled bool
	Volume  float64
}

// LogConfig holds trace logging settings
type LogConfig struct {
	Enabled bool
	Path    string
	Level   string
}

// DefaultLogPath is the trace log location under the user's home directory
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".termloop", "termloop.log")
}

// Load reads configuration from file and env
// An explicit path (flag) wins over TERMLOOP_CONFIG, which wins over ~/.config/termloop/config.toml
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("poll.interval", 100*time.Millisecond)
	v.SetDefault("poll.tick_interval", 2*time.Second)
	v.SetDefault("workspace.root", ".")
	v.SetDefault("workspace.scan_interval", 250*time.Millisecond)
	v.SetDefault("workspace.watch", true)
	v.SetDefault("workspace.show_hidden", false)
	v.SetDefault("audio.enabled", false)
	v.SetDefault("audio.volume", 0.5)
	v.SetDefault("log.enabled", false)
	v.SetDefault("log.path", DefaultLogPath())
	v.SetDefault("log.level", "trace")

	v.SetConfigType("toml")

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "termloop"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// A missing default file is fine; a named file must exist and parse
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "read config")
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}

	// Presence of the logging toggle enables logging regardless of its value
	if _, ok := os.LookupEnv(EnvLogging); ok {
		c.Log.Enabled = true
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the loop cannot run with
func (c Config) Validate() error {
	if c.Poll.Interval <= 0 {
		return errors.Errorf("poll.interval must be positive, got %s", c.Poll.Interval)
	}
	if c.Poll.TickInterval <= 0 {
		return errors.Errorf("poll.tick_interval must be positive, got %s", c.Poll.TickInterval)
	}
	if c.Workspace.ScanInterval < 0 {
		return errors.Errorf("workspace.scan_interval must not be negative, got %s", c.Workspace.ScanInterval)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return errors.Errorf("audio.volume must be within [0, 1], got %v", c.Audio.Volume)
	}
	return nil
}
