// Package config provides YAML/env configuration loading for blechat.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root application configuration. The target device
// address is not configuration: it arrives as the CLI argument.
type Config struct {
	// AppName optional logical name of the client
	AppName string `mapstructure:"app_name"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`

	// Chat holds session tuning
	Chat ChatConfig `mapstructure:"chat"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths.
	// Defaults to stderr so log lines never interleave with the prompt.
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ChatConfig tunes the interactive session.
type ChatConfig struct {
	// Prompt printed before each input wait
	Prompt string `mapstructure:"prompt"`
	// PostSendYieldMS pause after a send before re-prompting
	PostSendYieldMS int `mapstructure:"post_send_yield_ms"`
	// ScanWindowMS bounds one device scan
	ScanWindowMS int `mapstructure:"scan_window_ms"`
	// Codec names the wire codec: json, cbor or proto
	Codec string `mapstructure:"codec"`
}

// PostSendYield returns the configured yield as a duration.
func (c ChatConfig) PostSendYield() time.Duration {
	return time.Duration(c.PostSendYieldMS) * time.Millisecond
}

// ScanWindow returns the configured scan window as a duration.
func (c ChatConfig) ScanWindow() time.Duration {
	return time.Duration(c.ScanWindowMS) * time.Millisecond
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		AppName: "blechat",
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stderr"},
			Development: false,
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/blechat.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Chat: ChatConfig{
			Prompt:          "Ch0> ",
			PostSendYieldMS: 100,
			ScanWindowMS:    10000,
			Codec:           "cbor",
		},
	}
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment
// overrides. Environment variables use the prefix BLECHAT and `.`/`-`
// are replaced with `_`. Example: BLECHAT_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BLECHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("chat.prompt", cfg.Chat.Prompt)
	v.SetDefault("chat.post_send_yield_ms", cfg.Chat.PostSendYieldMS)
	v.SetDefault("chat.scan_window_ms", cfg.Chat.ScanWindowMS)
	v.SetDefault("chat.codec", cfg.Chat.Codec)

	// Choose config file
	if path == "" {
		if envPath := os.Getenv("BLECHAT_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search common locations with base name `blechat`
		v.SetConfigName("blechat")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".blechat"))
		}
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var viperConfigFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &viperConfigFileNotFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch lvl {
	case "debug", "info", "warn", "warning", "error":
		// ok
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	switch strings.ToLower(strings.TrimSpace(c.Chat.Codec)) {
	case "", "json", "cbor", "proto", "protobuf":
		// ok
	default:
		return fmt.Errorf("invalid chat.codec: %q", c.Chat.Codec)
	}
	if c.Chat.Prompt == "" {
		c.Chat.Prompt = "Ch0> "
	}
	if c.Chat.PostSendYieldMS < 0 {
		return fmt.Errorf("chat.post_send_yield_ms must be >= 0")
	}
	if c.Chat.ScanWindowMS <= 0 {
		c.Chat.ScanWindowMS = 10000
	}
	return nil
}
