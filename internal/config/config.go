// Package config provides configuration types, defaults, loading and
// persistence for roomflow.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/roomflow/internal/log"
)

// DefaultConfigPath is the project-local config location.
const DefaultConfigPath = ".roomflow/config.yaml"

// Config holds all configuration options for roomflow.
type Config struct {
	UserID  string          `mapstructure:"user_id"`
	Delays  DelaysConfig    `mapstructure:"delays"`
	Flags   map[string]bool `mapstructure:"flags"`
	Tracing TracingConfig   `mapstructure:"tracing"`
	Recents RecentsConfig   `mapstructure:"recents"`
	Cache   CacheConfig     `mapstructure:"cache"`
	Loop    LoopConfig      `mapstructure:"loop"`
}

// DelaysConfig holds the fixed delays the flows wait for between
// presentation steps.
type DelaysConfig struct {
	// LoadingIndicator is how long an operation runs before the loading
	// modal is shown.
	LoadingIndicator time.Duration `mapstructure:"loading_indicator"`
	// SheetDismissal is the wait after dismissing a sheet before presenting
	// the next one.
	SheetDismissal       time.Duration `mapstructure:"sheet_dismissal"`
	SharePresentation    time.Duration `mapstructure:"share_presentation"`
	SettingsLogout       time.Duration `mapstructure:"settings_logout"`
	MemberProfileReplace time.Duration `mapstructure:"member_profile_replace"`
	ChatBackupPush       time.Duration `mapstructure:"chat_backup_push"`
	ToastDuration        time.Duration `mapstructure:"toast_duration"`
}

// TracingConfig holds tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend: "none", "file", "stdout", "otlp".
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output path for the "file" exporter.
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// RecentsConfig configures the recently visited rooms store.
type RecentsConfig struct {
	DBPath string `mapstructure:"db_path"`
	Limit  int    `mapstructure:"limit"`
}

// CacheConfig configures the alias resolution cache.
type CacheConfig struct {
	AliasTTL        time.Duration `mapstructure:"alias_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// LoopConfig configures the coordination loop.
type LoopConfig struct {
	QueueCapacity     int           `mapstructure:"queue_capacity"`
	SlowTaskThreshold time.Duration `mapstructure:"slow_task_threshold"`
}

// DefaultDataDir returns ~/.roomflow, or ".roomflow" if the home directory is
// unavailable.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".roomflow"
	}
	return filepath.Join(home, ".roomflow")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	return filepath.Join(DefaultDataDir(), "traces", "traces.jsonl")
}

// DefaultRecentsDBPath returns the default path of the recents database.
func DefaultRecentsDBPath() string {
	return filepath.Join(DefaultDataDir(), "roomflow.db")
}

// DefaultDelays returns the presentation delays the flows were tuned with.
func DefaultDelays() DelaysConfig {
	return DelaysConfig{
		LoadingIndicator:     500 * time.Millisecond,
		SheetDismissal:       250 * time.Millisecond,
		SharePresentation:    1500 * time.Millisecond,
		SettingsLogout:       100 * time.Millisecond,
		MemberProfileReplace: 500 * time.Millisecond,
		ChatBackupPush:       250 * time.Millisecond,
		ToastDuration:        2 * time.Second,
	}
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		UserID: "@me:example.org",
		Delays: DefaultDelays(),
		Flags: map[string]bool{
			"threads":        true,
			"space-settings": true,
			"knock-requests": true,
			"pinned-events":  true,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Recents: RecentsConfig{
			DBPath: DefaultRecentsDBPath(),
			Limit:  20,
		},
		Cache: CacheConfig{
			AliasTTL:        10 * time.Minute,
			CleanupInterval: 30 * time.Minute,
		},
		Loop: LoopConfig{
			QueueCapacity:     1024,
			SlowTaskThreshold: 100 * time.Millisecond,
		},
	}
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("user_id", d.UserID)
	v.SetDefault("delays.loading_indicator", d.Delays.LoadingIndicator)
	v.SetDefault("delays.sheet_dismissal", d.Delays.SheetDismissal)
	v.SetDefault("delays.share_presentation", d.Delays.SharePresentation)
	v.SetDefault("delays.settings_logout", d.Delays.SettingsLogout)
	v.SetDefault("delays.member_profile_replace", d.Delays.MemberProfileReplace)
	v.SetDefault("delays.chat_backup_push", d.Delays.ChatBackupPush)
	v.SetDefault("delays.toast_duration", d.Delays.ToastDuration)
	v.SetDefault("flags", d.Flags)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("recents.db_path", d.Recents.DBPath)
	v.SetDefault("recents.limit", d.Recents.Limit)
	v.SetDefault("cache.alias_ttl", d.Cache.AliasTTL)
	v.SetDefault("cache.cleanup_interval", d.Cache.CleanupInterval)
	v.SetDefault("loop.queue_capacity", d.Loop.QueueCapacity)
	v.SetDefault("loop.slow_task_threshold", d.Loop.SlowTaskThreshold)
}

// Load reads configuration. An explicit path must exist. Otherwise the
// lookup order is .roomflow/config.yaml, then ~/.config/roomflow/config.yaml;
// when neither exists the defaults are written to .roomflow/config.yaml.
// It returns the config and the file it was read from ("" if none).
func Load(path string) (Config, string, error) {
	v := viper.New()
	SetDefaults(v)

	switch {
	case path != "":
		v.SetConfigFile(path)
	case fileExists(DefaultConfigPath):
		v.SetConfigFile(DefaultConfigPath)
	default:
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "roomflow"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, "", fmt.Errorf("reading config: %w", err)
		}
		if writeErr := WriteDefaultConfig(DefaultConfigPath); writeErr == nil {
			v.SetConfigFile(DefaultConfigPath)
			_ = v.ReadInConfig()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, "", err
	}

	log.Debug(log.CatConfig, "config loaded", "path", v.ConfigFileUsed())
	return cfg, v.ConfigFileUsed(), nil
}

// Validate checks the configuration for errors. Zero values are valid and
// fall back to defaults where noted.
func Validate(c Config) error {
	if err := ValidateDelays(c.Delays); err != nil {
		return err
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	if c.Recents.Limit < 0 {
		return fmt.Errorf("recents.limit must not be negative, got %d", c.Recents.Limit)
	}
	if c.Loop.QueueCapacity < 0 {
		return fmt.Errorf("loop.queue_capacity must not be negative, got %d", c.Loop.QueueCapacity)
	}
	return nil
}

// ValidateDelays rejects negative delays.
func ValidateDelays(d DelaysConfig) error {
	for name, value := range map[string]time.Duration{
		"loading_indicator":      d.LoadingIndicator,
		"sheet_dismissal":        d.SheetDismissal,
		"share_presentation":     d.SharePresentation,
		"settings_logout":        d.SettingsLogout,
		"member_profile_replace": d.MemberProfileReplace,
		"chat_backup_push":       d.ChatBackupPush,
		"toast_duration":         d.ToastDuration,
	} {
		if value < 0 {
			return fmt.Errorf("delays.%s must not be negative, got %s", name, value)
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	if tracing.Enabled && tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# roomflow configuration

# Signed-in user for the simulated session
user_id: "@me:example.org"

# Presentation delays used by the navigation flows
delays:
  loading_indicator: 500ms       # wait before showing the loading modal
  sheet_dismissal: 250ms         # wait after dismissing a sheet before the next
  share_presentation: 1500ms     # wait before showing the share picker over an open room
  settings_logout: 100ms         # wait between closing settings and logging out
  member_profile_replace: 500ms  # wait before replacing member details with a profile
  chat_backup_push: 250ms        # wait before pushing chat backup settings
  toast_duration: 2s             # how long toasts stay visible

# Feature flags
flags:
  threads: true
  space-settings: true
  knock-requests: true
  pinned-events: true

# Recently visited rooms
recents:
  # db_path: ~/.roomflow/roomflow.db
  limit: 20

# Alias resolution cache
cache:
  alias_ttl: 10m
  cleanup_interval: 30m

# Coordination loop
loop:
  queue_capacity: 1024
  slow_task_threshold: 100ms

# Tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # none, file, stdout, otlp (default: file)
#   file_path: ~/.roomflow/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
