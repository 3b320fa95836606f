package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, 500*time.Millisecond, cfg.Delays.LoadingIndicator)
	require.Equal(t, 250*time.Millisecond, cfg.Delays.SheetDismissal)
	require.Equal(t, 1500*time.Millisecond, cfg.Delays.SharePresentation)
	require.True(t, cfg.Flags["threads"])
	require.Equal(t, "file", cfg.Tracing.Exporter)
	require.NoError(t, Validate(cfg))
}

func TestLoad_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
user_id: "@alice:example.org"
delays:
  loading_indicator: 1s
flags:
  threads: false
loop:
  queue_capacity: 16
`), 0o600))

	cfg, used, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, used)
	require.Equal(t, "@alice:example.org", cfg.UserID)
	require.Equal(t, time.Second, cfg.Delays.LoadingIndicator)
	// Unset values keep their defaults.
	require.Equal(t, 250*time.Millisecond, cfg.Delays.SheetDismissal)
	require.False(t, cfg.Flags["threads"])
	require.Equal(t, 16, cfg.Loop.QueueCapacity)
	require.Equal(t, 20, cfg.Recents.Limit)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracing:\n  sample_rate: 2\n"), 0o600))

	_, _, err := Load(path)
	require.ErrorContains(t, err, "sample_rate")
}

func TestLoad_WritesDefaultConfigWhenNoneFound(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, used, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfigPath, used)
	require.FileExists(t, DefaultConfigPath)
	require.Equal(t, Defaults().Delays, cfg.Delays)
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name    string
		tracing TracingConfig
		wantErr string
	}{
		{"defaults", Defaults().Tracing, ""},
		{"bad exporter", TracingConfig{Exporter: "jaeger", SampleRate: 1}, "tracing.exporter"},
		{"negative rate", TracingConfig{SampleRate: -0.1}, "sample_rate"},
		{"otlp without endpoint", TracingConfig{Enabled: true, Exporter: "otlp", SampleRate: 1}, "otlp_endpoint"},
		{"disabled otlp without endpoint", TracingConfig{Exporter: "otlp", SampleRate: 1}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.tracing)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateDelays_Negative(t *testing.T) {
	d := DefaultDelays()
	d.SheetDismissal = -time.Millisecond
	require.ErrorContains(t, ValidateDelays(d), "delays.sheet_dismissal")
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	cfg, _, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultDelays(), cfg.Delays)
	require.Equal(t, Defaults().Flags, cfg.Flags)
}
