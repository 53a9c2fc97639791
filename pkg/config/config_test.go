package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipemeta/pipemeta/pkg/config"
)

func TestDurationUnmarshalJSON(t *testing.T) {
	scenarios := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{name: "string duration", input: `"90s"`, expected: 90 * time.Second},
		{name: "nanosecond number", input: `5000000000`, expected: 5 * time.Second},
		{name: "invalid string", input: `"ninety seconds"`, wantErr: true},
		{name: "invalid type", input: `true`, wantErr: true},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			var d config.Duration
			err := json.Unmarshal([]byte(scenario.input), &d)
			if scenario.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, scenario.expected, d.Duration)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.StoreURL)
	assert.Equal(t, 300*time.Second, cfg.CacheTTL.Duration)
	assert.Equal(t, "localhost:8580", cfg.Address)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipemeta.yaml")
	content := []byte(`
address: "0.0.0.0:9000"
store_url: "file:./metadata.db"
log_level: debug
cache_ttl: 45s
shutdown_timeout: 5s
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Address)
	assert.Equal(t, "file:./metadata.db", cfg.StoreURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.CacheTTL.Duration)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout.Duration)

	// Values the file does not mention keep their defaults.
	assert.Equal(t, "./artifacts", cfg.ArtifactRoot)
}

func TestLoadRejectsInvalid(t *testing.T) {
	scenarios := []struct {
		name    string
		content string
	}{
		{name: "bad log level", content: "log_level: verbose\n"},
		{name: "bad address", content: "address: not-an-address\n"},
		{name: "empty store url", content: "store_url: \"\"\n"},
		{name: "bad duration", content: "cache_ttl: [1, 2]\n"},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pipemeta.yaml")
			require.NoError(t, os.WriteFile(path, []byte(scenario.content), 0o600))

			_, err := config.Load(path)
			require.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := config.Defaults()
	cfg.LogLevel = "warn"

	logger, err := config.NewLogger(cfg)
	require.NoError(t, err)
	assert.Equal(t, "warning", logger.GetLevel().String())

	cfg.LogLevel = "shouting"
	_, err = config.NewLogger(cfg)
	require.Error(t, err)
}
