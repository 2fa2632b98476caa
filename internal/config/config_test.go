package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "infinitude.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func loadFile(t *testing.T, body string) Config {
	t.Helper()
	var cfg Config
	cfg.loadFile(writeConfig(t, body))
	return cfg
}

func TestDefaultsApplied(t *testing.T) {
	cfg := loadFile(t, `{"host":"gateway.local","mqtt":{"broker":"tcp://broker:1883"}}`)

	assert.Equal(t, "gateway.local", cfg.Host)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 60, cfg.PollIntervalSeconds)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "infinitude-bridge", cfg.MQTT.ClientID)
	assert.Equal(t, "infinitude", cfg.MQTT.TopicPrefix)
	assert.Equal(t, "homeassistant", cfg.MQTT.DiscoveryPrefix)
	assert.Equal(t, "infinitude.", cfg.DDNamespace)
}

func TestExplicitValuesKept(t *testing.T) {
	cfg := loadFile(t, `{
		"host": "10.0.0.5",
		"port": 3001,
		"ssl": true,
		"poll_interval_seconds": 15,
		"listen_addr": ":9090",
		"history_file": "/var/lib/infinitude/history.db",
		"mqtt": {"broker": "tcp://broker:1883", "client_id": "bridge-2", "topic_prefix": "hvac"},
		"enable_datadog": true,
		"dd_namespace": "home.hvac."
	}`)

	assert.Equal(t, 3001, cfg.Port)
	assert.True(t, cfg.SSL)
	assert.Equal(t, 15, cfg.PollIntervalSeconds)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "/var/lib/infinitude/history.db", cfg.HistoryFile)
	assert.Equal(t, "bridge-2", cfg.MQTT.ClientID)
	assert.Equal(t, "hvac", cfg.MQTT.TopicPrefix)
	assert.True(t, cfg.EnableDatadog)
	assert.Equal(t, "home.hvac.", cfg.DDNamespace)
}

func TestValidatePanicsOnMissingHost(t *testing.T) {
	assert.Panics(t, func() {
		loadFile(t, `{"mqtt":{"broker":"tcp://broker:1883"}}`)
	})
}

func TestValidatePanicsOnMissingBroker(t *testing.T) {
	assert.Panics(t, func() {
		loadFile(t, `{"host":"gateway.local"}`)
	})
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel("info"))
	assert.Equal(t, zerolog.WarnLevel, parseLogLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel("bogus"))
}

func TestClientOptionsCredentials(t *testing.T) {
	m := MQTT{Broker: "tcp://broker:1883", ClientID: "bridge", Username: "u", Password: "p"}
	opts := m.ClientOptions()

	assert.Equal(t, "bridge", opts.ClientID)
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)
}
