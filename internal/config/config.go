package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

type MQTT struct {
	Broker          string `json:"broker"`
	ClientID        string `json:"client_id"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	TopicPrefix     string `json:"topic_prefix"`
	DiscoveryPrefix string `json:"discovery_prefix"`
}

type Config struct {
	ConfigFile string
	LogLevel   zerolog.Level
	Pretty     bool

	Host string `json:"host"`
	Port int    `json:"port"`
	SSL  bool   `json:"ssl"`

	PollIntervalSeconds int    `json:"poll_interval_seconds"`
	ListenAddr          string `json:"listen_addr"`
	HistoryFile         string `json:"history_file"`

	MQTT MQTT `json:"mqtt"`

	EnableDatadog bool     `json:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace"`
	DDTags        []string `json:"dd_tags"`
}

func Load() Config {
	var cfg Config
	var logLevel string

	flag.StringVar(&cfg.ConfigFile, "config-file", "infinitude.json", "Path to bridge config file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&cfg.Pretty, "pretty", false, "Human-readable log output")
	flag.Parse()

	cfg.LogLevel = parseLogLevel(logLevel)
	cfg.loadFile(cfg.ConfigFile)
	return cfg
}

func (cfg *Config) loadFile(path string) {
	file, err := os.Open(path)
	if err != nil {
		panic("Failed to load config file: " + err.Error())
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		panic("Failed to parse config file: " + err.Error())
	}

	cfg.applyDefaults()
	cfg.validate()
}

func (cfg *Config) applyDefaults() {
	if cfg.Port == 0 {
		cfg.Port = 3000
	}
	if cfg.PollIntervalSeconds == 0 {
		cfg.PollIntervalSeconds = 60
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "infinitude-bridge"
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "infinitude"
	}
	if cfg.MQTT.DiscoveryPrefix == "" {
		cfg.MQTT.DiscoveryPrefix = "homeassistant"
	}
	if cfg.DDNamespace == "" {
		cfg.DDNamespace = "infinitude."
	}
}

func (cfg *Config) validate() {
	if cfg.Host == "" {
		panic("Missing required config field: host")
	}
	if cfg.MQTT.Broker == "" {
		panic("Missing required config field: mqtt.broker")
	}
	if cfg.PollIntervalSeconds < 0 {
		panic(fmt.Sprintf("Invalid poll_interval_seconds: %d", cfg.PollIntervalSeconds))
	}
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ClientOptions builds the paho options for the configured broker.
// Subscriptions are expected to be installed in the OnConnect handler so
// they survive reconnects.
func (m *MQTT) ClientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(m.Broker).
		SetClientID(m.ClientID).
		SetAutoReconnect(true)
	if m.Username != "" {
		opts.SetUsername(m.Username)
		opts.SetPassword(m.Password)
	}
	return opts
}
