package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/go-infinitude/infinitude/infinitude"
	"github.com/go-infinitude/infinitude/internal/bridge"
	"github.com/go-infinitude/infinitude/internal/config"
	"github.com/go-infinitude/infinitude/internal/datadog"
	"github.com/go-infinitude/infinitude/internal/history"
	"github.com/go-infinitude/infinitude/internal/logging"
	"github.com/go-infinitude/infinitude/internal/routes"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.Pretty)
	datadog.InitMetrics(cfg.DDAgentAddr, cfg.DDNamespace, cfg.DDTags, cfg.EnableDatadog)

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Int("poll_interval_seconds", cfg.PollIntervalSeconds).
		Msg("Starting Infinitude bridge")

	client := infinitude.NewClient(infinitude.Config{
		Host: cfg.Host,
		Port: cfg.Port,
		SSL:  cfg.SSL,
	})
	if err := client.Connect(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to gateway")
	}
	log.Info().Strs("zones", client.ZoneIDs()).Msg("Connected to gateway")

	var store *history.Store
	if cfg.HistoryFile != "" {
		var err error
		store, err = history.Open(cfg.HistoryFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.HistoryFile).Msg("Failed to open history database")
		}
	}

	var mqttClient mqtt.Client
	b := bridge.New(&bridge.Config{
		TopicPrefix:     cfg.MQTT.TopicPrefix,
		DiscoveryPrefix: cfg.MQTT.DiscoveryPrefix,
		Client:          client,
		OnRefresh:       func() { recordHistory(client, store) },
		Publish: func(topic string, qos byte, retained bool, payload string) {
			if t := mqttClient.Publish(topic, qos, retained, payload); t.Wait() && t.Error() != nil {
				log.Warn().Err(t.Error()).Str("topic", topic).Msg("MQTT publish failed")
			}
		},
		Subscribe: func(topic string, callback func(message string)) error {
			t := mqttClient.Subscribe(topic, 0, func(client mqtt.Client, msg mqtt.Message) {
				callback(string(msg.Payload()))
			})
			if t.Wait() && t.Error() != nil {
				return t.Error()
			}
			return nil
		},
	})

	opts := cfg.MQTT.ClientOptions()
	// Subscriptions live in the connect handler so they come back after a
	// broker reconnect.
	opts.SetOnConnectHandler(func(mqtt.Client) {
		if err := b.SubscribeCommands(); err != nil {
			log.Error().Err(err).Msg("Failed to subscribe to command topics")
		}
	})
	mqttClient = mqtt.NewClient(opts)
	if t := mqttClient.Connect(); t.Wait() && t.Error() != nil {
		log.Fatal().Err(t.Error()).Str("broker", cfg.MQTT.Broker).Msg("MQTT connection failed")
	}

	b.PublishDiscovery()
	b.PublishState()

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: routes.NewServer(client, store).Router(),
	}
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(cfg.PollIntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			poll(b)
		case sig := <-stop:
			log.Info().Str("signal", sig.String()).Msg("Shutting down")
			shutdown(server, mqttClient, client, store)
			return
		}
	}
}

func poll(b *bridge.Bridge) {
	err := b.Refresh(context.Background())
	if errors.Is(err, infinitude.ErrUpdateTimeout) {
		// Infinitude stalls while it talks to the thermostat; keep the last
		// snapshot and try again next cycle.
		log.Warn().Err(err).Msg("Poll timed out, keeping previous state")
		datadog.Count("poll.timeout", 1)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Poll failed")
		datadog.Count("poll.failed", 1)
		return
	}
	datadog.Count("poll.succeeded", 1)
}

func recordHistory(client *infinitude.Client, store *history.Store) {
	if store == nil {
		return
	}

	now := client.System.LocalTime()
	for _, id := range client.ZoneIDs() {
		zone := client.Zones[id]
		sample := history.ZoneSample{RecordedAt: now, ZoneID: id}
		var ok bool
		if sample.Temperature, ok = zone.CurrentTemperature(); !ok {
			continue
		}
		if rh, ok := zone.CurrentHumidity(); ok {
			sample.Humidity = float64(rh)
		}
		sample.HeatSetpoint, _ = zone.HeatSetpoint()
		sample.CoolSetpoint, _ = zone.CoolSetpoint()
		if activity, ok := zone.CurrentActivity(); ok {
			sample.Activity = string(activity)
		}
		if err := store.RecordZoneSample(sample); err != nil {
			log.Warn().Err(err).Str("zone", id).Msg("Failed to record zone sample")
		}
	}

	if usage := client.Energy(); len(usage) > 0 {
		if err := store.RecordEnergySample(now, usage); err != nil {
			log.Warn().Err(err).Msg("Failed to record energy sample")
		}
	}
}

func shutdown(server *http.Server, mqttClient mqtt.Client, client *infinitude.Client, store *history.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown failed")
	}

	mqttClient.Disconnect(250)
	client.Close()
	if store != nil {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close history database")
		}
	}
}
