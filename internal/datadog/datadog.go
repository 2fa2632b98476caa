package datadog

import (
	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"
)

var dogstatsd *statsd.Client

// InitMetrics dials the local dogstatsd agent. When disabled, or when the
// agent is unreachable, the emit helpers become no-ops so callers never
// have to branch on metrics availability.
func InitMetrics(addr, namespace string, tags []string, enabled bool) {
	if !enabled {
		return
	}

	var err error
	dogstatsd, err = statsd.New(addr)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create DogStatsD client")
		return
	}

	dogstatsd.Namespace = namespace
	dogstatsd.Tags = tags

	log.Info().
		Str("addr", addr).
		Str("namespace", namespace).
		Strs("tags", tags).
		Msg("Datadog metrics initialized")
}

func Gauge(name string, value float64, tags ...string) {
	if dogstatsd != nil {
		if err := dogstatsd.Gauge(name, value, tags, 1); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit gauge metric")
		}
	}
}

func Count(name string, value int64, tags ...string) {
	if dogstatsd != nil {
		if err := dogstatsd.Count(name, value, tags, 1); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit count metric")
		}
	}
}
