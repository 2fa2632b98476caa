package bridge

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	average "github.com/RobinUS2/golang-moving-average"
	"github.com/rs/zerolog/log"

	"github.com/go-infinitude/infinitude/infinitude"
	"github.com/go-infinitude/infinitude/internal/datadog"
)

const (
	commandTimeout = 45 * time.Second

	// Window over poll cycles used to smooth the reported room temperature.
	tempSamples = 5
)

type Publish func(topic string, qos byte, retained bool, payload string)
type Subscribe func(topic string, callback func(message string)) error

type Config struct {
	TopicPrefix     string
	DiscoveryPrefix string
	Publish         Publish
	Subscribe       Subscribe
	Client          *infinitude.Client

	// OnRefresh runs after each state publish, inside the bridge's
	// critical section, so callers can read the freshly swapped
	// snapshots without racing a concurrent command.
	OnRefresh func()
}

// Bridge mirrors gateway state onto MQTT topics and turns command topics
// into gateway writes. State topics are retained so consumers reconnecting
// after the bridge see the last known values.
//
// Command handlers run on the MQTT client's delivery goroutine while
// Refresh is driven by the caller's poll loop; the client does not defend
// against overlapping refreshes, so one lock serializes every path that
// touches the client or the publish bookkeeping.
type Bridge struct {
	Config
	mu    sync.Mutex
	temps map[string]*average.MovingAverage
	last  map[string]string
}

func New(config *Config) *Bridge {
	b := &Bridge{
		Config: *config,
		temps:  make(map[string]*average.MovingAverage),
		last:   make(map[string]string),
	}
	for _, id := range config.Client.ZoneIDs() {
		b.temps[id] = average.New(tempSamples)
	}
	return b
}

func (b *Bridge) zoneTopic(zoneID, subtopic string) string {
	return fmt.Sprintf("%s/zone%s/%s", b.TopicPrefix, zoneID, subtopic)
}

func (b *Bridge) sysTopic(subtopic string) string {
	return fmt.Sprintf("%s/system/%s", b.TopicPrefix, subtopic)
}

// publish writes a retained state topic, skipping values that have not
// changed since the previous publish.
func (b *Bridge) publish(topic, payload string) {
	if prev, ok := b.last[topic]; ok && prev == payload {
		return
	}
	b.last[topic] = payload
	b.Publish(topic, 0, true, payload)
}

// Refresh polls the gateway, then pushes the resulting state onto the
// state topics. Update errors are returned unchanged so the caller can
// tell a timed-out cycle from a failed one.
func (b *Bridge) Refresh(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.Client.Update(ctx); err != nil {
		return err
	}
	b.publishState()
	return nil
}

// PublishState pushes the current client views onto the state topics and
// emits the matching gauges.
func (b *Bridge) PublishState() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishState()
}

func (b *Bridge) publishState() {
	b.publishSystemState()
	for _, id := range b.Client.ZoneIDs() {
		b.publishZoneState(b.Client.Zones[id])
	}
	if b.OnRefresh != nil {
		b.OnRefresh()
	}
}

func (b *Bridge) publishSystemState() {
	sys := b.Client.System
	if sys == nil {
		return
	}

	if mode, ok := sys.HVACMode(); ok {
		b.publish(b.sysTopic("mode"), string(mode))
	}
	if source, ok := sys.HeatSource(); ok {
		b.publish(b.sysTopic("heatSource"), string(source))
	}
	if oat, ok := sys.OutsideTemperature(); ok {
		b.publish(b.sysTopic("outsideTemp"), strconv.Itoa(oat))
		datadog.Gauge("system.outside_temperature", float64(oat))
	}
	if level, ok := sys.FilterLevel(); ok {
		b.publish(b.sysTopic("filterLevel"), strconv.Itoa(level))
		datadog.Gauge("system.filter_level", float64(level))
	}
	if level, ok := sys.HumidifierLevel(); ok {
		b.publish(b.sysTopic("humidifierLevel"), strconv.Itoa(level))
	}
	if cfm, ok := sys.AirflowCFM(); ok {
		b.publish(b.sysTopic("airflowCfm"), formatTemp(cfm))
		datadog.Gauge("system.airflow_cfm", cfm)
	}
	if mod, ok := sys.IDUModulation(); ok {
		b.publish(b.sysTopic("iduModulation"), strconv.Itoa(mod))
		datadog.Gauge("system.idu_modulation", float64(mod))
	}
}

func (b *Bridge) publishZoneState(zone *infinitude.Zone) {
	tags := []string{"zone:" + zone.ID}

	if temp, ok := zone.CurrentTemperature(); ok {
		avg := b.temps[zone.ID]
		avg.Add(temp)
		b.publish(b.zoneTopic(zone.ID, "currentTemp"), formatTemp(roundTenth(avg.Avg())))
		datadog.Gauge("zone.temperature", temp, tags...)
	}
	if rh, ok := zone.CurrentHumidity(); ok {
		b.publish(b.zoneTopic(zone.ID, "humidity"), strconv.Itoa(rh))
		datadog.Gauge("zone.humidity", float64(rh), tags...)
	}
	if htsp, ok := zone.HeatSetpoint(); ok {
		b.publish(b.zoneTopic(zone.ID, "heatSetpoint"), formatTemp(htsp))
		datadog.Gauge("zone.heat_setpoint", htsp, tags...)
	}
	if clsp, ok := zone.CoolSetpoint(); ok {
		b.publish(b.zoneTopic(zone.ID, "coolSetpoint"), formatTemp(clsp))
		datadog.Gauge("zone.cool_setpoint", clsp, tags...)
	}
	if target, ok := b.targetSetpoint(zone); ok {
		b.publish(b.zoneTopic(zone.ID, "targetTemp"), formatTemp(target))
	}
	if fan, ok := zone.FanMode(); ok {
		b.publish(b.zoneTopic(zone.ID, "fanMode"), string(fan))
	}
	if action, ok := zone.HVACAction(); ok {
		b.publish(b.zoneTopic(zone.ID, "action"), string(action))
	}
	if activity, ok := zone.CurrentActivity(); ok {
		b.publish(b.zoneTopic(zone.ID, "activity"), string(activity))
	}
	b.publish(b.zoneTopic(zone.ID, "holdMode"), string(zone.HoldMode()))
	if until, ok := zone.HoldUntil(); ok {
		b.publish(b.zoneTopic(zone.ID, "holdUntil"), until.Format(time.RFC3339))
	}
}

// targetSetpoint picks the setpoint the climate entity shows as its single
// target temperature, following the active system mode.
func (b *Bridge) targetSetpoint(zone *infinitude.Zone) (float64, bool) {
	if b.Client.System != nil {
		if mode, ok := b.Client.System.HVACMode(); ok && mode == infinitude.HVACCool {
			return zone.CoolSetpoint()
		}
	}
	return zone.HeatSetpoint()
}

// SubscribeCommands installs the command topic handlers. Paho re-delivers
// subscriptions through the OnConnect hook, so this is safe to call on
// every reconnect.
func (b *Bridge) SubscribeCommands() error {
	if err := b.Subscribe(b.sysTopic("mode/set"), b.handleModeCommand); err != nil {
		return err
	}
	if err := b.Subscribe(b.sysTopic("heatSource/set"), b.handleHeatSourceCommand); err != nil {
		return err
	}

	for _, id := range b.Client.ZoneIDs() {
		zone := b.Client.Zones[id]
		subs := map[string]func(string){
			b.zoneTopic(id, "targetTemp/set"):   func(msg string) { b.handleTargetTemp(zone, msg) },
			b.zoneTopic(id, "heatSetpoint/set"): func(msg string) { b.handleSetpoint(zone, msg, true) },
			b.zoneTopic(id, "coolSetpoint/set"): func(msg string) { b.handleSetpoint(zone, msg, false) },
			b.zoneTopic(id, "fanMode/set"):      func(msg string) { b.handleFanMode(zone, msg) },
			b.zoneTopic(id, "holdMode/set"):     func(msg string) { b.handleHoldMode(zone, msg) },
			b.zoneTopic(id, "activity/set"):     func(msg string) { b.handleActivityHold(zone, msg) },
		}
		for topic, handler := range subs {
			if err := b.Subscribe(topic, handler); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Bridge) handleModeCommand(message string) {
	mode, err := infinitude.ParseHVACMode(message)
	if err != nil {
		log.Warn().Str("payload", message).Msg("Ignoring unknown HVAC mode command")
		return
	}
	b.runCommand("set system mode", func(ctx context.Context) error {
		return b.Client.System.SetHVACMode(ctx, mode)
	})
}

func (b *Bridge) handleHeatSourceCommand(message string) {
	source, err := infinitude.ParseHeatSource(message)
	if err != nil {
		log.Warn().Str("payload", message).Msg("Ignoring unknown heat source command")
		return
	}
	b.runCommand("set heat source", func(ctx context.Context) error {
		return b.Client.System.SetHeatSource(ctx, source)
	})
}

func (b *Bridge) handleTargetTemp(zone *infinitude.Zone, message string) {
	temp, err := strconv.ParseFloat(strings.TrimSpace(message), 64)
	if err != nil {
		log.Warn().Str("zone", zone.ID).Str("payload", message).Msg("Ignoring unparseable target temperature")
		return
	}
	b.runCommand("set target temperature", func(ctx context.Context) error {
		return zone.SetTemperature(ctx, infinitude.TemperatureRequest{Temperature: &temp})
	})
}

func (b *Bridge) handleSetpoint(zone *infinitude.Zone, message string, heat bool) {
	temp, err := strconv.ParseFloat(strings.TrimSpace(message), 64)
	if err != nil {
		log.Warn().Str("zone", zone.ID).Str("payload", message).Msg("Ignoring unparseable setpoint")
		return
	}
	req := infinitude.TemperatureRequest{}
	if heat {
		req.Heat = &temp
	} else {
		req.Cool = &temp
	}
	b.runCommand("set setpoint", func(ctx context.Context) error {
		return zone.SetTemperature(ctx, req)
	})
}

func (b *Bridge) handleFanMode(zone *infinitude.Zone, message string) {
	fan, err := infinitude.ParseFanMode(message)
	if err != nil {
		log.Warn().Str("zone", zone.ID).Str("payload", message).Msg("Ignoring unknown fan mode command")
		return
	}
	b.runCommand("set fan mode", func(ctx context.Context) error {
		return zone.SetFanMode(ctx, fan)
	})
}

func (b *Bridge) handleHoldMode(zone *infinitude.Zone, message string) {
	mode, err := infinitude.ParseHoldMode(message)
	if err != nil {
		log.Warn().Str("zone", zone.ID).Str("payload", message).Msg("Ignoring unknown hold mode command")
		return
	}
	b.runCommand("set hold mode", func(ctx context.Context) error {
		return zone.SetHoldMode(ctx, infinitude.HoldRequest{Mode: &mode})
	})
}

func (b *Bridge) handleActivityHold(zone *infinitude.Zone, message string) {
	activity, err := infinitude.ParseActivity(message)
	if err != nil {
		log.Warn().Str("zone", zone.ID).Str("payload", message).Msg("Ignoring unknown activity command")
		return
	}
	b.runCommand("hold activity", func(ctx context.Context) error {
		return zone.SetHoldMode(ctx, infinitude.HoldRequest{Activity: &activity})
	})
}

func (b *Bridge) runCommand(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := fn(ctx); err != nil {
		log.Error().Err(err).Str("command", name).Msg("Gateway command failed")
		datadog.Count("command.failed", 1, "command:"+name)
		return
	}
	datadog.Count("command.succeeded", 1, "command:"+name)
	b.publishState()
}

func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
