package infinitude

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const localTimeLayout = "2006-01-02T15:04:05"

// System exposes typed read accessors over the system-wide parts of the
// snapshots. It holds no state of its own: every accessor reads the
// client's current snapshot at call time, so a System is always consistent
// with the latest completed refresh.
type System struct {
	client *Client
}

func (s *System) status() Document  { return s.client.status }
func (s *System) config() Document  { return s.client.config }
func (s *System) profile() Document { return s.client.profile }

// Brand of the system.
func (s *System) Brand() (string, bool) {
	return s.profile().getString("brand")
}

// Model of the system.
func (s *System) Model() (string, bool) {
	return s.profile().getString("model")
}

// Serial number of the system.
func (s *System) Serial() (string, bool) {
	return s.profile().getString("serial")
}

// Firmware revision of the system.
func (s *System) Firmware() (string, bool) {
	return s.profile().getString("firmware")
}

// TemperatureUnit the thermostat is configured to report in.
func (s *System) TemperatureUnit() (TemperatureUnit, bool) {
	val, ok := s.status().getString("cfgem")
	if !ok {
		return "", false
	}
	unit, ok := parseTemperatureUnit(val)
	if !ok {
		log.Warn().Str("code", val).Msg("Unknown temperature unit")
	}
	return unit, ok
}

// LocalTime is the thermostat's clock, carrying the timezone from
// LocalTimezone. A missing or malformed localTime string falls back to the
// host clock so that schedule projection always has a usable "now".
func (s *System) LocalTime() time.Time {
	loc := s.LocalTimezone()
	raw, ok := s.status().getString("localTime")
	if ok {
		naive := raw
		if len(naive) > len(localTimeLayout) {
			naive = naive[:len(localTimeLayout)]
		}
		if t, err := time.ParseInLocation(localTimeLayout, naive, loc); err == nil {
			return t
		}
	}
	log.Debug().Str("localTime", raw).Msg("Unable to parse system localTime, using host time instead")
	return time.Now().In(loc)
}

// LocalTimezone is derived from the offset suffix of the localTime string
// when present, falling back to the host's local timezone. The same
// location is applied to every schedule timestamp so that projections
// never mix offsets.
func (s *System) LocalTimezone() *time.Location {
	raw, ok := s.status().getString("localTime")
	if !ok {
		return time.Local
	}
	if t, err := time.Parse(localTimeLayout+"-07:00", raw); err == nil {
		return t.Location()
	}
	return time.Local
}

// HVACMode is the configured operating mode.
func (s *System) HVACMode() (HVACMode, bool) {
	val, ok := s.config().getString("mode")
	if !ok {
		return "", false
	}
	mode, ok := parseHVACMode(val)
	if !ok {
		log.Warn().Str("code", val).Msg("Unknown HVAC mode")
	}
	return mode, ok
}

// SetHVACMode writes the operating mode. The new value shows up on the
// next polling cycle; unlike the zone commands this does not force a
// refresh, since mode changes have no derived state to recompute.
func (s *System) SetHVACMode(ctx context.Context, mode HVACMode) error {
	_, err := s.client.transport.postForm(ctx, "/api/config", url.Values{"mode": {string(mode)}})
	return err
}

// FilterLevel is the air filter usage percentage.
func (s *System) FilterLevel() (int, bool) {
	return s.status().getInt("filtrlvl")
}

// HumidifierState reports whether the humidifier is running.
func (s *System) HumidifierState() (HumidifierState, bool) {
	val, ok := s.status().getString("humid")
	if !ok {
		return "", false
	}
	state, ok := parseHumidifierState(val)
	if !ok {
		log.Warn().Str("code", val).Msg("Unknown humidifier state")
	}
	return state, ok
}

// HumidifierLevel is the humidifier pad usage percentage.
func (s *System) HumidifierLevel() (int, bool) {
	return s.status().getInt("humlvl")
}

// VentilatorLevel is the ventilator pre-filter usage percentage.
func (s *System) VentilatorLevel() (int, bool) {
	return s.status().getInt("ventlvl")
}

// UVLevel is the UV lamp usage percentage.
func (s *System) UVLevel() (int, bool) {
	return s.status().getInt("uvlvl")
}

// OutsideTemperature as measured by the outdoor unit.
func (s *System) OutsideTemperature() (int, bool) {
	return s.status().getInt("oat")
}

// AirflowCFM is the indoor unit's current airflow.
func (s *System) AirflowCFM() (float64, bool) {
	return s.status().getFloat("idu", "cfm")
}

// FurnaceStatus is the indoor unit's operating status string.
func (s *System) FurnaceStatus() (string, bool) {
	return s.status().getString("idu", "opstat")
}

// HeatPumpStatus is the outdoor unit's operating status string.
func (s *System) HeatPumpStatus() (string, bool) {
	return s.status().getString("odu", "opstat")
}

// HeatPumpMode is the outdoor unit's operating mode string.
func (s *System) HeatPumpMode() (string, bool) {
	return s.status().getString("odu", "opmode")
}

// IDUModulation is the gas valve modulation percentage. It only applies to
// modulating furnaces; for those, a non-numeric operating status reads as
// 0 rather than absent because the device reports status words while the
// valve is closed.
func (s *System) IDUModulation() (int, bool) {
	idu, ok := s.status().getMap("idu")
	if !ok {
		return 0, false
	}
	if t, _ := idu.getString("type"); t != "furnacemodulating" {
		return 0, false
	}
	opstat, ok := idu.getString("opstat")
	if !ok {
		return 0, false
	}
	if n, err := strconv.Atoi(opstat); err == nil {
		return n, true
	}
	return 0, true
}

// HeatSource reports which unit is configured to supply heat.
func (s *System) HeatSource() (HeatSource, bool) {
	val, ok := s.config().getString("heatsource")
	if !ok {
		return "", false
	}
	source, ok := parseHeatSource(val)
	if !ok {
		log.Warn().Str("code", val).Msg("Unknown heat source")
	}
	return source, ok
}

// SetHeatSource selects the heat source and forces a refresh so readers
// see the device's post-write state.
func (s *System) SetHeatSource(ctx context.Context, source HeatSource) error {
	if _, err := s.client.transport.postForm(ctx, "/api/config", url.Values{"heatsource": {string(source)}}); err != nil {
		return err
	}
	return s.client.Update(ctx)
}
