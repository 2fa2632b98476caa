package infinitude

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Zone exposes typed accessors over one zone's slice of the status and
// config snapshots, plus the cached schedule projection. The device
// assigns stable 1-based string ids; Index gives the 0-based form.
//
// The plain accessors are read-through like System's. The four
// schedule-derived values (scheduled/next activity and their start times)
// are computed by updateActivities after each refresh and cached until the
// next one; they are either all present or all absent.
type Zone struct {
	client *Client
	ID     string

	sched *scheduleProjection
}

// statusData returns this zone's entry in the status snapshot.
func (z *Zone) statusData() Document {
	return z.findZone(z.client.status)
}

// configData returns this zone's entry in the config snapshot.
func (z *Zone) configData() Document {
	return z.findZone(z.client.config)
}

func (z *Zone) findZone(doc Document) Document {
	zones, _ := doc.getList("zones", "zone")
	for _, zc := range zones {
		if id, _ := zc.getString("id"); id == z.ID {
			return zc
		}
	}
	return Document{}
}

// Index is the 0-based zone number used by parts of the REST API.
func (z *Zone) Index() int {
	n, err := strconv.Atoi(z.ID)
	if err != nil {
		return 0
	}
	return n - 1
}

// Name of the zone as configured on the thermostat.
func (z *Zone) Name() (string, bool) {
	return z.statusData().getString("name")
}

// Enabled reports whether the zone is active in this installation.
func (z *Zone) Enabled() (bool, bool) {
	val, ok := z.statusData().getString("enabled")
	if !ok {
		return false, false
	}
	return val == "on", true
}

// TemperatureUnit is system-wide.
func (z *Zone) TemperatureUnit() (TemperatureUnit, bool) {
	return z.client.System.TemperatureUnit()
}

// CurrentTemperature in the zone.
func (z *Zone) CurrentTemperature() (float64, bool) {
	return z.statusData().getFloat("rt")
}

// CoolSetpoint is the target cooling temperature.
func (z *Zone) CoolSetpoint() (float64, bool) {
	return z.statusData().getFloat("clsp")
}

// HeatSetpoint is the target heating temperature.
func (z *Zone) HeatSetpoint() (float64, bool) {
	return z.statusData().getFloat("htsp")
}

// CurrentHumidity in the zone.
func (z *Zone) CurrentHumidity() (int, bool) {
	return z.statusData().getInt("rh")
}

// FanMode configured for the current activity.
func (z *Zone) FanMode() (FanMode, bool) {
	val, ok := z.statusData().getString("fan")
	if !ok {
		return "", false
	}
	mode, ok := parseFanMode(val)
	if !ok {
		log.Warn().Str("code", val).Str("zone", z.ID).Msg("Unknown fan mode")
	}
	return mode, ok
}

// HVACMode is system-wide.
func (z *Zone) HVACMode() (HVACMode, bool) {
	return z.client.System.HVACMode()
}

// HVACAction is what the zone is doing right now.
func (z *Zone) HVACAction() (HVACAction, bool) {
	val, ok := z.statusData().getString("zoneconditioning")
	if !ok {
		return "", false
	}
	action, ok := parseHVACAction(val)
	if !ok {
		log.Warn().Str("code", val).Str("zone", z.ID).Msg("Unknown HVAC action")
	}
	return action, ok
}

// HoldState reports whether a hold is set.
func (z *Zone) HoldState() (HoldState, bool) {
	val, ok := z.configData().getString("hold")
	if !ok {
		return "", false
	}
	state, ok := parseHoldState(val)
	if !ok {
		log.Warn().Str("code", val).Str("zone", z.ID).Msg("Unknown hold state")
	}
	return state, ok
}

// HoldActivity is the activity a hold pins the zone to.
func (z *Zone) HoldActivity() (Activity, bool) {
	val, ok := z.configData().getString("holdActivity")
	if !ok {
		return "", false
	}
	activity, ok := parseActivity(val)
	if !ok {
		log.Warn().Str("code", val).Str("zone", z.ID).Msg("Unknown hold activity")
	}
	return activity, ok
}

// HoldUntil is the end of a timed hold. The device reports a bare HH:MM;
// it always means the next occurrence of that time, so a time-of-day that
// already passed today rolls forward one day.
func (z *Zone) HoldUntil() (time.Time, bool) {
	val, ok := z.statusData().getString("otmr")
	if !ok {
		return time.Time{}, false
	}
	hhmm, err := time.Parse("15:04", val)
	if err != nil {
		return time.Time{}, false
	}
	now := z.client.System.LocalTime()
	until := time.Date(now.Year(), now.Month(), now.Day(), hhmm.Hour(), hhmm.Minute(), 0, 0, z.client.System.LocalTimezone())
	if until.Before(now) {
		until = until.AddDate(0, 0, 1)
	}
	return until, true
}

// HoldMode derives the user-visible hold mode: off when no hold is set,
// "hold until" when an until time is present, "hold" otherwise.
func (z *Zone) HoldMode() HoldMode {
	if state, ok := z.HoldState(); ok && state == HoldOn {
		if _, ok := z.HoldUntil(); ok {
			return HoldModeUntil
		}
		return HoldModeIndefinite
	}
	return HoldModeOff
}

// CurrentActivity is the activity the zone is running.
func (z *Zone) CurrentActivity() (Activity, bool) {
	val, ok := z.statusData().getString("currentActivity")
	if !ok {
		return "", false
	}
	activity, ok := parseActivity(val)
	if !ok {
		log.Warn().Str("code", val).Str("zone", z.ID).Msg("Unknown activity")
	}
	return activity, ok
}

// Occupancy of the zone, where a sensor is present.
func (z *Zone) Occupancy() (Occupancy, bool) {
	val, ok := z.statusData().getString("occupancy")
	if !ok {
		return "", false
	}
	occupancy, ok := parseOccupancy(val)
	if !ok {
		log.Warn().Str("code", val).Str("zone", z.ID).Msg("Unknown occupancy")
	}
	return occupancy, ok
}

// ScheduledActivity is the schedule entry covering "now".
func (z *Zone) ScheduledActivity() (Activity, bool) {
	if z.sched == nil {
		return "", false
	}
	activity, ok := parseActivity(z.sched.scheduled)
	if !ok {
		log.Warn().Str("code", z.sched.scheduled).Str("zone", z.ID).Msg("Unknown scheduled activity")
	}
	return activity, ok
}

// ScheduledActivityStart is when the covering schedule entry began.
func (z *Zone) ScheduledActivityStart() (time.Time, bool) {
	if z.sched == nil {
		return time.Time{}, false
	}
	return z.sched.scheduledStart, true
}

// NextActivity is the first upcoming schedule entry.
func (z *Zone) NextActivity() (Activity, bool) {
	if z.sched == nil {
		return "", false
	}
	activity, ok := parseActivity(z.sched.next)
	if !ok {
		log.Warn().Str("code", z.sched.next).Str("zone", z.ID).Msg("Unknown next activity")
	}
	return activity, ok
}

// NextActivityStart is when the next schedule entry begins.
func (z *Zone) NextActivityStart() (time.Time, bool) {
	if z.sched == nil {
		return time.Time{}, false
	}
	return z.sched.nextStart, true
}

// TemperatureRequest carries optional setpoints for SetTemperature.
// Heat and Cool override Temperature for their side; a side with neither
// keeps the zone's current setpoint.
type TemperatureRequest struct {
	Temperature *float64
	Heat        *float64
	Cool        *float64
}

// SetTemperature writes new setpoints to the zone's manual activity, holds
// on it until the next schedule change, and forces a refresh so readers
// see the device's authoritative state. The current fan code is written
// back alongside the setpoints because the device would otherwise reset
// the activity's fan mode. Heat above cool is rejected.
func (z *Zone) SetTemperature(ctx context.Context, req TemperatureRequest) error {
	cool, _ := z.CoolSetpoint()
	if req.Cool != nil {
		cool = *req.Cool
	} else if req.Temperature != nil {
		cool = *req.Temperature
	}

	heat, _ := z.HeatSetpoint()
	if req.Heat != nil {
		heat = *req.Heat
	} else if req.Temperature != nil {
		heat = *req.Temperature
	}

	if heat > cool {
		return fmt.Errorf("heating setpoint (%.1f) cannot be greater than cooling setpoint (%.1f)", heat, cool)
	}

	form := url.Values{
		"htsp": {fmt.Sprintf("%.1f", heat)},
		"clsp": {fmt.Sprintf("%.1f", cool)},
	}
	if fan, ok := z.statusData().getString("fan"); ok {
		form.Set("fan", fan)
	}
	endpoint := fmt.Sprintf("/api/%s/activity/%s", z.ID, ActivityManual)
	if _, err := z.client.transport.postForm(ctx, endpoint, form); err != nil {
		return err
	}

	manual := ActivityManual
	if err := z.postHold(ctx, HoldRequest{Activity: &manual}); err != nil {
		return err
	}
	return z.client.Update(ctx)
}

// SetFanMode writes the fan mode to the manual activity, holds on it until
// the next schedule change, and forces a refresh. The current setpoints
// are written back alongside the fan code for the same echo-back quirk as
// SetTemperature.
func (z *Zone) SetFanMode(ctx context.Context, mode FanMode) error {
	form := url.Values{"fan": {string(mode)}}
	if heat, ok := z.HeatSetpoint(); ok {
		form.Set("htsp", fmt.Sprintf("%.1f", heat))
	}
	if cool, ok := z.CoolSetpoint(); ok {
		form.Set("clsp", fmt.Sprintf("%.1f", cool))
	}
	endpoint := fmt.Sprintf("/api/%s/activity/%s", z.ID, ActivityManual)
	if _, err := z.client.transport.postForm(ctx, endpoint, form); err != nil {
		return err
	}

	manual := ActivityManual
	if err := z.postHold(ctx, HoldRequest{Activity: &manual}); err != nil {
		return err
	}
	return z.client.Update(ctx)
}

// HoldRequest carries optional parameters for SetHoldMode. Mode defaults
// to HoldModeUntil, Activity to the zone's current activity, and Until to
// the next scheduled activity's start.
type HoldRequest struct {
	Mode     *HoldMode
	Activity *Activity
	Until    *time.Time
}

// SetHoldMode sets or clears a hold and forces a refresh.
func (z *Zone) SetHoldMode(ctx context.Context, req HoldRequest) error {
	if err := z.postHold(ctx, req); err != nil {
		return err
	}
	return z.client.Update(ctx)
}

func (z *Zone) postHold(ctx context.Context, req HoldRequest) error {
	mode := HoldModeUntil
	if req.Mode != nil {
		mode = *req.Mode
	}

	form := url.Values{}
	switch mode {
	case HoldModeOff:
		form.Set("hold", string(HoldOff))
		form.Set("activity", "")
		form.Set("until", "")

	case HoldModeIndefinite, HoldModeUntil:
		activity, err := z.resolveHoldActivity(req.Activity)
		if err != nil {
			return err
		}
		form.Set("hold", string(HoldOn))
		form.Set("activity", string(activity))
		if mode == HoldModeIndefinite {
			form.Set("until", "forever")
		} else {
			until, err := z.resolveHoldUntil(req.Until)
			if err != nil {
				return err
			}
			form.Set("until", until.Format("15:04"))
		}

	default:
		return fmt.Errorf("unsupported hold mode %q", mode)
	}

	endpoint := fmt.Sprintf("/api/%s/hold", z.ID)
	_, err := z.client.transport.postForm(ctx, endpoint, form)
	return err
}

func (z *Zone) resolveHoldActivity(requested *Activity) (Activity, error) {
	if requested != nil {
		return *requested, nil
	}
	activity, ok := z.CurrentActivity()
	if !ok {
		return "", fmt.Errorf("zone %s: current activity unknown, cannot default hold activity", z.ID)
	}
	return activity, nil
}

// resolveHoldUntil defaults the hold end to the next scheduled activity's
// start and snaps it to the nearest 15-minute boundary, which is all the
// device accepts.
func (z *Zone) resolveHoldUntil(requested *time.Time) (time.Time, error) {
	until := time.Time{}
	if requested != nil {
		until = *requested
	} else if next, ok := z.NextActivityStart(); ok {
		until = next
	} else {
		return time.Time{}, fmt.Errorf("zone %s: next scheduled activity unknown, cannot default hold end", z.ID)
	}
	return roundToQuarterHour(until), nil
}
