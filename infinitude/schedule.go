package infinitude

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

// maxProjectionDays bounds the schedule walk. A well-formed program covers
// all 7 weekdays, so 8 day advances are always enough to find an enabled
// period in either direction; the bound keeps malformed data from spinning
// the loop forever.
const maxProjectionDays = 8

// scheduleProjection caches the result of one projection run. Activities
// are kept as raw codes and parsed at the accessors, mirroring how every
// other code-mapped field behaves.
type scheduleProjection struct {
	scheduled      string
	scheduledStart time.Time
	next           string
	nextStart      time.Time
}

// updateActivities recomputes the zone's schedule projection from the
// system clock. Any structural problem in the period table resets the
// projection to unknown rather than failing the refresh cycle.
func (z *Zone) updateActivities() {
	now := z.client.System.LocalTime()
	sched, err := projectSchedule(z.configData(), now)
	if err != nil {
		log.Warn().Err(err).Str("zone", z.ID).Msg("Unable to project zone schedule")
		z.sched = nil
		return
	}
	z.sched = sched
}

// projectSchedule walks the weekly period table forward from now to find
// the first upcoming enabled period ("next") and the latest enabled period
// at or before now ("scheduled"). Periods are scanned in listed order and
// assumed time-ordered within a day. Both walks are bounded; a table with
// no enabled periods or a malformed entry is an error.
func projectSchedule(cfg Document, now time.Time) (*scheduleProjection, error) {
	proj := &scheduleProjection{}
	loc := now.Location()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	// Forward: today's periods split around now; later days contribute
	// only the "next" candidate.
	found := false
	for offset := 0; offset < maxProjectionDays && !found; offset++ {
		date := midnight.AddDate(0, 0, offset)
		periods, err := dayPeriods(cfg, date)
		if err != nil {
			return nil, err
		}
		for _, p := range periods {
			enabled, _ := p.getString("enabled")
			if enabled == "off" {
				continue
			}
			start, err := periodStart(p, date)
			if err != nil {
				return nil, err
			}
			if start.Before(now) {
				proj.scheduled, _ = p.getString("activity")
				proj.scheduledStart = start
				continue
			}
			proj.next, _ = p.getString("activity")
			proj.nextStart = start
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("no enabled period found within %d days", maxProjectionDays)
	}

	// Backward: when now precedes today's first enabled period, the
	// covering entry is the last enabled period of an earlier day.
	for offset := 1; offset < maxProjectionDays && proj.scheduled == ""; offset++ {
		date := midnight.AddDate(0, 0, -offset)
		periods, err := dayPeriods(cfg, date)
		if err != nil {
			return nil, err
		}
		for i := len(periods) - 1; i >= 0; i-- {
			enabled, _ := periods[i].getString("enabled")
			if enabled == "off" {
				continue
			}
			start, err := periodStart(periods[i], date)
			if err != nil {
				return nil, err
			}
			proj.scheduled, _ = periods[i].getString("activity")
			proj.scheduledStart = start
			break
		}
	}
	if proj.scheduled == "" {
		return nil, fmt.Errorf("no enabled period found within %d preceding days", maxProjectionDays)
	}

	return proj, nil
}

// dayPeriods returns the period list for the weekday of date.
func dayPeriods(cfg Document, date time.Time) ([]Document, error) {
	days, ok := cfg.getList("program", "day")
	if !ok {
		return nil, fmt.Errorf("zone config has no program day table")
	}
	name := date.Weekday().String()
	for _, day := range days {
		if id, _ := day.getString("id"); id == name {
			periods, ok := day.getList("period")
			if !ok {
				return nil, fmt.Errorf("program day %s has no period list", name)
			}
			return periods, nil
		}
	}
	return nil, fmt.Errorf("program has no entry for %s", name)
}

// periodStart builds the period's timestamp on the given day, in the
// day's timezone.
func periodStart(p Document, date time.Time) (time.Time, error) {
	raw, ok := p.getString("time")
	if !ok {
		return time.Time{}, fmt.Errorf("period has no time")
	}
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed period time %q: %w", raw, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

// roundToQuarterHour snaps a time to the nearest 15-minute boundary,
// carrying into the next hour when the minutes round to 60. Seconds are
// dropped first so the result lands exactly on the boundary.
func roundToQuarterHour(t time.Time) time.Time {
	t = t.Truncate(time.Minute)
	m := t.Minute()
	nearest := int(math.Round(float64(m)/15.0)) * 15
	return t.Add(time.Duration(nearest-m) * time.Minute)
}
