package infinitude

import "fmt"

// The thermostat reports state as short string codes lifted straight out of
// its XML documents. Each enumeration below is a closed set; parse helpers
// return ok=false for codes the device was never observed to emit, and the
// accessors log those instead of failing the refresh cycle.

type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "C"
	Fahrenheit TemperatureUnit = "F"
)

type HVACMode string

const (
	HVACAuto    HVACMode = "auto"
	HVACHeat    HVACMode = "heat"
	HVACCool    HVACMode = "cool"
	HVACOff     HVACMode = "off"
	HVACFanOnly HVACMode = "fanonly"
)

// HVACAction is what the zone is actually doing right now, as opposed to the
// configured HVACMode.
type HVACAction string

const (
	ActionActiveHeat HVACAction = "active_heat"
	ActionActiveCool HVACAction = "active_cool"
	ActionIdle       HVACAction = "idle"
)

type FanMode string

const (
	FanAuto   FanMode = "auto"
	FanLow    FanMode = "low"
	FanMedium FanMode = "med"
	FanHigh   FanMode = "high"
)

type HoldState string

const (
	HoldOff HoldState = "off"
	HoldOn  HoldState = "on"
)

// HoldMode is derived from hold state plus the presence of an until time;
// the device never reports it directly. The values match what the
// thermostat display shows.
type HoldMode string

const (
	HoldModeOff        HoldMode = "per schedule"
	HoldModeIndefinite HoldMode = "hold"
	HoldModeUntil      HoldMode = "hold until"
)

type Activity string

const (
	ActivityHome   Activity = "home"
	ActivityAway   Activity = "away"
	ActivitySleep  Activity = "sleep"
	ActivityWake   Activity = "wake"
	ActivityManual Activity = "manual"
)

type Occupancy string

const (
	Occupied   Occupancy = "occupied"
	Unoccupied Occupancy = "unoccupied"
	Motion     Occupancy = "motion"
)

type HumidifierState string

const (
	HumidifierOn  HumidifierState = "on"
	HumidifierOff HumidifierState = "off"
)

// HeatSource selects which unit supplies heat on dual-fuel systems. The
// codes are the literal values the config endpoint accepts.
type HeatSource string

const (
	HeatSourceSystem   HeatSource = "system"
	HeatSourceFurnace  HeatSource = "idu only"
	HeatSourceHeatPump HeatSource = "odu only"
)

var temperatureUnits = map[string]TemperatureUnit{
	"C": Celsius,
	"F": Fahrenheit,
}

var hvacModes = map[string]HVACMode{
	"auto":    HVACAuto,
	"heat":    HVACHeat,
	"cool":    HVACCool,
	"off":     HVACOff,
	"fanonly": HVACFanOnly,
}

var hvacActions = map[string]HVACAction{
	"active_heat": ActionActiveHeat,
	"active_cool": ActionActiveCool,
	"idle":        ActionIdle,
}

// Older firmware reports "off" for the automatic fan setting.
var fanModes = map[string]FanMode{
	"auto": FanAuto,
	"off":  FanAuto,
	"low":  FanLow,
	"med":  FanMedium,
	"high": FanHigh,
}

var holdStates = map[string]HoldState{
	"off": HoldOff,
	"on":  HoldOn,
}

var activities = map[string]Activity{
	"home":   ActivityHome,
	"away":   ActivityAway,
	"sleep":  ActivitySleep,
	"wake":   ActivityWake,
	"manual": ActivityManual,
}

// activityIndexes are the slot numbers the REST API assigns to activities.
var activityIndexes = map[Activity]int{
	ActivityHome:   0,
	ActivityAway:   1,
	ActivitySleep:  2,
	ActivityWake:   3,
	ActivityManual: 4,
}

var occupancies = map[string]Occupancy{
	"occupied":   Occupied,
	"unoccupied": Unoccupied,
	"motion":     Motion,
}

var humidifierStates = map[string]HumidifierState{
	"on":  HumidifierOn,
	"off": HumidifierOff,
}

var holdModes = map[string]HoldMode{
	"per schedule": HoldModeOff,
	"hold":         HoldModeIndefinite,
	"hold until":   HoldModeUntil,
}

var heatSources = map[string]HeatSource{
	"system":   HeatSourceSystem,
	"idu only": HeatSourceFurnace,
	"odu only": HeatSourceHeatPump,
}

func parseTemperatureUnit(code string) (TemperatureUnit, bool) {
	u, ok := temperatureUnits[code]
	return u, ok
}

func parseHVACMode(code string) (HVACMode, bool) {
	m, ok := hvacModes[code]
	return m, ok
}

func parseHVACAction(code string) (HVACAction, bool) {
	a, ok := hvacActions[code]
	return a, ok
}

func parseFanMode(code string) (FanMode, bool) {
	f, ok := fanModes[code]
	return f, ok
}

func parseHoldState(code string) (HoldState, bool) {
	h, ok := holdStates[code]
	return h, ok
}

func parseActivity(code string) (Activity, bool) {
	a, ok := activities[code]
	return a, ok
}

func parseOccupancy(code string) (Occupancy, bool) {
	o, ok := occupancies[code]
	return o, ok
}

func parseHumidifierState(code string) (HumidifierState, bool) {
	s, ok := humidifierStates[code]
	return s, ok
}

func parseHeatSource(code string) (HeatSource, bool) {
	h, ok := heatSources[code]
	return h, ok
}

// Index returns the activity slot number used by the REST API.
func (a Activity) Index() (int, bool) {
	i, ok := activityIndexes[a]
	return i, ok
}

// The exported parse functions are for callers turning external input,
// command payloads for instance, into typed codes.

func ParseHVACMode(code string) (HVACMode, error) {
	m, ok := parseHVACMode(code)
	if !ok {
		return "", fmt.Errorf("unknown hvac mode %q", code)
	}
	return m, nil
}

func ParseFanMode(code string) (FanMode, error) {
	f, ok := parseFanMode(code)
	if !ok {
		return "", fmt.Errorf("unknown fan mode %q", code)
	}
	return f, nil
}

func ParseActivity(code string) (Activity, error) {
	a, ok := parseActivity(code)
	if !ok {
		return "", fmt.Errorf("unknown activity %q", code)
	}
	return a, nil
}

func ParseHoldMode(code string) (HoldMode, error) {
	h, ok := holdModes[code]
	if !ok {
		return "", fmt.Errorf("unknown hold mode %q", code)
	}
	return h, nil
}

func ParseHeatSource(code string) (HeatSource, error) {
	h, ok := heatSources[code]
	if !ok {
		return "", fmt.Errorf("unknown heat source %q", code)
	}
	return h, nil
}
