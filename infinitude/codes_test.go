package infinitude

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFanMode(t *testing.T) {
	tests := []struct {
		code     string
		expected FanMode
		ok       bool
	}{
		{"auto", FanAuto, true},
		{"off", FanAuto, true}, // older firmware alias
		{"low", FanLow, true},
		{"med", FanMedium, true},
		{"high", FanHigh, true},
		{"turbo", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			mode, ok := parseFanMode(tt.code)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.expected, mode)
			}
		})
	}
}

func TestParseActivity(t *testing.T) {
	for _, code := range []string{"home", "away", "sleep", "wake", "manual"} {
		a, ok := parseActivity(code)
		assert.True(t, ok)
		assert.Equal(t, Activity(code), a)
	}

	_, ok := parseActivity("vacation2")
	assert.False(t, ok)
}

func TestParseHVACMode(t *testing.T) {
	mode, ok := parseHVACMode("fanonly")
	assert.True(t, ok)
	assert.Equal(t, HVACFanOnly, mode)

	_, ok = parseHVACMode("dehumidify")
	assert.False(t, ok)
}

func TestActivityIndex(t *testing.T) {
	tests := []struct {
		activity Activity
		index    int
	}{
		{ActivityHome, 0},
		{ActivityAway, 1},
		{ActivitySleep, 2},
		{ActivityWake, 3},
		{ActivityManual, 4},
	}
	for _, tt := range tests {
		i, ok := tt.activity.Index()
		assert.True(t, ok)
		assert.Equal(t, tt.index, i)
	}

	_, ok := Activity("vacation").Index()
	assert.False(t, ok)
}

func TestExportedParsersRejectUnknownCodes(t *testing.T) {
	mode, err := ParseHVACMode("heat")
	assert.NoError(t, err)
	assert.Equal(t, HVACHeat, mode)

	_, err = ParseHVACMode("defrost")
	assert.Error(t, err)

	hold, err := ParseHoldMode("hold until")
	assert.NoError(t, err)
	assert.Equal(t, HoldModeUntil, hold)

	_, err = ParseHoldMode("frozen")
	assert.Error(t, err)

	_, err = ParseFanMode("turbo")
	assert.Error(t, err)

	_, err = ParseActivity("party")
	assert.Error(t, err)

	_, err = ParseHeatSource("solar")
	assert.Error(t, err)
}

func TestParseHeatSource(t *testing.T) {
	src, ok := parseHeatSource("idu only")
	assert.True(t, ok)
	assert.Equal(t, HeatSourceFurnace, src)

	_, ok = parseHeatSource("solar")
	assert.False(t, ok)
}
