package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-infinitude/infinitude/infinitude"
	"github.com/go-infinitude/infinitude/internal/history"
)

func l(v any) []any { return []any{v} }

func fixtureHandler(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	switch r.URL.Path {
	case "/api/status/":
		body = map[string]any{
			"cfgem":     l("F"),
			"localTime": l("2024-03-15T10:12:00-05:00"),
			"oat":       l("55"),
			"filtrlvl":  l("42"),
			"zones": l(map[string]any{"zone": []any{map[string]any{
				"id":               "1",
				"name":             l("Main Floor"),
				"enabled":          l("on"),
				"rt":               l("68.5"),
				"htsp":             l("66"),
				"clsp":             l("74"),
				"rh":               l("43"),
				"fan":              l("auto"),
				"currentActivity":  l("home"),
				"zoneconditioning": l("active_heat"),
				"otmr":             l(map[string]any{}),
			}}}),
		}
	case "/api/config/":
		days := make([]any, 0, 7)
		for _, name := range []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"} {
			days = append(days, map[string]any{
				"id": l(name),
				"period": []any{
					map[string]any{"time": l("22:00"), "activity": l("sleep"), "enabled": l("on")},
				},
			})
		}
		body = map[string]any{"status": l("success"), "data": l(map[string]any{
			"mode":       l("heat"),
			"heatsource": l("system"),
			"zones": l(map[string]any{"zone": []any{map[string]any{
				"id":           "1",
				"hold":         l("off"),
				"holdActivity": l(map[string]any{}),
				"program":      l(map[string]any{"day": days}),
			}}}),
		})}
	case "/energy.json":
		body = map[string]any{"energy": l(map[string]any{
			"usage": l(map[string]any{"cooling": l("12")}),
		})}
	case "/profile.json":
		body = map[string]any{"system_profile": l(map[string]any{
			"brand": l("Bryant"), "model": l("24VNA9"), "firmware": l("14.31"),
		})}
	default:
		http.NotFound(w, r)
		return
	}
	json.NewEncoder(w).Encode(body)
}

func newServer(t *testing.T) *Server {
	t.Helper()
	gateway := httptest.NewServer(http.HandlerFunc(fixtureHandler))
	t.Cleanup(gateway.Close)

	u, err := url.Parse(gateway.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	client := infinitude.NewClient(infinitude.Config{Host: u.Hostname(), Port: port})
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(client.Close)

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewServer(client, store)
}

func get(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStateEndpoint(t *testing.T) {
	server := newServer(t)

	rec := get(t, server, "/state")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp StateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "Bryant", resp.System.Brand)
	assert.Equal(t, "heat", resp.System.Mode)
	require.NotNil(t, resp.System.OutsideTemperature)
	assert.Equal(t, 55, *resp.System.OutsideTemperature)

	require.Len(t, resp.Zones, 1)
	zone := resp.Zones[0]
	assert.Equal(t, "1", zone.ID)
	assert.Equal(t, "Main Floor", zone.Name)
	require.NotNil(t, zone.Temperature)
	assert.Equal(t, 68.5, *zone.Temperature)
	assert.Equal(t, "per schedule", zone.HoldMode)
	assert.Equal(t, "sleep", zone.NextActivity)
}

func TestEnergyEndpoint(t *testing.T) {
	server := newServer(t)

	rec := get(t, server, "/energy")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "usage")
}

func TestZoneHistoryEndpoint(t *testing.T) {
	server := newServer(t)

	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, server.store.RecordZoneSample(history.ZoneSample{
		RecordedAt: now, ZoneID: "1", Temperature: 68.5, Activity: "home",
	}))
	require.NoError(t, server.store.RecordZoneSample(history.ZoneSample{
		RecordedAt: now.Add(time.Minute), ZoneID: "1", Temperature: 69, Activity: "home",
	}))

	rec := get(t, server, "/zones/1/history?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1", resp.ZoneID)
	require.Len(t, resp.Samples, 1)
	assert.Equal(t, 69.0, resp.Samples[0].Temperature)
}

func TestZoneHistoryUnknownZone(t *testing.T) {
	server := newServer(t)

	rec := get(t, server, "/zones/9/history")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestZoneHistoryInvalidLimit(t *testing.T) {
	server := newServer(t)

	rec := get(t, server, "/zones/1/history?limit=bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
