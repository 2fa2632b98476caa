package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndQueryZoneSamples(t *testing.T) {
	store := openStore(t)

	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordZoneSample(ZoneSample{
			RecordedAt:   base.Add(time.Duration(i) * time.Minute),
			ZoneID:       "1",
			Temperature:  70.0 + float64(i),
			Humidity:     42,
			HeatSetpoint: 68,
			CoolSetpoint: 74,
			Activity:     "home",
		}))
	}
	require.NoError(t, store.RecordZoneSample(ZoneSample{
		RecordedAt:  base,
		ZoneID:      "2",
		Temperature: 65,
		Activity:    "away",
	}))

	samples, err := store.RecentZoneSamples("1", 2)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	// Newest first, and zone 2 rows never bleed in.
	assert.Equal(t, 72.0, samples[0].Temperature)
	assert.Equal(t, 71.0, samples[1].Temperature)
	assert.Equal(t, "1", samples[0].ZoneID)
	assert.Equal(t, base.Add(2*time.Minute), samples[0].RecordedAt)
	assert.Equal(t, "home", samples[0].Activity)
}

func TestRecentZoneSamplesEmpty(t *testing.T) {
	store := openStore(t)

	samples, err := store.RecentZoneSamples("9", 10)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestRecordEnergySample(t *testing.T) {
	store := openStore(t)

	usage := map[string]any{"usage": map[string]any{"period": "day1", "cooling": "3.2"}}
	require.NoError(t, store.RecordEnergySample(time.Now(), usage))

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM energy_samples`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.RecordZoneSample(ZoneSample{RecordedAt: time.Now(), ZoneID: "1", Temperature: 70}))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	samples, err := second.RecentZoneSamples("1", 10)
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}
