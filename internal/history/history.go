package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists polled readings so the bridge can answer trend queries
// without keeping the gateway snapshots around.
type Store struct {
	db *sql.DB
}

type ZoneSample struct {
	RecordedAt   time.Time
	ZoneID       string
	Temperature  float64
	Humidity     float64
	HeatSetpoint float64
	CoolSetpoint float64
	Activity     string
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS zone_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at TEXT NOT NULL,
			zone_id TEXT NOT NULL,
			temperature REAL,
			humidity REAL,
			heat_setpoint REAL,
			cool_setpoint REAL,
			activity TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_zone_samples_zone ON zone_samples (zone_id, recorded_at)`,
		`CREATE TABLE IF NOT EXISTS energy_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at TEXT NOT NULL,
			payload TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) RecordZoneSample(sample ZoneSample) error {
	_, err := s.db.Exec(
		`INSERT INTO zone_samples (recorded_at, zone_id, temperature, humidity, heat_setpoint, cool_setpoint, activity)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sample.RecordedAt.Format(time.RFC3339), sample.ZoneID, sample.Temperature,
		sample.Humidity, sample.HeatSetpoint, sample.CoolSetpoint, sample.Activity)
	if err != nil {
		return fmt.Errorf("insert zone sample: %w", err)
	}
	return nil
}

func (s *Store) RecordEnergySample(recordedAt time.Time, usage map[string]any) error {
	payload, err := json.Marshal(usage)
	if err != nil {
		return fmt.Errorf("marshal energy payload: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO energy_samples (recorded_at, payload) VALUES (?, ?)`,
		recordedAt.Format(time.RFC3339), string(payload))
	if err != nil {
		return fmt.Errorf("insert energy sample: %w", err)
	}
	return nil
}

func (s *Store) RecentZoneSamples(zoneID string, limit int) ([]ZoneSample, error) {
	rows, err := s.db.Query(
		`SELECT recorded_at, zone_id, temperature, humidity, heat_setpoint, cool_setpoint, activity
		 FROM zone_samples WHERE zone_id = ? ORDER BY recorded_at DESC LIMIT ?`, zoneID, limit)
	if err != nil {
		return nil, fmt.Errorf("query zone samples: %w", err)
	}
	defer rows.Close()

	var samples []ZoneSample
	for rows.Next() {
		var sample ZoneSample
		var recordedAt string
		if err := rows.Scan(&recordedAt, &sample.ZoneID, &sample.Temperature,
			&sample.Humidity, &sample.HeatSetpoint, &sample.CoolSetpoint, &sample.Activity); err != nil {
			return nil, fmt.Errorf("scan zone sample: %w", err)
		}
		sample.RecordedAt, err = time.Parse(time.RFC3339, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse sample timestamp: %w", err)
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
