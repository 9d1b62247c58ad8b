package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/groundstation/internal/audio"
	"github.com/banshee-data/groundstation/internal/station"
)

// DefaultHistoryLimit is used by RecentCycles for a non-positive limit.
const DefaultHistoryLimit = 100

// MaxHistoryLimit caps a single RecentCycles query.
const MaxHistoryLimit = 5000

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// RecordCycle implements station.Recorder.
func (db *DB) RecordCycle(ctx context.Context, c station.Cycle) error {
	var reading, tone sql.NullInt64
	if !c.Paused || c.Replayed {
		reading = sql.NullInt64{Int64: int64(c.RSSI), Valid: true}
		tone = sql.NullInt64{Int64: int64(c.ToneHz), Valid: true}
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO cycles (
			session, seq, recorded_at, cursor, rssi, tone_hz,
			paused, device, transmitted, replayed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Session, c.Seq, c.At.UnixNano(), c.Cursor, reading, tone,
		boolInt(c.Paused), c.Device.String(), boolInt(c.Transmitted), boolInt(c.Replayed),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle %d: %w", c.Seq, err)
	}
	return nil
}

// StartSession records the start of a station run.
func (db *DB) StartSession(ctx context.Context, session string, at time.Time, version, serialPort string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO sessions (session, started_at, version, serial_port) VALUES (?, ?, ?, ?)`,
		session, at.UnixNano(), version, serialPort,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// RecentCycles returns up to limit cycles, newest first.
func (db *DB) RecentCycles(ctx context.Context, limit int) ([]station.Cycle, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	rows, err := db.QueryContext(ctx,
		`SELECT session, seq, recorded_at, cursor, rssi, tone_hz,
			paused, device, transmitted, replayed
		FROM cycles ORDER BY recorded_at DESC, cycle_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cycles []station.Cycle
	for rows.Next() {
		var (
			c                             station.Cycle
			at                            int64
			reading, tone                 sql.NullInt64
			paused, transmitted, replayed int
			device                        string
		)
		if err := rows.Scan(
			&c.Session, &c.Seq, &at, &c.Cursor, &reading, &tone,
			&paused, &device, &transmitted, &replayed,
		); err != nil {
			return nil, err
		}
		if err := c.Device.UnmarshalText([]byte(device)); err != nil {
			return nil, err
		}
		c.At = time.Unix(0, at).UTC()
		c.RSSI = int(reading.Int64)
		c.ToneHz = int(tone.Int64)
		c.Paused = paused != 0
		c.Transmitted = transmitted != 0
		c.Replayed = replayed != 0
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// Summary describes the readings in the history.
type Summary struct {
	Cycles      int `json:"cycles"`
	Paused      int `json:"paused"`
	Transmitted int `json:"transmitted"`
	Buzzer      int `json:"buzzer"`
	Headphones  int `json:"headphones"`
	// The statistics cover cycles that carried a reading.
	Readings   int     `json:"readings"`
	RSSIMean   float64 `json:"rssi_mean"`
	RSSIStdDev float64 `json:"rssi_stddev"`
	RSSIMin    float64 `json:"rssi_min"`
	RSSIMax    float64 `json:"rssi_max"`
	ToneMean   float64 `json:"tone_mean"`
	ToneStdDev float64 `json:"tone_stddev"`
}

// Summary aggregates the cycles of one session, or of all sessions when
// session is empty.
func (db *DB) Summary(ctx context.Context, session string) (Summary, error) {
	query := `SELECT rssi, tone_hz, paused, device, transmitted FROM cycles`
	var args []any
	if session != "" {
		query += ` WHERE session = ?`
		args = append(args, session)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()

	var (
		s            Summary
		rssis, tones []float64
	)
	for rows.Next() {
		var (
			reading, tone       sql.NullInt64
			paused, transmitted int
			device              string
		)
		if err := rows.Scan(&reading, &tone, &paused, &device, &transmitted); err != nil {
			return Summary{}, err
		}
		s.Cycles++
		if paused != 0 {
			s.Paused++
		}
		if transmitted != 0 {
			s.Transmitted++
		}
		switch device {
		case audio.Buzzer.String():
			s.Buzzer++
		case audio.Headphones.String():
			s.Headphones++
		}
		if reading.Valid {
			rssis = append(rssis, float64(reading.Int64))
			tones = append(tones, float64(tone.Int64))
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}

	s.Readings = len(rssis)
	if s.Readings > 0 {
		s.RSSIMean, s.RSSIStdDev = stat.MeanStdDev(rssis, nil)
		s.ToneMean, s.ToneStdDev = stat.MeanStdDev(tones, nil)
		s.RSSIMin = floats.Min(rssis)
		s.RSSIMax = floats.Max(rssis)
	}
	if s.Readings < 2 {
		// MeanStdDev reports NaN for a single sample.
		s.RSSIStdDev, s.ToneStdDev = 0, 0
	}
	return s, nil
}
