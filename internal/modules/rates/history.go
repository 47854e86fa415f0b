// Package rates manages market exchange rates: the approved pair catalog,
// scheduled refreshes from the rate feed, and the daily rate history used for
// volatility estimation.
package rates

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
)

// RatePoint is one daily rate observation for a currency pair.
type RatePoint struct {
	Pair string    `json:"pair"`
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

// History owns rate_history.db, a standalone time-series database of daily
// exchange rates. One row per pair per UTC day; intraday updates overwrite
// the day's row so the series always carries the latest observation.
type History struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistory opens (creating if needed) the rate history database.
func NewHistory(dbPath string, log zerolog.Logger) (*History, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open rate history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping rate history database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rate_history (
			pair TEXT NOT NULL,
			date INTEGER NOT NULL,
			rate REAL NOT NULL,
			PRIMARY KEY (pair, date)
		);
		CREATE INDEX IF NOT EXISTS idx_rate_history_date ON rate_history(date);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create rate_history table: %w", err)
	}

	return &History{
		db:  db,
		log: log.With().Str("component", "rate_history").Logger(),
	}, nil
}

// Close closes the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record upserts the rate for a pair on the UTC day of the observation.
func (h *History) Record(pair string, rate float64, at time.Time) error {
	day := time.Date(at.UTC().Year(), at.UTC().Month(), at.UTC().Day(), 0, 0, 0, 0, time.UTC).Unix()

	_, err := h.db.Exec(`
		INSERT OR REPLACE INTO rate_history (pair, date, rate)
		VALUES (?, ?, ?)
	`, pair, day, rate)
	if err != nil {
		return fmt.Errorf("failed to record rate for %s: %w", pair, err)
	}

	h.log.Debug().
		Str("pair", pair).
		Float64("rate", rate).
		Msg("Recorded rate observation")

	return nil
}

// RecentRates returns the daily observations for a pair over the last N days,
// ordered by date ascending (oldest first, ready for return calculations).
func (h *History) RecentRates(pair string, days int) ([]RatePoint, error) {
	if days <= 0 {
		return []RatePoint{}, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days).Unix()

	rows, err := h.db.Query(`
		SELECT pair, date, rate
		FROM rate_history
		WHERE pair = ? AND date >= ?
		ORDER BY date ASC
	`, pair, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate history: %w", err)
	}
	defer rows.Close()

	points := []RatePoint{}
	for rows.Next() {
		var p RatePoint
		var dateUnix int64

		if err := rows.Scan(&p.Pair, &dateUnix, &p.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan rate point: %w", err)
		}

		p.Date = time.Unix(dateUnix, 0).UTC()
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rate history: %w", err)
	}

	return points, nil
}

// Latest returns the most recent observation for a pair.
// Returns nil if no observation exists (not an error).
func (h *History) Latest(pair string) (*RatePoint, error) {
	var p RatePoint
	var dateUnix int64

	err := h.db.QueryRow(`
		SELECT pair, date, rate
		FROM rate_history
		WHERE pair = ?
		ORDER BY date DESC
		LIMIT 1
	`, pair).Scan(&p.Pair, &dateUnix, &p.Rate)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest rate: %w", err)
	}

	p.Date = time.Unix(dateUnix, 0).UTC()
	return &p, nil
}

// DeleteOlderThan removes observations before the cutoff.
// Used by maintenance jobs to bound table growth.
func (h *History) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := h.db.Exec("DELETE FROM rate_history WHERE date < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale rate history: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		h.log.Info().
			Int64("rows_deleted", deleted).
			Time("older_than", cutoff).
			Msg("Deleted stale rate history")
	}

	return deleted, nil
}
