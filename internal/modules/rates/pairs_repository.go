package rates

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fxrisk/internal/utils"
)

// PairsRepository manages the approved currency pair catalog in config.db.
// Only approved pairs are refreshed on schedule and subscribed on the live
// stream; exposures may reference any pair, approved or not.
type PairsRepository struct {
	db  *sql.DB // config.db - approved_pairs table
	log zerolog.Logger
}

// NewPairsRepository creates a new approved pairs repository.
func NewPairsRepository(db *sql.DB, log zerolog.Logger) *PairsRepository {
	return &PairsRepository{
		db:  db,
		log: log.With().Str("repository", "approved_pairs").Logger(),
	}
}

// List returns all approved pairs sorted alphabetically.
func (r *PairsRepository) List() ([]string, error) {
	rows, err := r.db.Query("SELECT pair FROM approved_pairs ORDER BY pair ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list approved pairs: %w", err)
	}
	defer rows.Close()

	pairs := []string{}
	for rows.Next() {
		var pair string
		if err := rows.Scan(&pair); err != nil {
			return nil, fmt.Errorf("failed to scan approved pair: %w", err)
		}
		pairs = append(pairs, pair)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating approved pairs: %w", err)
	}

	return pairs, nil
}

// Add approves a pair. The input is normalized; adding an already-approved
// pair is a no-op.
func (r *PairsRepository) Add(pair string) (string, error) {
	normalized, err := utils.NormalizePair(pair)
	if err != nil {
		return "", err
	}

	_, err = r.db.Exec(`
		INSERT OR IGNORE INTO approved_pairs (pair, added_at)
		VALUES (?, ?)
	`, normalized, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("failed to add approved pair %s: %w", normalized, err)
	}

	return normalized, nil
}

// Remove deletes a pair from the catalog. Idempotent.
func (r *PairsRepository) Remove(pair string) error {
	normalized, err := utils.NormalizePair(pair)
	if err != nil {
		return err
	}

	_, err = r.db.Exec("DELETE FROM approved_pairs WHERE pair = ?", normalized)
	if err != nil {
		return fmt.Errorf("failed to remove approved pair %s: %w", normalized, err)
	}

	return nil
}

// IsApproved reports whether a pair is in the catalog.
func (r *PairsRepository) IsApproved(pair string) (bool, error) {
	normalized, err := utils.NormalizePair(pair)
	if err != nil {
		return false, err
	}

	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM approved_pairs WHERE pair = ?", normalized).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check approved pair: %w", err)
	}

	return count > 0, nil
}

// SeedDefaults inserts the given pairs when the catalog is empty.
// Called once at startup so a fresh install has a working pair list.
func (r *PairsRepository) SeedDefaults(pairs []string) error {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM approved_pairs").Scan(&count); err != nil {
		return fmt.Errorf("failed to count approved pairs: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, pair := range pairs {
		if _, err := r.Add(pair); err != nil {
			r.log.Warn().Err(err).Str("pair", pair).Msg("Skipping invalid default pair")
		}
	}

	r.log.Info().Int("count", len(pairs)).Msg("Seeded default approved pairs")
	return nil
}
