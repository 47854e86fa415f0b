// Package policy owns the hedge policy: size-tiered hedge ratios, the
// cascade that applies them across the exposure book, and the per-exposure
// audit trail every cascade run leaves behind.
package policy

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/fxrisk/internal/domain"
	"github.com/rs/zerolog"
)

// Tier names as persisted and audited.
const (
	TierOver5M     = "over_5m"
	TierOneToFiveM = "1m_to_5m"
	TierUnder1M    = "under_1m"
)

// DefaultTiers is the balanced policy applied until the desk configures its
// own: larger exposures are hedged more aggressively.
func DefaultTiers() domain.PolicyTiers {
	return domain.PolicyTiers{
		Over5M:     0.85,
		OneToFiveM: 0.65,
		Under1M:    0.45,
	}
}

// TiersRepository persists the hedge ratio tiers in the config database.
type TiersRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTiersRepository creates a new tiers repository.
func NewTiersRepository(db *sql.DB, log zerolog.Logger) *TiersRepository {
	return &TiersRepository{
		db:  db,
		log: log.With().Str("repository", "policy_tiers").Logger(),
	}
}

// GetTiers returns the stored tiers, falling back to the default ratio for
// any tier that has never been written.
func (r *TiersRepository) GetTiers() (domain.PolicyTiers, error) {
	tiers := DefaultTiers()

	rows, err := r.db.Query("SELECT tier, ratio FROM policy_tiers")
	if err != nil {
		return tiers, fmt.Errorf("failed to query policy tiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tier string
		var ratio float64
		if err := rows.Scan(&tier, &ratio); err != nil {
			return tiers, fmt.Errorf("failed to scan policy tier: %w", err)
		}

		switch tier {
		case TierOver5M:
			tiers.Over5M = ratio
		case TierOneToFiveM:
			tiers.OneToFiveM = ratio
		case TierUnder1M:
			tiers.Under1M = ratio
		default:
			r.log.Warn().Str("tier", tier).Msg("Unknown tier row ignored")
		}
	}

	if err := rows.Err(); err != nil {
		return tiers, fmt.Errorf("failed to iterate policy tiers: %w", err)
	}

	return tiers, nil
}

// SetTiers persists all three tier ratios.
func (r *TiersRepository) SetTiers(tiers domain.PolicyTiers) error {
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO policy_tiers (tier, ratio, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(tier) DO UPDATE SET ratio = excluded.ratio, updated_at = excluded.updated_at
	`
	for tier, ratio := range map[string]float64{
		TierOver5M:     tiers.Over5M,
		TierOneToFiveM: tiers.OneToFiveM,
		TierUnder1M:    tiers.Under1M,
	} {
		if _, err := tx.Exec(query, tier, ratio, now); err != nil {
			return fmt.Errorf("failed to upsert tier %s: %w", tier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().
		Float64("over_5m", tiers.Over5M).
		Float64("1m_to_5m", tiers.OneToFiveM).
		Float64("under_1m", tiers.Under1M).
		Msg("Policy tiers updated")
	return nil
}
