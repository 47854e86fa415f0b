package policy

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Audit actions.
const (
	ActionUpdated = "updated"
	ActionSkipped = "skipped"
)

// AuditEntry is one exposure touched, or deliberately skipped, by a cascade
// run. Entries of the same run share a run_id.
type AuditEntry struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	ExposureID string    `json:"exposure_id"`
	Action     string    `json:"action"`
	Tier       string    `json:"tier,omitempty"`
	OldRatio   *float64  `json:"old_ratio,omitempty"`
	NewRatio   *float64  `json:"new_ratio,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditRepository persists cascade audit rows in the exposures database,
// next to the rows they describe.
type AuditRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *sql.DB, log zerolog.Logger) *AuditRepository {
	return &AuditRepository{
		db:  db,
		log: log.With().Str("repository", "policy_audit").Logger(),
	}
}

// Record writes all entries of one cascade run in a single transaction.
func (r *AuditRepository) Record(entries []AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO policy_audit (id, run_id, exposure_id, action, tier, old_ratio, new_ratio, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, e := range entries {
		_, err := tx.Exec(query,
			e.ID, e.RunID, e.ExposureID, e.Action,
			nullString(e.Tier), nullFloat64Ptr(e.OldRatio), nullFloat64Ptr(e.NewRatio),
			nullString(e.Reason), now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert audit entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListByRun returns every entry of one cascade run.
func (r *AuditRepository) ListByRun(runID string) ([]AuditEntry, error) {
	return r.list("SELECT id, run_id, exposure_id, action, tier, old_ratio, new_ratio, reason, created_at FROM policy_audit WHERE run_id = ? ORDER BY id", runID)
}

// ListRecent returns the newest audit entries across all runs.
func (r *AuditRepository) ListRecent(limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list("SELECT id, run_id, exposure_id, action, tier, old_ratio, new_ratio, reason, created_at FROM policy_audit ORDER BY created_at DESC, id LIMIT ?", limit)
}

func (r *AuditRepository) list(query string, args ...interface{}) ([]AuditEntry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query policy audit: %w", err)
	}
	defer rows.Close()

	entries := []AuditEntry{}
	for rows.Next() {
		var e AuditEntry
		var tier, reason sql.NullString
		var oldRatio, newRatio sql.NullFloat64
		var createdAt string

		if err := rows.Scan(&e.ID, &e.RunID, &e.ExposureID, &e.Action, &tier, &oldRatio, &newRatio, &reason, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		if tier.Valid {
			e.Tier = tier.String
		}
		if oldRatio.Valid {
			e.OldRatio = &oldRatio.Float64
		}
		if newRatio.Valid {
			e.NewRatio = &newRatio.Float64
		}
		if reason.Valid {
			e.Reason = reason.String
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate policy audit: %w", err)
	}

	return entries, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat64Ptr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
