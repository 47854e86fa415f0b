package exposures

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/fxrisk/internal/domain"
	"github.com/rs/zerolog"
)

// Repository handles exposure persistence on the exposures database.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new exposure repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "exposures").Logger(),
	}
}

const exposureColumns = `id, from_currency, to_currency, amount, budget_rate, current_rate,
	hedge_ratio_policy, hedge_override, hedged_amount, unhedged_amount, current_pnl,
	instrument_type, settlement_period_days, start_date, end_date,
	reference, description, counterparty, created_at, updated_at`

// timestampLayout is RFC3339 with fixed-width microseconds so that the TEXT
// created_at column sorts lexically in insertion order even for rapid inserts.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// List returns all exposures in insertion order.
func (r *Repository) List() ([]domain.Exposure, error) {
	query := `SELECT ` + exposureColumns + ` FROM exposures ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query exposures: %w", err)
	}
	defer rows.Close()

	exposures := []domain.Exposure{}
	for rows.Next() {
		exp, err := r.scanExposure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exposure: %w", err)
		}
		exposures = append(exposures, exp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exposures: %w", err)
	}

	return exposures, nil
}

// GetByID returns a single exposure, or nil when the id is unknown.
func (r *Repository) GetByID(id string) (*domain.Exposure, error) {
	query := `SELECT ` + exposureColumns + ` FROM exposures WHERE id = ?`

	rows, err := r.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query exposure by id: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil // Exposure not found
	}

	exp, err := r.scanExposure(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan exposure: %w", err)
	}

	return &exp, nil
}

// Create inserts a new exposure. Timestamps are set here, not by the caller.
func (r *Repository) Create(exp domain.Exposure) error {
	now := time.Now().UTC().Format(timestampLayout)

	query := `
		INSERT INTO exposures
		(id, from_currency, to_currency, amount, budget_rate, current_rate,
		 hedge_ratio_policy, hedge_override, hedged_amount, unhedged_amount, current_pnl,
		 instrument_type, settlement_period_days, start_date, end_date,
		 reference, description, counterparty, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		exp.ID,
		strings.ToUpper(strings.TrimSpace(exp.FromCurrency)),
		strings.ToUpper(strings.TrimSpace(exp.ToCurrency)),
		nullFloat64Ptr(exp.Amount),
		nullFloat64Ptr(exp.BudgetRate),
		nullFloat64Ptr(exp.CurrentRate),
		nullFloat64Ptr(exp.HedgeRatioPolicy),
		boolToInt(exp.HedgeOverride),
		nullFloat64Ptr(exp.HedgedAmount),
		nullFloat64Ptr(exp.UnhedgedAmount),
		nullFloat64Ptr(exp.CurrentPnl),
		nullString(string(exp.InstrumentType)),
		nullIntPtr(exp.SettlementPeriodDays),
		nullTimePtr(exp.StartDate),
		nullTimePtr(exp.EndDate),
		nullString(exp.Reference),
		nullString(exp.Description),
		nullString(exp.Counterparty),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert exposure: %w", err)
	}

	r.log.Info().Str("id", exp.ID).Str("pair", exp.Pair()).Msg("Exposure created")
	return nil
}

// Update replaces every mutable column of an existing exposure.
// Callers check existence first; updating an unknown id is a silent no-op.
func (r *Repository) Update(exp domain.Exposure) error {
	now := time.Now().UTC().Format(timestampLayout)

	query := `
		UPDATE exposures SET
			from_currency = ?, to_currency = ?, amount = ?, budget_rate = ?, current_rate = ?,
			hedge_ratio_policy = ?, hedge_override = ?, hedged_amount = ?, unhedged_amount = ?,
			current_pnl = ?, instrument_type = ?, settlement_period_days = ?,
			start_date = ?, end_date = ?, reference = ?, description = ?, counterparty = ?,
			updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		strings.ToUpper(strings.TrimSpace(exp.FromCurrency)),
		strings.ToUpper(strings.TrimSpace(exp.ToCurrency)),
		nullFloat64Ptr(exp.Amount),
		nullFloat64Ptr(exp.BudgetRate),
		nullFloat64Ptr(exp.CurrentRate),
		nullFloat64Ptr(exp.HedgeRatioPolicy),
		boolToInt(exp.HedgeOverride),
		nullFloat64Ptr(exp.HedgedAmount),
		nullFloat64Ptr(exp.UnhedgedAmount),
		nullFloat64Ptr(exp.CurrentPnl),
		nullString(string(exp.InstrumentType)),
		nullIntPtr(exp.SettlementPeriodDays),
		nullTimePtr(exp.StartDate),
		nullTimePtr(exp.EndDate),
		nullString(exp.Reference),
		nullString(exp.Description),
		nullString(exp.Counterparty),
		now,
		exp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update exposure: %w", err)
	}

	r.log.Info().Str("id", exp.ID).Msg("Exposure updated")
	return nil
}

// Delete removes an exposure by id.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM exposures WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete exposure: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.log.Info().Str("id", id).Int64("rows_affected", rowsAffected).Msg("Exposure deleted")
	return nil
}

// UpdateRates writes a freshly fetched market rate and the derived P&L.
// A nil pnl clears the column; it cannot be derived without a budget rate.
func (r *Repository) UpdateRates(id string, currentRate float64, currentPnl *float64) error {
	now := time.Now().UTC().Format(timestampLayout)

	_, err := r.db.Exec(
		"UPDATE exposures SET current_rate = ?, current_pnl = ?, updated_at = ? WHERE id = ?",
		currentRate, nullFloat64Ptr(currentPnl), now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update exposure rates: %w", err)
	}

	return nil
}

// UpdateHedgeRatio sets the policy hedge ratio on one exposure.
// Used by the policy cascade; manual overrides are filtered out upstream.
func (r *Repository) UpdateHedgeRatio(id string, ratio float64) error {
	now := time.Now().UTC().Format(timestampLayout)

	_, err := r.db.Exec(
		"UPDATE exposures SET hedge_ratio_policy = ?, updated_at = ? WHERE id = ?",
		ratio, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update hedge ratio: %w", err)
	}

	return nil
}

// SetHedgeOverride pins a manual hedge ratio on one exposure. Overridden
// exposures are skipped by subsequent policy cascades.
func (r *Repository) SetHedgeOverride(id string, ratio float64) error {
	now := time.Now().UTC().Format(timestampLayout)

	_, err := r.db.Exec(
		"UPDATE exposures SET hedge_ratio_policy = ?, hedge_override = 1, updated_at = ? WHERE id = ?",
		ratio, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set hedge override: %w", err)
	}

	r.log.Info().Str("id", id).Float64("ratio", ratio).Msg("Manual hedge override set")
	return nil
}

// ImportBatch is the audit record of one CSV import run.
type ImportBatch struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Imported  int       `json:"imported"`
	Skipped   int       `json:"skipped"`
	Warnings  []string  `json:"warnings"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateImportBatch records the outcome of one CSV import run.
func (r *Repository) CreateImportBatch(batch ImportBatch) error {
	warningsJSON, err := json.Marshal(batch.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal import warnings: %w", err)
	}

	_, err = r.db.Exec(
		"INSERT INTO import_batches (id, filename, imported, skipped, warnings, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		batch.ID, nullString(batch.Filename), batch.Imported, batch.Skipped,
		string(warningsJSON), time.Now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert import batch: %w", err)
	}

	return nil
}

// ListImportBatches returns the most recent import runs, newest first.
func (r *Repository) ListImportBatches(limit int) ([]ImportBatch, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(
		"SELECT id, filename, imported, skipped, warnings, created_at FROM import_batches ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query import batches: %w", err)
	}
	defer rows.Close()

	batches := []ImportBatch{}
	for rows.Next() {
		var batch ImportBatch
		var filename, warnings sql.NullString
		var createdAt string

		if err := rows.Scan(&batch.ID, &filename, &batch.Imported, &batch.Skipped, &warnings, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan import batch: %w", err)
		}

		if filename.Valid {
			batch.Filename = filename.String
		}
		batch.Warnings = []string{}
		if warnings.Valid && warnings.String != "" {
			if err := json.Unmarshal([]byte(warnings.String), &batch.Warnings); err != nil {
				r.log.Warn().Err(err).Str("id", batch.ID).Msg("Unreadable warnings on import batch")
			}
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			batch.CreatedAt = t
		}

		batches = append(batches, batch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate import batches: %w", err)
	}

	return batches, nil
}

// Count returns the number of stored exposures.
func (r *Repository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) as count FROM exposures").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count exposures: %w", err)
	}

	return count, nil
}

// scanExposure scans a database row into a domain.Exposure.
// Column order must match exposureColumns.
func (r *Repository) scanExposure(rows *sql.Rows) (domain.Exposure, error) {
	var exp domain.Exposure
	var amount, budgetRate, currentRate sql.NullFloat64
	var hedgeRatioPolicy, hedgedAmount, unhedgedAmount, currentPnl sql.NullFloat64
	var hedgeOverride int
	var instrumentType, startDate, endDate sql.NullString
	var settlementDays sql.NullInt64
	var reference, description, counterparty sql.NullString
	var createdAt, updatedAt string

	err := rows.Scan(
		&exp.ID,
		&exp.FromCurrency,
		&exp.ToCurrency,
		&amount,
		&budgetRate,
		&currentRate,
		&hedgeRatioPolicy,
		&hedgeOverride,
		&hedgedAmount,
		&unhedgedAmount,
		&currentPnl,
		&instrumentType,
		&settlementDays,
		&startDate,
		&endDate,
		&reference,
		&description,
		&counterparty,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return exp, err
	}

	if amount.Valid {
		exp.Amount = &amount.Float64
	}
	if budgetRate.Valid {
		exp.BudgetRate = &budgetRate.Float64
	}
	if currentRate.Valid {
		exp.CurrentRate = &currentRate.Float64
	}
	if hedgeRatioPolicy.Valid {
		exp.HedgeRatioPolicy = &hedgeRatioPolicy.Float64
	}
	exp.HedgeOverride = hedgeOverride != 0
	if hedgedAmount.Valid {
		exp.HedgedAmount = &hedgedAmount.Float64
	}
	if unhedgedAmount.Valid {
		exp.UnhedgedAmount = &unhedgedAmount.Float64
	}
	if currentPnl.Valid {
		exp.CurrentPnl = &currentPnl.Float64
	}
	if instrumentType.Valid {
		exp.InstrumentType = domain.InstrumentType(instrumentType.String)
	}
	if settlementDays.Valid {
		days := int(settlementDays.Int64)
		exp.SettlementPeriodDays = &days
	}
	if startDate.Valid {
		if t, err := time.Parse(time.RFC3339, startDate.String); err == nil {
			exp.StartDate = &t
		}
	}
	if endDate.Valid {
		if t, err := time.Parse(time.RFC3339, endDate.String); err == nil {
			exp.EndDate = &t
		}
	}
	if reference.Valid {
		exp.Reference = reference.String
	}
	if description.Valid {
		exp.Description = description.String
	}
	if counterparty.Valid {
		exp.Counterparty = counterparty.String
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		exp.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		exp.UpdatedAt = t
	}

	return exp, nil
}

func nullFloat64Ptr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullIntPtr(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
