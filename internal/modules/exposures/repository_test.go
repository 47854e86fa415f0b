package exposures

import (
	"database/sql"
	"testing"
	"time"

	"github.com/aristath/fxrisk/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE exposures (
			id TEXT PRIMARY KEY,
			from_currency TEXT NOT NULL,
			to_currency TEXT NOT NULL,
			amount REAL,
			budget_rate REAL,
			current_rate REAL,
			hedge_ratio_policy REAL,
			hedge_override INTEGER DEFAULT 0,
			hedged_amount REAL,
			unhedged_amount REAL,
			current_pnl REAL,
			instrument_type TEXT,
			settlement_period_days INTEGER,
			start_date TEXT,
			end_date TEXT,
			reference TEXT,
			description TEXT,
			counterparty TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE import_batches (
			id TEXT PRIMARY KEY,
			filename TEXT,
			imported INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			warnings TEXT,
			created_at TEXT NOT NULL
		);
	`)
	require.NoError(t, err)

	return NewRepository(db, zerolog.Nop())
}

func testExposure(id string, amount float64) domain.Exposure {
	return domain.Exposure{
		ID:           id,
		FromCurrency: "EUR",
		ToCurrency:   "USD",
		Amount:       &amount,
	}
}

func TestCreateAndGetByID(t *testing.T) {
	repo := setupTestRepo(t)

	budget := 1.0850
	days := 21
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC)
	amount := 11_000_000.0

	exp := domain.Exposure{
		ID:                   "exp-1",
		FromCurrency:         "EUR",
		ToCurrency:           "USD",
		Amount:               &amount,
		BudgetRate:           &budget,
		InstrumentType:       domain.InstrumentForward,
		SettlementPeriodDays: &days,
		StartDate:            &start,
		EndDate:              &end,
		Reference:            "GT-1003",
		Description:          "Ukrainian wheat via Rotterdam",
		Counterparty:         "EuroGrain BV",
	}
	require.NoError(t, repo.Create(exp))

	got, err := repo.GetByID("exp-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "EUR", got.FromCurrency)
	assert.Equal(t, "USD", got.ToCurrency)
	require.NotNil(t, got.Amount)
	assert.Equal(t, 11_000_000.0, *got.Amount)
	require.NotNil(t, got.BudgetRate)
	assert.Equal(t, 1.0850, *got.BudgetRate)
	assert.Nil(t, got.CurrentRate)
	assert.Nil(t, got.HedgeRatioPolicy)
	assert.False(t, got.HedgeOverride)
	assert.Equal(t, domain.InstrumentForward, got.InstrumentType)
	require.NotNil(t, got.SettlementPeriodDays)
	assert.Equal(t, 21, *got.SettlementPeriodDays)
	require.NotNil(t, got.StartDate)
	assert.True(t, got.StartDate.Equal(start))
	require.NotNil(t, got.EndDate)
	assert.True(t, got.EndDate.Equal(end))
	assert.Equal(t, "GT-1003", got.Reference)
	assert.Equal(t, "EuroGrain BV", got.Counterparty)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetByIDMissing(t *testing.T) {
	repo := setupTestRepo(t)

	got, err := repo.GetByID("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListInsertionOrder(t *testing.T) {
	repo := setupTestRepo(t)

	// IDs deliberately sort against insertion order.
	require.NoError(t, repo.Create(testExposure("zzz", 100)))
	require.NoError(t, repo.Create(testExposure("mmm", 200)))
	require.NoError(t, repo.Create(testExposure("aaa", 300)))

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "zzz", list[0].ID)
	assert.Equal(t, "mmm", list[1].ID)
	assert.Equal(t, "aaa", list[2].ID)
}

func TestListEmpty(t *testing.T) {
	repo := setupTestRepo(t)

	list, err := repo.List()
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestUpdate(t *testing.T) {
	repo := setupTestRepo(t)
	require.NoError(t, repo.Create(testExposure("exp-1", 100)))

	got, err := repo.GetByID("exp-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	newAmount := 250_000.0
	got.Amount = &newAmount
	got.Description = "revised notional"
	got.HedgeOverride = true
	require.NoError(t, repo.Update(*got))

	updated, err := repo.GetByID("exp-1")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 250_000.0, *updated.Amount)
	assert.Equal(t, "revised notional", updated.Description)
	assert.True(t, updated.HedgeOverride)
	assert.Equal(t, got.CreatedAt, updated.CreatedAt)
}

func TestDelete(t *testing.T) {
	repo := setupTestRepo(t)
	require.NoError(t, repo.Create(testExposure("exp-1", 100)))

	require.NoError(t, repo.Delete("exp-1"))

	got, err := repo.GetByID("exp-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again is a no-op.
	require.NoError(t, repo.Delete("exp-1"))
}

func TestUpdateRates(t *testing.T) {
	repo := setupTestRepo(t)
	require.NoError(t, repo.Create(testExposure("exp-1", 1000)))

	pnl := 230.0
	require.NoError(t, repo.UpdateRates("exp-1", 1.1080, &pnl))

	got, err := repo.GetByID("exp-1")
	require.NoError(t, err)
	require.NotNil(t, got.CurrentRate)
	assert.Equal(t, 1.1080, *got.CurrentRate)
	require.NotNil(t, got.CurrentPnl)
	assert.Equal(t, 230.0, *got.CurrentPnl)

	// A refresh without a budget rate clears the stale P&L.
	require.NoError(t, repo.UpdateRates("exp-1", 1.0950, nil))

	got, err = repo.GetByID("exp-1")
	require.NoError(t, err)
	assert.Equal(t, 1.0950, *got.CurrentRate)
	assert.Nil(t, got.CurrentPnl)
}

func TestUpdateHedgeRatio(t *testing.T) {
	repo := setupTestRepo(t)
	require.NoError(t, repo.Create(testExposure("exp-1", 1000)))

	require.NoError(t, repo.UpdateHedgeRatio("exp-1", 0.75))

	got, err := repo.GetByID("exp-1")
	require.NoError(t, err)
	require.NotNil(t, got.HedgeRatioPolicy)
	assert.Equal(t, 0.75, *got.HedgeRatioPolicy)
}

func TestCount(t *testing.T) {
	repo := setupTestRepo(t)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, repo.Create(testExposure("exp-1", 100)))
	require.NoError(t, repo.Create(testExposure("exp-2", 200)))

	count, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestImportBatches(t *testing.T) {
	repo := setupTestRepo(t)

	require.NoError(t, repo.CreateImportBatch(ImportBatch{
		ID:       "batch-1",
		Filename: "q1_exposures.csv",
		Imported: 12,
		Skipped:  2,
		Warnings: []string{"row 3: missing reference"},
	}))
	require.NoError(t, repo.CreateImportBatch(ImportBatch{
		ID:       "batch-2",
		Filename: "q2_exposures.csv",
		Imported: 5,
		Warnings: []string{},
	}))

	batches, err := repo.ListImportBatches(10)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	// Newest first.
	assert.Equal(t, "batch-2", batches[0].ID)
	assert.Equal(t, "batch-1", batches[1].ID)
	assert.Equal(t, "q1_exposures.csv", batches[1].Filename)
	assert.Equal(t, 12, batches[1].Imported)
	assert.Equal(t, 2, batches[1].Skipped)
	assert.Equal(t, []string{"row 3: missing reference"}, batches[1].Warnings)
	assert.Empty(t, batches[0].Warnings)
}
