package rates

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestHistory(t *testing.T) *History {
	h, err := NewHistory(filepath.Join(t.TempDir(), "rate_history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestHistoryRecordAndLatest(t *testing.T) {
	h := setupTestHistory(t)

	now := time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)
	require.NoError(t, h.Record("EUR/USD", 1.0842, now))

	latest, err := h.Latest("EUR/USD")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "EUR/USD", latest.Pair)
	assert.Equal(t, 1.0842, latest.Rate)
	assert.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), latest.Date, "observations are keyed to midnight UTC")
}

func TestHistoryLatestMissingPair(t *testing.T) {
	h := setupTestHistory(t)

	latest, err := h.Latest("GBP/JPY")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestHistoryIntradayUpdatesOverwrite(t *testing.T) {
	h := setupTestHistory(t)

	day := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	require.NoError(t, h.Record("EUR/USD", 1.0800, day))
	require.NoError(t, h.Record("EUR/USD", 1.0850, day.Add(6*time.Hour)))

	points, err := h.RecentRates("EUR/USD", 7)
	require.NoError(t, err)
	require.Len(t, points, 1, "same-day updates replace the day's row")
	assert.Equal(t, 1.0850, points[0].Rate)
}

func TestHistoryRecentRatesAscendingWindow(t *testing.T) {
	h := setupTestHistory(t)

	now := time.Now().UTC()
	require.NoError(t, h.Record("EUR/USD", 1.05, now.AddDate(0, 0, -40)))
	require.NoError(t, h.Record("EUR/USD", 1.06, now.AddDate(0, 0, -10)))
	require.NoError(t, h.Record("EUR/USD", 1.07, now.AddDate(0, 0, -2)))
	require.NoError(t, h.Record("GBP/USD", 1.27, now.AddDate(0, 0, -1)))

	points, err := h.RecentRates("EUR/USD", 30)
	require.NoError(t, err)
	require.Len(t, points, 2, "window excludes the 40-day-old point and other pairs")
	assert.Equal(t, 1.06, points[0].Rate)
	assert.Equal(t, 1.07, points[1].Rate)
	assert.True(t, points[0].Date.Before(points[1].Date), "oldest first")
}

func TestHistoryRecentRatesNonPositiveDays(t *testing.T) {
	h := setupTestHistory(t)

	points, err := h.RecentRates("EUR/USD", 0)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestHistoryDeleteOlderThan(t *testing.T) {
	h := setupTestHistory(t)

	now := time.Now().UTC()
	require.NoError(t, h.Record("EUR/USD", 1.01, now.AddDate(-2, 0, 0)))
	require.NoError(t, h.Record("EUR/USD", 1.02, now.AddDate(0, 0, -100)))
	require.NoError(t, h.Record("EUR/USD", 1.03, now))

	deleted, err := h.DeleteOlderThan(now.AddDate(-1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	points, err := h.RecentRates("EUR/USD", 365*3)
	require.NoError(t, err)
	assert.Len(t, points, 2)
}
