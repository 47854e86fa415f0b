package analytics

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fxrisk/internal/domain"
)

func csvFixture() []domain.Exposure {
	return []domain.Exposure{
		{
			ID: "exp-1", FromCurrency: "EUR", ToCurrency: "USD",
			Amount:         floatPtr(1_000_000),
			BudgetRate:     floatPtr(1.10),
			CurrentRate:    floatPtr(1.05),
			CurrentPnl:     floatPtr(-50_000),
			InstrumentType: domain.InstrumentForward,
			Description:    "Supplier payment",
		},
		{
			ID: "exp-2", FromCurrency: "GBP", ToCurrency: "JPY",
			Amount:           floatPtr(-250_000),
			HedgeRatioPolicy: floatPtr(0.75),
			InstrumentType:   domain.InstrumentSpot,
			Description:      `Includes "urgent" flag`,
		},
		// Malformed on purpose: still renders as one row with N/A numerics.
		{ID: "exp-3", FromCurrency: "CHF", ToCurrency: "USD"},
	}
}

func TestToCSV_RoundTripRowAndColumnCounts(t *testing.T) {
	exposures := csvFixture()

	out := ToCSV(exposures, DefaultThresholds(), DefaultFormat())

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(exposures)+1, "one header plus one row per exposure")
	for _, record := range records {
		assert.Len(t, record, 9)
	}
}

func TestToCSV_HeaderLabels(t *testing.T) {
	out := ToCSV(nil, DefaultThresholds(), DefaultFormat())

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{
		"Instrument Type", "Currency Pair", "Amount", "Budget Rate",
		"Current Rate", "P&L", "Status", "Hedge %", "Description",
	}, records[0])
}

func TestToCSV_RendersThroughFormatter(t *testing.T) {
	out := ToCSV(csvFixture(), DefaultThresholds(), DefaultFormat())

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)

	first := records[1]
	assert.Equal(t, "forward", first[0])
	assert.Equal(t, "EUR/USD", first[1])
	assert.Equal(t, "1,000,000 EUR", first[2])
	assert.Equal(t, "1.1000", first[3])
	assert.Equal(t, "1.0500", first[4])
	assert.Equal(t, "-50,000", first[5], "P&L renders in signed mode")
	assert.Equal(t, "TARGET_MET", first[6])
	assert.Equal(t, "100.0%", first[7], "absent hedge ratio means fully hedged")

	second := records[2]
	assert.Equal(t, "-250,000 GBP", second[2])
	assert.Equal(t, "75.0%", second[7])
}

func TestToCSV_MissingNumericsRenderNA(t *testing.T) {
	out := ToCSV(csvFixture(), DefaultThresholds(), DefaultFormat())

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)

	malformed := records[3]
	assert.Equal(t, "N/A", malformed[2], "missing amount is N/A, not empty or 0")
	assert.Equal(t, "N/A", malformed[3])
	assert.Equal(t, "N/A", malformed[4])
	assert.Equal(t, "N/A", malformed[5])
	assert.Equal(t, "UNKNOWN", malformed[6])
}

func TestToCSV_EveryFieldQuotedAndInteriorQuotesDoubled(t *testing.T) {
	out := ToCSV(csvFixture(), DefaultThresholds(), DefaultFormat())

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, `"`), "line must start quoted: %s", line)
		assert.True(t, strings.HasSuffix(line, `"`), "line must end quoted: %s", line)
	}
	assert.Contains(t, out, `"Includes ""urgent"" flag"`)

	// A standard parser recovers the original description.
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `Includes "urgent" flag`, records[2][8])
}
