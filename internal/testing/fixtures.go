package testing

import (
	"math"
	"time"

	"github.com/aristath/fxrisk/internal/domain"
)

// NewExposureFixtures returns a small exposure book for use in tests: one
// exposure per policy tier, a receivable, a manual override and an NDF, so a
// single fixture set can drive tier, sign and instrument logic.
func NewExposureFixtures() []domain.Exposure {
	now := time.Now().UTC()
	in14 := now.AddDate(0, 0, 14)
	in30 := now.AddDate(0, 0, 30)

	return []domain.Exposure{
		{
			ID:                   "fix-001",
			FromCurrency:         "BRL",
			ToCurrency:           "USD",
			Amount:               floatPtr(42_000_000), // 7.56M USD, over-5M tier
			BudgetRate:           floatPtr(0.1810),
			CurrentRate:          floatPtr(0.1800),
			HedgeRatioPolicy:     floatPtr(0.75),
			CurrentPnl:           floatPtr(-42_000), // (0.1800 - 0.1810) * 42M
			InstrumentType:       domain.InstrumentSpot,
			SettlementPeriodDays: intPtr(14),
			StartDate:            &now,
			EndDate:              &in14,
			Reference:            "FIX-1001",
			Description:          "Soybean purchase contract",
			Counterparty:         "Agro Brasil SA",
		},
		{
			ID:                   "fix-002",
			FromCurrency:         "EUR",
			ToCurrency:           "USD",
			Amount:               floatPtr(2_200_000), // 2.44M USD, 1M-to-5M tier
			BudgetRate:           floatPtr(1.0850),
			CurrentRate:          floatPtr(1.1100),
			HedgeRatioPolicy:     floatPtr(0.5),
			CurrentPnl:           floatPtr(55_000), // (1.1100 - 1.0850) * 2.2M
			InstrumentType:       domain.InstrumentForward,
			SettlementPeriodDays: intPtr(14),
			StartDate:            &now,
			EndDate:              &in14,
			Reference:            "FIX-1002",
			Description:          "Wheat shipment via Rotterdam",
			Counterparty:         "EuroGrain BV",
		},
		{
			// Receivable: negative amount, a rate increase is favorable.
			ID:                   "fix-003",
			FromCurrency:         "CAD",
			ToCurrency:           "USD",
			Amount:               floatPtr(-900_000), // 0.66M USD, under-1M tier
			BudgetRate:           floatPtr(0.7290),
			CurrentRate:          floatPtr(0.7310),
			HedgeRatioPolicy:     floatPtr(0.25),
			CurrentPnl:           floatPtr(-1_800), // (0.7310 - 0.7290) * -900k
			InstrumentType:       domain.InstrumentSpot,
			SettlementPeriodDays: intPtr(14),
			StartDate:            &now,
			EndDate:              &in14,
			Reference:            "FIX-1003",
			Description:          "Canola seed sale",
			Counterparty:         "Prairie Agro Ltd",
		},
		{
			// Manually pinned hedge; policy cascades must skip it.
			ID:                   "fix-004",
			FromCurrency:         "AUD",
			ToCurrency:           "USD",
			Amount:               floatPtr(12_000_000),
			BudgetRate:           floatPtr(0.6580),
			CurrentRate:          floatPtr(0.6510),
			HedgeRatioPolicy:     floatPtr(0.9),
			HedgeOverride:        true,
			CurrentPnl:           floatPtr(-84_000), // (0.6510 - 0.6580) * 12M
			InstrumentType:       domain.InstrumentForward,
			SettlementPeriodDays: intPtr(30),
			StartDate:            &now,
			EndDate:              &in30,
			Reference:            "FIX-1004",
			Description:          "Iron ore shipment",
			Counterparty:         "Aussie Mining Corp",
		},
		{
			ID:                   "fix-005",
			FromCurrency:         "INR",
			ToCurrency:           "USD",
			Amount:               floatPtr(300_000_000), // 3.57M USD, 1M-to-5M tier
			BudgetRate:           floatPtr(0.0120),
			CurrentRate:          floatPtr(0.0119),
			HedgeRatioPolicy:     floatPtr(0.5),
			CurrentPnl:           floatPtr(-30_000), // (0.0119 - 0.0120) * 300M
			InstrumentType:       domain.InstrumentNDF,
			SettlementPeriodDays: intPtr(30),
			StartDate:            &now,
			EndDate:              &in30,
			Reference:            "FIX-1005",
			Description:          "Cotton shipment",
			Counterparty:         "Mumbai Textiles Ltd",
		},
	}
}

// NewSimulationResultFixture returns a deterministic Monte-Carlo run with a
// symmetric P&L sample, sized so histogram binning has enough observations.
func NewSimulationResultFixture(exposureID string, horizonDays int) *domain.SimulationResult {
	sampleSize := 1000
	pnl := make([]float64, sampleSize)

	// Deterministic spread around -5000, roughly -105k to +95k
	for i := 0; i < sampleSize; i++ {
		pnl[i] = -105_000 + float64(i)*200
	}

	var maxGain, maxLoss, sum float64
	losses := 0
	maxLoss = math.Inf(1)
	maxGain = math.Inf(-1)
	for _, v := range pnl {
		sum += v
		if v > maxGain {
			maxGain = v
		}
		if v < maxLoss {
			maxLoss = v
		}
		if v < 0 {
			losses++
		}
	}

	return &domain.SimulationResult{
		ExposureID:      exposureID,
		TimeHorizonDays: horizonDays,
		SimulatedPnl:    pnl,
		RiskMetrics: domain.RiskMetrics{
			Var95:             -95_000,
			Var99:             -103_000,
			ExpectedPnl:       sum / float64(sampleSize),
			MaxGain:           maxGain,
			MaxLoss:           maxLoss,
			ProbabilityOfLoss: float64(losses) / float64(sampleSize),
		},
	}
}

// NewApprovedPairFixtures returns currency pairs in canonical "FROM/TO" form.
func NewApprovedPairFixtures() []string {
	return []string{"EUR/USD", "GBP/USD", "BRL/USD", "CAD/USD", "INR/USD"}
}

// floatPtr returns a pointer to the given float64 value
func floatPtr(f float64) *float64 {
	return &f
}

// intPtr returns a pointer to the given int value
func intPtr(i int) *int {
	return &i
}
