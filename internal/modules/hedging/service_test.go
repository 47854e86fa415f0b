package hedging

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/aristath/fxrisk/internal/domain"
	"github.com/aristath/fxrisk/internal/modules/settings"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

type stubExposures struct {
	exposures map[string]*domain.Exposure
}

func (s *stubExposures) GetByID(id string) (*domain.Exposure, error) {
	return s.exposures[id], nil
}

type stubRateSource struct {
	rate float64
	err  error
}

func (s *stubRateSource) GetRate(fromCurrency, toCurrency string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.rate, nil
}

func newSettingsService(t *testing.T) *settings.Service {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		description TEXT,
		updated_at INTEGER NOT NULL DEFAULT 0
	)`)
	require.NoError(t, err)

	return settings.NewService(settings.NewRepository(db, zerolog.Nop()), zerolog.Nop())
}

func setupHedging(t *testing.T, exps map[string]*domain.Exposure) (*Service, *settings.Service) {
	t.Helper()

	settingsService := newSettingsService(t)
	svc := NewService(
		&stubExposures{exposures: exps},
		&stubRateSource{rate: 1.25},
		NewVolatilityEstimator(&stubHistory{}, zerolog.Nop()),
		settingsService,
		zerolog.Nop(),
	)
	return svc, settingsService
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func timePtr(v time.Time) *time.Time {
	return &v
}

func TestRecommendLowTolerance(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	rec, err := svc.Recommend(RecommendationRequest{
		Pair:            "EUR/USD",
		ExposureAmount:  1_000_000,
		CurrentRate:     1.10,
		TimeHorizonDays: 90,
		RiskTolerance:   "low",
		Volatility:      0.08,
	})
	require.NoError(t, err)
	require.NotNil(t, rec)

	adjVol := 0.08 * math.Sqrt(90.0/365.0)
	assert.Equal(t, 1.0, rec.RecommendedRatio)
	assert.Equal(t, 99, rec.ConfidenceLevel)
	assert.Equal(t, 90, rec.TimeHorizonDays)
	assert.InDelta(t, adjVol, rec.AdjustedVolatility, 1e-9)
	assert.InDelta(t, 1.10*adjVol*1.645, rec.Var95, 1e-9)
	assert.InDelta(t, 1.10*adjVol*2.326, rec.Var99, 1e-9)
	assert.Equal(t, "request", rec.Volatility.Source)
	assert.Contains(t, rec.Rationale, "Full hedge")

	require.Len(t, rec.Analysis, 4)
	assert.Equal(t, 0.25, rec.Analysis[0].Ratio)
	assert.InDelta(t, 250_000, rec.Analysis[0].HedgedAmount, 1e-6)
	assert.InDelta(t, 750_000, rec.Analysis[0].UnhedgedAmount, 1e-6)
	assert.Equal(t, 25.0, rec.Analysis[0].DownsideProtection)

	// A full hedge leaves nothing floating.
	full := rec.Analysis[3]
	assert.Equal(t, 1.0, full.Ratio)
	assert.InDelta(t, 0, full.WorstCasePnl, 1e-9)
	assert.InDelta(t, 0, full.BestCasePnl, 1e-9)
}

func TestRecommendModerateScalesWithRisk(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	// Calm pair: hedge only the fraction at risk.
	rec, err := svc.Recommend(RecommendationRequest{
		Pair:            "EUR/USD",
		ExposureAmount:  1_000_000,
		CurrentRate:     1.10,
		TimeHorizonDays: 90,
		RiskTolerance:   "moderate",
		Volatility:      0.08,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.07, rec.RecommendedRatio)
	assert.Equal(t, 95, rec.ConfidenceLevel)

	// Violent pair over a full year: the cap kicks in.
	rec, err = svc.Recommend(RecommendationRequest{
		Pair:            "USD/TRY",
		ExposureAmount:  1_000_000,
		CurrentRate:     41.0,
		TimeHorizonDays: 365,
		RiskTolerance:   "moderate",
		Volatility:      1.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.75, rec.RecommendedRatio)
}

func TestRecommendHighTolerance(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	rec, err := svc.Recommend(RecommendationRequest{
		Pair:            "EUR/USD",
		ExposureAmount:  1_000_000,
		CurrentRate:     1.10,
		TimeHorizonDays: 90,
		RiskTolerance:   "high",
		Volatility:      0.08,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.5, rec.RecommendedRatio)
	assert.Equal(t, 90, rec.ConfidenceLevel)
	assert.Contains(t, rec.Rationale, "Moderate hedge")
}

func TestRecommendToleranceFromSettings(t *testing.T) {
	svc, settingsService := setupHedging(t, nil)

	req := RecommendationRequest{
		Pair:            "EUR/USD",
		ExposureAmount:  1_000_000,
		CurrentRate:     1.10,
		TimeHorizonDays: 90,
		Volatility:      0.08,
	}

	// Fresh install defaults to moderate.
	rec, err := svc.Recommend(req)
	require.NoError(t, err)
	assert.Equal(t, 95, rec.ConfidenceLevel)

	require.NoError(t, settingsService.Set("risk_tolerance", "low"))

	rec, err = svc.Recommend(req)
	require.NoError(t, err)
	assert.Equal(t, 99, rec.ConfidenceLevel)
	assert.Equal(t, 1.0, rec.RecommendedRatio)
}

func TestRecommendExposureDriven(t *testing.T) {
	end := time.Now().UTC().Add(60 * 24 * time.Hour)
	svc, _ := setupHedging(t, map[string]*domain.Exposure{
		"exp-1": {
			ID:           "exp-1",
			FromCurrency: "EUR",
			ToCurrency:   "USD",
			Amount:       floatPtr(-500_000), // receivable
			CurrentRate:  floatPtr(1.08),
			EndDate:      timePtr(end),
		},
	})

	rec, err := svc.Recommend(RecommendationRequest{
		ExposureID:    "exp-1",
		RiskTolerance: "low",
		Volatility:    0.08,
	})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "EUR/USD", rec.Pair)
	assert.Equal(t, 60, rec.TimeHorizonDays)

	// Sizing works on the notional, not the sign.
	assert.InDelta(t, 500_000, rec.Analysis[3].HedgedAmount, 1e-6)

	adjVol := 0.08 * math.Sqrt(60.0/365.0)
	assert.InDelta(t, 1.08*adjVol*1.645, rec.Var95, 1e-9)
}

func TestRecommendHorizonFromSettlementPeriod(t *testing.T) {
	svc, _ := setupHedging(t, map[string]*domain.Exposure{
		"exp-1": {
			ID:                   "exp-1",
			FromCurrency:         "EUR",
			ToCurrency:           "USD",
			Amount:               floatPtr(250_000),
			CurrentRate:          floatPtr(1.10),
			SettlementPeriodDays: intPtr(30),
		},
	})

	rec, err := svc.Recommend(RecommendationRequest{ExposureID: "exp-1", RiskTolerance: "low", Volatility: 0.08})
	require.NoError(t, err)
	assert.Equal(t, 30, rec.TimeHorizonDays)
}

func TestRecommendFetchesLiveRate(t *testing.T) {
	svc, _ := setupHedging(t, map[string]*domain.Exposure{
		"exp-1": {
			ID:           "exp-1",
			FromCurrency: "GBP",
			ToCurrency:   "USD",
			Amount:       floatPtr(100_000),
		},
	})

	rec, err := svc.Recommend(RecommendationRequest{
		ExposureID:      "exp-1",
		TimeHorizonDays: 90,
		RiskTolerance:   "low",
		Volatility:      0.08,
	})
	require.NoError(t, err)

	// The stub rate source quotes 1.25.
	adjVol := 0.08 * math.Sqrt(90.0/365.0)
	assert.InDelta(t, 1.25*adjVol*1.645, rec.Var95, 1e-9)
}

func TestRecommendEstimatesFromPairClass(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	rec, err := svc.Recommend(RecommendationRequest{
		Pair:            "USD/BRL",
		ExposureAmount:  1_000_000,
		CurrentRate:     5.0,
		TimeHorizonDays: 30,
		RiskTolerance:   "low",
	})
	require.NoError(t, err)

	assert.Equal(t, "class_fallback", rec.Volatility.Source)
	assert.Equal(t, VolEmerging, rec.Volatility.Annualized)
}

func TestRecommendUnknownExposure(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	rec, err := svc.Recommend(RecommendationRequest{ExposureID: "ghost"})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRecommendValidation(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	base := RecommendationRequest{
		Pair:            "EUR/USD",
		ExposureAmount:  1_000_000,
		CurrentRate:     1.10,
		TimeHorizonDays: 90,
		Volatility:      0.08,
	}

	bad := base
	bad.RiskTolerance = "yolo"
	_, err := svc.Recommend(bad)
	assert.ErrorContains(t, err, "invalid risk tolerance")

	bad = base
	bad.Volatility = 1.5
	_, err = svc.Recommend(bad)
	assert.ErrorContains(t, err, "volatility")

	bad = base
	bad.TimeHorizonDays = 400
	_, err = svc.Recommend(bad)
	assert.ErrorContains(t, err, "time_horizon_days")

	bad = base
	bad.CurrentRate = 0
	_, err = svc.Recommend(bad)
	assert.ErrorContains(t, err, "current_rate")

	bad = base
	bad.Pair = ""
	bad.Volatility = 0
	_, err = svc.Recommend(bad)
	assert.ErrorContains(t, err, "volatility or pair")
}

func TestScenariosDefaultsToModerate(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	report, err := svc.Scenarios(ScenarioRequest{
		ExposureAmount: 1_000_000,
		CurrentRate:    1.10,
		HedgeRatio:     floatPtr(0.5),
	})
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, "moderate", report.ScenarioType)
	assert.Equal(t, 0.5, report.HedgeRatio)
	require.Len(t, report.Outcomes, 5)

	crash := report.Outcomes[0]
	assert.Equal(t, -10.0, crash.RateChangePct)
	assert.InDelta(t, 0.99, crash.NewRate, 1e-9)
	assert.InDelta(t, -110_000, crash.UnhedgedPnl, 1e-6)
	assert.InDelta(t, -55_000, crash.HedgedPnl, 1e-6)
	assert.InDelta(t, -55_000, crash.HedgeBenefit, 1e-6)
	assert.Equal(t, "Severe Adverse", crash.Severity)

	summary := report.Summary
	assert.Equal(t, 5, summary.TotalScenarios)
	assert.InDelta(t, -110_000, summary.WorstCaseUnhedged, 1e-6)
	assert.InDelta(t, 110_000, summary.BestCaseUnhedged, 1e-6)
	assert.InDelta(t, -55_000, summary.WorstCaseHedged, 1e-6)
	assert.InDelta(t, 0, summary.AvgUnhedged, 1e-6)
}

func TestScenarioSeverityLabels(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	report, err := svc.Scenarios(ScenarioRequest{
		ExposureAmount: 1_000_000,
		CurrentRate:    1.10,
		HedgeRatio:     floatPtr(0),
		ScenarioType:   "aggressive",
	})
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 7)

	labels := make([]string, len(report.Outcomes))
	for i, o := range report.Outcomes {
		labels[i] = o.Severity
	}
	assert.Equal(t, []string{
		"Severe Adverse",
		"Severe Adverse",
		"Moderate Adverse",
		"No Change",
		"Mild Favorable",
		"Moderate Favorable",
		"Severe Favorable",
	}, labels)
}

func TestScenariosReceivableGainsOnDrop(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	report, err := svc.Scenarios(ScenarioRequest{
		ExposureAmount: -1_000_000,
		CurrentRate:    1.10,
		HedgeRatio:     floatPtr(0),
	})
	require.NoError(t, err)

	// A falling rate is a gain when the desk is owed the currency.
	crash := report.Outcomes[0]
	assert.InDelta(t, 110_000, crash.UnhedgedPnl, 1e-6)
}

func TestScenariosUsesExposureHedgeRatio(t *testing.T) {
	svc, _ := setupHedging(t, map[string]*domain.Exposure{
		"exp-1": {
			ID:               "exp-1",
			FromCurrency:     "EUR",
			ToCurrency:       "USD",
			Amount:           floatPtr(1_000_000),
			CurrentRate:      floatPtr(1.10),
			HedgeRatioPolicy: floatPtr(0.75),
		},
	})

	report, err := svc.Scenarios(ScenarioRequest{ExposureID: "exp-1"})
	require.NoError(t, err)

	assert.Equal(t, 0.75, report.HedgeRatio)
	assert.Equal(t, 1.10, report.CurrentRate)
	assert.Equal(t, 1_000_000.0, report.ExposureAmount)
}

func TestScenariosUnknownTypeFallsBack(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	report, err := svc.Scenarios(ScenarioRequest{
		ExposureAmount: 1_000_000,
		CurrentRate:    1.10,
		HedgeRatio:     floatPtr(0.5),
		ScenarioType:   "extreme",
	})
	require.NoError(t, err)
	assert.Equal(t, "moderate", report.ScenarioType)
}

func TestScenariosRejectsBadRatio(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	_, err := svc.Scenarios(ScenarioRequest{
		ExposureAmount: 1_000_000,
		CurrentRate:    1.10,
		HedgeRatio:     floatPtr(1.5),
	})
	assert.ErrorContains(t, err, "hedge ratio")
}

func TestPnLBreakdown(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	impact, err := svc.PnL(PnLRequest{
		ExposureAmount: 1_000_000,
		ContractRate:   1.20,
		CurrentRate:    1.14,
		HedgeRatio:     floatPtr(0.5),
	})
	require.NoError(t, err)
	require.NotNil(t, impact)

	assert.InDelta(t, -0.06, impact.RateDifference, 1e-9)
	assert.InDelta(t, -5.0, impact.RateDifferencePct, 1e-9)
	assert.InDelta(t, -60_000, impact.UnhedgedPnl, 1e-6)
	assert.InDelta(t, -30_000, impact.HedgedPnl, 1e-6)
	assert.InDelta(t, 30_000, impact.OpportunityImpact, 1e-6)
	assert.InDelta(t, 500_000, impact.HedgedAmount, 1e-6)
	assert.InDelta(t, 500_000, impact.UnhedgedAmount, 1e-6)
}

func TestPnLEffectivenessTiers(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	cases := []struct {
		name        string
		ratio       float64
		currentRate float64
		want        string
	}{
		{"full hedge", 0.95, 1.14, "Highly Effective"},
		{"substantial hedge", 0.75, 1.14, "Effective"},
		{"partial hedge", 0.5, 1.14, "Partially Effective"},
		{"no hedge", 0, 1.14, "Ineffective"},
		{"flat rate", 0.5, 1.20, "Neutral"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			impact, err := svc.PnL(PnLRequest{
				ExposureAmount: 1_000_000,
				ContractRate:   1.20,
				CurrentRate:    tc.currentRate,
				HedgeRatio:     floatPtr(tc.ratio),
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, impact.Effectiveness)
		})
	}
}

func TestPnLContractFromBudgetRate(t *testing.T) {
	svc, _ := setupHedging(t, map[string]*domain.Exposure{
		"exp-1": {
			ID:           "exp-1",
			FromCurrency: "EUR",
			ToCurrency:   "USD",
			Amount:       floatPtr(1_000_000),
			BudgetRate:   floatPtr(1.25),
			CurrentRate:  floatPtr(1.20),
		},
	})

	impact, err := svc.PnL(PnLRequest{ExposureID: "exp-1"})
	require.NoError(t, err)
	require.NotNil(t, impact)

	assert.Equal(t, 1.25, impact.ContractRate)
	assert.InDelta(t, -0.05, impact.RateDifference, 1e-9)
}

func TestPnLRequiresContractRate(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	_, err := svc.PnL(PnLRequest{
		ExposureAmount: 1_000_000,
		CurrentRate:    1.14,
	})
	assert.ErrorContains(t, err, "contract_rate")
}

func TestCompareStrategies(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	comparisons, err := svc.Compare(CompareRequest{
		ExposureAmount: 1_000_000,
		CurrentRate:    1.10,
		Strategies: []Strategy{
			{HedgeRatio: 0.25},
			{Label: "Sleep Well", HedgeRatio: 1.0},
		},
	})
	require.NoError(t, err)
	require.Len(t, comparisons, 2)

	assert.Equal(t, "25% Hedge", comparisons[0].Label)
	assert.Equal(t, 5, comparisons[0].Summary.TotalScenarios)

	full := comparisons[1]
	assert.Equal(t, "Sleep Well", full.Label)
	assert.InDelta(t, 0, full.Summary.WorstCaseHedged, 1e-9)
	assert.InDelta(t, 0, full.Summary.BestCaseHedged, 1e-9)
}

func TestCompareValidation(t *testing.T) {
	svc, _ := setupHedging(t, nil)

	_, err := svc.Compare(CompareRequest{ExposureAmount: 1_000_000, CurrentRate: 1.10})
	assert.ErrorContains(t, err, "at least one strategy")

	_, err = svc.Compare(CompareRequest{
		ExposureAmount: 1_000_000,
		CurrentRate:    1.10,
		Strategies:     []Strategy{{HedgeRatio: 2}},
	})
	assert.ErrorContains(t, err, "hedge ratio")
}

func TestRolloverMonitorFarOut(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := setupHedging(t, map[string]*domain.Exposure{
		"exp-1": {
			ID:           "exp-1",
			FromCurrency: "EUR",
			ToCurrency:   "USD",
			Amount:       floatPtr(1_000_000),
			EndDate:      timePtr(now.Add(60 * 24 * time.Hour)),
		},
	})

	advice, err := svc.Rollover("exp-1", "", now)
	require.NoError(t, err)
	require.NotNil(t, advice)

	assert.Equal(t, 60, advice.DaysToMaturity)
	assert.Equal(t, "2026-04-30", advice.MaturityDate)
	assert.Equal(t, "Monitor", advice.Recommendation)
	assert.Equal(t, "Review 30 days before maturity", advice.Action)
	assert.Equal(t, "neutral", advice.MarketOutlook)
	assert.Equal(t, "Low", advice.Urgency)
}

func TestRolloverOutlookBranches(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := setupHedging(t, map[string]*domain.Exposure{
		"exp-1": {
			ID:           "exp-1",
			FromCurrency: "EUR",
			ToCurrency:   "USD",
			Amount:       floatPtr(1_000_000),
			EndDate:      timePtr(now.Add(14 * 24 * time.Hour)),
		},
	})

	cases := []struct {
		outlook        string
		recommendation string
		action         string
	}{
		{"bearish", "Roll Over Early", "Lock in current rates before further deterioration"},
		{"bullish", "Let Mature", "Wait for potential rate improvement"},
		{"neutral", "Prepare to Roll", "Assess market conditions and decide next week"},
	}
	for _, tc := range cases {
		t.Run(tc.outlook, func(t *testing.T) {
			advice, err := svc.Rollover("exp-1", tc.outlook, now)
			require.NoError(t, err)

			assert.Equal(t, tc.recommendation, advice.Recommendation)
			assert.Equal(t, tc.action, advice.Action)
			assert.Equal(t, "Medium", advice.Urgency)
		})
	}
}

func TestRolloverImminentActions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := timePtr(now.Add(3 * 24 * time.Hour))

	cases := []struct {
		name string
		exp  *domain.Exposure
		want string
	}{
		{
			"forward rolls",
			&domain.Exposure{Amount: floatPtr(1_000_000), InstrumentType: domain.InstrumentForward, EndDate: end},
			"Roll the contract forward to maintain protection",
		},
		{
			"option exercises",
			&domain.Exposure{Amount: floatPtr(1_000_000), InstrumentType: domain.InstrumentOption, EndDate: end},
			"Exercise or replace the option before expiry",
		},
		{
			"spot rebooks",
			&domain.Exposure{Amount: floatPtr(1_000_000), InstrumentType: domain.InstrumentSpot, EndDate: end},
			"Book a new hedge to keep the exposure covered",
		},
		{
			"empty exposure matures",
			&domain.Exposure{EndDate: end},
			"Allow to mature if exposure has reduced",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.exp.ID = "exp-1"
			tc.exp.FromCurrency = "EUR"
			tc.exp.ToCurrency = "USD"
			svc, _ := setupHedging(t, map[string]*domain.Exposure{"exp-1": tc.exp})

			advice, err := svc.Rollover("exp-1", "neutral", now)
			require.NoError(t, err)

			assert.Equal(t, "Take Action Now", advice.Recommendation)
			assert.Equal(t, tc.want, advice.Action)
			assert.Equal(t, "High", advice.Urgency)
		})
	}
}

func TestRolloverValidation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := setupHedging(t, map[string]*domain.Exposure{
		"open-ended": {
			ID:           "open-ended",
			FromCurrency: "EUR",
			ToCurrency:   "USD",
			Amount:       floatPtr(1_000_000),
		},
	})

	_, err := svc.Rollover("open-ended", "sideways", now)
	assert.ErrorContains(t, err, "invalid market outlook")

	_, err = svc.Rollover("open-ended", "neutral", now)
	assert.ErrorContains(t, err, "no end date")

	advice, err := svc.Rollover("ghost", "neutral", now)
	require.NoError(t, err)
	assert.Nil(t, advice)
}
