package hedging

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/aristath/fxrisk/internal/modules/rates"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubHistory struct {
	points []rates.RatePoint
	err    error
}

func (s *stubHistory) RecentRates(pair string, days int) ([]rates.RatePoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.points, nil
}

// alternatingSeries builds daily rates whose log returns flip between +step
// and -step, so the population stddev of any even window is exactly step.
func alternatingSeries(pair string, n int, step float64) []rates.RatePoint {
	points := make([]rates.RatePoint, n)
	rate := 1.0
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range points {
		points[i] = rates.RatePoint{Pair: pair, Date: day.AddDate(0, 0, i), Rate: rate}
		if i%2 == 0 {
			rate *= math.Exp(step)
		} else {
			rate *= math.Exp(-step)
		}
	}
	return points
}

func TestEstimateFromHistory(t *testing.T) {
	history := &stubHistory{points: alternatingSeries("EUR/USD", 121, 0.006)}
	estimator := NewVolatilityEstimator(history, zerolog.Nop())

	est := estimator.Estimate("EUR/USD")

	assert.Equal(t, "history", est.Source)
	assert.Equal(t, 120, est.Observations)
	assert.InDelta(t, 0.006*math.Sqrt(tradingDaysPerYear), est.Annualized, 1e-6)
}

func TestEstimateShortSeriesUsesFullWindow(t *testing.T) {
	// 21 points give 20 returns: enough to estimate, too few for the
	// rolling window. The sample stddev over all of them applies.
	history := &stubHistory{points: alternatingSeries("EUR/USD", 21, 0.01)}
	estimator := NewVolatilityEstimator(history, zerolog.Nop())

	est := estimator.Estimate("EUR/USD")

	expectedDaily := 0.01 * math.Sqrt(20.0/19.0)
	assert.Equal(t, "history", est.Source)
	assert.Equal(t, 20, est.Observations)
	assert.InDelta(t, expectedDaily*math.Sqrt(tradingDaysPerYear), est.Annualized, 1e-6)
}

func TestEstimateTooShortFallsBack(t *testing.T) {
	history := &stubHistory{points: alternatingSeries("EUR/USD", 5, 0.01)}
	estimator := NewVolatilityEstimator(history, zerolog.Nop())

	est := estimator.Estimate("EUR/USD")

	assert.Equal(t, "class_fallback", est.Source)
	assert.Equal(t, 4, est.Observations)
	assert.Equal(t, VolMajor, est.Annualized)
}

func TestEstimateHistoryErrorFallsBack(t *testing.T) {
	history := &stubHistory{err: fmt.Errorf("db gone")}
	estimator := NewVolatilityEstimator(history, zerolog.Nop())

	est := estimator.Estimate("USD/BRL")

	assert.Equal(t, "class_fallback", est.Source)
	assert.Equal(t, 0, est.Observations)
	assert.Equal(t, VolEmerging, est.Annualized)
}

func TestEstimateConstantRateFallsBack(t *testing.T) {
	points := make([]rates.RatePoint, 40)
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range points {
		points[i] = rates.RatePoint{Pair: "EUR/USD", Date: day.AddDate(0, 0, i), Rate: 1.1}
	}
	estimator := NewVolatilityEstimator(&stubHistory{points: points}, zerolog.Nop())

	est := estimator.Estimate("EUR/USD")

	assert.Equal(t, "class_fallback", est.Source)
	assert.Equal(t, VolMajor, est.Annualized)
}

func TestClassFallbacks(t *testing.T) {
	estimator := NewVolatilityEstimator(&stubHistory{}, zerolog.Nop())

	cases := []struct {
		pair string
		want float64
	}{
		{"EUR/USD", VolMajor},
		{"GBP/USD", VolMajor},
		{"AUD/USD", VolMajor}, // major list wins over the commodity class
		{"USD/BRL", VolEmerging},
		{"USD/TRY", VolEmerging},
		{"NZD/JPY", VolCommodity},
		{"USD/NOK", VolCommodity},
		{"EUR/SEK", VolDefault},
	}
	for _, tc := range cases {
		t.Run(tc.pair, func(t *testing.T) {
			est := estimator.Estimate(tc.pair)
			assert.Equal(t, "class_fallback", est.Source)
			assert.Equal(t, tc.want, est.Annualized)
		})
	}
}
