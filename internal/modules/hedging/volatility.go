package hedging

import (
	"math"
	"strings"

	"github.com/aristath/fxrisk/internal/modules/rates"
	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

const (
	tradingDaysPerYear = 252
	volLookbackDays    = 120 // calendar days of history requested per estimate
	volWindow          = 30  // rolling stddev window, in observations
	minObservations    = 10  // below this the class fallback applies
)

// Annualized volatility assumptions by pair class, used when the stored
// history is too short to estimate from returns.
const (
	VolMajor     = 0.08
	VolEmerging  = 0.15
	VolCommodity = 0.10
	VolDefault   = 0.10
)

var majorPairs = map[string]bool{
	"EUR/USD": true,
	"GBP/USD": true,
	"USD/JPY": true,
	"USD/CHF": true,
	"AUD/USD": true,
	"USD/CAD": true,
}

var (
	emergingCurrencies  = []string{"BRL", "MXN", "ZAR", "INR", "TRY"}
	commodityCurrencies = []string{"AUD", "NZD", "CAD", "NOK"}
)

// RateHistorySource is the slice of the rate history the estimator reads.
// Implemented by rates.History.
type RateHistorySource interface {
	RecentRates(pair string, days int) ([]rates.RatePoint, error)
}

// VolatilityEstimate is an annualized volatility for one currency pair,
// either measured from stored daily rates or assumed from the pair's class.
type VolatilityEstimate struct {
	Pair         string  `json:"pair"`
	Annualized   float64 `json:"annualized"`
	Observations int     `json:"observations"`
	Source       string  `json:"source"` // "history" or "class_fallback"
}

// VolatilityEstimator derives pair volatility from the daily rate history.
type VolatilityEstimator struct {
	history RateHistorySource
	log     zerolog.Logger
}

// NewVolatilityEstimator creates a new volatility estimator.
func NewVolatilityEstimator(history RateHistorySource, log zerolog.Logger) *VolatilityEstimator {
	return &VolatilityEstimator{
		history: history,
		log:     log.With().Str("component", "volatility").Logger(),
	}
}

// Estimate returns the annualized volatility for a pair. With enough stored
// history it is the stddev of daily log returns scaled by sqrt(252); with a
// short or unusable series it falls back to the pair-class assumption.
func (e *VolatilityEstimator) Estimate(pair string) VolatilityEstimate {
	points, err := e.history.RecentRates(pair, volLookbackDays)
	if err != nil {
		e.log.Warn().Err(err).Str("pair", pair).Msg("Rate history unavailable, using class fallback")
		return fallbackEstimate(pair)
	}

	returns := logReturns(points)
	if len(returns) < minObservations {
		est := fallbackEstimate(pair)
		est.Observations = len(returns)
		return est
	}

	var daily float64
	if len(returns) >= volWindow {
		// Rolling stddev; the last element covers the most recent window.
		rolling := talib.StdDev(returns, volWindow, 1.0)
		daily = rolling[len(rolling)-1]
	} else {
		daily = stat.StdDev(returns, nil)
	}

	if daily <= 0 || math.IsNaN(daily) {
		est := fallbackEstimate(pair)
		est.Observations = len(returns)
		return est
	}

	return VolatilityEstimate{
		Pair:         pair,
		Annualized:   daily * math.Sqrt(tradingDaysPerYear),
		Observations: len(returns),
		Source:       "history",
	}
}

// logReturns converts daily observations to log returns, dropping any step
// involving a non-positive rate.
func logReturns(points []rates.RatePoint) []float64 {
	if len(points) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1].Rate, points[i].Rate
		if prev <= 0 || cur <= 0 {
			continue
		}
		returns = append(returns, math.Log(cur/prev))
	}
	return returns
}

func fallbackEstimate(pair string) VolatilityEstimate {
	est := VolatilityEstimate{Pair: pair, Source: "class_fallback"}

	switch {
	case majorPairs[pair]:
		est.Annualized = VolMajor
	case containsAnyCurrency(pair, emergingCurrencies):
		est.Annualized = VolEmerging
	case containsAnyCurrency(pair, commodityCurrencies):
		est.Annualized = VolCommodity
	default:
		est.Annualized = VolDefault
	}

	return est
}

func containsAnyCurrency(pair string, currencies []string) bool {
	upper := strings.ToUpper(pair)
	for _, c := range currencies {
		if strings.Contains(upper, c) {
			return true
		}
	}
	return false
}
