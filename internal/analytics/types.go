// Package analytics is the portfolio risk analytics engine: a pure,
// synchronous computation layer that turns raw exposure records and raw
// Monte-Carlo outcomes into the classified, aggregated and binned structures
// the dashboard displays. Nothing in this package performs I/O, holds state
// between calls, or mutates its inputs, so every function is safe to invoke
// concurrently from multiple in-flight fetches.
package analytics

import "time"

// Thresholds are the policy tolerances the classifier evaluates an
// exposure's rate deviation against. Values are fractional deviations from
// the budget rate (0.05 = 5%).
type Thresholds struct {
	Breach  float64 `json:"breach"`
	Warning float64 `json:"warning"`
	Target  float64 `json:"target"`
}

// DefaultThresholds returns the tolerances used when the policy service has
// not configured any: breach beyond 5% unfavorable, warn beyond 2%, target
// met beyond 2% favorable.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Breach:  0.05,
		Warning: 0.02,
		Target:  0.02,
	}
}

// CurrencySlice is one currency's share of the portfolio mix.
type CurrencySlice struct {
	Currency string  `json:"currency"`
	Value    float64 `json:"value"`
}

// RateChangePoint is one exposure's current-rate deviation from its budget
// rate, in percent.
type RateChangePoint struct {
	ExposureID    string  `json:"exposure_id"`
	Pair          string  `json:"pair"`
	ChangePercent float64 `json:"change_percent"`
}

// SettlementPoint is one exposure's remaining days to settlement.
type SettlementPoint struct {
	ExposureID    string `json:"exposure_id"`
	Reference     string `json:"reference,omitempty"`
	DaysRemaining int    `json:"days_remaining"`
}

// Summary is the portfolio-level aggregate every dashboard view reads.
type Summary struct {
	TotalExposure      float64           `json:"total_exposure"`
	TotalPnl           float64           `json:"total_pnl"`
	HedgedValue        float64           `json:"hedged_value"`
	UnhedgedValue      float64           `json:"unhedged_value"`
	HedgePercent       float64           `json:"hedge_percent"`
	BreachCount        int               `json:"breach_count"`
	WarningCount       int               `json:"warning_count"`
	CurrencyMix        []CurrencySlice   `json:"currency_mix"`
	RateChanges        []RateChangePoint `json:"rate_changes"`
	SettlementTimeline []SettlementPoint `json:"settlement_timeline"`

	// SkippedRecords counts inputs rejected for missing required fields
	// (id, currencies, amount). They contribute to nothing above but are
	// never dropped without signal.
	SkippedRecords int `json:"skipped_records"`
}

// HistogramBin is one bucket of a simulated P&L frequency table. Bins cover
// [BinStart, BinEnd); together they partition [min(sample), max(sample)].
type HistogramBin struct {
	RangeLabel string  `json:"range_label"`
	BinStart   float64 `json:"bin_start"`
	BinEnd     float64 `json:"bin_end"`
	Count      int     `json:"count"`
}

// FilterSpec is the predicate configuration applied to an exposure list.
// Absent fields impose no constraint; present fields combine with AND.
type FilterSpec struct {
	CurrencyPair string     `json:"currency_pair,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	MinAmount    *float64   `json:"min_amount,omitempty"`
	MaxAmount    *float64   `json:"max_amount,omitempty"`
	SearchText   string     `json:"search_text,omitempty"`
}
