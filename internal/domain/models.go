// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"math"
	"time"
)

// InstrumentType represents the type of FX instrument backing an exposure
type InstrumentType string

const (
	InstrumentSpot    InstrumentType = "spot"
	InstrumentForward InstrumentType = "forward"
	InstrumentOption  InstrumentType = "option"
	InstrumentNDF     InstrumentType = "ndf"
	InstrumentSwap    InstrumentType = "swap"
)

// Status classifies an exposure's performance against policy tolerance.
// Exactly one status applies to an exposure at any time; it is derived on
// every pass and never stored.
type Status string

const (
	StatusBreach    Status = "BREACH"
	StatusWarning   Status = "WARNING"
	StatusTargetMet Status = "TARGET_MET"
	StatusOK        Status = "OK"
	StatusUnknown   Status = "UNKNOWN"
)

// RiskTolerance expresses how much rate risk a desk is willing to carry.
// Used by the hedging advisor to pick a hedge ratio.
type RiskTolerance string

const (
	RiskToleranceLow      RiskTolerance = "low"
	RiskToleranceModerate RiskTolerance = "moderate"
	RiskToleranceHigh     RiskTolerance = "high"
)

// Policy tier thresholds in USD-equivalent notional.
const (
	TierThreshold1M = 1_000_000.0
	TierThreshold5M = 5_000_000.0
)

// Exposure represents a single currency position: an amount in one currency
// that settles against another at a future date.
//
// Optional attributes are pointers so that "missing" stays distinguishable
// from zero. Amount is required, but it is a pointer too: records arrive from
// remote sources and CSV files where the field can be absent, and an absent
// amount must be rejected as malformed rather than coerced to 0.
type Exposure struct {
	ID           string `json:"id"`
	FromCurrency string `json:"from_currency"`
	ToCurrency   string `json:"to_currency"`

	// Amount is signed: >= 0 is a payable (a rate decrease is favorable),
	// < 0 is a receivable.
	Amount *float64 `json:"amount"`

	BudgetRate  *float64 `json:"budget_rate,omitempty"`
	CurrentRate *float64 `json:"current_rate,omitempty"`

	// HedgeRatioPolicy is the policy-assigned hedge fraction in [0,1].
	// Absent means fully hedged (1.0).
	HedgeRatioPolicy *float64 `json:"hedge_ratio_policy,omitempty"`
	// HedgeOverride marks a manually managed hedge; policy cascades skip it.
	HedgeOverride bool `json:"hedge_override,omitempty"`

	// HedgedAmount and UnhedgedAmount may be supplied by the source. When
	// both are present they sum to |amount * current_rate|.
	HedgedAmount   *float64 `json:"hedged_amount,omitempty"`
	UnhedgedAmount *float64 `json:"unhedged_amount,omitempty"`

	CurrentPnl *float64 `json:"current_pnl,omitempty"`

	InstrumentType       InstrumentType `json:"instrument_type,omitempty"`
	SettlementPeriodDays *int           `json:"settlement_period_days,omitempty"`
	StartDate            *time.Time     `json:"start_date,omitempty"`
	EndDate              *time.Time     `json:"end_date,omitempty"`

	Reference    string `json:"reference,omitempty"`
	Description  string `json:"description,omitempty"`
	Counterparty string `json:"counterparty,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Pair returns the exposure's currency pair in "FROM/TO" form.
func (e Exposure) Pair() string {
	return e.FromCurrency + "/" + e.ToCurrency
}

// IsPayable reports the exposure direction. Payables (amount >= 0) benefit
// from a falling rate; receivables (amount < 0) from a rising one.
func (e Exposure) IsPayable() bool {
	return e.Amount == nil || *e.Amount >= 0
}

// Magnitude returns the exposure's absolute notional in quote-currency
// terms: |amount * current_rate|, with a missing current rate counting as 1.
// Returns 0 for a record without an amount; callers validate first.
func (e Exposure) Magnitude() float64 {
	if e.Amount == nil {
		return 0
	}
	rate := 1.0
	if e.CurrentRate != nil {
		rate = *e.CurrentRate
	}
	return math.Abs(*e.Amount * rate)
}

// HedgeRatio returns the effective hedge fraction, defaulting to fully
// hedged when no policy ratio is set.
func (e Exposure) HedgeRatio() float64 {
	if e.HedgeRatioPolicy == nil {
		return 1.0
	}
	return *e.HedgeRatioPolicy
}

// Validate checks the minimum fields every consumer requires. Records that
// fail validation are excluded from aggregation and counted as skipped.
func (e Exposure) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("exposure missing id")
	}
	if e.FromCurrency == "" {
		return fmt.Errorf("exposure %s missing from_currency", e.ID)
	}
	if e.ToCurrency == "" {
		return fmt.Errorf("exposure %s missing to_currency", e.ID)
	}
	if e.Amount == nil {
		return fmt.Errorf("exposure %s missing amount", e.ID)
	}
	return nil
}

// RiskMetrics are the summary numbers the simulation service computes over a
// simulated P&L sample. They are passed through unchanged.
type RiskMetrics struct {
	Var95             float64 `json:"var_95"`
	Var99             float64 `json:"var_99"`
	ExpectedPnl       float64 `json:"expected_pnl"`
	MaxGain           float64 `json:"max_gain"`
	MaxLoss           float64 `json:"max_loss"`
	ProbabilityOfLoss float64 `json:"probability_of_loss"`
}

// SimulationResult is a completed Monte-Carlo run for one exposure: the raw
// outcome sample plus the upstream-computed risk metrics.
type SimulationResult struct {
	ExposureID      string      `json:"exposure_id"`
	TimeHorizonDays int         `json:"time_horizon_days"`
	SimulatedPnl    []float64   `json:"simulated_pnl"`
	RiskMetrics     RiskMetrics `json:"risk_metrics"`
}

// PolicyTiers holds the hedge ratios applied per exposure-size bucket.
// Buckets are keyed by USD-equivalent notional: >= 5M, 1M to 5M, under 1M.
type PolicyTiers struct {
	Over5M     float64 `json:"over_5m"`
	OneToFiveM float64 `json:"1m_to_5m"`
	Under1M    float64 `json:"under_1m"`
}

// RatioFor returns the tier ratio for a USD-equivalent notional.
func (t PolicyTiers) RatioFor(notionalUSD float64) float64 {
	switch {
	case notionalUSD >= TierThreshold5M:
		return t.Over5M
	case notionalUSD >= TierThreshold1M:
		return t.OneToFiveM
	default:
		return t.Under1M
	}
}
