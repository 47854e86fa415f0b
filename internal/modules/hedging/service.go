// Package hedging is the forward-contract advisor: hedge ratios sized from
// pair volatility and risk tolerance, rate-move scenario analysis, hedge P&L
// attribution, and rollover guidance for maturing contracts.
package hedging

import (
	"fmt"
	"math"
	"time"

	"github.com/aristath/fxrisk/internal/domain"
	"github.com/aristath/fxrisk/internal/modules/settings"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// Z-scores for the VaR confidence levels the advisor reports.
const (
	z95 = 1.645
	z99 = 2.326
)

const defaultHorizonDays = 90

// standardRatios are evaluated side by side in every recommendation.
var standardRatios = []float64{0.25, 0.50, 0.75, 1.00}

// scenarioMoves holds the fractional rate moves per scenario appetite.
var scenarioMoves = map[string][]float64{
	"conservative": {-0.05, -0.03, 0, 0.03, 0.05},
	"moderate":     {-0.10, -0.05, 0, 0.05, 0.10},
	"aggressive":   {-0.15, -0.10, -0.05, 0, 0.05, 0.10, 0.15},
}

// ExposureReader is the slice of the exposure repository the advisor needs.
// Defined here to avoid a dependency on the exposures package.
type ExposureReader interface {
	GetByID(id string) (*domain.Exposure, error)
}

// RecommendationRequest asks for a hedge ratio. Either name an exposure from
// the book or pass the position parameters directly.
type RecommendationRequest struct {
	ExposureID      string  `json:"exposure_id,omitempty"`
	Pair            string  `json:"pair,omitempty"`
	ExposureAmount  float64 `json:"exposure_amount,omitempty"`
	CurrentRate     float64 `json:"current_rate,omitempty"`
	TimeHorizonDays int     `json:"time_horizon_days,omitempty"`
	RiskTolerance   string  `json:"risk_tolerance,omitempty"`
	// Volatility overrides the estimator with an annualized figure in (0, 1].
	Volatility float64 `json:"volatility,omitempty"`
}

// RatioAnalysis is the outcome envelope for one candidate hedge ratio.
type RatioAnalysis struct {
	Ratio              float64 `json:"ratio"`
	HedgedAmount       float64 `json:"hedged_amount"`
	UnhedgedAmount     float64 `json:"unhedged_amount"`
	WorstCasePnl       float64 `json:"worst_case_pnl"`
	BestCasePnl        float64 `json:"best_case_pnl"`
	ExpectedPnl        float64 `json:"expected_pnl"`
	DownsideProtection float64 `json:"downside_protection"` // percent of notional covered
}

// Recommendation is the advisor's answer: a ratio, the VaR figures behind it,
// and the outcome table across the standard ratios.
type Recommendation struct {
	Pair               string             `json:"pair,omitempty"`
	RecommendedRatio   float64            `json:"recommended_ratio"`
	ConfidenceLevel    int                `json:"confidence_level"`
	Var95              float64            `json:"var_95"` // worst-case rate move, 95% confidence
	Var99              float64            `json:"var_99"`
	TimeHorizonDays    int                `json:"time_horizon_days"`
	AdjustedVolatility float64            `json:"adjusted_volatility"` // scaled to the horizon
	Volatility         VolatilityEstimate `json:"volatility"`
	Analysis           []RatioAnalysis    `json:"analysis"`
	Rationale          string             `json:"rationale"`
}

// ScenarioRequest runs rate-move scenarios against a position.
type ScenarioRequest struct {
	ExposureID     string   `json:"exposure_id,omitempty"`
	ExposureAmount float64  `json:"exposure_amount,omitempty"`
	CurrentRate    float64  `json:"current_rate,omitempty"`
	HedgeRatio     *float64 `json:"hedge_ratio,omitempty"`
	ScenarioType   string   `json:"scenario_type,omitempty"`
}

// ScenarioOutcome is the P&L of one rate move, with and without the hedge.
type ScenarioOutcome struct {
	RateChangePct float64 `json:"rate_change_pct"`
	NewRate       float64 `json:"new_rate"`
	UnhedgedPnl   float64 `json:"unhedged_pnl"`
	HedgedPnl     float64 `json:"hedged_pnl"`
	HedgeBenefit  float64 `json:"hedge_benefit"`
	Severity      string  `json:"severity"`
}

// ScenarioSummary aggregates the outcomes of one scenario run.
type ScenarioSummary struct {
	WorstCaseHedged   float64 `json:"worst_case_hedged"`
	BestCaseHedged    float64 `json:"best_case_hedged"`
	WorstCaseUnhedged float64 `json:"worst_case_unhedged"`
	BestCaseUnhedged  float64 `json:"best_case_unhedged"`
	AvgHedged         float64 `json:"avg_hedged"`
	AvgUnhedged       float64 `json:"avg_unhedged"`
	TotalScenarios    int     `json:"total_scenarios"`
}

// ScenarioReport is a full scenario run.
type ScenarioReport struct {
	ScenarioType   string            `json:"scenario_type"`
	HedgeRatio     float64           `json:"hedge_ratio"`
	CurrentRate    float64           `json:"current_rate"`
	ExposureAmount float64           `json:"exposure_amount"`
	Outcomes       []ScenarioOutcome `json:"outcomes"`
	Summary        ScenarioSummary   `json:"summary"`
}

// PnLRequest attributes P&L to a hedge already in place.
type PnLRequest struct {
	ExposureID     string   `json:"exposure_id,omitempty"`
	ExposureAmount float64  `json:"exposure_amount,omitempty"`
	ContractRate   float64  `json:"contract_rate,omitempty"`
	CurrentRate    float64  `json:"current_rate,omitempty"`
	HedgeRatio     *float64 `json:"hedge_ratio,omitempty"`
}

// PnLImpact breaks a position's P&L into hedged and unhedged views.
type PnLImpact struct {
	HedgedAmount      float64 `json:"hedged_amount"`
	UnhedgedAmount    float64 `json:"unhedged_amount"`
	ContractRate      float64 `json:"contract_rate"`
	CurrentRate       float64 `json:"current_rate"`
	RateDifference    float64 `json:"rate_difference"`
	RateDifferencePct float64 `json:"rate_difference_pct"`
	UnhedgedPnl       float64 `json:"unhedged_pnl"` // the full position left unhedged
	HedgedPnl         float64 `json:"hedged_pnl"`   // the position with the hedge in place
	OpportunityImpact float64 `json:"opportunity_impact"`
	Effectiveness     string  `json:"effectiveness"`
}

// Strategy is one labeled hedge ratio in a comparison run.
type Strategy struct {
	Label      string  `json:"label,omitempty"`
	HedgeRatio float64 `json:"hedge_ratio"`
}

// CompareRequest runs the same scenario set against several hedge ratios.
type CompareRequest struct {
	ExposureID     string     `json:"exposure_id,omitempty"`
	ExposureAmount float64    `json:"exposure_amount,omitempty"`
	CurrentRate    float64    `json:"current_rate,omitempty"`
	Strategies     []Strategy `json:"strategies"`
	ScenarioType   string     `json:"scenario_type,omitempty"`
}

// StrategyComparison is one strategy's scenario run in a comparison.
type StrategyComparison struct {
	Label      string            `json:"label"`
	HedgeRatio float64           `json:"hedge_ratio"`
	Outcomes   []ScenarioOutcome `json:"outcomes"`
	Summary    ScenarioSummary   `json:"summary"`
}

// RolloverAdvice says what to do with a hedge approaching maturity.
type RolloverAdvice struct {
	ExposureID     string `json:"exposure_id"`
	DaysToMaturity int    `json:"days_to_maturity"`
	MaturityDate   string `json:"maturity_date"`
	Recommendation string `json:"recommendation"`
	Action         string `json:"action"`
	MarketOutlook  string `json:"market_outlook"`
	Urgency        string `json:"urgency"`
}

// Service is the hedging advisor.
type Service struct {
	exposures  ExposureReader
	rates      domain.RateSource
	volatility *VolatilityEstimator
	settings   *settings.Service
	log        zerolog.Logger
}

// NewService creates a new hedging service.
func NewService(exposures ExposureReader, rates domain.RateSource, volatility *VolatilityEstimator, settingsService *settings.Service, log zerolog.Logger) *Service {
	return &Service{
		exposures:  exposures,
		rates:      rates,
		volatility: volatility,
		settings:   settingsService,
		log:        log.With().Str("service", "hedging").Logger(),
	}
}

// resolved carries a request's position inputs after exposure lookup and
// defaulting.
type resolved struct {
	exposure *domain.Exposure
	pair     string
	amount   float64
	rate     float64
}

// resolve turns an exposure id or raw position parameters into concrete
// inputs. Returns nil without error when the named exposure does not exist.
func (s *Service) resolve(exposureID, pair string, amount, rate float64) (*resolved, error) {
	if exposureID != "" {
		exp, err := s.exposures.GetByID(exposureID)
		if err != nil {
			return nil, err
		}
		if exp == nil {
			return nil, nil
		}
		if exp.Amount == nil {
			return nil, fmt.Errorf("exposure %s has no amount", exposureID)
		}

		r := &resolved{exposure: exp, pair: exp.Pair(), amount: *exp.Amount}
		if exp.CurrentRate != nil {
			r.rate = *exp.CurrentRate
		} else {
			live, err := s.rates.GetRate(exp.FromCurrency, exp.ToCurrency)
			if err != nil {
				return nil, fmt.Errorf("no current rate for %s: %w", r.pair, err)
			}
			r.rate = live
		}
		return r, nil
	}

	if amount == 0 {
		return nil, fmt.Errorf("exposure_amount is required")
	}
	if rate <= 0 {
		return nil, fmt.Errorf("current_rate is required")
	}
	return &resolved{pair: pair, amount: amount, rate: rate}, nil
}

// Recommend sizes a hedge for one position. Returns nil without error when
// the named exposure does not exist.
func (s *Service) Recommend(req RecommendationRequest) (*Recommendation, error) {
	if req.Volatility < 0 || req.Volatility > 1 {
		return nil, fmt.Errorf("volatility must be in (0, 1], got %v", req.Volatility)
	}
	if req.TimeHorizonDays < 0 || req.TimeHorizonDays > 365 {
		return nil, fmt.Errorf("time_horizon_days must be between 1 and 365, got %d", req.TimeHorizonDays)
	}

	pos, err := s.resolve(req.ExposureID, req.Pair, req.ExposureAmount, req.CurrentRate)
	if err != nil || pos == nil {
		return nil, err
	}

	tolerance := domain.RiskTolerance(req.RiskTolerance)
	if tolerance == "" {
		tolerance = domain.RiskTolerance(s.settings.RiskTolerance())
	}
	if tolerance != domain.RiskToleranceLow && tolerance != domain.RiskToleranceModerate && tolerance != domain.RiskToleranceHigh {
		return nil, fmt.Errorf("invalid risk tolerance: %s", tolerance)
	}

	horizon := req.TimeHorizonDays
	if horizon == 0 {
		horizon = s.horizonFor(pos.exposure)
	}

	var estimate VolatilityEstimate
	if req.Volatility > 0 {
		estimate = VolatilityEstimate{Pair: pos.pair, Annualized: req.Volatility, Source: "request"}
	} else {
		if pos.pair == "" {
			return nil, fmt.Errorf("volatility or pair is required")
		}
		estimate = s.volatility.Estimate(pos.pair)
	}

	// Scale the annualized figure down to the hedge horizon.
	adjVol := estimate.Annualized * math.Sqrt(float64(horizon)/365.0)
	var95 := pos.rate * adjVol * z95
	var99 := pos.rate * adjVol * z99

	var ratio float64
	var confidence int
	switch tolerance {
	case domain.RiskToleranceLow:
		ratio = 1.0
		confidence = 99
	case domain.RiskToleranceModerate:
		// Hedge the fraction of the notional at risk at 95% confidence.
		ratio = math.Min(0.75, adjVol*z95)
		confidence = 95
	default:
		ratio = 0.5
		confidence = 90
	}
	ratio = math.Round(ratio*100) / 100

	notional := math.Abs(pos.amount)
	analysis := make([]RatioAnalysis, 0, len(standardRatios))
	for _, r := range standardRatios {
		analysis = append(analysis, analyzeRatio(r, notional, pos.rate, adjVol))
	}

	rec := &Recommendation{
		Pair:               pos.pair,
		RecommendedRatio:   ratio,
		ConfidenceLevel:    confidence,
		Var95:              var95,
		Var99:              var99,
		TimeHorizonDays:    horizon,
		AdjustedVolatility: adjVol,
		Volatility:         estimate,
		Analysis:           analysis,
		Rationale:          rationale(ratio, string(tolerance), adjVol),
	}

	s.log.Debug().
		Str("pair", pos.pair).
		Float64("ratio", ratio).
		Str("tolerance", string(tolerance)).
		Int("horizon_days", horizon).
		Msg("Hedge ratio recommended")
	return rec, nil
}

// horizonFor derives a hedge horizon from the exposure's own dates, capped
// at a year.
func (s *Service) horizonFor(exp *domain.Exposure) int {
	if exp == nil {
		return defaultHorizonDays
	}

	days := 0
	if exp.EndDate != nil {
		days = int(math.Ceil(exp.EndDate.Sub(time.Now().UTC()).Hours() / 24))
	} else if exp.SettlementPeriodDays != nil {
		days = *exp.SettlementPeriodDays
	}

	if days <= 0 {
		return defaultHorizonDays
	}
	if days > 365 {
		return 365
	}
	return days
}

// analyzeRatio computes the symmetric one-sigma outcome envelope for one
// candidate ratio. The hedged slice is locked, so only the residual floats.
func analyzeRatio(ratio, notional, rate, adjVol float64) RatioAnalysis {
	hedged := notional * ratio
	unhedged := notional * (1 - ratio)

	down := unhedged * rate * -adjVol
	up := unhedged * rate * adjVol

	return RatioAnalysis{
		Ratio:              ratio,
		HedgedAmount:       hedged,
		UnhedgedAmount:     unhedged,
		WorstCasePnl:       math.Min(down, up),
		BestCasePnl:        math.Max(down, up),
		ExpectedPnl:        (down + up) / 2,
		DownsideProtection: ratio * 100,
	}
}

func rationale(ratio float64, tolerance string, adjVol float64) string {
	ratioPct := int(math.Round(ratio * 100))
	volPct := int(math.Round(adjVol * 100))

	switch {
	case ratio >= 0.9:
		return fmt.Sprintf("Full hedge (%d%%) recommended due to %s risk tolerance and %d%% expected volatility. This provides maximum protection against adverse rate movements.", ratioPct, tolerance, volPct)
	case ratio >= 0.65:
		return fmt.Sprintf("Substantial hedge (%d%%) recommended to balance protection with flexibility. With %d%% volatility, this covers most downside risk while allowing some upside participation.", ratioPct, volPct)
	case ratio >= 0.4:
		return fmt.Sprintf("Moderate hedge (%d%%) recommended for a balanced approach. Provides partial protection against the %d%% expected volatility while maintaining upside potential.", ratioPct, volPct)
	default:
		return fmt.Sprintf("Minimal hedge (%d%%) recommended due to %s risk tolerance and willingness to accept volatility exposure for potential gains.", ratioPct, tolerance)
	}
}

// Scenarios runs the configured rate moves against a position. Returns nil
// without error when the named exposure does not exist.
func (s *Service) Scenarios(req ScenarioRequest) (*ScenarioReport, error) {
	pos, err := s.resolve(req.ExposureID, "", req.ExposureAmount, req.CurrentRate)
	if err != nil || pos == nil {
		return nil, err
	}

	ratio, err := resolveRatio(req.HedgeRatio, pos.exposure)
	if err != nil {
		return nil, err
	}

	scenarioType := req.ScenarioType
	moves, ok := scenarioMoves[scenarioType]
	if !ok {
		scenarioType = "moderate"
		moves = scenarioMoves[scenarioType]
	}

	outcomes := runScenarios(pos.amount, pos.rate, ratio, moves)

	return &ScenarioReport{
		ScenarioType:   scenarioType,
		HedgeRatio:     ratio,
		CurrentRate:    pos.rate,
		ExposureAmount: pos.amount,
		Outcomes:       outcomes,
		Summary:        summarize(outcomes),
	}, nil
}

// resolveRatio picks the hedge ratio for a scenario or P&L run: the explicit
// request value, the exposure's effective ratio, or unhedged.
func resolveRatio(requested *float64, exp *domain.Exposure) (float64, error) {
	if requested != nil {
		if *requested < 0 || *requested > 1 {
			return 0, fmt.Errorf("hedge ratio must be between 0 and 1, got %v", *requested)
		}
		return *requested, nil
	}
	if exp != nil {
		return exp.HedgeRatio(), nil
	}
	return 0, nil
}

func runScenarios(amount, rate, ratio float64, moves []float64) []ScenarioOutcome {
	outcomes := make([]ScenarioOutcome, 0, len(moves))
	for _, chg := range moves {
		newRate := rate * (1 + chg)
		unhedged := amount * (newRate - rate)
		hedged := amount * (1 - ratio) * (newRate - rate)

		outcomes = append(outcomes, ScenarioOutcome{
			RateChangePct: chg * 100,
			NewRate:       newRate,
			UnhedgedPnl:   unhedged,
			HedgedPnl:     hedged,
			HedgeBenefit:  unhedged - hedged,
			Severity:      classifyMove(chg),
		})
	}
	return outcomes
}

// classifyMove names a rate move by size and direction.
func classifyMove(chg float64) string {
	switch {
	case chg <= -0.10:
		return "Severe Adverse"
	case chg <= -0.05:
		return "Moderate Adverse"
	case chg < 0:
		return "Mild Adverse"
	case chg == 0:
		return "No Change"
	case chg <= 0.05:
		return "Mild Favorable"
	case chg <= 0.10:
		return "Moderate Favorable"
	default:
		return "Severe Favorable"
	}
}

func summarize(outcomes []ScenarioOutcome) ScenarioSummary {
	if len(outcomes) == 0 {
		return ScenarioSummary{}
	}

	hedged := make([]float64, len(outcomes))
	unhedged := make([]float64, len(outcomes))
	for i, o := range outcomes {
		hedged[i] = o.HedgedPnl
		unhedged[i] = o.UnhedgedPnl
	}

	summary := ScenarioSummary{
		WorstCaseHedged:   hedged[0],
		BestCaseHedged:    hedged[0],
		WorstCaseUnhedged: unhedged[0],
		BestCaseUnhedged:  unhedged[0],
		AvgHedged:         stat.Mean(hedged, nil),
		AvgUnhedged:       stat.Mean(unhedged, nil),
		TotalScenarios:    len(outcomes),
	}
	for i := 1; i < len(outcomes); i++ {
		summary.WorstCaseHedged = math.Min(summary.WorstCaseHedged, hedged[i])
		summary.BestCaseHedged = math.Max(summary.BestCaseHedged, hedged[i])
		summary.WorstCaseUnhedged = math.Min(summary.WorstCaseUnhedged, unhedged[i])
		summary.BestCaseUnhedged = math.Max(summary.BestCaseUnhedged, unhedged[i])
	}
	return summary
}

// PnL attributes a position's P&L between the hedged and unhedged views.
// Returns nil without error when the named exposure does not exist.
func (s *Service) PnL(req PnLRequest) (*PnLImpact, error) {
	pos, err := s.resolve(req.ExposureID, "", req.ExposureAmount, req.CurrentRate)
	if err != nil || pos == nil {
		return nil, err
	}

	contract := req.ContractRate
	if contract == 0 && pos.exposure != nil && pos.exposure.BudgetRate != nil {
		// The rate fixed at creation is the contract baseline when none given.
		contract = *pos.exposure.BudgetRate
	}
	if contract <= 0 {
		return nil, fmt.Errorf("contract_rate is required")
	}

	ratio, err := resolveRatio(req.HedgeRatio, pos.exposure)
	if err != nil {
		return nil, err
	}

	delta := pos.rate - contract
	unhedgedPnl := pos.amount * delta
	hedgedPnl := pos.amount * (1 - ratio) * delta
	notional := math.Abs(pos.amount)

	return &PnLImpact{
		HedgedAmount:      notional * ratio,
		UnhedgedAmount:    notional * (1 - ratio),
		ContractRate:      contract,
		CurrentRate:       pos.rate,
		RateDifference:    delta,
		RateDifferencePct: delta / contract * 100,
		UnhedgedPnl:       unhedgedPnl,
		HedgedPnl:         hedgedPnl,
		OpportunityImpact: hedgedPnl - unhedgedPnl,
		Effectiveness:     effectiveness(hedgedPnl-unhedgedPnl, unhedgedPnl),
	}, nil
}

// effectiveness grades how much of the unhedged move the hedge neutralized.
// hedgePnl is the contract leg alone; a working hedge moves against the
// position.
func effectiveness(hedgePnl, unhedgedPnl float64) string {
	if unhedgedPnl == 0 {
		return "Neutral"
	}

	pct := math.Abs(hedgePnl/unhedgedPnl) * 100
	if hedgePnl*unhedgedPnl < 0 {
		switch {
		case pct >= 90:
			return "Highly Effective"
		case pct >= 70:
			return "Effective"
		default:
			return "Partially Effective"
		}
	}
	return "Ineffective"
}

// Compare runs the same scenario set against several candidate strategies.
// Returns nil without error when the named exposure does not exist.
func (s *Service) Compare(req CompareRequest) ([]StrategyComparison, error) {
	if len(req.Strategies) == 0 {
		return nil, fmt.Errorf("at least one strategy is required")
	}

	pos, err := s.resolve(req.ExposureID, "", req.ExposureAmount, req.CurrentRate)
	if err != nil || pos == nil {
		return nil, err
	}

	scenarioType := req.ScenarioType
	moves, ok := scenarioMoves[scenarioType]
	if !ok {
		scenarioType = "moderate"
		moves = scenarioMoves[scenarioType]
	}

	comparisons := make([]StrategyComparison, 0, len(req.Strategies))
	for _, strategy := range req.Strategies {
		if strategy.HedgeRatio < 0 || strategy.HedgeRatio > 1 {
			return nil, fmt.Errorf("hedge ratio must be between 0 and 1, got %v", strategy.HedgeRatio)
		}

		label := strategy.Label
		if label == "" {
			label = fmt.Sprintf("%.0f%% Hedge", strategy.HedgeRatio*100)
		}

		outcomes := runScenarios(pos.amount, pos.rate, strategy.HedgeRatio, moves)
		comparisons = append(comparisons, StrategyComparison{
			Label:      label,
			HedgeRatio: strategy.HedgeRatio,
			Outcomes:   outcomes,
			Summary:    summarize(outcomes),
		})
	}

	return comparisons, nil
}

// Volatility exposes the estimator for one pair.
func (s *Service) Volatility(pair string) VolatilityEstimate {
	return s.volatility.Estimate(pair)
}

// Rollover advises on a hedge approaching maturity. Returns nil without
// error when the exposure does not exist.
func (s *Service) Rollover(exposureID, outlook string, now time.Time) (*RolloverAdvice, error) {
	if outlook == "" {
		outlook = "neutral"
	}
	if outlook != "bullish" && outlook != "neutral" && outlook != "bearish" {
		return nil, fmt.Errorf("invalid market outlook: %s", outlook)
	}

	exp, err := s.exposures.GetByID(exposureID)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, nil
	}
	if exp.EndDate == nil {
		return nil, fmt.Errorf("exposure %s has no end date", exposureID)
	}

	days := int(math.Ceil(exp.EndDate.Sub(now).Hours() / 24))

	var recommendation, action string
	switch {
	case days > 30:
		recommendation = "Monitor"
		action = "Review 30 days before maturity"
	case days > 7:
		switch outlook {
		case "bearish":
			recommendation = "Roll Over Early"
			action = "Lock in current rates before further deterioration"
		case "bullish":
			recommendation = "Let Mature"
			action = "Wait for potential rate improvement"
		default:
			recommendation = "Prepare to Roll"
			action = "Assess market conditions and decide next week"
		}
	default:
		recommendation = "Take Action Now"
		action = maturityAction(exp)
	}

	urgency := "Low"
	switch {
	case days <= 7:
		urgency = "High"
	case days <= 30:
		urgency = "Medium"
	}

	return &RolloverAdvice{
		ExposureID:     exposureID,
		DaysToMaturity: days,
		MaturityDate:   exp.EndDate.Format("2006-01-02"),
		Recommendation: recommendation,
		Action:         action,
		MarketOutlook:  outlook,
		Urgency:        urgency,
	}, nil
}

// maturityAction picks the instrument-appropriate step when maturity is
// imminent.
func maturityAction(exp *domain.Exposure) string {
	if exp.Amount == nil || *exp.Amount == 0 {
		return "Allow to mature if exposure has reduced"
	}

	switch exp.InstrumentType {
	case domain.InstrumentForward, domain.InstrumentNDF, domain.InstrumentSwap:
		return "Roll the contract forward to maintain protection"
	case domain.InstrumentOption:
		return "Exercise or replace the option before expiry"
	default:
		return "Book a new hedge to keep the exposure covered"
	}
}
