package analytics

import "github.com/aristath/fxrisk/internal/domain"

// Deviation returns the raw fractional deviation of the current rate from
// the budget rate, (current - budget) / budget. The second return is false
// when either rate is absent or the budget rate is zero, in which case no
// deviation is defined.
func Deviation(e domain.Exposure) (float64, bool) {
	if e.BudgetRate == nil || e.CurrentRate == nil || *e.BudgetRate == 0 {
		return 0, false
	}
	return (*e.CurrentRate - *e.BudgetRate) / *e.BudgetRate, true
}

// UnfavorableDeviation orients the raw deviation by the exposure's
// direction. A payable (amount >= 0) is hurt by a rising rate, so the raw
// deviation is already unfavorable-positive. A receivable is hurt by a
// falling rate, so the sign flips. The second return is false when no
// deviation is defined.
func UnfavorableDeviation(e domain.Exposure) (float64, bool) {
	raw, ok := Deviation(e)
	if !ok {
		return 0, false
	}
	if !e.IsPayable() {
		raw = -raw
	}
	return raw, true
}

// Classify assigns an exposure its alert status against the given
// tolerances.
//
// Statuses are checked strictly in precedence order:
//
//	UNKNOWN    budget or current rate missing, or budget rate zero
//	BREACH     unfavorable deviation beyond the breach threshold
//	WARNING    unfavorable deviation beyond the warning threshold
//	TARGET_MET favorable deviation beyond the target threshold
//	OK         everything else
//
// The same rate move therefore classifies differently for a payable and a
// receivable of the same pair.
func Classify(e domain.Exposure, th Thresholds) domain.Status {
	unfavorable, ok := UnfavorableDeviation(e)
	if !ok {
		return domain.StatusUnknown
	}

	switch {
	case unfavorable > th.Breach:
		return domain.StatusBreach
	case unfavorable > th.Warning:
		return domain.StatusWarning
	case -unfavorable > th.Target:
		return domain.StatusTargetMet
	default:
		return domain.StatusOK
	}
}
