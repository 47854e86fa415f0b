package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/fxrisk/internal/domain"
)

// RateChangeDescending is the display order of the rate-change series:
// largest move first. Centralized here so the ordering is testable on its
// own rather than buried in call sites.
func RateChangeDescending(a, b RateChangePoint) bool {
	return a.ChangePercent > b.ChangePercent
}

// SettlementAscending is the display order of the settlement timeline:
// soonest settlement first.
func SettlementAscending(a, b SettlementPoint) bool {
	return a.DaysRemaining < b.DaysRemaining
}

// Aggregate folds a set of exposures into the portfolio summary in one
// deterministic pass. Input records are never mutated. Records failing
// validation (missing id, currencies or amount) contribute only to
// SkippedRecords; optional fields degrade per field rather than rejecting
// the record.
//
// now is injected so settlement arithmetic stays reproducible in tests.
func Aggregate(exposures []domain.Exposure, th Thresholds, now time.Time) Summary {
	summary := Summary{
		CurrencyMix:        []CurrencySlice{},
		RateChanges:        []RateChangePoint{},
		SettlementTimeline: []SettlementPoint{},
	}
	mix := make(map[string]float64)

	var hedged, unhedged float64
	for _, e := range exposures {
		if err := e.Validate(); err != nil {
			summary.SkippedRecords++
			continue
		}

		magnitude := e.Magnitude()
		mix[e.FromCurrency] += magnitude
		summary.TotalExposure += magnitude

		if e.CurrentPnl != nil {
			summary.TotalPnl += *e.CurrentPnl
		}

		// Prefer supplied splits; derive the rest from the policy ratio.
		recordHedged := e.HedgeRatio() * magnitude
		if e.HedgedAmount != nil {
			recordHedged = *e.HedgedAmount
		}
		recordUnhedged := magnitude - recordHedged
		if e.UnhedgedAmount != nil {
			recordUnhedged = *e.UnhedgedAmount
		}
		hedged += recordHedged
		unhedged += recordUnhedged

		switch Classify(e, th) {
		case domain.StatusBreach:
			summary.BreachCount++
		case domain.StatusWarning:
			summary.WarningCount++
		}

		if raw, ok := Deviation(e); ok {
			summary.RateChanges = append(summary.RateChanges, RateChangePoint{
				ExposureID:    e.ID,
				Pair:          e.Pair(),
				ChangePercent: raw * 100,
			})
		}

		if e.StartDate != nil && e.EndDate != nil {
			days := int(math.Ceil(e.EndDate.Sub(now).Hours() / 24))
			if days < 0 {
				days = 0
			}
			summary.SettlementTimeline = append(summary.SettlementTimeline, SettlementPoint{
				ExposureID:    e.ID,
				Reference:     e.Reference,
				DaysRemaining: days,
			})
		}
	}

	summary.HedgedValue = hedged
	summary.UnhedgedValue = unhedged
	if summary.TotalExposure > 0 {
		summary.HedgePercent = hedged / summary.TotalExposure * 100
	}

	currencies := make([]string, 0, len(mix))
	for currency := range mix {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)
	for _, currency := range currencies {
		summary.CurrencyMix = append(summary.CurrencyMix, CurrencySlice{
			Currency: currency,
			Value:    mix[currency],
		})
	}

	sort.SliceStable(summary.RateChanges, func(i, j int) bool {
		return RateChangeDescending(summary.RateChanges[i], summary.RateChanges[j])
	})
	sort.SliceStable(summary.SettlementTimeline, func(i, j int) bool {
		return SettlementAscending(summary.SettlementTimeline[i], summary.SettlementTimeline[j])
	})

	return summary
}
