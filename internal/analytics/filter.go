package analytics

import (
	"strings"
	"time"

	"github.com/aristath/fxrisk/internal/domain"
)

// Filter applies every present predicate of spec to exposures, AND-combined,
// preserving the original relative order. An empty spec keeps every element.
func Filter(exposures []domain.Exposure, spec FilterSpec) []domain.Exposure {
	filtered := make([]domain.Exposure, 0, len(exposures))
	for _, e := range exposures {
		if Matches(e, spec) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Matches reports whether a single exposure satisfies every present
// predicate field of spec. Absent fields impose no constraint.
func Matches(e domain.Exposure, spec FilterSpec) bool {
	if spec.CurrencyPair != "" && e.Pair() != spec.CurrencyPair {
		return false
	}
	if spec.MinAmount != nil && (e.Amount == nil || *e.Amount < *spec.MinAmount) {
		return false
	}
	if spec.MaxAmount != nil && (e.Amount == nil || *e.Amount > *spec.MaxAmount) {
		return false
	}
	if (spec.StartDate != nil || spec.EndDate != nil) && !overlapsDates(e, spec.StartDate, spec.EndDate) {
		return false
	}
	if spec.SearchText != "" && !matchesSearch(e, spec.SearchText) {
		return false
	}
	return true
}

// overlapsDates is an inclusive interval-overlap test between the requested
// bounds and the exposure's own dates. An exposure with only one date is
// treated as a point interval; one with no dates at all cannot satisfy a
// date predicate.
func overlapsDates(e domain.Exposure, from, to *time.Time) bool {
	start, end := e.StartDate, e.EndDate
	if start == nil {
		start = end
	}
	if end == nil {
		end = start
	}
	if start == nil {
		return false
	}
	if from != nil && end.Before(*from) {
		return false
	}
	if to != nil && start.After(*to) {
		return false
	}
	return true
}

// matchesSearch is a case-insensitive substring match against reference or
// description; either field matching is sufficient.
func matchesSearch(e domain.Exposure, text string) bool {
	needle := strings.ToLower(text)
	return strings.Contains(strings.ToLower(e.Reference), needle) ||
		strings.Contains(strings.ToLower(e.Description), needle)
}
