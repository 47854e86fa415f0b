package utils

import (
	"fmt"
	"strings"
)

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
// Used to parse comma-separated currency pair lists from configuration.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// NormalizePair canonicalizes a currency pair to "EUR/USD" form.
// Accepts "EURUSD", "EUR/USD", "EUR-USD", "EUR USD" and lowercase variants.
// Returns an error when the input is not two three-letter currency codes.
func NormalizePair(s string) (string, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(s))
	for _, sep := range []string{"/", "-", " ", ":"} {
		cleaned = strings.ReplaceAll(cleaned, sep, "")
	}

	if len(cleaned) != 6 {
		return "", fmt.Errorf("invalid currency pair %q", s)
	}
	for _, r := range cleaned {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("invalid currency pair %q", s)
		}
	}

	return cleaned[:3] + "/" + cleaned[3:], nil
}

// SplitPair splits a canonical "EUR/USD" pair into its currency codes.
func SplitPair(pair string) (from, to string, err error) {
	normalized, err := NormalizePair(pair)
	if err != nil {
		return "", "", err
	}
	return normalized[:3], normalized[4:], nil
}
