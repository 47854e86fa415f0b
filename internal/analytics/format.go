package analytics

import (
	"fmt"
	"strings"
)

// Format holds the display-rendering conventions. It is injected into the
// exporter and binner rather than living as package constants, so callers
// can test and override renderings without a fixed presentation vocabulary.
type Format struct {
	CurrencyDecimals int    `json:"currency_decimals"`
	PercentDecimals  int    `json:"percent_decimals"`
	RateDecimals     int    `json:"rate_decimals"`
	ThousandsSuffix  string `json:"thousands_suffix"`
}

// DefaultFormat returns the dashboard conventions: whole-unit grouped
// currency, one-decimal percentages, four-decimal rates and K-scaled
// range labels.
func DefaultFormat() Format {
	return Format{
		CurrencyDecimals: 0,
		PercentDecimals:  1,
		RateDecimals:     4,
		ThousandsSuffix:  "K",
	}
}

// Currency renders a monetary value with digit grouping. In signed mode
// non-negative values carry an explicit leading +.
func (f Format) Currency(v float64, signed bool) string {
	s := groupDigits(fmt.Sprintf("%.*f", f.CurrencyDecimals, v))
	if signed && !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s
}

// Percent renders a percentage value. Signed mode is for change values
// such as rate-vs-budget moves.
func (f Format) Percent(v float64, signed bool) string {
	if signed {
		return fmt.Sprintf("%+.*f%%", f.PercentDecimals, v)
	}
	return fmt.Sprintf("%.*f%%", f.PercentDecimals, v)
}

// Rate renders an FX rate at fixed precision.
func (f Format) Rate(v float64) string {
	return fmt.Sprintf("%.*f", f.RateDecimals, v)
}

// Thousands renders a value scaled to thousands with the configured
// suffix and zero decimals.
func (f Format) Thousands(v float64) string {
	return fmt.Sprintf("%.0f%s", v/1000, f.ThousandsSuffix)
}

// RangeLabel renders a histogram bucket's bounds for display.
func (f Format) RangeLabel(start, end float64) string {
	return f.Thousands(start) + " to " + f.Thousands(end)
}

// groupDigits inserts comma separators into the integer part of an
// already-rendered decimal number.
func groupDigits(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot:]
	}

	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(intPart[i])
	}

	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
