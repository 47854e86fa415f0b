package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fxrisk/internal/domain"
)

func TestClassify_PrecedenceOrder(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name     string
		exposure domain.Exposure
		expected domain.Status
	}{
		{
			name:     "missing budget rate is unknown",
			exposure: domain.Exposure{Amount: floatPtr(1000), CurrentRate: floatPtr(1.05)},
			expected: domain.StatusUnknown,
		},
		{
			name:     "missing current rate is unknown",
			exposure: domain.Exposure{Amount: floatPtr(1000), BudgetRate: floatPtr(1.10)},
			expected: domain.StatusUnknown,
		},
		{
			name:     "zero budget rate is unknown, not a division error",
			exposure: domain.Exposure{Amount: floatPtr(1000), BudgetRate: floatPtr(0), CurrentRate: floatPtr(1.05)},
			expected: domain.StatusUnknown,
		},
		{
			name:     "payable with rate up beyond breach threshold",
			exposure: domain.Exposure{Amount: floatPtr(1000), BudgetRate: floatPtr(1.00), CurrentRate: floatPtr(1.06)},
			expected: domain.StatusBreach,
		},
		{
			name:     "payable with rate up between warning and breach",
			exposure: domain.Exposure{Amount: floatPtr(1000), BudgetRate: floatPtr(1.00), CurrentRate: floatPtr(1.03)},
			expected: domain.StatusWarning,
		},
		{
			name:     "payable with rate down beyond target threshold",
			exposure: domain.Exposure{Amount: floatPtr(1000), BudgetRate: floatPtr(1.00), CurrentRate: floatPtr(0.97)},
			expected: domain.StatusTargetMet,
		},
		{
			name:     "payable with rate inside all tolerances",
			exposure: domain.Exposure{Amount: floatPtr(1000), BudgetRate: floatPtr(1.00), CurrentRate: floatPtr(1.01)},
			expected: domain.StatusOK,
		},
		{
			name:     "receivable with rate down beyond breach threshold",
			exposure: domain.Exposure{Amount: floatPtr(-1000), BudgetRate: floatPtr(1.00), CurrentRate: floatPtr(0.94)},
			expected: domain.StatusBreach,
		},
		{
			name:     "receivable with rate up beyond target threshold",
			exposure: domain.Exposure{Amount: floatPtr(-1000), BudgetRate: floatPtr(1.00), CurrentRate: floatPtr(1.03)},
			expected: domain.StatusTargetMet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.exposure, th))
		})
	}
}

// A payable and a receivable of the same pair must classify to opposite-sign
// outcomes for the same rate move: 1.10 -> 1.05 is a favorable drop for the
// payer and an unfavorable one for the receiver.
func TestClassify_DirectionFlipsOutcome(t *testing.T) {
	th := DefaultThresholds()

	payable := domain.Exposure{
		ID:           "exp-1",
		FromCurrency: "EUR",
		ToCurrency:   "USD",
		Amount:       floatPtr(1_000_000),
		BudgetRate:   floatPtr(1.10),
		CurrentRate:  floatPtr(1.05),
	}
	receivable := payable
	receivable.Amount = floatPtr(-1_000_000)

	assert.Equal(t, domain.StatusTargetMet, Classify(payable, th))
	assert.Equal(t, domain.StatusWarning, Classify(receivable, th))
}

func TestClassify_IsDeterministic(t *testing.T) {
	th := DefaultThresholds()
	e := domain.Exposure{
		Amount:      floatPtr(5000),
		BudgetRate:  floatPtr(1.2345),
		CurrentRate: floatPtr(1.2991),
	}

	first := Classify(e, th)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(e, th))
	}
}

func TestDeviation(t *testing.T) {
	e := domain.Exposure{BudgetRate: floatPtr(1.10), CurrentRate: floatPtr(1.05)}

	raw, ok := Deviation(e)
	require.True(t, ok)
	assert.InDelta(t, -0.04545, raw, 0.0001)

	_, ok = Deviation(domain.Exposure{CurrentRate: floatPtr(1.05)})
	assert.False(t, ok)

	_, ok = Deviation(domain.Exposure{BudgetRate: floatPtr(0), CurrentRate: floatPtr(1.05)})
	assert.False(t, ok, "zero budget rate must not produce a deviation")
}

func TestUnfavorableDeviation_SignByDirection(t *testing.T) {
	payable := domain.Exposure{
		Amount:      floatPtr(100),
		BudgetRate:  floatPtr(1.00),
		CurrentRate: floatPtr(1.04),
	}
	receivable := payable
	receivable.Amount = floatPtr(-100)

	up, ok := UnfavorableDeviation(payable)
	require.True(t, ok)
	down, ok := UnfavorableDeviation(receivable)
	require.True(t, ok)

	assert.InDelta(t, 0.04, up, 1e-9, "rate increase hurts the payer")
	assert.InDelta(t, -0.04, down, 1e-9, "the same move helps the receiver")
}

func floatPtr(f float64) *float64 {
	return &f
}

func timePtr(t time.Time) *time.Time {
	return &t
}
