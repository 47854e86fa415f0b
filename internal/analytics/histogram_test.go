package analytics

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBin_EmptySample(t *testing.T) {
	bins := Bin(nil, 30, DefaultFormat())
	assert.Empty(t, bins)

	bins = Bin([]float64{}, 30, DefaultFormat())
	assert.Empty(t, bins)
}

func TestBin_SingleValue(t *testing.T) {
	bins := Bin([]float64{5}, 30, DefaultFormat())

	require.Len(t, bins, 1)
	assert.Equal(t, 1, bins[0].Count)
	assert.Equal(t, 5.0, bins[0].BinStart)
	assert.Equal(t, 5.0, bins[0].BinEnd)
}

func TestBin_IdenticalValuesCollapseToOneBin(t *testing.T) {
	bins := Bin([]float64{7, 7, 7, 7}, 30, DefaultFormat())

	require.Len(t, bins, 1, "zero-width range must not be divided")
	assert.Equal(t, 4, bins[0].Count)
}

func TestBin_CountsSumToSampleSize(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, size := range []int{1, 2, 29, 30, 31, 1000} {
		sample := make([]float64, size)
		for i := range sample {
			sample[i] = rng.NormFloat64() * 25_000
		}

		bins := Bin(sample, 30, DefaultFormat())

		total := 0
		for _, b := range bins {
			total += b.Count
		}
		assert.Equal(t, size, total, "sample size %d", size)
	}
}

func TestBin_MaximumValueLandsInLastBin(t *testing.T) {
	bins := Bin([]float64{0, 10}, 5, DefaultFormat())

	require.Len(t, bins, 5)
	assert.Equal(t, 1, bins[0].Count)
	assert.Equal(t, 1, bins[4].Count, "max value must clamp into the final bin")
	for _, b := range bins[1:4] {
		assert.Zero(t, b.Count)
	}
}

func TestBin_NonPositiveBinCountFallsBackToDefault(t *testing.T) {
	sample := []float64{0, 1, 2, 3}

	bins := Bin(sample, 0, DefaultFormat())
	assert.Len(t, bins, DefaultBins)

	bins = Bin(sample, -3, DefaultFormat())
	assert.Len(t, bins, DefaultBins)
}

func TestBin_RangeLabels(t *testing.T) {
	bins := Bin([]float64{0, 10_000}, 5, DefaultFormat())

	require.Len(t, bins, 5)
	assert.Equal(t, "0K to 2K", bins[0].RangeLabel)
	assert.Equal(t, "8K to 10K", bins[4].RangeLabel)
}

func TestBin_BoundsPartitionTheRange(t *testing.T) {
	bins := Bin([]float64{-10, -2, 0, 3, 50}, 6, DefaultFormat())

	require.Len(t, bins, 6)
	assert.Equal(t, -10.0, bins[0].BinStart)
	assert.Equal(t, 50.0, bins[5].BinEnd, "last bin must close exactly on the sample max")
	for i := 1; i < len(bins); i++ {
		assert.InDelta(t, bins[i-1].BinEnd, bins[i].BinStart, 1e-9, "bins must be contiguous")
	}
}
