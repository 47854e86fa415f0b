package analytics

// DefaultBins is the bin count used when the caller does not ask for a
// specific resolution.
const DefaultBins = 30

// Bin buckets a simulated P&L sample into numBins fixed-width frequency
// bins spanning [min(sample), max(sample)]. The maximum value is clamped
// into the last bin rather than falling one past the end, so the counts
// always sum to len(sample).
//
// An empty sample yields an empty slice. A sample with a single distinct
// value yields a single bin holding the full count; there is no zero-width
// division. numBins <= 0 falls back to DefaultBins.
func Bin(sample []float64, numBins int, f Format) []HistogramBin {
	if len(sample) == 0 {
		return []HistogramBin{}
	}
	if numBins <= 0 {
		numBins = DefaultBins
	}

	lo, hi := sample[0], sample[0]
	for _, v := range sample[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	if hi == lo {
		return []HistogramBin{{
			RangeLabel: f.RangeLabel(lo, hi),
			BinStart:   lo,
			BinEnd:     hi,
			Count:      len(sample),
		}}
	}

	width := (hi - lo) / float64(numBins)
	bins := make([]HistogramBin, numBins)
	for i := range bins {
		start := lo + float64(i)*width
		end := start + width
		if i == numBins-1 {
			end = hi
		}
		bins[i] = HistogramBin{
			RangeLabel: f.RangeLabel(start, end),
			BinStart:   start,
			BinEnd:     end,
		}
	}

	for _, v := range sample {
		idx := int((v - lo) / width)
		if idx >= numBins {
			idx = numBins - 1
		}
		bins[idx].Count++
	}

	return bins
}
