package poa

import "math"

// score is the accumulator cell type of the alignment matrix. The narrow
// form halves per-cell memory and roughly doubles batch occupancy; the wide
// form buys headroom for long or high-scoring-magnitude alignments
type score interface {
	~int16 | ~int32
}

// needsWideScore reports whether alignments bounded by maxSeqLen could
// overflow a 16-bit score accumulator with the given scoring scheme. A
// worst-case score magnitude that lands exactly on the 16-bit limit already
// selects the wide form.
//
// The decision is pure and taken once, before a batch is built; it never
// changes for the batch's lifetime
func needsWideScore(maxSeqLen int32, gap, mismatch, match int16) bool {
	worst := maxAbsScore(gap, mismatch, match) * int64(maxSeqLen)
	return worst >= math.MaxInt16
}

// maxAbsScore widens before negating; -MinInt16 is not representable in
// int16, so taking the magnitude at the narrow width would drop it
func maxAbsScore(scores ...int16) int64 {
	var m int64
	for _, s := range scores {
		v := int64(s)
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}
