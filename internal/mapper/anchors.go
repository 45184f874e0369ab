// Package mapper generates candidate-overlap anchors between two sequence
// indexes by pairing equal seed fingerprints
package mapper

// Anchor is one pair of matching seed positions between a query and a
// target sequence, a candidate overlap signal for downstream chaining
type Anchor struct {
	// QuerySeq and TargetSeq are record ids within their indexes
	QuerySeq  int32
	TargetSeq int32

	// QueryPos and TargetPos are the seed positions within each sequence
	QueryPos  int32
	TargetPos int32

	// Weight is the fingerprint's occurrence count in the target index;
	// rarer fingerprints carry more signal and downstream filters may
	// drop anchors above a repetitiveness cutoff
	Weight int32
}

// anchorBytes is the device footprint of one anchor
const anchorBytes = 20
