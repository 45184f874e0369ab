// Package index holds the immutable, seed-fingerprint view of a set of
// sequences that the matcher consumes. An Index is built once, owned by its
// constructing context, and safe for concurrent readers
package index

import (
	"fmt"
	"sort"

	"github.com/twotwotwo/sorts/sortutil"
)

// Record describes one indexed sequence
type Record struct {
	// ID is the sequence's ordinal within this index
	ID int32

	// Name is the sequence's display name
	Name string

	// Length of the sequence in bases
	Length int
}

// Seed is one fingerprint occurrence: the fingerprint value and the
// position within the sequence it was extracted from
type Seed struct {
	Fingerprint uint64
	Seq         int32
	Pos         int32
}

// Index is the seed-fingerprint table over a set of sequences. Seeds are
// kept twice: a flat list in (sequence, position) order for walking a query,
// and per-fingerprint location lists for constant-time lookup of a target
type Index struct {
	records []Record

	// seeds sorted by (Seq, Pos), ties by Fingerprint
	seeds []Seed

	// fingerprint -> packed (seq<<32 | pos) locations, ascending
	locs map[uint64][]uint64
}

// PackLoc packs a sequence id and position into one sortable word
func PackLoc(seq, pos int32) uint64 {
	return uint64(seq)<<32 | uint64(uint32(pos))
}

// UnpackLoc reverses PackLoc
func UnpackLoc(loc uint64) (seq, pos int32) {
	return int32(loc >> 32), int32(uint32(loc))
}

// New builds an index over the given records and seed occurrences. Seeds
// referencing a sequence id outside records are rejected
func New(records []Record, seeds []Seed) (*Index, error) {
	for _, s := range seeds {
		if s.Seq < 0 || int(s.Seq) >= len(records) {
			return nil, fmt.Errorf("seed at position %d references unknown sequence %d", s.Pos, s.Seq)
		}
	}

	x := &Index{
		records: append([]Record(nil), records...),
		seeds:   append([]Seed(nil), seeds...),
		locs:    make(map[uint64][]uint64),
	}

	sort.Slice(x.seeds, func(i, j int) bool {
		a, b := x.seeds[i], x.seeds[j]
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		if a.Pos != b.Pos {
			return a.Pos < b.Pos
		}
		return a.Fingerprint < b.Fingerprint
	})

	for _, s := range x.seeds {
		x.locs[s.Fingerprint] = append(x.locs[s.Fingerprint], PackLoc(s.Seq, s.Pos))
	}
	for _, locs := range x.locs {
		sortutil.Uint64s(locs)
	}

	return x, nil
}

// Records returns the indexed sequence records. The slice is shared and
// must be treated as read-only
func (x *Index) Records() []Record {
	return x.records
}

// Seeds returns every seed occurrence in (sequence, position) order. The
// slice is shared and must be treated as read-only
func (x *Index) Seeds() []Seed {
	return x.seeds
}

// Locations returns the packed locations of a fingerprint in ascending
// (sequence, position) order, or nil when the fingerprint does not occur
func (x *Index) Locations(fingerprint uint64) []uint64 {
	return x.locs[fingerprint]
}

// NumSeeds returns the total number of seed occurrences
func (x *Index) NumSeeds() int {
	return len(x.seeds)
}

// NumRecords returns the number of indexed sequences
func (x *Index) NumRecords() int {
	return len(x.records)
}
