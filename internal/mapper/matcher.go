package mapper

import (
	"fmt"

	"github.com/NagoLazaro/ClaraGenomicsAnalysis/internal/device"
	"github.com/NagoLazaro/ClaraGenomicsAnalysis/internal/index"
)

// Matcher exposes the anchors generated for one (query, target) index pair
type Matcher interface {
	// Anchors returns every anchor between the two indexes, grouped by
	// query sequence and query position ascending. It is only valid after
	// the matcher's stream has been synced; nil is returned when
	// generation failed
	Anchors() []Anchor
}

type matcher struct {
	query   *index.Index
	target  *index.Index
	arena   *device.Arena
	anchors []Anchor
}

// NewMatcher enqueues anchor generation for the index pair on the given
// stream and returns the matcher. The computation runs asynchronously;
// callers must Sync the stream before reading Anchors, and a failed
// reservation against the arena surfaces there as a device.ErrAllocation.
//
// When query and target are the same index, identity matches (a position
// anchored to itself) are excluded
func NewMatcher(stream *device.Stream, arena *device.Arena, query, target *index.Index) (Matcher, error) {
	if query == nil || target == nil {
		return nil, fmt.Errorf("matcher needs both a query and a target index")
	}
	m := &matcher{query: query, target: target, arena: arena}
	stream.Enqueue(m.generate)
	return m, nil
}

func (m *matcher) Anchors() []Anchor {
	return m.anchors
}

// generate pairs every query seed with every target location sharing its
// fingerprint. Work is proportional to the number of matching pairs: the
// query's seeds are walked once and each fingerprint's target locations are
// found by table lookup rather than position scans
func (m *matcher) generate() error {
	self := m.query == m.target

	// size the output before materializing it so the arena reservation
	// covers the whole collection or nothing
	total := 0
	for _, s := range m.query.Seeds() {
		locs := m.target.Locations(s.Fingerprint)
		total += len(locs)
		if self && len(locs) > 0 {
			total-- // the identity match is always present and always dropped
		}
	}

	if err := m.arena.Reserve(int64(total) * anchorBytes); err != nil {
		return fmt.Errorf("anchor generation: %w", err)
	}

	anchors := make([]Anchor, 0, total)
	for _, s := range m.query.Seeds() {
		locs := m.target.Locations(s.Fingerprint)
		for _, loc := range locs {
			tseq, tpos := index.UnpackLoc(loc)
			if self && tseq == s.Seq && tpos == s.Pos {
				continue
			}
			anchors = append(anchors, Anchor{
				QuerySeq:  s.Seq,
				QueryPos:  s.Pos,
				TargetSeq: tseq,
				TargetPos: tpos,
				Weight:    int32(len(locs)),
			})
		}
	}

	m.anchors = anchors
	return nil
}
