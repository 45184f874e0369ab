package poa

import (
	"fmt"
	"math"
	"sort"
)

// scoring carries the batch's alignment parameters at the batch's chosen
// accumulator width
type scoring[S score] struct {
	gap      S
	mismatch S
	match    S

	banded    bool
	bandWidth int32
}

// alignmentStep is one traceback step: the graph node and sequence position
// it pairs, with -1 marking a gap on that side
type alignmentStep struct {
	node int32
	pos  int32
}

// traceback move codes
const (
	moveNone uint8 = iota
	moveMatch
	moveDelete // consume a graph node, gap in the sequence
	moveInsert // consume a sequence base, gap in the graph
)

// minScore is the unreachable-cell sentinel: the exact minimum of the
// instantiated width, converted through a typed variable because the wide
// constant is not representable in the narrow instantiation
func minScore[S score]() S {
	var s S
	if _, narrow := any(s).(int16); narrow {
		v := int16(math.MinInt16)
		return S(v)
	}
	v := int32(math.MinInt32)
	return S(v)
}

func maxScore[S score]() S {
	var s S
	if _, narrow := any(s).(int16); narrow {
		v := int16(math.MaxInt16)
		return S(v)
	}
	v := int32(math.MaxInt32)
	return S(v)
}

// addScore sums two reachable scores without wrapping: results saturate one
// above the sentinel and at the type maximum, so a saturated cell still
// reads as reachable and never aliases an unreachable one
func addScore[S score](a, b S) S {
	v := int64(a) + int64(b)
	if lo := int64(minScore[S]()); v <= lo {
		v = lo + 1
	} else if hi := int64(maxScore[S]()); v > hi {
		v = hi
	}
	return S(v)
}

// alignToGraph aligns seq against the graph with Needleman-Wunsch scoring
// over the graph's topological order. Rows are graph nodes (row 0 is the
// origin), columns are sequence positions. In banded mode only a diagonal
// corridor of bandWidth columns per row is evaluated; alignments leaving the
// corridor are lost, which is the accepted trade-off of that mode.
//
// Ties are broken deterministically: match/mismatch beats deletion beats
// insertion, and among equal-scoring predecessor rows the lowest wins
func alignToGraph[S score](g *graph, seq []byte, sc scoring[S]) ([]alignmentStep, error) {
	order := g.topoSort()
	n := int32(len(order))
	m := int32(len(seq))

	// rank maps a node id to its 1-based row
	rank := make([]int32, g.numNodes())
	for i, v := range order {
		rank[v] = int32(i) + 1
	}

	cols := m + 1
	neg := minScore[S]()
	cells := make([]S, (n+1)*cols)
	moves := make([]uint8, (n+1)*cols)
	preds := make([]int32, (n+1)*cols)
	for i := range cells {
		cells[i] = neg
	}

	lo, hi := corridor(0, n, m, sc)
	cells[0] = 0
	for j := int32(1); j <= hi; j++ {
		cells[j] = addScore(cells[j-1], sc.gap)
		moves[j] = moveInsert
	}

	for i := int32(1); i <= n; i++ {
		v := order[i-1]

		// predecessor rows; the origin when the node is a source
		var prows []int32
		for _, u := range g.inEdges[v] {
			prows = append(prows, rank[u])
		}
		if len(prows) == 0 {
			prows = []int32{0}
		}
		sort.Slice(prows, func(a, b int) bool { return prows[a] < prows[b] })

		lo, hi = corridor(i, n, m, sc)
		for j := lo; j <= hi; j++ {
			base := cells[i*cols+j]
			best, move, pred := base, moveNone, int32(-1)

			if j > 0 {
				sub := sc.mismatch
				if g.bases[v] == seq[j-1] {
					sub = sc.match
				}
				for _, p := range prows {
					if s := cells[p*cols+j-1]; s > neg {
						if c := addScore(s, sub); c > best {
							best, move, pred = c, moveMatch, p
						}
					}
				}
			}
			for _, p := range prows {
				if s := cells[p*cols+j]; s > neg {
					if c := addScore(s, sc.gap); c > best {
						best, move, pred = c, moveDelete, p
					}
				}
			}
			if j > 0 {
				if s := cells[i*cols+j-1]; s > neg {
					if c := addScore(s, sc.gap); c > best {
						best, move, pred = c, moveInsert, i
					}
				}
			}

			cells[i*cols+j] = best
			moves[i*cols+j] = move
			preds[i*cols+j] = pred
		}
	}

	// the alignment must consume the whole sequence and end on a sink node
	endRow := int32(-1)
	endBest := neg
	for i := int32(1); i <= n; i++ {
		if len(g.outEdges[order[i-1]]) > 0 {
			continue
		}
		if s := cells[i*cols+m]; s > endBest {
			endBest, endRow = s, i
		}
	}
	if endRow < 0 || endBest <= neg {
		return nil, fmt.Errorf("no alignment within band of width %d", sc.bandWidth)
	}

	var steps []alignmentStep
	i, j := endRow, m
	for i != 0 || j != 0 {
		switch moves[i*cols+j] {
		case moveMatch:
			steps = append(steps, alignmentStep{node: order[i-1], pos: j - 1})
			i, j = preds[i*cols+j], j-1
		case moveDelete:
			steps = append(steps, alignmentStep{node: order[i-1], pos: -1})
			i = preds[i*cols+j]
		case moveInsert:
			steps = append(steps, alignmentStep{node: -1, pos: j - 1})
			j--
		default:
			return nil, fmt.Errorf("traceback broke at row %d column %d", i, j)
		}
	}

	// reverse into leading-to-trailing order
	for a, b := 0, len(steps)-1; a < b; a, b = a+1, b-1 {
		steps[a], steps[b] = steps[b], steps[a]
	}
	return steps, nil
}

// corridor returns the inclusive column range evaluated for row i. The full
// matrix in non-banded mode; a bandWidth-wide window around the main
// diagonal otherwise, always anchored so that row 0 contains column 0 and
// the last row contains the last column
func corridor[S score](i, n, m int32, sc scoring[S]) (lo, hi int32) {
	if !sc.banded || sc.bandWidth <= 0 {
		return 0, m
	}
	center := int32(0)
	if n > 0 {
		center = i * m / n
	}
	half := sc.bandWidth / 2
	lo = center - half
	hi = center + half
	if lo < 0 {
		lo = 0
	}
	if hi > m {
		hi = m
	}
	return lo, hi
}
