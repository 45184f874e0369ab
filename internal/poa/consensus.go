package poa

import "math"

// consensus extracts the highest-weight path through the graph: each node
// contributes its coverage, each traversed edge its weight. Ties are broken
// toward the lowest node id, at both the best-predecessor and the best-end
// choice, so the result is a pure function of the graph.
//
// The returned coverage slice gives, per consensus base, the number of
// threaded sequences supporting its node
func (g *graph) consensus() (seq []byte, coverage []int32) {
	n := g.numNodes()
	if n == 0 {
		return nil, nil
	}

	best := make([]int64, n)
	pred := make([]int32, n)

	endNode := int32(-1)
	endBest := int64(math.MinInt64)
	for _, v := range g.topoSort() {
		s := int64(g.coverage[v])
		bp := int32(-1)
		bestIn := int64(math.MinInt64)
		for i, u := range g.inEdges[v] {
			cand := best[u] + int64(g.inWeights[v][i])
			if cand > bestIn || (cand == bestIn && u < bp) {
				bestIn, bp = cand, u
			}
		}
		if bp >= 0 {
			s += bestIn
		}
		best[v], pred[v] = s, bp

		if s > endBest || (s == endBest && v < endNode) {
			endBest, endNode = s, v
		}
	}

	for v := endNode; v >= 0; v = pred[v] {
		seq = append(seq, g.bases[v])
		coverage = append(coverage, g.coverage[v])
	}
	for a, b := 0, len(seq)-1; a < b; a, b = a+1, b-1 {
		seq[a], seq[b] = seq[b], seq[a]
		coverage[a], coverage[b] = coverage[b], coverage[a]
	}
	return seq, coverage
}

// msa renders every threaded sequence against the graph's column structure:
// nodes sharing an aligned ring share a column, every other node gets its
// own, in topological order. Row i belongs to the i-th threaded sequence;
// '-' fills the columns its path does not visit
func (g *graph) msa() [][]byte {
	n := g.numNodes()
	col := make([]int32, n)
	for i := range col {
		col[i] = -1
	}

	ncols := int32(0)
	for _, v := range g.topoSort() {
		if col[v] >= 0 {
			continue
		}
		col[v] = ncols
		for _, a := range g.aligned[v] {
			col[a] = ncols
		}
		ncols++
	}

	rows := make([][]byte, len(g.paths))
	for i, path := range g.paths {
		row := make([]byte, ncols)
		for j := range row {
			row[j] = '-'
		}
		for _, v := range path {
			row[col[v]] = g.bases[v]
		}
		rows[i] = row
	}
	return rows
}
