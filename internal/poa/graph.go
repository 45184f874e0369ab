package poa

import (
	"container/heap"
	"fmt"
)

// graph is a partial-order alignment graph. Nodes live in a flat arena and
// are addressed by index; adjacency is index lists, never pointers, so the
// whole structure stays relocatable. Aligned rings group nodes that occupy
// the same alignment column with different bases
type graph struct {
	// per-node arenas, indexed by node id
	bases     []byte
	coverage  []int32
	inEdges   [][]int32
	inWeights [][]int32
	outEdges  [][]int32
	aligned   [][]int32

	// paths[i] is the node visited by base j of threaded sequence i
	paths [][]int32

	maxNodes int32
}

func newGraph(maxNodes int32) *graph {
	return &graph{maxNodes: maxNodes}
}

func (g *graph) numNodes() int32 {
	return int32(len(g.bases))
}

// addNode appends a node to the arena, failing when the node budget for
// this problem is spent
func (g *graph) addNode(base byte) (int32, error) {
	if g.numNodes() >= g.maxNodes {
		return -1, fmt.Errorf("graph exceeded %d-node budget", g.maxNodes)
	}
	g.bases = append(g.bases, base)
	g.coverage = append(g.coverage, 1)
	g.inEdges = append(g.inEdges, nil)
	g.inWeights = append(g.inWeights, nil)
	g.outEdges = append(g.outEdges, nil)
	g.aligned = append(g.aligned, nil)
	return g.numNodes() - 1, nil
}

// addEdge records u -> v, bumping the weight when the edge already exists
func (g *graph) addEdge(u, v int32) {
	for i, w := range g.inEdges[v] {
		if w == u {
			g.inWeights[v][i]++
			return
		}
	}
	g.inEdges[v] = append(g.inEdges[v], u)
	g.inWeights[v] = append(g.inWeights[v], 1)
	g.outEdges[u] = append(g.outEdges[u], v)
}

// alignNode links a fresh node n into the aligned ring of v
func (g *graph) alignNode(n, v int32) {
	ring := append(append([]int32(nil), g.aligned[v]...), v)
	g.aligned[n] = ring
	for _, a := range ring {
		g.aligned[a] = append(g.aligned[a], n)
	}
}

// alignedWithBase returns the node aligned to v carrying base, or -1
func (g *graph) alignedWithBase(v int32, base byte) int32 {
	if g.bases[v] == base {
		return v
	}
	for _, a := range g.aligned[v] {
		if g.bases[a] == base {
			return a
		}
	}
	return -1
}

// int32Heap is a min-heap of node ids, used to keep the topological order
// deterministic (smallest id first among ready nodes)
type int32Heap []int32

func (h int32Heap) Len() int            { return len(h) }
func (h int32Heap) Less(i, j int) bool  { return h[i] < h[j] }
func (h int32Heap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *int32Heap) Push(x interface{}) { *h = append(*h, x.(int32)) }
func (h *int32Heap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topoSort returns the nodes in topological order. Among nodes whose
// predecessors are all placed, the lowest id goes first, so the order is a
// pure function of the graph
func (g *graph) topoSort() []int32 {
	n := g.numNodes()
	indegree := make([]int32, n)
	for v := int32(0); v < n; v++ {
		indegree[v] = int32(len(g.inEdges[v]))
	}

	ready := &int32Heap{}
	for v := int32(0); v < n; v++ {
		if indegree[v] == 0 {
			heap.Push(ready, v)
		}
	}

	sorted := make([]int32, 0, n)
	for ready.Len() > 0 {
		v := heap.Pop(ready).(int32)
		sorted = append(sorted, v)
		for _, w := range g.outEdges[v] {
			indegree[w]--
			if indegree[w] == 0 {
				heap.Push(ready, w)
			}
		}
	}
	return sorted
}
