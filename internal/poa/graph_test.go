package poa

import (
	"reflect"
	"testing"
)

func TestGraphFirstSequenceIsChain(t *testing.T) {
	g := newGraph(100)
	if err := g.thread([]byte("ACGT"), nil); err != nil {
		t.Fatal(err)
	}

	if g.numNodes() != 4 {
		t.Fatalf("numNodes() = %d, want 4", g.numNodes())
	}
	if string(g.bases) != "ACGT" {
		t.Errorf("bases = %q, want ACGT", g.bases)
	}
	if want := []int32{0, 1, 2, 3}; !reflect.DeepEqual(g.topoSort(), want) {
		t.Errorf("topoSort() = %v, want %v", g.topoSort(), want)
	}
	if want := [][]int32{{0, 1, 2, 3}}; !reflect.DeepEqual(g.paths, want) {
		t.Errorf("paths = %v, want %v", g.paths, want)
	}
}

func TestGraphEdgeWeightBumps(t *testing.T) {
	g := newGraph(10)
	u, _ := g.addNode('A')
	v, _ := g.addNode('C')

	g.addEdge(u, v)
	g.addEdge(u, v)

	if len(g.inEdges[v]) != 1 {
		t.Fatalf("%d parallel edges recorded, want 1", len(g.inEdges[v]))
	}
	if g.inWeights[v][0] != 2 {
		t.Errorf("edge weight = %d, want 2", g.inWeights[v][0])
	}
}

func TestGraphNodeBudget(t *testing.T) {
	g := newGraph(3)
	if err := g.thread([]byte("ACGT"), nil); err == nil {
		t.Error("threading 4 bases through a 3-node budget succeeded")
	}
}

func TestTopoSortDeterministic(t *testing.T) {
	// diamond: 0 -> {1, 2} -> 3, plus a late-created source 4 -> 3
	build := func() *graph {
		g := newGraph(10)
		for _, b := range []byte("ACGTA") {
			g.addNode(b)
		}
		g.addEdge(0, 1)
		g.addEdge(0, 2)
		g.addEdge(1, 3)
		g.addEdge(2, 3)
		g.addEdge(4, 3)
		return g
	}

	want := []int32{0, 1, 2, 4, 3}
	for i := 0; i < 5; i++ {
		if got := build().topoSort(); !reflect.DeepEqual(got, want) {
			t.Fatalf("topoSort() = %v, want %v", got, want)
		}
	}
}

func TestAlignedRing(t *testing.T) {
	g := newGraph(10)
	v, _ := g.addNode('A')
	n1, _ := g.addNode('C')
	g.alignNode(n1, v)
	n2, _ := g.addNode('G')
	g.alignNode(n2, v)

	if got := g.alignedWithBase(v, 'C'); got != n1 {
		t.Errorf("alignedWithBase(v, C) = %d, want %d", got, n1)
	}
	if got := g.alignedWithBase(v, 'G'); got != n2 {
		t.Errorf("alignedWithBase(v, G) = %d, want %d", got, n2)
	}
	if got := g.alignedWithBase(n1, 'G'); got != n2 {
		t.Errorf("alignedWithBase(n1, G) = %d, want %d: rings must be transitive", got, n2)
	}
	if got := g.alignedWithBase(v, 'T'); got != -1 {
		t.Errorf("alignedWithBase(v, T) = %d, want -1", got)
	}
}
