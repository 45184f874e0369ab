package poa

import (
	"reflect"
	"testing"
)

// buildPOA threads each sequence in turn, aligning from the second on
func buildPOA(t *testing.T, seqs ...string) *graph {
	t.Helper()
	g := newGraph(1000)
	if err := g.thread([]byte(seqs[0]), nil); err != nil {
		t.Fatal(err)
	}
	for _, s := range seqs[1:] {
		steps, err := alignToGraph(g, []byte(s), testScoring)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.thread([]byte(s), steps); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestConsensusSingleSequenceRoundTrip(t *testing.T) {
	g := buildPOA(t, "ACGTACGT")

	seq, coverage := g.consensus()
	if string(seq) != "ACGTACGT" {
		t.Errorf("consensus = %q, want the input back", seq)
	}
	for i, c := range coverage {
		if c != 1 {
			t.Errorf("coverage[%d] = %d, want 1", i, c)
		}
	}

	msa := g.msa()
	if len(msa) != 1 {
		t.Fatalf("%d MSA rows, want 1", len(msa))
	}
	if string(msa[0]) != "ACGTACGT" {
		t.Errorf("MSA row = %q, want the input with zero gaps", msa[0])
	}
}

func TestConsensusMajorityVote(t *testing.T) {
	// three reads, each one substitution away from the truth; every
	// position resolves to its 2-of-3 majority
	g := buildPOA(t,
		"ACGTACGT",
		"ACTTACGT", // G->T at position 2
		"ACGTAGGT", // C->G at position 5
	)

	seq, coverage := g.consensus()
	if string(seq) != "ACGTACGT" {
		t.Errorf("consensus = %q, want ACGTACGT", seq)
	}
	want := []int32{3, 3, 2, 3, 3, 2, 3, 3}
	if !reflect.DeepEqual(coverage, want) {
		t.Errorf("coverage = %v, want %v", coverage, want)
	}
}

func TestMSASubstitutionColumns(t *testing.T) {
	g := buildPOA(t, "ACGTACGT", "ACTTACGT", "ACGTAGGT")

	got := g.msa()
	want := [][]byte{
		[]byte("ACGTACGT"),
		[]byte("ACTTACGT"),
		[]byte("ACGTAGGT"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("msa = %q, want %q", got, want)
	}
}

func TestMSAInsertionColumn(t *testing.T) {
	g := buildPOA(t, "ACT", "ACGT")

	got := g.msa()
	want := [][]byte{
		[]byte("AC-T"),
		[]byte("ACGT"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("msa = %q, want %q", got, want)
	}
}

func TestConsensusDeterministicOnTies(t *testing.T) {
	// two reads disagreeing in one position: both variants carry equal
	// weight, so only the tie-break decides; it must decide the same way
	// every time
	first, _ := buildPOA(t, "ACGT", "ATGT").consensus()
	for i := 0; i < 10; i++ {
		again, _ := buildPOA(t, "ACGT", "ATGT").consensus()
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("consensus flipped between runs: %q then %q", first, again)
		}
	}
	// the lowest node id wins the tie, which is the first-threaded variant
	if string(first) != "ACGT" {
		t.Errorf("consensus = %q, want the first-threaded read ACGT", first)
	}
}

func TestConsensusEmptyGraph(t *testing.T) {
	g := newGraph(10)
	seq, coverage := g.consensus()
	if seq != nil || coverage != nil {
		t.Errorf("consensus of empty graph = %q, %v", seq, coverage)
	}
}
