package index

import (
	"reflect"
	"testing"
)

func TestNewSortsSeeds(t *testing.T) {
	records := []Record{
		{ID: 0, Name: "r0", Length: 20},
		{ID: 1, Name: "r1", Length: 20},
	}
	seeds := []Seed{
		{Fingerprint: 7, Seq: 1, Pos: 3},
		{Fingerprint: 9, Seq: 0, Pos: 8},
		{Fingerprint: 7, Seq: 0, Pos: 2},
		{Fingerprint: 5, Seq: 0, Pos: 2},
	}

	x, err := New(records, seeds)
	if err != nil {
		t.Fatal(err)
	}

	want := []Seed{
		{Fingerprint: 5, Seq: 0, Pos: 2},
		{Fingerprint: 7, Seq: 0, Pos: 2},
		{Fingerprint: 9, Seq: 0, Pos: 8},
		{Fingerprint: 7, Seq: 1, Pos: 3},
	}
	if !reflect.DeepEqual(x.Seeds(), want) {
		t.Errorf("Seeds() = %v, want %v", x.Seeds(), want)
	}
}

func TestNewRejectsUnknownSequence(t *testing.T) {
	_, err := New([]Record{{ID: 0, Name: "r0"}}, []Seed{{Fingerprint: 1, Seq: 2, Pos: 0}})
	if err == nil {
		t.Error("New() accepted a seed for an unknown sequence")
	}
}

func TestLocationsAscending(t *testing.T) {
	records := []Record{{ID: 0, Name: "r0"}, {ID: 1, Name: "r1"}}
	seeds := []Seed{
		{Fingerprint: 7, Seq: 1, Pos: 1},
		{Fingerprint: 7, Seq: 0, Pos: 9},
		{Fingerprint: 7, Seq: 0, Pos: 4},
	}
	x, err := New(records, seeds)
	if err != nil {
		t.Fatal(err)
	}

	want := []uint64{PackLoc(0, 4), PackLoc(0, 9), PackLoc(1, 1)}
	if got := x.Locations(7); !reflect.DeepEqual(got, want) {
		t.Errorf("Locations(7) = %v, want %v", got, want)
	}
	if got := x.Locations(12345); got != nil {
		t.Errorf("Locations(12345) = %v, want nil", got)
	}
}

func TestPackLocRoundTrip(t *testing.T) {
	seq, pos := UnpackLoc(PackLoc(3, 1<<30))
	if seq != 3 || pos != 1<<30 {
		t.Errorf("UnpackLoc(PackLoc(3, 1<<30)) = (%d, %d)", seq, pos)
	}
}

func TestFromSequences(t *testing.T) {
	x, err := FromSequences([]string{"read"}, [][]byte{[]byte("ACGTA")}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if x.NumSeeds() != 3 {
		t.Errorf("NumSeeds() = %d, want one per 3-mer window", x.NumSeeds())
	}
	if got := x.Records()[0]; got.Name != "read" || got.Length != 5 {
		t.Errorf("Records()[0] = %+v", got)
	}
}

func TestFromSequencesSkipsAmbiguous(t *testing.T) {
	x, err := FromSequences([]string{"read"}, [][]byte{[]byte("ACNGT")}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if x.NumSeeds() != 0 {
		t.Errorf("NumSeeds() = %d, want 0: every window covers the N", x.NumSeeds())
	}
}

func TestFromSequencesAmbiguousSkipsOnlyCoveringWindows(t *testing.T) {
	// the N at position 4 poisons the three windows that cover it; the
	// two flanking windows on each side still seed
	x, err := FromSequences([]string{"read"}, [][]byte{[]byte("ACGTNACGT")}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if x.NumSeeds() != 4 {
		t.Errorf("NumSeeds() = %d, want 4", x.NumSeeds())
	}
}

func TestFromSequencesCanonical(t *testing.T) {
	// a k-mer and its reverse complement must share a fingerprint
	a, err := FromSequences([]string{"f"}, [][]byte{[]byte("ACG")}, 3)
	if err != nil {
		t.Fatal(err)
	}
	b, err := FromSequences([]string{"r"}, [][]byte{[]byte("CGT")}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if a.Seeds()[0].Fingerprint != b.Seeds()[0].Fingerprint {
		t.Errorf("fingerprint(ACG) = %d, fingerprint(CGT) = %d, want equal",
			a.Seeds()[0].Fingerprint, b.Seeds()[0].Fingerprint)
	}
}

func TestFromSequencesDeterministic(t *testing.T) {
	seqs := [][]byte{[]byte("ACGTACGTAC"), []byte("TTGCATGCAA")}
	a, err := FromSequences([]string{"a", "b"}, seqs, 5)
	if err != nil {
		t.Fatal(err)
	}
	b, err := FromSequences([]string{"a", "b"}, seqs, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Seeds(), b.Seeds()) {
		t.Error("FromSequences() is not deterministic across calls")
	}
}

func TestFromSequencesRejectsBadK(t *testing.T) {
	tests := []struct {
		name string
		k    int
	}{
		{"zero", 0},
		{"negative", -4},
		{"too long for 2-bit encoding", MaxK + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromSequences([]string{"a"}, [][]byte{[]byte("ACGT")}, tt.k); err == nil {
				t.Errorf("FromSequences(k=%d) accepted", tt.k)
			}
		})
	}
}
