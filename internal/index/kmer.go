package index

import (
	"encoding/binary"
	"fmt"

	"github.com/shenwei356/kmers"
	"github.com/zeebo/wyhash"
)

// fingerprintSeed keeps fingerprints stable across runs and processes
const fingerprintSeed = 42

// MaxK is the longest k-mer that fits the 2-bit encoding used for
// fingerprints
const MaxK = 31

// FromSequences builds an index by fingerprinting every k-mer of every
// sequence. Fingerprints are hashes of the canonical (strand-independent)
// 2-bit k-mer encoding; windows containing non-ACGT bases produce no seed.
//
// This is a convenience for callers that have nothing but raw sequences.
// Pipelines with their own seed extraction should use New directly
func FromSequences(names []string, seqs [][]byte, k int) (*Index, error) {
	if len(names) != len(seqs) {
		return nil, fmt.Errorf("%d names for %d sequences", len(names), len(seqs))
	}
	if k < 1 || k > MaxK {
		return nil, fmt.Errorf("k-mer size %d out of range [1, %d]", k, MaxK)
	}

	records := make([]Record, len(seqs))
	var seeds []Seed
	for i, seq := range seqs {
		records[i] = Record{ID: int32(i), Name: names[i], Length: len(seq)}
		for pos := 0; pos+k <= len(seq); pos++ {
			window := seq[pos : pos+k]
			// kmers.Encode folds ambiguity codes like 'N' into the
			// 2-bit alphabet instead of failing, which would alias
			// real k-mers; screen the window first
			if !acgtOnly(window) {
				continue
			}
			code, err := kmers.Encode(window)
			if err != nil {
				continue
			}
			seeds = append(seeds, Seed{
				Fingerprint: fingerprint(code, k),
				Seq:         int32(i),
				Pos:         int32(pos),
			})
		}
	}

	return New(records, seeds)
}

func acgtOnly(window []byte) bool {
	for _, c := range window {
		switch c {
		case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
		default:
			return false
		}
	}
	return true
}

// fingerprint hashes the canonical form of an encoded k-mer so that a
// k-mer and its reverse complement share one fingerprint
func fingerprint(code uint64, k int) uint64 {
	if rc := kmers.MustRevComp(code, k); rc < code {
		code = rc
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], code)
	return wyhash.Hash(buf[:], fingerprintSeed)
}
