// Package poa batches independent partial-order alignment problems and runs
// them as one computation on a device stream, producing consensus sequences
// and multiple-sequence alignments for groups of related reads
package poa

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/NagoLazaro/ClaraGenomicsAnalysis/internal/device"
)

// OutputMask selects which outputs a batch computes per problem
type OutputMask uint8

const (
	// OutputConsensus requests the consensus sequence and its coverage
	OutputConsensus OutputMask = 1 << iota

	// OutputMSA requests one aligned row per input sequence
	OutputMSA
)

// BatchSize bounds the problems a batch accepts. The bounds, not the actual
// problem contents, determine each problem's charge against the memory
// budget, so admission is deterministic
type BatchSize struct {
	// MaxSequences per problem
	MaxSequences int32

	// MaxSeqLen is the longest accepted sequence
	MaxSeqLen int32

	// MaxNodes caps the alignment graph per problem; 0 means 3x MaxSeqLen
	MaxNodes int32

	// BandWidth is the diagonal corridor width in banded mode; 0 means 256
	BandWidth int32

	// Alphabet lists the accepted symbols; empty means "ACGTN"
	Alphabet string
}

const (
	defaultBandWidth = 256
	defaultAlphabet  = "ACGTN"
)

func (s BatchSize) withDefaults() BatchSize {
	if s.MaxNodes == 0 {
		s.MaxNodes = 3 * s.MaxSeqLen
	}
	if s.BandWidth == 0 {
		s.BandWidth = defaultBandWidth
	}
	if s.Alphabet == "" {
		s.Alphabet = defaultAlphabet
	}
	return s
}

func (s BatchSize) validate() error {
	if s.MaxSequences < 1 {
		return fmt.Errorf("%w: MaxSequences %d", ErrConfiguration, s.MaxSequences)
	}
	if s.MaxSeqLen < 1 {
		return fmt.Errorf("%w: MaxSeqLen %d", ErrConfiguration, s.MaxSeqLen)
	}
	if s.MaxNodes < s.MaxSeqLen {
		return fmt.Errorf("%w: MaxNodes %d below MaxSeqLen %d", ErrConfiguration, s.MaxNodes, s.MaxSeqLen)
	}
	if s.BandWidth < 1 {
		return fmt.Errorf("%w: BandWidth %d", ErrConfiguration, s.BandWidth)
	}
	return nil
}

// ProblemConfig is the per-problem configuration accepted by AddProblem
type ProblemConfig struct {
	// Outputs overrides the batch's output mask for this problem;
	// zero keeps the batch default
	Outputs OutputMask
}

// Status reports the per-problem outcome of an executed batch
type Status int

const (
	// StatusSuccess means every requested output was produced
	StatusSuccess Status = iota

	// StatusNodeBudget means threading stopped because the graph reached
	// the configured node budget; the problem produced no outputs
	StatusNodeBudget

	// StatusNoAlignment means a sequence found no alignment inside the
	// banded corridor; the problem produced no outputs
	StatusNoAlignment
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNodeBudget:
		return "graph exceeded configured node budget"
	case StatusNoAlignment:
		return "no alignment within band"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is one problem's output, in AddProblem insertion order
type Result struct {
	// Consensus is the highest-weight path through the final graph
	Consensus []byte

	// Coverage holds, per consensus base, the number of supporting reads
	Coverage []int32

	// MSA holds one row per input sequence when requested
	MSA [][]byte

	Status Status
}

// Batch accumulates alignment problems against a fixed device-memory budget
// and runs them as one enqueued computation. The lifecycle is
// Empty -> Accumulating -> Executed -> (Reset -> Empty | Close); calls
// outside their lifecycle state fail with ErrState
type Batch interface {
	// AddProblem validates and stores one problem. It fails with
	// ErrProblemTooLarge or ErrBatchFull (both ErrCapacity) without
	// touching prior problems, or with ErrInput for malformed sequences
	AddProblem(seqs [][]byte, cfg ProblemConfig) error

	// Execute enqueues the batched computation on the stream and returns
	// without waiting
	Execute() error

	// Sync blocks until the enqueued computation finished
	Sync() error

	// Results returns per-problem outputs in insertion order; valid only
	// after Execute and Sync
	Results() ([]Result, error)

	// Reset releases problem memory and returns the batch to Empty,
	// keeping its precision and budget for reuse
	Reset() error

	// Close releases the batch's memory; the batch must not be reused
	Close() error

	// ScoreWidth returns the chosen accumulator width in bits
	ScoreWidth() int
}

// NewBatch selects the score accumulator width for the given bounds and
// scoring scheme and builds the concrete batch: narrow (16-bit cells) when
// every representable alignment fits, wide (32-bit) otherwise. maxMem is the
// batch's device-memory budget in bytes and must hold at least one problem
// at the chosen width, else ErrConfiguration
func NewBatch(dev *device.Device, stream *device.Stream, maxMem int64, outputs OutputMask,
	size BatchSize, gap, mismatch, match int16, banded bool) (Batch, error) {

	size = size.withDefaults()
	if err := size.validate(); err != nil {
		return nil, err
	}
	if gap > 0 || mismatch > 0 || match < 1 {
		return nil, fmt.Errorf("%w: scores gap=%d mismatch=%d match=%d (gap and mismatch must be <= 0, match >= 1)",
			ErrConfiguration, gap, mismatch, match)
	}
	if outputs&(OutputConsensus|OutputMSA) == 0 {
		return nil, fmt.Errorf("%w: no output selected", ErrConfiguration)
	}

	if needsWideScore(size.MaxSeqLen, gap, mismatch, match) {
		return newPoaBatch[int32](dev, stream, maxMem, outputs, size, gap, mismatch, match, banded)
	}
	return newPoaBatch[int16](dev, stream, maxMem, outputs, size, gap, mismatch, match, banded)
}

type batchState int

const (
	stateEmpty batchState = iota
	stateAccumulating
	stateExecuted
	stateClosed
)

func (s batchState) String() string {
	switch s {
	case stateEmpty:
		return "empty"
	case stateAccumulating:
		return "accumulating"
	case stateExecuted:
		return "executed"
	case stateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type problem struct {
	seqs    [][]byte
	outputs OutputMask
}

// poaBatch is the concrete batch at one accumulator width. Two
// instantiations exist, int16 and int32; the factory picks one at
// construction and the choice never changes
type poaBatch[S score] struct {
	device  *device.Device
	stream  *device.Stream
	arena   *device.Arena
	sc      scoring[S]
	outputs OutputMask
	size    BatchSize
	valid   [256]bool

	mu       sync.Mutex
	state    batchState
	problems []problem

	done    atomic.Bool
	results []Result
}

func newPoaBatch[S score](dev *device.Device, stream *device.Stream, maxMem int64,
	outputs OutputMask, size BatchSize, gap, mismatch, match int16, banded bool) (*poaBatch[S], error) {

	b := &poaBatch[S]{
		device: dev,
		stream: stream,
		arena:  device.NewArena(maxMem),
		sc: scoring[S]{
			gap:       S(gap),
			mismatch:  S(mismatch),
			match:     S(match),
			banded:    banded,
			bandWidth: size.BandWidth,
		},
		outputs: outputs,
		size:    size,
	}
	for _, c := range []byte(size.Alphabet) {
		b.valid[c] = true
	}

	if need := b.problemBytes(); need > maxMem {
		return nil, fmt.Errorf("%w: budget %s cannot hold one problem (%s at %d-bit scores)",
			ErrConfiguration, humanize.IBytes(uint64(maxMem)), humanize.IBytes(uint64(need)), b.ScoreWidth())
	}
	return b, nil
}

func (b *poaBatch[S]) ScoreWidth() int {
	var s S
	if _, narrow := any(s).(int16); narrow {
		return 16
	}
	return 32
}

// per-node graph footprint: base, coverage, ring slot and two edge slots
const graphNodeBytes = 48

// problemBytes is the fixed device charge for one problem, computed from
// the batch's bounds so that admission does not depend on problem contents
func (b *poaBatch[S]) problemBytes() int64 {
	cell := int64(b.ScoreWidth() / 8)

	cols := int64(b.size.MaxSeqLen) + 1
	if b.sc.banded && int64(b.sc.bandWidth)+1 < cols {
		cols = int64(b.sc.bandWidth) + 1
	}
	rows := int64(b.size.MaxNodes) + 1

	// score cell plus traceback move and predecessor per matrix cell
	matrix := rows * cols * (cell + 5)
	graph := int64(b.size.MaxNodes) * graphNodeBytes
	seqs := int64(b.size.MaxSequences) * int64(b.size.MaxSeqLen)
	return matrix + graph + seqs
}

func (b *poaBatch[S]) AddProblem(seqs [][]byte, cfg ProblemConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != stateEmpty && b.state != stateAccumulating {
		return fmt.Errorf("%w: AddProblem in %v", ErrState, b.state)
	}

	if len(seqs) == 0 {
		return fmt.Errorf("%w: problem has no sequences", ErrInput)
	}
	if int32(len(seqs)) > b.size.MaxSequences {
		return fmt.Errorf("%d sequences, bound is %d: %w", len(seqs), b.size.MaxSequences, ErrProblemTooLarge)
	}
	for i, seq := range seqs {
		if len(seq) == 0 {
			return fmt.Errorf("%w: sequence %d is empty", ErrInput, i)
		}
		if int32(len(seq)) > b.size.MaxSeqLen {
			return fmt.Errorf("sequence %d is %d bases, bound is %d: %w", i, len(seq), b.size.MaxSeqLen, ErrProblemTooLarge)
		}
		for _, c := range seq {
			if !b.valid[c] {
				return fmt.Errorf("%w: sequence %d has symbol %q outside alphabet %q", ErrInput, i, c, b.size.Alphabet)
			}
		}
	}

	if err := b.arena.Reserve(b.problemBytes()); err != nil {
		return fmt.Errorf("%s free of %s: %w",
			humanize.IBytes(uint64(b.arena.Free())), humanize.IBytes(uint64(b.arena.Budget())), ErrBatchFull)
	}

	outputs := cfg.Outputs
	if outputs == 0 {
		outputs = b.outputs
	}

	copied := make([][]byte, len(seqs))
	for i, seq := range seqs {
		copied[i] = append([]byte(nil), seq...)
	}

	b.problems = append(b.problems, problem{seqs: copied, outputs: outputs})
	b.state = stateAccumulating
	return nil
}

func (b *poaBatch[S]) Execute() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateEmpty {
		return fmt.Errorf("%w: Execute on an empty batch", ErrState)
	}
	if b.state != stateAccumulating {
		return fmt.Errorf("%w: Execute in %v", ErrState, b.state)
	}

	problems := b.problems
	b.state = stateExecuted
	b.done.Store(false)

	b.stream.Enqueue(func() error {
		results := make([]Result, len(problems))
		for i, p := range problems {
			results[i] = b.runProblem(p)
		}
		b.mu.Lock()
		b.results = results
		b.mu.Unlock()
		b.done.Store(true)
		return nil
	})
	return nil
}

// runProblem threads a problem's sequences into a fresh graph and derives
// the requested outputs. Failures are per-problem statuses, never errors:
// one degenerate problem must not take down its batchmates
func (b *poaBatch[S]) runProblem(p problem) Result {
	g := newGraph(b.size.MaxNodes)

	if err := g.thread(p.seqs[0], nil); err != nil {
		return Result{Status: StatusNodeBudget}
	}
	for _, seq := range p.seqs[1:] {
		steps, err := alignToGraph(g, seq, b.sc)
		if err != nil {
			return Result{Status: StatusNoAlignment}
		}
		if err := g.thread(seq, steps); err != nil {
			return Result{Status: StatusNodeBudget}
		}
	}

	var r Result
	if p.outputs&OutputConsensus != 0 {
		r.Consensus, r.Coverage = g.consensus()
	}
	if p.outputs&OutputMSA != 0 {
		r.MSA = g.msa()
	}
	return r
}

func (b *poaBatch[S]) Sync() error {
	return b.stream.Sync()
}

func (b *poaBatch[S]) Results() ([]Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != stateExecuted {
		return nil, fmt.Errorf("%w: Results in %v", ErrState, b.state)
	}
	if !b.done.Load() {
		return nil, fmt.Errorf("%w: execution still in flight, sync the stream first", ErrState)
	}
	return b.results, nil
}

func (b *poaBatch[S]) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != stateExecuted {
		return fmt.Errorf("%w: Reset in %v", ErrState, b.state)
	}
	if !b.done.Load() {
		return fmt.Errorf("%w: execution still in flight, sync the stream first", ErrState)
	}

	b.arena.Release()
	b.problems = nil
	b.results = nil
	b.state = stateEmpty
	b.done.Store(false)
	return nil
}

func (b *poaBatch[S]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.arena.Release()
	b.problems = nil
	b.results = nil
	b.state = stateClosed
	return nil
}

// ProblemsPerBatch reports how many problems of the given bounds fit a
// memory budget at the width NewBatch would choose. Zero means the budget
// cannot hold a batch at all
func ProblemsPerBatch(maxMem int64, size BatchSize, gap, mismatch, match int16, banded bool) int {
	size = size.withDefaults()
	if size.validate() != nil {
		return 0
	}

	var per int64
	if needsWideScore(size.MaxSeqLen, gap, mismatch, match) {
		b := &poaBatch[int32]{size: size, sc: scoring[int32]{banded: banded, bandWidth: size.BandWidth}}
		per = b.problemBytes()
	} else {
		b := &poaBatch[int16]{size: size, sc: scoring[int16]{banded: banded, bandWidth: size.BandWidth}}
		per = b.problemBytes()
	}
	if per <= 0 {
		return 0
	}
	return int(maxMem / per)
}
