package poa

import (
	"errors"
	"fmt"
)

// Sentinel errors for the batch lifecycle. Capacity signals are recoverable
// by the caller (start a new batch, or skip the problem); configuration and
// state errors indicate caller bugs; allocation failures from the device
// layer are fatal to the batch that hit them
var (
	// ErrConfiguration marks invalid or insufficient construction
	// parameters, detected before any work is enqueued
	ErrConfiguration = errors.New("invalid batch configuration")

	// ErrCapacity is the common ancestor of both capacity signals
	ErrCapacity = errors.New("batch capacity")

	// ErrBatchFull means the batch's remaining memory cannot take another
	// problem; prior problems are unaffected
	ErrBatchFull = fmt.Errorf("batch full: %w", ErrCapacity)

	// ErrProblemTooLarge means the problem exceeds the batch's per-problem
	// size bounds and would be rejected by any batch with these bounds
	ErrProblemTooLarge = fmt.Errorf("problem exceeds size bounds: %w", ErrCapacity)

	// ErrInput marks malformed sequence data, rejected at AddProblem
	ErrInput = errors.New("malformed input sequence")

	// ErrState marks a call that is not valid in the batch's current
	// lifecycle state
	ErrState = errors.New("invalid batch state")
)
