package chainsync

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestBelowHorizon is returned for requests targeting a block the
	// requester already considers finalized.
	ErrRequestBelowHorizon = errors.New("request target at or below the requester's finalized block")

	// ErrTooOld is returned by the Forest for blocks at or below its root.
	ErrTooOld = errors.New("block at or below the top finalized block")

	// ErrTooNew is returned by the Forest for blocks beyond its depth limit.
	ErrTooNew = errors.New("block too far above the top finalized block")

	// ErrConflictingBranch is returned by the Forest for headers conflicting
	// with the top finalized block.
	ErrConflictingBranch = errors.New("header conflicts with the top finalized block")
)

// ChainStatusError wraps failures of the local chain store.
type ChainStatusError struct {
	err error
}

func NewChainStatusError(err error) error {
	return ChainStatusError{err: err}
}

func (e ChainStatusError) Error() string {
	return fmt.Sprintf("chain status error: %v", e.err)
}

func (e ChainStatusError) Unwrap() error {
	return e.err
}

// IsChainStatusError returns whether the given error is a ChainStatusError.
func IsChainStatusError(err error) bool {
	var e ChainStatusError
	return errors.As(err, &e)
}

// VerificationError is returned when a justification fails verification.
type VerificationError struct {
	err error
}

func NewVerificationError(err error) error {
	return VerificationError{err: err}
}

func (e VerificationError) Error() string {
	return fmt.Sprintf("justification verification failed: %v", e.err)
}

func (e VerificationError) Unwrap() error {
	return e.err
}

// IsVerificationError returns whether the given error is a VerificationError.
func IsVerificationError(err error) bool {
	var e VerificationError
	return errors.As(err, &e)
}

// FinalizationError wraps failures of the Finalizer.
type FinalizationError struct {
	err error
}

func NewFinalizationError(err error) error {
	return FinalizationError{err: err}
}

func (e FinalizationError) Error() string {
	return fmt.Sprintf("finalization failed: %v", e.err)
}

func (e FinalizationError) Unwrap() error {
	return e.err
}

// IsFinalizationError returns whether the given error is a FinalizationError.
func IsFinalizationError(err error) bool {
	var e FinalizationError
	return errors.As(err, &e)
}
