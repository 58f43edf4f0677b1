package blockimport

import (
	"errors"
	"fmt"
)

// SendStage tells at which step forwarding a justification failed.
type SendStage int

const (
	StageSend SendStage = iota
	StageConsensus
	StageDecode
	StageTranslate
)

func (s SendStage) String() string {
	switch s {
	case StageSend:
		return "send"
	case StageConsensus:
		return "consensus"
	case StageDecode:
		return "decode"
	case StageTranslate:
		return "translate"
	default:
		return "unknown"
	}
}

// SendJustificationError is returned when a justification cannot be
// forwarded to the sync service.
type SendJustificationError struct {
	Stage SendStage
	err   error
}

func NewSendJustificationError(stage SendStage, err error) error {
	return SendJustificationError{Stage: stage, err: err}
}

func (e SendJustificationError) Error() string {
	return fmt.Sprintf("could not forward justification (%s): %v", e.Stage, e.err)
}

func (e SendJustificationError) Unwrap() error {
	return e.err
}

// IsSendJustificationError returns whether the given error is a SendJustificationError.
func IsSendJustificationError(err error) bool {
	var e SendJustificationError
	return errors.As(err, &e)
}

// ConsensusError is the error the import pipeline gets from justification imports.
type ConsensusError struct {
	msg string
	err error
}

// NewClientImportError returns a ConsensusError describing a failed client side import.
func NewClientImportError(msg string, err error) error {
	return ConsensusError{msg: msg, err: err}
}

func (e ConsensusError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("import failed: %s", e.msg)
	}
	return fmt.Sprintf("import failed: %s: %v", e.msg, e.err)
}

func (e ConsensusError) Unwrap() error {
	return e.err
}

// IsConsensusError returns whether the given error is a ConsensusError.
func IsConsensusError(err error) bool {
	var e ConsensusError
	return errors.As(err, &e)
}
