package mocks

import (
	"errors"

	"github.com/selendra/selendra-finality/model/chain"
)

// ErrRejected is returned by a Verifier for rejected justifications.
var ErrRejected = errors.New("justification rejected")

// Verifier accepts every justification except the ones it was told to reject.
type Verifier struct {
	Rejected map[chain.Hash]struct{}
}

func NewVerifier() *Verifier {
	return &Verifier{Rejected: make(map[chain.Hash]struct{})}
}

// Reject makes the verifier reject justifications of the given block.
func (v *Verifier) Reject(id chain.BlockID) {
	v.Rejected[id.Hash] = struct{}{}
}

func (v *Verifier) Verify(justification *chain.Justification) (*chain.Justification, error) {
	if _, ok := v.Rejected[justification.ID().Hash]; ok {
		return nil, ErrRejected
	}
	return justification, nil
}
