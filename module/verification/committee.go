package verification

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/model/encoding"
	"github.com/selendra/selendra-finality/module"
)

// DefaultCommitteeCacheSize is the number of session committees kept in memory.
const DefaultCommitteeCacheSize = 16

var (
	ErrGenesisMarker          = errors.New("only the genesis block can have a genesis justification")
	ErrCommitteeSizeMismatch  = errors.New("signature set does not match committee size")
	ErrInsufficientSignatures = errors.New("insufficient signatures")
	ErrInvalidSignature       = errors.New("invalid signature")
)

// CommitteeProvider returns the public keys of the committee of a session,
// ordered by node index.
type CommitteeProvider interface {
	Committee(session chain.SessionID) ([]ed25519.PublicKey, error)
}

var _ module.Verifier = (*CommitteeVerifier)(nil)

// CommitteeVerifier verifies that more than 2/3 of the committee of the
// session of the block signed its hash.
type CommitteeVerifier struct {
	period     chain.SessionPeriod
	provider   CommitteeProvider
	committees *lru.Cache[chain.SessionID, []ed25519.PublicKey]
}

func NewCommitteeVerifier(period chain.SessionPeriod, provider CommitteeProvider) (*CommitteeVerifier, error) {
	committees, err := lru.New[chain.SessionID, []ed25519.PublicKey](DefaultCommitteeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create committee cache: %w", err)
	}
	return &CommitteeVerifier{
		period:     period,
		provider:   provider,
		committees: committees,
	}, nil
}

// SigningMessage returns the message committee members sign to finalize the block.
func SigningMessage(hash chain.Hash) []byte {
	msg := make([]byte, 0, len(encoding.JustificationTag)+chain.HashLength)
	msg = append(msg, encoding.JustificationTag...)
	return append(msg, hash[:]...)
}

// Sign signs the block hash as a committee member.
func Sign(key ed25519.PrivateKey, hash chain.Hash) []byte {
	return ed25519.Sign(key, SigningMessage(hash))
}

func (v *CommitteeVerifier) committee(session chain.SessionID) ([]ed25519.PublicKey, error) {
	if committee, ok := v.committees.Get(session); ok {
		return committee, nil
	}
	committee, err := v.provider.Committee(session)
	if err != nil {
		return nil, fmt.Errorf("could not get committee of session %d: %w", session, err)
	}
	v.committees.Add(session, committee)
	return committee, nil
}

// Verify checks the certificate of the justification.
// Expected errors during normal operations:
//   - ErrGenesisMarker if a non genesis block carries the genesis marker
//   - ErrCommitteeSizeMismatch, ErrInsufficientSignatures or ErrInvalidSignature for bad certificates
//   - any error of the committee provider
func (v *CommitteeVerifier) Verify(justification *chain.Justification) (*chain.Justification, error) {
	id := justification.ID()
	if justification.IsGenesis() {
		if id.Number != 0 {
			return nil, ErrGenesisMarker
		}
		return justification, nil
	}

	committee, err := v.committee(v.period.SessionOf(id.Number))
	if err != nil {
		return nil, err
	}
	signatures := justification.Signatures
	if signatures.Size() != len(committee) {
		return nil, fmt.Errorf("%w: %d signatures for committee of %d", ErrCommitteeSizeMismatch, signatures.Size(), len(committee))
	}

	msg := SigningMessage(id.Hash)
	count := 0
	for i, signature := range signatures.Signatures {
		if signature == nil {
			continue
		}
		if !ed25519.Verify(committee[i], msg, signature) {
			return nil, fmt.Errorf("%w: member %d", ErrInvalidSignature, i)
		}
		count++
	}
	if 3*count <= 2*len(committee) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInsufficientSignatures, count, len(committee))
	}
	return justification, nil
}
