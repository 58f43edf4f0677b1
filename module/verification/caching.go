package verification

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/module"
)

// DefaultVerifiedCacheSize is the number of verified justifications remembered.
const DefaultVerifiedCacheSize = 1024

var _ module.Verifier = (*CachingVerifier)(nil)

// CachingVerifier remembers verified justifications by block hash, so the
// same block announced by many peers is only verified once. A cached block
// yields the justification that was verified for it.
type CachingVerifier struct {
	inner    module.Verifier
	verified *lru.Cache[chain.Hash, *chain.Justification]
}

func NewCachingVerifier(inner module.Verifier, size int) (*CachingVerifier, error) {
	verified, err := lru.New[chain.Hash, *chain.Justification](size)
	if err != nil {
		return nil, fmt.Errorf("could not create verification cache: %w", err)
	}
	return &CachingVerifier{
		inner:    inner,
		verified: verified,
	}, nil
}

func (v *CachingVerifier) Verify(justification *chain.Justification) (*chain.Justification, error) {
	hash := justification.ID().Hash
	if verified, ok := v.verified.Get(hash); ok {
		return verified, nil
	}
	verified, err := v.inner.Verify(justification)
	if err != nil {
		return nil, err
	}
	v.verified.Add(hash, verified)
	return verified, nil
}
