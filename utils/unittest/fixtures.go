package unittest

import (
	"crypto/rand"
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
	libp2ptest "github.com/libp2p/go-libp2p/core/test"
	"github.com/stretchr/testify/require"

	"github.com/selendra/selendra-finality/model/chain"
)

// DefaultCommitteeSize is the size of the signature sets created by fixtures.
const DefaultCommitteeSize = 4

func HashFixture() chain.Hash {
	var h chain.Hash
	_, _ = rand.Read(h[:])
	return h
}

func BlockIDFixture(number chain.BlockNumber) chain.BlockID {
	return chain.NewBlockID(HashFixture(), number)
}

// GenesisFixture returns a genesis header with random roots.
func GenesisFixture() *chain.Header {
	return &chain.Header{
		StateRoot:      HashFixture(),
		ExtrinsicsRoot: HashFixture(),
	}
}

// HeaderFixture returns a random child of the given header.
func HeaderFixture(parent *chain.Header) *chain.Header {
	return &chain.Header{
		ParentHash:     parent.Hash(),
		Number:         parent.Number + 1,
		StateRoot:      HashFixture(),
		ExtrinsicsRoot: HashFixture(),
	}
}

// BranchFixture returns length consecutive descendants of the given header.
func BranchFixture(parent *chain.Header, length int) []*chain.Header {
	branch := make([]*chain.Header, 0, length)
	for i := 0; i < length; i++ {
		parent = HeaderFixture(parent)
		branch = append(branch, parent)
	}
	return branch
}

// SignatureSetFixture returns a set with a supermajority of random signatures.
func SignatureSetFixture(size int) *chain.SignatureSet {
	set := chain.NewSignatureSet(size)
	for i := 0; i < size*2/3+1; i++ {
		sig := make([]byte, 64)
		_, _ = rand.Read(sig)
		_ = set.Add(i, sig)
	}
	return set
}

// JustificationFixture returns a justification of the header with random signatures.
func JustificationFixture(header *chain.Header) *chain.Justification {
	if header.Number == 0 {
		return chain.GenesisJustification(*header)
	}
	return chain.NewJustification(*header, SignatureSetFixture(DefaultCommitteeSize))
}

// JustificationsFixture returns justifications for every given header.
func JustificationsFixture(headers []*chain.Header) []*chain.Justification {
	justifications := make([]*chain.Justification, 0, len(headers))
	for _, header := range headers {
		justifications = append(justifications, JustificationFixture(header))
	}
	return justifications
}

// PeerIDFixture returns a random valid peer identifier.
func PeerIDFixture(t testing.TB) peer.ID {
	id, err := libp2ptest.RandPeerID()
	require.NoError(t, err)
	return id
}

// PeerIDFixtures returns n random peer identifiers.
func PeerIDFixtures(t testing.TB, n int) []peer.ID {
	ids := make([]peer.ID, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, PeerIDFixture(t))
	}
	return ids
}
