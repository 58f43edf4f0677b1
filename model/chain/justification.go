package chain

import (
	"fmt"
)

// SignatureSet is the certificate produced by the BFT engine for a block: the
// signature of committee member i is stored at index i, absent signatures are
// nil.
type SignatureSet struct {
	Signatures [][]byte
}

// NewSignatureSet creates an empty signature set for a committee of the given size.
func NewSignatureSet(size int) *SignatureSet {
	return &SignatureSet{Signatures: make([][]byte, size)}
}

// Add stores the signature of the committee member with the given index.
func (s *SignatureSet) Add(index int, signature []byte) error {
	if index < 0 || index >= len(s.Signatures) {
		return fmt.Errorf("signer index %d out of range [0, %d)", index, len(s.Signatures))
	}
	s.Signatures[index] = signature
	return nil
}

// Count returns the number of present signatures.
func (s *SignatureSet) Count() int {
	count := 0
	for _, sig := range s.Signatures {
		if sig != nil {
			count++
		}
	}
	return count
}

// Size returns the committee size the set was created for.
func (s *SignatureSet) Size() int {
	return len(s.Signatures)
}

// Justification proves that a block was finalized. It holds the header of the
// block plus either a BFT certificate over it, or the genesis marker (nil
// Signatures), which only the genesis block may carry.
type Justification struct {
	Header     Header
	Signatures *SignatureSet
}

// NewJustification creates a justification backed by a BFT certificate.
func NewJustification(header Header, signatures *SignatureSet) *Justification {
	return &Justification{Header: header, Signatures: signatures}
}

// GenesisJustification creates the virtual justification of the genesis block.
func GenesisJustification(header Header) *Justification {
	return &Justification{Header: header}
}

// IsGenesis returns true if the justification carries the genesis marker.
func (j *Justification) IsGenesis() bool {
	return j.Signatures == nil
}

// ID returns the identifier of the justified block.
func (j *Justification) ID() BlockID {
	return j.Header.ID()
}

// ParentID returns the identifier of the parent of the justified block.
func (j *Justification) ParentID() (BlockID, bool) {
	return j.Header.ParentID()
}

func (j *Justification) String() string {
	if j.IsGenesis() {
		return fmt.Sprintf("genesis justification for %s", j.ID())
	}
	return fmt.Sprintf("justification for %s (%d signatures)", j.ID(), j.Signatures.Count())
}
