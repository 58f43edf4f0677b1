package chain

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Header is the part of a block the finality layer reasons about.
type Header struct {
	ParentHash     Hash
	Number         BlockNumber
	StateRoot      Hash
	ExtrinsicsRoot Hash
}

// Hash returns the blake2b-256 hash of the header.
func (h *Header) Hash() Hash {
	buf := make([]byte, 0, 3*HashLength+4)
	buf = append(buf, h.ParentHash[:]...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(h.Number))
	buf = append(buf, h.StateRoot[:]...)
	buf = append(buf, h.ExtrinsicsRoot[:]...)
	return blake2b.Sum256(buf)
}

// ID returns the identifier of the block this header belongs to.
func (h *Header) ID() BlockID {
	return BlockID{Hash: h.Hash(), Number: h.Number}
}

// ParentID returns the identifier of the parent block. The second return value
// is false for the genesis header, which has no parent.
func (h *Header) ParentID() (BlockID, bool) {
	if h.Number == 0 {
		return BlockID{}, false
	}
	return BlockID{Hash: h.ParentHash, Number: h.Number - 1}, true
}
