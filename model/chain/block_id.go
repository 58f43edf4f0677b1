package chain

import (
	"encoding/hex"
	"fmt"
)

// HashLength is the length of a block hash in bytes.
const HashLength = 32

// Hash is a blake2b-256 block hash.
type Hash [HashLength]byte

// ZeroHash is the parent hash of the genesis header.
var ZeroHash = Hash{}

// HashFromBytes copies b into a Hash. It returns an error if b does not have
// exactly HashLength bytes.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashLength {
		return h, fmt.Errorf("invalid hash length %d, expected %d", len(b), HashLength)
	}
	copy(h[:], b)
	return h, nil
}

// String returns the hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// TerminalString returns a shortened hex encoding, for logs.
func (h Hash) TerminalString() string {
	return fmt.Sprintf("%x…%x", h[:3], h[HashLength-3:])
}

// BlockNumber is the height of a block in the chain.
type BlockNumber uint32

// BlockID identifies a block by its hash and number. It is an immutable value
// type used as the key of every knowledge tracking structure; two ids are
// equal iff their hashes are, ids are ordered by number.
type BlockID struct {
	Hash   Hash
	Number BlockNumber
}

// NewBlockID creates a block identifier.
func NewBlockID(hash Hash, number BlockNumber) BlockID {
	return BlockID{Hash: hash, Number: number}
}

// Equal reports whether both identifiers point at the same block.
func (id BlockID) Equal(other BlockID) bool {
	return id.Hash == other.Hash
}

// Less orders identifiers by block number.
func (id BlockID) Less(other BlockID) bool {
	return id.Number < other.Number
}

func (id BlockID) String() string {
	return fmt.Sprintf("#%d (%s)", id.Number, id.Hash.TerminalString())
}
