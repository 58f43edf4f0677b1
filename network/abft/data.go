package abft

import (
	"github.com/selendra/selendra-finality/model/chain"
)

// Data is the unit of session data the BFT engine orders: a proposal to
// finalize the branch ending at Head.
type Data struct {
	Head   chain.BlockID   `cbor:"1,keyasint" msgpack:"head"`
	Branch []chain.BlockID `cbor:"2,keyasint" msgpack:"branch"`
}

// NetworkMessage is implemented by the network data of every BFT engine version.
type NetworkMessage interface {
	// IncludedData returns the session data carried by the message.
	IncludedData() []Data
}

// LegacyNetworkData is a message of the legacy BFT engine. Signatures are
// opaque to us and carried as they are.
type LegacyNetworkData struct {
	Round     uint16    `msgpack:"round"`
	Creator   NodeIndex `msgpack:"creator"`
	Data      []Data    `msgpack:"data"`
	Signature []byte    `msgpack:"signature"`
}

func (d *LegacyNetworkData) IncludedData() []Data {
	return d.Data
}

// CurrentNetworkData is a message of the current BFT engine.
type CurrentNetworkData struct {
	Round     uint16    `cbor:"1,keyasint"`
	Creator   NodeIndex `cbor:"2,keyasint"`
	Data      []Data    `cbor:"3,keyasint,omitempty"`
	Signature []byte    `cbor:"4,keyasint"`
	// Certificate is the aggregated signature set of the unit, if any.
	Certificate [][]byte `cbor:"5,keyasint,omitempty"`
}

func (d *CurrentNetworkData) IncludedData() []Data {
	return d.Data
}
