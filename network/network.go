package network

import (
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/selendra/selendra-finality/model/messages"
)

// Message is a raw payload received from a peer.
type Message struct {
	Payload []byte
	Origin  peer.ID
}

// GossipNetwork is the raw peer-to-peer layer the synchronization protocol
// runs on. Sends are best effort.
type GossipNetwork interface {
	// SendTo sends the payload to a single peer.
	SendTo(payload []byte, target peer.ID) error

	// Broadcast sends the payload to all connected peers.
	Broadcast(payload []byte) error

	// Peers returns the currently connected peers.
	Peers() []peer.ID

	// Receive returns the channel incoming messages are delivered on. The
	// channel is closed when the network shuts down.
	Receive() <-chan Message
}

// Network sends and decodes synchronization messages.
type Network interface {
	// SendTo sends the message to a single peer.
	SendTo(data messages.NetworkData, target peer.ID) error

	// SendToRandom sends the message to a few random peers among the
	// candidates, or among all connected peers if there are no candidates.
	SendToRandom(data messages.NetworkData, candidates []peer.ID) error

	// Broadcast sends the message to all connected peers.
	Broadcast(data messages.NetworkData) error

	// Receive returns the channel raw incoming messages are delivered on.
	Receive() <-chan Message

	// Decode decodes a raw incoming message.
	Decode(msg Message) (messages.NetworkData, error)
}
