package stub

import (
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/selendra/selendra-finality/network"
)

// DefaultInboxSize is the number of undelivered payloads a network holds
// before dropping new ones.
const DefaultInboxSize = 4096

var _ network.GossipNetwork = (*Network)(nil)

// Network is an in-memory gossip network made for testing. Payloads are
// delivered directly into the inbox of the target network on the same Hub.
type Network struct {
	id      peer.ID
	hub     *Hub
	inbox   chan network.Message
	mu      sync.Mutex
	closed  bool
	sendErr error
	sent    []network.Message
}

// NewNetwork creates a network for the given peer and plugs it into the hub.
func NewNetwork(id peer.ID, hub *Hub) *Network {
	net := &Network{
		id:    id,
		hub:   hub,
		inbox: make(chan network.Message, DefaultInboxSize),
	}
	hub.Plug(net)
	return net
}

// ID returns the identifier of the peer owning the network.
func (n *Network) ID() peer.ID {
	return n.id
}

// FailSends makes every subsequent send fail with the given error, nil restores sending.
func (n *Network) FailSends(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sendErr = err
}

// Sent returns a copy of the payloads sent so far, with Origin set to the target.
func (n *Network) Sent() []network.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	sent := make([]network.Message, len(n.sent))
	copy(sent, n.sent)
	return sent
}

// Inject delivers a payload into the inbox as if the origin had sent it.
func (n *Network) Inject(payload []byte, origin peer.ID) {
	n.deliver(network.Message{Payload: payload, Origin: origin})
}

func (n *Network) deliver(msg network.Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return false
	}
	select {
	case n.inbox <- msg:
		return true
	default:
		return false
	}
}

func (n *Network) SendTo(payload []byte, target peer.ID) error {
	n.mu.Lock()
	sendErr := n.sendErr
	if sendErr == nil {
		n.sent = append(n.sent, network.Message{Payload: payload, Origin: target})
	}
	n.mu.Unlock()
	if sendErr != nil {
		return sendErr
	}

	receiver := n.hub.GetNetwork(target)
	if receiver == nil {
		return fmt.Errorf("peer %s not connected", target)
	}
	if !receiver.deliver(network.Message{Payload: payload, Origin: n.id}) {
		return fmt.Errorf("inbox of %s unavailable", target)
	}
	return nil
}

func (n *Network) Broadcast(payload []byte) error {
	for _, target := range n.hub.peers(n.id) {
		err := n.SendTo(payload, target)
		if err != nil {
			return err
		}
	}
	return nil
}

func (n *Network) Peers() []peer.ID {
	return n.hub.peers(n.id)
}

func (n *Network) Receive() <-chan network.Message {
	return n.inbox
}

// Close unplugs the network and closes its inbox.
func (n *Network) Close() {
	n.hub.Unplug(n.id)
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.closed {
		n.closed = true
		close(n.inbox)
	}
}
