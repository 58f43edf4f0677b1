package stub

import (
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"
)

// Hub connects in-memory networks so that they can deliver payloads to each
// other directly.
type Hub struct {
	mu       sync.RWMutex
	networks map[peer.ID]*Network
}

// NewNetworkHub returns a Hub without networks.
func NewNetworkHub() *Hub {
	return &Hub{
		networks: make(map[peer.ID]*Network),
	}
}

// GetNetwork returns the network of the given peer, nil if there is none.
func (hub *Hub) GetNetwork(id peer.ID) *Network {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return hub.networks[id]
}

// Plug stores the network in the hub, so that other networks can find it.
func (hub *Hub) Plug(net *Network) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.networks[net.ID()] = net
}

// Unplug disconnects the network from all others.
func (hub *Hub) Unplug(id peer.ID) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	delete(hub.networks, id)
}

// peers returns the identifiers of all networks but the given one.
func (hub *Hub) peers(except peer.ID) []peer.ID {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	peers := make([]peer.ID, 0, len(hub.networks))
	for id := range hub.networks {
		if id != except {
			peers = append(peers, id)
		}
	}
	return peers
}
