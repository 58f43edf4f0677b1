package network

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"

	"github.com/selendra/selendra-finality/model/messages"
	"github.com/selendra/selendra-finality/network/codec"
	"github.com/selendra/selendra-finality/utils/rand"
)

// Version of the synchronization protocol. Every payload starts with the
// big endian version, followed by the message encoded for that version.
type Version uint16

const (
	Legacy  Version = 2
	Current Version = 3
)

const versionLength = 2

// DefaultFanout is the number of random peers a message is sent to.
const DefaultFanout = 3

var _ Network = (*VersionWrapper)(nil)

// VersionWrapper speaks every supported protocol version on top of a gossip
// network. It answers each peer in the version the peer last spoke, and
// broadcasts in the current version plus a legacy copy to legacy-only peers.
type VersionWrapper struct {
	log          zerolog.Logger
	gossip       GossipNetwork
	codecs       map[Version]*codec.Codec
	fanout       uint
	mu           sync.RWMutex
	peerVersions map[peer.ID]Version
}

// NewVersionWrapper wraps the gossip network.
func NewVersionWrapper(log zerolog.Logger, gossip GossipNetwork, fanout uint) *VersionWrapper {
	return &VersionWrapper{
		log:    log.With().Str("component", "versioned_network").Logger(),
		gossip: gossip,
		codecs: map[Version]*codec.Codec{
			Legacy:  codec.NewLegacyCodec(),
			Current: codec.NewCurrentCodec(),
		},
		fanout:       fanout,
		peerVersions: make(map[peer.ID]Version),
	}
}

func (w *VersionWrapper) encode(data messages.NetworkData, version Version) ([]byte, error) {
	c, ok := w.codecs[version]
	if !ok {
		return nil, fmt.Errorf("cannot encode for unknown version %d", version)
	}
	body, err := c.Encode(data)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, versionLength, versionLength+len(body))
	binary.BigEndian.PutUint16(payload, uint16(version))
	return append(payload, body...), nil
}

// versionOf returns the version the peer last spoke, the current one by default.
func (w *VersionWrapper) versionOf(target peer.ID) Version {
	w.mu.RLock()
	defer w.mu.RUnlock()
	version, ok := w.peerVersions[target]
	if !ok {
		return Current
	}
	return version
}

// Decode decodes the payload and remembers the version the origin speaks.
// Expected errors during normal operations:
//   - ErrUnknownVersion for payloads of unknown versions
//   - codec errors for payloads that cannot be decoded
func (w *VersionWrapper) Decode(msg Message) (messages.NetworkData, error) {
	if len(msg.Payload) < versionLength {
		return nil, codec.ErrEmptyMessage
	}
	version := Version(binary.BigEndian.Uint16(msg.Payload))
	c, ok := w.codecs[version]
	if !ok {
		return nil, NewUnknownVersionErr(version, msg.Origin)
	}
	data, err := c.Decode(msg.Payload[versionLength:])
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.peerVersions[msg.Origin] = version
	w.mu.Unlock()
	return data, nil
}

func (w *VersionWrapper) Receive() <-chan Message {
	return w.gossip.Receive()
}

func (w *VersionWrapper) SendTo(data messages.NetworkData, target peer.ID) error {
	payload, err := w.encode(data, w.versionOf(target))
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", messages.MessageType(data), err)
	}
	err = w.gossip.SendTo(payload, target)
	if err != nil {
		return NewSendErr(target, err)
	}
	return nil
}

func (w *VersionWrapper) SendToRandom(data messages.NetworkData, candidates []peer.ID) error {
	if len(candidates) == 0 {
		candidates = w.gossip.Peers()
	}
	if len(candidates) == 0 {
		return EmptyTargetList
	}
	targets, err := rand.SampleSlice(candidates, w.fanout)
	if err != nil {
		return fmt.Errorf("could not sample targets: %w", err)
	}

	var errs *multierror.Error
	for _, target := range targets {
		errs = multierror.Append(errs, w.SendTo(data, target))
	}
	return errs.ErrorOrNil()
}

func (w *VersionWrapper) Broadcast(data messages.NetworkData) error {
	payload, err := w.encode(data, Current)
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", messages.MessageType(data), err)
	}

	var errs *multierror.Error
	errs = multierror.Append(errs, w.gossip.Broadcast(payload))

	legacy := w.legacyPeers()
	if len(legacy) > 0 {
		legacyPayload, err := w.encode(data, Legacy)
		if err != nil {
			return fmt.Errorf("could not encode legacy %s: %w", messages.MessageType(data), err)
		}
		for _, target := range legacy {
			err = w.gossip.SendTo(legacyPayload, target)
			if err != nil {
				errs = multierror.Append(errs, NewSendErr(target, err))
			}
		}
	}
	return errs.ErrorOrNil()
}

// legacyPeers returns the connected peers that speak only the legacy version,
// and forgets versions of disconnected peers.
func (w *VersionWrapper) legacyPeers() []peer.ID {
	connected := make(map[peer.ID]struct{})
	for _, p := range w.gossip.Peers() {
		connected[p] = struct{}{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	var legacy []peer.ID
	for p, version := range w.peerVersions {
		if _, ok := connected[p]; !ok {
			delete(w.peerVersions, p)
			continue
		}
		if version == Legacy {
			legacy = append(legacy, p)
		}
	}
	return legacy
}
