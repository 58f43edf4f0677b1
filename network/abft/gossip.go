package abft

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"

	"github.com/selendra/selendra-finality/model/encoding"
	"github.com/selendra/selendra-finality/model/encoding/cbor"
	"github.com/selendra/selendra-finality/model/encoding/msgpack"
	"github.com/selendra/selendra-finality/network"
)

var _ DataNetwork[*CurrentNetworkData] = (*GossipDataNetwork[*CurrentNetworkData])(nil)

// GossipDataNetwork runs a data network of the session committee on top of a
// gossip network. Members are addressed by their index in the committee.
type GossipDataNetwork[D any] struct {
	log       zerolog.Logger
	gossip    network.GossipNetwork
	encoder   encoding.Encoder
	self      peer.ID
	committee []peer.ID
	indices   map[peer.ID]NodeIndex
}

func NewGossipDataNetwork[D any](
	log zerolog.Logger,
	gossip network.GossipNetwork,
	encoder encoding.Encoder,
	self peer.ID,
	committee []peer.ID,
) *GossipDataNetwork[D] {
	indices := make(map[peer.ID]NodeIndex, len(committee))
	for i, member := range committee {
		indices[member] = NodeIndex(i)
	}
	return &GossipDataNetwork[D]{
		log:       log.With().Str("component", "abft_gossip").Logger(),
		gossip:    gossip,
		encoder:   encoder,
		self:      self,
		committee: committee,
		indices:   indices,
	}
}

// NewLegacyDataNetwork returns the msgpack data network of the legacy engine.
func NewLegacyDataNetwork(log zerolog.Logger, gossip network.GossipNetwork, self peer.ID, committee []peer.ID) *GossipDataNetwork[*LegacyNetworkData] {
	return NewGossipDataNetwork[*LegacyNetworkData](log, gossip, msgpack.NewEncoder(), self, committee)
}

// NewCurrentDataNetwork returns the CBOR data network of the current engine.
func NewCurrentDataNetwork(log zerolog.Logger, gossip network.GossipNetwork, self peer.ID, committee []peer.ID) *GossipDataNetwork[*CurrentNetworkData] {
	return NewGossipDataNetwork[*CurrentNetworkData](log, gossip, cbor.NewEncoder(), self, committee)
}

// Send encodes the data once and sends it to the addressed committee members.
// Failures of individual sends are aggregated.
func (n *GossipDataNetwork[D]) Send(data D, recipient Recipient) error {
	payload, err := n.encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("could not encode data: %w", err)
	}

	index, single := recipient.Target()
	if single {
		if int(index) >= len(n.committee) {
			return fmt.Errorf("recipient %d outside of committee of size %d", index, len(n.committee))
		}
		return n.gossip.SendTo(payload, n.committee[index])
	}

	var errs *multierror.Error
	for _, member := range n.committee {
		if member == n.self {
			continue
		}
		err := n.gossip.SendTo(payload, member)
		if err != nil {
			errs = multierror.Append(errs, network.NewSendErr(member, err))
		}
	}
	return errs.ErrorOrNil()
}

// Next returns the next decodable message sent by a committee member.
// Messages from outside the committee and undecodable ones are dropped.
func (n *GossipDataNetwork[D]) Next(ctx context.Context) (D, bool) {
	var zero D
	for {
		select {
		case <-ctx.Done():
			return zero, false
		case msg, ok := <-n.gossip.Receive():
			if !ok {
				return zero, false
			}
			if _, member := n.indices[msg.Origin]; !member {
				n.log.Debug().Str("origin", msg.Origin.String()).Msg("dropping message from outside the committee")
				continue
			}
			var data D
			err := n.encoder.Decode(msg.Payload, &data)
			if err != nil {
				n.log.Warn().Err(err).Str("origin", msg.Origin.String()).Msg("could not decode BFT message")
				continue
			}
			return data, true
		}
	}
}
