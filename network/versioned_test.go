package network_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selendra/selendra-finality/model/messages"
	"github.com/selendra/selendra-finality/network"
	"github.com/selendra/selendra-finality/network/codec"
	"github.com/selendra/selendra-finality/network/stub"
	"github.com/selendra/selendra-finality/utils/unittest"
)

func stateBroadcast() messages.NetworkData {
	header := unittest.HeaderFixture(unittest.GenesisFixture())
	return &messages.StateBroadcast{State: messages.NewState(unittest.JustificationFixture(header))}
}

func legacyPayload(t *testing.T, data messages.NetworkData) []byte {
	body, err := codec.NewLegacyCodec().Encode(data)
	require.NoError(t, err)
	payload := make([]byte, 2)
	binary.BigEndian.PutUint16(payload, uint16(network.Legacy))
	return append(payload, body...)
}

func versionOf(payload []byte) network.Version {
	return network.Version(binary.BigEndian.Uint16(payload))
}

// TestVersionWrapper_AnswersInPeerVersion verifies peers get answers in the
// version they last spoke, and the current version by default.
func TestVersionWrapper_AnswersInPeerVersion(t *testing.T) {
	hub := stub.NewNetworkHub()
	peers := unittest.PeerIDFixtures(t, 3)
	local := stub.NewNetwork(peers[0], hub)
	legacyPeer := stub.NewNetwork(peers[1], hub)
	currentPeer := stub.NewNetwork(peers[2], hub)
	wrapper := network.NewVersionWrapper(unittest.Logger(), local, network.DefaultFanout)

	msg := stateBroadcast()
	decoded, err := wrapper.Decode(network.Message{Payload: legacyPayload(t, msg), Origin: legacyPeer.ID()})
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)

	require.NoError(t, wrapper.SendTo(msg, legacyPeer.ID()))
	require.NoError(t, wrapper.SendTo(msg, currentPeer.ID()))

	received := <-legacyPeer.Receive()
	assert.Equal(t, network.Legacy, versionOf(received.Payload))
	assert.Equal(t, local.ID(), received.Origin)
	received = <-currentPeer.Receive()
	assert.Equal(t, network.Current, versionOf(received.Payload))

	decoded, err = network.NewVersionWrapper(unittest.Logger(), currentPeer, 1).Decode(received)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

// TestVersionWrapper_Broadcast verifies legacy peers get an extra legacy copy.
func TestVersionWrapper_Broadcast(t *testing.T) {
	hub := stub.NewNetworkHub()
	peers := unittest.PeerIDFixtures(t, 3)
	local := stub.NewNetwork(peers[0], hub)
	legacyPeer := stub.NewNetwork(peers[1], hub)
	currentPeer := stub.NewNetwork(peers[2], hub)
	wrapper := network.NewVersionWrapper(unittest.Logger(), local, network.DefaultFanout)

	msg := stateBroadcast()
	_, err := wrapper.Decode(network.Message{Payload: legacyPayload(t, msg), Origin: legacyPeer.ID()})
	require.NoError(t, err)

	require.NoError(t, wrapper.Broadcast(msg))
	require.Len(t, legacyPeer.Receive(), 2)
	require.Len(t, currentPeer.Receive(), 1)
	assert.Equal(t, network.Current, versionOf((<-legacyPeer.Receive()).Payload))
	assert.Equal(t, network.Legacy, versionOf((<-legacyPeer.Receive()).Payload))
}

func TestVersionWrapper_SendToRandom(t *testing.T) {
	hub := stub.NewNetworkHub()
	peers := unittest.PeerIDFixtures(t, 6)
	local := stub.NewNetwork(peers[0], hub)
	for _, id := range peers[1:] {
		stub.NewNetwork(id, hub)
	}
	wrapper := network.NewVersionWrapper(unittest.Logger(), local, network.DefaultFanout)

	require.NoError(t, wrapper.SendToRandom(stateBroadcast(), peers[1:3]))
	sent := local.Sent()
	require.Len(t, sent, 2, "fewer candidates than fanout")
	assert.ElementsMatch(t, peers[1:3], []peer.ID{sent[0].Origin, sent[1].Origin})

	require.NoError(t, wrapper.SendToRandom(stateBroadcast(), nil))
	assert.Len(t, local.Sent(), 2+network.DefaultFanout, "any peer when no candidates")
}

func TestVersionWrapper_SendFailures(t *testing.T) {
	hub := stub.NewNetworkHub()
	peers := unittest.PeerIDFixtures(t, 3)
	local := stub.NewNetwork(peers[0], hub)
	wrapper := network.NewVersionWrapper(unittest.Logger(), local, network.DefaultFanout)

	err := wrapper.SendToRandom(stateBroadcast(), nil)
	assert.ErrorIs(t, err, network.EmptyTargetList)

	stub.NewNetwork(peers[1], hub)
	stub.NewNetwork(peers[2], hub)
	errUnreachable := errors.New("unreachable")
	local.FailSends(errUnreachable)

	err = wrapper.SendToRandom(stateBroadcast(), peers[1:])
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.True(t, network.IsErrSend(err))
	assert.ErrorIs(t, err, errUnreachable)
}

func TestVersionWrapper_DecodeErrors(t *testing.T) {
	hub := stub.NewNetworkHub()
	peers := unittest.PeerIDFixtures(t, 2)
	wrapper := network.NewVersionWrapper(unittest.Logger(), stub.NewNetwork(peers[0], hub), 1)

	_, err := wrapper.Decode(network.Message{Payload: []byte{0x00}, Origin: peers[1]})
	assert.ErrorIs(t, err, codec.ErrEmptyMessage)

	_, err = wrapper.Decode(network.Message{Payload: []byte{0x00, 0x07, codec.CodeStateBroadcast}, Origin: peers[1]})
	assert.True(t, network.IsErrUnknownVersion(err))

	// an undecodable message does not change the peer version
	_, err = wrapper.Decode(network.Message{Payload: []byte{0x00, 0x02, codec.CodeRequest, 0xc1}, Origin: peers[1]})
	assert.True(t, codec.IsDecodeError(err))
}
