package network

import (
	"errors"
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
)

var (
	// EmptyTargetList is returned when there is nobody to send a message to.
	EmptyTargetList = errors.New("target list empty")

	// ErrNetworkClosed is returned when sending on a stopped network.
	ErrNetworkClosed = errors.New("network closed")
)

// ErrUnknownVersion is returned for messages of a protocol version we do not speak.
type ErrUnknownVersion struct {
	version Version
	origin  peer.ID
}

func (e ErrUnknownVersion) Error() string {
	return fmt.Sprintf("unknown protocol version %d of message from %s", e.version, e.origin)
}

// NewUnknownVersionErr returns a new ErrUnknownVersion.
func NewUnknownVersionErr(version Version, origin peer.ID) ErrUnknownVersion {
	return ErrUnknownVersion{version: version, origin: origin}
}

// IsErrUnknownVersion returns whether an error is ErrUnknownVersion
func IsErrUnknownVersion(err error) bool {
	var e ErrUnknownVersion
	return errors.As(err, &e)
}

// ErrSend wraps a failure to send a message to a peer.
type ErrSend struct {
	target peer.ID
	err    error
}

func (e ErrSend) Error() string {
	return fmt.Sprintf("could not send to %s: %v", e.target, e.err)
}

func (e ErrSend) Unwrap() error {
	return e.err
}

// NewSendErr returns a new ErrSend.
func NewSendErr(target peer.ID, err error) ErrSend {
	return ErrSend{target: target, err: err}
}

// IsErrSend returns whether an error is ErrSend
func IsErrSend(err error) bool {
	var e ErrSend
	return errors.As(err, &e)
}
