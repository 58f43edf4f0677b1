package abft

import (
	"context"

	"github.com/rs/zerolog"
)

// DataNetwork is a network of the committee sending values of type D.
type DataNetwork[D any] interface {
	// Send sends the data to the recipient. Sends are best effort.
	Send(data D, recipient Recipient) error

	// Next blocks until the next incoming data arrives. It returns false
	// once the network is closed or the context is done.
	Next(ctx context.Context) (D, bool)
}

// Network is the network interface a BFT engine version drives.
type Network[D any, R EngineRecipient] interface {
	Send(data D, recipient R)
	NextEvent(ctx context.Context) (D, bool)
}

// LegacyNetwork is the network interface of the legacy BFT engine.
type LegacyNetwork[D any] interface {
	Network[D, LegacyRecipient]
}

// CurrentNetwork is the network interface of the current BFT engine.
type CurrentNetwork[D any] interface {
	Network[D, CurrentRecipient]
}

var (
	_ LegacyNetwork[*LegacyNetworkData]   = (*Wrapper[*LegacyNetworkData, LegacyRecipient])(nil)
	_ CurrentNetwork[*CurrentNetworkData] = (*Wrapper[*CurrentNetworkData, CurrentRecipient])(nil)
)

// Wrapper exposes a data network to a BFT engine. Send failures are only
// logged: the engine resubmits lost data as part of its own protocol.
type Wrapper[D any, R EngineRecipient] struct {
	log   zerolog.Logger
	inner DataNetwork[D]
}

func NewWrapper[D any, R EngineRecipient](log zerolog.Logger, inner DataNetwork[D]) *Wrapper[D, R] {
	return &Wrapper[D, R]{
		log:   log.With().Str("component", "abft_network").Logger(),
		inner: inner,
	}
}

// NewLegacyWrapper wraps the network for the legacy BFT engine.
func NewLegacyWrapper[D any](log zerolog.Logger, inner DataNetwork[D]) *Wrapper[D, LegacyRecipient] {
	return NewWrapper[D, LegacyRecipient](log, inner)
}

// NewCurrentWrapper wraps the network for the current BFT engine.
func NewCurrentWrapper[D any](log zerolog.Logger, inner DataNetwork[D]) *Wrapper[D, CurrentRecipient] {
	return NewWrapper[D, CurrentRecipient](log, inner)
}

func (w *Wrapper[D, R]) Send(data D, recipient R) {
	target := recipient.Recipient()
	err := w.inner.Send(data, target)
	if err != nil {
		w.log.Warn().Err(err).Str("recipient", target.String()).Msg("error while sending a BFT message to the network")
	}
}

func (w *Wrapper[D, R]) NextEvent(ctx context.Context) (D, bool) {
	return w.inner.Next(ctx)
}
