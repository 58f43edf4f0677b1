package chainsync

import (
	"errors"
	"fmt"

	"github.com/selendra/selendra-finality/model/chain"
)

// ErrInvalidConfig is returned for a configuration the sync layer cannot run with.
var ErrInvalidConfig = errors.New("invalid sync configuration")

const (
	// DefaultMaxForestDepth limits how far above the top finalized block the
	// Forest tracks blocks.
	DefaultMaxForestDepth chain.BlockNumber = 1800

	// DefaultMaxJustificationBatch limits the number of justifications sent in
	// a single request response.
	DefaultMaxJustificationBatch = 100
)

type Config struct {
	SessionPeriod         chain.SessionPeriod // number of blocks in a session
	MaxForestDepth        chain.BlockNumber   // how far above the top finalized block the forest reaches
	MaxJustificationBatch int                 // the maximum number of justifications in a single response
}

func DefaultConfig() Config {
	return Config{
		SessionPeriod:         chain.DefaultSessionPeriod,
		MaxForestDepth:        DefaultMaxForestDepth,
		MaxJustificationBatch: DefaultMaxJustificationBatch,
	}
}

// Validate checks that every limit of the configuration is usable.
// Expected errors:
//   - ErrInvalidConfig naming the offending value
func (c Config) Validate() error {
	if c.SessionPeriod == 0 {
		return fmt.Errorf("%w: session period must be positive", ErrInvalidConfig)
	}
	if c.MaxForestDepth == 0 {
		return fmt.Errorf("%w: forest depth must be positive", ErrInvalidConfig)
	}
	if c.MaxJustificationBatch <= 0 {
		return fmt.Errorf("%w: justification batch must be positive, got %d", ErrInvalidConfig, c.MaxJustificationBatch)
	}
	return nil
}
