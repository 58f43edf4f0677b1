package synchronization

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/module/chainsync"
	"github.com/selendra/selendra-finality/network"
)

const (
	// DefaultBroadcastPeriod is the longest time between two state broadcasts.
	DefaultBroadcastPeriod = time.Second
	// DefaultBroadcastCooldown is the shortest time between two state broadcasts.
	DefaultBroadcastCooldown = 200 * time.Millisecond
	// DefaultStallCheckPeriod is how often we check whether finalization moved.
	DefaultStallCheckPeriod = 30 * time.Second
)

// request cadence
const (
	immediateRequestDelay = 0
	delayedRequestDelay   = 500 * time.Millisecond
	backupRequestDelay    = 5 * time.Second
)

type Config struct {
	chainsync.Config
	BroadcastPeriod   time.Duration // longest time between two state broadcasts
	BroadcastCooldown time.Duration // shortest time between two state broadcasts
	StallCheckPeriod  time.Duration // how often finalization progress is checked
	Fanout            uint          // number of random peers a request is sent to
}

func DefaultConfig() *Config {
	return &Config{
		Config:            chainsync.DefaultConfig(),
		BroadcastPeriod:   DefaultBroadcastPeriod,
		BroadcastCooldown: DefaultBroadcastCooldown,
		StallCheckPeriod:  DefaultStallCheckPeriod,
		Fanout:            network.DefaultFanout,
	}
}

// Validate checks the configuration, including the embedded sync limits.
// Expected errors:
//   - chainsync.ErrInvalidConfig naming the offending value
func (c *Config) Validate() error {
	err := c.Config.Validate()
	if err != nil {
		return err
	}
	if c.BroadcastCooldown <= 0 || c.BroadcastCooldown >= c.BroadcastPeriod {
		return fmt.Errorf("%w: broadcast cooldown %s must be positive and below the period %s",
			chainsync.ErrInvalidConfig, c.BroadcastCooldown, c.BroadcastPeriod)
	}
	if c.StallCheckPeriod <= 0 {
		return fmt.Errorf("%w: stall check period must be positive", chainsync.ErrInvalidConfig)
	}
	if c.Fanout == 0 {
		return fmt.Errorf("%w: fanout must be positive", chainsync.ErrInvalidConfig)
	}
	return nil
}

// AddFlags binds the configuration to command line flags.
func (c *Config) AddFlags(flags *pflag.FlagSet) {
	flags.Uint32Var((*uint32)(&c.SessionPeriod), "sync-session-period", uint32(c.SessionPeriod), "number of blocks in a session")
	flags.Uint32Var((*uint32)(&c.MaxForestDepth), "sync-max-forest-depth", uint32(c.MaxForestDepth), "how far above the top finalized block unfinalized blocks are tracked")
	flags.IntVar(&c.MaxJustificationBatch, "sync-max-justification-batch", c.MaxJustificationBatch, "maximum number of justifications in a single response")
	flags.DurationVar(&c.BroadcastPeriod, "sync-broadcast-period", c.BroadcastPeriod, "longest time between two state broadcasts")
	flags.DurationVar(&c.BroadcastCooldown, "sync-broadcast-cooldown", c.BroadcastCooldown, "shortest time between two state broadcasts")
	flags.DurationVar(&c.StallCheckPeriod, "sync-stall-check-period", c.StallCheckPeriod, "how often finalization progress is checked")
	flags.UintVar(&c.Fanout, "sync-fanout", c.Fanout, "number of random peers a request is sent to")
}

type OptionFunc func(*Config)

// WithSessionPeriod sets the number of blocks in a session.
func WithSessionPeriod(period chain.SessionPeriod) OptionFunc {
	return func(cfg *Config) {
		cfg.SessionPeriod = period
	}
}

// WithMaxJustificationBatch limits the number of justifications in a response.
func WithMaxJustificationBatch(max int) OptionFunc {
	return func(cfg *Config) {
		cfg.MaxJustificationBatch = max
	}
}

// WithBroadcastPeriod sets the periodic state broadcast interval and the
// cooldown between broadcasts triggered by finalization.
func WithBroadcastPeriod(period, cooldown time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.BroadcastPeriod = period
		cfg.BroadcastCooldown = cooldown
	}
}

// WithStallCheckPeriod sets how often we check whether finalization is stuck.
func WithStallCheckPeriod(period time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.StallCheckPeriod = period
	}
}

// WithFanout sets the number of random peers each request is sent to.
func WithFanout(fanout uint) OptionFunc {
	return func(cfg *Config) {
		cfg.Fanout = fanout
	}
}
