package mocks

import (
	"fmt"
	"sync"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/module"
	"github.com/selendra/selendra-finality/storage"
)

const notificationBuffer = 4096

// Chain is an in-memory chain store. It keeps every header it was given,
// tracks which blocks are imported and the finalized chain with one
// justification per block, and emits chain status notifications.
type Chain struct {
	mu            sync.RWMutex
	headers       map[chain.Hash]*chain.Header
	imported      map[chain.Hash]bool
	children      map[chain.Hash][]*chain.Header
	finalized     []*chain.Justification
	notifications chan module.ChainStatusNotification
}

var _ module.ChainStatus = (*Chain)(nil)
var _ module.HeaderBackend = (*Chain)(nil)
var _ module.Finalizer = (*Chain)(nil)
var _ module.ChainStatusNotifier = (*Chain)(nil)
var _ module.SelectChain = (*Chain)(nil)

// NewChain creates a chain with the given genesis imported and finalized.
func NewChain(genesis *chain.Header) *Chain {
	c := &Chain{
		headers:       make(map[chain.Hash]*chain.Header),
		imported:      make(map[chain.Hash]bool),
		children:      make(map[chain.Hash][]*chain.Header),
		notifications: make(chan module.ChainStatusNotification, notificationBuffer),
	}
	hash := genesis.Hash()
	c.headers[hash] = genesis
	c.imported[hash] = true
	c.finalized = []*chain.Justification{chain.GenesisJustification(*genesis)}
	return c
}

// Import imports the blocks in order. Parents must be imported first.
func (c *Chain) Import(headers ...*chain.Header) error {
	for _, header := range headers {
		err := c.importOne(header)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Chain) importOne(header *chain.Header) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := header.Hash()
	if c.imported[hash] {
		return nil
	}
	if !c.imported[header.ParentHash] {
		return fmt.Errorf("parent of %s not imported", header.ID())
	}
	c.headers[hash] = header
	c.imported[hash] = true
	c.children[header.ParentHash] = append(c.children[header.ParentHash], header)

	select {
	case c.notifications <- module.ChainStatusNotification{Kind: module.BlockImported, Header: header}:
	default:
	}
	return nil
}

// AddHeader records a header without importing the block.
func (c *Chain) AddHeader(header *chain.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[header.Hash()] = header
}

func (c *Chain) TopFinalized() (*chain.Justification, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.finalized[len(c.finalized)-1], nil
}

func (c *Chain) BlockStatus(id chain.BlockID) (chain.BlockStatus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.imported[id.Hash] {
		return chain.BlockStatusImported, nil
	}
	if _, ok := c.headers[id.Hash]; ok {
		return chain.BlockStatusHeaderOnly, nil
	}
	return chain.BlockStatusUnknown, nil
}

func (c *Chain) FinalizedAt(number chain.BlockNumber) (*chain.Justification, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if int(number) >= len(c.finalized) {
		return nil, storage.ErrNotFound
	}
	return c.finalized[number], nil
}

func (c *Chain) Children(id chain.BlockID) ([]*chain.Header, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	children := c.children[id.Hash]
	result := make([]*chain.Header, len(children))
	copy(result, children)
	return result, nil
}

func (c *Chain) Header(id chain.BlockID) (*chain.Header, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	header, ok := c.headers[id.Hash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return header, nil
}

// Finalize finalizes the block of the justification together with its
// unfinalized ancestors. Ancestors get a justification carrying the same
// signature set.
func (c *Chain) Finalize(justification *chain.Justification) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	top := c.finalized[len(c.finalized)-1].ID()
	id := justification.ID()
	if id.Number <= top.Number {
		return fmt.Errorf("block %s not above top finalized %s", id, top)
	}
	if !c.imported[id.Hash] {
		return fmt.Errorf("block %s not imported", id)
	}

	branch := []*chain.Justification{justification}
	for current := justification.Header; current.Number > top.Number+1; {
		parent, ok := c.headers[current.ParentHash]
		if !ok {
			return fmt.Errorf("missing ancestor of %s", id)
		}
		branch = append(branch, chain.NewJustification(*parent, justification.Signatures))
		current = *parent
	}
	if branch[len(branch)-1].Header.ParentHash != top.Hash {
		return fmt.Errorf("block %s does not descend from top finalized %s", id, top)
	}
	for i := len(branch) - 1; i >= 0; i-- {
		c.finalized = append(c.finalized, branch[i])
	}

	select {
	case c.notifications <- module.ChainStatusNotification{Kind: module.BlockFinalized, Header: &justification.Header}:
	default:
	}
	return nil
}

// BestChain returns the highest imported header.
func (c *Chain) BestChain() (*chain.Header, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var best *chain.Header
	for hash := range c.imported {
		header := c.headers[hash]
		if best == nil || header.Number > best.Number {
			best = header
		}
	}
	return best, nil
}

func (c *Chain) Notifications() <-chan module.ChainStatusNotification {
	return c.notifications
}

// ImportAndFinalize imports the blocks and finalizes the last one.
func (c *Chain) ImportAndFinalize(justify func(*chain.Header) *chain.Justification, headers ...*chain.Header) error {
	err := c.Import(headers...)
	if err != nil {
		return err
	}
	return c.Finalize(justify(headers[len(headers)-1]))
}
