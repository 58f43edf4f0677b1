package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"go.uber.org/atomic"
)

const (
	// ChunkSize is the number of keys fetched per page.
	ChunkSize = 1000
	// StorageCap bounds the number of streamed keys not yet consumed.
	StorageCap = 10 * ChunkSize
)

// the node reports empty child storage as this error
const invalidChildStorageKey = "Client error: Invalid child storage key"

const emptyPrefix StorageKey = "0x"

// ErrClosed is returned for calls on a closed client.
var ErrClosed = errors.New("client closed")

type Config struct {
	RetryBase     time.Duration // first delay between attempts to fetch a storage value
	RetryMaxDelay time.Duration // longest delay between attempts
	RetryTimeout  time.Duration // total time after which fetching a value is given up
}

func DefaultConfig() *Config {
	return &Config{
		RetryBase:     500 * time.Millisecond,
		RetryMaxDelay: time.Minute,
		RetryTimeout:  15 * time.Minute,
	}
}

type OptionFunc func(*Config)

// WithRetry sets the backoff of storage fetches.
func WithRetry(base, maxDelay, timeout time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.RetryBase = base
		cfg.RetryMaxDelay = maxDelay
		cfg.RetryTimeout = timeout
	}
}

// Client is a JSON-RPC client of a node, multiplexing concurrent calls over a
// single websocket connection. It is safe for concurrent use.
type Client struct {
	log    zerolog.Logger
	config *Config
	conn   *websocket.Conn

	writeMu sync.Mutex
	mu      sync.Mutex
	pending map[uint64]chan response
	err     error
	nextID  *atomic.Uint64
	done    chan struct{}
}

// Dial connects to the websocket endpoint of a node, e.g. "ws://127.0.0.1:9944".
func Dial(ctx context.Context, log zerolog.Logger, endpoint string, opts ...OptionFunc) (*Client, error) {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(config)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", endpoint, err)
	}
	c := &Client{
		log:     log.With().Str("component", "jsonrpc_client").Str("endpoint", endpoint).Logger(),
		config:  config,
		conn:    conn,
		pending: make(map[uint64]chan response),
		nextID:  atomic.NewUint64(0),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// readLoop delivers responses to the waiting calls until the connection breaks.
func (c *Client) readLoop() {
	defer close(c.done)
	for {
		var resp response
		err := c.conn.ReadJSON(&resp)
		if err != nil {
			c.mu.Lock()
			c.err = err
			c.pending = nil
			c.mu.Unlock()
			c.log.Debug().Err(err).Msg("connection closed")
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()
		if !ok {
			c.log.Warn().Uint64("id", resp.ID).Msg("response to unknown request")
			continue
		}
		ch <- resp
	}
}

// Close closes the connection and waits for the reader to stop.
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Client) call(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	id := c.nextID.Inc()
	ch := make(chan response, 1)

	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrClosed, c.err)
	}
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(request{JSONRPC: version, ID: id, Method: method, Params: params})
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return fmt.Errorf("could not send %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		c.forget(id)
		return ctx.Err()
	case <-c.done:
		return fmt.Errorf("%w while waiting for %s", ErrClosed, method)
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if result == nil {
			return nil
		}
		err = json.Unmarshal(resp.Result, result)
		if err != nil {
			return fmt.Errorf("could not decode result of %s: %w", method, err)
		}
		return nil
	}
}

func (c *Client) forget(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		delete(c.pending, id)
	}
}

// BestBlock returns the hash of the best known block.
func (c *Client) BestBlock(ctx context.Context) (BlockHash, error) {
	var hash BlockHash
	err := c.call(ctx, &hash, "chain_getBlockHash", nil)
	return hash, err
}

func (c *Client) keysPaged(ctx context.Context, startKey *StorageKey, at BlockHash) ([]StorageKey, error) {
	var keys []StorageKey
	err := c.call(ctx, &keys, "state_getKeysPaged", emptyPrefix, ChunkSize, startKey, at)
	return keys, err
}

// StreamAllKeys returns a channel of all storage keys of the block, and the
// function that fetches them. The keys arrive on the channel once fetch is
// running, and the channel is closed when fetch returns.
func (c *Client) StreamAllKeys(at BlockHash) (<-chan StorageKey, func(ctx context.Context) error) {
	keys := make(chan StorageKey, StorageCap)
	fetch := func(ctx context.Context) error {
		defer close(keys)
		var startKey *StorageKey
		for {
			page, err := c.keysPaged(ctx, startKey, at)
			if err != nil {
				return fmt.Errorf("could not fetch keys: %w", err)
			}
			for _, key := range page {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case keys <- key:
				}
			}
			if len(page) < ChunkSize {
				return nil
			}
			last := page[len(page)-1]
			startKey = &last
		}
	}
	return keys, fetch
}

// GetChildStorageForKey returns all entries of the child trie, nil if it is empty.
func (c *Client) GetChildStorageForKey(ctx context.Context, childKey StorageKey, at BlockHash) (ChildStorageMap, error) {
	storage, err := c.childStorage(ctx, childKey, at)
	var rpcErr *Error
	if errors.As(err, &rpcErr) && rpcErr.Message == invalidChildStorageKey {
		return nil, nil
	}
	return storage, err
}

func (c *Client) childStorage(ctx context.Context, childKey StorageKey, at BlockHash) (ChildStorageMap, error) {
	storage := make(ChildStorageMap)
	var startKey *StorageKey
	for {
		var keys []StorageKey
		err := c.call(ctx, &keys, "childstate_getKeysPaged", childKey, emptyPrefix, ChunkSize, startKey, at)
		if err != nil {
			return nil, err
		}
		var values []StorageValue
		err = c.call(ctx, &values, "childstate_getStorageEntries", childKey, keys, at)
		if err != nil {
			return nil, err
		}
		if len(values) != len(keys) {
			return nil, fmt.Errorf("got %d values for %d child storage keys", len(values), len(keys))
		}
		for i, key := range keys {
			storage[key] = values[i]
		}
		if len(keys) < ChunkSize {
			return storage, nil
		}
		last := keys[len(keys)-1]
		startKey = &last
	}
}

// GetStorage returns the value under the key in the block. Failures are
// retried with exponential backoff.
func (c *Client) GetStorage(ctx context.Context, key StorageKey, at BlockHash) (StorageValue, error) {
	backoff, err := retry.NewExponential(c.config.RetryBase)
	if err != nil {
		return "", fmt.Errorf("invalid retry configuration: %w", err)
	}
	backoff = retry.WithCappedDuration(c.config.RetryMaxDelay, backoff)
	backoff = retry.WithMaxDuration(c.config.RetryTimeout, backoff)

	var value StorageValue
	attempts := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		err := c.call(ctx, &value, "state_getStorage", key, at)
		if errors.Is(err, ErrClosed) {
			return err
		}
		if err != nil {
			c.log.Debug().Err(err).Str("key", string(key)).Int("attempt", attempts).Msg("could not get storage, retrying")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("could not get storage of %s: %w", key, err)
	}
	return value, nil
}
