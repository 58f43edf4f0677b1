package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// BlockHash is the hex encoded hash of a block, with the 0x prefix.
type BlockHash string

// StorageKey is a hex encoded storage key, with the 0x prefix.
type StorageKey string

// StorageValue is a hex encoded storage value, with the 0x prefix.
type StorageValue string

// ChildStorageMap holds the entries of a single child trie.
type ChildStorageMap map[StorageKey]StorageValue

const version = "2.0"

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is an error returned by the node.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
