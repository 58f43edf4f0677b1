package storage

import (
	"errors"
)

// ErrNotFound is returned by chain store lookups for blocks, headers or
// justifications the store does not hold.
var ErrNotFound = errors.New("key not found")
