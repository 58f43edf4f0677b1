// Package rand draws randoms from the system RNG (crypto/rand). Peer
// selection uses it so that remote peers cannot predict whom we ask next.
//
// Functions in this package return an error if the system RNG fails, which
// callers should treat as an irrecoverable exception.
package rand

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// Uint64n returns a random uint64 strictly less than `n`.
// `n` has to be a strictly positive integer.
func Uint64n(n uint64) (uint64, error) {
	if n == 0 {
		return 0, fmt.Errorf("n should be strictly positive, got %d", n)
	}
	max := n - 1
	size := 0
	for tmp := max; tmp != 0; tmp >>= 8 {
		size++
	}
	mask := uint64(0)
	for max&mask != max {
		mask = (mask << 1) | 1
	}

	// rejection sampling keeps the result uniform
	buffer := make([]byte, 8)
	random := n
	for random > max {
		if _, err := rand.Read(buffer[:size]); err != nil {
			return 0, fmt.Errorf("crypto/rand read failed: %w", err)
		}
		random = binary.LittleEndian.Uint64(buffer) & mask
	}
	return random, nil
}

// Samples picks randomly `m` out of `n` elements and places them in random
// order at indices [0, m-1], using the first `m` steps of a Fisher-Yates
// shuffle. `m` has to be less or equal to `n`.
func Samples(n uint, m uint, swap func(i, j uint)) error {
	if n < m {
		return fmt.Errorf("sample size (%d) cannot be larger than entire population (%d)", m, n)
	}
	for i := uint(0); i < m; i++ {
		j, err := Uint64n(uint64(n - i))
		if err != nil {
			return err
		}
		swap(i, i+uint(j))
	}
	return nil
}

// Shuffle permutes `n` elements in place.
func Shuffle(n uint, swap func(i, j uint)) error {
	return Samples(n, n, swap)
}

// SampleSlice returns up to `m` distinct random elements of the slice,
// leaving the input untouched.
func SampleSlice[T any](elements []T, m uint) ([]T, error) {
	n := uint(len(elements))
	if m > n {
		m = n
	}
	sample := make([]T, n)
	copy(sample, elements)
	err := Samples(n, m, func(i, j uint) {
		sample[i], sample[j] = sample[j], sample[i]
	})
	if err != nil {
		return nil, err
	}
	return sample[:m], nil
}
