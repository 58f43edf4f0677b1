package encoding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selendra/selendra-finality/model/encoding"
	"github.com/selendra/selendra-finality/model/encoding/cbor"
	"github.com/selendra/selendra-finality/model/encoding/msgpack"
)

type sample struct {
	Number     uint32   `cbor:"number" msgpack:"number"`
	Signatures [][]byte `cbor:"signatures" msgpack:"signatures"`
}

func TestEncoders(t *testing.T) {
	encoders := map[string]encoding.Encoder{
		"cbor":    cbor.NewEncoder(),
		"msgpack": msgpack.NewEncoder(),
	}
	for name, encoder := range encoders {
		encoder := encoder
		t.Run(name, func(t *testing.T) {
			in := sample{Number: 42, Signatures: [][]byte{{1, 2}, nil, {3}}}
			var out sample
			encoder.MustDecode(encoder.MustEncode(in), &out)
			assert.Equal(t, in, out)

			require.Error(t, encoder.Decode([]byte{0xc1}, &out))
			assert.Panics(t, func() { encoder.MustEncode(make(chan int)) })
		})
	}
}

// TestCBOR_Canonical verifies map encodings do not depend on insertion order.
func TestCBOR_Canonical(t *testing.T) {
	encoder := cbor.NewEncoder()
	a := encoder.MustEncode(map[string]int{"a": 1, "b": 2, "c": 3})
	b := encoder.MustEncode(map[string]int{"c": 3, "b": 2, "a": 1})
	assert.Equal(t, a, b)
}
