package justification

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selendra/selendra-finality/utils/unittest"
)

func TestCodec_BothVersions(t *testing.T) {
	signatures := unittest.SignatureSetFixture(7)

	for _, version := range []Version{LegacyVersion, CurrentVersion} {
		raw, err := Encode(version, signatures)
		require.NoError(t, err)
		assert.Equal(t, uint16(version), binary.BigEndian.Uint16(raw))

		decoded, decodedVersion, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, version, decodedVersion)
		assert.Equal(t, signatures.Size(), decoded.Size())
		assert.Equal(t, signatures.Signatures, decoded.Signatures)
	}
}

func TestCodec_UnknownVersion(t *testing.T) {
	raw := []byte{0x00, 0x09, 0x01}
	_, version, err := Decode(raw)
	require.True(t, IsDecodeError(err))
	assert.Equal(t, Version(9), version)

	var decodeErr DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, UnknownVersion, decodeErr.Kind)

	_, err = Encode(Version(9), unittest.SignatureSetFixture(4))
	require.Error(t, err)
}

func TestCodec_Malformed(t *testing.T) {
	cases := map[string][]byte{
		"empty":           {},
		"only one byte":   {0x00},
		"legacy garbage":  {0x00, 0x01, 0xc1},
		"current garbage": {0x00, 0x02, 0xc1},
	}
	for name, raw := range cases {
		raw := raw
		t.Run(name, func(t *testing.T) {
			_, _, err := Decode(raw)
			var decodeErr DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, Malformed, decodeErr.Kind)
		})
	}
}

// TestCodec_LegacyIndexOutOfRange verifies signer indices beyond the committee are rejected.
func TestCodec_LegacyIndexOutOfRange(t *testing.T) {
	body, err := legacyEncoder.Encode(legacyBody{Size: 2, Entries: []legacyEntry{{Index: 5, Signature: []byte{1}}}})
	require.NoError(t, err)
	raw := append([]byte{0x00, 0x01}, body...)

	_, _, err = Decode(raw)
	var decodeErr DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, Malformed, decodeErr.Kind)
}
