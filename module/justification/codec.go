package justification

import (
	"encoding/binary"
	"fmt"

	"github.com/selendra/selendra-finality/model/chain"
	"github.com/selendra/selendra-finality/model/encoding/cbor"
	"github.com/selendra/selendra-finality/model/encoding/msgpack"
)

// Version of the justification encoding. Raw justifications are the big
// endian version followed by the version specific body.
type Version uint16

const (
	// LegacyVersion bodies are msgpack lists of (signer index, signature) pairs.
	LegacyVersion Version = 1
	// CurrentVersion bodies are CBOR arrays with a signature slot per committee member.
	CurrentVersion Version = 2
)

const versionLength = 2

// MaxCommitteeSize bounds the signature set size accepted from the wire.
const MaxCommitteeSize = 1 << 16

var (
	legacyEncoder  = msgpack.NewEncoder()
	currentEncoder = cbor.NewEncoder()
)

type legacyEntry struct {
	Index     uint32 `msgpack:"index"`
	Signature []byte `msgpack:"signature"`
}

type legacyBody struct {
	Size    uint32        `msgpack:"size"`
	Entries []legacyEntry `msgpack:"entries"`
}

type currentBody struct {
	Signatures [][]byte `cbor:"1,keyasint"`
}

// Encode encodes the signatures with the given version.
func Encode(version Version, signatures *chain.SignatureSet) ([]byte, error) {
	var (
		body []byte
		err  error
	)
	switch version {
	case LegacyVersion:
		legacy := legacyBody{Size: uint32(signatures.Size())}
		for index, signature := range signatures.Signatures {
			if signature != nil {
				legacy.Entries = append(legacy.Entries, legacyEntry{Index: uint32(index), Signature: signature})
			}
		}
		body, err = legacyEncoder.Encode(legacy)
	case CurrentVersion:
		body, err = currentEncoder.Encode(currentBody{Signatures: signatures.Signatures})
	default:
		return nil, fmt.Errorf("cannot encode justification version %d", version)
	}
	if err != nil {
		return nil, fmt.Errorf("could not encode justification version %d: %w", version, err)
	}

	raw := make([]byte, versionLength, versionLength+len(body))
	binary.BigEndian.PutUint16(raw, uint16(version))
	return append(raw, body...), nil
}

// Decode decodes raw justification bytes of any known version.
// Expected errors during normal operations:
//   - DecodeError of kind UnknownVersion for versions we do not know
//   - DecodeError of kind Malformed for anything we cannot parse
func Decode(raw []byte) (*chain.SignatureSet, Version, error) {
	if len(raw) < versionLength {
		return nil, 0, NewDecodeError(Malformed, 0, fmt.Errorf("justification of %d bytes too short for a version", len(raw)))
	}
	version := Version(binary.BigEndian.Uint16(raw))
	body := raw[versionLength:]

	switch version {
	case LegacyVersion:
		var legacy legacyBody
		err := legacyEncoder.Decode(body, &legacy)
		if err != nil {
			return nil, version, NewDecodeError(Malformed, version, err)
		}
		if legacy.Size > MaxCommitteeSize {
			return nil, version, NewDecodeError(Malformed, version, fmt.Errorf("committee size %d too large", legacy.Size))
		}
		signatures := chain.NewSignatureSet(int(legacy.Size))
		for _, entry := range legacy.Entries {
			err = signatures.Add(int(entry.Index), entry.Signature)
			if err != nil {
				return nil, version, NewDecodeError(Malformed, version, err)
			}
		}
		return signatures, version, nil
	case CurrentVersion:
		var current currentBody
		err := currentEncoder.Decode(body, &current)
		if err != nil {
			return nil, version, NewDecodeError(Malformed, version, err)
		}
		if len(current.Signatures) > MaxCommitteeSize {
			return nil, version, NewDecodeError(Malformed, version, fmt.Errorf("committee size %d too large", len(current.Signatures)))
		}
		return &chain.SignatureSet{Signatures: current.Signatures}, version, nil
	default:
		return nil, version, NewDecodeError(UnknownVersion, version, nil)
	}
}
