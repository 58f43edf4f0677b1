package codec

import (
	"fmt"

	"github.com/selendra/selendra-finality/model/encoding"
	"github.com/selendra/selendra-finality/model/encoding/cbor"
	"github.com/selendra/selendra-finality/model/encoding/msgpack"
	"github.com/selendra/selendra-finality/model/messages"
	"github.com/selendra/selendra-finality/module/justification"
)

// Codec encodes synchronization messages as a message code byte followed by
// the encoded wire representation. Justification proofs are encoded with a
// fixed justification version.
type Codec struct {
	encoder      encoding.Encoder
	proofVersion justification.Version
}

func NewCodec(encoder encoding.Encoder, proofVersion justification.Version) *Codec {
	return &Codec{encoder: encoder, proofVersion: proofVersion}
}

// NewLegacyCodec returns the msgpack codec with legacy justifications.
func NewLegacyCodec() *Codec {
	return NewCodec(msgpack.NewEncoder(), justification.LegacyVersion)
}

// NewCurrentCodec returns the canonical CBOR codec with current justifications.
func NewCurrentCodec() *Codec {
	return NewCodec(cbor.NewEncoder(), justification.CurrentVersion)
}

// Encode encodes the message.
// No errors are expected during normal operations.
func (c *Codec) Encode(data messages.NetworkData) ([]byte, error) {
	code, what, err := MessageCodeFromInterface(data)
	if err != nil {
		return nil, fmt.Errorf("could not determine message code: %w", err)
	}
	dto, err := c.toDTO(data)
	if err != nil {
		return nil, fmt.Errorf("could not convert %s for the wire: %w", what, err)
	}
	payload, err := c.encoder.Encode(dto)
	if err != nil {
		return nil, fmt.Errorf("could not encode %s: %w", what, err)
	}
	raw := make([]byte, 0, 1+len(payload))
	raw = append(raw, code)
	return append(raw, payload...), nil
}

// Decode decodes a message.
// Expected error returns during normal operations:
//   - ErrEmptyMessage for empty input
//   - UnknownCodeError for unknown message codes
//   - DecodeError for payloads that cannot be decoded
func (c *Codec) Decode(raw []byte) (messages.NetworkData, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyMessage
	}
	code := raw[0]
	dto, what, err := InterfaceFromMessageCode(code)
	if err != nil {
		return nil, err
	}
	err = c.encoder.Decode(raw[1:], dto)
	if err != nil {
		return nil, NewDecodeError(code, what, err)
	}
	data, err := c.fromDTO(dto)
	if err != nil {
		return nil, NewDecodeError(code, what, err)
	}
	return data, nil
}
