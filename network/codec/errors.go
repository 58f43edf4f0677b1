package codec

import (
	"errors"
	"fmt"
)

// ErrEmptyMessage is returned when decoding a message without any bytes.
var ErrEmptyMessage = errors.New("empty message")

// UnknownCodeError is returned for a message whose leading code byte names no message type.
type UnknownCodeError struct {
	code uint8
}

func NewUnknownCodeError(code uint8) UnknownCodeError {
	return UnknownCodeError{code: code}
}

func (e UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown message code %d", e.code)
}

func IsUnknownCodeError(err error) bool {
	var e UnknownCodeError
	return errors.As(err, &e)
}

// DecodeError is returned when the payload does not decode into the message
// type its code announces, or the decoded message is malformed.
type DecodeError struct {
	code    uint8
	msgType string
	err     error
}

func NewDecodeError(code uint8, msgType string, err error) DecodeError {
	return DecodeError{code: code, msgType: msgType, err: err}
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("could not decode %s (code %d): %v", e.msgType, e.code, e.err)
}

func (e DecodeError) Unwrap() error {
	return e.err
}

func IsDecodeError(err error) bool {
	var e DecodeError
	return errors.As(err, &e)
}
