package justification

import (
	"errors"
	"fmt"
)

// DecodeErrorKind tells why raw justification bytes could not be decoded.
type DecodeErrorKind int

const (
	Malformed DecodeErrorKind = iota
	UnknownVersion
)

func (k DecodeErrorKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case UnknownVersion:
		return "unknown_version"
	default:
		return "invalid"
	}
}

// DecodeError is returned for undecodable raw justifications.
type DecodeError struct {
	Kind    DecodeErrorKind
	Version Version
	err     error
}

func NewDecodeError(kind DecodeErrorKind, version Version, err error) error {
	return DecodeError{Kind: kind, Version: version, err: err}
}

func (e DecodeError) Error() string {
	if e.Kind == UnknownVersion {
		return fmt.Sprintf("unknown justification version %d", e.Version)
	}
	return fmt.Sprintf("malformed justification (version %d): %v", e.Version, e.err)
}

func (e DecodeError) Unwrap() error {
	return e.err
}

// IsDecodeError returns whether the given error is a DecodeError.
func IsDecodeError(err error) bool {
	var e DecodeError
	return errors.As(err, &e)
}

// TranslateErrorKind tells why a certificate could not become a justification.
type TranslateErrorKind int

const (
	MissingHeader TranslateErrorKind = iota
	HeaderMismatch
	EmptyCertificate
)

func (k TranslateErrorKind) String() string {
	switch k {
	case MissingHeader:
		return "missing_header"
	case HeaderMismatch:
		return "header_mismatch"
	case EmptyCertificate:
		return "empty_certificate"
	default:
		return "invalid"
	}
}

// TranslateError is returned when a certificate cannot be translated.
type TranslateError struct {
	Kind TranslateErrorKind
	err  error
}

func NewTranslateError(kind TranslateErrorKind, err error) error {
	return TranslateError{Kind: kind, err: err}
}

func (e TranslateError) Error() string {
	return fmt.Sprintf("could not translate justification (%s): %v", e.Kind, e.err)
}

func (e TranslateError) Unwrap() error {
	return e.err
}

// IsTranslateError returns whether the given error is a TranslateError.
func IsTranslateError(err error) bool {
	var e TranslateError
	return errors.As(err, &e)
}
