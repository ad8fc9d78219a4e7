// Package codec implements the canonical big-endian byte-stream encoding
// shared by save files and the network protocol (spec §4.1).
package codec

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a codec failure. Kinds mirror the taxonomy spec §7
// assigns to protocol/format violations.
type ErrorKind int

const (
	KindEOF ErrorKind = iota
	KindIO
	KindUTFDataFormat
	KindInvalidDataValue
	KindInvalidFileFormat
	KindVersionTooNew
	KindLZ77Format
)

func (k ErrorKind) String() string {
	switch k {
	case KindEOF:
		return "EOF"
	case KindIO:
		return "IO"
	case KindUTFDataFormat:
		return "UTFDataFormat"
	case KindInvalidDataValue:
		return "InvalidDataValue"
	case KindInvalidFileFormat:
		return "InvalidFileFormat"
	case KindVersionTooNew:
		return "VersionTooNew"
	case KindLZ77Format:
		return "LZ77Format"
	default:
		return "Unknown"
	}
}

// FormatError is the concrete error type for every codec/protocol failure.
// Callers branch on Kind via errors.As, never on the message text.
type FormatError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *FormatError) Unwrap() error { return e.Err }

func errf(kind ErrorKind, format string, args ...any) error {
	return &FormatError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapIO(kind ErrorKind, msg string, err error) error {
	return &FormatError{Kind: kind, Msg: msg, Err: err}
}

// IsKind reports whether err is a *FormatError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var fe *FormatError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Kind == kind
}
