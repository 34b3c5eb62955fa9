// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/precomp

package precomp

import "errors"

// ErrorKind classifies a precomp Error for return-code mapping at the
// public API boundary (see ReturnCode in engine.go).
type ErrorKind uint8

// Error kinds from the error taxonomy.
const (
	KindGeneric ErrorKind = iota
	KindHeaderMissing
	KindHeaderVersionMismatch
	KindUnsupportedStreamType
	KindRecompressionFailure
	KindIoFailure
	KindRecursionLimitHit
	KindCancelledRecursion
)

// Error is a typed precomp error carrying an ErrorKind for boundary
// mapping, plus an optional wrapped cause.
type Error struct {
	Kind  ErrorKind
	Msg   string
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Msg + ": " + e.Cause.Error()
	}
	return e.Msg
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match an *Error against its kind's sentinel.
func (e *Error) Is(target error) bool {
	sentinel := kindToErr(e.Kind)
	return sentinel != nil && errors.Is(sentinel, target)
}

// newErr builds a typed Error with an optional wrapped cause.
func newErr(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Sentinel errors for callers using errors.Is.
var (
	// ErrHeaderMissing means the input has no PCF magic header.
	ErrHeaderMissing = errors.New("precomp: no PCF header found")
	// ErrHeaderVersionMismatch means the PCF header version is incompatible.
	ErrHeaderVersionMismatch = errors.New("precomp: incompatible PCF header version")
	// ErrUnsupportedStreamType means a record's format tag has no registered handler.
	ErrUnsupportedStreamType = errors.New("precomp: unsupported stream type")
	// ErrRecompressionFailure means recompression could not reproduce the original bytes.
	ErrRecompressionFailure = errors.New("precomp: recompression failed to reproduce original bytes")
	// ErrIoFailure means the underlying stream reported an I/O error.
	ErrIoFailure = errors.New("precomp: I/O failure")
	// ErrRecursionLimitHit means recursion depth was reached; non-fatal, caller falls back.
	ErrRecursionLimitHit = errors.New("precomp: recursion depth limit reached")
	// ErrCancelledRecursion means a recursion passthrough was force-cancelled.
	ErrCancelledRecursion = errors.New("precomp: recursion cancelled")
	// ErrNilStream means a required stream argument was nil.
	ErrNilStream = errors.New("precomp: stream is nil")
	// ErrClosed means the object was already closed.
	ErrClosed = errors.New("precomp: already closed")
	// ErrEntryNotFound means the requested handler tag has no registration.
	ErrEntryNotFound = errors.New("precomp: no handler registered for tag")
	// ErrSeekUnsupported means Seek was called on a stream that forbids it.
	ErrSeekUnsupported = errors.New("precomp: seek not supported on this stream")
	// ErrFlushUnsupported means Flush was called on a stream that forbids it.
	ErrFlushUnsupported = errors.New("precomp: flush not supported on this stream")
	// ErrInvalidVarInt means a VLI-encoded integer was malformed or truncated.
	ErrInvalidVarInt = errors.New("precomp: invalid variable-length integer")
)

// kindToErr maps an ErrorKind to its representative sentinel for errors.Is checks.
func kindToErr(kind ErrorKind) error {
	switch kind {
	case KindHeaderMissing:
		return ErrHeaderMissing
	case KindHeaderVersionMismatch:
		return ErrHeaderVersionMismatch
	case KindUnsupportedStreamType:
		return ErrUnsupportedStreamType
	case KindRecompressionFailure:
		return ErrRecompressionFailure
	case KindIoFailure:
		return ErrIoFailure
	case KindRecursionLimitHit:
		return ErrRecursionLimitHit
	case KindCancelledRecursion:
		return ErrCancelledRecursion
	default:
		return nil
	}
}
