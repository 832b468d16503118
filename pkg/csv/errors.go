package csv

import (
	"errors"

	"github.com/shapestone/shape-csvstream/internal/validation"
)

// The error types below are returned by every parsing entry point. Use
// errors.As to inspect them, or errors.Is with the sentinel values.
type (
	// OptionsError reports an invalid configuration, including an empty or
	// duplicated header.
	OptionsError = validation.OptionsError

	// ParseError reports structurally malformed input, such as a quoted
	// field that never closes.
	ParseError = validation.ParseError

	// LimitError reports an exceeded MaxBufferSize or MaxFieldCount. It
	// carries the offending size and the configured limit.
	LimitError = validation.LimitError

	// FieldCountMismatchError reports a row/header length mismatch under
	// the Strict strategy.
	FieldCountMismatchError = validation.FieldCountMismatchError

	// AbortError reports that the context was canceled or timed out. It
	// unwraps to the context's cause.
	AbortError = validation.AbortError
)

// Sentinel errors.
var (
	ErrInvalidOptions     = validation.ErrInvalidOptions
	ErrQuote              = validation.ErrQuote
	ErrBufferOverflow     = validation.ErrBufferOverflow
	ErrFieldCountExceeded = validation.ErrFieldCountExceeded
	ErrFieldCount         = validation.ErrFieldCount
	ErrAborted            = validation.ErrAborted

	// ErrInvalidUTF8 is returned under FatalDecode for malformed input.
	ErrInvalidUTF8 = errors.New("csv: invalid UTF-8 in input")
)

// errorKind classifies err for metrics and logs.
func errorKind(err error) string {
	var (
		oe *OptionsError
		pe *ParseError
		le *LimitError
		me *FieldCountMismatchError
		ae *AbortError
	)
	switch {
	case errors.As(err, &ae):
		return "abort"
	case errors.As(err, &oe):
		return "config"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &le):
		return "limit"
	case errors.As(err, &me):
		return "mismatch"
	case errors.Is(err, ErrInvalidUTF8):
		return "decode"
	default:
		return "io"
	}
}
