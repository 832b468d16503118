// Package validation holds the option checks and error kinds shared by the
// lexer, the record assembler and the public csv package.
package validation

import (
	"context"
	"errors"
	"fmt"

	"github.com/shapestone/shape-core/pkg/tokenizer"
)

// Sentinel errors for errors.Is checks. The typed errors below unwrap to one
// of these.
var (
	// ErrInvalidOptions indicates a configuration error.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrQuote indicates a quoted field that was not closed, or was followed
	// by stray text.
	ErrQuote = errors.New("malformed quoted field")

	// ErrBufferOverflow indicates the lexer buffer grew past its limit.
	ErrBufferOverflow = errors.New("buffer size exceeded")

	// ErrFieldCountExceeded indicates a row or header wider than the limit.
	ErrFieldCountExceeded = errors.New("field count exceeded")

	// ErrFieldCount indicates a record has the wrong number of fields under
	// the strict column count strategy.
	ErrFieldCount = errors.New("wrong number of fields")

	// ErrAborted indicates processing stopped because the context was done.
	ErrAborted = errors.New("operation aborted")
)

// WithSource appends the source label to msg, if one is configured.
func WithSource(msg, source string) string {
	if source == "" {
		return msg
	}
	return fmt.Sprintf("%s in %q", msg, source)
}

// OptionsError represents an invalid option configuration, including an
// empty or duplicated header.
type OptionsError struct {
	Field   string
	Message string
	// Source is the optional input label.
	Source string
}

func (e *OptionsError) Error() string {
	return WithSource("csv: invalid "+e.Field+": "+e.Message, e.Source)
}

// Is reports whether target is ErrInvalidOptions.
func (e *OptionsError) Is(target error) bool {
	return target == ErrInvalidOptions
}

// ParseError is raised for structurally malformed input.
type ParseError struct {
	// Message describes the problem.
	Message string
	// Row is the 1-based row number where the problem was found.
	Row int
	// Position locates the problem in the input. It is the zero value when
	// location tracking is disabled.
	Position tokenizer.Position
	// Source is the optional input label.
	Source string
	// Err is the underlying sentinel error.
	Err error
}

func (e *ParseError) Error() string {
	msg := e.Message
	if e.Position.IsValid() {
		msg = fmt.Sprintf("%s (%s)", msg, e.Position.String())
	}
	if e.Row > 0 {
		msg = fmt.Sprintf("%s at row %d", msg, e.Row)
	}
	return WithSource(msg, e.Source)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// LimitKind names the resource a LimitError refers to.
type LimitKind int

const (
	// LimitBuffer is the lexer's pending-text buffer.
	LimitBuffer LimitKind = iota
	// LimitFieldCount is the number of fields in a data row.
	LimitFieldCount
	// LimitHeader is the number of columns in the header.
	LimitHeader
)

// String returns the string representation of LimitKind.
func (k LimitKind) String() string {
	switch k {
	case LimitBuffer:
		return "buffer"
	case LimitFieldCount:
		return "field_count"
	case LimitHeader:
		return "header"
	default:
		return fmt.Sprintf("LimitKind(%d)", k)
	}
}

// LimitError is raised as soon as a configured resource limit is exceeded.
type LimitError struct {
	Kind LimitKind
	// Size is the offending size or count.
	Size int
	// Limit is the configured maximum.
	Limit int
	// Row is the 1-based row number, when known.
	Row    int
	Source string
}

func (e *LimitError) Error() string {
	var msg string
	switch e.Kind {
	case LimitBuffer:
		msg = fmt.Sprintf("Buffer size (%d bytes) exceeded maximum allowed size of %d bytes", e.Size, e.Limit)
	case LimitHeader:
		msg = fmt.Sprintf("Header field count (%d) exceeded maximum allowed count of %d", e.Size, e.Limit)
	default:
		msg = fmt.Sprintf("Field count (%d) exceeded maximum allowed count of %d", e.Size, e.Limit)
	}
	if e.Row > 0 {
		msg = fmt.Sprintf("%s at row %d", msg, e.Row)
	}
	return WithSource(msg, e.Source)
}

// Unwrap returns ErrBufferOverflow or ErrFieldCountExceeded.
func (e *LimitError) Unwrap() error {
	if e.Kind == LimitBuffer {
		return ErrBufferOverflow
	}
	return ErrFieldCountExceeded
}

// FieldCountMismatchError reports a record whose length differs from the
// header under the strict column count strategy.
type FieldCountMismatchError struct {
	Expected int
	Actual   int
	Row      int
	Source   string
}

func (e *FieldCountMismatchError) Error() string {
	msg := fmt.Sprintf("Expected %d columns, got %d", e.Expected, e.Actual)
	if e.Row > 0 {
		msg = fmt.Sprintf("%s at row %d", msg, e.Row)
	}
	return WithSource(msg, e.Source)
}

// Unwrap returns ErrFieldCount.
func (e *FieldCountMismatchError) Unwrap() error {
	return ErrFieldCount
}

// AbortError is raised when the context is done. Cause is the context's
// cause: context.Canceled, context.DeadlineExceeded, or whatever was passed
// to a context.CancelCauseFunc.
type AbortError struct {
	Cause   error
	Timeout bool
	Source  string
}

func (e *AbortError) Error() string {
	msg := "csv: operation aborted"
	if e.Timeout {
		msg = "csv: operation timed out"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return WithSource(msg, e.Source)
}

// Unwrap returns the cancellation cause.
func (e *AbortError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrAborted.
func (e *AbortError) Is(target error) bool {
	return target == ErrAborted
}

// CheckContext returns an *AbortError if ctx is done. A nil ctx never aborts.
func CheckContext(ctx context.Context, source string) error {
	if ctx == nil || ctx.Err() == nil {
		return nil
	}
	cause := context.Cause(ctx)
	return &AbortError{
		Cause:   cause,
		Timeout: errors.Is(cause, context.DeadlineExceeded),
		Source:  source,
	}
}
