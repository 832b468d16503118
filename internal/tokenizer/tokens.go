// Package tokenizer implements the streaming CSV lexer. Text arrives in
// chunks of any size; the lexer buffers whatever it cannot resolve yet and
// emits a token only once its boundary is unambiguous.
package tokenizer

import (
	"fmt"

	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"
)

// Kind identifies the three token kinds the lexer produces.
type Kind int

const (
	// Field carries a decoded field value. Quoting and escaping have already
	// been removed.
	Field Kind = iota
	// FieldDelimiter separates two fields of the same row.
	FieldDelimiter
	// RecordDelimiter ends a row (LF or CRLF).
	RecordDelimiter
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case Field:
		return "Field"
	case FieldDelimiter:
		return "FieldDelimiter"
	case RecordDelimiter:
		return "RecordDelimiter"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Location is the span a token covers. Start is inclusive, End exclusive.
// Offsets count bytes from the start of the stream; columns count runes.
type Location struct {
	Start     shapetokenizer.Position
	End       shapetokenizer.Position
	RowNumber int
}

// Token is one lexical unit. Location is nil unless the lexer was built
// with TrackLocation.
type Token struct {
	Kind     Kind
	Value    string
	Location *Location
}

// String returns a debug representation of the token.
func (t Token) String() string {
	if t.Location == nil {
		return fmt.Sprintf("%s(%q)", t.Kind, t.Value)
	}
	return fmt.Sprintf("%s(%q) at %s row %d", t.Kind, t.Value, t.Location.Start, t.Location.RowNumber)
}
