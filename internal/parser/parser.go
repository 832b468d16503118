// Package parser assembles lexer tokens into records. It resolves the header
// (given up front or taken from the first row), enforces the field count
// limit and reconciles each row with the header according to a
// ColumnCountStrategy.
package parser

import (
	"context"
	"fmt"

	"github.com/shapestone/shape-core/pkg/ast"
	"github.com/shapestone/shape-csvstream/internal/tokenizer"
	"github.com/shapestone/shape-csvstream/internal/validation"
)

// ColumnCountStrategy decides what happens to rows whose length differs
// from the header.
type ColumnCountStrategy string

const (
	// Fill pads short rows with empty strings and truncates long rows.
	Fill ColumnCountStrategy = "fill"
	// Keep leaves rows as they are. Array output only.
	Keep ColumnCountStrategy = "keep"
	// Sparse pads short rows with cells marked missing and truncates long
	// rows. Array output only.
	Sparse ColumnCountStrategy = "sparse"
	// Strict rejects any row whose length differs from the header.
	Strict ColumnCountStrategy = "strict"
	// Truncate cuts long rows and leaves short rows short. Array output only.
	Truncate ColumnCountStrategy = "truncate"
)

// ParseColumnCountStrategy converts s to a ColumnCountStrategy. The empty
// string selects Fill.
func ParseColumnCountStrategy(s string) (ColumnCountStrategy, error) {
	switch ColumnCountStrategy(s) {
	case "":
		return Fill, nil
	case Fill, Keep, Sparse, Strict, Truncate:
		return ColumnCountStrategy(s), nil
	}
	return "", &validation.OptionsError{Field: "ColumnCountStrategy", Message: fmt.Sprintf("unknown strategy %q", s)}
}

// arrayOnly reports whether the strategy needs array output and an explicit
// header.
func (s ColumnCountStrategy) arrayOnly() bool {
	return s == Keep || s == Sparse || s == Truncate
}

// OutputFormat selects keyed or positional records.
type OutputFormat string

const (
	// Object records are consumed by column name.
	Object OutputFormat = "object"
	// Array records are consumed by position.
	Array OutputFormat = "array"
)

// Options configures the assembler.
type Options struct {
	// Header, when non-nil, is used instead of the first row. It must be
	// non-empty and free of duplicates.
	Header []string
	// MaxFieldCount bounds the number of fields in any row, header included.
	// 0 selects validation.DefaultMaxFieldCount; validation.Unlimited
	// disables the check.
	MaxFieldCount int
	// SkipEmptyLines drops blank lines instead of emitting all-empty records.
	SkipEmptyLines bool
	// ColumnCountStrategy defaults to Fill.
	ColumnCountStrategy ColumnCountStrategy
	// OutputFormat defaults to Object.
	OutputFormat OutputFormat
	// IncludeHeader emits the header row as the first record. Array output
	// only.
	IncludeHeader bool
	// Context, when non-nil, is checked before every token.
	Context context.Context
	// Source is an optional label included in error messages.
	Source string
}

// DefaultOptions returns default assembler options.
func DefaultOptions() Options {
	return Options{
		MaxFieldCount:       validation.DefaultMaxFieldCount,
		ColumnCountStrategy: Fill,
		OutputFormat:        Object,
	}
}

// Validate checks the options and fills in defaults.
func (o *Options) Validate() error {
	if o.ColumnCountStrategy == "" {
		o.ColumnCountStrategy = Fill
	}
	if o.OutputFormat == "" {
		o.OutputFormat = Object
	}
	if _, err := ParseColumnCountStrategy(string(o.ColumnCountStrategy)); err != nil {
		return err
	}
	if o.OutputFormat != Object && o.OutputFormat != Array {
		return &validation.OptionsError{Field: "OutputFormat", Message: fmt.Sprintf("must be %q or %q", Object, Array)}
	}
	maxFieldCount, err := validation.Limit("MaxFieldCount", o.MaxFieldCount, validation.DefaultMaxFieldCount)
	if err != nil {
		return err
	}
	o.MaxFieldCount = maxFieldCount

	if o.ColumnCountStrategy.arrayOnly() {
		if o.OutputFormat != Array {
			return &validation.OptionsError{
				Field:   "ColumnCountStrategy",
				Message: fmt.Sprintf("%q requires array output", o.ColumnCountStrategy),
			}
		}
		if o.Header == nil {
			return &validation.OptionsError{
				Field:   "ColumnCountStrategy",
				Message: fmt.Sprintf("%q requires an explicit header", o.ColumnCountStrategy),
			}
		}
	}
	if o.IncludeHeader && o.OutputFormat != Array {
		return &validation.OptionsError{Field: "IncludeHeader", Message: "requires array output"}
	}

	if o.Header != nil {
		if err := validation.Header(o.Header, o.Source); err != nil {
			return err
		}
		if err := validation.HeaderWidth(o.Header, o.MaxFieldCount, o.Source); err != nil {
			return err
		}
	}
	return nil
}

// TokenSource is what Assemble reads tokens from. *tokenizer.Tokens
// satisfies it.
type TokenSource interface {
	Scan() bool
	Token() tokenizer.Token
	Err() error
}

// Assembler groups tokens into records. It is not safe for concurrent use.
type Assembler struct {
	opts Options

	header        []string
	headerPending bool // explicit header not yet emitted under IncludeHeader

	row        []string
	fieldIndex int
	dirty      bool
	rowNumber  int

	err error
}

// NewAssembler validates opts and returns a ready assembler.
func NewAssembler(opts Options) (*Assembler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	a := &Assembler{opts: opts, rowNumber: 1}
	if opts.Header != nil {
		a.header = internHeader(opts.Header)
		a.headerPending = opts.IncludeHeader
	}
	return a, nil
}

// Header returns the resolved header, or nil before it is known. The slice
// must not be modified.
func (a *Assembler) Header() []string {
	return a.header
}

// Assemble returns a cursor over the records completed by the tokens in src.
// With streaming unset, the cursor also flushes: a row left open at the end
// of src is emitted.
func (a *Assembler) Assemble(src TokenSource, streaming bool) *Records {
	return &Records{asm: a, src: src, flush: !streaming}
}

// Flush emits the row left open by previous calls, if any.
func (a *Assembler) Flush() *Records {
	return a.Assemble(nil, false)
}

// consume processes one token and returns the record it completes, if any.
func (a *Assembler) consume(tok tokenizer.Token) (Record, bool, error) {
	switch tok.Kind {
	case tokenizer.Field:
		for len(a.row) <= a.fieldIndex {
			a.row = append(a.row, "")
		}
		a.row[a.fieldIndex] = tok.Value
		a.dirty = true
	case tokenizer.FieldDelimiter:
		a.fieldIndex++
		a.dirty = true
		if a.fieldIndex+1 > a.opts.MaxFieldCount {
			return Record{}, false, &validation.LimitError{
				Kind:   validation.LimitFieldCount,
				Size:   a.fieldIndex + 1,
				Limit:  a.opts.MaxFieldCount,
				Row:    a.rowNumber,
				Source: a.opts.Source,
			}
		}
	case tokenizer.RecordDelimiter:
		rec, ok, err := a.closeRow(false)
		a.rowNumber++
		return rec, ok, err
	}
	return Record{}, false, nil
}

// closeRow ends the current row. atEOF is set when the row is closed by a
// flush rather than a record delimiter.
func (a *Assembler) closeRow(atEOF bool) (Record, bool, error) {
	defer a.resetRow()

	if a.header == nil {
		if !a.dirty && (atEOF || a.opts.SkipEmptyLines) {
			return Record{}, false, nil
		}
		header := a.materialize()
		if err := validation.Header(header, a.opts.Source); err != nil {
			return Record{}, false, err
		}
		if err := validation.HeaderWidth(header, a.opts.MaxFieldCount, a.opts.Source); err != nil {
			return Record{}, false, err
		}
		a.header = internHeader(header)
		if a.opts.IncludeHeader {
			return a.headerRecord(), true, nil
		}
		return Record{}, false, nil
	}

	if a.dirty {
		fields := a.materialize()
		return a.reconcile(fields)
	}
	if atEOF || a.opts.SkipEmptyLines {
		return Record{}, false, nil
	}
	return Record{Header: a.header, Fields: make([]string, len(a.header)), Row: a.rowNumber}, true, nil
}

// materialize copies the current row out. A delimiter implies a field after
// it, so the row is fieldIndex+1 wide.
func (a *Assembler) materialize() []string {
	if !a.dirty {
		return []string{}
	}
	fields := make([]string, a.fieldIndex+1)
	copy(fields, a.row)
	return fields
}

func (a *Assembler) resetRow() {
	for i := range a.row {
		a.row[i] = ""
	}
	a.row = a.row[:0]
	a.fieldIndex = 0
	a.dirty = false
}

// reconcile applies the column count strategy to a data row.
func (a *Assembler) reconcile(fields []string) (Record, bool, error) {
	width := len(a.header)
	rec := Record{Header: a.header, Row: a.rowNumber}

	switch a.opts.ColumnCountStrategy {
	case Strict:
		if len(fields) != width {
			return Record{}, false, &validation.FieldCountMismatchError{
				Expected: width,
				Actual:   len(fields),
				Row:      a.rowNumber,
				Source:   a.opts.Source,
			}
		}
	case Keep:
	case Truncate:
		if len(fields) > width {
			fields = fields[:width]
		}
	case Sparse:
		if len(fields) < width {
			rec.Missing = make([]bool, width)
			for i := len(fields); i < width; i++ {
				rec.Missing[i] = true
			}
		}
		fields = resize(fields, width)
	default:
		fields = resize(fields, width)
	}

	rec.Fields = fields
	return rec, true, nil
}

func (a *Assembler) headerRecord() Record {
	fields := make([]string, len(a.header))
	copy(fields, a.header)
	return Record{Header: a.header, Fields: fields, Row: a.rowNumber, IsHeader: true}
}

// resize pads with empty strings or truncates to width.
func resize(fields []string, width int) []string {
	if len(fields) >= width {
		return fields[:width]
	}
	out := make([]string, width)
	copy(out, fields)
	return out
}

func internHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		out[i] = ast.InternString(name)
	}
	return out
}

// Records is a single-pass cursor over the records of one Assemble call.
type Records struct {
	asm   *Assembler
	src   TokenSource
	flush bool

	rec  Record
	err  error
	done bool
}

// Scan advances to the next record.
func (r *Records) Scan() bool {
	if r.done || r.err != nil {
		return false
	}
	a := r.asm
	if a.err != nil {
		r.err = a.err
		return false
	}

	if err := validation.CheckContext(a.opts.Context, a.opts.Source); err != nil {
		return r.fail(err)
	}
	if a.headerPending {
		a.headerPending = false
		r.rec = a.headerRecord()
		return true
	}

	for {
		if err := validation.CheckContext(a.opts.Context, a.opts.Source); err != nil {
			return r.fail(err)
		}
		if r.src == nil || !r.src.Scan() {
			if r.src != nil && r.src.Err() != nil {
				return r.fail(r.src.Err())
			}
			r.done = true
			if !r.flush {
				return false
			}
			rec, ok, err := a.closeRow(true)
			if err != nil {
				return r.fail(err)
			}
			if ok {
				r.rec = rec
			}
			return ok
		}

		rec, ok, err := a.consume(r.src.Token())
		if err != nil {
			return r.fail(err)
		}
		if ok {
			r.rec = rec
			return true
		}
	}
}

func (r *Records) fail(err error) bool {
	r.err = err
	r.asm.err = err
	return false
}

// Record returns the record produced by the last successful Scan.
func (r *Records) Record() Record {
	return r.rec
}

// Err returns the error that stopped the cursor, if any.
func (r *Records) Err() error {
	return r.err
}

// All drains the cursor.
func (r *Records) All() ([]Record, error) {
	var out []Record
	for r.Scan() {
		out = append(out, r.Record())
	}
	return out, r.Err()
}
