// Package csv parses CSV incrementally.
//
// Input can arrive in chunks of any size. Fields and rows are emitted as soon
// as their end is known, and only the text of an unfinished field or row is
// held in memory. Splitting the input differently never changes the result.
//
// # Parsing APIs
//
//   - Parse(string) and ParseReader(io.Reader) collect every record
//   - ParseArray returns rows as [][]string
//   - ParseAST builds a shape-core AST
//   - NewScanner and OpenFile pull records one at a time
//   - Stream pushes records into a channel, pausing when the consumer
//     falls behind
//
// The first row is the header unless Options.Header is set. Rows whose
// length differs from the header are reconciled by Options.ColumnCountStrategy.
//
// # Thread Safety
//
// Package-level functions are safe for concurrent use. A Scanner is not.
//
// # Example usage with Parse:
//
//	records, err := csv.Parse("name,age\nAlice,30\nBob,25")
//	if err != nil {
//	    // handle error
//	}
//	for _, rec := range records {
//	    name, _ := rec.GetByName("name")
//	    fmt.Println(name)
//	}
//
// # Errors
//
// Every error is one of *OptionsError, *ParseError, *LimitError,
// *FieldCountMismatchError or *AbortError, or an error returned by the
// reader.
package csv

import (
	"context"
	"io"
	"strings"

	"github.com/shapestone/shape-csvstream/internal/parser"
)

// Parse parses a complete CSV document held in memory.
func Parse(input string) ([]Record, error) {
	return ParseWithOptions(context.Background(), input, DefaultOptions())
}

// ParseWithOptions parses input with opts. ctx cancels between tokens.
func ParseWithOptions(ctx context.Context, input string, opts Options) ([]Record, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		opts.Metrics.observeError(err)
		return nil, err
	}
	p, err := opts.newPipeline(ctx)
	if err != nil {
		return nil, err
	}
	opts.Metrics.observeChunk(len(input))

	// Strings are already text, so the decoder is bypassed unless a
	// non-UTF-8 charset was asked for.
	var rs *parser.Records
	if opts.Charset == "utf-8" && !opts.FatalDecode {
		rs = p.assembler.Assemble(p.lexer.Lex(input, false), false)
	} else if rs, err = p.feed([]byte(input), true); err != nil {
		opts.Metrics.observeError(err)
		return nil, err
	}
	records, err := rs.All()
	if err != nil {
		opts.Metrics.observeError(err)
		return nil, err
	}
	for range records {
		opts.Metrics.observeRecord()
	}
	return records, nil
}

// ParseReader reads r in chunks and returns every record.
//
// Memory use is bounded by the result plus Options.MaxBufferSize. For inputs
// too large to collect, use NewScanner or Stream.
//
//	file, err := os.Open("data.csv")
//	if err != nil {
//	    // handle error
//	}
//	defer file.Close()
//
//	records, err := csv.ParseReader(file)
func ParseReader(reader io.Reader) ([]Record, error) {
	return ParseReaderWithOptions(context.Background(), reader, DefaultOptions())
}

// ParseReaderWithOptions is ParseReader with explicit options.
func ParseReaderWithOptions(ctx context.Context, reader io.Reader, opts Options) ([]Record, error) {
	s, err := NewScannerWithOptions(ctx, reader, opts)
	if err != nil {
		return nil, err
	}
	return collect(s)
}

// ParseFile parses the named file. The file is memory-mapped where the
// platform allows.
func ParseFile(ctx context.Context, name string, opts Options) ([]Record, error) {
	s, err := OpenFile(ctx, name, opts)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return collect(s)
}

func collect(s *Scanner) ([]Record, error) {
	var records []Record
	for s.Scan() {
		records = append(records, s.Record())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ParseArray parses input and returns the field values of each record.
// The header is not included unless opts.IncludeHeader is set.
func ParseArray(ctx context.Context, input string, opts Options) ([][]string, error) {
	records, err := ParseWithOptions(ctx, input, opts)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = rec.Fields
	}
	return rows, nil
}

// Validate reports whether input is well-formed CSV under the default
// options. It returns nil or the first error.
func Validate(input string) error {
	return ValidateReader(strings.NewReader(input))
}

// ValidateReader is Validate for a reader. Records are discarded as they
// are produced.
func ValidateReader(reader io.Reader) error {
	s := NewScanner(reader)
	for s.Scan() {
	}
	return s.Err()
}

// Format returns "CSV".
func Format() string {
	return "CSV"
}
