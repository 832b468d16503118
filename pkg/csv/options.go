package csv

import (
	"context"

	"github.com/tliron/commonlog"

	"github.com/shapestone/shape-csvstream/internal/parser"
	"github.com/shapestone/shape-csvstream/internal/source"
	"github.com/shapestone/shape-csvstream/internal/tokenizer"
	"github.com/shapestone/shape-csvstream/internal/validation"
)

// ColumnCountStrategy decides what happens to rows whose length differs
// from the header.
type ColumnCountStrategy = parser.ColumnCountStrategy

// Column count strategies.
const (
	Fill     = parser.Fill
	Keep     = parser.Keep
	Sparse   = parser.Sparse
	Strict   = parser.Strict
	Truncate = parser.Truncate
)

// OutputFormat selects keyed or positional records.
type OutputFormat = parser.OutputFormat

// Output formats.
const (
	ObjectOutput = parser.Object
	ArrayOutput  = parser.Array
)

const (
	// Unlimited disables MaxBufferSize or MaxFieldCount.
	Unlimited = validation.Unlimited

	// DefaultMaxBufferSize is 10 MiB.
	DefaultMaxBufferSize = validation.DefaultMaxBufferSize

	// DefaultMaxFieldCount is 100,000 fields per row.
	DefaultMaxFieldCount = validation.DefaultMaxFieldCount

	// DefaultYieldInterval is how many records Stream sends between
	// backpressure checks.
	DefaultYieldInterval = 256
)

// Options configures parsing.
type Options struct {
	// Delimiter separates fields. Multi-character delimiters are allowed.
	// Default: ","
	Delimiter string

	// Quotation opens and closes quoted fields. Default: `"`
	Quotation string

	// Header, when non-nil, names the columns and the first row is treated
	// as data. When nil, the first row is the header.
	Header []string

	// MaxBufferSize bounds the text the lexer may hold while waiting for a
	// field to end, in bytes. Default: DefaultMaxBufferSize
	MaxBufferSize int

	// MaxFieldCount bounds the number of fields per row.
	// Default: DefaultMaxFieldCount
	MaxFieldCount int

	// ColumnCountStrategy reconciles row length with the header.
	// Default: Fill
	ColumnCountStrategy ColumnCountStrategy

	// OutputFormat is ObjectOutput (default) or ArrayOutput. Keep, Sparse,
	// Truncate and IncludeHeader require ArrayOutput.
	OutputFormat OutputFormat

	// SkipEmptyLines drops blank lines. Default: false
	SkipEmptyLines bool

	// IncludeHeader emits the header as the first record. Default: false
	IncludeHeader bool

	// TrackLocation records token positions so parse errors carry a line
	// and column. Default: false
	TrackLocation bool

	// Source labels the input in error messages and logs.
	Source string

	// Charset names the byte encoding of the input, as understood by the
	// WHATWG encoding index ("utf-8", "windows-1252", "shift_jis", ...).
	// Default: "utf-8"
	Charset string

	// FatalDecode rejects invalid UTF-8 instead of replacing it with
	// U+FFFD. It only applies to the "utf-8" charset.
	FatalDecode bool

	// ChunkSize is the read size for io.Reader and file inputs. It is
	// capped at half of MaxBufferSize so a full chunk always fits next to a
	// pending field.
	// Default: 64 KiB
	ChunkSize int

	// YieldInterval is the number of records Stream sends between
	// backpressure checks. Default: DefaultYieldInterval
	YieldInterval int

	// Logger receives debug and summary messages. Default: the
	// "csvstream" commonlog logger.
	Logger commonlog.Logger

	// Metrics, when non-nil, is updated as input is consumed.
	Metrics *Metrics
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Delimiter:           ",",
		Quotation:           `"`,
		MaxBufferSize:       DefaultMaxBufferSize,
		MaxFieldCount:       DefaultMaxFieldCount,
		ColumnCountStrategy: Fill,
		OutputFormat:        ObjectOutput,
		Charset:             "utf-8",
		ChunkSize:           source.DefaultChunkSize,
		YieldInterval:       DefaultYieldInterval,
	}
}

// Validate checks the options without building a parser.
func (o Options) Validate() error {
	o = o.withDefaults()
	if err := validation.Delimiters(o.Delimiter, o.Quotation); err != nil {
		return err
	}
	if _, err := validation.Limit("MaxBufferSize", o.MaxBufferSize, DefaultMaxBufferSize); err != nil {
		return err
	}
	aopts := o.assemblerOptions(nil)
	if err := aopts.Validate(); err != nil {
		return err
	}
	if o.ChunkSize < 0 {
		return &OptionsError{Field: "ChunkSize", Message: "must not be negative"}
	}
	if o.YieldInterval < 0 {
		return &OptionsError{Field: "YieldInterval", Message: "must not be negative"}
	}
	if _, err := NewDecoder(o.Charset, o.FatalDecode); err != nil {
		return err
	}
	return nil
}

// withDefaults fills zero-valued options. MaxBufferSize and MaxFieldCount
// are resolved by the components themselves.
func (o Options) withDefaults() Options {
	if o.Delimiter == "" {
		o.Delimiter = ","
	}
	if o.Quotation == "" {
		o.Quotation = `"`
	}
	if o.Charset == "" {
		o.Charset = "utf-8"
	}
	if o.ChunkSize == 0 {
		o.ChunkSize = source.DefaultChunkSize
	}
	if o.MaxBufferSize > 0 {
		o.ChunkSize = min(o.ChunkSize, max(o.MaxBufferSize/2, 1))
	}
	if o.YieldInterval == 0 {
		o.YieldInterval = DefaultYieldInterval
	}
	return o
}

func (o Options) lexerOptions(ctx context.Context) tokenizer.Options {
	return tokenizer.Options{
		Delimiter:     o.Delimiter,
		Quotation:     o.Quotation,
		MaxBufferSize: o.MaxBufferSize,
		TrackLocation: o.TrackLocation,
		Context:       ctx,
		Source:        o.Source,
	}
}

func (o Options) assemblerOptions(ctx context.Context) parser.Options {
	return parser.Options{
		Header:              o.Header,
		MaxFieldCount:       o.MaxFieldCount,
		SkipEmptyLines:      o.SkipEmptyLines,
		ColumnCountStrategy: o.ColumnCountStrategy,
		OutputFormat:        o.OutputFormat,
		IncludeHeader:       o.IncludeHeader,
		Context:             ctx,
		Source:              o.Source,
	}
}

func (o Options) logger(name string) commonlog.Logger {
	log := o.Logger
	if log == nil {
		log = commonlog.GetLogger(name)
	}
	if o.Source != "" {
		return commonlog.NewKeyValueLogger(log, "source", o.Source)
	}
	return log
}

// pipeline is one lexer/assembler/decoder set built from validated options.
type pipeline struct {
	lexer     *tokenizer.Lexer
	assembler *parser.Assembler
	decoder   *Decoder
}

func (o Options) newPipeline(ctx context.Context) (*pipeline, error) {
	o = o.withDefaults()
	lexer, err := tokenizer.NewLexer(o.lexerOptions(ctx))
	if err != nil {
		return nil, err
	}
	assembler, err := parser.NewAssembler(o.assemblerOptions(ctx))
	if err != nil {
		return nil, err
	}
	decoder, err := NewDecoder(o.Charset, o.FatalDecode)
	if err != nil {
		return nil, err
	}
	return &pipeline{lexer: lexer, assembler: assembler, decoder: decoder}, nil
}

// feed decodes one chunk and returns the records it completes. A nil chunk
// with final set flushes everything.
func (p *pipeline) feed(chunk []byte, final bool) (*parser.Records, error) {
	text, err := p.decoder.Decode(chunk, final)
	if err != nil {
		return nil, err
	}
	return p.assembler.Assemble(p.lexer.Lex(text, !final), !final), nil
}
