package csv

import (
	"context"
	"errors"
	"io"

	"github.com/tliron/commonlog"

	"github.com/shapestone/shape-csvstream/internal/parser"
	"github.com/shapestone/shape-csvstream/internal/source"
)

// Scanner reads records one at a time. Input is read in chunks and only the
// text of an unfinished field or row is kept in memory.
//
// Example usage:
//
//	file, _ := os.Open("data.csv")
//	defer file.Close()
//
//	scanner := csv.NewScanner(file)
//	for scanner.Scan() {
//	    record := scanner.Record()
//	    name, _ := record.GetByName("name")
//	    fmt.Println(name)
//	}
//	if err := scanner.Err(); err != nil {
//	    // handle error
//	}
type Scanner struct {
	src     source.Chunker
	p       *pipeline
	records *parser.Records
	opts    Options
	log     commonlog.Logger

	rec      Record
	err      error
	finished bool
	done     bool
	header   bool

	nbytes   int
	nrecords int
}

// NewScanner creates a Scanner with default options.
func NewScanner(reader io.Reader) *Scanner {
	s, err := NewScannerWithOptions(context.Background(), reader, DefaultOptions())
	if err != nil {
		return &Scanner{src: source.FromReader(reader, 0), err: err}
	}
	return s
}

// NewScannerWithOptions creates a Scanner. Invalid options are reported
// here, before any input is read. ctx cancels scanning between tokens.
func NewScannerWithOptions(ctx context.Context, reader io.Reader, opts Options) (*Scanner, error) {
	opts = opts.withDefaults()
	return newScanner(ctx, source.FromReader(reader, opts.ChunkSize), opts)
}

// OpenFile creates a Scanner over the named file, memory-mapping it where
// the platform allows. Close the Scanner when done.
func OpenFile(ctx context.Context, name string, opts Options) (*Scanner, error) {
	opts = opts.withDefaults()
	if opts.Source == "" {
		opts.Source = name
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	src, err := source.Open(name, source.Options{ChunkSize: opts.ChunkSize, Mmap: true})
	if err != nil {
		return nil, err
	}
	s, err := newScanner(ctx, src, opts)
	if err != nil {
		src.Close()
		return nil, err
	}
	return s, nil
}

func newScanner(ctx context.Context, src source.Chunker, opts Options) (*Scanner, error) {
	if err := opts.Validate(); err != nil {
		opts.Metrics.observeError(err)
		return nil, err
	}
	p, err := opts.newPipeline(ctx)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		src:  src,
		p:    p,
		opts: opts,
		log:  opts.logger("csvstream.scanner"),
	}, nil
}

// Scan advances the scanner to the next record.
// It returns false when there are no more records or an error occurs.
// After Scan returns false, the Err method will return any error that occurred.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for {
		if s.records != nil {
			if s.records.Scan() {
				s.rec = s.records.Record()
				s.logHeader()
				s.nrecords++
				s.opts.Metrics.observeRecord()
				return true
			}
			if err := s.records.Err(); err != nil {
				return s.fail(err)
			}
			s.records = nil
		}
		if s.finished {
			if !s.done {
				s.done = true
				s.log.Info("finished", "records", s.nrecords, "bytes", s.nbytes)
			}
			return false
		}

		chunk, err := s.src.Next()
		final := errors.Is(err, io.EOF)
		if err != nil && !final {
			return s.fail(err)
		}
		if final {
			s.finished = true
			chunk = nil
		} else {
			s.nbytes += len(chunk)
			s.opts.Metrics.observeChunk(len(chunk))
			s.log.Debug("chunk", "size", len(chunk), "buffered", s.p.lexer.Buffered())
		}

		records, err := s.p.feed(chunk, final)
		if err != nil {
			return s.fail(err)
		}
		s.records = records
	}
}

func (s *Scanner) logHeader() {
	if s.header {
		return
	}
	if h := s.p.assembler.Header(); h != nil {
		s.header = true
		s.log.Debug("header resolved", "columns", len(h))
	}
}

func (s *Scanner) fail(err error) bool {
	s.err = err
	s.opts.Metrics.observeError(err)
	s.log.Error("scan failed", "error", err, "kind", errorKind(err))
	return false
}

// Record returns the current record.
// This should only be called after Scan() returns true.
func (s *Scanner) Record() Record {
	return s.rec
}

// Err returns the error, if any, that was encountered during scanning.
// It returns nil at a clean end of input.
func (s *Scanner) Err() error {
	return s.err
}

// Headers returns the resolved header, or nil until it is known. With an
// inferred header that is after the first call to Scan.
func (s *Scanner) Headers() []string {
	if s.p == nil {
		return nil
	}
	return s.p.assembler.Header()
}

// Close releases the input. Readers passed to NewScanner are not closed.
func (s *Scanner) Close() error {
	return s.src.Close()
}
