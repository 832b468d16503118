// Package source splits files and readers into fixed-size byte chunks for
// the lexer. Files can be memory-mapped on Unix systems.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
)

// DefaultChunkSize is the chunk size used when Options.ChunkSize is zero.
const DefaultChunkSize = 64 * 1024

var log = commonlog.GetLogger("csvstream.source")

// Chunker yields successive chunks of an input. Next returns io.EOF once
// the input is exhausted. A returned chunk is only valid until the next
// call to Next or Close.
type Chunker interface {
	Next() ([]byte, error)
	Close() error
}

// Options configures file sources.
type Options struct {
	// ChunkSize is the maximum chunk length in bytes. Default: 64 KiB
	ChunkSize int
	// Mmap maps the file into memory instead of reading it. It is ignored
	// on platforms without mmap and for empty files.
	Mmap bool
}

// DefaultOptions returns the default source options.
func DefaultOptions() Options {
	return Options{ChunkSize: DefaultChunkSize}
}

func (o Options) chunkSize() int {
	if o.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return o.ChunkSize
}

// Open opens the named file as a Chunker.
//
//	src, err := source.Open("large.csv", source.Options{Mmap: true})
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
func Open(name string, opts Options) (Chunker, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	adviseSequential(f)

	if opts.Mmap {
		c, err := mapFile(f, opts.chunkSize())
		if err == nil {
			log.Debugf("mapped %s", name)
			return c, nil
		}
		if !errors.Is(err, errNoMmap) {
			f.Close()
			return nil, err
		}
	}
	return &readChunker{r: f, closer: f, buf: make([]byte, opts.chunkSize())}, nil
}

// FromReader wraps r as a Chunker. Close does not close r.
func FromReader(r io.Reader, chunkSize int) Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &readChunker{r: r, buf: make([]byte, chunkSize)}
}

// readChunker reads into one reused buffer.
type readChunker struct {
	r      io.Reader
	closer io.Closer
	buf    []byte
	err    error
}

func (c *readChunker) Next() ([]byte, error) {
	for c.err == nil {
		n, err := c.r.Read(c.buf)
		if err != nil {
			c.err = err
		}
		if n > 0 {
			return c.buf[:n], nil
		}
	}
	return nil, c.err
}

func (c *readChunker) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// errNoMmap means the platform or the file cannot be mapped and the caller
// should fall back to reading.
var errNoMmap = errors.New("mmap unavailable")
