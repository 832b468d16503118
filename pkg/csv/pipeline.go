package csv

import (
	"context"
	"errors"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/shapestone/shape-csvstream/internal/parser"
	"github.com/shapestone/shape-csvstream/internal/source"
	"github.com/shapestone/shape-csvstream/internal/validation"
)

// Stream reads r, parses it, and sends every record to out.
//
// Reading and parsing run in separate goroutines joined by a small bounded
// queue, so a slow consumer of out stalls the reader instead of letting
// input pile up. Every YieldInterval records the parser checks whether out
// is full and, if so, yields the processor.
//
// Stream returns nil once the input is exhausted and every record has been
// delivered, or the first error. Cancelling ctx stops both stages with an
// *AbortError. The caller is responsible for closing out.
func Stream(ctx context.Context, r io.Reader, out chan<- Record, opts Options) error {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		opts.Metrics.observeError(err)
		return err
	}
	log := opts.logger("csvstream.stream")

	g, gctx := errgroup.WithContext(ctx)
	p, err := opts.newPipeline(gctx)
	if err != nil {
		return err
	}

	// Chunks are copied before the handoff because the chunker reuses its
	// buffer.
	chunks := make(chan []byte, 4)

	g.Go(func() error {
		src := source.FromReader(r, opts.ChunkSize)
		for {
			chunk, err := src.Next()
			if errors.Is(err, io.EOF) {
				close(chunks)
				return nil
			}
			if err != nil {
				return err
			}
			opts.Metrics.observeChunk(len(chunk))
			buf := append([]byte(nil), chunk...)
			select {
			case chunks <- buf:
			case <-gctx.Done():
				return validation.CheckContext(gctx, opts.Source)
			}
		}
	})

	g.Go(func() error {
		sent := 0
		emit := func(records *parser.Records) error {
			for records.Scan() {
				sent++
				if sent%opts.YieldInterval == 0 && saturated(out) {
					log.Debug("consumer saturated, yielding", "records", sent)
					runtime.Gosched()
				}
				select {
				case out <- records.Record():
					opts.Metrics.observeRecord()
				case <-gctx.Done():
					return validation.CheckContext(gctx, opts.Source)
				}
			}
			return records.Err()
		}

		for {
			select {
			case chunk, ok := <-chunks:
				records, err := p.feed(chunk, !ok)
				if err != nil {
					return err
				}
				if err := emit(records); err != nil {
					return err
				}
				if !ok {
					log.Info("finished", "records", sent)
					return nil
				}
			case <-gctx.Done():
				return validation.CheckContext(gctx, opts.Source)
			}
		}
	})

	err = g.Wait()
	if err != nil {
		opts.Metrics.observeError(err)
		log.Error("stream failed", "error", err, "kind", errorKind(err))
	}
	return err
}

// saturated reports whether a buffered out has no free slot. An unbuffered
// channel never counts as saturated.
func saturated(out chan<- Record) bool {
	return cap(out) > 0 && len(out) == cap(out)
}
