package tokenizer

import (
	"bytes"
	"context"
	"unicode/utf8"

	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"
	"github.com/shapestone/shape-csvstream/internal/validation"
)

// Options configures the lexer.
type Options struct {
	// Delimiter separates fields. It may be longer than one character.
	// Default: ","
	Delimiter string
	// Quotation opens and closes quoted fields. Doubling it inside a quoted
	// field escapes it. Default: `"`
	Quotation string
	// MaxBufferSize bounds the unresolved text the lexer may hold, in bytes.
	// 0 selects validation.DefaultMaxBufferSize; validation.Unlimited
	// disables the check.
	MaxBufferSize int
	// TrackLocation attaches a Location to every token.
	TrackLocation bool
	// Context, when non-nil, is checked before every token extraction.
	Context context.Context
	// Source is an optional label included in error messages.
	Source string
}

// DefaultOptions returns the default lexer options.
func DefaultOptions() Options {
	return Options{
		Delimiter:     ",",
		Quotation:     `"`,
		MaxBufferSize: validation.DefaultMaxBufferSize,
	}
}

// step is the outcome of one extraction attempt.
type step int

const (
	stepToken step = iota
	stepDeferred
	stepError
)

var (
	crlf = []byte("\r\n")
	lf   = []byte("\n")
)

// Lexer turns chunks of CSV text into tokens. A Lexer is not safe for
// concurrent use; parse independent inputs with separate instances.
type Lexer struct {
	opts      Options
	delimiter []byte
	quotation []byte
	maxBuffer int

	// stops marks the bytes that can end an unquoted field.
	stops [256]bool

	buf      []byte
	pos      int
	flushing bool
	err      error

	// cur is the position of buf[pos] in the whole stream.
	cur shapetokenizer.Position
	row int

	// pend carries the scan of a deferred field over to the next Lex call.
	pend pending
}

// pending is the progress made on a field that could not be resolved yet.
// Offsets are relative to buf[pos], so they survive compact.
type pending struct {
	active bool
	// scan is where the search for the end of the field resumes.
	scan int
	// seg starts the quoted text not yet copied into value.
	seg     int
	escaped bool
	value   []byte
}

// hold records where scanning stopped and defers the field.
func (l *Lexer) hold(scan int) (Token, step, error) {
	l.pend.active = true
	l.pend.scan = scan
	return Token{}, stepDeferred, nil
}

// release drops the pending scan state.
func (l *Lexer) release() {
	if l.pend.escaped {
		putBuffer(l.pend.value)
	}
	l.pend = pending{}
}

// NewLexer validates opts and returns a ready lexer.
func NewLexer(opts Options) (*Lexer, error) {
	if err := validation.Delimiters(opts.Delimiter, opts.Quotation); err != nil {
		return nil, err
	}
	maxBuffer, err := validation.Limit("MaxBufferSize", opts.MaxBufferSize, validation.DefaultMaxBufferSize)
	if err != nil {
		return nil, err
	}

	l := &Lexer{
		opts:      opts,
		delimiter: []byte(opts.Delimiter),
		quotation: []byte(opts.Quotation),
		maxBuffer: maxBuffer,
		cur:       shapetokenizer.NewPosition(0, 1, 1),
		row:       1,
	}
	l.stops[l.delimiter[0]] = true
	l.stops['\r'] = true
	l.stops['\n'] = true
	return l, nil
}

// Lex appends chunk to the buffer and returns a cursor over the tokens that
// can now be resolved. With streaming set, text that might continue in the
// next chunk stays buffered. Without it, this is the final call: one
// trailing record delimiter is dropped and everything left is resolved.
//
// The cursor reads the lexer's live buffer, so drain it before the next
// call to Lex or Flush.
func (l *Lexer) Lex(chunk string, streaming bool) *Tokens {
	t := &Tokens{lexer: l}
	if l.err != nil {
		t.err = l.err
		return t
	}

	l.compact()
	l.buf = append(l.buf, chunk...)
	if size := len(l.buf) - l.pos; size > l.maxBuffer {
		l.err = &validation.LimitError{
			Kind:   validation.LimitBuffer,
			Size:   size,
			Limit:  l.maxBuffer,
			Row:    l.row,
			Source: l.opts.Source,
		}
		t.err = l.err
		return t
	}

	l.flushing = !streaming
	if l.flushing {
		rest := l.buf[l.pos:]
		switch {
		case bytes.HasSuffix(rest, crlf):
			l.buf = l.buf[:len(l.buf)-2]
		case bytes.HasSuffix(rest, lf):
			l.buf = l.buf[:len(l.buf)-1]
		}
	}
	return t
}

// Flush resolves all buffered text. It is Lex("", false).
func (l *Lexer) Flush() *Tokens {
	return l.Lex("", false)
}

// Buffered returns the number of bytes held but not yet tokenized.
func (l *Lexer) Buffered() int {
	return len(l.buf) - l.pos
}

// compact drops consumed bytes from the front of the buffer.
func (l *Lexer) compact() {
	switch {
	case l.pos == 0:
	case l.pos == len(l.buf):
		l.buf = l.buf[:0]
		l.pos = 0
	case l.pos >= len(l.buf)/2:
		n := copy(l.buf, l.buf[l.pos:])
		l.buf = l.buf[:n]
		l.pos = 0
	}
}

// next tries to extract one token from the buffer.
func (l *Lexer) next() (Token, step, error) {
	rest := l.buf[l.pos:]
	if len(rest) == 0 {
		return Token{}, stepDeferred, nil
	}

	// Record delimiter: CRLF, then LF. One at the very end of the buffer
	// waits for more input because it may be the final newline, which a
	// flush drops.
	switch {
	case bytes.HasPrefix(rest, crlf):
		if !l.flushing && len(rest) == 2 {
			return Token{}, stepDeferred, nil
		}
		return l.emit(RecordDelimiter, "\r\n", 2), stepToken, nil
	case rest[0] == '\n':
		if !l.flushing && len(rest) == 1 {
			return Token{}, stepDeferred, nil
		}
		return l.emit(RecordDelimiter, "\n", 1), stepToken, nil
	case rest[0] == '\r' && len(rest) == 1 && !l.flushing:
		return Token{}, stepDeferred, nil
	}

	if bytes.HasPrefix(rest, l.delimiter) {
		return l.emit(FieldDelimiter, l.opts.Delimiter, len(l.delimiter)), stepToken, nil
	}
	if l.partial(rest, l.delimiter) {
		return Token{}, stepDeferred, nil
	}

	if bytes.HasPrefix(rest, l.quotation) {
		return l.quoted(rest)
	}
	if l.partial(rest, l.quotation) {
		return Token{}, stepDeferred, nil
	}

	return l.unquoted(rest)
}

// partial reports whether rest could still grow into sep once more input
// arrives. It is always false while flushing.
func (l *Lexer) partial(rest, sep []byte) bool {
	return !l.flushing && len(rest) < len(sep) && bytes.HasPrefix(sep, rest)
}

// unquoted scans a field up to the next delimiter, CRLF or LF. A lone CR and
// any quotation inside the field are plain content.
func (l *Lexer) unquoted(rest []byte) (Token, step, error) {
	i := 0
	if l.pend.active {
		i = min(l.pend.scan, len(rest))
	}
	for {
		j := l.indexStop(rest[i:])
		if j < 0 {
			if !l.flushing {
				return l.hold(len(rest))
			}
			i = len(rest)
			break
		}
		i += j
		tail := rest[i:]
		if tail[0] == '\n' || bytes.HasPrefix(tail, crlf) || bytes.HasPrefix(tail, l.delimiter) {
			break
		}
		if len(tail) == 1 && tail[0] == '\r' && !l.flushing {
			return l.hold(i)
		}
		if l.partial(tail, l.delimiter) {
			return l.hold(i)
		}
		i++
	}
	return l.emit(Field, string(rest[:i]), i), stepToken, nil
}

// indexStop returns the index of the first byte that may end an unquoted
// field, or -1.
func (l *Lexer) indexStop(data []byte) int {
	for i, b := range data {
		if l.stops[b] {
			return i
		}
	}
	return -1
}

// quoted extracts a quoted field starting at rest[0]. Doubled quotations
// decode to one. The closing quotation must be followed by a delimiter, a
// record delimiter or the end of input.
func (l *Lexer) quoted(rest []byte) (Token, step, error) {
	q := l.quotation
	p := &l.pend
	if !p.active {
		*p = pending{active: true, scan: len(q), seg: len(q)}
	}
	p.scan = min(p.scan, len(rest))

	// Segments without escapes are sliced from the input. The scratch
	// buffer is only used once an escaped quotation shows up.
	for {
		j := shapetokenizer.FindByte(rest[p.scan:], q[0])
		if j < 0 {
			p.scan = len(rest)
			return l.unterminated()
		}
		k := p.scan + j
		tail := rest[k:]
		if !bytes.HasPrefix(tail, q) {
			if len(tail) < len(q) && bytes.HasPrefix(q, tail) {
				p.scan = k
				return l.unterminated()
			}
			p.scan = k + 1
			continue
		}

		after := rest[k+len(q):]
		if bytes.HasPrefix(after, q) {
			if !p.escaped {
				p.escaped = true
				p.value = getBuffer()
			}
			p.value = append(p.value, rest[p.seg:k]...)
			p.value = append(p.value, q...)
			p.seg = k + 2*len(q)
			p.scan = p.seg
			continue
		}
		// A quotation at the end of the buffer may still turn out doubled.
		if l.partial(after, q) {
			return l.hold(k)
		}

		if !l.closes(after) {
			if !l.flushing && (l.partial(after, l.delimiter) || (len(after) == 1 && after[0] == '\r')) {
				return l.hold(k)
			}
			return Token{}, stepError, l.parseError("Unexpected character after closing quotation.", k+len(q))
		}

		var s string
		if p.escaped {
			p.value = append(p.value, rest[p.seg:k]...)
			s = string(p.value)
		} else {
			s = string(rest[len(q):k])
		}
		return l.emit(Field, s, k+len(q)), stepToken, nil
	}
}

// closes reports whether after may follow a closing quotation.
func (l *Lexer) closes(after []byte) bool {
	return len(after) == 0 ||
		after[0] == '\n' ||
		bytes.HasPrefix(after, crlf) ||
		bytes.HasPrefix(after, l.delimiter)
}

func (l *Lexer) unterminated() (Token, step, error) {
	if !l.flushing {
		return Token{}, stepDeferred, nil
	}
	return Token{}, stepError, l.parseError("Unexpected EOF while parsing quoted field.", 0)
}

func (l *Lexer) parseError(msg string, at int) error {
	defer l.release()
	pos := l.cur
	if l.opts.TrackLocation {
		pos = advance(pos, l.buf[l.pos:l.pos+at])
	} else {
		pos = shapetokenizer.Position{}
	}
	return &validation.ParseError{
		Message:  msg,
		Row:      l.row,
		Position: pos,
		Source:   l.opts.Source,
		Err:      validation.ErrQuote,
	}
}

// emit consumes n bytes as one token.
func (l *Lexer) emit(kind Kind, value string, n int) Token {
	l.release()
	tok := Token{Kind: kind, Value: value}
	if l.opts.TrackLocation {
		end := advance(l.cur, l.buf[l.pos:l.pos+n])
		tok.Location = &Location{Start: l.cur, End: end, RowNumber: l.row}
		l.cur = end
	}
	l.pos += n
	if kind == RecordDelimiter {
		l.row++
	}
	return tok
}

// advance moves pos over consumed bytes. Columns count runes.
func advance(pos shapetokenizer.Position, consumed []byte) shapetokenizer.Position {
	pos.Offset += len(consumed)
	for len(consumed) > 0 {
		i := bytes.IndexByte(consumed, '\n')
		if i < 0 {
			pos.Column += utf8.RuneCount(consumed)
			break
		}
		pos.Line++
		pos.Column = 1
		consumed = consumed[i+1:]
	}
	return pos
}

// Tokens is a single-pass cursor over the tokens of one Lex call.
//
//	toks := lx.Lex(chunk, true)
//	for toks.Scan() {
//	    tok := toks.Token()
//	    // ...
//	}
//	if err := toks.Err(); err != nil {
//	    return err
//	}
type Tokens struct {
	lexer *Lexer
	tok   Token
	err   error
	done  bool
}

// Scan advances to the next token. It returns false when no more tokens
// can be resolved or an error occurred.
func (t *Tokens) Scan() bool {
	if t.done || t.err != nil {
		return false
	}
	l := t.lexer
	if err := validation.CheckContext(l.opts.Context, l.opts.Source); err != nil {
		t.err = err
		return false
	}

	tok, st, err := l.next()
	switch st {
	case stepToken:
		t.tok = tok
		return true
	case stepError:
		l.err = err
		t.err = err
	default:
		t.done = true
	}
	return false
}

// Token returns the token produced by the last successful Scan.
func (t *Tokens) Token() Token {
	return t.tok
}

// Err returns the error that stopped the cursor, if any.
func (t *Tokens) Err() error {
	return t.err
}

// All drains the cursor.
func (t *Tokens) All() ([]Token, error) {
	var out []Token
	for t.Scan() {
		out = append(out, t.Token())
	}
	return out, t.Err()
}
