package csv

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Decoder converts byte chunks in a given charset to text. A multi-byte
// sequence split across chunks is held back until the rest arrives. A
// byte order mark is passed through as U+FEFF.
type Decoder struct {
	charset string
	t       transform.Transformer
	pending []byte
	dst     []byte
}

// NewDecoder returns a Decoder for the named charset. The empty string
// selects UTF-8. With fatal set, invalid UTF-8 is an error instead of being
// replaced with U+FFFD; fatal is only supported for UTF-8.
func NewDecoder(charset string, fatal bool) (*Decoder, error) {
	if charset == "" {
		charset = "utf-8"
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, &OptionsError{Field: "Charset", Message: fmt.Sprintf("unsupported charset %q", charset)}
	}
	name, _ := htmlindex.Name(enc)

	var t transform.Transformer
	switch {
	case name == "utf-8" && fatal:
		t = encoding.UTF8Validator
	case fatal:
		return nil, &OptionsError{Field: "FatalDecode", Message: "only supported for utf-8"}
	default:
		t = enc.NewDecoder()
	}
	return &Decoder{charset: name, t: t, dst: make([]byte, 32*1024)}, nil
}

// Charset returns the canonical charset name.
func (d *Decoder) Charset() string {
	return d.charset
}

// Decode converts chunk, which may end in the middle of a character. Set
// final on the last call; the decoder is reset afterwards.
func (d *Decoder) Decode(chunk []byte, final bool) (string, error) {
	src := chunk
	if len(d.pending) > 0 {
		src = append(d.pending, chunk...)
	}

	var sb strings.Builder
	sb.Grow(len(src))
	for {
		nDst, nSrc, err := d.t.Transform(d.dst, src, final)
		sb.Write(d.dst[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
			d.pending = d.pending[:0]
			if final {
				d.t.Reset()
			}
			return sb.String(), nil
		case errors.Is(err, transform.ErrShortDst):
			continue
		case errors.Is(err, transform.ErrShortSrc) && !final:
			d.pending = append(d.pending[:0], src...)
			return sb.String(), nil
		case errors.Is(err, encoding.ErrInvalidUTF8):
			return "", ErrInvalidUTF8
		default:
			return "", fmt.Errorf("csv: decode %s: %w", d.charset, err)
		}
	}
}
