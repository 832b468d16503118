package parser

import "github.com/shapestone/shape-csvstream/internal/tokenizer"

// SliceTokens adapts a slice of tokens to TokenSource.
type SliceTokens struct {
	toks []tokenizer.Token
	i    int
	cur  tokenizer.Token
}

// NewSliceTokens returns a TokenSource over toks.
func NewSliceTokens(toks []tokenizer.Token) *SliceTokens {
	return &SliceTokens{toks: toks}
}

// Scan advances to the next token.
func (s *SliceTokens) Scan() bool {
	if s.i >= len(s.toks) {
		return false
	}
	s.cur = s.toks[s.i]
	s.i++
	return true
}

// Token returns the current token.
func (s *SliceTokens) Token() tokenizer.Token {
	return s.cur
}

// Err always returns nil.
func (s *SliceTokens) Err() error {
	return nil
}
