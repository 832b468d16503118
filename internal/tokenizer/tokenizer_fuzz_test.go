//go:build go1.18
// +build go1.18

package tokenizer

import (
	"testing"
)

// FuzzLexer checks that the lexer never panics and that splitting the input
// into two chunks yields the same tokens as a single call.
// Run with: go test -fuzz=FuzzLexer -fuzztime=30s ./internal/tokenizer
func FuzzLexer(f *testing.F) {
	seeds := []string{
		"",
		"a",
		"a,b,c\n",
		"a,b\r\nc,d",
		`"quoted"`,
		`"with,comma"`,
		`"with""quote"`,
		"\"multi\nline\"",
		"\r\n",
		"a\rb",
		`"a"b`,
		`"unterminated`,
		",,\n,,",
	}
	for i, s := range seeds {
		f.Add(s, uint(i))
	}

	f.Fuzz(func(t *testing.T, input string, split uint) {
		at := 0
		if len(input) > 0 {
			at = int(split % uint(len(input)+1))
		}
		opts := DefaultOptions()
		opts.TrackLocation = true

		whole, wholeErr := lexChunks(t, opts, input)
		parts, partsErr := lexChunks(t, opts, input[:at], input[at:])
		if (wholeErr == nil) != (partsErr == nil) {
			t.Fatalf("error mismatch for %q split at %d: whole=%v split=%v", input, at, wholeErr, partsErr)
		}
		if wholeErr == nil {
			assertSameTokens(t, "fuzz", whole, parts)
		}
	})
}
