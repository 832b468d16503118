package validation

import (
	"math"
	"strings"
)

const (
	// DefaultMaxBufferSize is the default lexer buffer limit (10 MiB).
	DefaultMaxBufferSize = 10 * 1024 * 1024

	// DefaultMaxFieldCount is the default per-row field limit.
	DefaultMaxFieldCount = 100000

	// Unlimited disables a size or count limit.
	Unlimited = math.MaxInt
)

// Delimiters checks that delimiter and quotation are non-empty, differ, and
// that neither contains the other.
func Delimiters(delimiter, quotation string) error {
	if delimiter == "" {
		return &OptionsError{Field: "Delimiter", Message: "must not be empty"}
	}
	if quotation == "" {
		return &OptionsError{Field: "Quotation", Message: "must not be empty"}
	}
	if strings.ContainsAny(delimiter, "\r\n") {
		return &OptionsError{Field: "Delimiter", Message: "must not contain CR or LF"}
	}
	if strings.ContainsAny(quotation, "\r\n") {
		return &OptionsError{Field: "Quotation", Message: "must not contain CR or LF"}
	}
	if delimiter == quotation {
		return &OptionsError{Field: "Delimiter", Message: "must not be the same as quotation"}
	}
	if strings.Contains(delimiter, quotation) || strings.Contains(quotation, delimiter) {
		return &OptionsError{Field: "Delimiter", Message: "must not be a substring of quotation or vice versa"}
	}
	return nil
}

// Limit resolves a size or count limit. Zero selects def, negative values
// are rejected, and Unlimited passes through.
func Limit(field string, v, def int) (int, error) {
	switch {
	case v == 0:
		return def, nil
	case v < 0:
		return 0, &OptionsError{Field: field, Message: "must be a positive integer or Unlimited"}
	default:
		return v, nil
	}
}

// Header checks a resolved header: it must be non-empty and free of
// duplicates.
func Header(header []string, source string) error {
	if len(header) == 0 {
		return &OptionsError{Field: "Header", Message: "The header must not be empty.", Source: source}
	}
	seen := make(map[string]struct{}, len(header))
	for _, name := range header {
		if _, dup := seen[name]; dup {
			return &OptionsError{Field: "Header", Message: "The header must not contain duplicate fields.", Source: source}
		}
		seen[name] = struct{}{}
	}
	return nil
}

// HeaderWidth checks a header against the field count limit.
func HeaderWidth(header []string, maxFieldCount int, source string) error {
	if len(header) > maxFieldCount {
		return &LimitError{Kind: LimitHeader, Size: len(header), Limit: maxFieldCount, Source: source}
	}
	return nil
}
