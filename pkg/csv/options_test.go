package csv_test

import (
	"errors"
	"testing"

	"github.com/shapestone/shape-csvstream/pkg/csv"
)

func TestDefaultOptions(t *testing.T) {
	opts := csv.DefaultOptions()
	if opts.Delimiter != "," || opts.Quotation != `"` {
		t.Errorf("delimiters = %q %q, want \",\" %q", opts.Delimiter, opts.Quotation, `"`)
	}
	if opts.MaxBufferSize != csv.DefaultMaxBufferSize || opts.MaxFieldCount != csv.DefaultMaxFieldCount {
		t.Errorf("limits = %d %d", opts.MaxBufferSize, opts.MaxFieldCount)
	}
	if opts.ColumnCountStrategy != csv.Fill || opts.OutputFormat != csv.ObjectOutput {
		t.Errorf("strategy/output = %q %q", opts.ColumnCountStrategy, opts.OutputFormat)
	}
	if opts.Header != nil || opts.SkipEmptyLines || opts.IncludeHeader || opts.TrackLocation {
		t.Errorf("unexpected non-zero defaults: %+v", opts)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("DefaultOptions().Validate() = %v", err)
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*csv.Options)
		field   string
		wantErr bool
	}{
		{name: "zero value", modify: func(o *csv.Options) { *o = csv.Options{} }},
		{name: "only delimiter set", modify: func(o *csv.Options) { *o = csv.Options{Delimiter: ";"} }},
		{name: "multi-character", modify: func(o *csv.Options) { o.Delimiter = "::"; o.Quotation = "''" }},
		{name: "tab", modify: func(o *csv.Options) { o.Delimiter = "\t" }},
		{name: "unlimited", modify: func(o *csv.Options) { o.MaxBufferSize = csv.Unlimited; o.MaxFieldCount = csv.Unlimited }},
		{name: "keep with array and header", modify: func(o *csv.Options) {
			o.ColumnCountStrategy = csv.Keep
			o.OutputFormat = csv.ArrayOutput
			o.Header = []string{"a"}
		}},
		{name: "strict object", modify: func(o *csv.Options) { o.ColumnCountStrategy = csv.Strict }},

		{name: "delimiter equals quotation", modify: func(o *csv.Options) { o.Delimiter = `"` }, field: "Delimiter", wantErr: true},
		{name: "delimiter contains quotation", modify: func(o *csv.Options) { o.Delimiter = `,"` }, field: "Delimiter", wantErr: true},
		{name: "delimiter with newline", modify: func(o *csv.Options) { o.Delimiter = "\n" }, field: "Delimiter", wantErr: true},
		{name: "quotation with CR", modify: func(o *csv.Options) { o.Quotation = "\r" }, field: "Quotation", wantErr: true},
		{name: "negative buffer", modify: func(o *csv.Options) { o.MaxBufferSize = -1 }, field: "MaxBufferSize", wantErr: true},
		{name: "negative field count", modify: func(o *csv.Options) { o.MaxFieldCount = -5 }, field: "MaxFieldCount", wantErr: true},
		{name: "unknown strategy", modify: func(o *csv.Options) { o.ColumnCountStrategy = "pad" }, field: "ColumnCountStrategy", wantErr: true},
		{name: "unknown output", modify: func(o *csv.Options) { o.OutputFormat = "xml" }, field: "OutputFormat", wantErr: true},
		{name: "keep with object output", modify: func(o *csv.Options) {
			o.ColumnCountStrategy = csv.Keep
			o.Header = []string{"a"}
		}, field: "ColumnCountStrategy", wantErr: true},
		{name: "sparse without header", modify: func(o *csv.Options) {
			o.ColumnCountStrategy = csv.Sparse
			o.OutputFormat = csv.ArrayOutput
		}, field: "ColumnCountStrategy", wantErr: true},
		{name: "include header with object output", modify: func(o *csv.Options) { o.IncludeHeader = true }, field: "IncludeHeader", wantErr: true},
		{name: "empty header", modify: func(o *csv.Options) { o.Header = []string{} }, field: "Header", wantErr: true},
		{name: "duplicate header", modify: func(o *csv.Options) { o.Header = []string{"a", "b", "a"} }, field: "Header", wantErr: true},
		{name: "negative chunk size", modify: func(o *csv.Options) { o.ChunkSize = -1 }, field: "ChunkSize", wantErr: true},
		{name: "negative yield interval", modify: func(o *csv.Options) { o.YieldInterval = -1 }, field: "YieldInterval", wantErr: true},
		{name: "unknown charset", modify: func(o *csv.Options) { o.Charset = "ebcdic-klingon" }, field: "Charset", wantErr: true},
		{name: "fatal non-utf-8", modify: func(o *csv.Options) { o.Charset = "windows-1252"; o.FatalDecode = true }, field: "FatalDecode", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := csv.DefaultOptions()
			tt.modify(&opts)
			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var oe *csv.OptionsError
			if !errors.As(err, &oe) {
				t.Fatalf("Validate() error = %T, want *OptionsError", err)
			}
			if oe.Field != tt.field {
				t.Errorf("OptionsError.Field = %q, want %q", oe.Field, tt.field)
			}
			if !errors.Is(err, csv.ErrInvalidOptions) {
				t.Errorf("errors.Is(err, ErrInvalidOptions) = false")
			}
		})
	}
}

func TestOptions_HeaderWiderThanLimit(t *testing.T) {
	opts := csv.DefaultOptions()
	opts.Header = []string{"a", "b", "c"}
	opts.MaxFieldCount = 2

	err := opts.Validate()
	var le *csv.LimitError
	if !errors.As(err, &le) {
		t.Fatalf("Validate() error = %v, want *LimitError", err)
	}
	if le.Size != 3 || le.Limit != 2 {
		t.Errorf("LimitError = %+v, want Size 3, Limit 2", le)
	}
	want := "Header field count (3) exceeded maximum allowed count of 2"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&csv.OptionsError{Field: "Delimiter", Message: "must not be empty"}, "csv: invalid Delimiter: must not be empty"},
		{&csv.OptionsError{Field: "Header", Message: "The header must not be empty.", Source: "x.csv"}, `csv: invalid Header: The header must not be empty. in "x.csv"`},
		{&csv.FieldCountMismatchError{Expected: 3, Actual: 2, Row: 4}, "Expected 3 columns, got 2 at row 4"},
		{&csv.AbortError{Cause: errors.New("stop")}, "csv: operation aborted: stop"},
		{&csv.AbortError{Cause: errors.New("deadline"), Timeout: true, Source: "s"}, `csv: operation timed out: deadline in "s"`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
