package csv_test

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"testing"

	shapecsv "github.com/shapestone/shape-csvstream/pkg/csv"
)

func benchmarkInput(rows int) string {
	var sb strings.Builder
	sb.WriteString("id,name,email,note\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&sb, "%d,user%d,user%d@example.com,\"said \"\"hi\"\", then left\"\n", i, i, i)
	}
	return sb.String()
}

var benchSizes = []int{100, 10000}

func BenchmarkParse(b *testing.B) {
	for _, n := range benchSizes {
		input := benchmarkInput(n)
		b.Run(fmt.Sprintf("rows=%d", n), func(b *testing.B) {
			b.SetBytes(int64(len(input)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := shapecsv.Parse(input); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkScanner(b *testing.B) {
	for _, n := range benchSizes {
		input := benchmarkInput(n)
		b.Run(fmt.Sprintf("rows=%d", n), func(b *testing.B) {
			b.SetBytes(int64(len(input)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s := shapecsv.NewScanner(strings.NewReader(input))
				for s.Scan() {
				}
				if err := s.Err(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkStream(b *testing.B) {
	input := benchmarkInput(10000)
	b.SetBytes(int64(len(input)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		out := make(chan shapecsv.Record, 64)
		done := make(chan struct{})
		go func() {
			for range out {
			}
			close(done)
		}()
		err := shapecsv.Stream(context.Background(), strings.NewReader(input), out, shapecsv.DefaultOptions())
		close(out)
		<-done
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEncodingCSV is the standard library baseline.
func BenchmarkEncodingCSV(b *testing.B) {
	for _, n := range benchSizes {
		input := benchmarkInput(n)
		b.Run(fmt.Sprintf("rows=%d", n), func(b *testing.B) {
			b.SetBytes(int64(len(input)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				r := csv.NewReader(strings.NewReader(input))
				for {
					if _, err := r.Read(); err == io.EOF {
						break
					} else if err != nil {
						b.Fatal(err)
					}
				}
			}
		})
	}
}
