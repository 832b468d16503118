package csv

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts parsing activity. A nil *Metrics is valid and records
// nothing.
//
//	reg := prometheus.NewRegistry()
//	m, err := csv.NewMetrics(reg)
//	if err != nil {
//	    return err
//	}
//	opts := csv.DefaultOptions()
//	opts.Metrics = m
type Metrics struct {
	chunks  prometheus.Counter
	bytes   prometheus.Counter
	records prometheus.Counter
	errors  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg. If any
// registration fails, the collectors already registered are removed again.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csvstream_chunks_total",
			Help: "Input chunks handed to the lexer.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csvstream_bytes_total",
			Help: "Input bytes read before decoding.",
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csvstream_records_total",
			Help: "Records emitted, including an emitted header row.",
		}),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "csvstream_errors_total",
				Help: "Errors that stopped parsing, partitioned by kind (config, parse, limit, mismatch, abort, decode, io).",
			},
			[]string{"kind"},
		),
	}

	collectors := []struct {
		name string
		c    prometheus.Collector
	}{
		{"chunks", m.chunks},
		{"bytes", m.bytes},
		{"records", m.records},
		{"errors", m.errors},
	}
	for i, col := range collectors {
		if err := reg.Register(col.c); err != nil {
			for _, done := range collectors[:i] {
				reg.Unregister(done.c)
			}
			return nil, fmt.Errorf("csv: register %s counter: %w", col.name, err)
		}
	}
	return m, nil
}

func (m *Metrics) observeChunk(n int) {
	if m == nil {
		return
	}
	m.chunks.Inc()
	m.bytes.Add(float64(n))
}

func (m *Metrics) observeRecord() {
	if m == nil {
		return
	}
	m.records.Inc()
}

func (m *Metrics) observeError(err error) {
	if m == nil || err == nil {
		return
	}
	m.errors.WithLabelValues(errorKind(err)).Inc()
}
