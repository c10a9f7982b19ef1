// Package output delivers encoded measurements to their destination. Each
// sink performs one synchronous write per accepted measurement; there is no
// buffering, retry or delivery guarantee beyond what the transport gives.
package output

import (
	"io"

	"github.com/lautis/ruuvitag-listener/internal/measurement"
)

// Sink receives each accepted measurement once, both as the encoded
// line-protocol text and as the structured measurement for transports that
// build their own points.
type Sink interface {
	Emit(m *measurement.Measurement, name string, line []byte) error
	Close() error
}

// WriterSink writes one line-protocol line per measurement to w, newline
// terminated. It is the default stdout sink.
type WriterSink struct {
	w io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Emit(_ *measurement.Measurement, _ string, line []byte) error {
	if _, err := s.w.Write(line); err != nil {
		return err
	}
	_, err := s.w.Write([]byte{'\n'})
	return err
}

func (s *WriterSink) Close() error { return nil }
