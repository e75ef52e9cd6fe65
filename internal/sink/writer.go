package sink

import (
	"context"
	"io"
)

// WriterSink writes JSON lines to w, typically stdout.
type WriterSink struct {
	w io.Writer
}

// NewWriter returns a sink writing to w.
func NewWriter(w io.Writer) *WriterSink { return &WriterSink{w: w} }

func (s *WriterSink) Write(ctx context.Context, b Batch) error {
	data, err := encodeJSONL(b.Schema, b.Rows)
	if err != nil {
		return err
	}
	_, err = s.w.Write(data)
	return err
}
