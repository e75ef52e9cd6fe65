// Package sink writes the rows of an extract run to their destination.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ignite/sendgrid-source/internal/pipeline"
	"github.com/ignite/sendgrid-source/internal/schema"
)

// Batch is the complete output of one extract run.
type Batch struct {
	RunID         string
	ReferenceName string
	StartedAt     time.Time
	Schema        schema.Schema
	Rows          []pipeline.Row
}

// Sink persists a batch.
type Sink interface {
	Write(ctx context.Context, b Batch) error
}

// encodeRow renders a row as a JSON object with keys in schema order.
func encodeRow(buf *bytes.Buffer, s schema.Schema, row pipeline.Row) error {
	buf.WriteByte('{')
	for i, f := range s.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return err
		}
		v, err := json.Marshal(row[f.Name])
		if err != nil {
			return fmt.Errorf("encoding %s: %w", f.Name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return nil
}

// encodeJSONL renders rows as newline-delimited JSON.
func encodeJSONL(s schema.Schema, rows []pipeline.Row) ([]byte, error) {
	var buf bytes.Buffer
	for i, row := range rows {
		if err := encodeRow(&buf, s, row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
