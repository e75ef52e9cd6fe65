// Package pipeline is the read stage of an extract run. It fetches every
// selected object in selection order and projects the records onto the
// configuration's output schema.
package pipeline

import (
	"context"
	"fmt"

	"github.com/ignite/sendgrid-source/internal/catalog"
	"github.com/ignite/sendgrid-source/internal/pkg/logger"
	"github.com/ignite/sendgrid-source/internal/schema"
	"github.com/ignite/sendgrid-source/internal/selection"
	"github.com/ignite/sendgrid-source/internal/sendgrid"
	"github.com/ignite/sendgrid-source/internal/source"
)

// Fetcher reads all records of one object.
type Fetcher interface {
	Fetch(ctx context.Context, def catalog.ObjectDefinition, args map[string]string) ([]sendgrid.Record, error)
}

// Row is one output row keyed by schema field name. Every schema field is
// present; absent remote values are nil.
type Row map[string]interface{}

// Stats counts rows emitted per object.
type Stats struct {
	Objects []string
	Rows    map[string]int
}

// Total returns the number of rows over all objects.
func (s Stats) Total() int {
	n := 0
	for _, c := range s.Rows {
		n += c
	}
	return n
}

// Reader projects fetched records onto a fixed schema.
type Reader struct {
	cfg     *source.Config
	fetcher Fetcher
	schema  schema.Schema
}

// NewReader prepares a reader for a validated configuration.
func NewReader(cfg *source.Config, f Fetcher) (*Reader, error) {
	s, err := cfg.Schema()
	if err != nil {
		return nil, fmt.Errorf("building schema: %w", err)
	}
	return &Reader{cfg: cfg, fetcher: f, schema: s}, nil
}

// Schema returns the output schema.
func (r *Reader) Schema() schema.Schema { return r.schema }

// Read fetches each object and passes its rows to emit, objects in selection
// order and rows in the order SendGrid returned them. It stops at the first
// fetch, conversion or emit error.
func (r *Reader) Read(ctx context.Context, emit func(Row) error) (Stats, error) {
	cat := r.cfg.Catalog()
	args := r.cfg.RequestArguments()
	stats := Stats{Rows: make(map[string]int)}

	for _, name := range selection.Distinct(r.cfg.DataSource()) {
		// names passed validation, a miss here is a catalog/resolver bug
		def := cat.MustLookup(name)
		stats.Objects = append(stats.Objects, name)

		records, err := r.fetcher.Fetch(ctx, def, args)
		if err != nil {
			return stats, err
		}
		for i, rec := range records {
			row, err := r.project(def, rec)
			if err != nil {
				return stats, fmt.Errorf("%s record %d: %w", name, i, err)
			}
			if err := emit(row); err != nil {
				return stats, err
			}
			stats.Rows[name]++
		}
		logger.Info("object read", "object", name, "rows", stats.Rows[name])
	}
	return stats, nil
}

func (r *Reader) project(def catalog.ObjectDefinition, rec sendgrid.Record) (Row, error) {
	row := make(Row, r.schema.Len())
	for _, f := range r.schema.Fields {
		if r.schema.Discriminated && f.Name == schema.DiscriminatorField {
			row[f.Name] = def.Name
			continue
		}
		if !def.HasField(f.Name) {
			row[f.Name] = nil
			continue
		}
		v, err := Coerce(rec[f.Name], f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		row[f.Name] = v
	}
	return row, nil
}
