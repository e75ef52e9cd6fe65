// Package schema builds the output schema of a source configuration from the
// selected objects and the requested fields.
package schema

import (
	"encoding/json"

	"github.com/ignite/sendgrid-source/internal/catalog"
)

// DiscriminatorField names the synthetic column that carries the originating
// object of each row in multi-object mode.
const DiscriminatorField = "object_name"

// RecordName is the name of the record emitted by MarshalJSON.
const RecordName = "etlSchemaBody"

// Field is one output column.
type Field struct {
	Name     string
	Type     catalog.FieldType
	Nullable bool
}

// Schema is an ordered list of output columns. In multi-object mode the first
// column is the discriminator.
type Schema struct {
	Fields        []Field
	Discriminated bool
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Field returns the column with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Len returns the number of columns.
func (s Schema) Len() int { return len(s.Fields) }

type jsonRecord struct {
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Fields []jsonField `json:"fields"`
}

type jsonField struct {
	Name string `json:"name"`
	Type any    `json:"type"`
}

type logicalType struct {
	Type        string `json:"type"`
	LogicalType string `json:"logicalType"`
}

func avroType(t catalog.FieldType) any {
	switch t {
	case catalog.TypeInteger:
		return "long"
	case catalog.TypeFloat:
		return "double"
	case catalog.TypeBoolean:
		return "boolean"
	case catalog.TypeTimestamp:
		return logicalType{Type: "long", LogicalType: "timestamp-micros"}
	default:
		return "string"
	}
}

// MarshalJSON renders the schema as an Avro record. Output is byte-identical
// for equal schemas.
func (s Schema) MarshalJSON() ([]byte, error) {
	rec := jsonRecord{Type: "record", Name: RecordName, Fields: make([]jsonField, 0, len(s.Fields))}
	for _, f := range s.Fields {
		t := avroType(f.Type)
		if f.Nullable {
			t = []any{t, "null"}
		}
		rec.Fields = append(rec.Fields, jsonField{Name: f.Name, Type: t})
	}
	return json.Marshal(rec)
}
