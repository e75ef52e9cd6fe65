package schema

import (
	"errors"
	"fmt"

	"github.com/ignite/sendgrid-source/internal/catalog"
	"github.com/ignite/sendgrid-source/internal/selection"
)

var (
	// ErrNoObjects is returned when no object is selected.
	ErrNoObjects = errors.New("no objects selected")
	// ErrUnknownObject is returned for objects absent from the catalog.
	ErrUnknownObject = errors.New("unknown object")
	// ErrNoFieldsMatched is returned when none of the requested fields belong to a selected object.
	ErrNoFieldsMatched = errors.New("no requested fields match object")
)

// Builder merges catalog field sets into output schemas. It holds no state
// besides the read-only catalog and is safe for concurrent use.
type Builder struct {
	catalog *catalog.Catalog
}

// NewBuilder returns a Builder backed by cat, or by the default catalog when cat is nil.
func NewBuilder(cat *catalog.Catalog) *Builder {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Builder{catalog: cat}
}

// Build derives the mode from the objects and builds the schema.
func (b *Builder) Build(objects, fields []string) (Schema, error) {
	return b.BuildWithMode(objects, fields, selection.IsMultiObjectMode(objects))
}

// BuildWithMode builds the schema for objects projected onto fields.
//
// Single-object mode keeps the first object's matched fields in catalog order
// with their declared nullability. Multi-object mode prepends the discriminator
// and unions the matched fields by name in first-seen order, all nullable; when
// two objects declare a field with different types the first one wins.
//
// Every selected object must exist and match at least one field; all problems
// are joined into the returned error.
func (b *Builder) BuildWithMode(objects, fields []string, multi bool) (Schema, error) {
	names := selection.Distinct(objects)
	if len(names) == 0 {
		return Schema{}, ErrNoObjects
	}

	var errs []error
	matched := make([][]catalog.Field, 0, len(names))
	for _, name := range names {
		def, err := b.catalog.Lookup(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownObject, name))
			continue
		}
		m := def.Match(fields)
		if len(m) == 0 {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoFieldsMatched, name))
			continue
		}
		matched = append(matched, m)
	}
	if len(errs) > 0 {
		return Schema{}, errors.Join(errs...)
	}

	if !multi {
		out := Schema{Fields: make([]Field, 0, len(matched[0]))}
		for _, f := range matched[0] {
			out.Fields = append(out.Fields, Field{Name: f.Name, Type: f.Type, Nullable: f.Nullable})
		}
		return out, nil
	}

	out := Schema{
		Fields:        []Field{{Name: DiscriminatorField, Type: catalog.TypeString, Nullable: true}},
		Discriminated: true,
	}
	seen := map[string]struct{}{DiscriminatorField: {}}
	for _, m := range matched {
		for _, f := range m {
			if _, dup := seen[f.Name]; dup {
				continue
			}
			seen[f.Name] = struct{}{}
			out.Fields = append(out.Fields, Field{Name: f.Name, Type: f.Type, Nullable: true})
		}
	}
	return out, nil
}
