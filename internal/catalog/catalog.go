// Package catalog is the static registry of SendGrid objects the source can read.
//
// The catalog is built once at process start and never mutated, so a *Catalog
// can be shared by any number of goroutines without locking.
package catalog

import (
	"errors"
	"fmt"
)

// Query argument names. They double as configuration property keys.
const (
	ArgStartDate      = "start_date"
	ArgEndDate        = "end_date"
	ArgStatCategories = "statCategories"
)

// ErrObjectNotFound is returned by Lookup for unknown object names.
var ErrObjectNotFound = errors.New("object not found")

// Catalog maps canonical object names to their definitions.
type Catalog struct {
	byName map[string]ObjectDefinition
	order  []string
}

// New builds a catalog from definitions. Names must be unique and every
// definition must declare at least one field.
func New(defs ...ObjectDefinition) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]ObjectDefinition, len(defs))}
	for _, d := range defs {
		if d.Name == "" {
			return nil, errors.New("catalog: object definition without a name")
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate object %q", d.Name)
		}
		if len(d.Fields) == 0 {
			return nil, fmt.Errorf("catalog: object %q declares no fields", d.Name)
		}
		seen := make(map[string]struct{}, len(d.Fields))
		for _, f := range d.Fields {
			if _, dup := seen[f.Name]; dup {
				return nil, fmt.Errorf("catalog: object %q declares field %q twice", d.Name, f.Name)
			}
			seen[f.Name] = struct{}{}
		}
		c.byName[d.Name] = d
		c.order = append(c.order, d.Name)
	}
	return c, nil
}

var defaultCatalog = mustNew(builtin()...)

func mustNew(defs ...ObjectDefinition) *Catalog {
	c, err := New(defs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the process-wide SendGrid catalog.
func Default() *Catalog { return defaultCatalog }

// Lookup returns the definition registered under name.
func (c *Catalog) Lookup(name string) (ObjectDefinition, error) {
	d, ok := c.byName[name]
	if !ok {
		return ObjectDefinition{}, fmt.Errorf("%w: %q", ErrObjectNotFound, name)
	}
	return d.clone(), nil
}

// MustLookup is Lookup for names that already passed validation. A miss means
// the resolver and the catalog disagree, which is a programming error.
func (c *Catalog) MustLookup(name string) ObjectDefinition {
	d, err := c.Lookup(name)
	if err != nil {
		panic(fmt.Sprintf("catalog: validated object missing from catalog: %v", err))
	}
	return d
}

// Contains reports whether name is a registered object.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// ForCategory returns the definitions of a category in declaration order.
func (c *Catalog) ForCategory(category Category) []ObjectDefinition {
	var out []ObjectDefinition
	for _, n := range c.order {
		if d := c.byName[n]; d.Category == category {
			out = append(out, d.clone())
		}
	}
	return out
}

// Names returns every object name in declaration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Definitions returns every definition in declaration order.
func (c *Catalog) Definitions() []ObjectDefinition {
	out := make([]ObjectDefinition, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.byName[n].clone())
	}
	return out
}
