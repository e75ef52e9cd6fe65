package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Category groups SendGrid objects for validation scoping.
type Category string

const (
	MarketingCampaign Category = "MarketingCampaign"
	Statistic         Category = "Statistic"
	Suppression       Category = "Suppression"
)

// Categories returns every category in declaration order.
func Categories() []Category {
	return []Category{MarketingCampaign, Statistic, Suppression}
}

// ErrInvalidCategory is returned for tokens outside the category enumeration.
var ErrInvalidCategory = errors.New("invalid category")

// ParseCategory converts a user token into a Category. Surrounding whitespace is ignored.
func ParseCategory(token string) (Category, error) {
	t := strings.TrimSpace(token)
	for _, c := range Categories() {
		if string(c) == t {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, token)
}

// FieldType is the primitive semantic type of a field.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeInteger   FieldType = "integer"
	TypeFloat     FieldType = "float"
	TypeBoolean   FieldType = "boolean"
	TypeTimestamp FieldType = "timestamp"
)

// Field describes a single field of a remote object.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Nullable bool      `json:"nullable"`
}

// Shape tells the client how a response body maps to records.
type Shape int

const (
	// ShapeList is an array of flat objects.
	ShapeList Shape = iota
	// ShapeStats is an array of date buckets, each holding a stats array with metrics.
	ShapeStats
)

// Pagination is the paging scheme of an endpoint.
type Pagination int

const (
	PaginationNone Pagination = iota
	// PaginationOffset pages with limit/offset query parameters.
	PaginationOffset
	// PaginationMetadataNext follows the _metadata.next URL.
	PaginationMetadataNext
)

// ObjectDefinition is an immutable catalog entry.
type ObjectDefinition struct {
	Name              string     `json:"name"`
	Category          Category   `json:"category"`
	Fields            []Field    `json:"fields"`
	RequiredArguments []string   `json:"required_arguments,omitempty"`
	OptionalArguments []string   `json:"optional_arguments,omitempty"`
	Path              string     `json:"-"`
	ResultKey         string     `json:"-"`
	Shape             Shape      `json:"-"`
	Pagination        Pagination `json:"-"`
}

// HasField reports whether the object declares a field with the given name.
func (d ObjectDefinition) HasField(name string) bool {
	_, ok := d.Field(name)
	return ok
}

// Field returns the declared field with the given name.
func (d ObjectDefinition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Match returns the declared fields whose names appear in requested, in
// catalog order. Each declared field appears at most once.
func (d ObjectDefinition) Match(requested []string) []Field {
	if len(requested) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(requested))
	for _, r := range requested {
		want[r] = struct{}{}
	}
	var out []Field
	for _, f := range d.Fields {
		if _, ok := want[f.Name]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Requires reports whether arg is one of the object's required arguments.
func (d ObjectDefinition) Requires(arg string) bool {
	for _, a := range d.RequiredArguments {
		if a == arg {
			return true
		}
	}
	return false
}

// clone copies the slices so callers cannot mutate catalog state.
func (d ObjectDefinition) clone() ObjectDefinition {
	d.Fields = append([]Field(nil), d.Fields...)
	d.RequiredArguments = append([]string(nil), d.RequiredArguments...)
	d.OptionalArguments = append([]string(nil), d.OptionalArguments...)
	return d
}
