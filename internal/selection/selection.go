// Package selection parses the raw category, object and field strings of a
// source configuration into a typed Selection.
//
// Parsing happens once, at the configuration boundary. Nothing deeper in the
// pipeline looks at the raw comma-delimited strings again.
package selection

import (
	"strings"

	"github.com/ignite/sendgrid-source/internal/catalog"
)

// Delimiter separates tokens in every list-valued property.
const Delimiter = ","

// Input carries the raw list-valued properties of a source configuration.
type Input struct {
	DataSourceTypes        string
	DataSourceMarketing    string
	DataSourceStats        string
	DataSourceSuppressions string
	DataSourceFields       string
}

// Selection is the resolved view of an Input. It is a value: build it with
// Resolve and treat it as read-only.
type Selection struct {
	CategoryTokens    []string
	Categories        []catalog.Category
	UnknownCategories []string
	Objects           []string
	Fields            []string
	MultiObjectMode   bool
}

// Resolve parses every list in the input. Unknown category tokens are kept in
// UnknownCategories for the validator to report.
func Resolve(in Input) Selection {
	tokens := splitTokens(in.DataSourceTypes)
	categories, unknown := ResolveCategories(tokens)
	objects := ResolveObjects(in.DataSourceMarketing, in.DataSourceStats, in.DataSourceSuppressions)
	return Selection{
		CategoryTokens:    tokens,
		Categories:        categories,
		UnknownCategories: unknown,
		Objects:           objects,
		Fields:            ResolveFields(in.DataSourceFields),
		MultiObjectMode:   IsMultiObjectMode(objects),
	}
}

// ResolveCategories converts every token it can and returns the rest as unknown.
// It never stops at the first bad token.
func ResolveCategories(tokens []string) (resolved []catalog.Category, unknown []string) {
	for _, t := range tokens {
		c, err := catalog.ParseCategory(t)
		if err != nil {
			unknown = append(unknown, t)
			continue
		}
		resolved = append(resolved, c)
	}
	return resolved, unknown
}

// ResolveObjects joins the three per-category slots in their fixed order
// (marketing, statistics, suppressions) and splits the result. The order is
// the order in which records are emitted in multi-object mode.
func ResolveObjects(marketing, stats, suppressions string) []string {
	var out []string
	for _, slot := range []string{marketing, stats, suppressions} {
		out = append(out, splitTokens(slot)...)
	}
	return out
}

// ResolveFields splits the requested field list. Order and duplicates are kept
// exactly as given; an empty string means no fields.
func ResolveFields(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, Delimiter)
}

// IsMultiObjectMode reports whether more than one distinct, non-empty object is selected.
func IsMultiObjectMode(objects []string) bool {
	return len(Distinct(objects)) > 1
}

// Distinct returns the non-empty objects with duplicates removed, first occurrence wins.
func Distinct(objects []string) []string {
	seen := make(map[string]struct{}, len(objects))
	var out []string
	for _, o := range objects {
		if o == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}

// HasCategory reports whether the resolved categories include c.
func (s Selection) HasCategory(c catalog.Category) bool {
	for _, x := range s.Categories {
		if x == c {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so a frozen Selection can be handed out safely.
func (s Selection) Clone() Selection {
	return Selection{
		CategoryTokens:    cloneStrings(s.CategoryTokens),
		Categories:        append([]catalog.Category(nil), s.Categories...),
		UnknownCategories: cloneStrings(s.UnknownCategories),
		Objects:           cloneStrings(s.Objects),
		Fields:            cloneStrings(s.Fields),
		MultiObjectMode:   s.MultiObjectMode,
	}
}

// splitTokens splits a list-valued property, trims each token and drops empty ones.
func splitTokens(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, Delimiter) {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	return append([]string(nil), in...)
}
