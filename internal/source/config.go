package source

import (
	"github.com/ignite/sendgrid-source/internal/catalog"
	"github.com/ignite/sendgrid-source/internal/schema"
	"github.com/ignite/sendgrid-source/internal/selection"
)

// Config is a source configuration with every derived value computed up front.
// After New returns nothing in it changes, so a *Config may be shared between
// goroutines. Accessors hand out copies.
type Config struct {
	raw       RawConfig
	catalog   *catalog.Catalog
	builder   *schema.Builder
	authType  AuthType
	authErr   error
	selection selection.Selection
	args      map[string]string
	schema    schema.Schema
	schemaErr error
}

// New builds a Config against the default catalog.
func New(raw RawConfig) *Config {
	return NewWithCatalog(raw, catalog.Default())
}

// NewWithCatalog resolves the raw properties against cat. Problems are kept on
// the Config for the validator to report; construction never fails.
func NewWithCatalog(raw RawConfig, cat *catalog.Catalog) *Config {
	c := &Config{
		raw:     raw,
		catalog: cat,
		builder: schema.NewBuilder(cat),
	}
	c.authType, c.authErr = ParseAuthType(raw.AuthType)
	c.selection = selection.Resolve(selection.Input{
		DataSourceTypes:        raw.DataSourceTypes,
		DataSourceMarketing:    raw.DataSourceMarketing,
		DataSourceStats:        raw.DataSourceStats,
		DataSourceSuppressions: raw.DataSourceSuppressions,
		DataSourceFields:       raw.DataSourceFields,
	})
	c.args = buildRequestArguments(raw)
	c.schema, c.schemaErr = c.builder.BuildWithMode(c.selection.Objects, c.selection.Fields, c.selection.MultiObjectMode)
	return c
}

func buildRequestArguments(raw RawConfig) map[string]string {
	args := make(map[string]string, 3)
	if raw.StartDate != "" {
		args[PropertyStartDate] = raw.StartDate
	}
	if raw.EndDate != "" {
		args[PropertyEndDate] = raw.EndDate
	}
	if raw.StatCategories != "" {
		args[PropertyStatCategories] = raw.StatCategories
	}
	return args
}

// Raw returns the properties the Config was built from.
func (c *Config) Raw() RawConfig { return c.raw }

// Catalog returns the catalog the Config was resolved against.
func (c *Config) Catalog() *catalog.Catalog { return c.catalog }

// ReferenceName identifies the source for lineage.
func (c *Config) ReferenceName() string { return c.raw.ReferenceName }

// AuthType returns the parsed authentication mode or ErrUnsupportedAuthType.
func (c *Config) AuthType() (AuthType, error) { return c.authType, c.authErr }

// Credentials returns the auth material. Type is empty when authType is invalid.
func (c *Config) Credentials() Credentials {
	return Credentials{
		Type:     c.authType,
		APIKey:   c.raw.SendGridAPIKey,
		Username: c.raw.Username,
		Password: c.raw.Password,
	}
}

// Selection returns a copy of the resolved selection.
func (c *Config) Selection() selection.Selection { return c.selection.Clone() }

// DataSourceTypes returns the category tokens as given.
func (c *Config) DataSourceTypes() []string {
	return append([]string(nil), c.selection.CategoryTokens...)
}

// DataSource returns the selected objects in emission order.
func (c *Config) DataSource() []string {
	return append([]string(nil), c.selection.Objects...)
}

// Fields returns the requested fields as given.
func (c *Config) Fields() []string {
	return append([]string(nil), c.selection.Fields...)
}

// MultiObjectMode reports whether rows from several objects share one schema.
func (c *Config) MultiObjectMode() bool { return c.selection.MultiObjectMode }

// RequestArguments returns the query arguments derived from the optional
// date range and category filter. Only non-empty values are present.
func (c *Config) RequestArguments() map[string]string {
	out := make(map[string]string, len(c.args))
	for k, v := range c.args {
		out[k] = v
	}
	return out
}

// StartDate returns the raw start_date property.
func (c *Config) StartDate() string { return c.raw.StartDate }

// EndDate returns the raw end_date property.
func (c *Config) EndDate() string { return c.raw.EndDate }

// Schema returns the output schema, or the reason it could not be built.
func (c *Config) Schema() (schema.Schema, error) {
	if c.schemaErr != nil {
		return schema.Schema{}, c.schemaErr
	}
	out := c.schema
	out.Fields = append([]schema.Field(nil), c.schema.Fields...)
	return out, nil
}

// SchemaFor builds a schema limited to objects while keeping the
// configuration's multi-object mode, so per-object readers stay column
// compatible with the combined output.
func (c *Config) SchemaFor(objects []string) (schema.Schema, error) {
	return c.builder.BuildWithMode(objects, c.selection.Fields, c.selection.MultiObjectMode)
}
