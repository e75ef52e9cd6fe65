// Package validation checks a source configuration before any data is read.
//
// Every check runs and reports into one collector, so a single call lists all
// problems. Only the live connectivity probe is conditional: it needs a client,
// and a client is built only when the auth properties are usable.
package validation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/sendgrid-source/internal/catalog"
	"github.com/ignite/sendgrid-source/internal/selection"
	"github.com/ignite/sendgrid-source/internal/source"
)

// DefaultProbeTimeout bounds the connectivity check.
const DefaultProbeTimeout = 10 * time.Second

// Prober checks that credentials can reach the remote API.
type Prober interface {
	CheckConnection(ctx context.Context) error
}

// ClientFactory builds a Prober from complete credentials.
type ClientFactory func(creds source.Credentials) Prober

// Validator runs the ordered configuration checks. It holds no per-call state
// and is safe for concurrent use.
type Validator struct {
	newClient            ClientFactory
	probeTimeout         time.Duration
	requireReferenceName bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithProbeTimeout overrides DefaultProbeTimeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.probeTimeout = d
		}
	}
}

// WithReferenceName makes an empty referenceName a failure. Extract runs need
// it for lineage and run locking; previews do not.
func WithReferenceName() Option {
	return func(v *Validator) { v.requireReferenceName = true }
}

// New returns a Validator. A nil factory disables the connectivity probe.
func New(newClient ClientFactory, opts ...Option) *Validator {
	v := &Validator{newClient: newClient, probeTimeout: DefaultProbeTimeout}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every check against cfg and returns the failures found, in
// check order. An empty result means the configuration is accepted. cfg is
// not modified.
func (v *Validator) Validate(ctx context.Context, cfg *source.Config) []Failure {
	var c Collector
	sel := cfg.Selection()
	cat := cfg.Catalog()

	if v.requireReferenceName && strings.TrimSpace(cfg.ReferenceName()) == "" {
		c.Add(MissingRequiredField, "Reference name is not set", source.PropertyReferenceName)
	}

	authOK := checkAuthType(&c, cfg)
	var prober Prober
	if authOK {
		prober = v.checkAuthData(&c, cfg.Credentials())
	}
	checkCategories(&c, sel)
	checkObjects(&c, cat, sel)
	checkFields(&c, cat, sel)
	checkRequiredArguments(&c, cat, sel, cfg.RequestArguments())
	checkDate(&c, cfg.StartDate(), source.PropertyStartDate)
	checkDate(&c, cfg.EndDate(), source.PropertyEndDate)

	if prober != nil {
		v.checkConnectivity(ctx, &c, prober, cfg.Credentials())
	}
	return c.Failures()
}

func checkAuthType(c *Collector, cfg *source.Config) bool {
	if _, err := cfg.AuthType(); err != nil {
		c.AddCause(InvalidEnumValue, fmt.Sprintf("Wrong authentication method selected: %v", err), err, source.PropertyAuthType)
		return false
	}
	return true
}

func (v *Validator) checkAuthData(c *Collector, creds source.Credentials) Prober {
	switch creds.Type {
	case source.AuthBasic:
		if creds.Username == "" {
			c.Add(MissingRequiredField, "User name is not set", source.PropertyAuthUsername)
		}
		if creds.Password == "" {
			c.Add(MissingRequiredField, "Password is not set", source.PropertyAuthPassword)
		}
	case source.AuthAPI:
		if creds.APIKey == "" {
			c.Add(MissingRequiredField, "API Key is not set", source.PropertySendGridAPIKey)
		}
	}
	if !creds.Complete() || v.newClient == nil {
		return nil
	}
	return v.newClient(creds)
}

func checkCategories(c *Collector, sel selection.Selection) {
	if len(sel.CategoryTokens) == 0 {
		c.Add(EmptySelection, "Object categories are not set", source.PropertyDataSourceTypes)
	}
	for _, token := range sel.UnknownCategories {
		c.Add(InvalidEnumValue, fmt.Sprintf("Unknown '%s' data source type", token), source.PropertyDataSourceTypes)
	}
}

func checkObjects(c *Collector, cat *catalog.Catalog, sel selection.Selection) {
	objects := selection.Distinct(sel.Objects)
	for _, name := range objects {
		if !cat.Contains(name) {
			c.Add(InvalidEnumValue, fmt.Sprintf("Unknown object '%s'", name), source.PropertyDataSource)
		}
	}
	for _, category := range distinctCategories(sel.Categories) {
		covered := false
		for _, name := range objects {
			if def, err := cat.Lookup(name); err == nil && def.Category == category {
				covered = true
				break
			}
		}
		if !covered {
			c.Add(EmptySelection, fmt.Sprintf("No objects selected for the category: %s", category), source.PropertyDataSource)
		}
	}
}

func checkFields(c *Collector, cat *catalog.Catalog, sel selection.Selection) {
	for _, name := range selection.Distinct(sel.Objects) {
		def, err := cat.Lookup(name)
		if err != nil {
			continue
		}
		if len(def.Match(sel.Fields)) == 0 {
			c.Add(EmptySelection, fmt.Sprintf("No fields selected for object '%s'", name), source.PropertyDataSourceFields)
		}
	}
}

func checkRequiredArguments(c *Collector, cat *catalog.Catalog, sel selection.Selection, args map[string]string) {
	reported := make(map[string]struct{})
	for _, name := range selection.Distinct(sel.Objects) {
		def, err := cat.Lookup(name)
		if err != nil {
			continue
		}
		for _, arg := range def.RequiredArguments {
			if _, ok := args[arg]; ok {
				continue
			}
			if _, done := reported[arg]; done {
				continue
			}
			reported[arg] = struct{}{}
			c.Add(MissingRequiredField, fmt.Sprintf("Argument %s cannot be empty", arg), arg)
		}
	}
}

// checkDate reports at most one failure per property.
func checkDate(c *Collector, value, property string) {
	if value == "" {
		return
	}
	m := catalog.DatePattern.FindStringSubmatch(value)
	if m == nil {
		c.Add(MalformedDate, "Input format should match YYYY-MM-DD", property)
		return
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	var problems []string
	if month < 1 || month > 12 {
		problems = append(problems, "MM should be in range from 1 to 12")
	}
	if day < 1 || day > 31 {
		problems = append(problems, "DD should be in range from 1 to 31")
	}
	if len(problems) > 0 {
		c.Add(OutOfRangeDate, "Input format should match YYYY-MM-DD and "+strings.Join(problems, " and "), property)
	}
}

func (v *Validator) checkConnectivity(ctx context.Context, c *Collector, p Prober, creds source.Credentials) {
	ctx, cancel := context.WithTimeout(ctx, v.probeTimeout)
	defer cancel()
	if err := p.CheckConnection(ctx); err != nil {
		c.AddCause(ConnectivityFailure, fmt.Sprintf("Connectivity issues: %v", err), err, creds.Properties()...)
	}
}

func distinctCategories(in []catalog.Category) []catalog.Category {
	seen := make(map[catalog.Category]struct{}, len(in))
	var out []catalog.Category
	for _, c := range in {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
