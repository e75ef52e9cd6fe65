// Package api is the HTTP surface used by pipeline UIs to browse the object
// catalog, validate a source configuration and preview its output schema.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/sendgrid-source/internal/catalog"
	"github.com/ignite/sendgrid-source/internal/pkg/httputil"
	"github.com/ignite/sendgrid-source/internal/pkg/logger"
	"github.com/ignite/sendgrid-source/internal/schema"
	"github.com/ignite/sendgrid-source/internal/source"
	"github.com/ignite/sendgrid-source/internal/validation"
)

// Validator validates a source configuration.
type Validator interface {
	Validate(ctx context.Context, cfg *source.Config) []validation.Failure
}

// ProbeInvalidator drops a remembered connectivity result.
type ProbeInvalidator interface {
	Invalidate(ctx context.Context, creds source.Credentials) error
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	catalog     *catalog.Catalog
	validator   Validator
	invalidator ProbeInvalidator
	started     time.Time
}

// Option configures Handlers.
type Option func(*Handlers)

// WithProbeInvalidator lets POST /api/validate?refresh=true bypass a cached
// connectivity result.
func WithProbeInvalidator(inv ProbeInvalidator) Option {
	return func(h *Handlers) { h.invalidator = inv }
}

// NewHandlers creates the handlers. A nil catalog means the default catalog.
func NewHandlers(cat *catalog.Catalog, v Validator, opts ...Option) *Handlers {
	if cat == nil {
		cat = catalog.Default()
	}
	h := &Handlers{catalog: cat, validator: v, started: time.Now()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// categoryProperty maps each category to the property that lists its objects.
var categoryProperty = map[catalog.Category]string{
	catalog.MarketingCampaign: source.PropertyDataSourceMarketing,
	catalog.Statistic:         source.PropertyDataSourceStats,
	catalog.Suppression:       source.PropertyDataSourceSuppressions,
}

// CategoryView is one catalog category with its object names.
type CategoryView struct {
	Name     catalog.Category `json:"name"`
	Property string           `json:"property"`
	Objects  []string         `json:"objects"`
}

// ValidateResponse is the result of POST /api/validate.
type ValidateResponse struct {
	Valid    bool                 `json:"valid"`
	Failures []validation.Failure `json:"failures"`
}

// SchemaResponse is the result of POST /api/schema.
type SchemaResponse struct {
	MultiObjectMode bool          `json:"multiObjectMode"`
	Objects         []string      `json:"objects"`
	Schema          schema.Schema `json:"schema"`
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status":  "ok",
		"objects": len(h.catalog.Names()),
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// ListCatalog handles GET /api/catalog.
func (h *Handlers) ListCatalog(w http.ResponseWriter, r *http.Request) {
	out := make([]CategoryView, 0, len(catalog.Categories()))
	for _, c := range catalog.Categories() {
		out = append(out, h.categoryView(c))
	}
	httputil.OK(w, map[string]interface{}{"categories": out})
}

// ListCategory handles GET /api/catalog/categories/{category}.
func (h *Handlers) ListCategory(w http.ResponseWriter, r *http.Request) {
	c, err := catalog.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.OK(w, map[string]interface{}{
		"category": h.categoryView(c),
		"objects":  h.catalog.ForCategory(c),
	})
}

// GetObject handles GET /api/catalog/objects/{name}.
func (h *Handlers) GetObject(w http.ResponseWriter, r *http.Request) {
	def, err := h.catalog.Lookup(chi.URLParam(r, "name"))
	if errors.Is(err, catalog.ErrObjectNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, def)
}

func (h *Handlers) categoryView(c catalog.Category) CategoryView {
	defs := h.catalog.ForCategory(c)
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return CategoryView{Name: c, Property: categoryProperty[c], Objects: names}
}

// Validate handles POST /api/validate. The body is the raw property map. An
// invalid configuration is still a 200; the failures are in the body. With
// refresh=true any cached connectivity result for the credentials is dropped
// first.
func (h *Handlers) Validate(w http.ResponseWriter, r *http.Request) {
	var raw source.RawConfig
	if !httputil.Decode(w, r, &raw) {
		return
	}
	cfg := source.NewWithCatalog(raw, h.catalog)
	if h.invalidator != nil && r.URL.Query().Get("refresh") == "true" {
		if creds := cfg.Credentials(); creds.Type != "" {
			if err := h.invalidator.Invalidate(r.Context(), creds); err != nil {
				logger.Warn("probe cache invalidation failed", "error", err)
			}
		}
	}
	failures := h.validator.Validate(r.Context(), cfg)
	if failures == nil {
		failures = []validation.Failure{}
	}
	httputil.OK(w, ValidateResponse{Valid: len(failures) == 0, Failures: failures})
}

// Schema handles POST /api/schema. The optional objects query parameter
// limits the schema to a comma separated subset of the selection.
func (h *Handlers) Schema(w http.ResponseWriter, r *http.Request) {
	var raw source.RawConfig
	if !httputil.Decode(w, r, &raw) {
		return
	}
	cfg := source.NewWithCatalog(raw, h.catalog)

	objects := cfg.DataSource()
	var s schema.Schema
	var err error
	if subset := r.URL.Query().Get("objects"); subset != "" {
		objects = splitList(subset)
		s, err = cfg.SchemaFor(objects)
	} else {
		s, err = cfg.Schema()
	}
	if err != nil {
		httputil.Unprocessable(w, "invalid_selection", err.Error(), nil)
		return
	}
	httputil.OK(w, SchemaResponse{MultiObjectMode: cfg.MultiObjectMode(), Objects: objects, Schema: s})
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
