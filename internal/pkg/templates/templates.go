// Package templates renders the Liquid templates used in notification bodies
// and per-row mail subjects.
package templates

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ignite/sendgrid-source/internal/pkg/logger"
	"github.com/osteele/liquid"
)

// Renderer compiles Liquid templates once and caches them by source text.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// New creates a renderer with the project filters registered.
func New() *Renderer {
	r := &Renderer{engine: liquid.NewEngine()}
	r.registerFilters()
	return r
}

func (r *Renderer) registerFilters() {
	// {{ first_name | default: "there" }}
	r.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		if s := fmt.Sprintf("%v", value); s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	// {{ rows | number_with_delimiter }} -> 12,345
	r.engine.RegisterFilter("number_with_delimiter", func(value interface{}) string {
		var n int64
		switch v := value.(type) {
		case int:
			n = int64(v)
		case int64:
			n = v
		case float64:
			n = int64(v)
		default:
			parsed, err := strconv.ParseInt(fmt.Sprintf("%v", value), 10, 64)
			if err != nil {
				return fmt.Sprintf("%v", value)
			}
			n = parsed
		}
		return delimit(n)
	})

	// {{ email | mask_email }}
	r.engine.RegisterFilter("mask_email", func(email string) string {
		return logger.RedactEmail(email)
	})
}

func delimit(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String()
}

// Parse reports syntax errors in src.
func (r *Renderer) Parse(src string) error {
	_, err := r.template(src)
	return err
}

// Render renders src with vars.
func (r *Renderer) Render(src string, vars map[string]interface{}) (string, error) {
	tpl, err := r.template(src)
	if err != nil {
		return "", err
	}
	out, rerr := tpl.RenderString(vars)
	if rerr != nil {
		return "", fmt.Errorf("rendering template: %w", rerr)
	}
	return out, nil
}

func (r *Renderer) template(src string) (*liquid.Template, error) {
	if cached, ok := r.cache.Load(src); ok {
		return cached.(*liquid.Template), nil
	}
	tpl, err := r.engine.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	r.cache.Store(src, tpl)
	return tpl, nil
}
