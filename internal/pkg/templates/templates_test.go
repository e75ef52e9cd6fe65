package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	r := New()
	out, err := r.Render("Hello {{ name | default: \"there\" }}", map[string]interface{}{"name": "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ann", out)

	out, err = r.Render("Hello {{ name | default: \"there\" }}", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", out)
}

func TestFilters(t *testing.T) {
	r := New()
	out, err := r.Render("{{ n | number_with_delimiter }}", map[string]interface{}{"n": 1234567})
	require.NoError(t, err)
	assert.Equal(t, "1,234,567", out)

	out, err = r.Render("{{ e | mask_email }}", map[string]interface{}{"e": "john.doe@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "jo***@example.com", out)
}

func TestParseError(t *testing.T) {
	assert.Error(t, New().Parse("{% if %}"))
}

func TestDelimit(t *testing.T) {
	assert.Equal(t, "0", delimit(0))
	assert.Equal(t, "999", delimit(999))
	assert.Equal(t, "1,000", delimit(1000))
	assert.Equal(t, "-12,345", delimit(-12345))
}
