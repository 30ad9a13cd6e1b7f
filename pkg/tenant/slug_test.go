package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSlugAccepts(t *testing.T) {
	for _, slug := range []string{"acme", "acme-corp", "a1b2c3", "abc", "tenant-42"} {
		assert.NoError(t, ValidateSlug(slug), slug)
	}
}

func TestValidateSlugRejects(t *testing.T) {
	cases := map[string]string{
		"too short":           "ab",
		"uppercase":           "Acme",
		"underscore":          "acme_corp",
		"space":               "acme corp",
		"leading hyphen":      "-acme",
		"trailing hyphen":     "acme-",
		"double hyphen":       "acme--corp",
		"reserved postgres":   "postgres",
		"reserved template":   "template1",
		"reserved subdomain":  "www",
		"reserved routing":    "api",
		"over fifty chars":    "a123456789012345678901234567890123456789012345678901",
	}
	for name, slug := range cases {
		err := ValidateSlug(slug)
		assert.ErrorIs(t, err, ErrInvalidSlug, name)
	}
}

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "acme_schema", SchemaName("acme"))
	assert.Equal(t, "acme_corp_schema", SchemaName("acme-corp"))
}
