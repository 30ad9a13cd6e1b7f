package tenant

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidSlug is returned for slugs that fail format or reservation
// checks.
var ErrInvalidSlug = errors.New("invalid tenant slug")

var slugPattern = regexp.MustCompile(`^[a-z0-9-]{3,50}$`)

// reservedSlugs are names that collide with infrastructure databases,
// routing prefixes, or marketing subdomains.
var reservedSlugs = map[string]struct{}{
	"postgres":   {},
	"template0":  {},
	"template1":  {},
	"admin":      {},
	"default":    {},
	"public":     {},
	"master":     {},
	"root":       {},
	"system":     {},
	"api":        {},
	"www":        {},
	"app":        {},
	"web":        {},
	"staging":    {},
	"production": {},
	"dev":        {},
	"static":     {},
	"media":      {},
	"accounts":   {},
	"test":       {},
	"demo":       {},
	"example":    {},
	"sample":     {},
}

// ValidateSlug checks a tenant slug: 3-50 chars of lowercase letters, digits
// and hyphens, no leading/trailing/double hyphen, and not a reserved name.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q must be 3-50 lowercase letters, digits or hyphens", ErrInvalidSlug, slug)
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("%w: %q must not start or end with a hyphen", ErrInvalidSlug, slug)
	}
	if strings.Contains(slug, "--") {
		return fmt.Errorf("%w: %q must not contain consecutive hyphens", ErrInvalidSlug, slug)
	}
	if _, reserved := reservedSlugs[slug]; reserved {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidSlug, slug)
	}
	return nil
}

// SchemaName derives the partition schema name for a slug. Hyphens become
// underscores so the schema works unquoted in search_path.
func SchemaName(slug string) string {
	return strings.ReplaceAll(slug, "-", "_") + "_schema"
}
