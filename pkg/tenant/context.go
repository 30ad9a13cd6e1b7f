// Package tenant implements tenant identity propagation and partition
// routing: the request-scoped tenant binding, slug validation, the registry
// of live partition handles, and the router that picks a database target for
// an operation.
package tenant

import "context"

type slugKey struct{}

// NewContext returns a copy of ctx bound to the given tenant slug.
func NewContext(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, slugKey{}, slug)
}

// FromContext returns the tenant slug bound to ctx, if any.
func FromContext(ctx context.Context) (string, bool) {
	slug, ok := ctx.Value(slugKey{}).(string)
	return slug, ok
}

// RunWithTenant runs fn with ctx bound to slug. The caller's own binding is
// untouched; nested calls see the innermost slug.
func RunWithTenant(ctx context.Context, slug string, fn func(context.Context) error) error {
	return fn(NewContext(ctx, slug))
}
