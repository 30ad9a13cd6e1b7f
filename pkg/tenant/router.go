package tenant

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Domain selects which partition class an operation targets.
type Domain int

const (
	// DomainSystem routes to the shared system partition.
	DomainSystem Domain = iota
	// DomainTenant routes to the partition of the tenant bound to the
	// context.
	DomainTenant
)

var (
	// ErrNoTenantContext is returned for tenant-domain routing without a
	// bound tenant.
	ErrNoTenantContext = errors.New("no tenant bound to context")
	// ErrUnknownTenant is returned when the bound tenant has no usable
	// partition.
	ErrUnknownTenant = errors.New("unknown tenant")
)

// Router picks a database handle for an operation. System-domain lookups
// never consult the context; tenant-domain lookups require a bound, registered
// tenant.
type Router struct {
	system   *gorm.DB
	registry *Registry
}

func NewRouter(system *gorm.DB, registry *Registry) *Router {
	return &Router{system: system, registry: registry}
}

// TargetFor returns the handle an operation in the given domain must use.
func (r *Router) TargetFor(ctx context.Context, domain Domain) (*gorm.DB, error) {
	switch domain {
	case DomainSystem:
		return r.system, nil
	case DomainTenant:
		slug, ok := FromContext(ctx)
		if !ok {
			return nil, ErrNoTenantContext
		}
		db, err := r.registry.Resolve(slug)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTenant, slug)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown routing domain %d", domain)
	}
}

// System returns the system partition handle directly.
func (r *Router) System() *gorm.DB {
	return r.system
}

// Registry exposes the underlying partition registry.
func (r *Router) Registry() *Registry {
	return r.registry
}
