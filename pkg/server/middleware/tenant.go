package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/complyhub/complyd/pkg/model"
	"github.com/complyhub/complyd/pkg/tenant"
)

// TenantHeader carries an explicit tenant slug and wins over subdomain and
// path extraction.
const TenantHeader = "X-Tenant-Slug"

// TenantLookup resolves a slug to its tenant record. Satisfied by the
// provisioner's store.
type TenantLookup interface {
	GetTenant(slug string) (*model.TenantRecord, error)
}

// TenantBinder extracts the tenant slug from a request, validates it, and
// binds the Context Carrier for the rest of the request. The binding ends
// with the request; nothing global is mutated.
type TenantBinder struct {
	lookup TenantLookup
	cache  *tenant.Cache
	logger *zap.Logger
}

func NewTenantBinder(lookup TenantLookup, logger *zap.Logger) *TenantBinder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantBinder{lookup: lookup, logger: logger}
}

// SetCache wires the optional descriptor cache consulted before the system
// partition.
func (b *TenantBinder) SetCache(cache *tenant.Cache) {
	b.cache = cache
}

// ExtractSlug pulls the tenant slug from a request: header, then subdomain,
// then a /t/{slug}/ path prefix. Empty means the request is not
// tenant-scoped.
func ExtractSlug(r *http.Request) string {
	if slug := r.Header.Get(TenantHeader); slug != "" {
		return slug
	}

	host := r.Host
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if parts := strings.Split(host, "."); len(parts) >= 3 {
		return parts[0]
	}

	if rest, ok := strings.CutPrefix(r.URL.Path, "/t/"); ok {
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return rest[:i]
		}
		return rest
	}
	return ""
}

// Middleware binds the tenant context when the request carries a slug.
// Requests without one pass through unbound; tenant-domain routing will
// reject them downstream.
func (b *TenantBinder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := ExtractSlug(r)
		if slug == "" {
			next.ServeHTTP(w, r)
			return
		}

		if err := tenant.ValidateSlug(slug); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("Invalid tenant slug"))
			return
		}

		if !b.tenantActive(r, slug) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("Unknown tenant"))
			return
		}

		next.ServeHTTP(w, r.WithContext(tenant.NewContext(r.Context(), slug)))
	})
}

// tenantActive checks the descriptor cache, then the system partition. Only
// ACTIVE tenants are cached, so a hit implies routable.
func (b *TenantBinder) tenantActive(r *http.Request, slug string) bool {
	ctx := r.Context()

	if b.cache != nil {
		if _, hit, err := b.cache.Get(ctx, slug); err == nil && hit {
			return true
		}
	}

	record, err := b.lookup.GetTenant(slug)
	if err != nil {
		b.logger.Error("tenant lookup failed", zap.String("tenant", slug), zap.Error(err))
		return false
	}
	if record == nil || record.ProvisioningStatus != model.ProvisioningActive {
		return false
	}

	if b.cache != nil {
		desc := tenant.Descriptor{
			Slug:         record.Slug,
			SchemaName:   record.SchemaName,
			Host:         record.DatabaseHost,
			Port:         record.DatabasePort,
			DatabaseName: record.DatabaseName,
			User:         record.DatabaseUser,
		}
		if err := b.cache.Put(ctx, desc); err != nil {
			b.logger.Warn("descriptor cache put failed", zap.String("tenant", slug), zap.Error(err))
		}
	}
	return true
}
