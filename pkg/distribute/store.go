package distribute

import "github.com/complyhub/complyd/pkg/model"

// SystemStore abstracts the system-partition side of a distribution: the
// template tree, subscriptions, plans, and tenant usage counters.
type SystemStore interface {
	// Transaction wraps operations in a database transaction.
	// The provided function receives a transactional SystemStore.
	Transaction(fn func(SystemStore) error) error

	// GetTemplateNode returns a template node by id, or nil if absent.
	GetTemplateNode(id string) (*model.TemplateNode, error)

	// GetTemplateChildren returns the active children of a template node
	// in sort order.
	GetTemplateChildren(parentID string) ([]model.TemplateNode, error)

	// GetActiveSubscription returns the ACTIVE subscription for the pair,
	// or nil if none exists.
	GetActiveSubscription(tenantSlug, frameworkTemplateID string) (*model.FrameworkSubscription, error)

	// CreateSubscription inserts a framework subscription record.
	CreateSubscription(sub *model.FrameworkSubscription) error

	// GetTenant returns the tenant record for a slug, or nil if absent.
	GetTenant(slug string) (*model.TenantRecord, error)

	// SaveTenant persists tenant record changes (usage counters).
	SaveTenant(record *model.TenantRecord) error

	// GetPlan returns a subscription plan by code, or nil if absent.
	GetPlan(code string) (*model.SubscriptionPlan, error)
}

// TenantStore abstracts the tenant-partition side: node writes and the
// compensating delete.
type TenantStore interface {
	// Transaction wraps operations in a transaction on the tenant
	// partition.
	Transaction(fn func(TenantStore) error) error

	// CreateNode inserts one tenant node.
	CreateNode(node *model.TenantNode) error

	// DeleteNodes removes nodes by id. Used only to compensate a
	// committed tenant write after a system-partition failure.
	DeleteNodes(ids []string) error
}
