package provision

import "github.com/complyhub/complyd/pkg/model"

// Store abstracts the system-partition records the provisioner touches.
// This allows the provisioner to work with different backends (e.g., database, mock for testing).
type Store interface {
	// Transaction wraps operations in a database transaction.
	// The provided function receives a transactional Store.
	// If the function returns an error, the transaction is rolled back.
	Transaction(fn func(Store) error) error

	// GetPlan returns a subscription plan by code, or nil if absent.
	GetPlan(code string) (*model.SubscriptionPlan, error)

	// GetTenant returns the tenant record for a slug, or nil if absent.
	GetTenant(slug string) (*model.TenantRecord, error)

	// CreateTenant inserts a new tenant record.
	CreateTenant(record *model.TenantRecord) error

	// SaveTenant persists changes to an existing tenant record.
	SaveTenant(record *model.TenantRecord) error
}
