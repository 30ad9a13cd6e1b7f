package provision

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PartitionAdmin performs the DDL side of provisioning: schema and role
// creation plus the fixed tenant table set. Separated from Store so tests
// can fake DDL without a live postgres.
type PartitionAdmin interface {
	// CreateSchema creates the tenant schema and its login role, setting
	// the role password. Idempotent so FAILED recovery can re-run it.
	CreateSchema(ctx context.Context, schema, user, password string) error

	// InitializeTables creates the full tenant table set inside schema.
	InitializeTables(ctx context.Context, schema string) error

	// InitializeMinimalTables creates only the core table, used as the
	// single compensating fallback when full initialization fails.
	InitializeMinimalTables(ctx context.Context, schema string) error
}

// Ensure GormPartitionAdmin implements PartitionAdmin
var _ PartitionAdmin = (*GormPartitionAdmin)(nil)

// GormPartitionAdmin runs partition DDL over the system connection, which
// must hold CREATEROLE and schema-creation privileges.
type GormPartitionAdmin struct {
	db *gorm.DB
}

func NewGormPartitionAdmin(db *gorm.DB) *GormPartitionAdmin {
	return &GormPartitionAdmin{db: db}
}

func (a *GormPartitionAdmin) CreateSchema(ctx context.Context, schema, user, password string) error {
	stmts := []string{
		fmt.Sprintf(
			`DO $$ BEGIN IF NOT EXISTS (SELECT FROM pg_roles WHERE rolname = %s) THEN CREATE ROLE %s; END IF; END $$`,
			pq.QuoteLiteral(user), pq.QuoteIdentifier(user),
		),
		fmt.Sprintf(`ALTER ROLE %s WITH LOGIN PASSWORD %s`,
			pq.QuoteIdentifier(user), pq.QuoteLiteral(password)),
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s AUTHORIZATION %s`,
			pq.QuoteIdentifier(schema), pq.QuoteIdentifier(user)),
	}

	for _, stmt := range stmts {
		if err := a.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create partition %q: %w", schema, err)
		}
	}
	return nil
}

func (a *GormPartitionAdmin) InitializeTables(ctx context.Context, schema string) error {
	for _, stmt := range tenantTableDDL(schema) {
		if err := a.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to initialize tables in %q: %w", schema, err)
		}
	}
	return nil
}

func (a *GormPartitionAdmin) InitializeMinimalTables(ctx context.Context, schema string) error {
	for _, stmt := range minimalTableDDL(schema) {
		if err := a.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed minimal table creation in %q: %w", schema, err)
		}
	}
	return nil
}
