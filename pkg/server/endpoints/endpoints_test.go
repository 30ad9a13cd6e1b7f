package endpoints

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/complyhub/complyd/pkg/authz"
	"github.com/complyhub/complyd/pkg/model"
	"github.com/complyhub/complyd/pkg/secrets"
	"github.com/complyhub/complyd/pkg/server"
	"github.com/complyhub/complyd/pkg/tenant"
)

const testRolesYAML = `
roles:
  TENANT_ADMIN:
    description: Full tenant administration
    capabilities:
      - manage_users
      - manage_frameworks
      - view_responses
      - approve_responses
      - view_own_assignments
  EMPLOYEE:
    description: Assigned-control work
    capabilities:
      - view_own_assignments
      - submit_responses
`

func testBundle(t *testing.T) *authz.Bundle {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roles.yml")
	require.NoError(t, os.WriteFile(path, []byte(testRolesYAML), 0o600))
	bundle, err := authz.LoadBundle(path, zap.NewNop())
	require.NoError(t, err)
	return bundle
}

type fakeMemberships struct {
	members map[string]*model.Membership
}

func (f *fakeMemberships) GetMembership(userID, tenantSlug string) (*model.Membership, error) {
	return f.members[userID+"|"+tenantSlug], nil
}

// acmeMemberships has an admin and an employee in tenant acme.
func acmeMemberships() *fakeMemberships {
	return &fakeMemberships{members: map[string]*model.Membership{
		"admin-1|acme": {
			UserID: "admin-1", TenantSlug: "acme",
			RoleCode: "TENANT_ADMIN", Status: model.MembershipActive,
		},
		"emp-1|acme": {
			UserID: "emp-1", TenantSlug: "acme",
			RoleCode: "EMPLOYEE", Status: model.MembershipActive,
		},
		"former-1|acme": {
			UserID: "former-1", TenantSlug: "acme",
			RoleCode: "EMPLOYEE", Status: model.MembershipInactive,
		},
	}}
}

func testResolver(t *testing.T) *authz.Resolver {
	t.Helper()
	return authz.NewResolver(acmeMemberships(), testBundle(t))
}

func mockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 mockDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

// acmeRouter registers a single tenant partition backed by the given handle.
func acmeRouter(t *testing.T, partition *gorm.DB) *tenant.Router {
	t.Helper()
	registry := tenant.NewRegistry(func(tenant.Descriptor) (*gorm.DB, error) {
		return partition, nil
	})
	require.NoError(t, registry.Register(tenant.Descriptor{Slug: "acme", SchemaName: "acme_schema"}))
	return tenant.NewRouter(nil, registry)
}

func testCipher(t *testing.T) secrets.Cipher {
	t.Helper()
	cipher, err := secrets.NewCipher(bytes.Repeat([]byte{0x2a}, 32))
	require.NoError(t, err)
	return cipher
}

func newTestServer(t *testing.T, tenants *tenant.Router) *server.Server {
	t.Helper()
	return server.NewServer(nil, tenants, nil, nil, testResolver(t), zap.NewNop(), "127.0.0.1", "0")
}
