package authz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRolesYAML = `roles:
  TENANT_ADMIN:
    description: Full tenant administration
    capabilities:
      - manage_users
      - manage_frameworks
      - assign_controls
      - approve_responses
      - view_responses
      - manage_settings
      - view_audit_logs
  EMPLOYEE:
    description: Assigned-control work only
    capabilities:
      - view_own_assignments
      - submit_responses
      - upload_evidence
`

func writeBundle(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "roles.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadBundle(t *testing.T) {
	bundle, err := LoadBundle(writeBundle(t, testRolesYAML), nil)
	require.NoError(t, err)

	admin := bundle.Capabilities("TENANT_ADMIN")
	assert.True(t, admin.Has(CapManageUsers))
	assert.True(t, admin.Has(CapViewResponses))
	assert.False(t, admin.Has(CapSubmitResponses))

	employee := bundle.Capabilities("EMPLOYEE")
	assert.True(t, employee.Has(CapSubmitResponses))
	assert.False(t, employee.Has(CapApproveResponses))

	assert.ElementsMatch(t, []string{"TENANT_ADMIN", "EMPLOYEE"}, bundle.RoleCodes())
}

func TestBundleUnknownRoleIsEmpty(t *testing.T) {
	bundle, err := LoadBundle(writeBundle(t, testRolesYAML), nil)
	require.NoError(t, err)

	assert.False(t, bundle.Capabilities("GHOST_ROLE").Has(CapManageUsers))
}

func TestBundleCapabilitiesReturnsCopy(t *testing.T) {
	bundle, err := LoadBundle(writeBundle(t, testRolesYAML), nil)
	require.NoError(t, err)

	set := bundle.Capabilities("EMPLOYEE")
	set[CapApproveResponses] = true

	assert.False(t, bundle.Capabilities("EMPLOYEE").Has(CapApproveResponses))
}

func TestBundleReloadPicksUpChanges(t *testing.T) {
	path := writeBundle(t, testRolesYAML)
	bundle, err := LoadBundle(path, nil)
	require.NoError(t, err)

	assert.False(t, bundle.Capabilities("EMPLOYEE").Has(CapViewReports))

	updated := testRolesYAML + "      - view_reports\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))
	require.NoError(t, bundle.Reload())

	assert.True(t, bundle.Capabilities("EMPLOYEE").Has(CapViewReports))
}

func TestBundleReloadFailureKeepsPreviousRoles(t *testing.T) {
	path := writeBundle(t, testRolesYAML)
	bundle, err := LoadBundle(path, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("roles: [broken"), 0o600))
	assert.Error(t, bundle.Reload())

	// The last good mapping stays in effect.
	assert.True(t, bundle.Capabilities("EMPLOYEE").Has(CapSubmitResponses))
}

func TestLoadBundleMissingFile(t *testing.T) {
	_, err := LoadBundle(filepath.Join(t.TempDir(), "absent.yml"), nil)
	assert.Error(t, err)
}

func TestLoadBundleEmptyRoles(t *testing.T) {
	_, err := LoadBundle(writeBundle(t, "roles: {}\n"), nil)
	assert.Error(t, err)
}
