package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyhub/complyd/pkg/model"
)

type fakeMemberships struct {
	memberships map[string]*model.Membership // key userID+"/"+slug
}

func (f *fakeMemberships) GetMembership(userID, tenantSlug string) (*model.Membership, error) {
	return f.memberships[userID+"/"+tenantSlug], nil
}

func testResolver(t *testing.T) *Resolver {
	bundle, err := LoadBundle(writeBundle(t, testRolesYAML), nil)
	require.NoError(t, err)

	memberships := &fakeMemberships{
		memberships: map[string]*model.Membership{
			"alice/acme": {UserID: "alice", TenantSlug: "acme", RoleCode: "TENANT_ADMIN", Status: model.MembershipActive},
			"bob/acme":   {UserID: "bob", TenantSlug: "acme", RoleCode: "EMPLOYEE", Status: model.MembershipActive},
			"carol/acme": {UserID: "carol", TenantSlug: "acme", RoleCode: "EMPLOYEE", Status: model.MembershipSuspended},
		},
	}
	return NewResolver(memberships, bundle)
}

func TestResolveAdmin(t *testing.T) {
	resolver := testResolver(t)

	set, err := resolver.Resolve("alice", "acme")
	require.NoError(t, err)
	assert.True(t, set.Has(CapApproveResponses))
	assert.True(t, set.Has(CapViewResponses))
}

func TestResolveNotAMember(t *testing.T) {
	resolver := testResolver(t)

	_, err := resolver.Resolve("mallory", "acme")
	assert.ErrorIs(t, err, ErrNotAMember)

	// Membership in one tenant grants nothing in another.
	_, err = resolver.Resolve("alice", "globex")
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestResolveSuspendedMembership(t *testing.T) {
	resolver := testResolver(t)

	_, err := resolver.Resolve("carol", "acme")
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestResolveDeterministic(t *testing.T) {
	resolver := testResolver(t)

	first, err := resolver.Resolve("bob", "acme")
	require.NoError(t, err)
	second, err := resolver.Resolve("bob", "acme")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCheckDecisions(t *testing.T) {
	resolver := testResolver(t)

	allowed, err := resolver.Check("alice", "acme", CapApproveResponses)
	require.NoError(t, err)
	assert.True(t, allowed.Allowed)
	assert.Empty(t, allowed.Reason)

	missing, err := resolver.Check("bob", "acme", CapApproveResponses)
	require.NoError(t, err)
	assert.False(t, missing.Allowed)
	assert.Equal(t, "capability missing", missing.Reason)

	outsider, err := resolver.Check("mallory", "acme", CapSubmitResponses)
	require.NoError(t, err)
	assert.False(t, outsider.Allowed)
	assert.Equal(t, "not an active member", outsider.Reason)
}

func TestRequire(t *testing.T) {
	resolver := testResolver(t)

	set, err := resolver.Require("bob", "acme", CapSubmitResponses)
	require.NoError(t, err)
	assert.True(t, set.Has(CapSubmitResponses))

	_, err = resolver.Require("bob", "acme", CapApproveResponses)
	assert.ErrorIs(t, err, ErrCapabilityMissing)
}
