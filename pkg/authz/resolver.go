package authz

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/complyhub/complyd/pkg/model"
)

var (
	// ErrNotAMember is returned when the user has no ACTIVE membership in
	// the tenant.
	ErrNotAMember = errors.New("not an active member of tenant")
	// ErrCapabilityMissing is returned by Require when the resolved set
	// lacks the capability.
	ErrCapabilityMissing = errors.New("capability missing")
)

// MembershipStore abstracts membership lookup on the system partition.
type MembershipStore interface {
	// GetMembership returns the membership for the pair, or nil if absent.
	GetMembership(userID, tenantSlug string) (*model.Membership, error)
}

// Ensure GormMembershipStore implements MembershipStore
var _ MembershipStore = (*GormMembershipStore)(nil)

// GormMembershipStore reads memberships from the system partition.
type GormMembershipStore struct {
	db *gorm.DB
}

func NewGormMembershipStore(db *gorm.DB) *GormMembershipStore {
	return &GormMembershipStore{db: db}
}

func (s *GormMembershipStore) GetMembership(userID, tenantSlug string) (*model.Membership, error) {
	var membership model.Membership
	err := s.db.Where("user_id = ? AND tenant_slug = ?", userID, tenantSlug).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &membership, nil
}

// Decision is the outcome of a capability check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Resolver turns (user, tenant) pairs into capability sets. Resolution is
// deterministic: same membership state and bundle content, same set.
type Resolver struct {
	memberships MembershipStore
	bundle      *Bundle
}

func NewResolver(memberships MembershipStore, bundle *Bundle) *Resolver {
	return &Resolver{memberships: memberships, bundle: bundle}
}

// Resolve returns the capability set for a user in a tenant. Membership
// must exist and be ACTIVE.
func (r *Resolver) Resolve(userID, tenantSlug string) (CapabilitySet, error) {
	membership, err := r.memberships.GetMembership(userID, tenantSlug)
	if err != nil {
		return nil, err
	}
	if membership == nil || membership.Status != model.MembershipActive {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotAMember, userID, tenantSlug)
	}
	return r.bundle.Capabilities(membership.RoleCode), nil
}

// Check resolves and tests one capability, returning a reasoned decision
// instead of an error for the deny cases.
func (r *Resolver) Check(userID, tenantSlug, capability string) (Decision, error) {
	set, err := r.Resolve(userID, tenantSlug)
	if errors.Is(err, ErrNotAMember) {
		return Decision{Allowed: false, Reason: "not an active member"}, nil
	}
	if err != nil {
		return Decision{}, err
	}
	if !set.Has(capability) {
		return Decision{Allowed: false, Reason: "capability missing"}, nil
	}
	return Decision{Allowed: true}, nil
}

// Require resolves and fails unless the capability is present.
func (r *Resolver) Require(userID, tenantSlug, capability string) (CapabilitySet, error) {
	set, err := r.Resolve(userID, tenantSlug)
	if err != nil {
		return nil, err
	}
	if !set.Has(capability) {
		return nil, fmt.Errorf("%w: %s", ErrCapabilityMissing, capability)
	}
	return set, nil
}
