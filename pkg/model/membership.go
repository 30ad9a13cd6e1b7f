package model

import "time"

// Membership statuses.
const (
	MembershipPending   = "PENDING"
	MembershipActive    = "ACTIVE"
	MembershipSuspended = "SUSPENDED"
	MembershipInactive  = "INACTIVE"
)

// Membership links an opaque user id to a tenant with a role code. Role
// codes resolve to capability sets through the role bundle, not the
// database.
type Membership struct {
	ID         string    `gorm:"column:id;primaryKey"`
	UserID     string    `gorm:"column:user_id;not null;uniqueIndex:idx_memberships_user_tenant"`
	TenantSlug string    `gorm:"column:tenant_slug;not null;uniqueIndex:idx_memberships_user_tenant"`
	RoleCode   string    `gorm:"column:role_code;not null"`
	Status     string    `gorm:"column:status;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Membership) TableName() string {
	return "memberships"
}
