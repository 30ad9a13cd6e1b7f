package model

import "time"

// AdminAuditEvent is one row of the append-only administrative audit trail.
// Rows are never updated or deleted.
type AdminAuditEvent struct {
	ID         string    `gorm:"column:id;primaryKey"`
	ActorID    string    `gorm:"column:actor_id;not null"`
	Action     string    `gorm:"column:action;not null"`
	TenantSlug string    `gorm:"column:tenant_slug;index"`
	RemoteIP   string    `gorm:"column:remote_ip"`
	Detail     string    `gorm:"column:detail"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AdminAuditEvent) TableName() string {
	return "admin_audit_events"
}
