package model

import "time"

// Framework subscription statuses.
const (
	FrameworkSubActive    = "ACTIVE"
	FrameworkSubSuspended = "SUSPENDED"
	FrameworkSubCancelled = "CANCELLED"
)

// FrameworkSubscription records that a tenant has had a framework
// distributed into its partition. Name and version are snapshots taken at
// distribution time so later template edits don't rewrite history.
type FrameworkSubscription struct {
	ID                  string     `gorm:"column:id;primaryKey"`
	TenantSlug          string     `gorm:"column:tenant_slug;index;not null"`
	FrameworkTemplateID string     `gorm:"column:framework_template_id;not null"`
	FrameworkName       string     `gorm:"column:framework_name;not null"`
	FrameworkVersion    string     `gorm:"column:framework_version;not null"`
	CustomizationLevel  string     `gorm:"column:customization_level;not null"`
	NodesCreated        int        `gorm:"column:nodes_created;not null"`
	Status              string     `gorm:"column:status;not null"`
	DistributedAt       *time.Time `gorm:"column:distributed_at"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (FrameworkSubscription) TableName() string {
	return "framework_subscriptions"
}
