package model

import "time"

// Provisioning statuses for a tenant record.
const (
	ProvisioningPending      = "PENDING"
	ProvisioningProvisioning = "PROVISIONING"
	ProvisioningActive       = "ACTIVE"
	ProvisioningFailed       = "FAILED"
	ProvisioningSuspended    = "SUSPENDED"
	ProvisioningCancelled    = "CANCELLED"
)

// Subscription statuses for a tenant record.
const (
	SubscriptionTrial     = "TRIAL"
	SubscriptionActive    = "ACTIVE"
	SubscriptionSuspended = "SUSPENDED"
	SubscriptionCancelled = "CANCELLED"
)

// TenantRecord is the system-partition row for one tenant. The partition
// descriptor columns locate the tenant's schema; EncryptedPassword is
// AES-GCM sealed with the data key and bound to the slug via AAD.
type TenantRecord struct {
	ID           string `gorm:"column:id;primaryKey"`
	Slug         string `gorm:"column:slug;uniqueIndex;not null"`
	CompanyName  string `gorm:"column:company_name;not null"`
	CompanyEmail string `gorm:"column:company_email;not null"`

	SchemaName        string `gorm:"column:schema_name;not null"`
	DatabaseName      string `gorm:"column:database_name;not null"`
	DatabaseHost      string `gorm:"column:database_host;not null"`
	DatabasePort      int    `gorm:"column:database_port;not null"`
	DatabaseUser      string `gorm:"column:database_user;not null"`
	EncryptedPassword []byte `gorm:"column:encrypted_password"`

	PlanCode           string `gorm:"column:plan_code;not null"`
	ProvisioningStatus string `gorm:"column:provisioning_status;not null"`
	SubscriptionStatus string `gorm:"column:subscription_status;not null"`
	ProvisioningError  string `gorm:"column:provisioning_error"`

	CurrentUserCount      int `gorm:"column:current_user_count;not null"`
	CurrentFrameworkCount int `gorm:"column:current_framework_count;not null"`
	CurrentControlCount   int `gorm:"column:current_control_count;not null"`
	StorageUsedMB         int `gorm:"column:storage_used_mb;not null"`

	TrialEndsAt   *time.Time `gorm:"column:trial_ends_at"`
	ProvisionedAt *time.Time `gorm:"column:provisioned_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (TenantRecord) TableName() string {
	return "tenants"
}
