package model

// Customization levels control how much of a distributed framework a tenant
// may edit.
const (
	CustomizationViewOnly     = "VIEW_ONLY"
	CustomizationControlLevel = "CONTROL_LEVEL"
	CustomizationFull         = "FULL"
)

// CanCustomizeControls reports whether a customization level permits editing
// control-level fields.
func CanCustomizeControls(level string) bool {
	return level == CustomizationControlLevel || level == CustomizationFull
}

// SubscriptionPlan is immutable reference data seeded by migration.
type SubscriptionPlan struct {
	Code                      string `gorm:"column:code;primaryKey"`
	Name                      string `gorm:"column:name;not null"`
	MaxUsers                  int    `gorm:"column:max_users;not null"`
	MaxFrameworks             int    `gorm:"column:max_frameworks;not null"`
	MaxControls               int    `gorm:"column:max_controls;not null"`
	StorageGB                 int    `gorm:"column:storage_gb;not null"`
	CanCustomizeControls      bool   `gorm:"column:can_customize_controls;not null"`
	HasAPIAccess              bool   `gorm:"column:has_api_access;not null"`
	DefaultCustomizationLevel string `gorm:"column:default_customization_level;not null"`
	TrialDays                 int    `gorm:"column:trial_days;not null"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}
