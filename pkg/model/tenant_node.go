package model

import "time"

// TenantNode is the tenant-owned copy of a template node. Customization
// writes custom_* overrides; the copied template fields stay untouched so a
// customization can always be reverted. Nodes are archived, never deleted.
type TenantNode struct {
	ID               string  `gorm:"column:id;primaryKey"`
	Kind             string  `gorm:"column:kind;not null"`
	ParentID         *string `gorm:"column:parent_id;index"`
	TemplateOriginID string  `gorm:"column:template_origin_id;index;not null"`

	Code        string `gorm:"column:code;not null"`
	Name        string `gorm:"column:name;not null"`
	Description string `gorm:"column:description"`
	Objective   string `gorm:"column:objective"`
	ControlType string `gorm:"column:control_type"`
	Frequency   string `gorm:"column:frequency"`
	RiskLevel   string `gorm:"column:risk_level"`

	CanCustomize bool `gorm:"column:can_customize;not null"`
	IsCustomized bool `gorm:"column:is_customized;not null"`

	CustomTitle       string `gorm:"column:custom_title"`
	CustomDescription string `gorm:"column:custom_description"`
	CustomProcedures  string `gorm:"column:custom_procedures"`

	IsArchived bool      `gorm:"column:is_archived;not null"`
	SortOrder  int       `gorm:"column:sort_order;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (TenantNode) TableName() string {
	return "tenant_nodes"
}

// DisplayName returns the customized title when one is set.
func (n TenantNode) DisplayName() string {
	if n.IsCustomized && n.CustomTitle != "" {
		return n.CustomTitle
	}
	return n.Name
}
