package model

import "time"

// Node kinds, ordered from root to leaf. The template tree is strict:
// every kind except NodeFrameworkCategory has a parent of the kind above it,
// with NodeQuestion and NodeEvidence both hanging off NodeControl.
const (
	NodeFrameworkCategory = "framework_category"
	NodeFramework         = "framework"
	NodeDomain            = "domain"
	NodeCategory          = "category"
	NodeSubcategory       = "subcategory"
	NodeControl           = "control"
	NodeQuestion          = "question"
	NodeEvidence          = "evidence"
)

// childKinds maps a node kind to the kinds allowed beneath it.
var childKinds = map[string][]string{
	NodeFrameworkCategory: {NodeFramework},
	NodeFramework:         {NodeDomain},
	NodeDomain:            {NodeCategory},
	NodeCategory:          {NodeSubcategory},
	NodeSubcategory:       {NodeControl},
	NodeControl:           {NodeQuestion, NodeEvidence},
}

// ValidChildKind reports whether child may appear under parent in the tree.
func ValidChildKind(parent, child string) bool {
	for _, k := range childKinds[parent] {
		if k == child {
			return true
		}
	}
	return false
}

// TemplateNode is one node of the framework template tree, owned by the
// template authority and immutable from a tenant's point of view.
type TemplateNode struct {
	ID          string  `gorm:"column:id;primaryKey"`
	Kind        string  `gorm:"column:kind;not null"`
	ParentID    *string `gorm:"column:parent_id;index"`
	Code        string  `gorm:"column:code;not null"`
	Name        string  `gorm:"column:name;not null"`
	Description string  `gorm:"column:description"`

	// Version is set on framework nodes only.
	Version string `gorm:"column:version"`

	// Control-level fields, empty for non-control kinds.
	Objective   string `gorm:"column:objective"`
	ControlType string `gorm:"column:control_type"`
	Frequency   string `gorm:"column:frequency"`
	RiskLevel   string `gorm:"column:risk_level"`

	SortOrder int       `gorm:"column:sort_order;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (TemplateNode) TableName() string {
	return "template_nodes"
}
