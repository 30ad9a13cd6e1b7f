package model

import "time"

// Assignment statuses.
const (
	AssignmentOpen      = "OPEN"
	AssignmentInReview  = "IN_REVIEW"
	AssignmentCompleted = "COMPLETED"
	AssignmentOverdue   = "OVERDUE"
)

// ControlAssignment assigns a control node to a user inside one tenant
// partition. User ids are opaque references to the external identity system.
type ControlAssignment struct {
	ID               string     `gorm:"column:id;primaryKey"`
	ControlNodeID    string     `gorm:"column:control_node_id;index;not null"`
	AssignedToUserID string     `gorm:"column:assigned_to_user_id;index;not null"`
	AssignedByUserID string     `gorm:"column:assigned_by_user_id;not null"`
	Status           string     `gorm:"column:status;not null"`
	DueDate          *time.Time `gorm:"column:due_date"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ControlAssignment) TableName() string {
	return "control_assignments"
}
