package model

import "time"

// Response statuses.
const (
	ResponseDraft     = "DRAFT"
	ResponseSubmitted = "SUBMITTED"
	ResponseApproved  = "APPROVED"
	ResponseRejected  = "REJECTED"
)

// AssessmentResponse is a user's answer for an assignment. Approval must
// come from a different user than the submitter.
type AssessmentResponse struct {
	ID                string     `gorm:"column:id;primaryKey"`
	AssignmentID      string     `gorm:"column:assignment_id;index;not null"`
	SubmittedByUserID string     `gorm:"column:submitted_by_user_id;not null"`
	ResponseText      string     `gorm:"column:response_text"`
	Status            string     `gorm:"column:status;not null"`
	ApprovedByUserID  string     `gorm:"column:approved_by_user_id"`
	SubmittedAt       *time.Time `gorm:"column:submitted_at"`
	DecidedAt         *time.Time `gorm:"column:decided_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (AssessmentResponse) TableName() string {
	return "assessment_responses"
}
