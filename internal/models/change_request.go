package models

import "time"

// Change request types.
const (
	ChangeRequestEdit   = "edit"
	ChangeRequestDelete = "delete"
)

// Change request lifecycle states. Pending is the only non-terminal state.
const (
	ChangeRequestPending  = "pending"
	ChangeRequestApproved = "approved"
	ChangeRequestRejected = "rejected"
)

// ChangeRequest asks an administrator to edit or delete an existing grade entry.
//
// GradeID is deliberately not a foreign key: approved deletions remove the grade while the
// request stays as history, so the grade context is copied into the snapshot columns.
type ChangeRequest struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	GradeID        uint       `gorm:"not null;index" json:"grade_id"`
	SubjectID      uint       `gorm:"not null;index" json:"subject_id"`
	StudentID      uint       `gorm:"not null;index" json:"student_id"`
	ActivityName   string     `gorm:"size:128;not null" json:"activity_name"`
	Unit           string     `gorm:"size:20" json:"unit"`
	ComponentType  string     `gorm:"size:20;not null" json:"component_type"`
	PreviousValue  float64    `gorm:"not null" json:"previous_value"`
	RequestedBy    uint       `gorm:"not null;index" json:"requested_by"`
	RequestType    string     `gorm:"size:10;not null" json:"request_type"`
	NewValue       *float64   `json:"new_value"`
	Reason         string     `gorm:"type:text;not null" json:"reason"`
	Status         string     `gorm:"size:20;not null;default:pending;index" json:"status"`
	RequestDate    time.Time  `gorm:"not null;index" json:"request_date"`
	ApprovedBy     *uint      `json:"approved_by"`
	ApprovalDate   *time.Time `gorm:"index" json:"approval_date"`
	ResolutionNote string     `gorm:"size:255" json:"resolution_note"`
}

// IsPending reports whether the request still awaits a decision.
func (r ChangeRequest) IsPending() bool {
	return r.Status == ChangeRequestPending
}
