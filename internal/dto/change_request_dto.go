package dto

import (
	"time"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// ChangeRequestCreateRequest captures a teacher's request to edit or delete a grade.
type ChangeRequestCreateRequest struct {
	GradeID     uint     `json:"grade_id" validate:"required"`
	RequestType string   `json:"request_type" validate:"required,oneof=edit delete"`
	NewValue    *float64 `json:"new_value"`
	Reason      string   `json:"reason" validate:"required,min=10,max=500"`
}

// ChangeRequestResolveRequest carries an optional note for the decision.
type ChangeRequestResolveRequest struct {
	Note string `json:"note" validate:"omitempty,max=255"`
}

// ChangeRequestListRequest filters change request listings.
type ChangeRequestListRequest struct {
	Status   string `validate:"omitempty,oneof=pending approved rejected"`
	Page     int
	PageSize int
}

// ChangeRequestResponse serializes a change request.
type ChangeRequestResponse struct {
	ID               uint       `json:"id"`
	GradeID          uint       `json:"grade_id"`
	SubjectID        uint       `json:"subject_id"`
	SubjectTeacherID *uint      `json:"subject_teacher_id,omitempty"`
	StudentID        uint       `json:"student_id"`
	ActivityName     string     `json:"activity_name"`
	Unit             string     `json:"unit"`
	ComponentType    string     `json:"component_type"`
	PreviousValue    float64    `json:"previous_value"`
	RequestedBy      uint       `json:"requested_by"`
	RequestType      string     `json:"request_type"`
	NewValue         *float64   `json:"new_value"`
	Reason           string     `json:"reason"`
	Status           string     `json:"status"`
	RequestDate      time.Time  `json:"request_date"`
	ApprovedBy       *uint      `json:"approved_by"`
	ApprovalDate     *time.Time `json:"approval_date"`
	ResolutionNote   string     `json:"resolution_note,omitempty"`
}

// ChangeRequestListResponse wraps paginated change requests.
type ChangeRequestListResponse struct {
	Items      []ChangeRequestResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

// NewChangeRequestResponse converts a model into a DTO.
func NewChangeRequestResponse(model models.ChangeRequest) ChangeRequestResponse {
	return ChangeRequestResponse{
		ID:             model.ID,
		GradeID:        model.GradeID,
		SubjectID:      model.SubjectID,
		StudentID:      model.StudentID,
		ActivityName:   model.ActivityName,
		Unit:           model.Unit,
		ComponentType:  model.ComponentType,
		PreviousValue:  model.PreviousValue,
		RequestedBy:    model.RequestedBy,
		RequestType:    model.RequestType,
		NewValue:       model.NewValue,
		Reason:         model.Reason,
		Status:         model.Status,
		RequestDate:    model.RequestDate,
		ApprovedBy:     model.ApprovedBy,
		ApprovalDate:   model.ApprovalDate,
		ResolutionNote: model.ResolutionNote,
	}
}
