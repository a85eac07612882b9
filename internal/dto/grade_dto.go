package dto

import (
	"time"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// RecordGradeRequest captures a new grade entry. Zone grades reference their activity either
// by ActivityConfigID or by Unit plus ActivityName.
type RecordGradeRequest struct {
	StudentID        uint    `json:"student_id" validate:"required"`
	SubjectID        uint    `json:"subject_id" validate:"required"`
	ComponentType    string  `json:"component_type" validate:"required,oneof=zone partial"`
	ActivityConfigID *uint   `json:"activity_config_id" validate:"omitempty,gt=0"`
	ActivityName     string  `json:"activity_name" validate:"required_without=ActivityConfigID,max=128"`
	Unit             string  `json:"unit" validate:"omitempty,unit"`
	Value            float64 `json:"value"`
}

// GradeListRequest filters grade queries.
type GradeListRequest struct {
	StudentID     uint
	SubjectID     uint
	Unit          string
	ComponentType string
}

// GradeResponse serializes a grade entry.
type GradeResponse struct {
	ID               uint      `json:"id"`
	StudentID        uint      `json:"student_id"`
	SubjectID        uint      `json:"subject_id"`
	ActivityConfigID *uint     `json:"activity_config_id"`
	ActivityName     string    `json:"activity_name"`
	Unit             string    `json:"unit"`
	ComponentType    string    `json:"component_type"`
	Value            float64   `json:"value"`
	RecordedAt       time.Time `json:"recorded_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewGradeResponse converts a grade entry into a DTO.
func NewGradeResponse(model models.GradeEntry) GradeResponse {
	return GradeResponse{
		ID:               model.ID,
		StudentID:        model.StudentID,
		SubjectID:        model.SubjectID,
		ActivityConfigID: model.ActivityConfigID,
		ActivityName:     model.ActivityName,
		Unit:             model.Unit,
		ComponentType:    model.ComponentType,
		Value:            model.Value,
		RecordedAt:       model.RecordedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// EnrollRequest links a student to a subject.
type EnrollRequest struct {
	StudentID uint `json:"student_id" validate:"required"`
	SubjectID uint `json:"subject_id" validate:"required"`
}

// EnrollmentResponse serializes an enrollment.
type EnrollmentResponse struct {
	ID         uint      `json:"id"`
	StudentID  uint      `json:"student_id"`
	SubjectID  uint      `json:"subject_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// NewEnrollmentResponse converts an enrollment into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:         model.ID,
		StudentID:  model.StudentID,
		SubjectID:  model.SubjectID,
		EnrolledAt: model.EnrolledAt,
	}
}
