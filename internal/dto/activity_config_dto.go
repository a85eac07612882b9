package dto

import (
	"time"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// ActivityConfigItem is one activity of a unit configuration submission. ID references an
// existing activity to keep its grades attached; omit it to create a new activity.
type ActivityConfigItem struct {
	ID       *uint   `json:"id,omitempty"`
	Name     string  `json:"name" validate:"required,min=1,max=128"`
	MaxScore float64 `json:"max_score" validate:"gte=0.1,lte=60"`
}

// SetActivitiesRequest replaces the activity list of one subject unit.
type SetActivitiesRequest struct {
	Unit       string               `json:"unit" validate:"required,unit"`
	Activities []ActivityConfigItem `json:"activities" validate:"unique=Name,dive"`
}

// ActivityConfigResponse serializes a configured activity.
type ActivityConfigResponse struct {
	ID        uint      `json:"id"`
	SubjectID uint      `json:"subject_id"`
	Unit      string    `json:"unit"`
	Sequence  int       `json:"sequence"`
	Name      string    `json:"name"`
	MaxScore  float64   `json:"max_score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActivityConfigListResponse wraps the activities of one subject unit.
type ActivityConfigListResponse struct {
	SubjectID  uint                     `json:"subject_id"`
	Unit       string                   `json:"unit"`
	TotalMax   float64                  `json:"total_max"`
	Activities []ActivityConfigResponse `json:"activities"`
}

// NewActivityConfigResponse converts a model into a DTO.
func NewActivityConfigResponse(model models.ActivityConfig) ActivityConfigResponse {
	return ActivityConfigResponse{
		ID:        model.ID,
		SubjectID: model.SubjectID,
		Unit:      model.Unit,
		Sequence:  model.Sequence,
		Name:      model.Name,
		MaxScore:  model.MaxScore,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewActivityConfigListResponse converts the activities of one unit into a DTO.
func NewActivityConfigListResponse(subjectID uint, unit string, items []models.ActivityConfig) ActivityConfigListResponse {
	response := ActivityConfigListResponse{
		SubjectID:  subjectID,
		Unit:       unit,
		Activities: make([]ActivityConfigResponse, 0, len(items)),
	}
	for _, item := range items {
		response.TotalMax += item.MaxScore
		response.Activities = append(response.Activities, NewActivityConfigResponse(item))
	}
	return response
}
