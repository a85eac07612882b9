package dto

import (
	"time"

	"github.com/noah-isme/gradebook-api/internal/grading"
)

// ActivityLineResponse is one row of a subject breakdown.
type ActivityLineResponse struct {
	ActivityConfigID *uint    `json:"activity_config_id"`
	GradeID          *uint    `json:"grade_id"`
	Name             string   `json:"name"`
	Unit             string   `json:"unit"`
	MaxScore         float64  `json:"max_score"`
	Value            *float64 `json:"value"`
	Status           string   `json:"status"`
}

// UnitSummaryResponse aggregates the zone of one unit.
type UnitSummaryResponse struct {
	Unit         string                 `json:"unit"`
	Activities   []ActivityLineResponse `json:"activities"`
	ZoneSubtotal float64                `json:"zone_subtotal"`
	ZoneMax      float64                `json:"zone_max"`
}

// SubjectSummaryResponse is a student's computed view of one subject.
type SubjectSummaryResponse struct {
	StudentID          uint                   `json:"student_id"`
	SubjectID          uint                   `json:"subject_id"`
	SubjectName        string                 `json:"subject_name,omitempty"`
	SubjectCode        string                 `json:"subject_code,omitempty"`
	Units              []UnitSummaryResponse  `json:"units"`
	Partials           []ActivityLineResponse `json:"partials"`
	ZoneSubtotalByUnit map[string]float64     `json:"zone_subtotal_by_unit"`
	ZoneMaxByUnit      map[string]float64     `json:"zone_max_by_unit"`
	ZoneTotal          float64                `json:"zone_total"`
	PartialTotal       float64                `json:"partial_total"`
	SubjectTotal       float64                `json:"subject_total"`
	GeneratedAt        time.Time              `json:"generated_at"`
	CacheHit           bool                   `json:"cache_hit"`
}

// OverallAverageResponse carries the mean of every grade value of a student.
type OverallAverageResponse struct {
	StudentID uint    `json:"student_id"`
	Average   float64 `json:"average"`
}

// StudentReportResponse bundles every subject summary of a student with the overall average.
type StudentReportResponse struct {
	StudentID   uint                     `json:"student_id"`
	StudentName string                   `json:"student_name"`
	Subjects    []SubjectSummaryResponse `json:"subjects"`
	Average     float64                  `json:"average"`
	GeneratedAt time.Time                `json:"generated_at"`
}

func newActivityLines(lines []grading.ActivityLine) []ActivityLineResponse {
	out := make([]ActivityLineResponse, 0, len(lines))
	for _, line := range lines {
		out = append(out, ActivityLineResponse{
			ActivityConfigID: line.ActivityConfigID,
			GradeID:          line.GradeID,
			Name:             line.Name,
			Unit:             line.Unit,
			MaxScore:         line.MaxScore,
			Value:            line.Value,
			Status:           line.Status,
		})
	}
	return out
}

// NewSubjectSummaryResponse converts a computed summary into a DTO.
func NewSubjectSummaryResponse(summary grading.SubjectSummary, generatedAt time.Time) SubjectSummaryResponse {
	units := make([]UnitSummaryResponse, 0, len(summary.Units))
	for _, unit := range summary.Units {
		units = append(units, UnitSummaryResponse{
			Unit:         unit.Unit,
			Activities:   newActivityLines(unit.Activities),
			ZoneSubtotal: unit.ZoneSubtotal,
			ZoneMax:      unit.ZoneMax,
		})
	}

	return SubjectSummaryResponse{
		StudentID:          summary.StudentID,
		SubjectID:          summary.SubjectID,
		Units:              units,
		Partials:           newActivityLines(summary.Partials),
		ZoneSubtotalByUnit: summary.ZoneSubtotalByUnit,
		ZoneMaxByUnit:      summary.ZoneMaxByUnit,
		ZoneTotal:          summary.ZoneTotal,
		PartialTotal:       summary.PartialTotal,
		SubjectTotal:       summary.SubjectTotal,
		GeneratedAt:        generatedAt,
	}
}
