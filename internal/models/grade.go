package models

import "time"

// Component types a grade entry can belong to.
const (
	ComponentZone    = "zone"
	ComponentPartial = "partial"
)

// IsValidComponent reports whether componentType is a known component type.
func IsValidComponent(componentType string) bool {
	return componentType == ComponentZone || componentType == ComponentPartial
}

// GradeEntry is one recorded score of a student in a subject.
//
// Zone entries point at their ActivityConfig through ActivityConfigID. ActivityName and Unit
// are a display copy kept in sync on rename; a nil ActivityConfigID on a zone entry means its
// activity was removed from the configuration after grading.
type GradeEntry struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	StudentID        uint      `gorm:"not null;index:idx_grade_student_subject" json:"student_id"`
	SubjectID        uint      `gorm:"not null;index:idx_grade_student_subject" json:"subject_id"`
	ActivityConfigID *uint     `gorm:"index" json:"activity_config_id"`
	ActivityName     string    `gorm:"size:128;not null" json:"activity_name"`
	Unit             string    `gorm:"size:20" json:"unit"`
	ComponentType    string    `gorm:"size:20;not null" json:"component_type"`
	Value            float64   `gorm:"not null" json:"value"`
	RecordedAt       time.Time `gorm:"not null" json:"recorded_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsZone reports whether the entry counts toward a unit zone.
func (g GradeEntry) IsZone() bool {
	return g.ComponentType == ComponentZone
}
