package models

import "time"

// Curriculum units, in teaching order.
const (
	UnitOne   = "Unidad I"
	UnitTwo   = "Unidad II"
	UnitThree = "Unidad III"
	UnitFour  = "Unidad IV"
)

// Units lists every unit label in order.
var Units = []string{UnitOne, UnitTwo, UnitThree, UnitFour}

// UnitOrder returns the position of unit within Units, or -1 when the label is unknown.
func UnitOrder(unit string) int {
	for idx, label := range Units {
		if label == unit {
			return idx
		}
	}
	return -1
}

// IsValidUnit reports whether unit is one of the known labels.
func IsValidUnit(unit string) bool {
	return UnitOrder(unit) >= 0
}

// ActivityConfig describes one scorable zone activity of a subject unit.
type ActivityConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SubjectID uint      `gorm:"not null;uniqueIndex:idx_activity_subject_unit_seq" json:"subject_id"`
	Unit      string    `gorm:"size:20;not null;uniqueIndex:idx_activity_subject_unit_seq" json:"unit"`
	Sequence  int       `gorm:"not null;uniqueIndex:idx_activity_subject_unit_seq" json:"sequence"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	MaxScore  float64   `gorm:"not null" json:"max_score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
