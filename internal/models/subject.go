package models

import "time"

// GradeLevel classifies subjects (e.g. "Primero Básico"). It carries no behaviour.
type GradeLevel struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:256" json:"description"`
	Subjects    []Subject `gorm:"many2many:subject_grade_levels" json:"-"`
}

// Subject is a course taught by at most one assigned teacher.
type Subject struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:128;not null" json:"name"`
	Code        string       `gorm:"size:10;uniqueIndex;not null" json:"code"`
	Description string       `gorm:"type:text" json:"description"`
	TeacherID   *uint        `gorm:"index" json:"teacher_id"`
	Teacher     *User        `gorm:"foreignKey:TeacherID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"teacher,omitempty"`
	GradeLevels []GradeLevel `gorm:"many2many:subject_grade_levels" json:"grade_levels,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsTaughtBy reports whether the given user is the subject's assigned teacher.
func (s Subject) IsTaughtBy(userID uint) bool {
	return s.TeacherID != nil && *s.TeacherID == userID
}
