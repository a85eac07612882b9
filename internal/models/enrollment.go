package models

import "time"

// Enrollment links a student to a subject. Grades may only be recorded for enrolled students.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_subject" json:"student_id"`
	SubjectID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_subject;index" json:"subject_id"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolled_at"`
	Subject    *Subject  `gorm:"foreignKey:SubjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"subject,omitempty"`
}
