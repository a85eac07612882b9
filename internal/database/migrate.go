package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// gradeUniqueness backs the one-grade-per-activity rule of the ledger. Both indexes are
// partial: orphaned zone entries (NULL activity_config_id) may repeat.
var gradeUniqueness = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_grade_zone_once
		ON grade_entries (student_id, activity_config_id)
		WHERE component_type = 'zone' AND activity_config_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_grade_partial_once
		ON grade_entries (student_id, subject_id, activity_name)
		WHERE component_type = 'partial'`,
}

// Migrate creates or updates the gradebook schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.GradeLevel{},
		&models.Subject{},
		&models.Enrollment{},
		&models.ActivityConfig{},
		&models.GradeEntry{},
		&models.ChangeRequest{},
		&models.ActivityLog{},
		&models.Notification{},
	); err != nil {
		return err
	}

	for _, statement := range gradeUniqueness {
		if err := db.Exec(statement).Error; err != nil {
			return fmt.Errorf("create grade index: %w", err)
		}
	}
	return nil
}
