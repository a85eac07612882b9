package repository

import (
	"context"
	"iter"

	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// GradeFilter narrows ledger queries. Zero values mean "any".
type GradeFilter struct {
	StudentID     *uint
	SubjectID     *uint
	Unit          string
	ComponentType string
}

// GradeRepository is the ledger of recorded grade entries.
type GradeRepository interface {
	Create(ctx context.Context, entry *models.GradeEntry) error
	GetByID(ctx context.Context, id uint) (models.GradeEntry, error)
	FindZoneEntry(ctx context.Context, studentID, activityConfigID uint) (models.GradeEntry, error)
	FindPartialEntry(ctx context.Context, studentID, subjectID uint, activityName string) (models.GradeEntry, error)
	List(ctx context.Context, filter GradeFilter) ([]models.GradeEntry, error)
	Stream(ctx context.Context, filter GradeFilter) iter.Seq2[models.GradeEntry, error]
	UpdateValue(ctx context.Context, id uint, value float64) error
	Delete(ctx context.Context, id uint) error
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository constructs the grade ledger repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) Create(ctx context.Context, entry *models.GradeEntry) error {
	return conn(ctx, r.db).Create(entry).Error
}

func (r *gradeRepository) GetByID(ctx context.Context, id uint) (models.GradeEntry, error) {
	var entry models.GradeEntry
	if err := conn(ctx, r.db).First(&entry, id).Error; err != nil {
		return models.GradeEntry{}, err
	}
	return entry, nil
}

func (r *gradeRepository) FindZoneEntry(ctx context.Context, studentID, activityConfigID uint) (models.GradeEntry, error) {
	var entry models.GradeEntry
	if err := conn(ctx, r.db).
		Where("student_id = ? AND activity_config_id = ? AND component_type = ?", studentID, activityConfigID, models.ComponentZone).
		First(&entry).Error; err != nil {
		return models.GradeEntry{}, err
	}
	return entry, nil
}

func (r *gradeRepository) FindPartialEntry(ctx context.Context, studentID, subjectID uint, activityName string) (models.GradeEntry, error) {
	var entry models.GradeEntry
	if err := conn(ctx, r.db).
		Where("student_id = ? AND subject_id = ? AND activity_name = ? AND component_type = ?", studentID, subjectID, activityName, models.ComponentPartial).
		First(&entry).Error; err != nil {
		return models.GradeEntry{}, err
	}
	return entry, nil
}

func (r *gradeRepository) query(ctx context.Context, filter GradeFilter) *gorm.DB {
	query := conn(ctx, r.db).Model(&models.GradeEntry{})

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.SubjectID != nil {
		query = query.Where("subject_id = ?", *filter.SubjectID)
	}
	if filter.Unit != "" {
		query = query.Where("unit = ?", filter.Unit)
	}
	if filter.ComponentType != "" {
		query = query.Where("component_type = ?", filter.ComponentType)
	}

	return query.Order("unit ASC").Order("activity_name ASC").Order("id ASC")
}

func (r *gradeRepository) List(ctx context.Context, filter GradeFilter) ([]models.GradeEntry, error) {
	var entries []models.GradeEntry
	if err := r.query(ctx, filter).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *gradeRepository) Stream(ctx context.Context, filter GradeFilter) iter.Seq2[models.GradeEntry, error] {
	return func(yield func(models.GradeEntry, error) bool) {
		query := r.query(ctx, filter)
		rows, err := query.Rows()
		if err != nil {
			yield(models.GradeEntry{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var entry models.GradeEntry
			if err := query.ScanRows(rows, &entry); err != nil {
				yield(models.GradeEntry{}, err)
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.GradeEntry{}, err)
		}
	}
}

func (r *gradeRepository) UpdateValue(ctx context.Context, id uint, value float64) error {
	result := conn(ctx, r.db).Model(&models.GradeEntry{}).Where("id = ?", id).Update("value", value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gradeRepository) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, r.db).Delete(&models.GradeEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
