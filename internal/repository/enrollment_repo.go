package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// EnrollmentRepository manages which students belong to which subjects.
type EnrollmentRepository interface {
	Exists(ctx context.Context, studentID, subjectID uint) (bool, error)
	Get(ctx context.Context, studentID, subjectID uint) (models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error)
	ListBySubject(ctx context.Context, subjectID uint) ([]models.Enrollment, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs the enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Exists(ctx context.Context, studentID, subjectID uint) (bool, error) {
	_, err := r.Get(ctx, studentID, subjectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *enrollmentRepository) Get(ctx context.Context, studentID, subjectID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := conn(ctx, r.db).
		Where("student_id = ? AND subject_id = ?", studentID, subjectID).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return conn(ctx, r.db).Create(enrollment).Error
}

func (r *enrollmentRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := conn(ctx, r.db).
		Preload("Subject").
		Where("student_id = ?", studentID).
		Order("subject_id ASC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepository) ListBySubject(ctx context.Context, subjectID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := conn(ctx, r.db).
		Where("subject_id = ?", subjectID).
		Order("student_id ASC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}
