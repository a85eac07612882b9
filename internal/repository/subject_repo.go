package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// SubjectRepository reads and stores subjects and their grade levels.
type SubjectRepository interface {
	GetByID(ctx context.Context, id uint) (models.Subject, error)
	GetByCode(ctx context.Context, code string) (models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	CreateGradeLevel(ctx context.Context, level *models.GradeLevel) error
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Subject, error)
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository constructs the subject repository.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) GetByID(ctx context.Context, id uint) (models.Subject, error) {
	var subject models.Subject
	if err := conn(ctx, r.db).First(&subject, id).Error; err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

func (r *subjectRepository) GetByCode(ctx context.Context, code string) (models.Subject, error) {
	var subject models.Subject
	if err := conn(ctx, r.db).Where("code = ?", code).First(&subject).Error; err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	return conn(ctx, r.db).Create(subject).Error
}

func (r *subjectRepository) CreateGradeLevel(ctx context.Context, level *models.GradeLevel) error {
	return conn(ctx, r.db).Create(level).Error
}

func (r *subjectRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := conn(ctx, r.db).
		Preload("GradeLevels").
		Where("teacher_id = ?", teacherID).
		Order("code ASC").
		Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}
