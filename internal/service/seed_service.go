package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
)

// ErrAlreadySeeded indicates the demo data is already present.
var ErrAlreadySeeded = errors.New("database already seeded")

// SeedReport counts the rows created by a seed run.
type SeedReport struct {
	GradeLevels    int
	Users          int
	Subjects       int
	Enrollments    int
	Activities     int
	Grades         int
	ChangeRequests int
}

// SeedService loads the demo school: users, subjects, enrollments, activities, grades and one
// pending change request.
type SeedService interface {
	SeedDemo(ctx context.Context) (SeedReport, error)
}

type seedService struct {
	tx             repository.Transactor
	users          repository.UserRepository
	subjects       repository.SubjectRepository
	activities     ActivityConfigService
	grades         GradeService
	changeRequests ChangeRequestService
	logger         zerolog.Logger
}

// NewSeedService constructs a seeding service on top of the grading services so that demo data
// passes the same validation as API traffic.
func NewSeedService(
	tx repository.Transactor,
	users repository.UserRepository,
	subjects repository.SubjectRepository,
	activities ActivityConfigService,
	grades GradeService,
	changeRequests ChangeRequestService,
	logger zerolog.Logger,
) SeedService {
	return &seedService{
		tx:             tx,
		users:          users,
		subjects:       subjects,
		activities:     activities,
		grades:         grades,
		changeRequests: changeRequests,
		logger:         logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedDemo(ctx context.Context) (SeedReport, error) {
	if _, err := s.users.GetByUsername(ctx, "admin"); err == nil {
		return SeedReport{}, ErrAlreadySeeded
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return SeedReport{}, err
	}

	var report SeedReport
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		levels := []models.GradeLevel{
			{Name: "Primero Básico"},
			{Name: "Segundo Básico"},
			{Name: "Tercero Básico"},
			{Name: "Cuarto Bachillerato"},
			{Name: "Quinto Bachillerato"},
		}
		for idx := range levels {
			if err := s.subjects.CreateGradeLevel(ctx, &levels[idx]); err != nil {
				return err
			}
			report.GradeLevels++
		}

		users := []models.User{
			{Username: "admin", Email: "admin@school.com", FirstName: "Super", LastName: "Admin", Role: models.RoleAdmin},
			{Username: "profesor", Email: "profesor@school.com", FirstName: "Carlos", LastName: "Gomez", Role: models.RoleTeacher},
			{Username: "maria.g", Email: "maria@school.com", FirstName: "Maria", LastName: "Gonzalez", Role: models.RoleStudent},
			{Username: "juan.p", Email: "juan@school.com", FirstName: "Juan", LastName: "Perez", Role: models.RoleStudent},
		}
		for idx := range users {
			if err := s.users.Create(ctx, &users[idx]); err != nil {
				return err
			}
			report.Users++
		}
		admin := Actor{ID: users[0].ID, Role: models.RoleAdmin}
		teacher := Actor{ID: users[1].ID, Role: models.RoleTeacher}
		maria, juan := users[2], users[3]

		subjects := []models.Subject{
			{Name: "Matemáticas", Code: "MAT101", Description: "Matemáticas básicas", TeacherID: &teacher.ID, GradeLevels: []models.GradeLevel{levels[0], levels[1]}},
			{Name: "Ciencias", Code: "CIE101", Description: "Ciencias naturales", TeacherID: &teacher.ID, GradeLevels: []models.GradeLevel{levels[0]}},
			{Name: "Literatura", Code: "LIT101", Description: "Literatura universal", TeacherID: &teacher.ID, GradeLevels: []models.GradeLevel{levels[2]}},
		}
		for idx := range subjects {
			if err := s.subjects.Create(ctx, &subjects[idx]); err != nil {
				return err
			}
			report.Subjects++
		}
		mathematics, science := subjects[0], subjects[1]

		for _, pair := range [][2]uint{{maria.ID, mathematics.ID}, {maria.ID, science.ID}, {juan.ID, mathematics.ID}} {
			if _, err := s.grades.Enroll(ctx, admin, dto.EnrollRequest{StudentID: pair[0], SubjectID: pair[1]}); err != nil {
				return err
			}
			report.Enrollments++
		}

		configured, err := s.activities.SetActivities(ctx, teacher, mathematics.ID, dto.SetActivitiesRequest{
			Unit: models.UnitOne,
			Activities: []dto.ActivityConfigItem{
				{Name: "Tarea 1", MaxScore: 10},
				{Name: "Quiz 1", MaxScore: 10},
				{Name: "Proyecto", MaxScore: 15},
			},
		})
		if err != nil {
			return err
		}
		report.Activities += len(configured.Activities)

		grades := []dto.RecordGradeRequest{
			{StudentID: maria.ID, SubjectID: mathematics.ID, ComponentType: models.ComponentPartial, ActivityName: "Examen Parcial", Unit: models.UnitOne, Value: 8.5},
			{StudentID: maria.ID, SubjectID: mathematics.ID, ComponentType: models.ComponentZone, ActivityName: "Tarea 1", Unit: models.UnitOne, Value: 7.0},
			{StudentID: juan.ID, SubjectID: mathematics.ID, ComponentType: models.ComponentPartial, ActivityName: "Examen Final", Unit: models.UnitOne, Value: 9.0},
		}
		recorded := make([]dto.GradeResponse, 0, len(grades))
		for _, payload := range grades {
			grade, err := s.grades.RecordGrade(ctx, teacher, payload)
			if err != nil {
				return err
			}
			recorded = append(recorded, grade)
			report.Grades++
		}

		newValue := 9.5
		if _, err := s.changeRequests.Submit(ctx, teacher, dto.ChangeRequestCreateRequest{
			GradeID:     recorded[0].ID,
			RequestType: models.ChangeRequestEdit,
			NewValue:    &newValue,
			Reason:      "La calificación inicial fue un error de digitación, el estudiante obtuvo 9.5.",
		}); err != nil {
			return err
		}
		report.ChangeRequests++

		return nil
	})
	if err != nil {
		return SeedReport{}, err
	}

	s.logger.Info().
		Int("users", report.Users).
		Int("subjects", report.Subjects).
		Int("grades", report.Grades).
		Msg("demo data seeded")
	return report, nil
}
