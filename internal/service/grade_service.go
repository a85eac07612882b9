package service

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/observability"
	"github.com/noah-isme/gradebook-api/internal/repository"
)

// ErrPartialNameRequired indicates a partial grade named no exam or pointed at a zone activity.
var ErrPartialNameRequired = errors.New("partial grades need an exam name and no activity config")

// GradeService is the grade ledger: initial entry, queries and enrollment.
type GradeService interface {
	RecordGrade(ctx context.Context, actor Actor, payload dto.RecordGradeRequest) (dto.GradeResponse, error)
	Query(ctx context.Context, filter repository.GradeFilter) iter.Seq2[models.GradeEntry, error]
	List(ctx context.Context, actor Actor, req dto.GradeListRequest) ([]dto.GradeResponse, error)
	GetByID(ctx context.Context, id uint) (models.GradeEntry, error)
	Enroll(ctx context.Context, actor Actor, payload dto.EnrollRequest) (dto.EnrollmentResponse, error)
}

type gradeService struct {
	tx          repository.Transactor
	users       repository.UserRepository
	subjects    repository.SubjectRepository
	enrollments repository.EnrollmentRepository
	configs     repository.ActivityConfigRepository
	grades      repository.GradeRepository
	validator   *validator.Validate
	policy      Policy
	activity    ActivityRecorder
	cache       SummaryCache
	rules       grading.Rules
	logger      zerolog.Logger
	now         func() time.Time
}

// GradeServiceDeps groups the collaborators of the grade service.
type GradeServiceDeps struct {
	Transactor  repository.Transactor
	Users       repository.UserRepository
	Subjects    repository.SubjectRepository
	Enrollments repository.EnrollmentRepository
	Configs     repository.ActivityConfigRepository
	Grades      repository.GradeRepository
	Validator   *validator.Validate
	Policy      Policy
	Activity    ActivityRecorder
	Cache       SummaryCache
	Rules       grading.Rules
}

// NewGradeService constructs the grade ledger service.
func NewGradeService(deps GradeServiceDeps, logger zerolog.Logger) GradeService {
	return &gradeService{
		tx:          deps.Transactor,
		users:       deps.Users,
		subjects:    deps.Subjects,
		enrollments: deps.Enrollments,
		configs:     deps.Configs,
		grades:      deps.Grades,
		validator:   deps.Validator,
		policy:      deps.Policy,
		activity:    deps.Activity,
		cache:       deps.Cache,
		rules:       deps.Rules.WithDefaults(),
		logger:      logger.With().Str("component", "grade_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradeService) RecordGrade(ctx context.Context, actor Actor, payload dto.RecordGradeRequest) (dto.GradeResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gradebook-api/internal/service/grade")
	ctx, span := tracer.Start(ctx, "grades.record")
	span.SetAttributes(
		attribute.Int64("grades.student_id", int64(payload.StudentID)),
		attribute.Int64("grades.subject_id", int64(payload.SubjectID)),
		attribute.String("grades.component_type", payload.ComponentType),
		attribute.Int64("grades.actor_id", int64(actor.ID)),
	)
	defer span.End()

	payload.ActivityName = strings.TrimSpace(payload.ActivityName)
	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.GradeResponse{}, err
	}

	var entry models.GradeEntry
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		subject, err := s.subjects.GetByID(ctx, payload.SubjectID)
		if err != nil {
			return notFound(err, "subject", payload.SubjectID)
		}
		if !s.policy.CanRecordGrade(actor, subject) {
			return grading.ErrForbidden
		}

		enrolled, err := s.enrollments.Exists(ctx, payload.StudentID, payload.SubjectID)
		if err != nil {
			return err
		}
		if !enrolled {
			return grading.ErrNotEnrolled
		}

		entry = models.GradeEntry{
			StudentID:     payload.StudentID,
			SubjectID:     payload.SubjectID,
			ComponentType: payload.ComponentType,
			Value:         payload.Value,
			RecordedAt:    s.now().UTC(),
		}

		var ceiling float64
		if payload.ComponentType == models.ComponentZone {
			config, err := s.resolveConfig(ctx, payload)
			if err != nil {
				return err
			}
			if _, err := s.grades.FindZoneEntry(ctx, payload.StudentID, config.ID); err == nil {
				return grading.ErrGradeAlreadyRecorded
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			configID := config.ID
			entry.ActivityConfigID = &configID
			entry.ActivityName = config.Name
			entry.Unit = config.Unit
			ceiling = s.rules.Ceiling(models.ComponentZone, &config)
		} else {
			if payload.ActivityName == "" || payload.ActivityConfigID != nil {
				return ErrPartialNameRequired
			}
			if _, err := s.grades.FindPartialEntry(ctx, payload.StudentID, payload.SubjectID, payload.ActivityName); err == nil {
				return grading.ErrGradeAlreadyRecorded
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			entry.ActivityName = payload.ActivityName
			entry.Unit = payload.Unit
			ceiling = s.rules.Ceiling(models.ComponentPartial, nil)
		}

		if err := grading.CheckValue(grading.ErrOutOfRange, payload.Value, ceiling); err != nil {
			return err
		}

		if err := s.grades.Create(ctx, &entry); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return grading.ErrGradeAlreadyRecorded
			}
			return err
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record_failed")
		return dto.GradeResponse{}, err
	}

	s.cache.InvalidateStudentSubject(ctx, entry.StudentID, entry.SubjectID)
	observability.GradesRecorded().WithLabelValues(entry.ComponentType).Inc()
	record(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ActionGradeRecorded,
		EntityType: "grade",
		EntityID:   &entry.ID,
		Metadata: map[string]interface{}{
			"student_id":     entry.StudentID,
			"subject_id":     entry.SubjectID,
			"activity_name":  entry.ActivityName,
			"component_type": entry.ComponentType,
			"value":          entry.Value,
		},
	})

	span.SetAttributes(attribute.Float64("grades.value", entry.Value))
	return dto.NewGradeResponse(entry), nil
}

// resolveConfig finds the zone activity a grade belongs to, by id when given, otherwise by
// unit and name within the subject.
func (s *gradeService) resolveConfig(ctx context.Context, payload dto.RecordGradeRequest) (models.ActivityConfig, error) {
	if payload.ActivityConfigID != nil {
		config, err := s.configs.GetByID(ctx, *payload.ActivityConfigID)
		if err != nil {
			return models.ActivityConfig{}, notFound(err, "activity config", *payload.ActivityConfigID)
		}
		if config.SubjectID != payload.SubjectID {
			return models.ActivityConfig{}, grading.NotFound("activity config", *payload.ActivityConfigID)
		}
		return config, nil
	}

	config, err := s.configs.FindByName(ctx, payload.SubjectID, payload.Unit, payload.ActivityName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ActivityConfig{}, &grading.NotFoundError{Entity: "activity config", Key: payload.Unit + "/" + payload.ActivityName}
	}
	return config, err
}

func (s *gradeService) Query(ctx context.Context, filter repository.GradeFilter) iter.Seq2[models.GradeEntry, error] {
	return s.grades.Stream(ctx, filter)
}

// List applies the actor's visibility to a grade query: students only see their own grades
// and teachers must name a subject they teach.
func (s *gradeService) List(ctx context.Context, actor Actor, req dto.GradeListRequest) ([]dto.GradeResponse, error) {
	filter := repository.GradeFilter{
		Unit:          strings.TrimSpace(req.Unit),
		ComponentType: strings.TrimSpace(req.ComponentType),
	}
	if req.StudentID > 0 {
		filter.StudentID = &req.StudentID
	}
	if req.SubjectID > 0 {
		filter.SubjectID = &req.SubjectID
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleStudent:
		if filter.StudentID != nil && *filter.StudentID != actor.ID {
			return nil, grading.ErrForbidden
		}
		studentID := actor.ID
		filter.StudentID = &studentID
	case models.RoleTeacher:
		if filter.SubjectID == nil {
			return nil, grading.ErrForbidden
		}
		subject, err := s.subjects.GetByID(ctx, *filter.SubjectID)
		if err != nil {
			return nil, notFound(err, "subject", *filter.SubjectID)
		}
		if !subject.IsTaughtBy(actor.ID) {
			return nil, grading.ErrForbidden
		}
	default:
		return nil, grading.ErrForbidden
	}

	responses := []dto.GradeResponse{}
	for entry, err := range s.Query(ctx, filter) {
		if err != nil {
			return nil, err
		}
		responses = append(responses, dto.NewGradeResponse(entry))
	}
	return responses, nil
}

func (s *gradeService) GetByID(ctx context.Context, id uint) (models.GradeEntry, error) {
	entry, err := s.grades.GetByID(ctx, id)
	if err != nil {
		return models.GradeEntry{}, notFound(err, "grade", id)
	}
	return entry, nil
}

func (s *gradeService) Enroll(ctx context.Context, actor Actor, payload dto.EnrollRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}
	if !s.policy.CanManageEnrollment(actor) {
		return dto.EnrollmentResponse{}, grading.ErrForbidden
	}

	var (
		enrollment models.Enrollment
		created    bool
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		student, err := s.users.GetByID(ctx, payload.StudentID)
		if err != nil {
			return notFound(err, "student", payload.StudentID)
		}
		if !student.IsStudent() {
			return grading.NotFound("student", payload.StudentID)
		}
		if _, err := s.subjects.GetByID(ctx, payload.SubjectID); err != nil {
			return notFound(err, "subject", payload.SubjectID)
		}

		existing, err := s.enrollments.Get(ctx, payload.StudentID, payload.SubjectID)
		if err == nil {
			enrollment = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		enrollment = models.Enrollment{
			StudentID:  payload.StudentID,
			SubjectID:  payload.SubjectID,
			EnrolledAt: s.now().UTC(),
		}
		created = true
		return s.enrollments.Create(ctx, &enrollment)
	})
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if created {
		record(ctx, s.activity, s.logger, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     ActionEnrollmentCreated,
			EntityType: "enrollment",
			EntityID:   &enrollment.ID,
			Metadata: map[string]interface{}{
				"student_id": enrollment.StudentID,
				"subject_id": enrollment.SubjectID,
			},
		})
	}

	return dto.NewEnrollmentResponse(enrollment), nil
}
