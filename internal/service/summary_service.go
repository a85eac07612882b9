package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
)

// SummaryService computes read-only views over the grade ledger.
type SummaryService interface {
	ComputeSubjectSummary(ctx context.Context, studentID, subjectID uint) (grading.SubjectSummary, error)
	ComputeOverallAverage(ctx context.Context, studentID uint) (float64, error)
	SubjectSummary(ctx context.Context, actor Actor, studentID, subjectID uint) (dto.SubjectSummaryResponse, error)
	OverallAverage(ctx context.Context, actor Actor, studentID uint) (dto.OverallAverageResponse, error)
	StudentReport(ctx context.Context, actor Actor, studentID uint) (dto.StudentReportResponse, error)
}

type summaryService struct {
	tx          repository.Transactor
	users       repository.UserRepository
	subjects    repository.SubjectRepository
	enrollments repository.EnrollmentRepository
	configs     repository.ActivityConfigRepository
	grades      repository.GradeRepository
	policy      Policy
	cache       SummaryCache
	rules       grading.Rules
	logger      zerolog.Logger
	now         func() time.Time
}

// SummaryServiceDeps groups the collaborators of the summary service.
type SummaryServiceDeps struct {
	Transactor  repository.Transactor
	Users       repository.UserRepository
	Subjects    repository.SubjectRepository
	Enrollments repository.EnrollmentRepository
	Configs     repository.ActivityConfigRepository
	Grades      repository.GradeRepository
	Policy      Policy
	Cache       SummaryCache
	Rules       grading.Rules
}

// NewSummaryService constructs the aggregation service.
func NewSummaryService(deps SummaryServiceDeps, logger zerolog.Logger) SummaryService {
	return &summaryService{
		tx:          deps.Transactor,
		users:       deps.Users,
		subjects:    deps.Subjects,
		enrollments: deps.Enrollments,
		configs:     deps.Configs,
		grades:      deps.Grades,
		policy:      deps.Policy,
		cache:       deps.Cache,
		rules:       deps.Rules.WithDefaults(),
		logger:      logger.With().Str("component", "summary_service").Logger(),
		now:         time.Now,
	}
}

// ComputeSubjectSummary reads configuration and entries in one transaction so a concurrent
// reconfiguration is never observed half applied.
func (s *summaryService) ComputeSubjectSummary(ctx context.Context, studentID, subjectID uint) (grading.SubjectSummary, error) {
	var summary grading.SubjectSummary
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		enrolled, err := s.enrollments.Exists(ctx, studentID, subjectID)
		if err != nil {
			return err
		}
		if !enrolled {
			return grading.ErrNotEnrolled
		}

		configs, err := s.configs.List(ctx, subjectID, "")
		if err != nil {
			return err
		}
		entries, err := s.grades.List(ctx, repository.GradeFilter{StudentID: &studentID, SubjectID: &subjectID})
		if err != nil {
			return err
		}

		summary = grading.Summarize(studentID, subjectID, configs, entries, s.rules)
		return nil
	})
	return summary, err
}

func (s *summaryService) ComputeOverallAverage(ctx context.Context, studentID uint) (float64, error) {
	var mean grading.Mean
	for entry, err := range s.grades.Stream(ctx, repository.GradeFilter{StudentID: &studentID}) {
		if err != nil {
			return 0, err
		}
		mean.Add(entry.Value)
	}
	return mean.Value(), nil
}

func (s *summaryService) SubjectSummary(ctx context.Context, actor Actor, studentID, subjectID uint) (dto.SubjectSummaryResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gradebook-api/internal/service/summary")
	ctx, span := tracer.Start(ctx, "summary.subject")
	span.SetAttributes(
		attribute.Int64("summary.student_id", int64(studentID)),
		attribute.Int64("summary.subject_id", int64(subjectID)),
	)
	defer span.End()

	subject, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		err = notFound(err, "subject", subjectID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "subject_lookup_failed")
		return dto.SubjectSummaryResponse{}, err
	}
	if !s.policy.CanViewSubject(actor, studentID, subject) {
		span.SetStatus(codes.Error, "forbidden")
		return dto.SubjectSummaryResponse{}, grading.ErrForbidden
	}

	response, err := s.subjectSummary(ctx, studentID, subject)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "summary_failed")
		return dto.SubjectSummaryResponse{}, err
	}
	span.SetAttributes(attribute.Bool("summary.cache_hit", response.CacheHit))
	return response, nil
}

func (s *summaryService) subjectSummary(ctx context.Context, studentID uint, subject models.Subject) (dto.SubjectSummaryResponse, error) {
	if cached, ok := s.cache.Get(ctx, studentID, subject.ID); ok {
		s.logger.Debug().Uint("student_id", studentID).Uint("subject_id", subject.ID).Msg("summary cache hit")
		return cached, nil
	}

	generation, cacheable := s.cache.Generation(ctx, subject.ID)
	summary, err := s.ComputeSubjectSummary(ctx, studentID, subject.ID)
	if err != nil {
		return dto.SubjectSummaryResponse{}, err
	}

	response := dto.NewSubjectSummaryResponse(summary, s.now().UTC())
	response.SubjectName = subject.Name
	response.SubjectCode = subject.Code
	if cacheable {
		s.cache.Set(ctx, response, generation)
	}
	return response, nil
}

func (s *summaryService) OverallAverage(ctx context.Context, actor Actor, studentID uint) (dto.OverallAverageResponse, error) {
	if !s.policy.CanViewStudent(actor, studentID) {
		return dto.OverallAverageResponse{}, grading.ErrForbidden
	}
	if _, err := s.users.GetByID(ctx, studentID); err != nil {
		return dto.OverallAverageResponse{}, notFound(err, "student", studentID)
	}

	average, err := s.ComputeOverallAverage(ctx, studentID)
	if err != nil {
		return dto.OverallAverageResponse{}, err
	}
	return dto.OverallAverageResponse{StudentID: studentID, Average: average}, nil
}

func (s *summaryService) StudentReport(ctx context.Context, actor Actor, studentID uint) (dto.StudentReportResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gradebook-api/internal/service/summary")
	ctx, span := tracer.Start(ctx, "summary.report")
	span.SetAttributes(attribute.Int64("summary.student_id", int64(studentID)))
	defer span.End()

	if !s.policy.CanViewStudent(actor, studentID) {
		span.SetStatus(codes.Error, "forbidden")
		return dto.StudentReportResponse{}, grading.ErrForbidden
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		err = notFound(err, "student", studentID)
		span.RecordError(err)
		return dto.StudentReportResponse{}, err
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		span.RecordError(err)
		return dto.StudentReportResponse{}, err
	}

	report := dto.StudentReportResponse{
		StudentID:   studentID,
		StudentName: student.FullName(),
		Subjects:    make([]dto.SubjectSummaryResponse, 0, len(enrollments)),
		GeneratedAt: s.now().UTC(),
	}
	for _, enrollment := range enrollments {
		subject := models.Subject{ID: enrollment.SubjectID}
		if enrollment.Subject != nil {
			subject = *enrollment.Subject
		}
		summary, err := s.subjectSummary(ctx, studentID, subject)
		if err != nil {
			span.RecordError(err)
			return dto.StudentReportResponse{}, err
		}
		report.Subjects = append(report.Subjects, summary)
	}

	report.Average, err = s.ComputeOverallAverage(ctx, studentID)
	if err != nil {
		span.RecordError(err)
		return dto.StudentReportResponse{}, err
	}
	return report, nil
}
