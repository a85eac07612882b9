package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
)

func TestRecordGradeRequiresEnrollment(t *testing.T) {
	g := newGradebook(t, nil)
	g.configure(t, models.UnitOne, item("Tarea 1", 10))

	_, err := g.grades.RecordGrade(context.Background(), g.teacher, dto.RecordGradeRequest{
		StudentID:     g.otherStudent.ID,
		SubjectID:     g.subject.ID,
		ComponentType: models.ComponentZone,
		Unit:          models.UnitOne,
		ActivityName:  "Tarea 1",
		Value:         5,
	})
	require.ErrorIs(t, err, grading.ErrNotEnrolled)
}

func TestRecordGradeRejectsValueAboveActivityMax(t *testing.T) {
	g := newGradebook(t, nil)
	g.configure(t, models.UnitOne, item("Quiz 1", 10))

	_, err := g.grades.RecordGrade(context.Background(), g.teacher, dto.RecordGradeRequest{
		StudentID:     g.student.ID,
		SubjectID:     g.subject.ID,
		ComponentType: models.ComponentZone,
		Unit:          models.UnitOne,
		ActivityName:  "Quiz 1",
		Value:         12,
	})
	require.ErrorIs(t, err, grading.ErrOutOfRange)

	var limitErr *grading.LimitError
	require.True(t, errors.As(err, &limitErr))
	require.InDelta(t, 12.0, limitErr.Value, 1e-9)
	require.InDelta(t, 10.0, limitErr.Limit, 1e-9)

	_, err = g.grades.RecordGrade(context.Background(), g.teacher, dto.RecordGradeRequest{
		StudentID:     g.student.ID,
		SubjectID:     g.subject.ID,
		ComponentType: models.ComponentZone,
		Unit:          models.UnitOne,
		ActivityName:  "Quiz 1",
		Value:         -1,
	})
	require.ErrorIs(t, err, grading.ErrOutOfRange)
}

func TestRecordGradeResolvesActivityByID(t *testing.T) {
	g := newGradebook(t, nil)
	configured := g.configure(t, models.UnitTwo, item("Ensayo", 15))
	configID := configured.Activities[0].ID

	grade, err := g.grades.RecordGrade(context.Background(), g.teacher, dto.RecordGradeRequest{
		StudentID:        g.student.ID,
		SubjectID:        g.subject.ID,
		ComponentType:    models.ComponentZone,
		ActivityConfigID: &configID,
		Value:            15,
	})
	require.NoError(t, err)
	require.Equal(t, "Ensayo", grade.ActivityName)
	require.Equal(t, models.UnitTwo, grade.Unit)
	require.Equal(t, configID, *grade.ActivityConfigID)
}

func TestRecordGradeUnknownActivity(t *testing.T) {
	g := newGradebook(t, nil)
	g.configure(t, models.UnitOne, item("Tarea 1", 10))

	_, err := g.grades.RecordGrade(context.Background(), g.teacher, dto.RecordGradeRequest{
		StudentID:     g.student.ID,
		SubjectID:     g.subject.ID,
		ComponentType: models.ComponentZone,
		Unit:          models.UnitOne,
		ActivityName:  "Tarea 9",
		Value:         5,
	})
	require.ErrorIs(t, err, grading.ErrNotFound)
}

func TestRecordGradeRejectsDuplicates(t *testing.T) {
	g := newGradebook(t, nil)
	ctx := context.Background()
	g.configure(t, models.UnitOne, item("Tarea 1", 10))
	g.recordZone(t, models.UnitOne, "Tarea 1", 6)

	_, err := g.grades.RecordGrade(ctx, g.teacher, dto.RecordGradeRequest{
		StudentID:     g.student.ID,
		SubjectID:     g.subject.ID,
		ComponentType: models.ComponentZone,
		Unit:          models.UnitOne,
		ActivityName:  "Tarea 1",
		Value:         9,
	})
	require.ErrorIs(t, err, grading.ErrGradeAlreadyRecorded)

	partial := dto.RecordGradeRequest{
		StudentID:     g.student.ID,
		SubjectID:     g.subject.ID,
		ComponentType: models.ComponentPartial,
		ActivityName:  "Examen Parcial",
		Unit:          models.UnitOne,
		Value:         18,
	}
	_, err = g.grades.RecordGrade(ctx, g.teacher, partial)
	require.NoError(t, err)
	_, err = g.grades.RecordGrade(ctx, g.teacher, partial)
	require.ErrorIs(t, err, grading.ErrGradeAlreadyRecorded)
}

// blindGrades hides existing entries from the pre-insert lookups, as a concurrent writer
// that committed after those lookups would.
type blindGrades struct {
	repository.GradeRepository
}

func (blindGrades) FindZoneEntry(context.Context, uint, uint) (models.GradeEntry, error) {
	return models.GradeEntry{}, gorm.ErrRecordNotFound
}

func (blindGrades) FindPartialEntry(context.Context, uint, uint, string) (models.GradeEntry, error) {
	return models.GradeEntry{}, gorm.ErrRecordNotFound
}

func TestRecordGradeMapsUniqueViolationToAlreadyRecorded(t *testing.T) {
	g := newGradebook(t, nil)
	ctx := context.Background()
	g.configure(t, models.UnitOne, item("Tarea 1", 10))
	first := g.recordZone(t, models.UnitOne, "Tarea 1", 6)

	grades := NewGradeService(GradeServiceDeps{
		Transactor:  repository.NewTransactor(g.db),
		Users:       repository.NewUserRepository(g.db),
		Subjects:    repository.NewSubjectRepository(g.db),
		Enrollments: repository.NewEnrollmentRepository(g.db),
		Configs:     repository.NewActivityConfigRepository(g.db),
		Grades:      blindGrades{repository.NewGradeRepository(g.db)},
		Validator:   NewValidator(),
		Policy:      NewRolePolicy(),
		Activity:    g.activity,
		Cache:       NewSummaryCache(nil, 0, testLogger()),
		Rules:       grading.DefaultRules(),
	}, testLogger())

	for _, payload := range []dto.RecordGradeRequest{
		{StudentID: g.student.ID, SubjectID: g.subject.ID, ComponentType: models.ComponentZone, Unit: models.UnitOne, ActivityName: "Tarea 1", Value: 9},
		{StudentID: g.student.ID, SubjectID: g.subject.ID, ComponentType: models.ComponentPartial, ActivityName: "Examen Parcial", Value: 15},
	} {
		_, err := grades.RecordGrade(ctx, g.teacher, payload)
		if payload.ComponentType == models.ComponentPartial {
			require.NoError(t, err)
			_, err = grades.RecordGrade(ctx, g.teacher, payload)
		}
		require.ErrorIs(t, err, grading.ErrGradeAlreadyRecorded)
	}

	kept, err := g.grades.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.InDelta(t, 6.0, kept.Value, 1e-9)

	entries, err := repository.NewGradeRepository(g.db).List(ctx, repository.GradeFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestRecordPartialUsesPartialCeiling(t *testing.T) {
	g := newGradebook(t, nil)

	_, err := g.grades.RecordGrade(context.Background(), g.teacher, dto.RecordGradeRequest{
		StudentID:     g.student.ID,
		SubjectID:     g.subject.ID,
		ComponentType: models.ComponentPartial,
		ActivityName:  "Examen Final",
		Value:         20.5,
	})
	require.ErrorIs(t, err, grading.ErrOutOfRange)

	_, err = g.grades.RecordGrade(context.Background(), g.teacher, dto.RecordGradeRequest{
		StudentID:     g.student.ID,
		SubjectID:     g.subject.ID,
		ComponentType: models.ComponentPartial,
		Value:         10,
		ActivityName:  " ",
	})
	require.Error(t, err)
}

func TestRecordGradePolicy(t *testing.T) {
	g := newGradebook(t, nil)
	g.configure(t, models.UnitOne, item("Tarea 1", 10))
	payload := dto.RecordGradeRequest{
		StudentID:     g.student.ID,
		SubjectID:     g.subject.ID,
		ComponentType: models.ComponentZone,
		Unit:          models.UnitOne,
		ActivityName:  "Tarea 1",
		Value:         5,
	}

	_, err := g.grades.RecordGrade(context.Background(), g.otherTeacher, payload)
	require.ErrorIs(t, err, grading.ErrForbidden)
	_, err = g.grades.RecordGrade(context.Background(), g.student, payload)
	require.ErrorIs(t, err, grading.ErrForbidden)
	_, err = g.grades.RecordGrade(context.Background(), g.admin, payload)
	require.NoError(t, err)
}

func TestGradeQueryAndVisibility(t *testing.T) {
	g := newGradebook(t, nil)
	ctx := context.Background()
	g.configure(t, models.UnitTwo, item("Ensayo", 10))
	g.configure(t, models.UnitOne, item("Tarea 2", 10), item("Tarea 1", 10))
	g.recordZone(t, models.UnitTwo, "Ensayo", 9)
	g.recordZone(t, models.UnitOne, "Tarea 2", 7)
	g.recordZone(t, models.UnitOne, "Tarea 1", 8)

	var names []string
	for entry, err := range g.grades.Query(ctx, repository.GradeFilter{StudentID: &g.student.ID}) {
		require.NoError(t, err)
		names = append(names, entry.ActivityName)
	}
	require.Equal(t, []string{"Tarea 1", "Tarea 2", "Ensayo"}, names)

	own, err := g.grades.List(ctx, g.student, dto.GradeListRequest{})
	require.NoError(t, err)
	require.Len(t, own, 3)

	_, err = g.grades.List(ctx, g.otherStudent, dto.GradeListRequest{StudentID: g.student.ID})
	require.ErrorIs(t, err, grading.ErrForbidden)

	_, err = g.grades.List(ctx, g.teacher, dto.GradeListRequest{})
	require.ErrorIs(t, err, grading.ErrForbidden)

	unitTwo, err := g.grades.List(ctx, g.teacher, dto.GradeListRequest{SubjectID: g.subject.ID, Unit: models.UnitTwo})
	require.NoError(t, err)
	require.Len(t, unitTwo, 1)

	_, err = g.grades.GetByID(ctx, 4242)
	require.ErrorIs(t, err, grading.ErrNotFound)
}

func TestEnrollIsIdempotentAndAdminOnly(t *testing.T) {
	g := newGradebook(t, nil)
	ctx := context.Background()
	payload := dto.EnrollRequest{StudentID: g.otherStudent.ID, SubjectID: g.subject.ID}

	_, err := g.grades.Enroll(ctx, g.teacher, payload)
	require.ErrorIs(t, err, grading.ErrForbidden)

	first, err := g.grades.Enroll(ctx, g.admin, payload)
	require.NoError(t, err)
	second, err := g.grades.Enroll(ctx, g.admin, payload)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	_, err = g.grades.Enroll(ctx, g.admin, dto.EnrollRequest{StudentID: g.teacher.ID, SubjectID: g.subject.ID})
	require.ErrorIs(t, err, grading.ErrNotFound)
}
