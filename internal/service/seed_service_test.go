package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/database"
	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
)

func TestSeedDemoLoadsSchoolOnce(t *testing.T) {
	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	tx := repository.NewTransactor(db)
	users := repository.NewUserRepository(db)
	subjects := repository.NewSubjectRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	configs := repository.NewActivityConfigRepository(db)
	grades := repository.NewGradeRepository(db)
	validate := NewValidator()
	policy := NewRolePolicy()
	cache := NewSummaryCache(nil, 0, testLogger())
	rules := grading.DefaultRules()
	notifications := NewNotificationService(repository.NewNotificationRepository(db), "", nil, testLogger())

	configSvc := NewActivityConfigService(tx, subjects, configs, validate, policy, nil, cache, rules, testLogger())
	gradeSvc := NewGradeService(GradeServiceDeps{
		Transactor: tx, Users: users, Subjects: subjects, Enrollments: enrollments,
		Configs: configs, Grades: grades, Validator: validate, Policy: policy, Cache: cache, Rules: rules,
	}, testLogger())
	requestSvc := NewChangeRequestService(ChangeRequestServiceDeps{
		Transactor: tx, Users: users, Subjects: subjects, Configs: configs, Grades: grades,
		Requests: repository.NewChangeRequestRepository(db), Validator: validate, Policy: policy,
		Cache: cache, Notifier: notifications, Rules: rules,
	}, testLogger())
	summarySvc := NewSummaryService(SummaryServiceDeps{
		Transactor: tx, Users: users, Subjects: subjects, Enrollments: enrollments,
		Configs: configs, Grades: grades, Policy: policy, Cache: cache, Rules: rules,
	}, testLogger())

	seeder := NewSeedService(tx, users, subjects, configSvc, gradeSvc, requestSvc, testLogger())
	ctx := context.Background()

	report, err := seeder.SeedDemo(ctx)
	require.NoError(t, err)
	require.Equal(t, SeedReport{GradeLevels: 5, Users: 4, Subjects: 3, Enrollments: 3, Activities: 3, Grades: 3, ChangeRequests: 1}, report)

	_, err = seeder.SeedDemo(ctx)
	require.ErrorIs(t, err, ErrAlreadySeeded)

	maria, err := users.GetByUsername(ctx, "maria.g")
	require.NoError(t, err)
	mathematics, err := subjects.GetByCode(ctx, "MAT101")
	require.NoError(t, err)

	summary, err := summarySvc.SubjectSummary(ctx, Actor{ID: maria.ID, Role: models.RoleStudent}, maria.ID, mathematics.ID)
	require.NoError(t, err)
	require.InDelta(t, 7.0, summary.ZoneTotal, 1e-9)
	require.InDelta(t, 8.5, summary.PartialTotal, 1e-9)
	require.InDelta(t, 35.0, summary.ZoneMaxByUnit[models.UnitOne], 1e-9)

	admin, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	pending, err := requestSvc.ListByStatus(ctx, Actor{ID: admin.ID, Role: models.RoleAdmin}, dto.ChangeRequestListRequest{})
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)
	require.InDelta(t, 9.5, *pending.Items[0].NewValue, 1e-9)

	inbox, err := notifications.List(ctx, admin.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
}
