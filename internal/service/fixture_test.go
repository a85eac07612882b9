package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/database"
	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type sentNotification struct {
	UserID  uint
	Kind    string
	Message string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uint, kind, message string) (dto.NotificationResponse, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Kind: kind, Message: message})
	return dto.NotificationResponse{UserID: userID, Type: kind, Message: message}, nil
}

func (n *recordingNotifier) to(userID uint) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, item := range n.sent {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out
}

// gradebook wires the grading services over a private in-memory database with one subject
// (MAT101) taught by teacher, and student enrolled in it.
type gradebook struct {
	db       *gorm.DB
	notifier *recordingNotifier
	activity ActivityService

	configs   ActivityConfigService
	grades    GradeService
	summaries SummaryService
	requests  ChangeRequestService

	admin        Actor
	teacher      Actor
	otherTeacher Actor
	student      Actor
	otherStudent Actor
	subject      models.Subject
}

func newGradebook(t *testing.T, cache SummaryCache) *gradebook {
	t.Helper()

	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	if cache == nil {
		cache = NewSummaryCache(nil, 0, testLogger())
	}

	tx := repository.NewTransactor(db)
	users := repository.NewUserRepository(db)
	subjects := repository.NewSubjectRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	configRepo := repository.NewActivityConfigRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	requestRepo := repository.NewChangeRequestRepository(db)
	validate := NewValidator()
	policy := NewRolePolicy()
	rules := grading.DefaultRules()

	g := &gradebook{
		db:       db,
		notifier: &recordingNotifier{},
		activity: NewActivityService(repository.NewActivityLogRepository(db), testLogger()),
	}

	g.configs = NewActivityConfigService(tx, subjects, configRepo, validate, policy, g.activity, cache, rules, testLogger())
	g.grades = NewGradeService(GradeServiceDeps{
		Transactor:  tx,
		Users:       users,
		Subjects:    subjects,
		Enrollments: enrollments,
		Configs:     configRepo,
		Grades:      gradeRepo,
		Validator:   validate,
		Policy:      policy,
		Activity:    g.activity,
		Cache:       cache,
		Rules:       rules,
	}, testLogger())
	g.summaries = NewSummaryService(SummaryServiceDeps{
		Transactor:  tx,
		Users:       users,
		Subjects:    subjects,
		Enrollments: enrollments,
		Configs:     configRepo,
		Grades:      gradeRepo,
		Policy:      policy,
		Cache:       cache,
		Rules:       rules,
	}, testLogger())
	g.requests = NewChangeRequestService(ChangeRequestServiceDeps{
		Transactor: tx,
		Users:      users,
		Subjects:   subjects,
		Configs:    configRepo,
		Grades:     gradeRepo,
		Requests:   requestRepo,
		Validator:  validate,
		Policy:     policy,
		Activity:   g.activity,
		Cache:      cache,
		Notifier:   g.notifier,
		Rules:      rules,
	}, testLogger())

	ctx := context.Background()
	people := []models.User{
		{Username: "admin", Email: "admin@school.test", FirstName: "Ada", LastName: "Admin", Role: models.RoleAdmin},
		{Username: "teacher", Email: "teacher@school.test", FirstName: "Tomas", LastName: "Teacher", Role: models.RoleTeacher},
		{Username: "other.teacher", Email: "other@school.test", FirstName: "Olga", LastName: "Other", Role: models.RoleTeacher},
		{Username: "student", Email: "student@school.test", FirstName: "Sofia", LastName: "Student", Role: models.RoleStudent},
		{Username: "other.student", Email: "other.student@school.test", FirstName: "Oscar", LastName: "Student", Role: models.RoleStudent},
	}
	for i := range people {
		require.NoError(t, users.Create(ctx, &people[i]))
	}
	g.admin = Actor{ID: people[0].ID, Role: models.RoleAdmin}
	g.teacher = Actor{ID: people[1].ID, Role: models.RoleTeacher}
	g.otherTeacher = Actor{ID: people[2].ID, Role: models.RoleTeacher}
	g.student = Actor{ID: people[3].ID, Role: models.RoleStudent}
	g.otherStudent = Actor{ID: people[4].ID, Role: models.RoleStudent}

	g.subject = models.Subject{Name: "Matemáticas", Code: "MAT101", TeacherID: &g.teacher.ID}
	require.NoError(t, subjects.Create(ctx, &g.subject))

	_, err = g.grades.Enroll(ctx, g.admin, dto.EnrollRequest{StudentID: g.student.ID, SubjectID: g.subject.ID})
	require.NoError(t, err)

	return g
}

func (g *gradebook) configure(t *testing.T, unit string, items ...dto.ActivityConfigItem) dto.ActivityConfigListResponse {
	t.Helper()
	resp, err := g.configs.SetActivities(context.Background(), g.teacher, g.subject.ID, dto.SetActivitiesRequest{Unit: unit, Activities: items})
	require.NoError(t, err)
	return resp
}

func (g *gradebook) recordZone(t *testing.T, unit, name string, value float64) dto.GradeResponse {
	t.Helper()
	resp, err := g.grades.RecordGrade(context.Background(), g.teacher, dto.RecordGradeRequest{
		StudentID:     g.student.ID,
		SubjectID:     g.subject.ID,
		ComponentType: models.ComponentZone,
		Unit:          unit,
		ActivityName:  name,
		Value:         value,
	})
	require.NoError(t, err)
	return resp
}

func item(name string, maxScore float64) dto.ActivityConfigItem {
	return dto.ActivityConfigItem{Name: name, MaxScore: maxScore}
}

func keep(id uint, name string, maxScore float64) dto.ActivityConfigItem {
	return dto.ActivityConfigItem{ID: &id, Name: name, MaxScore: maxScore}
}
