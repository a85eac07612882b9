package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/bootstrap"
	"github.com/noah-isme/gradebook-api/internal/config"
	"github.com/noah-isme/gradebook-api/internal/database"
	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
	"github.com/noah-isme/gradebook-api/internal/service"
)

const testSecret = "handler-test-secret"

// envelope mirrors utils.APIResponse with a lazily decoded payload.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details map[string]any  `json:"details"`
}

type testAPI struct {
	app      *fiber.App
	services bootstrap.Services

	admin        models.User
	teacher      models.User
	otherTeacher models.User
	student      models.User
	otherStudent models.User
	subject      models.Subject
}

// newTestAPI serves the full HTTP stack over a private in-memory database holding subject
// MAT101 taught by teacher with student enrolled.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	opts := bootstrap.Options{
		Config: config.Config{
			AppName:         "Gradebook API",
			AppEnv:          "test",
			JWTSecret:       testSecret,
			NATSChannelBase: "gradebook",
			SummaryCacheTTL: time.Minute,
			WriteRateLimit:  1000,
			WriteRateWindow: time.Minute,
			Grading:         grading.DefaultRules(),
		},
		DB:     db,
		Logger: zerolog.New(io.Discard),
	}
	services := bootstrap.NewServices(opts)

	api := &testAPI{
		app:      bootstrap.NewHTTP(opts, services),
		services: services,
	}

	ctx := context.Background()
	people := []*models.User{&api.admin, &api.teacher, &api.otherTeacher, &api.student, &api.otherStudent}
	seed := []models.User{
		{Username: "admin", Email: "admin@school.test", FirstName: "Ada", LastName: "Admin", Role: models.RoleAdmin},
		{Username: "teacher", Email: "teacher@school.test", FirstName: "Tomas", LastName: "Teacher", Role: models.RoleTeacher},
		{Username: "other.teacher", Email: "other@school.test", FirstName: "Olga", LastName: "Other", Role: models.RoleTeacher},
		{Username: "student", Email: "student@school.test", FirstName: "Sofia", LastName: "Student", Role: models.RoleStudent},
		{Username: "other.student", Email: "other.student@school.test", FirstName: "Oscar", LastName: "Student", Role: models.RoleStudent},
	}
	for i, user := range seed {
		require.NoError(t, services.Users.Create(ctx, &user))
		*people[i] = user
	}

	api.subject = models.Subject{Name: "Matemáticas", Code: "MAT101", TeacherID: &api.teacher.ID}
	require.NoError(t, repository.NewSubjectRepository(db).Create(ctx, &api.subject))

	_, err = services.Grades.Enroll(ctx, service.SystemActor, dto.EnrollRequest{StudentID: api.student.ID, SubjectID: api.subject.ID})
	require.NoError(t, err)

	return api
}

func (a *testAPI) token(t *testing.T, user models.User) string {
	t.Helper()
	token, err := middleware.SignToken(testSecret, user.ID, user.Role, time.Hour)
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(t *testing.T, method, path string, as *models.User, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+a.token(t, *as))
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// call performs a request, asserts the status and decodes the envelope data into target.
func (a *testAPI) call(t *testing.T, method, path string, as *models.User, body any, status int, target any) envelope {
	t.Helper()

	resp := a.do(t, method, path, as, body)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, status, resp.StatusCode, string(raw))

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	if target != nil {
		require.NoError(t, json.Unmarshal(env.Data, target))
	}
	return env
}

func (a *testAPI) configureUnitOne(t *testing.T) dto.ActivityConfigListResponse {
	t.Helper()

	var configured dto.ActivityConfigListResponse
	a.call(t, http.MethodPut, fmt.Sprintf("/api/v1/subjects/%d/activities", a.subject.ID), &a.teacher, map[string]any{
		"unit": models.UnitOne,
		"activities": []map[string]any{
			{"name": "Tarea 1", "max_score": 10},
			{"name": "Quiz 1", "max_score": 10},
			{"name": "Proyecto", "max_score": 15},
		},
	}, fiber.StatusOK, &configured)
	return configured
}

func (a *testAPI) recordZone(t *testing.T, name string, value float64) dto.GradeResponse {
	t.Helper()

	var grade dto.GradeResponse
	a.call(t, http.MethodPost, "/api/v1/grades", &a.teacher, map[string]any{
		"student_id":     a.student.ID,
		"subject_id":     a.subject.ID,
		"component_type": models.ComponentZone,
		"unit":           models.UnitOne,
		"activity_name":  name,
		"value":          value,
	}, fiber.StatusCreated, &grade)
	return grade
}
