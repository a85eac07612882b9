package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func TestActivityConfigReplaceUnit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityConfigRepository(db)
	grades := NewGradeRepository(db)
	ctx := context.Background()

	initial, err := repo.ReplaceUnit(ctx, 1, models.UnitOne, []models.ActivityConfig{
		{Name: "Quiz 1", MaxScore: 10},
		{Name: "Quiz 2", MaxScore: 15},
		{Name: "Tarea", MaxScore: 5},
	})
	require.NoError(t, err)
	require.Len(t, initial, 3)
	require.Equal(t, 1, initial[0].Sequence)
	require.Equal(t, 3, initial[2].Sequence)

	quizOneID := initial[0].ID
	tareaID := initial[2].ID
	now := time.Now()
	quizGrade := models.GradeEntry{StudentID: 9, SubjectID: 1, ActivityConfigID: &quizOneID, ActivityName: "Quiz 1", Unit: models.UnitOne, ComponentType: models.ComponentZone, Value: 8, RecordedAt: now}
	tareaGrade := models.GradeEntry{StudentID: 9, SubjectID: 1, ActivityConfigID: &tareaID, ActivityName: "Tarea", Unit: models.UnitOne, ComponentType: models.ComponentZone, Value: 4, RecordedAt: now}
	require.NoError(t, grades.Create(ctx, &quizGrade))
	require.NoError(t, grades.Create(ctx, &tareaGrade))

	// reorder, rename quiz 1, drop tarea, add a project
	replaced, err := repo.ReplaceUnit(ctx, 1, models.UnitOne, []models.ActivityConfig{
		{ID: initial[1].ID, Name: "Quiz 2", MaxScore: 15},
		{ID: quizOneID, Name: "Primer quiz", MaxScore: 12},
		{Name: "Proyecto", MaxScore: 20},
	})
	require.NoError(t, err)
	require.Len(t, replaced, 3)

	listed, err := repo.List(ctx, 1, models.UnitOne)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	require.Equal(t, "Quiz 2", listed[0].Name)
	require.Equal(t, "Primer quiz", listed[1].Name)
	require.Equal(t, 12.0, listed[1].MaxScore)
	require.Equal(t, "Proyecto", listed[2].Name)
	require.Equal(t, []int{1, 2, 3}, []int{listed[0].Sequence, listed[1].Sequence, listed[2].Sequence})

	renamed, err := grades.GetByID(ctx, quizGrade.ID)
	require.NoError(t, err)
	require.Equal(t, "Primer quiz", renamed.ActivityName)
	require.NotNil(t, renamed.ActivityConfigID)

	orphaned, err := grades.GetByID(ctx, tareaGrade.ID)
	require.NoError(t, err)
	require.Nil(t, orphaned.ActivityConfigID)
	require.Equal(t, 4.0, orphaned.Value)
}

func TestActivityConfigReplaceUnitRejectsForeignID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityConfigRepository(db)
	ctx := context.Background()

	other, err := repo.ReplaceUnit(ctx, 2, models.UnitOne, []models.ActivityConfig{{Name: "Lab", MaxScore: 10}})
	require.NoError(t, err)

	_, err = repo.ReplaceUnit(ctx, 1, models.UnitOne, []models.ActivityConfig{
		{Name: "Quiz", MaxScore: 10},
		{ID: other[0].ID, Name: "Hijack", MaxScore: 10},
	})
	require.Error(t, err)

	configs, err := repo.List(ctx, 1, "")
	require.NoError(t, err)
	require.Empty(t, configs, "failed replacement must not leave partial rows")

	untouched, err := repo.GetByID(ctx, other[0].ID)
	require.NoError(t, err)
	require.Equal(t, "Lab", untouched.Name)
}

func TestActivityConfigStream(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityConfigRepository(db)
	ctx := context.Background()

	_, err := repo.ReplaceUnit(ctx, 1, models.UnitTwo, []models.ActivityConfig{{Name: "B", MaxScore: 5}})
	require.NoError(t, err)
	_, err = repo.ReplaceUnit(ctx, 1, models.UnitOne, []models.ActivityConfig{{Name: "A1", MaxScore: 5}, {Name: "A2", MaxScore: 5}})
	require.NoError(t, err)

	var names []string
	for config, err := range repo.Stream(ctx, 1, "") {
		require.NoError(t, err)
		names = append(names, config.Name)
	}
	require.Equal(t, []string{"A1", "A2", "B"}, names)

	found, err := repo.FindByName(ctx, 1, models.UnitOne, "A2")
	require.NoError(t, err)
	require.Equal(t, 2, found.Sequence)
}
