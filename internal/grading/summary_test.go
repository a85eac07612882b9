package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func TestSummarizeCountsUngradedActivitiesTowardMaxOnly(t *testing.T) {
	configs := []models.ActivityConfig{
		{ID: 2, SubjectID: 1, Unit: models.UnitOne, Sequence: 2, Name: "Quiz 2", MaxScore: 15},
		{ID: 1, SubjectID: 1, Unit: models.UnitOne, Sequence: 1, Name: "Quiz 1", MaxScore: 10},
	}
	entries := []models.GradeEntry{
		{ID: 7, StudentID: 3, SubjectID: 1, ActivityConfigID: uintPtr(1), ActivityName: "Quiz 1", Unit: models.UnitOne, ComponentType: models.ComponentZone, Value: 8},
	}

	summary := Summarize(3, 1, configs, entries, DefaultRules())

	require.Equal(t, 8.0, summary.ZoneSubtotalByUnit[models.UnitOne])
	require.Equal(t, 25.0, summary.ZoneMaxByUnit[models.UnitOne])
	require.Equal(t, 8.0, summary.SubjectTotal)
	require.Len(t, summary.Units, 1)

	lines := summary.Units[0].Activities
	require.Len(t, lines, 2)
	require.Equal(t, "Quiz 1", lines[0].Name)
	require.Equal(t, LineGraded, lines[0].Status)
	require.NotNil(t, lines[0].Value)
	require.Equal(t, 8.0, *lines[0].Value)
	require.Equal(t, "Quiz 2", lines[1].Name)
	require.Equal(t, LineNotGraded, lines[1].Status)
	require.Nil(t, lines[1].Value)
}

func TestSummarizeKeepsOrphanedZoneEntriesInSubtotal(t *testing.T) {
	configs := []models.ActivityConfig{
		{ID: 1, Unit: models.UnitTwo, Sequence: 1, Name: "Homework", MaxScore: 20},
	}
	entries := []models.GradeEntry{
		{ID: 1, ActivityConfigID: uintPtr(1), ActivityName: "Homework", Unit: models.UnitTwo, ComponentType: models.ComponentZone, Value: 12},
		{ID: 2, ActivityName: "Old project", Unit: models.UnitTwo, ComponentType: models.ComponentZone, Value: 5},
		{ID: 3, ActivityName: "Lab", Unit: models.UnitOne, ComponentType: models.ComponentZone, Value: 4.5},
	}

	summary := Summarize(1, 1, configs, entries, DefaultRules())

	require.Equal(t, 17.0, summary.ZoneSubtotalByUnit[models.UnitTwo])
	require.Equal(t, 20.0, summary.ZoneMaxByUnit[models.UnitTwo])
	require.Equal(t, 4.5, summary.ZoneSubtotalByUnit[models.UnitOne])
	require.Equal(t, 0.0, summary.ZoneMaxByUnit[models.UnitOne])
	require.Equal(t, 21.5, summary.ZoneTotal)

	require.Equal(t, models.UnitOne, summary.Units[0].Unit, "units follow curriculum order")
	require.Equal(t, LineLegacy, summary.Units[0].Activities[0].Status)
	require.Equal(t, LineLegacy, summary.Units[1].Activities[1].Status)
}

func TestSummarizeSeparatesPartials(t *testing.T) {
	entries := []models.GradeEntry{
		{ID: 1, ActivityName: "Examen Parcial", Unit: models.UnitOne, ComponentType: models.ComponentPartial, Value: 8.5},
		{ID: 2, ActivityName: "Tarea 1", Unit: models.UnitOne, ComponentType: models.ComponentZone, Value: 7},
		{ID: 3, ActivityName: "Examen Final", ComponentType: models.ComponentPartial, Value: 18},
	}

	summary := Summarize(1, 1, nil, entries, DefaultRules())

	require.Equal(t, 26.5, summary.PartialTotal)
	require.Equal(t, 7.0, summary.ZoneTotal)
	require.Equal(t, 33.5, summary.SubjectTotal)
	require.Len(t, summary.Partials, 2)
	require.Equal(t, 20.0, summary.Partials[0].MaxScore)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(1, 1, nil, nil, Rules{})

	require.Empty(t, summary.Units)
	require.Empty(t, summary.Partials)
	require.Zero(t, summary.SubjectTotal)
}

func TestOverallAverage(t *testing.T) {
	require.Zero(t, OverallAverage(nil))

	entries := []models.GradeEntry{{Value: 8.5}, {Value: 7}, {Value: 9}}
	require.InDelta(t, 8.1666, OverallAverage(entries), 1e-3)
}
