package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/models"
)

func TestActivityServiceRecordsAndMasksMetadata(t *testing.T) {
	g := newGradebook(t, nil)
	ctx := context.Background()

	entityID := uint(7)
	entry, err := g.activity.Record(ctx, ActivityEntry{
		ActorID:    g.admin.ID,
		ActorRole:  " ADMIN ",
		Action:     "Grade.Recorded",
		EntityType: "Grade",
		EntityID:   &entityID,
		Metadata:   map[string]interface{}{"student_email": "sofia@school.test", "value": 9.5},
	})
	require.NoError(t, err)
	require.Equal(t, "admin", entry.ActorRole)
	require.Equal(t, "grade.recorded", entry.Action)
	require.Equal(t, "***", entry.Metadata["student_email"])

	_, err = g.activity.Record(ctx, ActivityEntry{ActorID: 1, EntityType: "grade"})
	require.Error(t, err)
}

func TestActivityServiceListsGradingTrail(t *testing.T) {
	g := newGradebook(t, nil)
	ctx := context.Background()
	g.configure(t, models.UnitOne, item("Tarea 1", 10))
	g.recordZone(t, models.UnitOne, "Tarea 1", 8)

	all, err := g.activity.List(ctx, dto.ActivityLogListRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	actions := make([]string, 0, len(all.Items))
	for _, entry := range all.Items {
		actions = append(actions, entry.Action)
	}
	require.Contains(t, actions, ActionEnrollmentCreated)
	require.Contains(t, actions, ActionActivitiesConfigured)
	require.Contains(t, actions, ActionGradeRecorded)

	graded, err := g.activity.List(ctx, dto.ActivityLogListRequest{Action: ActionGradeRecorded, ActorID: g.teacher.ID})
	require.NoError(t, err)
	require.Len(t, graded.Items, 1)
	require.Equal(t, "grade", graded.Items[0].EntityType)
}
