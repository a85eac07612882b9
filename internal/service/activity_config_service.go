package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
)

// ActivityConfigService manages the scorable zone activities of each subject unit.
type ActivityConfigService interface {
	SetActivities(ctx context.Context, actor Actor, subjectID uint, payload dto.SetActivitiesRequest) (dto.ActivityConfigListResponse, error)
	GetActivities(ctx context.Context, subjectID uint, unit string) iter.Seq2[models.ActivityConfig, error]
	ListActivities(ctx context.Context, subjectID uint, unit string) ([]dto.ActivityConfigResponse, error)
}

type activityConfigService struct {
	tx        repository.Transactor
	subjects  repository.SubjectRepository
	configs   repository.ActivityConfigRepository
	validator *validator.Validate
	policy    Policy
	activity  ActivityRecorder
	cache     SummaryCache
	rules     grading.Rules
	logger    zerolog.Logger
}

// NewActivityConfigService constructs the activity configuration service.
func NewActivityConfigService(
	tx repository.Transactor,
	subjects repository.SubjectRepository,
	configs repository.ActivityConfigRepository,
	validator *validator.Validate,
	policy Policy,
	activity ActivityRecorder,
	cache SummaryCache,
	rules grading.Rules,
	logger zerolog.Logger,
) ActivityConfigService {
	return &activityConfigService{
		tx:        tx,
		subjects:  subjects,
		configs:   configs,
		validator: validator,
		policy:    policy,
		activity:  activity,
		cache:     cache,
		rules:     rules.WithDefaults(),
		logger:    logger.With().Str("component", "activity_config_service").Logger(),
	}
}

func (s *activityConfigService) SetActivities(ctx context.Context, actor Actor, subjectID uint, payload dto.SetActivitiesRequest) (dto.ActivityConfigListResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gradebook-api/internal/service/activity_config")
	ctx, span := tracer.Start(ctx, "activities.set")
	span.SetAttributes(
		attribute.Int64("activities.subject_id", int64(subjectID)),
		attribute.String("activities.unit", payload.Unit),
		attribute.Int("activities.count", len(payload.Activities)),
		attribute.Int64("activities.actor_id", int64(actor.ID)),
	)
	defer span.End()

	fail := func(err error, status string) (dto.ActivityConfigListResponse, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.ActivityConfigListResponse{}, err
	}

	for idx := range payload.Activities {
		payload.Activities[idx].Name = strings.TrimSpace(payload.Activities[idx].Name)
	}
	if err := s.validator.Struct(payload); err != nil {
		return fail(err, "validation_failed")
	}
	if err := s.rules.CheckActivityCount(len(payload.Activities)); err != nil {
		return fail(err, "too_many_activities")
	}

	scores := make([]float64, 0, len(payload.Activities))
	for _, item := range payload.Activities {
		scores = append(scores, item.MaxScore)
	}
	if err := s.rules.CheckConfiguration(scores); err != nil {
		return fail(err, "configuration_limit_exceeded")
	}

	var saved []models.ActivityConfig
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		subject, err := s.subjects.GetByID(ctx, subjectID)
		if err != nil {
			return notFound(err, "subject", subjectID)
		}
		if !s.policy.CanConfigure(actor, subject) {
			return grading.ErrForbidden
		}

		existing, err := s.configs.List(ctx, subjectID, payload.Unit)
		if err != nil {
			return err
		}
		known := make(map[uint]struct{}, len(existing))
		for _, config := range existing {
			known[config.ID] = struct{}{}
		}

		seen := make(map[uint]struct{}, len(payload.Activities))
		items := make([]models.ActivityConfig, 0, len(payload.Activities))
		for _, item := range payload.Activities {
			config := models.ActivityConfig{Name: item.Name, MaxScore: item.MaxScore}
			if item.ID != nil {
				if _, ok := known[*item.ID]; !ok {
					return grading.NotFound("activity config", *item.ID)
				}
				if _, dup := seen[*item.ID]; dup {
					return fmt.Errorf("%w: id %d", grading.ErrDuplicateActivity, *item.ID)
				}
				seen[*item.ID] = struct{}{}
				config.ID = *item.ID
			}
			items = append(items, config)
		}

		saved, err = s.configs.ReplaceUnit(ctx, subjectID, payload.Unit, items)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return grading.ErrNotFound
		}
		return err
	})
	if err != nil {
		return fail(err, "activities_set_failed")
	}

	s.cache.InvalidateSubject(ctx, subjectID)
	record(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ActionActivitiesConfigured,
		EntityType: "subject",
		EntityID:   &subjectID,
		Metadata: map[string]interface{}{
			"unit":      payload.Unit,
			"count":     len(saved),
			"total_max": sumMaxScores(saved),
		},
	})

	s.logger.Info().
		Uint("subject_id", subjectID).
		Str("unit", payload.Unit).
		Int("count", len(saved)).
		Msg("activities configured")

	return dto.NewActivityConfigListResponse(subjectID, payload.Unit, saved), nil
}

func (s *activityConfigService) GetActivities(ctx context.Context, subjectID uint, unit string) iter.Seq2[models.ActivityConfig, error] {
	return s.configs.Stream(ctx, subjectID, unit)
}

func (s *activityConfigService) ListActivities(ctx context.Context, subjectID uint, unit string) ([]dto.ActivityConfigResponse, error) {
	if _, err := s.subjects.GetByID(ctx, subjectID); err != nil {
		return nil, notFound(err, "subject", subjectID)
	}

	responses := []dto.ActivityConfigResponse{}
	for config, err := range s.GetActivities(ctx, subjectID, unit) {
		if err != nil {
			return nil, err
		}
		responses = append(responses, dto.NewActivityConfigResponse(config))
	}
	return responses, nil
}

func sumMaxScores(configs []models.ActivityConfig) float64 {
	total := 0.0
	for _, config := range configs {
		total += config.MaxScore
	}
	return total
}
