package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/observability"
	"github.com/noah-isme/gradebook-api/internal/repository"
)

// Notification types emitted by the change request workflow.
const (
	NotificationChangeRequested = "change_request.submitted"
	NotificationChangeResolved  = "change_request.resolved"
)

// Notifier delivers a message to one user.
type Notifier interface {
	Notify(ctx context.Context, userID uint, kind, message string) (dto.NotificationResponse, error)
}

// NotificationService persists notifications and fans them out on NATS.
type NotificationService interface {
	Notifier
	List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error)
}

type notificationService struct {
	repo        repository.NotificationRepository
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
	nodeID      string
	now         func() time.Time
}

type notificationEvent struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

// NewNotificationService constructs a notification service. natsConn may be nil, in which
// case notifications are only persisted.
func NewNotificationService(repo repository.NotificationRepository, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) NotificationService {
	subject := ""
	if channelBase != "" {
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		repo:        repo,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "notification_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gradebook-api/internal/service/notification"),
		sanitizer:   bluemonday.StrictPolicy(),
		nodeID:      uuid.NewString(),
		now:         time.Now,
	}
}

func (s *notificationService) Notify(ctx context.Context, userID uint, kind, message string) (dto.NotificationResponse, error) {
	cleanMessage := strings.TrimSpace(s.sanitizer.Sanitize(message))
	if cleanMessage == "" {
		return dto.NotificationResponse{}, errors.New("notification message empty after sanitization")
	}

	attrs := []attribute.KeyValue{
		attribute.Int64("notification.user_id", int64(userID)),
		attribute.String("notification.type", kind),
	}
	spanCtx, span := s.tracer.Start(ctx, "notifications.publish", trace.WithAttributes(attrs...))
	defer span.End()

	model := models.Notification{
		UserID:    userID,
		Type:      kind,
		Message:   cleanMessage,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	response := dto.NewNotificationResponse(model)
	if err := s.publish(response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish notification to broker")
	}

	observability.NotificationsSent().WithLabelValues(response.Type).Inc()
	return response, nil
}

func (s *notificationService) List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	if userID == 0 {
		return nil, errors.New("user id is required")
	}

	notifications, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.Int64("notification.user_id", int64(userID)),
	))
	defer span.End()

	notification, err := s.repo.MarkRead(spanCtx, id, userID, s.now().UTC())
	if err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, notFound(err, "notification", id)
	}
	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) publish(notification dto.NotificationResponse) error {
	if s.nats == nil || s.natsSubject == "" {
		return nil
	}

	payload, err := json.Marshal(notificationEvent{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       s.now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.nats.Publish(fmt.Sprintf("%s.%d", s.natsSubject, notification.UserID), payload)
}
