package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/observability"
	"github.com/noah-isme/gradebook-api/internal/repository"
)

// Resolution actions accepted by Resolve.
const (
	ResolveApprove = "approve"
	ResolveReject  = "reject"
)

// NoteTargetRemoved is the resolution note of requests auto-rejected because an approved
// deletion removed their grade.
const NoteTargetRemoved = "target grade removed"

// ChangeRequestService mediates every grade mutation after initial entry.
type ChangeRequestService interface {
	Submit(ctx context.Context, actor Actor, payload dto.ChangeRequestCreateRequest) (dto.ChangeRequestResponse, error)
	Resolve(ctx context.Context, actor Actor, requestID uint, action string, payload dto.ChangeRequestResolveRequest) (dto.ChangeRequestResponse, error)
	ListByStatus(ctx context.Context, actor Actor, req dto.ChangeRequestListRequest) (dto.ChangeRequestListResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.ChangeRequestResponse, error)
}

type changeRequestService struct {
	tx        repository.Transactor
	users     repository.UserRepository
	subjects  repository.SubjectRepository
	configs   repository.ActivityConfigRepository
	grades    repository.GradeRepository
	requests  repository.ChangeRequestRepository
	validator *validator.Validate
	policy    Policy
	activity  ActivityRecorder
	cache     SummaryCache
	notifier  Notifier
	rules     grading.Rules
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// ChangeRequestServiceDeps groups the collaborators of the change request service.
type ChangeRequestServiceDeps struct {
	Transactor repository.Transactor
	Users      repository.UserRepository
	Subjects   repository.SubjectRepository
	Configs    repository.ActivityConfigRepository
	Grades     repository.GradeRepository
	Requests   repository.ChangeRequestRepository
	Validator  *validator.Validate
	Policy     Policy
	Activity   ActivityRecorder
	Cache      SummaryCache
	Notifier   Notifier
	Rules      grading.Rules
}

// NewChangeRequestService constructs the change request workflow.
func NewChangeRequestService(deps ChangeRequestServiceDeps, logger zerolog.Logger) ChangeRequestService {
	return &changeRequestService{
		tx:        deps.Transactor,
		users:     deps.Users,
		subjects:  deps.Subjects,
		configs:   deps.Configs,
		grades:    deps.Grades,
		requests:  deps.Requests,
		validator: deps.Validator,
		policy:    deps.Policy,
		activity:  deps.Activity,
		cache:     deps.Cache,
		notifier:  deps.Notifier,
		rules:     deps.Rules.WithDefaults(),
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "change_request_service").Logger(),
		now:       time.Now,
	}
}

func (s *changeRequestService) Submit(ctx context.Context, actor Actor, payload dto.ChangeRequestCreateRequest) (dto.ChangeRequestResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gradebook-api/internal/service/change_request")
	ctx, span := tracer.Start(ctx, "change_requests.submit")
	span.SetAttributes(
		attribute.Int64("change_request.grade_id", int64(payload.GradeID)),
		attribute.String("change_request.type", payload.RequestType),
		attribute.Int64("change_request.actor_id", int64(actor.ID)),
	)
	defer span.End()

	fail := func(err error, status string) (dto.ChangeRequestResponse, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.ChangeRequestResponse{}, err
	}

	payload.Reason = strings.TrimSpace(s.sanitizer.Sanitize(payload.Reason))
	if err := s.validator.Struct(payload); err != nil {
		return fail(err, "validation_failed")
	}
	if payload.RequestType == models.ChangeRequestEdit {
		if payload.NewValue == nil {
			return fail(fmt.Errorf("%w: edit requires a new value", grading.ErrInvalidTransition), "missing_new_value")
		}
		if *payload.NewValue < 0 {
			return fail(fmt.Errorf("%w: new value %.2f is negative", grading.ErrInvalidTransition, *payload.NewValue), "negative_new_value")
		}
	} else {
		payload.NewValue = nil
	}

	var request models.ChangeRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		grade, err := s.grades.GetByID(ctx, payload.GradeID)
		if err != nil {
			return notFound(err, "grade", payload.GradeID)
		}
		subject, err := s.subjects.GetByID(ctx, grade.SubjectID)
		if err != nil {
			return notFound(err, "subject", grade.SubjectID)
		}
		if !s.policy.CanSubmitChange(actor, subject) {
			return grading.ErrForbidden
		}

		if payload.NewValue != nil {
			ceiling, err := s.ceilingFor(ctx, grade)
			if err != nil {
				return err
			}
			if err := grading.CheckValue(grading.ErrExceedsCeiling, *payload.NewValue, ceiling); err != nil {
				return err
			}
			if grading.SameValue(*payload.NewValue, grade.Value) {
				return grading.ErrNoOpChange
			}
		}

		request = models.ChangeRequest{
			GradeID:       grade.ID,
			SubjectID:     grade.SubjectID,
			StudentID:     grade.StudentID,
			ActivityName:  grade.ActivityName,
			Unit:          grade.Unit,
			ComponentType: grade.ComponentType,
			PreviousValue: grade.Value,
			RequestedBy:   actor.ID,
			RequestType:   payload.RequestType,
			NewValue:      payload.NewValue,
			Reason:        payload.Reason,
			Status:        models.ChangeRequestPending,
			RequestDate:   s.now().UTC(),
		}
		return s.requests.Create(ctx, &request)
	})
	if err != nil {
		return fail(err, "submit_failed")
	}

	observability.ChangeRequests().WithLabelValues(request.RequestType, request.Status).Inc()
	record(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ActionChangeRequestSubmitted,
		EntityType: "change_request",
		EntityID:   &request.ID,
		Metadata: map[string]interface{}{
			"grade_id":       request.GradeID,
			"request_type":   request.RequestType,
			"previous_value": request.PreviousValue,
			"new_value":      request.NewValue,
		},
	})
	s.notifyAdmins(ctx, request)

	return dto.NewChangeRequestResponse(request), nil
}

// ceilingFor resolves the highest value a grade may be edited to. Orphaned zone grades fall
// back to the unit ceiling.
func (s *changeRequestService) ceilingFor(ctx context.Context, grade models.GradeEntry) (float64, error) {
	if grade.ComponentType != models.ComponentZone || grade.ActivityConfigID == nil {
		return s.rules.Ceiling(grade.ComponentType, nil), nil
	}

	config, err := s.configs.GetByID(ctx, *grade.ActivityConfigID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.rules.Ceiling(grade.ComponentType, nil), nil
	}
	if err != nil {
		return 0, err
	}
	return s.rules.Ceiling(grade.ComponentType, &config), nil
}

func (s *changeRequestService) Resolve(ctx context.Context, actor Actor, requestID uint, action string, payload dto.ChangeRequestResolveRequest) (dto.ChangeRequestResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gradebook-api/internal/service/change_request")
	ctx, span := tracer.Start(ctx, "change_requests.resolve")
	span.SetAttributes(
		attribute.Int64("change_request.id", int64(requestID)),
		attribute.String("change_request.action", action),
		attribute.Int64("change_request.actor_id", int64(actor.ID)),
	)
	defer span.End()

	fail := func(err error, status string) (dto.ChangeRequestResponse, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.ChangeRequestResponse{}, err
	}

	var target string
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ResolveApprove:
		target = models.ChangeRequestApproved
	case ResolveReject:
		target = models.ChangeRequestRejected
	default:
		return fail(fmt.Errorf("%w: unknown action %q", grading.ErrInvalidTransition, action), "unknown_action")
	}
	if !s.policy.CanResolveChange(actor) {
		return fail(grading.ErrForbidden, "forbidden")
	}

	payload.Note = strings.TrimSpace(s.sanitizer.Sanitize(payload.Note))
	if err := s.validator.Struct(payload); err != nil {
		return fail(err, "validation_failed")
	}

	var (
		request      models.ChangeRequest
		autoRejected []models.ChangeRequest
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.requests.GetByID(ctx, requestID)
		if err != nil {
			return notFound(err, "change request", requestID)
		}
		if !current.IsPending() {
			return grading.ErrAlreadyProcessed
		}

		decidedAt := s.now().UTC()
		applied, err := s.requests.Transition(ctx, repository.ChangeRequestTransition{
			ID:         requestID,
			From:       models.ChangeRequestPending,
			To:         target,
			ApproverID: actor.ID,
			At:         decidedAt,
			Note:       payload.Note,
		})
		if err != nil {
			return err
		}
		if !applied {
			return grading.ErrAlreadyProcessed
		}

		if target == models.ChangeRequestApproved {
			switch current.RequestType {
			case models.ChangeRequestEdit:
				if current.NewValue == nil {
					return fmt.Errorf("%w: edit request has no new value", grading.ErrInvalidTransition)
				}
				if err := s.grades.UpdateValue(ctx, current.GradeID, *current.NewValue); err != nil {
					return notFound(err, "grade", current.GradeID)
				}
			case models.ChangeRequestDelete:
				if err := s.grades.Delete(ctx, current.GradeID); err != nil {
					return notFound(err, "grade", current.GradeID)
				}
				gradeID := current.GradeID
				siblings, _, err := s.requests.List(ctx, repository.ChangeRequestFilter{
					Status:  models.ChangeRequestPending,
					GradeID: &gradeID,
				})
				if err != nil {
					return err
				}
				if _, err := s.requests.RejectPendingForGrade(ctx, gradeID, requestID, actor.ID, decidedAt, NoteTargetRemoved); err != nil {
					return err
				}
				for _, sibling := range siblings {
					if sibling.ID != requestID {
						autoRejected = append(autoRejected, sibling)
					}
				}
			}
		}

		request, err = s.requests.GetByID(ctx, requestID)
		return err
	})
	if err != nil {
		return fail(err, "resolve_failed")
	}

	s.cache.InvalidateStudentSubject(ctx, request.StudentID, request.SubjectID)
	observability.ChangeRequests().WithLabelValues(request.RequestType, request.Status).Inc()
	record(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ActionChangeRequestResolved,
		EntityType: "change_request",
		EntityID:   &request.ID,
		Metadata: map[string]interface{}{
			"grade_id":      request.GradeID,
			"request_type":  request.RequestType,
			"status":        request.Status,
			"auto_rejected": len(autoRejected),
		},
	})

	s.notify(ctx, request.RequestedBy, NotificationChangeResolved,
		fmt.Sprintf("Your %s request for %s was %s.", request.RequestType, request.ActivityName, request.Status))
	for _, sibling := range autoRejected {
		observability.ChangeRequests().WithLabelValues(sibling.RequestType, models.ChangeRequestRejected).Inc()
		s.notify(ctx, sibling.RequestedBy, NotificationChangeResolved,
			fmt.Sprintf("Your %s request for %s was rejected: %s.", sibling.RequestType, sibling.ActivityName, NoteTargetRemoved))
	}

	s.logger.Info().
		Uint("change_request_id", request.ID).
		Str("status", request.Status).
		Int("auto_rejected", len(autoRejected)).
		Msg("change request resolved")

	return dto.NewChangeRequestResponse(request), nil
}

// ListByStatus returns pending requests oldest first and decided requests newest first.
// Teachers only see their own requests.
func (s *changeRequestService) ListByStatus(ctx context.Context, actor Actor, req dto.ChangeRequestListRequest) (dto.ChangeRequestListResponse, error) {
	if req.Status == "" {
		req.Status = models.ChangeRequestPending
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.ChangeRequestListResponse{}, err
	}

	filter := repository.ChangeRequestFilter{
		Status:   req.Status,
		Page:     maxInt(req.Page, 1),
		PageSize: req.PageSize,
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleTeacher:
		requester := actor.ID
		filter.RequestedBy = &requester
	default:
		return dto.ChangeRequestListResponse{}, grading.ErrForbidden
	}

	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return dto.ChangeRequestListResponse{}, err
	}

	items := make([]dto.ChangeRequestResponse, 0, len(requests))
	for _, request := range requests {
		items = append(items, dto.NewChangeRequestResponse(request))
	}

	return dto.ChangeRequestListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *changeRequestService) Get(ctx context.Context, actor Actor, id uint) (dto.ChangeRequestResponse, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return dto.ChangeRequestResponse{}, notFound(err, "change request", id)
	}
	if !actor.IsAdmin() && request.RequestedBy != actor.ID {
		return dto.ChangeRequestResponse{}, grading.ErrForbidden
	}

	response := dto.NewChangeRequestResponse(request)
	if subject, err := s.subjects.GetByID(ctx, request.SubjectID); err == nil {
		response.SubjectTeacherID = subject.TeacherID
	}
	return response, nil
}

func (s *changeRequestService) notifyAdmins(ctx context.Context, request models.ChangeRequest) {
	if s.notifier == nil {
		return
	}
	admins, err := s.users.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to list administrators for notification")
		return
	}

	message := fmt.Sprintf("New %s request #%d for %s awaits review.", request.RequestType, request.ID, request.ActivityName)
	for _, admin := range admins {
		s.notify(ctx, admin.ID, NotificationChangeRequested, message)
	}
}

func (s *changeRequestService) notify(ctx context.Context, userID uint, kind, message string) {
	if s.notifier == nil || userID == 0 {
		return
	}
	if _, err := s.notifier.Notify(ctx, userID, kind, message); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to deliver notification")
	}
}
