package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseQueryUint(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value, err := strconv.ParseUint(c.Params(key), 10, 64)
	if err != nil || value == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(value), nil
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{}
	if id, ok := c.Locals(middleware.LocalUserID).(uint); ok {
		actor.ID = id
	}
	if role, ok := c.Locals(middleware.LocalUserRole).(string); ok {
		actor.Role = strings.ToLower(strings.TrimSpace(role))
	}
	return actor
}

func requestLogger(c *fiber.Ctx, base zerolog.Logger) *zerolog.Logger {
	actor := actorFromContext(c)
	logger := base.With().
		Str("correlation_id", middleware.GetCorrelationID(c)).
		Uint("actor_id", actor.ID).
		Str("actor_role", actor.Role).
		Logger()
	return &logger
}

func isValidationError(err error) bool {
	var validationErrs validator.ValidationErrors
	return errors.As(err, &validationErrs)
}

// validationDetails flattens validator errors into field => failed rule pairs.
func validationDetails(err error) map[string]string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}
	details := make(map[string]string, len(validationErrs))
	for _, fieldErr := range validationErrs {
		rule := fieldErr.Tag()
		if fieldErr.Param() != "" {
			rule += "=" + fieldErr.Param()
		}
		details[fieldErr.Namespace()] = rule
	}
	return details
}

// writeError maps service error kinds onto HTTP statuses and the error envelope.
func writeError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	if isValidationError(err) {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	}

	var limitErr *grading.LimitError
	if errors.As(err, &limitErr) {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), fiber.Map{"value": limitErr.Value, "limit": limitErr.Limit})
	}

	switch {
	case errors.Is(err, grading.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, grading.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, grading.ErrNotEnrolled),
		errors.Is(err, grading.ErrOutOfRange),
		errors.Is(err, grading.ErrConfigurationLimitExceeded),
		errors.Is(err, grading.ErrTooManyActivities),
		errors.Is(err, grading.ErrDuplicateActivity),
		errors.Is(err, grading.ErrExceedsCeiling),
		errors.Is(err, grading.ErrInvalidTransition),
		errors.Is(err, service.ErrPartialNameRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, grading.ErrNoOpChange),
		errors.Is(err, grading.ErrGradeAlreadyRecorded),
		errors.Is(err, grading.ErrAlreadyProcessed):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		requestLogger(c, logger).Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func pagination(c *fiber.Ctx) (page, pageSize int, err error) {
	if page, err = parseQueryInt(c, "page"); err != nil {
		return 0, 0, err
	}
	if pageSize, err = parseQueryInt(c, "page_size"); err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func withGuards(guards []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(guards)+1)
	handlers = append(handlers, guards...)
	return append(handlers, handler)
}
