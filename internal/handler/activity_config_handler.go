package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/internal/utils"
)

// ActivityConfigHandler manages the zone activities of a subject.
type ActivityConfigHandler struct {
	service service.ActivityConfigService
	logger  zerolog.Logger
}

// NewActivityConfigHandler constructs the handler.
func NewActivityConfigHandler(service service.ActivityConfigService, logger zerolog.Logger) *ActivityConfigHandler {
	return &ActivityConfigHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_config_handler").Logger(),
	}
}

// Register attaches routes below /subjects.
func (h *ActivityConfigHandler) Register(router fiber.Router) {
	router.Get("/:id/activities", h.list)
	router.Put("/:id/activities", h.set)
}

func (h *ActivityConfigHandler) list(c *fiber.Ctx) error {
	subjectID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}

	unit := strings.TrimSpace(c.Query("unit"))
	if unit != "" && !models.IsValidUnit(unit) {
		return utils.SendError(c, fiber.StatusBadRequest, "unknown unit")
	}

	activities, err := h.service.ListActivities(c.UserContext(), subjectID, unit)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "activities", activities)
}

func (h *ActivityConfigHandler) set(c *fiber.Ctx) error {
	subjectID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}

	var payload dto.SetActivitiesRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.SetActivities(c.UserContext(), actorFromContext(c), subjectID, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "activities configured", result)
}
