package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/internal/utils"
)

// ChangeRequestHandler exposes the grade change approval workflow.
type ChangeRequestHandler struct {
	service service.ChangeRequestService
	logger  zerolog.Logger
}

// NewChangeRequestHandler constructs the handler.
func NewChangeRequestHandler(service service.ChangeRequestService, logger zerolog.Logger) *ChangeRequestHandler {
	return &ChangeRequestHandler{
		service: service,
		logger:  logger.With().Str("component", "change_request_handler").Logger(),
	}
}

// Register attaches routes below /change-requests. writeGuard runs before submissions.
func (h *ChangeRequestHandler) Register(router fiber.Router, writeGuard ...fiber.Handler) {
	router.Post("", withGuards(writeGuard, h.submit)...)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id/:action", h.resolve)
}

func (h *ChangeRequestHandler) submit(c *fiber.Ctx) error {
	var payload dto.ChangeRequestCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	request, err := h.service.Submit(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "change request submitted", request)
}

func (h *ChangeRequestHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pagination parameters")
	}
	if pageSize > 100 {
		pageSize = 100
	}

	response, err := h.service.ListByStatus(c.UserContext(), actorFromContext(c), dto.ChangeRequestListRequest{
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "change requests", response)
}

func (h *ChangeRequestHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid change request id")
	}

	request, err := h.service.Get(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "change request", request)
}

func (h *ChangeRequestHandler) resolve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid change request id")
	}

	var payload dto.ChangeRequestResolveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	action := c.Params("action")
	request, err := h.service.Resolve(c.UserContext(), actorFromContext(c), id, action, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	requestLogger(c, h.logger).Info().Uint("change_request_id", id).Str("action", action).Msg("change request resolved")
	return utils.SendSuccess(c, "change request "+request.Status, request)
}
