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

// GradeHandler records and lists grade entries and manages enrollments.
type GradeHandler struct {
	service service.GradeService
	logger  zerolog.Logger
}

// NewGradeHandler constructs the handler.
func NewGradeHandler(service service.GradeService, logger zerolog.Logger) *GradeHandler {
	return &GradeHandler{
		service: service,
		logger:  logger.With().Str("component", "grade_handler").Logger(),
	}
}

// RegisterGrades attaches routes below /grades. writeGuard runs before the record endpoint.
func (h *GradeHandler) RegisterGrades(router fiber.Router, writeGuard ...fiber.Handler) {
	router.Get("", h.list)
	router.Post("", withGuards(writeGuard, h.record)...)
}

// RegisterEnrollments attaches routes below /enrollments.
func (h *GradeHandler) RegisterEnrollments(router fiber.Router) {
	router.Post("", h.enroll)
}

func (h *GradeHandler) record(c *fiber.Ctx) error {
	var payload dto.RecordGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	grade, err := h.service.RecordGrade(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "grade recorded", grade)
}

func (h *GradeHandler) list(c *fiber.Ctx) error {
	studentID, err := parseQueryUint(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}
	subjectID, err := parseQueryUint(c, "subject_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}

	req := dto.GradeListRequest{
		StudentID:     studentID,
		SubjectID:     subjectID,
		Unit:          strings.TrimSpace(c.Query("unit")),
		ComponentType: strings.ToLower(strings.TrimSpace(c.Query("component_type"))),
	}
	if req.Unit != "" && !models.IsValidUnit(req.Unit) {
		return utils.SendError(c, fiber.StatusBadRequest, "unknown unit")
	}
	if req.ComponentType != "" && req.ComponentType != models.ComponentZone && req.ComponentType != models.ComponentPartial {
		return utils.SendError(c, fiber.StatusBadRequest, "unknown component type")
	}

	grades, err := h.service.List(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "grades", grades)
}

func (h *GradeHandler) enroll(c *fiber.Ctx) error {
	var payload dto.EnrollRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	enrollment, err := h.service.Enroll(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student enrolled", enrollment)
}
