package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/internal/utils"
)

// SummaryHandler serves computed grade summaries of a student.
type SummaryHandler struct {
	service service.SummaryService
	logger  zerolog.Logger
}

// NewSummaryHandler constructs the handler.
func NewSummaryHandler(service service.SummaryService, logger zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{
		service: service,
		logger:  logger.With().Str("component", "summary_handler").Logger(),
	}
}

// Register attaches routes below /students.
func (h *SummaryHandler) Register(router fiber.Router) {
	router.Get("/:id/subjects/:subjectId/summary", h.subjectSummary)
	router.Get("/:id/average", h.average)
	router.Get("/:id/report", h.report)
}

func (h *SummaryHandler) subjectSummary(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}
	subjectID, err := parseUintParam(c, "subjectId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}

	summary, err := h.service.SubjectSummary(c.UserContext(), actorFromContext(c), studentID, subjectID)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	if summary.CacheHit {
		c.Set("X-Cache", "HIT")
	} else {
		c.Set("X-Cache", "MISS")
	}
	return utils.SendSuccess(c, "subject summary", summary)
}

func (h *SummaryHandler) average(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	average, err := h.service.OverallAverage(c.UserContext(), actorFromContext(c), studentID)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "overall average", average)
}

func (h *SummaryHandler) report(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	report, err := h.service.StudentReport(c.UserContext(), actorFromContext(c), studentID)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "student report", report)
}
