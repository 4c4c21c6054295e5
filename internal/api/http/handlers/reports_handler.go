package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// ReportsHandler exposes the admin dashboard aggregates.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// Get GET /admin/reports?range=week|month|quarter|year.
func (h *ReportsHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	rangeKey := c.Query("range", "month")
	report, err := h.service.Generate(c.Context(), actor, rangeKey)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}
