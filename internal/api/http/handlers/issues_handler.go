package handlers

import (
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// IssuesHandler manages the issue endpoints.
type IssuesHandler struct {
	service *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{service: issueService}
}

// Report POST /issues. Accepts multipart form data with optional image parts
// under the "images" field.
func (h *IssuesHandler) Report(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	input := service.IssueCreateInput{
		Title:       c.FormValue("title"),
		IssueType:   c.FormValue("issueType"),
		Priority:    c.FormValue("priority"),
		Address:     c.FormValue("address"),
		PostalCode:  c.FormValue("postalCode"),
		Landmark:    c.FormValue("landmark"),
		Description: c.FormValue("description"),
	}
	if lat := parseFloat(c.FormValue("latitude")); lat != nil {
		input.Latitude = lat
	}
	if lng := parseFloat(c.FormValue("longitude")); lng != nil {
		input.Longitude = lng
	}

	uploads, closeFiles, err := collectUploads(c)
	if err != nil {
		return err
	}
	defer closeFiles()

	issue, err := h.service.Report(c.Context(), actor, input, uploads)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// ListFeed GET /issues. Returns the viewer's own-area and other-area issues.
func (h *IssuesHandler) ListFeed(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	feed, err := h.service.ListForActor(c.Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueFeedResponse{
		Own:    dto.NewIssueResponses(feed.Own),
		Others: dto.NewIssueResponses(feed.Others),
	}})
}

// ListPublic GET /issues/public. No authentication; every issue is visible.
func (h *IssuesHandler) ListPublic(c *fiber.Ctx) error {
	issues, err := h.service.ListPublic(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponses(issues)})
}

// Get GET /issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	issue, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// Vote POST /issues/:id/vote.
func (h *IssuesHandler) Vote(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.VoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	issue, err := h.service.ToggleVote(c.Context(), actor, c.Params("id"), req.VoteType)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// UpdateStatus PATCH /issues/:id/status.
func (h *IssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	issue, err := h.service.UpdateStatus(c.Context(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// Delete DELETE /issues/:id.
func (h *IssuesHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

func collectUploads(c *fiber.Ctx) ([]service.ImageUpload, func(), error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		// JSON bodies have no images; that is fine.
		return nil, func() {}, nil
	}

	files := form.File["images"]
	uploads := make([]service.ImageUpload, 0, len(files))
	opened := make([]multipart.File, 0, len(files))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, apperrors.NewValidationError("unreadable image upload", map[string]any{"fileName": header.Filename})
		}
		opened = append(opened, file)
		uploads = append(uploads, service.ImageUpload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Reader:      file,
		})
	}
	return uploads, closeAll, nil
}

func parseFloat(val string) *float64 {
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
