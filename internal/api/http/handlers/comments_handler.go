package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// CommentsHandler manages comment endpoints.
type CommentsHandler struct {
	service *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService) *CommentsHandler {
	return &CommentsHandler{service: commentService}
}

// Add POST /issues/:id/comments.
func (h *CommentsHandler) Add(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.service.Add(c.Context(), actor, c.Params("id"), req.Text, req.ParentCommentID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": mutationResponse(result)})
}

// List GET /issues/:id/comments?page=&limit=.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), 10)

	result, err := h.service.List(c.Context(), c.Params("id"), page, limit)
	if err != nil {
		return err
	}

	comments := make([]dto.CommentResponse, 0, len(result.Comments))
	for i := range result.Comments {
		comments = append(comments, dto.NewCommentResponse(&result.Comments[i]))
	}
	return c.JSON(fiber.Map{"data": dto.CommentPageResponse{
		Comments:   comments,
		Total:      result.Total,
		Page:       result.Page,
		TotalPages: result.TotalPages,
	}})
}

// Delete DELETE /comments/:id.
func (h *CommentsHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	result, err := h.service.Delete(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mutationResponse(result)})
}

// ToggleLike POST /comments/:id/like.
func (h *CommentsHandler) ToggleLike(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	likes, err := h.service.ToggleLike(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"likes": likes}})
}

func mutationResponse(result *service.CommentMutationResult) dto.CommentMutationResponse {
	resp := dto.CommentMutationResponse{
		CommentsCount: result.CommentsCount,
	}
	if result.Comment != nil {
		comment := dto.NewCommentResponse(result.Comment)
		resp.Comment = &comment
	}
	resp.LatestComment = commentSummaryResponse(result.LatestComment)
	return resp
}

func commentSummaryResponse(summary *domain.CommentSummary) *dto.CommentSummaryResponse {
	if summary == nil {
		return nil
	}
	return &dto.CommentSummaryResponse{
		Text:      summary.Text,
		UserID:    summary.UserID,
		UserName:  summary.UserName,
		CreatedAt: summary.CreatedAt,
	}
}

func parsePositiveInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
