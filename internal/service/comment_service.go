package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/civic-issue-service/internal/authz"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// CommentService manages the comment thread of an issue and keeps the
// issue's denormalized comment summary consistent with it.
type CommentService struct {
	comments   repository.CommentRepository
	issues     repository.IssueRepository
	dispatcher events.Dispatcher
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	CommentRepo repository.CommentRepository
	IssueRepo   repository.IssueRepository
	Dispatcher  events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		comments:   deps.CommentRepo,
		issues:     deps.IssueRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CommentPage is one page of an issue's thread, newest first.
type CommentPage struct {
	Comments   []domain.Comment
	Total      int
	Page       int
	TotalPages int
}

// CommentMutationResult reports the issue's comment summary after an add or
// delete, re-derived from the stored comments rather than adjusted by delta.
type CommentMutationResult struct {
	Comment       *domain.Comment
	CommentsCount int
	LatestComment *domain.CommentSummary
}

// Add appends a comment to an issue and refreshes the issue's summary.
func (s *CommentService) Add(ctx context.Context, actor *domain.User, issueID, text string, parentCommentID *string) (*CommentMutationResult, error) {
	if actor == nil {
		return nil, errorutil.NewUnauthorized("authentication required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errorutil.NewValidationError("comment text is required", map[string]any{"text": "required"})
	}
	// The limit counts characters, not bytes, so multibyte text is not
	// penalized.
	if length := utf8.RuneCountInString(text); length > domain.MaxCommentLength {
		return nil, errorutil.NewValidationError(
			fmt.Sprintf("comment text exceeds %d characters", domain.MaxCommentLength),
			map[string]any{"length": length},
		)
	}

	if _, err := s.issues.GetByID(ctx, issueID); err != nil {
		return nil, errorutil.MapError(err)
	}
	if parentCommentID != nil {
		parent, err := s.comments.GetByID(ctx, *parentCommentID)
		if err != nil {
			return nil, errorutil.MapError(err)
		}
		if parent.IssueID != issueID {
			return nil, errorutil.NewValidationError("parent comment belongs to a different issue", nil)
		}
	}

	comment := &domain.Comment{
		IssueID:         issueID,
		UserID:          actor.ID,
		Text:            text,
		ParentCommentID: parentCommentID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, errorutil.MapError(err)
	}
	comment.AuthorName = actor.Name
	comment.AuthorEmail = actor.Email

	result, err := s.refreshSummary(ctx, issueID)
	if err != nil {
		return nil, err
	}
	result.Comment = comment

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.NewEvent(events.EventCommentAdded, issueID, actor.ID, events.CommentAddedPayload{
			CommentID: comment.ID,
			Text:      comment.Text,
		}))
	}
	return result, nil
}

// List returns one page of an issue's thread, newest first.
func (s *CommentService) List(ctx context.Context, issueID string, page, limit int) (*CommentPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	if _, err := s.issues.GetByID(ctx, issueID); err != nil {
		return nil, errorutil.MapError(err)
	}

	total, err := s.comments.CountByIssue(ctx, issueID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	comments, err := s.comments.ListByIssue(ctx, issueID, limit, (page-1)*limit)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	if comments == nil {
		comments = []domain.Comment{}
	}

	totalPages := (total + limit - 1) / limit
	return &CommentPage{
		Comments:   comments,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

// Delete removes a comment. Authors may delete their own comments; any admin
// may delete anyone's, in any postal code.
func (s *CommentService) Delete(ctx context.Context, actor *domain.User, commentID string) (*CommentMutationResult, error) {
	if actor == nil {
		return nil, errorutil.NewUnauthorized("authentication required")
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	if !authz.CanDeleteComment(actor, comment) {
		return nil, errorutil.NewForbidden("not allowed to delete this comment")
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return nil, errorutil.MapError(err)
	}
	return s.refreshSummary(ctx, comment.IssueID)
}

// ToggleLike flips the actor's like on a comment and returns the new count.
func (s *CommentService) ToggleLike(ctx context.Context, actor *domain.User, commentID string) (int, error) {
	if actor == nil {
		return 0, errorutil.NewUnauthorized("authentication required")
	}
	count, err := s.comments.ToggleLike(ctx, commentID, actor.ID)
	if err != nil {
		return 0, errorutil.MapError(err)
	}
	return count, nil
}

func (s *CommentService) refreshSummary(ctx context.Context, issueID string) (*CommentMutationResult, error) {
	if err := s.issues.RefreshCommentSummary(ctx, issueID); err != nil {
		return nil, errorutil.MapError(err)
	}
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return &CommentMutationResult{
		CommentsCount: issue.CommentsCount,
		LatestComment: issue.LatestComment,
	}, nil
}
