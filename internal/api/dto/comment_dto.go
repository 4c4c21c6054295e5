package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Text            string  `json:"text" validate:"required,max=2000"`
	ParentCommentID *string `json:"parentCommentId"`
}

// CommentResponse is one thread entry.
type CommentResponse struct {
	ID              string    `json:"id"`
	IssueID         string    `json:"issueId"`
	UserID          string    `json:"userId"`
	AuthorName      string    `json:"authorName,omitempty"`
	Text            string    `json:"text"`
	ParentCommentID *string   `json:"parentCommentId"`
	Likes           []string  `json:"likes"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CommentPageResponse is one page of a thread, newest first.
type CommentPageResponse struct {
	Comments   []CommentResponse `json:"comments"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
}

// CommentMutationResponse reports the issue summary after an add or delete.
type CommentMutationResponse struct {
	Comment       *CommentResponse        `json:"comment,omitempty"`
	CommentsCount int                     `json:"commentsCount"`
	LatestComment *CommentSummaryResponse `json:"latestComment"`
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	resp := CommentResponse{
		ID:              comment.ID,
		IssueID:         comment.IssueID,
		UserID:          comment.UserID,
		AuthorName:      comment.AuthorName,
		Text:            comment.Text,
		ParentCommentID: comment.ParentCommentID,
		Likes:           comment.Likes,
		CreatedAt:       comment.CreatedAt,
	}
	if resp.Likes == nil {
		resp.Likes = []string{}
	}
	return resp
}
