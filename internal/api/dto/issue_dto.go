package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// CreateIssueRequest captures the multipart form fields of a new report;
// images arrive as file parts alongside.
type CreateIssueRequest struct {
	Title       string   `json:"title" form:"title" validate:"required"`
	IssueType   string   `json:"issueType" form:"issueType" validate:"required"`
	Priority    string   `json:"priority" form:"priority"`
	Address     string   `json:"address" form:"address" validate:"required"`
	PostalCode  string   `json:"postalCode" form:"postalCode"`
	Landmark    string   `json:"landmark" form:"landmark"`
	Description string   `json:"description" form:"description" validate:"required"`
	Latitude    *float64 `json:"latitude" form:"latitude"`
	Longitude   *float64 `json:"longitude" form:"longitude"`
}

// VoteRequest payload.
type VoteRequest struct {
	VoteType string `json:"voteType" validate:"required,oneof=up down"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CommentSummaryResponse is the denormalized latest-comment snapshot.
type CommentSummaryResponse struct {
	Text      string    `json:"text"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IssueResponse is the full issue shape.
type IssueResponse struct {
	ID            string                  `json:"id"`
	Title         string                  `json:"title"`
	IssueType     string                  `json:"issueType"`
	Priority      domain.IssuePriority    `json:"priority"`
	Address       string                  `json:"address"`
	PostalCode    string                  `json:"postalCode"`
	Landmark      string                  `json:"landmark,omitempty"`
	Description   string                  `json:"description"`
	ImageURLs     []string                `json:"imageUrls"`
	ReportedBy    string                  `json:"reportedBy"`
	ReporterName  string                  `json:"reporterName,omitempty"`
	Latitude      *float64                `json:"latitude"`
	Longitude     *float64                `json:"longitude"`
	Status        domain.IssueStatus      `json:"status"`
	ResolvedAt    *time.Time              `json:"resolvedAt"`
	CreatedAt     time.Time               `json:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
	CommentsCount int                     `json:"commentsCount"`
	LatestComment *CommentSummaryResponse `json:"latestComment"`
	Upvotes       []string                `json:"upvotes"`
	Downvotes     []string                `json:"downvotes"`
}

// IssueFeedResponse partitions issues by the viewer's area.
type IssueFeedResponse struct {
	Own    []IssueResponse `json:"myAreaIssues"`
	Others []IssueResponse `json:"otherAreaIssues"`
}

// NewIssueResponse maps a domain issue.
func NewIssueResponse(issue *domain.Issue) IssueResponse {
	resp := IssueResponse{
		ID:            issue.ID,
		Title:         issue.Title,
		IssueType:     issue.IssueType,
		Priority:      issue.Priority,
		Address:       issue.Address,
		PostalCode:    issue.PostalCode,
		Landmark:      issue.Landmark,
		Description:   issue.Description,
		ImageURLs:     issue.ImageURLs,
		ReportedBy:    issue.ReportedBy,
		ReporterName:  issue.ReporterName,
		Latitude:      issue.Latitude,
		Longitude:     issue.Longitude,
		Status:        issue.Status,
		ResolvedAt:    issue.ResolvedAt,
		CreatedAt:     issue.CreatedAt,
		UpdatedAt:     issue.UpdatedAt,
		CommentsCount: issue.CommentsCount,
		Upvotes:       issue.Upvotes,
		Downvotes:     issue.Downvotes,
	}
	if resp.ImageURLs == nil {
		resp.ImageURLs = []string{}
	}
	if resp.Upvotes == nil {
		resp.Upvotes = []string{}
	}
	if resp.Downvotes == nil {
		resp.Downvotes = []string{}
	}
	if issue.LatestComment != nil {
		resp.LatestComment = &CommentSummaryResponse{
			Text:      issue.LatestComment.Text,
			UserID:    issue.LatestComment.UserID,
			UserName:  issue.LatestComment.UserName,
			CreatedAt: issue.LatestComment.CreatedAt,
		}
	}
	return resp
}

// NewIssueResponses maps a slice of issues.
func NewIssueResponses(issues []domain.Issue) []IssueResponse {
	out := make([]IssueResponse, 0, len(issues))
	for i := range issues {
		out = append(out, NewIssueResponse(&issues[i]))
	}
	return out
}
