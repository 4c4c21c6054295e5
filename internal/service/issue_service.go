package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/authz"
	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/geocode"
	"github.com/spec-kit/civic-issue-service/internal/postal"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/storage"
	"github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// IssueService coordinates the issue lifecycle: reporting, visibility-scoped
// listing, voting, status transitions and deletion.
type IssueService struct {
	issues     repository.IssueRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	images     storage.ImageStore
	geocoder   geocode.Geocoder
	storageCfg config.StorageConfig
	logger     *zap.Logger
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo  repository.IssueRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	ImageStore storage.ImageStore
	Geocoder   geocode.Geocoder
	StorageCfg config.StorageConfig
	Logger     *zap.Logger
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	return &IssueService{
		issues:     deps.IssueRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		images:     deps.ImageStore,
		geocoder:   deps.Geocoder,
		storageCfg: deps.StorageCfg,
		logger:     deps.Logger,
	}
}

// IssueCreateInput describes a new report.
type IssueCreateInput struct {
	Title       string
	IssueType   string
	Priority    string
	Address     string
	PostalCode  string
	Landmark    string
	Description string
	Latitude    *float64
	Longitude   *float64
}

// ImageUpload carries one uploaded image stream.
type ImageUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// IssueFeed is the visibility-partitioned listing for an authenticated actor.
type IssueFeed struct {
	Own    []domain.Issue
	Others []domain.Issue
}

// Report files a new issue for the actor. The issue's postal code is
// normalized before storage so later equality checks and aggregation need no
// re-cleaning: an explicit code wins, then extraction from the address, then
// the reporter's own code.
func (s *IssueService) Report(ctx context.Context, actor *domain.User, input IssueCreateInput, uploads []ImageUpload) (*domain.Issue, error) {
	if actor == nil {
		return nil, errorutil.NewUnauthorized("authentication required")
	}

	details := map[string]any{}
	if strings.TrimSpace(input.Title) == "" {
		details["title"] = "required"
	}
	if strings.TrimSpace(input.IssueType) == "" {
		details["issueType"] = "required"
	}
	if strings.TrimSpace(input.Address) == "" {
		details["address"] = "required"
	}
	if strings.TrimSpace(input.Description) == "" {
		details["description"] = "required"
	}
	if len(details) > 0 {
		return nil, errorutil.NewValidationError("missing required fields", details)
	}

	priority, err := domain.ParsePriority(input.Priority)
	if err != nil {
		return nil, errorutil.NewValidationError(err.Error(), map[string]any{"priority": input.Priority})
	}

	postalCode := postal.Normalize(input.PostalCode)
	if postalCode == "" {
		postalCode = postal.Normalize(postal.ExtractPostalCode(input.Address))
	}
	if postalCode == "" {
		postalCode = postal.Normalize(actor.PostalCode)
	}

	imageURLs, err := s.uploadImages(ctx, uploads)
	if err != nil {
		return nil, err
	}

	lat, lng := input.Latitude, input.Longitude
	if lat == nil && lng == nil && s.geocoder != nil {
		// Best effort: a geocoder outage must not block reporting.
		gLat, gLng, gErr := s.geocoder.Forward(ctx, input.Address)
		if gErr != nil {
			s.logger.Warn("forward geocode failed", zap.Error(gErr))
		} else {
			lat, lng = gLat, gLng
		}
	}

	issue := &domain.Issue{
		Title:       strings.TrimSpace(input.Title),
		IssueType:   strings.TrimSpace(input.IssueType),
		Priority:    priority,
		Address:     strings.TrimSpace(input.Address),
		PostalCode:  postalCode,
		Landmark:    strings.TrimSpace(input.Landmark),
		Description: strings.TrimSpace(input.Description),
		ImageURLs:   imageURLs,
		ReportedBy:  actor.ID,
		Latitude:    lat,
		Longitude:   lng,
		Status:      domain.StatusReported,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, errorutil.MapError(err)
	}
	issue.ReporterName = actor.Name
	issue.ReporterUsername = actor.Username
	issue.ReporterPostal = actor.PostalCode

	s.publish(ctx, events.NewEvent(events.EventIssueReported, issue.ID, actor.ID, events.IssueReportedPayload{
		Title:      issue.Title,
		PostalCode: issue.PostalCode,
	}))
	return issue, nil
}

// ListForActor returns the actor's feed split into own-area and other-area
// issues. The split is identical for every role; only what the actor may do
// with an issue differs.
func (s *IssueService) ListForActor(ctx context.Context, actor *domain.User) (*IssueFeed, error) {
	if actor == nil {
		return nil, errorutil.NewUnauthorized("authentication required")
	}
	scope := authz.IssueScopeFor(actor)

	if scope.All {
		own, err := s.issues.List(ctx, repository.IssueFilter{})
		if err != nil {
			return nil, errorutil.MapError(err)
		}
		return &IssueFeed{Own: own, Others: []domain.Issue{}}, nil
	}

	if scope.PostalCode == "" {
		others, err := s.issues.List(ctx, repository.IssueFilter{})
		if err != nil {
			return nil, errorutil.MapError(err)
		}
		return &IssueFeed{Own: []domain.Issue{}, Others: others}, nil
	}

	own, err := s.issues.List(ctx, repository.IssueFilter{PostalCode: &scope.PostalCode})
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	others, err := s.issues.List(ctx, repository.IssueFilter{ExcludePostalCode: &scope.PostalCode})
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return &IssueFeed{Own: own, Others: others}, nil
}

// ListPublic returns every issue without an authenticated viewer.
func (s *IssueService) ListPublic(ctx context.Context) ([]domain.Issue, error) {
	issues, err := s.issues.List(ctx, repository.IssueFilter{})
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return issues, nil
}

// Get fetches one issue by id.
func (s *IssueService) Get(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return issue, nil
}

// ToggleVote flips the actor's vote on an issue. Voting is open to any
// authenticated, unblocked user regardless of postal code.
func (s *IssueService) ToggleVote(ctx context.Context, actor *domain.User, issueID, rawDirection string) (*domain.Issue, error) {
	if actor == nil {
		return nil, errorutil.NewUnauthorized("authentication required")
	}
	dir, err := domain.ParseVoteDirection(rawDirection)
	if err != nil {
		return nil, errorutil.NewValidationError(err.Error(), map[string]any{"voteType": rawDirection})
	}
	issue, err := s.issues.ToggleVote(ctx, issueID, actor.ID, dir)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return issue, nil
}

// UpdateStatus transitions an issue. ResolvedAt is stamped exactly when the
// new status is terminal and cleared when the issue is reopened.
func (s *IssueService) UpdateStatus(ctx context.Context, actor *domain.User, issueID, rawStatus string) (*domain.Issue, error) {
	if actor == nil {
		return nil, errorutil.NewUnauthorized("authentication required")
	}
	status, err := domain.ParseIssueStatus(rawStatus)
	if err != nil {
		return nil, errorutil.NewValidationError(err.Error(), map[string]any{"status": rawStatus})
	}

	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	if !authz.CanMutateIssue(actor, issue) {
		return nil, errorutil.NewForbidden("not allowed to update issues outside your area")
	}

	oldStatus := issue.Status
	var resolvedAt *time.Time
	if status.Terminal() {
		now := time.Now().UTC()
		resolvedAt = &now
	}

	updated, err := s.issues.UpdateStatus(ctx, issueID, status, resolvedAt)
	if err != nil {
		return nil, errorutil.MapError(err)
	}

	payload := events.IssueStatusChangedPayload{
		Title:     updated.Title,
		OldStatus: string(oldStatus),
		NewStatus: string(status),
	}
	if reporter, rErr := s.users.GetByID(ctx, updated.ReportedBy); rErr == nil {
		payload.ReporterEmail = reporter.Email
		payload.ReporterName = reporter.Name
	}
	s.publish(ctx, events.NewEvent(events.EventIssueStatusChanged, updated.ID, actor.ID, payload))
	return updated, nil
}

// Delete removes an issue and all of its comments.
func (s *IssueService) Delete(ctx context.Context, actor *domain.User, issueID string) error {
	if actor == nil {
		return errorutil.NewUnauthorized("authentication required")
	}
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return errorutil.MapError(err)
	}
	if !authz.CanMutateIssue(actor, issue) {
		return errorutil.NewForbidden("not allowed to delete issues outside your area")
	}
	if err := s.issues.Delete(ctx, issueID); err != nil {
		return errorutil.MapError(err)
	}
	s.publish(ctx, events.NewEvent(events.EventIssueDeleted, issueID, actor.ID, nil))
	return nil
}

func (s *IssueService) uploadImages(ctx context.Context, uploads []ImageUpload) ([]string, error) {
	if len(uploads) == 0 {
		return []string{}, nil
	}
	maxImages := s.storageCfg.MaxImagesPerIssue
	if maxImages > 0 && len(uploads) > maxImages {
		return nil, errorutil.NewValidationError(
			fmt.Sprintf("at most %d images per issue", maxImages),
			map[string]any{"images": len(uploads)},
		)
	}
	if s.images == nil {
		return nil, errorutil.NewValidationError("image uploads are not enabled", nil)
	}

	urls := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		if s.storageCfg.MaxImageBytes > 0 && upload.Size > s.storageCfg.MaxImageBytes {
			return nil, errorutil.NewValidationError(
				fmt.Sprintf("image %s exceeds the %d byte limit", upload.FileName, s.storageCfg.MaxImageBytes),
				map[string]any{"fileName": upload.FileName, "size": upload.Size},
			)
		}
		objectName := uuid.NewString() + sanitizeExt(upload.FileName)

		uploadCtx, cancel := context.WithTimeout(ctx, s.storageCfg.UploadTimeout())
		url, err := s.images.Upload(uploadCtx, objectName, upload.Reader, upload.Size, upload.ContentType)
		cancel()
		if err != nil {
			return nil, errorutil.NewInternalError(err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func sanitizeExt(fileName string) string {
	idx := strings.LastIndex(fileName, ".")
	if idx < 0 {
		return ""
	}
	ext := strings.ToLower(fileName[idx:])
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

func (s *IssueService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
