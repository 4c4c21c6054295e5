package service

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/civic-issue-service/internal/authz"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/postal"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// ReportService produces the admin dashboard aggregates. All numbers are
// computed inside the actor's jurisdiction: everything for global admins,
// the admin's normalized postal code otherwise.
type ReportService struct {
	issues repository.IssueRepository
	users  repository.UserRepository
	now    func() time.Time
}

// NewReportService constructs the service.
func NewReportService(issues repository.IssueRepository, users repository.UserRepository) *ReportService {
	return &ReportService{issues: issues, users: users, now: time.Now}
}

// activeSessionWindow defines how recent last_active must be for an account
// to count as an active session.
const activeSessionWindow = 10 * time.Minute

// Report is the aggregated dashboard payload.
type Report struct {
	Range          string                       `json:"range"`
	TotalIssues    int                          `json:"totalIssues"`
	ResolvedIssues int                          `json:"resolvedIssues"`
	PendingIssues  int                          `json:"pendingIssues"`
	TotalUsers     int                          `json:"totalUsers"`
	NewUsers       int                          `json:"newUsers"`
	ActiveSessions int                          `json:"activeSessions"`
	ResolutionRate float64                      `json:"resolutionRate"`
	AvgResolution  string                       `json:"avgResolutionTime"`
	Satisfaction   string                       `json:"satisfaction"`
	TypeCounts     map[string]int               `json:"typeCounts"`
	StatusCounts   map[domain.IssueStatus]int   `json:"statusCounts"`
	PriorityCounts map[domain.IssuePriority]int `json:"priorityCounts"`
	Trends         ReportTrends                 `json:"complaintTrends"`
	UserGrowth     []TrendPoint                 `json:"userGrowth"`
}

// ReportTrends carries the issue-volume series at three granularities.
type ReportTrends struct {
	Daily   []TrendPoint `json:"daily"`
	Weekly  []TrendPoint `json:"weekly"`
	Monthly []TrendPoint `json:"monthly"`
}

// Generate builds the dashboard for the actor's jurisdiction over the given
// range keyword (week, month, quarter or year).
func (s *ReportService) Generate(ctx context.Context, actor *domain.User, rangeKey string) (*Report, error) {
	if !authz.CanViewReports(actor) {
		return nil, errorutil.NewForbidden("not allowed to view reports")
	}

	var postalCode *string
	if actor.Role != domain.RoleGlobalAdmin {
		code := postal.Normalize(actor.PostalCode)
		postalCode = &code
	}

	now := s.now()
	since := rangeStart(now, rangeKey)

	totalIssues, err := s.issues.Count(ctx, postalCode)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	resolved, err := s.issues.CountByStatus(ctx, postalCode, domain.StatusResolved)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	pending, err := s.issues.CountNotStatus(ctx, postalCode, domain.StatusResolved)
	if err != nil {
		return nil, errorutil.MapError(err)
	}

	typeCounts, err := s.issues.TypeCounts(ctx, postalCode, since)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	statusCounts, err := s.issues.StatusCounts(ctx, postalCode, since)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	priorityCounts, err := s.issues.PriorityCounts(ctx, postalCode, since)
	if err != nil {
		return nil, errorutil.MapError(err)
	}

	totalUsers, err := s.users.Count(ctx, postalCode)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	newUsers, err := s.users.CountSince(ctx, postalCode, since)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	activeSessions, err := s.users.CountActiveSince(ctx, postalCode, now.Add(-activeSessionWindow))
	if err != nil {
		return nil, errorutil.MapError(err)
	}

	// One issue fetch covers all three trend granularities; the monthly
	// series reaches back the furthest.
	trendSince := now.AddDate(0, -3, 0)
	trendIssues, err := s.issues.List(ctx, repository.IssueFilter{PostalCode: postalCode, Since: &trendSince})
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	issueTimes := make([]time.Time, 0, len(trendIssues))
	for _, issue := range trendIssues {
		issueTimes = append(issueTimes, issue.CreatedAt)
	}

	memberTimes, err := s.users.MemberSinceTimes(ctx, postalCode, now.AddDate(-1, 0, 0))
	if err != nil {
		return nil, errorutil.MapError(err)
	}

	upvotes, downvotes, err := s.issues.VoteTotals(ctx, postalCode)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	durations, err := s.issues.ResolutionDurations(ctx, postalCode)
	if err != nil {
		return nil, errorutil.MapError(err)
	}

	return &Report{
		Range:          rangeKey,
		TotalIssues:    totalIssues,
		ResolvedIssues: resolved,
		PendingIssues:  pending,
		TotalUsers:     totalUsers,
		NewUsers:       newUsers,
		ActiveSessions: activeSessions,
		ResolutionRate: resolutionRate(resolved, totalIssues),
		AvgResolution:  avgResolutionLabel(durations),
		Satisfaction:   satisfactionLabel(upvotes, downvotes),
		TypeCounts:     typeCounts,
		StatusCounts:   statusCounts,
		PriorityCounts: priorityCounts,
		Trends: ReportTrends{
			Daily:   dailyBuckets(issueTimes, now, 7),
			Weekly:  weeklyBuckets(issueTimes, now, 4),
			Monthly: monthlyBuckets(issueTimes, now, 3),
		},
		UserGrowth: growthBuckets(memberTimes, now, rangeKey),
	}, nil
}

// resolutionRate is the resolved share in percent; zero issues yields zero
// rather than a division error.
func resolutionRate(resolved, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(resolved) / float64(total) * 100
}

// avgResolutionLabel renders the mean created-to-resolved span in hours, or
// "N/A" when nothing has been resolved yet.
func avgResolutionLabel(durations []time.Duration) string {
	if len(durations) == 0 {
		return "N/A"
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	hours := (total / time.Duration(len(durations))).Hours()
	return fmt.Sprintf("%.1f hours", hours)
}

// satisfactionLabel scales the upvote share to a 5-point score.
func satisfactionLabel(upvotes, downvotes int) string {
	total := upvotes + downvotes
	if total == 0 {
		return "0.0/5"
	}
	score := float64(upvotes) / float64(total) * 5
	return fmt.Sprintf("%.1f/5", score)
}
