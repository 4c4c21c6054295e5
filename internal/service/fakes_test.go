package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/postal"
	"github.com/spec-kit/civic-issue-service/internal/repository"
)

// memStore backs the in-memory repository fakes so issue, comment and user
// state stay consistent across the repos a service touches.
type memStore struct {
	mu       sync.Mutex
	users    map[string]domain.User
	issues   map[string]domain.Issue
	comments map[string]domain.Comment
	seq      int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]domain.User{},
		issues:   map[string]domain.Issue{},
		comments: map[string]domain.Comment{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func matchesPostal(postalCode *string, candidate string) bool {
	return postalCode == nil || *postalCode == candidate
}

type fakeUserRepo struct {
	store *memStore
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user.ID = r.store.nextID("user")
	user.MemberSince = time.Now()
	user.LastActive = user.MemberSince
	r.store.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.store.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.users, id)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.User
	for _, user := range r.store.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.PostalCode != nil && user.PostalCode != *filter.PostalCode {
			continue
		}
		if filter.Since != nil && user.MemberSince.Before(*filter.Since) {
			continue
		}
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberSince.After(out[j].MemberSince) })
	return out, nil
}

func (r *fakeUserRepo) TouchLastActive(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.LastActive = time.Now()
	r.store.users[id] = user
	return nil
}

func (r *fakeUserRepo) Count(_ context.Context, postalCode *string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, user := range r.store.users {
		if matchesPostal(postalCode, user.PostalCode) {
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) CountSince(_ context.Context, postalCode *string, since time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, user := range r.store.users {
		if matchesPostal(postalCode, user.PostalCode) && !user.MemberSince.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) MemberSinceTimes(_ context.Context, postalCode *string, since time.Time) ([]time.Time, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var times []time.Time
	for _, user := range r.store.users {
		if matchesPostal(postalCode, user.PostalCode) && !user.MemberSince.Before(since) {
			times = append(times, user.MemberSince)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times, nil
}

func (r *fakeUserRepo) CountActiveSince(_ context.Context, postalCode *string, since time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, user := range r.store.users {
		if matchesPostal(postalCode, user.PostalCode) && !user.LastActive.Before(since) {
			count++
		}
	}
	return count, nil
}

type fakeIssueRepo struct {
	store *memStore
}

func (r *fakeIssueRepo) Create(_ context.Context, issue *domain.Issue) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	issue.ID = r.store.nextID("issue")
	now := time.Now()
	issue.CreatedAt = now
	issue.UpdatedAt = now
	r.store.issues[issue.ID] = *issue
	return nil
}

func (r *fakeIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.getLocked(id)
}

func (r *fakeIssueRepo) getLocked(id string) (*domain.Issue, error) {
	issue, ok := r.store.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if reporter, ok := r.store.users[issue.ReportedBy]; ok {
		issue.ReporterName = reporter.Name
		issue.ReporterUsername = reporter.Username
		issue.ReporterPostal = reporter.PostalCode
	}
	return &issue, nil
}

func (r *fakeIssueRepo) List(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Issue
	for id := range r.store.issues {
		issue, _ := r.getLocked(id)
		if filter.PostalCode != nil && issue.PostalCode != *filter.PostalCode {
			continue
		}
		if filter.ExcludePostalCode != nil && issue.PostalCode == *filter.ExcludePostalCode {
			continue
		}
		if filter.Since != nil && issue.CreatedAt.Before(*filter.Since) {
			continue
		}
		out = append(out, *issue)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeIssueRepo) ToggleVote(ctx context.Context, issueID, userID string, dir domain.VoteDirection) (*domain.Issue, error) {
	r.store.mu.Lock()
	issue, ok := r.store.issues[issueID]
	if !ok {
		r.store.mu.Unlock()
		return nil, pgx.ErrNoRows
	}
	issue.Upvotes, issue.Downvotes = domain.ApplyVote(issue.Upvotes, issue.Downvotes, userID, dir)
	r.store.issues[issueID] = issue
	r.store.mu.Unlock()
	return r.GetByID(ctx, issueID)
}

func (r *fakeIssueRepo) UpdateStatus(ctx context.Context, issueID string, status domain.IssueStatus, resolvedAt *time.Time) (*domain.Issue, error) {
	r.store.mu.Lock()
	issue, ok := r.store.issues[issueID]
	if !ok {
		r.store.mu.Unlock()
		return nil, pgx.ErrNoRows
	}
	issue.Status = status
	issue.ResolvedAt = resolvedAt
	issue.UpdatedAt = time.Now()
	r.store.issues[issueID] = issue
	r.store.mu.Unlock()
	return r.GetByID(ctx, issueID)
}

func (r *fakeIssueRepo) Delete(_ context.Context, issueID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.issues[issueID]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.issues, issueID)
	for id, comment := range r.store.comments {
		if comment.IssueID == issueID {
			delete(r.store.comments, id)
		}
	}
	return nil
}

func (r *fakeIssueRepo) RefreshCommentSummary(_ context.Context, issueID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	issue, ok := r.store.issues[issueID]
	if !ok {
		return pgx.ErrNoRows
	}

	count := 0
	var latest *domain.Comment
	for id := range r.store.comments {
		comment := r.store.comments[id]
		if comment.IssueID != issueID {
			continue
		}
		count++
		if latest == nil || comment.CreatedAt.After(latest.CreatedAt) {
			c := comment
			latest = &c
		}
	}

	issue.CommentsCount = count
	if latest == nil {
		issue.LatestComment = nil
	} else {
		summary := &domain.CommentSummary{
			Text:      latest.Text,
			UserID:    latest.UserID,
			CreatedAt: latest.CreatedAt,
		}
		if author, ok := r.store.users[latest.UserID]; ok {
			summary.UserName = author.Name
		}
		issue.LatestComment = summary
	}
	r.store.issues[issueID] = issue
	return nil
}

func (r *fakeIssueRepo) Count(_ context.Context, postalCode *string) (int, error) {
	return r.countMatching(postalCode, func(domain.Issue) bool { return true })
}

func (r *fakeIssueRepo) CountByStatus(_ context.Context, postalCode *string, status domain.IssueStatus) (int, error) {
	return r.countMatching(postalCode, func(issue domain.Issue) bool { return issue.Status == status })
}

func (r *fakeIssueRepo) CountNotStatus(_ context.Context, postalCode *string, status domain.IssueStatus) (int, error) {
	return r.countMatching(postalCode, func(issue domain.Issue) bool { return issue.Status != status })
}

func (r *fakeIssueRepo) countMatching(postalCode *string, pred func(domain.Issue) bool) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, issue := range r.store.issues {
		if matchesPostal(postalCode, issue.PostalCode) && pred(issue) {
			count++
		}
	}
	return count, nil
}

func (r *fakeIssueRepo) TypeCounts(_ context.Context, postalCode *string, since time.Time) (map[string]int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	counts := map[string]int{}
	for _, issue := range r.store.issues {
		if matchesPostal(postalCode, issue.PostalCode) && !issue.CreatedAt.Before(since) {
			counts[issue.IssueType]++
		}
	}
	return counts, nil
}

func (r *fakeIssueRepo) StatusCounts(_ context.Context, postalCode *string, since time.Time) (map[domain.IssueStatus]int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	counts := map[domain.IssueStatus]int{}
	for _, issue := range r.store.issues {
		if matchesPostal(postalCode, issue.PostalCode) && !issue.CreatedAt.Before(since) {
			counts[issue.Status]++
		}
	}
	return counts, nil
}

func (r *fakeIssueRepo) PriorityCounts(_ context.Context, postalCode *string, since time.Time) (map[domain.IssuePriority]int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	counts := map[domain.IssuePriority]int{}
	for _, issue := range r.store.issues {
		if matchesPostal(postalCode, issue.PostalCode) && !issue.CreatedAt.Before(since) {
			counts[issue.Priority]++
		}
	}
	return counts, nil
}

func (r *fakeIssueRepo) VoteTotals(_ context.Context, postalCode *string) (int, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	up, down := 0, 0
	for _, issue := range r.store.issues {
		if matchesPostal(postalCode, issue.PostalCode) {
			up += len(issue.Upvotes)
			down += len(issue.Downvotes)
		}
	}
	return up, down, nil
}

func (r *fakeIssueRepo) ResolutionDurations(_ context.Context, postalCode *string) ([]time.Duration, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var durations []time.Duration
	for _, issue := range r.store.issues {
		if !matchesPostal(postalCode, issue.PostalCode) || issue.Status != domain.StatusResolved {
			continue
		}
		end := issue.UpdatedAt
		if issue.ResolvedAt != nil {
			end = *issue.ResolvedAt
		}
		d := end.Sub(issue.CreatedAt)
		if d < 0 {
			d = 0
		}
		durations = append(durations, d)
	}
	return durations, nil
}

type fakeCommentRepo struct {
	store *memStore
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	comment.ID = r.store.nextID("comment")
	comment.CreatedAt = time.Now().Add(time.Duration(r.store.seq) * time.Millisecond)
	r.store.comments[comment.ID] = *comment
	return nil
}

func (r *fakeCommentRepo) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	comment, ok := r.store.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if author, ok := r.store.users[comment.UserID]; ok {
		comment.AuthorName = author.Name
		comment.AuthorEmail = author.Email
	}
	return &comment, nil
}

func (r *fakeCommentRepo) ListByIssue(_ context.Context, issueID string, limit, offset int) ([]domain.Comment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var all []domain.Comment
	for _, comment := range r.store.comments {
		if comment.IssueID == issueID {
			all = append(all, comment)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeCommentRepo) CountByIssue(_ context.Context, issueID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, comment := range r.store.comments {
		if comment.IssueID == issueID {
			count++
		}
	}
	return count, nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.comments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.comments, id)
	return nil
}

func (r *fakeCommentRepo) ToggleLike(_ context.Context, commentID, userID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	comment, ok := r.store.comments[commentID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	found := false
	var likes []string
	for _, id := range comment.Likes {
		if id == userID {
			found = true
			continue
		}
		likes = append(likes, id)
	}
	if !found {
		likes = append(likes, userID)
	}
	comment.Likes = likes
	r.store.comments[commentID] = comment
	return len(likes), nil
}

// seedUser inserts an account directly into the store.
func seedUser(store *memStore, name, postalCode string, role domain.Role) *domain.User {
	store.mu.Lock()
	defer store.mu.Unlock()
	user := domain.User{
		ID:          store.nextID("user"),
		Name:        name,
		Username:    name,
		Email:       name + "@example.com",
		PostalCode:  postal.Normalize(postalCode),
		Role:        role,
		Status:      domain.UserStatusActive,
		MemberSince: time.Now(),
		LastActive:  time.Now(),
	}
	store.users[user.ID] = user
	return &user
}

// seedIssue inserts an issue directly into the store.
func seedIssue(store *memStore, title, postalCode, reportedBy string) *domain.Issue {
	store.mu.Lock()
	defer store.mu.Unlock()
	now := time.Now()
	issue := domain.Issue{
		ID:          store.nextID("issue"),
		Title:       title,
		IssueType:   "pothole",
		Priority:    domain.PriorityMedium,
		Address:     "somewhere",
		PostalCode:  postal.Normalize(postalCode),
		Description: "desc",
		ReportedBy:  reportedBy,
		Status:      domain.StatusReported,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	store.issues[issue.ID] = issue
	return &issue
}
