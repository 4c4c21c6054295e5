package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// IssueFilter captures listing parameters. PostalCode and ExcludePostalCode
// drive the own/others visibility split.
type IssueFilter struct {
	PostalCode        *string
	ExcludePostalCode *string
	Since             *time.Time
}

// IssueRepository encapsulates issue persistence. ToggleVote, ToggleLike and
// RefreshCommentSummary are single atomic statements: two requests racing on
// the same issue cannot corrupt vote-set membership or the comment summary.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	ToggleVote(ctx context.Context, issueID, userID string, dir domain.VoteDirection) (*domain.Issue, error)
	UpdateStatus(ctx context.Context, issueID string, status domain.IssueStatus, resolvedAt *time.Time) (*domain.Issue, error)
	// Delete removes the issue and, in the same transaction, every comment
	// referencing it.
	Delete(ctx context.Context, issueID string) error
	// RefreshCommentSummary re-derives comments_count and the latest-comment
	// snapshot from the live comment set. Required post-condition of every
	// comment add/delete; never applied as a delta.
	RefreshCommentSummary(ctx context.Context, issueID string) error

	Count(ctx context.Context, postalCode *string) (int, error)
	CountByStatus(ctx context.Context, postalCode *string, status domain.IssueStatus) (int, error)
	CountNotStatus(ctx context.Context, postalCode *string, status domain.IssueStatus) (int, error)
	TypeCounts(ctx context.Context, postalCode *string, since time.Time) (map[string]int, error)
	StatusCounts(ctx context.Context, postalCode *string, since time.Time) (map[domain.IssueStatus]int, error)
	PriorityCounts(ctx context.Context, postalCode *string, since time.Time) (map[domain.IssuePriority]int, error)
	VoteTotals(ctx context.Context, postalCode *string) (upvotes, downvotes int, err error)
	ResolutionDurations(ctx context.Context, postalCode *string) ([]time.Duration, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

// issueSelect joins the reporter and the latest-comment author so listings
// carry display info without a second round trip.
const issueSelect = `
        SELECT i.id, i.title, i.issue_type, i.priority, i.address, i.postal_code, i.landmark,
               i.description, i.image_urls, i.reported_by, i.latitude, i.longitude,
               i.status, i.resolved_at, i.created_at, i.updated_at,
               i.comments_count, i.latest_comment_text, i.latest_comment_user_id, i.latest_comment_at,
               i.upvotes, i.downvotes,
               COALESCE(r.name, ''), COALESCE(r.username, ''), COALESCE(r.postal_code, ''),
               COALESCE(lc.name, '')
        FROM issues i
        LEFT JOIN users r ON r.id = i.reported_by
        LEFT JOIN users lc ON lc.id = i.latest_comment_user_id`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (title, issue_type, priority, address, postal_code, landmark,
                            description, image_urls, reported_by, latitude, longitude, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		issue.Title,
		issue.IssueType,
		issue.Priority,
		issue.Address,
		issue.PostalCode,
		issue.Landmark,
		issue.Description,
		issue.ImageURLs,
		issue.ReportedBy,
		issue.Latitude,
		issue.Longitude,
		issue.Status,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	row := r.pool.QueryRow(ctx, issueSelect+` WHERE i.id=$1`, id)
	return scanIssueRow(row)
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	query := issueSelect + ` WHERE 1=1`
	args := []any{}

	if filter.PostalCode != nil {
		args = append(args, *filter.PostalCode)
		query += ` AND i.postal_code=$` + strconv.Itoa(len(args))
	}
	if filter.ExcludePostalCode != nil {
		args = append(args, *filter.ExcludePostalCode)
		query += ` AND i.postal_code<>$` + strconv.Itoa(len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		query += ` AND i.created_at>=$` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY i.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

// ToggleVote moves the user between vote sets in one UPDATE. The CASE
// expressions mirror domain.ApplyVote: a repeat vote removes the user,
// otherwise the user joins the target set and leaves the opposite one.
func (r *issueRepository) ToggleVote(ctx context.Context, issueID, userID string, dir domain.VoteDirection) (*domain.Issue, error) {
	const query = `
        UPDATE issues SET
            upvotes = CASE
                WHEN $3 AND NOT ($2 = ANY(upvotes)) THEN array_append(array_remove(upvotes, $2), $2)
                ELSE array_remove(upvotes, $2)
            END,
            downvotes = CASE
                WHEN NOT $3 AND NOT ($2 = ANY(downvotes)) THEN array_append(array_remove(downvotes, $2), $2)
                ELSE array_remove(downvotes, $2)
            END,
            updated_at = NOW()
        WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, issueID, userID, dir == domain.VoteUp)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, issueID)
}

func (r *issueRepository) UpdateStatus(ctx context.Context, issueID string, status domain.IssueStatus, resolvedAt *time.Time) (*domain.Issue, error) {
	const query = `
        UPDATE issues SET status=$2, resolved_at=$3, updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, issueID, status, resolvedAt)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, issueID)
}

func (r *issueRepository) Delete(ctx context.Context, issueID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE issue_id=$1`, issueID); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM issues WHERE id=$1`, issueID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func (r *issueRepository) RefreshCommentSummary(ctx context.Context, issueID string) error {
	const query = `
        UPDATE issues SET
            comments_count = (SELECT COUNT(*) FROM comments WHERE issue_id=$1),
            latest_comment_text = (SELECT text FROM comments WHERE issue_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1),
            latest_comment_user_id = (SELECT user_id FROM comments WHERE issue_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1),
            latest_comment_at = (SELECT created_at FROM comments WHERE issue_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1),
            updated_at = NOW()
        WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, issueID)
	return err
}

func (r *issueRepository) Count(ctx context.Context, postalCode *string) (int, error) {
	return r.countWhere(ctx, postalCode, ``)
}

func (r *issueRepository) CountByStatus(ctx context.Context, postalCode *string, status domain.IssueStatus) (int, error) {
	return r.countWhere(ctx, postalCode, ` AND status=$2`, status)
}

func (r *issueRepository) CountNotStatus(ctx context.Context, postalCode *string, status domain.IssueStatus) (int, error) {
	return r.countWhere(ctx, postalCode, ` AND status<>$2`, status)
}

func (r *issueRepository) countWhere(ctx context.Context, postalCode *string, clause string, extra ...any) (int, error) {
	query := `SELECT COUNT(*) FROM issues WHERE ($1::text IS NULL OR postal_code=$1)` + clause
	args := append([]any{postalCode}, extra...)

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *issueRepository) TypeCounts(ctx context.Context, postalCode *string, since time.Time) (map[string]int, error) {
	const query = `
        SELECT issue_type, COUNT(*) FROM issues
        WHERE ($1::text IS NULL OR postal_code=$1) AND created_at>=$2
        GROUP BY issue_type`
	return r.groupCounts(ctx, query, postalCode, since)
}

func (r *issueRepository) StatusCounts(ctx context.Context, postalCode *string, since time.Time) (map[domain.IssueStatus]int, error) {
	const query = `
        SELECT status, COUNT(*) FROM issues
        WHERE ($1::text IS NULL OR postal_code=$1) AND created_at>=$2
        GROUP BY status`
	raw, err := r.groupCounts(ctx, query, postalCode, since)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.IssueStatus]int, len(raw))
	for k, v := range raw {
		counts[domain.IssueStatus(k)] = v
	}
	return counts, nil
}

func (r *issueRepository) PriorityCounts(ctx context.Context, postalCode *string, since time.Time) (map[domain.IssuePriority]int, error) {
	const query = `
        SELECT priority, COUNT(*) FROM issues
        WHERE ($1::text IS NULL OR postal_code=$1) AND created_at>=$2
        GROUP BY priority`
	raw, err := r.groupCounts(ctx, query, postalCode, since)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.IssuePriority]int, len(raw))
	for k, v := range raw {
		counts[domain.IssuePriority(k)] = v
	}
	return counts, nil
}

func (r *issueRepository) groupCounts(ctx context.Context, query string, postalCode *string, since time.Time) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, query, postalCode, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

func (r *issueRepository) VoteTotals(ctx context.Context, postalCode *string) (int, int, error) {
	const query = `
        SELECT COALESCE(SUM(cardinality(upvotes)), 0), COALESCE(SUM(cardinality(downvotes)), 0)
        FROM issues WHERE ($1::text IS NULL OR postal_code=$1)`
	var up, down int
	if err := r.pool.QueryRow(ctx, query, postalCode).Scan(&up, &down); err != nil {
		return 0, 0, err
	}
	return up, down, nil
}

// ResolutionDurations returns created-to-resolved spans for resolved issues,
// falling back to the last update when resolved_at was never stamped.
func (r *issueRepository) ResolutionDurations(ctx context.Context, postalCode *string) ([]time.Duration, error) {
	const query = `
        SELECT GREATEST(COALESCE(resolved_at, updated_at) - created_at, INTERVAL '0')
        FROM issues
        WHERE ($1::text IS NULL OR postal_code=$1) AND status=$2`

	rows, err := r.pool.Query(ctx, query, postalCode, domain.StatusResolved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var durations []time.Duration
	for rows.Next() {
		var d time.Duration
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		durations = append(durations, d)
	}
	return durations, rows.Err()
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		issue, err := scanIssueRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}

func scanIssueRow(row pgx.Row) (*domain.Issue, error) {
	var issue domain.Issue
	var latestText *string
	var latestUserID *string
	var latestAt *time.Time
	var latestUserName string

	if err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.IssueType,
		&issue.Priority,
		&issue.Address,
		&issue.PostalCode,
		&issue.Landmark,
		&issue.Description,
		&issue.ImageURLs,
		&issue.ReportedBy,
		&issue.Latitude,
		&issue.Longitude,
		&issue.Status,
		&issue.ResolvedAt,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&issue.CommentsCount,
		&latestText,
		&latestUserID,
		&latestAt,
		&issue.Upvotes,
		&issue.Downvotes,
		&issue.ReporterName,
		&issue.ReporterUsername,
		&issue.ReporterPostal,
		&latestUserName,
	); err != nil {
		return nil, err
	}

	if latestText != nil && latestAt != nil {
		summary := &domain.CommentSummary{
			Text:      *latestText,
			CreatedAt: *latestAt,
			UserName:  latestUserName,
		}
		if latestUserID != nil {
			summary.UserID = *latestUserID
		}
		issue.LatestComment = summary
	}
	return &issue, nil
}
