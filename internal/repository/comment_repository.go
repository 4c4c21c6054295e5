package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// CommentRepository encapsulates comment persistence. ToggleLike is a single
// atomic statement, same pattern as issue voting but with one set only.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByIssue(ctx context.Context, issueID string, limit, offset int) ([]domain.Comment, error)
	CountByIssue(ctx context.Context, issueID string) (int, error)
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, commentID, userID string) (int, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository instantiates repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

const commentSelect = `
        SELECT c.id, c.issue_id, c.user_id, c.text, c.parent_comment_id, c.likes, c.created_at,
               COALESCE(u.name, ''), COALESCE(u.email, '')
        FROM comments c
        LEFT JOIN users u ON u.id = c.user_id`

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (issue_id, user_id, text, parent_comment_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.IssueID,
		comment.UserID,
		comment.Text,
		comment.ParentCommentID,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	row := r.pool.QueryRow(ctx, commentSelect+` WHERE c.id=$1`, id)
	return scanCommentRow(row)
}

func (r *commentRepository) ListByIssue(ctx context.Context, issueID string, limit, offset int) ([]domain.Comment, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	query := commentSelect + ` WHERE c.issue_id=$1 ORDER BY c.created_at DESC, c.id DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, issueID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		comment, err := scanCommentRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *comment)
	}
	return result, rows.Err()
}

func (r *commentRepository) CountByIssue(ctx context.Context, issueID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE issue_id=$1`, issueID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *commentRepository) ToggleLike(ctx context.Context, commentID, userID string) (int, error) {
	const query = `
        UPDATE comments SET
            likes = CASE
                WHEN $2 = ANY(likes) THEN array_remove(likes, $2)
                ELSE array_append(likes, $2)
            END
        WHERE id=$1
        RETURNING cardinality(likes)`
	var count int
	if err := r.pool.QueryRow(ctx, query, commentID, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanCommentRow(row pgx.Row) (*domain.Comment, error) {
	var comment domain.Comment
	if err := row.Scan(
		&comment.ID,
		&comment.IssueID,
		&comment.UserID,
		&comment.Text,
		&comment.ParentCommentID,
		&comment.Likes,
		&comment.CreatedAt,
		&comment.AuthorName,
		&comment.AuthorEmail,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}
