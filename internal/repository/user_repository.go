package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// UserFilter narrows user listings for admin views and reports.
type UserFilter struct {
	Role       *domain.Role
	PostalCode *string
	Since      *time.Time
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	TouchLastActive(ctx context.Context, id string) error

	Count(ctx context.Context, postalCode *string) (int, error)
	CountSince(ctx context.Context, postalCode *string, since time.Time) (int, error)
	MemberSinceTimes(ctx context.Context, postalCode *string, since time.Time) ([]time.Time, error)
	CountActiveSince(ctx context.Context, postalCode *string, since time.Time) (int, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, username, email, phone, location, postal_code,
       password_hash, role, status, member_since, last_active`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, username, email, phone, location, postal_code, password_hash, role, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, member_since, last_active`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Username,
		user.Email,
		user.Phone,
		user.Location,
		user.PostalCode,
		user.PasswordHash,
		user.Role,
		user.Status,
	).Scan(&user.ID, &user.MemberSince, &user.LastActive)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, username=$2, email=$3, phone=$4, location=$5,
            postal_code=$6, password_hash=$7, role=$8, status=$9
        WHERE id=$10`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Username,
		user.Email,
		user.Phone,
		user.Location,
		user.PostalCode,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=LOWER($1)`, email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.Email,
		&user.Phone,
		&user.Location,
		&user.PostalCode,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.MemberSince,
		&user.LastActive,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := []any{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		query += ` AND role=$` + strconv.Itoa(len(args))
	}
	if filter.PostalCode != nil {
		args = append(args, *filter.PostalCode)
		query += ` AND postal_code=$` + strconv.Itoa(len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		query += ` AND member_since>=$` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY member_since DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Username,
			&user.Email,
			&user.Phone,
			&user.Location,
			&user.PostalCode,
			&user.PasswordHash,
			&user.Role,
			&user.Status,
			&user.MemberSince,
			&user.LastActive,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) TouchLastActive(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_active=NOW() WHERE id=$1`, id)
	return err
}

func (r *userRepository) Count(ctx context.Context, postalCode *string) (int, error) {
	return r.countWhere(ctx, postalCode, ``)
}

func (r *userRepository) CountSince(ctx context.Context, postalCode *string, since time.Time) (int, error) {
	return r.countWhere(ctx, postalCode, ` AND member_since>=$2`, since)
}

func (r *userRepository) CountActiveSince(ctx context.Context, postalCode *string, since time.Time) (int, error) {
	return r.countWhere(ctx, postalCode, ` AND last_active>=$2`, since)
}

// countWhere centralizes the optional postal filter: $1 is always bound so
// extra clauses can start at $2.
func (r *userRepository) countWhere(ctx context.Context, postalCode *string, clause string, extra ...any) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE ($1::text IS NULL OR postal_code=$1)` + clause
	args := append([]any{postalCode}, extra...)

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepository) MemberSinceTimes(ctx context.Context, postalCode *string, since time.Time) ([]time.Time, error) {
	const query = `
        SELECT member_since FROM users
        WHERE ($1::text IS NULL OR postal_code=$1) AND member_since>=$2
        ORDER BY member_since`

	rows, err := r.pool.Query(ctx, query, postalCode, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}
