package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/contacts-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, email, password_hash, refresh_token, confirmed, avatar, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u domain.NewUser) (*domain.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query, u.Username, u.Email, u.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	row := r.pool.QueryRow(ctx, query, email)
	return scanUser(row)
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, email string, token *string) error {
	return r.exec(ctx, "set refresh token",
		`UPDATE users SET refresh_token = $2, updated_at = NOW() WHERE email = $1`, email, token)
}

// SetConfirmed is idempotent; confirming twice leaves the row unchanged.
func (r *UserRepository) SetConfirmed(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET confirmed = TRUE, updated_at = NOW() WHERE email = $1 AND confirmed = FALSE`, email)
	if err != nil {
		return fmt.Errorf("set confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// either already confirmed or missing
		if _, err := r.FindByEmail(ctx, email); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepository) SetPassword(ctx context.Context, email, passwordHash string) error {
	return r.exec(ctx, "set password",
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE email = $1`, email, passwordHash)
}

func (r *UserRepository) SetAvatar(ctx context.Context, email, url string) (*domain.User, error) {
	query := `
		UPDATE users SET avatar = $2, updated_at = NOW()
		WHERE email = $1
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query, email, url)
	return scanUser(row)
}

func (r *UserRepository) exec(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RefreshToken,
		&u.Confirmed, &u.Avatar, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
