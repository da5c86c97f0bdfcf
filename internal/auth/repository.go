package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/shopme-store/shopme-backend/internal/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	user.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt)

	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	return r.get(ctx, "WHERE id = $1 AND role = $2", id, role)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	return r.get(ctx, "WHERE email = $1 AND role = $2", email, role)
}

// GetByResetToken matches only tokens that have not expired yet.
func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return r.get(ctx, "WHERE reset_token = $1 AND reset_expires > NOW()", token)
}

func (r *UserRepository) get(ctx context.Context, where string, args ...any) (*domain.User, error) {
	user := &domain.User{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at, reset_token, reset_expires
		FROM users
		`+where, args...,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&user.CreatedAt, &user.ResetToken, &user.ResetExpires)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

// SetResetToken stores a pending password reset, superseding any
// previous token for the identity.
func (r *UserRepository) SetResetToken(ctx context.Context, id, token string, expires time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_token = $1, reset_expires = $2
		WHERE id = $3
	`, token, expires, id)

	return err
}

// UpdatePassword sets the new hash and clears any pending reset
// token, making the token single-use.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $1, reset_token = NULL, reset_expires = NULL
		WHERE id = $2
	`, passwordHash, id)

	return err
}
