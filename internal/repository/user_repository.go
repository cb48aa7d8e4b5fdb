package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this username already exists")
	ErrRoleNotFound      = errors.New("role not found")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	AddToRole(ctx context.Context, userID uuid.UUID, role string) error
}

type userRepository struct {
	q sqlx.ExtContext
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(q sqlx.ExtContext) UserRepository {
	return &userRepository{q: q}
}

// Create inserts a new user. Role memberships in user.Roles are not written; use AddToRole.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByUsername retrieves a user and its roles. Usernames match case-insensitively.
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE LOWER(username) = LOWER($1)
	`

	return r.findOne(ctx, query, username)
}

// AddToRole grants role to the user. Granting a role twice is a no-op.
func (r *userRepository) AddToRole(ctx context.Context, userID uuid.UUID, role string) error {
	query := `
		INSERT INTO user_roles (user_id, role_name)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	if _, err := r.q.ExecContext(ctx, query, userID, role); err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to add user to role: %w", err)
	}

	return nil
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user := &domain.User{}
	if err := sqlx.GetContext(ctx, r.q, user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	roles := []string{}
	rolesQuery := `SELECT role_name FROM user_roles WHERE user_id = $1 ORDER BY role_name`
	if err := sqlx.SelectContext(ctx, r.q, &roles, rolesQuery, user.ID); err != nil {
		return nil, fmt.Errorf("failed to load user roles: %w", err)
	}
	user.Roles = roles

	return user, nil
}
