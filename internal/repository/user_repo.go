package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/newsroom-publishing-api/internal/database"
	"github.com/newsroom-publishing-api/internal/models"
)

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

// Create inserts a new user profile
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	rolesJSON, err := json.Marshal(user.Roles)
	if err != nil {
		return fmt.Errorf("failed to encode roles: %w", err)
	}

	query := `
		INSERT INTO users (id, email, name, roles, cms_author_ref, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, rolesJSON, user.CMSAuthorRef, user.Active, user.CreatedAt,
	)
	return err
}

// GetByID retrieves a user by ID. Returns nil when no row exists.
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, name, roles, cms_author_ref, active, created_at, updated_at
		FROM users WHERE id = $1
	`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email. Returns nil when no row exists.
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, roles, cms_author_ref, active, created_at, updated_at
		FROM users WHERE email = $1
	`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// EmailExists checks if a user with the given email exists
func (r *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email).Scan(&exists)
	return exists, err
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var rolesJSON []byte
	var cmsAuthorRef sql.NullString

	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &rolesJSON, &cmsAuthorRef,
		&user.Active, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(rolesJSON, &user.Roles); err != nil {
		return nil, fmt.Errorf("failed to decode roles: %w", err)
	}
	user.CMSAuthorRef = cmsAuthorRef.String

	return &user, nil
}
