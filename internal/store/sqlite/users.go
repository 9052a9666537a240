package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/paybackapp/payback/internal/models"
)

// CreateUser inserts a new user into the database.
func (d *DB) CreateUser(ctx context.Context, user *models.User) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.CreatedAt.UTC().Format(time.RFC3339),
		user.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email. Returns nil without error when
// no user matches.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return d.getUser(ctx, "email = ?", email)
}

// GetUserByID retrieves a user by ID. Returns nil without error when no
// user matches.
func (d *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return d.getUser(ctx, "id = ?", id)
}

func (d *DB) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	var createdAt, updatedAt string

	err := d.db.QueryRowContext(ctx,
		"SELECT id, email, display_name, password_hash, created_at, updated_at FROM users WHERE "+where,
		arg,
	).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		user.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		user.UpdatedAt = ts
	}
	return user, nil
}
