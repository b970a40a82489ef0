package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/go-bookshop/internal/database"
	"github.com/safar/go-bookshop/internal/models"
)

type Users struct {
	db *sql.DB
}

// Get looks a user up by exact, case-sensitive username.
func (u *Users) Get(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}

	err := u.db.QueryRowContext(ctx,
		`SELECT username, password_hash, is_admin
		 FROM users
		 WHERE username = $1`,
		username).Scan(
		&user.Username,
		&user.PasswordHash,
		&user.IsAdmin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// InsertIfAbsent leaves an existing user untouched and reports whether a
// row was written.
func (u *Users) InsertIfAbsent(ctx context.Context, user models.User) (bool, error) {
	return insertUserIfAbsent(ctx, u.db, user)
}

func insertUserIfAbsent(ctx context.Context, q database.Querier, user models.User) (bool, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, is_admin)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (username) DO NOTHING`,
		user.Username, user.PasswordHash, user.IsAdmin)
	if err != nil {
		return false, fmt.Errorf("insert user %s: %w", user.Username, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}
