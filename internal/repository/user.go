package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/photoshare/photoshare/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
)

const userColumns = "github_login, name, avatar, github_token"

// GetUserByLogin retrieves a user by their GitHub login.
func (r *Repository) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE github_login = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, login).Scan(
		&user.GithubLogin,
		&user.Name,
		&user.Avatar,
		&user.GithubToken,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by login: %w", err)
	}

	return &user, nil
}

// GetUserByToken retrieves a user by their stored bearer credential.
// A miss is a normal outcome for the identity middleware and is reported
// as ErrUserNotFound.
func (r *Repository) GetUserByToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE github_token = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&user.GithubLogin,
		&user.Name,
		&user.Avatar,
		&user.GithubToken,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by token: %w", err)
	}

	return &user, nil
}

// ReplaceUser upserts a user keyed on github_login.
// Every profile column is overwritten: this is a full replace, not a merge,
// so the caller must supply the complete profile snapshot.
func (r *Repository) ReplaceUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (github_login, name, avatar, github_token)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (github_login) DO UPDATE SET
			name         = EXCLUDED.name,
			avatar       = EXCLUDED.avatar,
			github_token = EXCLUDED.github_token
	`

	_, err := r.pool.Exec(ctx, query,
		user.GithubLogin,
		user.Name,
		user.Avatar,
		user.GithubToken,
	)

	if err != nil {
		return fmt.Errorf("failed to replace user: %w", err)
	}

	return nil
}

// InsertUsers inserts a batch of users in a single round trip.
// Conflicting logins are replaced, matching ReplaceUser semantics.
func (r *Repository) InsertUsers(ctx context.Context, users []*model.User) error {
	if len(users) == 0 {
		return nil
	}

	query := `
		INSERT INTO users (github_login, name, avatar, github_token)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (github_login) DO UPDATE SET
			name         = EXCLUDED.name,
			avatar       = EXCLUDED.avatar,
			github_token = EXCLUDED.github_token
	`

	batch := &pgx.Batch{}
	for _, user := range users {
		batch.Queue(query, user.GithubLogin, user.Name, user.Avatar, user.GithubToken)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range users {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert users: %w", err)
		}
	}

	return nil
}

// ListUsers returns all users in first-seen order. A replace keeps the
// original first_seen, so re-authentication does not reorder the list.
func (r *Repository) ListUsers(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY first_seen, github_login
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.GithubLogin, &user.Name, &user.Avatar, &user.GithubToken); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// ListUsersByLogins returns the users carrying any of the given logins, in
// first-seen order. Logins with no stored user are silently absent.
func (r *Repository) ListUsersByLogins(ctx context.Context, logins []string) ([]*model.User, error) {
	if len(logins) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE github_login = ANY($1)
		ORDER BY first_seen, github_login
	`

	rows, err := r.pool.Query(ctx, query, logins)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by logins: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.GithubLogin, &user.Name, &user.Avatar, &user.GithubToken); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// CountUsers returns the total number of users.
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
