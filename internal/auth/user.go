package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// User is an account that owns a wardrobe and outfits.
type User struct {
	ID                 int64
	Email              string
	Name               string
	Picture            string
	GoogleRefreshToken string
}

// UserRepository stores user accounts.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(d *sql.DB) *UserRepository {
	return &UserRepository{db: d}
}

// Get returns the user with the given id.
func (r *UserRepository) Get(ctx context.Context, id int64) (User, error) {
	var (
		u                      User
		name, picture, refresh sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, picture, google_refresh_token
		FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &name, &picture, &refresh)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	u.Name = name.String
	u.Picture = picture.String
	u.GoogleRefreshToken = refresh.String
	return u, nil
}

// Upsert creates the user or updates the profile stored under the same email.
// An empty refresh token never overwrites a stored one.
func (r *UserRepository) Upsert(ctx context.Context, u User) (User, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, name, picture, google_refresh_token)
		VALUES (?, ?, ?, NULLIF(?, ''))
		ON CONFLICT(email) DO UPDATE SET
			name = excluded.name,
			picture = excluded.picture,
			google_refresh_token = COALESCE(excluded.google_refresh_token, users.google_refresh_token)
		RETURNING id`,
		u.Email, u.Name, u.Picture, u.GoogleRefreshToken).Scan(&u.ID)
	if err != nil {
		return User{}, fmt.Errorf("failed to upsert user %s: %w", u.Email, err)
	}
	return r.Get(ctx, u.ID)
}
