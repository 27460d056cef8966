// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"giftshuffle/internal/models"
	"giftshuffle/internal/query"
)

// UserStore handles all user-related database operations.
type UserStore struct {
	exec *query.Executor
}

// NewUserStore creates a new UserStore with the given executor.
func NewUserStore(exec *query.Executor) *UserStore {
	return &UserStore{exec: exec}
}

const userColumns = `id, username, password_hash, role, totp_secret, totp_enabled, created_at, updated_at`

func userFromRow(row query.Row) *models.User {
	u := &models.User{
		Username:     query.AsString(row["username"]),
		PasswordHash: query.AsString(row["password_hash"]),
		Role:         models.Role(query.AsString(row["role"])),
		TOTPSecret:   query.AsNullString(row["totp_secret"]),
		TOTPEnabled:  query.AsBool(row["totp_enabled"]),
		CreatedAt:    query.AsTime(row["created_at"]),
		UpdatedAt:    query.AsTime(row["updated_at"]),
	}
	u.ID, _ = query.AsInt64(row["id"])
	return u
}

// FindByUsername retrieves a user by username. Returns nil if not found.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	res, err := s.exec.Run(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	row := res.First()
	if row == nil {
		return nil, nil
	}
	return userFromRow(row), nil
}

// FindByID retrieves a user by ID. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	res, err := s.exec.Run(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	row := res.First()
	if row == nil {
		return nil, nil
	}
	return userFromRow(row), nil
}

// List returns all users ordered by creation date.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	res, err := s.exec.Run(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]models.User, 0, len(res.Rows))
	for _, row := range res.Rows {
		users = append(users, *userFromRow(row))
	}
	return users, nil
}

// Create inserts a new user with a bcrypt-hashed password.
func (s *UserStore) Create(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	res, err := s.exec.Run(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		username, string(hash), string(role),
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return userFromRow(res.First()), nil
}

// SetTOTPSecret saves the TOTP secret for a user during enrolment.
func (s *UserStore) SetTOTPSecret(ctx context.Context, userID int64, secret string) error {
	_, err := s.exec.Run(ctx, `
		UPDATE users SET totp_secret = $1, totp_enabled = FALSE, updated_at = NOW() WHERE id = $2
	`, secret, userID)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// EnableTOTP marks 2FA as active after a successful code verification.
func (s *UserStore) EnableTOTP(ctx context.Context, userID int64) error {
	_, err := s.exec.Run(ctx, `
		UPDATE users SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}

// ResetTOTP clears the TOTP secret and disables 2FA for a user.
func (s *UserStore) ResetTOTP(ctx context.Context, userID int64) error {
	_, err := s.exec.Run(ctx, `
		UPDATE users SET totp_secret = NULL, totp_enabled = FALSE, updated_at = NOW() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("reset totp: %w", err)
	}
	return nil
}

// Delete removes a user by ID.
func (s *UserStore) Delete(ctx context.Context, userID int64) error {
	_, err := s.exec.Run(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
