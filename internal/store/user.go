package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/dealfinder/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var verificationToken, resetToken sql.NullString
	var verificationExpires, resetExpires, lastLogin sql.NullTime

	err := scanner.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.EmailVerified,
		&verificationToken, &verificationExpires, &resetToken, &resetExpires,
		&lastLogin, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if verificationToken.Valid {
		u.VerificationToken = &verificationToken.String
	}
	if verificationExpires.Valid {
		u.VerificationTokenExpires = &verificationExpires.Time
	}
	if resetToken.Valid {
		u.ResetToken = &resetToken.String
	}
	if resetExpires.Valid {
		u.ResetTokenExpires = &resetExpires.Time
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

const userCols = `id, username, email, password_hash, email_verified,
	verification_token, verification_token_expires, reset_token, reset_token_expires,
	last_login, created_at`

// NewUser holds the columns written at registration.
type NewUser struct {
	Username            string
	Email               string
	PasswordHash        string
	VerificationToken   string
	VerificationExpires time.Time
	CreatedAt           time.Time
}

// Create inserts an unverified user. A username or email collision returns ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, nu NewUser) (*model.User, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, verification_token, verification_token_expires, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nu.Username, nu.Email, nu.PasswordHash, nu.VerificationToken, nu.VerificationExpires.UTC(), nu.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert user: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) getOne(ctx context.Context, what, where string, arg any) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE `+where+` = ?`, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", what, err)
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.getOne(ctx, "id", "id", id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getOne(ctx, "email", "email", email)
}

func (s *UserStore) GetByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return s.getOne(ctx, "verification token", "verification_token", token)
}

func (s *UserStore) GetByResetToken(ctx context.Context, token string) (*model.User, error) {
	return s.getOne(ctx, "reset token", "reset_token", token)
}

// Exists reports whether any user already has the email or the username.
func (s *UserStore) Exists(ctx context.Context, email, username string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ? OR username = ?`,
		email, username,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return n > 0, nil
}

// ConsumeVerificationToken marks the user verified and clears the token.
// It reports false when the token was already used by a concurrent request.
func (s *UserStore) ConsumeVerificationToken(ctx context.Context, id int64, token string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users
		 SET email_verified = 1, verification_token = NULL, verification_token_expires = NULL
		 WHERE id = ? AND verification_token = ?`,
		id, token,
	)
	if err != nil {
		return false, fmt.Errorf("consume verification token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// SetResetToken replaces any outstanding reset token for the user.
func (s *UserStore) SetResetToken(ctx context.Context, id int64, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET reset_token = ?, reset_token_expires = ? WHERE id = ?`,
		token, expiresAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return nil
}

// ResetPassword stores the new hash and clears the reset token in one statement.
// It reports false when the token no longer matches.
func (s *UserStore) ResetPassword(ctx context.Context, id int64, token, passwordHash string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users
		 SET password_hash = ?, reset_token = NULL, reset_token_expires = NULL
		 WHERE id = ? AND reset_token = ?`,
		passwordHash, id, token,
	)
	if err != nil {
		return false, fmt.Errorf("reset password: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *UserStore) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
