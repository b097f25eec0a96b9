package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dukerupert/dealfinder/internal/apperr"
	"github.com/dukerupert/dealfinder/internal/auth"
	"github.com/dukerupert/dealfinder/internal/model"
	"github.com/dukerupert/dealfinder/internal/store"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const notifyTimeout = 30 * time.Second

type AuthService struct {
	users      *store.UserStore
	sessions   *store.SessionStore
	notifier   Notifier
	bcryptCost int
	dummyHash  string
	now        func() time.Time
	logger     *slog.Logger
	wg         sync.WaitGroup
}

func NewAuthService(users *store.UserStore, sessions *store.SessionStore, notifier Notifier, bcryptCost int, logger *slog.Logger, opts ...Option) (*AuthService, error) {
	// Compared against when the email is unknown so both login failures cost the same.
	dummy, err := auth.HashPassword("dealfinder-timing-equalizer", bcryptCost)
	if err != nil {
		return nil, err
	}
	st := newSettings(opts)
	return &AuthService{
		users:      users,
		sessions:   sessions,
		notifier:   notifier,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
		now:        st.now,
		logger:     logger,
	}, nil
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validPassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

// Register creates an unverified account and mails its verification link.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.PublicUser, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	if username == "" || email == "" || in.Password == "" {
		return nil, apperr.Validation("All fields are required")
	}
	if !validPassword(in.Password) {
		return nil, apperr.Validation("Password must be at least 8 characters")
	}
	if !emailPattern.MatchString(email) {
		return nil, apperr.Validation("Invalid email format")
	}
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return nil, apperr.Validation("Username must be between 3 and 50 characters")
	}

	exists, err := s.users.Exists(ctx, email, username)
	if err != nil {
		return nil, apperr.Internal("register", err)
	}
	if exists {
		return nil, apperr.Conflict("User already exists with this email or username")
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Internal("register", err)
	}
	token, err := auth.GenerateToken()
	if err != nil {
		return nil, apperr.Internal("register", err)
	}

	now := s.now()
	u, err := s.users.Create(ctx, store.NewUser{
		Username:            username,
		Email:               email,
		PasswordHash:        hash,
		VerificationToken:   token,
		VerificationExpires: now.Add(VerificationTTL),
		CreatedAt:           now,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("User already exists with this email or username")
	}
	if err != nil {
		return nil, apperr.Internal("register", err)
	}

	s.notify("verification", u.Email, func(ctx context.Context) error {
		return s.notifier.SendVerification(ctx, u.Email, u.Username, token)
	})

	pu := u.Public()
	return &pu, nil
}

type LoginResult struct {
	Session *model.Session
	User    model.PublicUser
}

// Login checks credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal("login", err)
	}
	if u == nil {
		auth.CheckPassword(s.dummyHash, password)
		return nil, apperr.Auth("Invalid email or password")
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, apperr.Auth("Invalid email or password")
	}
	if !u.EmailVerified {
		return nil, apperr.Forbidden("Please verify your email before logging in")
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		return nil, apperr.Internal("login", err)
	}
	sess, err := s.sessions.Create(ctx, u.ID, now, now.Add(SessionTTL))
	if err != nil {
		return nil, apperr.Internal("login", err)
	}

	return &LoginResult{Session: sess, User: u.Public()}, nil
}

// Logout deletes the session. Unknown or empty tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return apperr.Internal("logout", err)
	}
	return nil
}

// VerifyEmail redeems a verification token. Tokens are single use.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*model.PublicUser, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Validation("Verification token is required")
	}

	u, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		return nil, apperr.Internal("verify email", err)
	}
	if u == nil {
		return nil, apperr.Validation("Invalid verification token")
	}
	if u.VerificationTokenExpires == nil || !s.now().Before(*u.VerificationTokenExpires) {
		return nil, apperr.Validation("Verification token has expired")
	}

	ok, err := s.users.ConsumeVerificationToken(ctx, u.ID, token)
	if err != nil {
		return nil, apperr.Internal("verify email", err)
	}
	if !ok {
		return nil, apperr.Validation("Invalid verification token")
	}

	u.EmailVerified = true
	pu := u.Public()
	return &pu, nil
}

// ForgotPassword issues a reset token when the account exists. The caller
// answers identically either way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperr.Validation("Email is required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return apperr.Internal("forgot password", err)
	}
	if u == nil {
		return nil
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return apperr.Internal("forgot password", err)
	}
	if err := s.users.SetResetToken(ctx, u.ID, token, s.now().Add(ResetTTL)); err != nil {
		return apperr.Internal("forgot password", err)
	}

	s.notify("password_reset", u.Email, func(ctx context.Context) error {
		return s.notifier.SendPasswordReset(ctx, u.Email, u.Username, token)
	})
	return nil
}

// ResetPassword redeems a reset token and signs the user out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return apperr.Validation("Token and new password are required")
	}
	if !validPassword(newPassword) {
		return apperr.Validation("Password must be at least 8 characters")
	}

	u, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		return apperr.Internal("reset password", err)
	}
	if u == nil {
		return apperr.Validation("Invalid reset token")
	}
	if u.ResetTokenExpires == nil || !s.now().Before(*u.ResetTokenExpires) {
		return apperr.Validation("Reset token has expired")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperr.Internal("reset password", err)
	}
	ok, err := s.users.ResetPassword(ctx, u.ID, token, hash)
	if err != nil {
		return apperr.Internal("reset password", err)
	}
	if !ok {
		return apperr.Validation("Invalid reset token")
	}

	if err := s.sessions.DeleteByUser(ctx, u.ID); err != nil {
		s.logger.Error("revoke sessions after reset", "user_id", u.ID, "error", err)
	}
	return nil
}

// ResolveSession maps a session cookie to its user. A session whose user has
// disappeared is deleted on the way out.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*model.PublicUser, error) {
	if token == "" {
		return nil, apperr.Auth("Authentication required")
	}

	sess, err := s.sessions.GetByToken(ctx, token, s.now())
	if err != nil {
		return nil, apperr.Internal("resolve session", err)
	}
	if sess == nil {
		return nil, apperr.Auth("Invalid or expired session")
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, apperr.Internal("resolve session", err)
	}
	if u == nil {
		if err := s.sessions.Delete(ctx, token); err != nil {
			s.logger.Error("delete orphaned session", "error", err)
		}
		return nil, apperr.Auth("User not found")
	}

	pu := u.Public()
	return &pu, nil
}

// Me returns the current public projection of the user.
func (s *AuthService) Me(ctx context.Context, userID int64) (*model.PublicUser, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("me", err)
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	pu := u.Public()
	return &pu, nil
}

// Cleanup deletes expired sessions. It is run periodically from main.
func (s *AuthService) Cleanup(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

func (s *AuthService) notify(kind, to string, send func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			s.logger.Error("send email", "kind", kind, "to", to, "error", err)
		}
	}()
}

// Wait blocks until in-flight email sends have finished.
func (s *AuthService) Wait() {
	s.wg.Wait()
}
