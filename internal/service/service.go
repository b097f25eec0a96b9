// Package service holds the account and deal rules that sit between the
// HTTP handlers and the SQLite stores.
package service

import (
	"context"
	"time"
)

const (
	SessionTTL        = 30 * 24 * time.Hour
	VerificationTTL   = 24 * time.Hour
	ResetTTL          = time.Hour
	MinPasswordLength = 8
)

// Notifier delivers account emails. Failures are logged by the caller and
// never fail the account operation that triggered them.
type Notifier interface {
	SendVerification(ctx context.Context, toEmail, username, token string) error
	SendPasswordReset(ctx context.Context, toEmail, username, token string) error
}

type Option func(*settings)

type settings struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests that need to cross an expiry.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

func newSettings(opts []Option) settings {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
