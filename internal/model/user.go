package model

import "time"

type User struct {
	ID                       int64      `json:"id"`
	Username                 string     `json:"username"`
	Email                    string     `json:"email"`
	PasswordHash             string     `json:"-"`
	EmailVerified            bool       `json:"email_verified"`
	VerificationToken        *string    `json:"-"`
	VerificationTokenExpires *time.Time `json:"-"`
	ResetToken               *string    `json:"-"`
	ResetTokenExpires        *time.Time `json:"-"`
	LastLogin                *time.Time `json:"last_login"`
	CreatedAt                time.Time  `json:"created_at"`
}

// PublicUser is the projection of a User that is safe to hand to clients.
type PublicUser struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
	}
}
