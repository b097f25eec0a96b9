package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"time"
)

const postmarkURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	frontendURL string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient returns a Postmark client. Links in outgoing mail point at frontendURL.
func NewClient(serverToken, fromEmail, frontendURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		frontendURL: frontendURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendVerification sends the link that confirms a new account's address.
func (c *Client) SendVerification(ctx context.Context, toEmail, username, token string) error {
	link := c.link("/verify-email", token)
	return c.send(ctx, toEmail, "Verify Your Email - Deal Finder", message{
		Heading:  "Welcome to Deal Finder!",
		Username: username,
		Intro:    "Thanks for signing up! Please verify your email address by clicking the button below:",
		Action:   "Verify Email",
		Link:     link,
		Footer:   "This link will expire in 24 hours. If you didn't create an account, you can safely ignore this email.",
	})
}

// SendPasswordReset sends the single-use reset link.
func (c *Client) SendPasswordReset(ctx context.Context, toEmail, username, token string) error {
	link := c.link("/reset-password", token)
	return c.send(ctx, toEmail, "Reset Your Password - Deal Finder", message{
		Heading:  "Password Reset Request",
		Username: username,
		Intro:    "We received a request to reset your password. Click the button below to choose a new one:",
		Action:   "Reset Password",
		Link:     link,
		Footer:   "This link will expire in 1 hour. If you didn't request a password reset, you can safely ignore this email.",
	})
}

func (c *Client) link(path, token string) string {
	return c.frontendURL + path + "?token=" + url.QueryEscape(token)
}

type message struct {
	Heading  string
	Username string
	Intro    string
	Action   string
	Link     string
	Footer   string
}

func (m message) text() string {
	return fmt.Sprintf("Hi %s,\n\n%s\n\n%s\n\n%s", m.Username, m.Intro, m.Link, m.Footer)
}

func (m message) html() string {
	link := html.EscapeString(m.Link)
	return fmt.Sprintf(
		`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`+
			`<h2 style="color: #29a867;">%s</h2>`+
			`<p>Hi %s,</p><p>%s</p>`+
			`<p style="text-align: center; margin: 30px 0;"><a href="%s" style="background-color: #29a867; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px;">%s</a></p>`+
			`<p>Or copy and paste this link in your browser:</p><p style="color: #666; word-break: break-all;">%s</p>`+
			`<p style="color: #999; font-size: 12px; margin-top: 30px;">%s</p></div>`,
		html.EscapeString(m.Heading), html.EscapeString(m.Username), html.EscapeString(m.Intro),
		link, html.EscapeString(m.Action), link, html.EscapeString(m.Footer),
	)
}

func (c *Client) send(ctx context.Context, toEmail, subject string, m message) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: m.html(),
		TextBody: m.text(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postmarkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
