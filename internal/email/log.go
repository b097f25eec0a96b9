package email

import (
	"context"
	"log/slog"
)

// LogNotifier stands in for Client when no Postmark token is configured.
// Links carry live tokens, so they are logged at debug level and only when
// showLinks is set; production deployments pass false.
type LogNotifier struct {
	frontendURL string
	showLinks   bool
	logger      *slog.Logger
}

func NewLogNotifier(frontendURL string, showLinks bool, logger *slog.Logger) *LogNotifier {
	return &LogNotifier{frontendURL: frontendURL, showLinks: showLinks, logger: logger}
}

func (n *LogNotifier) SendVerification(ctx context.Context, toEmail, username, token string) error {
	n.skip(ctx, "verification", toEmail, "/verify-email?token="+token)
	return nil
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, toEmail, username, token string) error {
	n.skip(ctx, "password reset", toEmail, "/reset-password?token="+token)
	return nil
}

func (n *LogNotifier) skip(ctx context.Context, kind, toEmail, path string) {
	n.logger.InfoContext(ctx, "email not configured, skipping "+kind+" email", "to", toEmail)
	if n.showLinks {
		n.logger.DebugContext(ctx, kind+" link", "to", toEmail, "link", n.frontendURL+path)
	}
}
