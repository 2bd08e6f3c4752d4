package interfaces

import "context"

// MailerService sends transactional mail. A nil-safe no-op implementation
// is used when SMTP is not configured.
type MailerService interface {
	// Enabled reports whether SMTP settings are configured.
	Enabled() bool

	// SendPasswordReset mails a reset link for the given token.
	SendPasswordReset(ctx context.Context, to, token string) error

	// SendReport mails a generated weekly report as an attachment.
	SendReport(ctx context.Context, to, subject string, pdf []byte, filename string) error
}
