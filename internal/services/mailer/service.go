// -----------------------------------------------------------------------
// Mailer Service - SMTP delivery for password resets and weekly reports
// -----------------------------------------------------------------------

package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/smtp"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
)

const fromName = "GolfStats"

// Service sends transactional mail over SMTP. When the SMTP section of
// the config is empty the service is disabled and every send is a no-op
// that returns an error, so callers should check Enabled first.
type Service struct {
	config common.SMTPConfig
	logger arbor.ILogger
}

func NewService(config common.SMTPConfig, logger arbor.ILogger) interfaces.MailerService {
	return &Service{
		config: config,
		logger: logger,
	}
}

// Enabled reports whether the minimum SMTP settings are present.
func (s *Service) Enabled() bool {
	return s.config.Host != "" && s.config.Username != "" && s.config.Password != "" && s.config.From != ""
}

// SendPasswordReset mails the reset token. The token expires after an
// hour, which the body states so stale mail does not confuse users.
func (s *Service) SendPasswordReset(ctx context.Context, to, token string) error {
	body := fmt.Sprintf(
		"A password reset was requested for your GolfStats account.\r\n\r\n"+
			"Your reset code is:\r\n\r\n    %s\r\n\r\n"+
			"The code expires in one hour. If you did not request a reset you can ignore this email.\r\n",
		token)

	msg, err := s.compose(to, "GolfStats password reset", body, nil, "")
	if err != nil {
		return err
	}
	return s.send(ctx, to, msg)
}

// SendReport mails a generated weekly report PDF as an attachment.
func (s *Service) SendReport(ctx context.Context, to, subject string, pdf []byte, filename string) error {
	body := "Your weekly golf report is attached.\r\n"

	msg, err := s.compose(to, subject, body, pdf, filename)
	if err != nil {
		return err
	}
	return s.send(ctx, to, msg)
}

// compose builds the RFC 5322 message, with an optional PDF attachment.
func (s *Service) compose(to, subject, body string, pdf []byte, filename string) ([]byte, error) {
	var buf bytes.Buffer

	var header mail.Header
	header.SetDate(time.Now())
	header.SetAddressList("From", []*mail.Address{{Name: fromName, Address: s.config.From}})
	header.SetAddressList("To", []*mail.Address{{Address: to}})
	header.SetSubject(subject)

	writer, err := mail.CreateWriter(&buf, header)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}

	inline, err := writer.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("failed to create inline part: %w", err)
	}
	var textHeader mail.InlineHeader
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	part, err := inline.CreatePart(textHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create text part: %w", err)
	}
	if _, err := io.WriteString(part, body); err != nil {
		return nil, fmt.Errorf("failed to write text part: %w", err)
	}
	part.Close()
	inline.Close()

	if len(pdf) > 0 {
		var attHeader mail.AttachmentHeader
		attHeader.Set("Content-Type", "application/pdf")
		attHeader.SetFilename(filename)
		att, err := writer.CreateAttachment(attHeader)
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment: %w", err)
		}
		if _, err := att.Write(pdf); err != nil {
			return nil, fmt.Errorf("failed to write attachment: %w", err)
		}
		att.Close()
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize message: %w", err)
	}
	return buf.Bytes(), nil
}

// send delivers the message, trying implicit TLS first and falling back
// to STARTTLS. Gmail on 465 needs the former, most relays the latter.
func (s *Service) send(ctx context.Context, to string, msg []byte) error {
	if !s.Enabled() {
		return fmt.Errorf("smtp is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	if err := s.sendWithTLS(addr, auth, to, msg); err != nil {
		s.logger.Warn().
			Str("host", s.config.Host).
			Err(err).
			Msg("Mail delivery failed")
		return err
	}

	s.logger.Info().
		Str("to", to).
		Msg("Mail sent")
	return nil
}

// sendWithTLS connects over implicit TLS, falling back to STARTTLS when
// the server does not speak TLS on the configured port.
func (s *Service) sendWithTLS(addr string, auth smtp.Auth, to string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName: s.config.Host,
	})
	if err != nil {
		return s.sendWithSTARTTLS(addr, auth, to, msg)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	return s.deliver(client, auth, to, msg)
}

// sendWithSTARTTLS connects in cleartext and upgrades.
func (s *Service) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	return s.deliver(client, auth, to, msg)
}

func (s *Service) deliver(client *smtp.Client, auth smtp.Auth, to string, msg []byte) error {
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err := client.Mail(s.config.From); err != nil {
		return fmt.Errorf("failed to set mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set mail recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}
