package email

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"leaveportal/internal/domain/notifications"
	"leaveportal/internal/platform/config"
)

type noopMailer struct{}

func (noopMailer) Send(ctx context.Context, from, to, subject, body string) error {
	return nil
}

type smtpMailer struct {
	cfg config.Config
}

// New returns an SMTP mailer when email is enabled, otherwise a mailer that
// drops every message.
func New(cfg config.Config) notifications.Mailer {
	if !cfg.EmailEnabled || cfg.SMTPHost == "" {
		return noopMailer{}
	}
	return &smtpMailer{cfg: cfg}
}

// Send uses implicit TLS when SMTPUseTLS is set. Plain connections still
// upgrade with STARTTLS when the server offers it.
func (s *smtpMailer) Send(ctx context.Context, from, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := s.cfg.SMTPHost + ":" + strconv.Itoa(s.cfg.SMTPPort)
	var auth sasl.Client
	if s.cfg.SMTPUser != "" {
		auth = sasl.NewPlainClient("", s.cfg.SMTPUser, s.cfg.SMTPPassword)
	}
	msg := strings.NewReader(string(buildMessage(from, to, subject, body)))

	var err error
	if s.cfg.SMTPUseTLS {
		err = smtp.SendMailTLS(addr, auth, from, []string{to}, msg)
	} else {
		err = smtp.SendMail(addr, auth, from, []string{to}, msg)
	}
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		fmt.Sprintf("Date: %s", time.Now().UTC().Format(time.RFC1123Z)),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n" + body)
}
