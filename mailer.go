package identity

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPMailer delivers verification codes over SMTP
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a Mailer that sends through the given SMTP relay
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

var _ Mailer = (*SMTPMailer)(nil)

// SendVerificationCode delivers the code to the address. gomail has no
// context support; cancellation is handled by the per-call timeout of the
// enclosing workflow.
func (s *SMTPMailer) SendVerificationCode(_ context.Context, email, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Confirm your email address")

	body := fmt.Sprintf(`
		<h3>Confirm your email address</h3>
		<p>Your verification code is: <strong>%s</strong></p>
		<p>If you did not request this code, you can ignore this email.</p>
	`, code)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification code: %w", err)
	}

	return nil
}
