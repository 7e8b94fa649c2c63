package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tickr/study-api/pkg/security"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer delivers verification messages
type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
}

type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(c SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		from:   c.Sender,
		dialer: gomail.NewDialer(c.Host, c.Port, c.Sender, c.Password),
	}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, text, html string) error {
	if to == m.from {
		return errors.New("invalid email address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text)
	msg.AddAlternative("text/html", html)

	return m.dialer.DialAndSend(msg)
}

// LogMailer writes messages to the log instead of sending them. Used when
// mail delivery is disabled in development.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, text, _ string) error {
	zap.L().Info("Verification mail (delivery disabled)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", text))
	return nil
}

var codeMailSubjects = map[security.Purpose]string{
	security.PurposeSignup:         "[Tickr] Verify your email",
	security.PurposeEmailChange:    "[Tickr] Email change verification code",
	security.PurposePasswordChange: "[Tickr] Password change verification code",
}

func codeMail(p security.Purpose, code string, ttl time.Duration) (subject, text, html string) {
	minutes := int(ttl.Minutes())

	subject = codeMailSubjects[p]
	text = fmt.Sprintf("Your verification code is %s. Enter it within %d minutes.", code, minutes)
	html = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h2 style="color: #0056b3;">%s</h2>
  <p>Your verification code is:</p>
  <p style="font-size: 24px; font-weight: bold; color: #0056b3; background-color: #f0f0f0; padding: 10px; border-radius: 5px; display: inline-block;">%s</p>
  <p>The code is valid for %d minutes.</p>
</div>`, subject, code, minutes)

	return subject, text, html
}
