// Package mail sends transactional email over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	gomail "github.com/go-mail/mail"
	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/infra/config"
	"github.com/oneeyedreaper/onboard/internal/infra/logger"
)

// Sender delivers composed messages.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer implements port.Mailer with go-mail.
type SMTPMailer struct {
	sender  Sender
	from    string
	appName string
	logger  *zap.Logger
}

// NewSMTPMailer dials cfg.Host for every message. TLSMode is one of auto, starttls, ssl, none.
func NewSMTPMailer(cfg config.SMTPSettings, appName string, log *zap.Logger) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	switch strings.ToLower(cfg.TLSMode) {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = nil
	}
	return NewSMTPMailerWithSender(d, cfg.From, appName, log)
}

// NewSMTPMailerWithSender wires the mailer over an explicit sender.
func NewSMTPMailerWithSender(sender Sender, from, appName string, log *zap.Logger) *SMTPMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &SMTPMailer{sender: sender, from: from, appName: appName, logger: log}
}

// SendVerificationEmail sends the email-address confirmation link.
func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, name, link string) error {
	subject := fmt.Sprintf("Verify your %s email address", m.appName)
	text, html := verificationBody(m.appName, name, link)
	return m.send(ctx, to, subject, text, html)
}

// SendPasswordResetEmail sends the password reset link.
func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, to, name, link string) error {
	subject := fmt.Sprintf("Reset your %s password", m.appName)
	text, html := resetBody(m.appName, name, link)
	return m.send(ctx, to, subject, text, html)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, text, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text)
	msg.AddAlternative("text/html", html)

	if err := m.sender.DialAndSend(msg); err != nil {
		m.logger.Error("smtp send failed", zap.String("to", logger.MaskEmail(to)), zap.Error(err))
		return fmt.Errorf("smtp send: %w", err)
	}

	m.logger.Info("email sent", zap.String("to", logger.MaskEmail(to)), zap.String("subject", subject))
	return nil
}

var _ port.Mailer = (*SMTPMailer)(nil)
