package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/infra/logger"
)

// LogMailer writes links to the log instead of sending email. Used when no SMTP host is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a logging mailer.
func NewLogMailer(log *zap.Logger) *LogMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogMailer{logger: log}
}

func (m *LogMailer) SendVerificationEmail(_ context.Context, to, _, link string) error {
	m.logger.Info("verification email", zap.String("to", logger.MaskEmail(to)), zap.String("link", link))
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(_ context.Context, to, _, link string) error {
	m.logger.Info("password reset email", zap.String("to", logger.MaskEmail(to)), zap.String("link", link))
	return nil
}

var _ port.Mailer = (*LogMailer)(nil)
