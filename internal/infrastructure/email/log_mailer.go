package email

import (
	"context"

	"github.com/storefront/backend/internal/application/notification"
	"go.uber.org/zap"
)

// LogMailer logs messages instead of sending them. Used in development and
// when no mail provider is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a new LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message and reports success
func (m *LogMailer) Send(ctx context.Context, msg notification.Message) error {
	m.logger.Info("Email suppressed (log mailer)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// Ensure LogMailer implements Mailer
var _ notification.Mailer = (*LogMailer)(nil)
