package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-intake/internal/config"
)

// EmailSender delivers e-mail notifications.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogEmailSender records e-mails in the log instead of delivering them.
type LogEmailSender struct {
	from   string
	name   string
	logger *zap.Logger
}

// NewLogEmailSender creates the stub sender.
func NewLogEmailSender(cfg config.NotificationConfig, logger *zap.Logger) *LogEmailSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogEmailSender{from: cfg.EmailFrom, name: cfg.FromName, logger: logger}
}

func (s *LogEmailSender) Send(_ context.Context, to, subject, body string) error {
	if strings.TrimSpace(s.from) == "" {
		return nil
	}
	s.logger.Info("sendEmailNotificationStub",
		zap.String("from", s.from),
		zap.String("from_name", s.name),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_length", len(body)))
	return nil
}
