package services

import (
	"context"
	"log/slog"

	pkglogger "github.com/tobiasgrant/storefront/pkg/logger"
)

// EmailSender delivers transactional account mail. The auth flow treats
// delivery as best-effort; a failed send never fails the operation.
type EmailSender interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendPasswordChanged(ctx context.Context, email string) error
}

// LogEmailSender writes would-be deliveries to the log instead of sending.
// Used in development and anywhere no mail provider is wired up.
type LogEmailSender struct {
	logger *slog.Logger
}

func NewLogEmailSender(logger *slog.Logger) *LogEmailSender {
	return &LogEmailSender{logger: logger}
}

func (s *LogEmailSender) SendWelcome(ctx context.Context, email, name string) error {
	s.logger.Info("email: welcome",
		slog.String("to", pkglogger.SanitizedEmail(email)),
		slog.String("name", name))
	return nil
}

func (s *LogEmailSender) SendPasswordChanged(ctx context.Context, email string) error {
	s.logger.Info("email: password changed",
		slog.String("to", pkglogger.SanitizedEmail(email)))
	return nil
}
