package auth

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer writes codes to the log instead of sending mail. It stands in
// for a real delivery transport in development.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendCode(_ context.Context, email, code string) error {
	m.logger.Info("otp code", zap.String("email", email), zap.String("code", code))
	return nil
}
