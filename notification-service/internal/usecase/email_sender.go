package usecase

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender пишет письма в лог вместо отправки
type LogSender struct {
	from   string
	logger zerolog.Logger
}

func NewLogSender(from string, logger zerolog.Logger) *LogSender {
	return &LogSender{
		from:   from,
		logger: logger.With().Str("component", "log_sender").Logger(),
	}
}

func (s *LogSender) Send(_ context.Context, to, subject, message string) error {
	s.logger.Info().
		Str("from", s.from).
		Str("to", to).
		Str("subject", subject).
		Msg(message)
	return nil
}
