package mail

import (
	"context"
	"log/slog"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// LogTransport writes notifications to the log instead of delivering them.
// It is the default for local development.
type LogTransport struct {
	logger *slog.Logger
}

var _ domain.MailTransport = (*LogTransport)(nil)

func NewLogTransport(logger *slog.Logger) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Send(ctx context.Context, n domain.Notification) error {
	t.logger.InfoContext(ctx, "mail",
		"template", n.Template,
		"recipient", n.Recipient,
		"payload", n.Payload,
	)
	return nil
}
