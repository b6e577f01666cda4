package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport writes the notification to the log instead of delivering it.
// Used in development and when no mail relay is configured.
type LogTransport struct {
	logger *zap.Logger
}

// NewLogTransport returns a LogTransport. A nil logger discards output.
func NewLogTransport(logger *zap.Logger) *LogTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogTransport{logger: logger.Named("notify")}
}

// Name implements Transport.
func (t *LogTransport) Name() string { return "log" }

// Send implements Transport.
func (t *LogTransport) Send(_ context.Context, p Payload) error {
	t.logger.Info("contact notification (not delivered)",
		zap.String("to", p.To),
		zap.String("from", p.From),
		zap.String("reply_to", p.ReplyTo),
		zap.String("subject", p.Subject),
		zap.String("body", p.TextBody),
	)
	return nil
}
