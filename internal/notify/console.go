package notify

import (
	"context"
	"strings"

	logx "remindd/pkg/logx"
)

// Console writes messages to the log instead of a real transport.
// Handy for local runs and for exercising the processor without bot
// credentials. An empty recipient still counts as a delivery failure so
// the retry semantics match the real transports.
type Console struct {
	log logx.Logger
}

func NewConsole(log logx.Logger) *Console {
	return &Console{log: log}
}

func (c *Console) Send(_ context.Context, recipient, subject, body string) error {
	if strings.TrimSpace(recipient) == "" {
		return ErrNoRecipient
	}
	c.log.Info("notification",
		logx.String("recipient", recipient),
		logx.String("subject", subject),
		logx.String("body", body),
	)
	return nil
}
