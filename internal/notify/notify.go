// Package notify defines the delivery boundary for reminder messages and
// its concrete transports (telegram, console).
package notify

import (
	"context"
	"errors"
	"strings"

	logx "remindd/pkg/logx"
)

var (
	ErrNoRecipient = errors.New("notify: missing recipient")
)

// Notifier delivers one message to one recipient address.
// A returned error means the message may not have arrived; callers treat
// timeouts the same as any other delivery failure.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Config selects and tunes the delivery transport.
type Config struct {
	Driver   string // "telegram" or "console"
	Telegram TelegramConfig
}

// New builds the configured notifier.
func New(cfg Config, log logx.Logger) (Notifier, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "telegram":
		return NewTelegram(cfg.Telegram, log)
	case "console":
		return NewConsole(log), nil
	default:
		return nil, errors.New("unknown notifier driver: " + cfg.Driver)
	}
}
