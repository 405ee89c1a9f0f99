package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	logx "remindd/pkg/logx"
)

// TelegramConfig configures the telegram transport.
type TelegramConfig struct {
	Token       string
	SendTimeout time.Duration // per-message HTTP timeout; default 10s
	RatePerSec  int           // outgoing message budget; default 3
}

// Telegram sends reminder messages as telegram chat messages.
// The recipient address is the chat id in decimal form.
type Telegram struct {
	bot     *tele.Bot
	limiter *rate.Limiter
	log     logx.Logger
}

func NewTelegram(cfg TelegramConfig, log logx.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 3
	}

	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Client: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot: b,
		// Token bucket: burst = rate per sec, so short spikes don't block too hard.
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     log,
	}, nil
}

func (t *Telegram) Send(ctx context.Context, recipient, subject, body string) error {
	chatID, err := parseRecipient(recipient)
	if err != nil {
		return err
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	text := subject
	if body != "" {
		text += "\n\n" + body
	}
	if _, err := t.bot.Send(tele.ChatID(chatID), text); err != nil {
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}
	t.log.Debug("message delivered", logx.Int64("chat_id", chatID))
	return nil
}

func parseRecipient(recipient string) (int64, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return 0, ErrNoRecipient
	}
	id, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid recipient %q: %w", recipient, err)
	}
	return id, nil
}
