package mail

import (
	"context"
	"fmt"
	"html"

	"github.com/inkpost/blog/config"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// TelegramSender posts the notification to a single chat through a bot.
type TelegramSender struct {
	bot    *telego.Bot
	chatId int64
}

// NewTelegramSender creates the bot client. Extra options are passed to telego.
func NewTelegramSender(cfg *config.MailConfig, options ...telego.BotOption) (*TelegramSender, error) {
	if !cfg.HasTelegram() {
		return nil, ErrNotConfigured
	}
	bot, err := telego.NewBot(cfg.TelegramToken, options...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot, chatId: cfg.TelegramChatID}, nil
}

func (t *TelegramSender) Channel() string {
	return "telegram"
}

func telegramText(msg ContactMessage) string {
	return fmt.Sprintf("<b>%s</b>\n\nName: %s\nEmail: %s\nPhone: %s\nMessage: %s",
		html.EscapeString(Subject),
		html.EscapeString(msg.Name),
		html.EscapeString(msg.Email),
		html.EscapeString(msg.Phone),
		html.EscapeString(msg.Message),
	)
}

func (t *TelegramSender) Send(ctx context.Context, msg ContactMessage) error {
	params := tu.Message(tu.ID(t.chatId), telegramText(msg)).WithParseMode(telego.ModeHTML)
	if _, err := t.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
