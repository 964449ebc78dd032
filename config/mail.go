package config

import (
	"os"
	"strconv"
	"time"
)

// MailConfig holds the outbound notification settings for the contact form.
type MailConfig struct {
	Email    string
	Password string
	Host     string
	Port     int
	Timeout  time.Duration

	TelegramToken  string
	TelegramChatID int64
}

// GetMailConfig reads mail settings. MY_EMAIL and MY_PASSWORD are accepted
// as fallbacks for existing .env files.
func GetMailConfig() MailConfig {
	cfg := MailConfig{
		Email:         getEnvString("MAIL_EMAIL", os.Getenv("MY_EMAIL")),
		Password:      getEnvString("MAIL_PASSWORD", os.Getenv("MY_PASSWORD")),
		Host:          getEnvString("MAIL_HOST", "smtp.gmail.com"),
		Port:          getEnvInt("MAIL_PORT", 465),
		Timeout:       getEnvDuration("MAIL_TIMEOUT", 30*time.Second),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}
	if id, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64); err == nil {
		cfg.TelegramChatID = id
	}
	return cfg
}

// HasSMTP reports whether SMTP credentials are present.
func (c MailConfig) HasSMTP() bool {
	return c.Email != "" && c.Password != ""
}

// HasTelegram reports whether the Telegram channel is configured.
func (c MailConfig) HasTelegram() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
