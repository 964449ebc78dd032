package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/inkpost/blog/config"
	"github.com/inkpost/blog/logger"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender sends notifications over implicit TLS with PLAIN auth,
// from the owner's address to the same address.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
}

func NewSMTPSender(cfg *config.MailConfig) *SMTPSender {
	return &SMTPSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Email,
		password: cfg.Password,
		timeout:  cfg.Timeout,
	}
}

func (s *SMTPSender) Channel() string {
	return "smtp"
}

func (s *SMTPSender) buildMessage(msg ContactMessage) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(s.username); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(s.username); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	if msg.Email != "" {
		if err := m.ReplyTo(msg.Email); err != nil {
			logger.Debugf("ignoring reply-to %q: %v", msg.Email, err)
		}
	}
	m.Subject(Subject)
	m.SetBodyString(gomail.TypeTextHTML, HTMLBody(msg))
	return m, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg ContactMessage) error {
	if s.username == "" || s.password == "" || s.host == "" {
		return ErrNotConfigured
	}

	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSSL(),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTimeout(s.timeout),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger.Debugf("sending contact notification via %s:%d", s.host, s.port)
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
