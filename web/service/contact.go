package service

import (
	"context"
	"strings"

	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web/mail"
)

type ContactService struct {
	sender mail.Sender
}

func NewContactService(sender mail.Sender) *ContactService {
	return &ContactService{sender: sender}
}

// Send makes a single delivery attempt and reports its outcome.
func (s *ContactService) Send(ctx context.Context, msg mail.ContactMessage) error {
	msg = mail.ContactMessage{
		Name:    strings.TrimSpace(msg.Name),
		Email:   strings.TrimSpace(msg.Email),
		Phone:   strings.TrimSpace(msg.Phone),
		Message: strings.TrimSpace(msg.Message),
	}
	if s.sender == nil {
		return mail.ErrNotConfigured
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		logger.Warning("Error sending contact message:", err)
		return err
	}
	logger.Infof("contact message from %q delivered", msg.Email)
	return nil
}
