package mail

import (
	"context"
	"fmt"

	"github.com/inkpost/blog/config"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/util/common"
)

// Recorder observes the outcome of every delivery attempt.
type Recorder interface {
	RecordMail(channel string, err error)
}

// Multi sends through every channel in order and joins their errors.
type Multi struct {
	senders  []Sender
	recorder Recorder
}

func NewMulti(recorder Recorder, senders ...Sender) *Multi {
	return &Multi{senders: senders, recorder: recorder}
}

func (m *Multi) Channel() string {
	return "multi"
}

// Len returns the number of channels.
func (m *Multi) Len() int {
	return len(m.senders)
}

func (m *Multi) Send(ctx context.Context, msg ContactMessage) error {
	if len(m.senders) == 0 {
		return ErrNotConfigured
	}
	var errs []error
	for _, s := range m.senders {
		err := s.Send(ctx, msg)
		if m.recorder != nil {
			m.recorder.RecordMail(s.Channel(), err)
		}
		if err != nil {
			logger.Warningf("[%s] contact notification failed: %v", s.Channel(), err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Channel(), err))
			continue
		}
		logger.Infof("[%s] contact notification sent", s.Channel())
	}
	return common.Combine(errs...)
}

// NewFromConfig builds a Multi with every channel cfg enables. SMTP is always
// included so that missing credentials surface as ErrNotConfigured.
func NewFromConfig(cfg *config.MailConfig, recorder Recorder) *Multi {
	senders := []Sender{NewSMTPSender(cfg)}
	if cfg.HasTelegram() {
		tg, err := NewTelegramSender(cfg)
		if err != nil {
			logger.Warning("telegram notifications disabled:", err)
		} else {
			senders = append(senders, tg)
		}
	}
	return NewMulti(recorder, senders...)
}
