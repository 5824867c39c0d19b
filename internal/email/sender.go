package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// sendTimeout bounds a single delivery including the optional IMAP copy.
const sendTimeout = 60 * time.Second

// ErrNotConfigured is returned by Send when SMTP settings are missing.
var ErrNotConfigured = errors.New("email is not configured")

// Sender delivers dictated messages over SMTP.
type Sender struct {
	cfg    Config
	logger *slog.Logger

	// send is SendMail; swapped in tests.
	send func(ctx context.Context, cfg SMTPConfig, from string, recipients []string, msg []byte) error
	// appendSent is AppendSent; swapped in tests.
	appendSent func(ctx context.Context, cfg IMAPConfig, folder string, msg []byte) error
}

// NewSender creates a Sender for the given configuration.
func NewSender(cfg Config, logger *slog.Logger) *Sender {
	return &Sender{
		cfg:        cfg,
		logger:     logger,
		send:       SendMail,
		appendSent: AppendSent,
	}
}

// Send composes and delivers one message. A failed copy to the Sent
// folder is logged, not returned: the recipient already has the mail.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	if !s.cfg.Configured() {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	msg, err := ComposeMessage(ComposeOptions{
		From:    s.cfg.From,
		To:      []string{to},
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	if err := s.send(ctx, s.cfg.SMTP, s.cfg.From, []string{to}, msg); err != nil {
		return err
	}
	s.logger.Info("email sent", "to", to, "subject", subject, "bytes", len(msg))

	if s.cfg.AppendConfigured() {
		if err := s.appendSent(ctx, s.cfg.IMAP, s.cfg.SentFolder, msg); err != nil {
			s.logger.Warn("failed to store sent copy", "folder", s.cfg.SentFolder, "error", err)
		}
	}

	return nil
}
