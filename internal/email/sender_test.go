package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testSender(cfg Config) *Sender {
	cfg.ApplyDefaults()
	return NewSender(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSender_NotConfigured(t *testing.T) {
	s := testSender(Config{})
	if err := s.Send(context.Background(), "a@example.com", "s", "b"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Send error = %v, want ErrNotConfigured", err)
	}
}

func TestSender_Send(t *testing.T) {
	s := testSender(Config{
		SMTP:       SMTPConfig{Host: "smtp.example.com", Username: "me@example.com", Password: "pw"},
		IMAP:       IMAPConfig{Host: "imap.example.com"},
		SentFolder: "Sent",
	})

	var sentTo []string
	var sentMsg []byte
	s.send = func(_ context.Context, cfg SMTPConfig, from string, rcpts []string, msg []byte) error {
		if cfg.Port != 587 || from != "me@example.com" {
			t.Errorf("send cfg = %+v from %q", cfg, from)
		}
		sentTo = rcpts
		sentMsg = msg
		return nil
	}
	var appended string
	s.appendSent = func(_ context.Context, cfg IMAPConfig, folder string, msg []byte) error {
		appended = folder
		return errors.New("imap down")
	}

	if err := s.Send(context.Background(), "friend@example.com", "hello", "body text"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sentTo) != 1 || sentTo[0] != "friend@example.com" {
		t.Errorf("recipients = %v", sentTo)
	}
	if !strings.Contains(string(sentMsg), "Subject: hello") {
		t.Errorf("message missing subject:\n%s", sentMsg)
	}
	if appended != "Sent" {
		t.Errorf("appended to %q, want Sent", appended)
	}
}

func TestSender_SendFailure(t *testing.T) {
	s := testSender(Config{SMTP: SMTPConfig{Host: "h", Username: "me@example.com"}})
	want := errors.New("connection refused")
	s.send = func(context.Context, SMTPConfig, string, []string, []byte) error { return want }
	s.appendSent = func(context.Context, IMAPConfig, string, []byte) error {
		t.Error("appendSent called without sent folder")
		return nil
	}

	if err := s.Send(context.Background(), "friend@example.com", "s", "b"); !errors.Is(err, want) {
		t.Errorf("Send error = %v, want %v", err, want)
	}
}
