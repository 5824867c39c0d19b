package email

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
)

func TestComposeMessage(t *testing.T) {
	date := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	raw, err := ComposeMessage(ComposeOptions{
		From:    "Puneeth <me@example.com>",
		To:      []string{"friend@example.com"},
		Subject: "lunch",
		Body:    "see you at noon",
		Date:    date,
	})
	if err != nil {
		t.Fatalf("ComposeMessage: %v", err)
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("CreateReader: %v", err)
	}

	subject, _ := mr.Header.Subject()
	if subject != "lunch" {
		t.Errorf("Subject = %q, want lunch", subject)
	}
	from, _ := mr.Header.AddressList("From")
	if len(from) != 1 || from[0].Address != "me@example.com" {
		t.Errorf("From = %v", from)
	}
	to, _ := mr.Header.AddressList("To")
	if len(to) != 1 || to[0].Address != "friend@example.com" {
		t.Errorf("To = %v", to)
	}
	if got, _ := mr.Header.Date(); !got.Equal(date) {
		t.Errorf("Date = %v, want %v", got, date)
	}
	if id, _ := mr.Header.MessageID(); id == "" {
		t.Error("Message-ID not set")
	}

	var plain, html string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart: %v", err)
		}
		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		body, _ := io.ReadAll(p.Body)
		switch ct {
		case "text/plain":
			plain = string(body)
		case "text/html":
			html = string(body)
		}
	}

	if plain != "see you at noon" {
		t.Errorf("plain part = %q", plain)
	}
	if !strings.Contains(html, "<p>see you at noon</p>") {
		t.Errorf("html part missing paragraph: %q", html)
	}
}

func TestComposeMessage_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts ComposeOptions
	}{
		{"bad from", ComposeOptions{From: "not an address", To: []string{"a@example.com"}}},
		{"no recipients", ComposeOptions{From: "me@example.com"}},
		{"bad recipient", ComposeOptions{From: "me@example.com", To: []string{"nobody"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ComposeMessage(tt.opts); err == nil {
				t.Error("ComposeMessage should error")
			}
		})
	}
}

func TestNormalizeSpokenAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"john dot smith at example dot com", "john.smith@example.com"},
		{"Alice At Mail Dot Org", "alice@mail.org"},
		{"first underscore last at corp dash mail dot io", "first_last@corp-mail.io"},
		{"bob@example.com", "bob@example.com"},
		{"bob @ example.com", "bob@example.com"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeSpokenAddress(tt.in); got != tt.want {
			t.Errorf("NormalizeSpokenAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
