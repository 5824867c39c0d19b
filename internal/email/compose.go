package email

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/yuin/goldmark"
)

// ComposeOptions holds everything needed to build a complete RFC 5322
// message from a dictated email.
type ComposeOptions struct {
	// From is the sender address (e.g., "Name <addr@host>").
	From string

	// To is the list of recipient addresses.
	To []string

	// Subject is the message subject line.
	Subject string

	// Body is the dictated text. It is sent as text/plain and as a
	// rendered text/html alternative.
	Body string

	// Date defaults to the current time.
	Date time.Time
}

// ComposeMessage renders a dictated email as a multipart/alternative
// message: the text as spoken plus an HTML rendering of it.
func ComposeMessage(opts ComposeOptions) ([]byte, error) {
	h, err := composeHeader(opts)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(opts.Body)
	html, err := renderHTML(text)
	if err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}
	alternatives := []struct {
		mediaType string
		content   string
	}{
		{"text/plain", text},
		{"text/html", html},
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("start message: %w", err)
	}
	iw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("start alternatives: %w", err)
	}
	for _, alt := range alternatives {
		var ph mail.InlineHeader
		ph.SetContentType(alt.mediaType, map[string]string{"charset": "utf-8"})
		pw, err := iw.CreatePart(ph)
		if err != nil {
			return nil, fmt.Errorf("%s part: %w", alt.mediaType, err)
		}
		if _, err := io.WriteString(pw, alt.content); err != nil {
			pw.Close()
			return nil, fmt.Errorf("%s part: %w", alt.mediaType, err)
		}
		if err := pw.Close(); err != nil {
			return nil, fmt.Errorf("%s part: %w", alt.mediaType, err)
		}
	}
	if err := iw.Close(); err != nil {
		return nil, fmt.Errorf("finish alternatives: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finish message: %w", err)
	}
	return buf.Bytes(), nil
}

// composeHeader sets the envelope-facing headers of a message.
func composeHeader(opts ComposeOptions) (mail.Header, error) {
	var h mail.Header

	from, err := mail.ParseAddress(opts.From)
	if err != nil {
		return h, fmt.Errorf("sender %q: %w", opts.From, err)
	}
	if len(opts.To) == 0 {
		return h, fmt.Errorf("no recipients")
	}
	to := make([]*mail.Address, 0, len(opts.To))
	for _, a := range opts.To {
		addr, err := mail.ParseAddress(a)
		if err != nil {
			return h, fmt.Errorf("recipient %q: %w", a, err)
		}
		to = append(to, addr)
	}

	date := opts.Date
	if date.IsZero() {
		date = time.Now()
	}

	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", to)
	h.SetSubject(opts.Subject)
	h.SetDate(date)
	if err := h.GenerateMessageID(); err != nil {
		return h, fmt.Errorf("message-id: %w", err)
	}
	return h, nil
}

// htmlPage wraps the rendered body for HTML mail clients.
const htmlPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; line-height: 1.5;">
%s</body></html>`

// renderHTML converts the dictated text with goldmark, which keeps
// paragraph breaks and escapes any raw HTML.
func renderHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return fmt.Sprintf(htmlPage, buf.String()), nil
}

// NormalizeSpokenAddress turns a dictated address such as
// "john dot smith at example dot com" into "john.smith@example.com".
// Input that already contains "@" only has its spaces removed.
func NormalizeSpokenAddress(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.Contains(s, "@") {
		s = strings.ReplaceAll(" "+s+" ", " at ", "@")
	}
	s = strings.ReplaceAll(" "+s+" ", " dot ", ".")
	s = strings.ReplaceAll(s, " underscore ", "_")
	s = strings.ReplaceAll(s, " dash ", "-")
	return strings.Join(strings.Fields(s), "")
}
