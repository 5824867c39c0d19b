package httpkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestNewClient_Timeouts(t *testing.T) {
	if c := NewClient(); c.Timeout != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", c.Timeout)
	}
	if c := NewClient(WithTimeout(5 * time.Second)); c.Timeout != 5*time.Second {
		t.Errorf("custom timeout = %v, want 5s", c.Timeout)
	}
}

func TestNewClient_UserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		opts   []ClientOption
		preset string
		want   string
	}{
		{"custom", []ClientOption{WithUserAgent("TestBot/1.0")}, "", "TestBot/1.0"},
		{"default", nil, "", "voice-assistant/"},
		{"preset kept", nil, "Mine/2.0", "Mine/2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
			if tt.preset != "" {
				req.Header.Set("User-Agent", tt.preset)
			}
			resp, err := NewClient(tt.opts...).Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if !strings.HasPrefix(string(body), tt.want) {
				t.Errorf("User-Agent = %q, want prefix %q", body, tt.want)
			}
		})
	}
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"name":"London","temp":12.5}`)
		case "/bad":
			fmt.Fprint(w, `{not json`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"city not found"}`)
		}
	}))
	defer srv.Close()

	client := NewClient()
	ctx := context.Background()

	var got struct {
		Name string  `json:"name"`
		Temp float64 `json:"temp"`
	}
	if err := GetJSON(ctx, client, srv.URL+"/ok", &got); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if got.Name != "London" || got.Temp != 12.5 {
		t.Errorf("decoded %+v", got)
	}

	err := GetJSON(ctx, client, srv.URL+"/missing", &got)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusNotFound || !strings.Contains(se.Body, "city not found") {
		t.Errorf("StatusError = %+v", se)
	}

	if err := GetJSON(ctx, client, srv.URL+"/bad", &got); err == nil {
		t.Error("GetJSON on malformed body should error")
	}
}

func TestReadErrorBody(t *testing.T) {
	if got := ReadErrorBody(io.NopCloser(strings.NewReader("boom")), 100); got != "boom" {
		t.Errorf("ReadErrorBody = %q, want boom", got)
	}
	if got := ReadErrorBody(io.NopCloser(strings.NewReader("abcdefgh")), 3); got != "abc" {
		t.Errorf("truncated = %q, want abc", got)
	}
	if got := ReadErrorBody(nil, 10); got != "" {
		t.Errorf("nil = %q, want empty", got)
	}
}

type failingRoundTripper struct {
	failures int
	calls    int
	err      error
}

func (f *failingRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		if f.err != nil {
			return nil, f.err
		}
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	}
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader("ok")),
	}, nil
}

func TestRetryTransport(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"success first try", 0, nil, 1, false},
		{"recovers", 1, nil, 2, false},
		{"exhausts", 10, nil, 3, true},
		{"not retryable", 10, errors.New("tls: bad certificate"), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &failingRoundTripper{failures: tt.failures, err: tt.err}
			rt := &retryTransport{base: ft, count: 2, delay: time.Millisecond}

			req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
			resp, err := rt.RoundTrip(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RoundTrip error = %v, wantErr %v", err, tt.wantErr)
			}
			if resp != nil {
				resp.Body.Close()
			}
			if ft.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", ft.calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryTransport_RespectsContextCancellation(t *testing.T) {
	ft := &failingRoundTripper{failures: 10}
	rt := &retryTransport{base: ft, count: 5, delay: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.com", nil)

	start := time.Now()
	if _, err := rt.RoundTrip(req); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("retry did not stop on context cancellation")
	}
}

func TestRetryTransport_NoRetryWithoutGetBody(t *testing.T) {
	ft := &failingRoundTripper{failures: 10}
	rt := &retryTransport{base: ft, count: 3, delay: time.Millisecond}

	req, _ := http.NewRequest(http.MethodPost, "http://example.com", io.NopCloser(strings.NewReader("x")))
	req.GetBody = nil
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected error")
	}
	if ft.calls != 1 {
		t.Errorf("calls = %d, want 1", ft.calls)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{syscall.EHOSTUNREACH, true},
		{&net.OpError{Op: "dial", Err: syscall.ENETUNREACH}, true},
		{fmt.Errorf("wrapped: %w", syscall.ECONNREFUSED), true},
		{syscall.ECONNRESET, false},
		{errors.New("other"), false},
	}
	for _, tt := range tests {
		if got := isDialFailure(tt.err); got != tt.want {
			t.Errorf("isDialFailure(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestRetryTransport_Status(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		status    int
		wantCalls int
		wantCode  int
	}{
		{"429 get", http.MethodGet, http.StatusTooManyRequests, 2, http.StatusOK},
		{"503 get", http.MethodGet, http.StatusServiceUnavailable, 2, http.StatusOK},
		{"500 get", http.MethodGet, http.StatusInternalServerError, 1, http.StatusInternalServerError},
		{"429 post", http.MethodPost, http.StatusTooManyRequests, 1, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.Header().Set("Retry-After", "0")
					w.WriteHeader(tt.status)
					return
				}
				fmt.Fprint(w, "ok")
			}))
			defer srv.Close()

			client := NewClient(WithRetry(2, time.Millisecond))
			req, _ := http.NewRequest(tt.method, srv.URL, nil)
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("Do: %v", err)
			}
			resp.Body.Close()
			if n := int(calls.Load()); resp.StatusCode != tt.wantCode || n != tt.wantCalls {
				t.Errorf("status %d after %d calls, want %d after %d", resp.StatusCode, n, tt.wantCode, tt.wantCalls)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-4", 0},
		{now.Add(2 * time.Second).Format(http.TimeFormat), 2 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in, now); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
