package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindConfig_Explicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	os.WriteFile(path, []byte("assistant:\n  name: Ava\n"), 0600)

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("FindConfig(%q) = %q, want %q", path, got, path)
	}
}

func TestFindConfig_ExplicitMissing(t *testing.T) {
	_, err := FindConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("FindConfig with missing explicit path should error")
	}
}

func TestFindConfig_CWD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("log_level: debug\n"), 0600)

	testChdir(t, dir)

	got, err := FindConfig("")
	if err != nil {
		t.Fatalf("FindConfig(\"\") error: %v", err)
	}
	if got != "config.yaml" {
		t.Errorf("FindConfig(\"\") = %q, want %q", got, "config.yaml")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("weather:\n  api_key: ${ASSISTANT_TEST_WEATHER_KEY}\n"), 0600)
	t.Setenv("ASSISTANT_TEST_WEATHER_KEY", "secret123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Weather.APIKey != "secret123" {
		t.Errorf("api_key = %q, want %q", cfg.Weather.APIKey, "secret123")
	}
	if !cfg.Weather.Configured() {
		t.Error("weather should be configured")
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("data_dir: /var/lib/assistant\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"assistant name", cfg.Assistant.Name, "Puneeth"},
		{"default city", cfg.Assistant.DefaultCity, "London"},
		{"db path", cfg.Reminders.DBPath, "/var/lib/assistant/assistant.db"},
		{"speech mode", cfg.Speech.Mode, "typed"},
		{"listen timeout", cfg.Speech.ListenTimeoutSec, 15},
		{"mqtt topic", cfg.MQTT.Topic, "home/device"},
		{"sentences", cfg.Encyclopedia.Sentences, 2},
		{"llm provider", cfg.LLM.Provider, "openai"},
		{"llm model", cfg.LLM.Model, "gpt-3.5-turbo"},
		{"llm max tokens", cfg.LLM.MaxTokens, 250},
		{"url template", cfg.Launcher.URLTemplate, "https://www.%s.com"},
		{"smtp port untouched without host", cfg.Email.SMTP.Port, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if cfg.Reminders.RestorePending {
		t.Error("restore_pending should default to false")
	}
	if cfg.LLM.Temperature == nil || *cfg.LLM.Temperature != 0.7 {
		t.Errorf("llm temperature = %v, want 0.7", cfg.LLM.Temperature)
	}
}

func TestLoad_ExplicitZeroTemperature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("llm:\n  temperature: 0\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.LLM.Temperature == nil || *cfg.LLM.Temperature != 0 {
		t.Errorf("temperature = %v, want explicit 0", cfg.LLM.Temperature)
	}
}

func TestLoad_OllamaDefaultModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("llm:\n  provider: ollama\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.LLM.Model != "qwen3:4b" {
		t.Errorf("model = %q, want qwen3:4b", cfg.LLM.Model)
	}
	if !cfg.LLM.Configured() {
		t.Error("ollama should be configured without an API key")
	}
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		"ASSISTANT_NAME":      "Jarvis",
		"DEFAULT_CITY":        "Pune",
		"SMTP_HOST":           "smtp.example.com",
		"SMTP_PORT":           "2525",
		"SMTP_USERNAME":       "me@example.com",
		"SMTP_PASSWORD":       "pw",
		"OPENWEATHER_API_KEY": "wk",
		"MQTT_BROKER":         "broker.local",
		"OPENAI_API_KEY":      "sk-test",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg, err := FromEnv(lookup)
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	if cfg.Assistant.Name != "Jarvis" {
		t.Errorf("name = %q, want Jarvis", cfg.Assistant.Name)
	}
	if cfg.Assistant.DefaultCity != "Pune" {
		t.Errorf("city = %q, want Pune", cfg.Assistant.DefaultCity)
	}
	if cfg.Email.SMTP.Port != 2525 {
		t.Errorf("smtp port = %d, want 2525", cfg.Email.SMTP.Port)
	}
	if !cfg.Email.SMTP.StartTLS {
		t.Error("smtp starttls should default to true on port 2525")
	}
	if cfg.Email.From != "me@example.com" {
		t.Errorf("from = %q, want smtp username", cfg.Email.From)
	}
	if cfg.MQTT.Broker != "mqtt://broker.local:1883" {
		t.Errorf("broker = %q, want mqtt://broker.local:1883", cfg.MQTT.Broker)
	}
	if !cfg.LLM.Configured() {
		t.Error("llm should be configured from OPENAI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestFromEnv_BadPort(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "SMTP_PORT" {
			return "abc", true
		}
		return "", false
	}
	if _, err := FromEnv(lookup); err == nil {
		t.Fatal("FromEnv with non-numeric SMTP_PORT should error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"command mode without command", func(c *Config) { c.Speech.Mode = "command" }, true},
		{"command mode with command", func(c *Config) {
			c.Speech.Mode = "command"
			c.Speech.RecognizeCommand = []string{"stt"}
		}, false},
		{"bad speech mode", func(c *Config) { c.Speech.Mode = "psychic" }, true},
		{"bad broker scheme", func(c *Config) { c.MQTT.Broker = "http://x:1" }, true},
		{"good broker", func(c *Config) { c.MQTT.Broker = "mqtts://x:8883" }, false},
		{"bad provider", func(c *Config) { c.LLM.Provider = "eliza" }, true},
		{"negative temperature", func(c *Config) { t := -0.1; c.LLM.Temperature = &t }, true},
		{"zero temperature", func(c *Config) { t := 0.0; c.LLM.Temperature = &t }, false},
		{"bad url template", func(c *Config) { c.Launcher.URLTemplate = "https://example.com" }, true},
		{"app without command", func(c *Config) {
			c.Launcher.Apps = []AppConfig{{Name: "vim"}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"TRACE", LevelTrace},
		{" debug ", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLogLevel(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfig_Logger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "trace", LogFormat: "json"}
	cfg.Logger(&buf).Log(context.Background(), LevelTrace, "raw transcript", "text", "what time is it")

	out := buf.String()
	if !strings.Contains(out, `"level":"TRACE"`) || !strings.Contains(out, `"text":"what time is it"`) {
		t.Errorf("log output = %s", out)
	}

	buf.Reset()
	(&Config{}).Logger(&buf).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug logged at default level: %s", buf.String())
	}
}

func TestReplaceLogLevelNames(t *testing.T) {
	a := ReplaceLogLevelNames(nil, slog.Any(slog.LevelKey, LevelTrace))
	if a.Value.String() != "TRACE" {
		t.Errorf("level rendered as %q, want TRACE", a.Value.String())
	}
}

// testChdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir for Go < 1.24).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
