// Package config handles assistant configuration loading.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/email"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/assistant/config.yaml, /etc/assistant/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "assistant", "config.yaml"))
	}

	paths = append(paths, "/etc/assistant/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all assistant configuration. Every collaborator section
// is optional; an unconfigured collaborator is reported to the user as
// "not configured" instead of failing startup.
type Config struct {
	Assistant    AssistantConfig    `yaml:"assistant"`
	Speech       SpeechConfig       `yaml:"speech"`
	Reminders    RemindersConfig    `yaml:"reminders"`
	Email        email.Config       `yaml:"email"`
	Weather      WeatherConfig      `yaml:"weather"`
	MQTT         MQTTConfig         `yaml:"mqtt"`
	Encyclopedia EncyclopediaConfig `yaml:"encyclopedia"`
	LLM          LLMConfig          `yaml:"llm"`
	Launcher     LauncherConfig     `yaml:"launcher"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	DataDir      string             `yaml:"data_dir"`
	LogLevel     string             `yaml:"log_level"`
	LogFormat    string             `yaml:"log_format"` // text (default) or json
}

// AssistantConfig holds identity settings.
type AssistantConfig struct {
	Name        string `yaml:"name"`
	DefaultCity string `yaml:"default_city"`
}

// SpeechConfig selects the speech-to-text and text-to-speech backends.
type SpeechConfig struct {
	// Mode is "command" (external STT command) or "typed" (read
	// utterances from stdin). Default: typed.
	Mode string `yaml:"mode"`

	// RecognizeCommand is run once per listen attempt. It must print
	// the transcript on stdout and exit 0; exit status 2 signals a
	// network failure of the recognition backend.
	RecognizeCommand []string `yaml:"recognize_command"`

	// SpeakCommand receives the text to speak as its final argument.
	// Empty selects a platform default (say, espeak, PowerShell).
	SpeakCommand []string `yaml:"speak_command"`

	// Mute disables audible output; spoken lines are still echoed.
	Mute bool `yaml:"mute"`

	// ListenTimeoutSec caps a single recognition attempt. Default: 15.
	ListenTimeoutSec int `yaml:"listen_timeout_sec"`
}

// RemindersConfig controls the reminder store.
type RemindersConfig struct {
	// DBPath is the SQLite file. Default: <data_dir>/assistant.db.
	DBPath string `yaml:"db_path"`

	// RestorePending re-arms reminders left pending by a previous run.
	// Off by default: reminders live for a single session.
	RestorePending bool `yaml:"restore_pending"`
}

// WeatherConfig holds OpenWeather settings.
type WeatherConfig struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Units       string `yaml:"units"`
	CacheTTLSec int    `yaml:"cache_ttl_sec"`
}

// Configured reports whether a weather API key is present.
func (c WeatherConfig) Configured() bool {
	return c.APIKey != ""
}

// MQTTConfig holds broker settings for smart home device commands.
type MQTTConfig struct {
	// Broker is a URL such as mqtt://host:1883 or mqtts://host:8883.
	Broker   string `yaml:"broker"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Topic receives device commands. Default: home/device.
	Topic string `yaml:"topic"`

	// DeviceName namespaces the availability topic and client ID.
	DeviceName string `yaml:"device_name"`
}

// Configured reports whether a broker is set.
func (c MQTTConfig) Configured() bool {
	return c.Broker != ""
}

// EncyclopediaConfig holds Wikipedia lookup settings.
type EncyclopediaConfig struct {
	Disabled  bool   `yaml:"disabled"`
	BaseURL   string `yaml:"base_url"`
	Sentences int    `yaml:"sentences"`
}

// LLMConfig selects the language model used as the last fallback.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai or ollama
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature *float64 `yaml:"temperature"` // nil: 0.7; 0 is honored
	MaxTokens   int     `yaml:"max_tokens"`
}

// Configured reports whether the language model can be called. Ollama
// needs no key.
func (c LLMConfig) Configured() bool {
	if c.Provider == "ollama" {
		return c.Model != ""
	}
	return c.APIKey != ""
}

// LauncherConfig overrides the application catalog and website map.
// Order of Apps is significant: the first fuzzy match wins.
type LauncherConfig struct {
	Apps        []AppConfig  `yaml:"apps"`
	Websites    []SiteConfig `yaml:"websites"`
	URLTemplate string       `yaml:"url_template"`
}

// AppConfig is one local application.
type AppConfig struct {
	Name    string   `yaml:"name"`
	Command []string `yaml:"command"`
}

// SiteConfig maps a spoken alias to a URL.
type SiteConfig struct {
	Alias string `yaml:"alias"`
	URL   string `yaml:"url"`
}

// MetricsConfig enables the Prometheus endpoint when Address is set.
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// Load reads configuration from a YAML file, expanding ${VAR}
// references, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// FromEnv returns the defaults overlaid with the environment variables
// understood by earlier releases (ASSISTANT_NAME, SMTP_HOST, ...).
// lookup is normally os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg.Assistant.Name = get("ASSISTANT_NAME")
	cfg.Assistant.DefaultCity = get("DEFAULT_CITY")
	cfg.Reminders.DBPath = get("ASSISTANT_DB")

	cfg.Email.SMTP.Host = get("SMTP_HOST")
	cfg.Email.SMTP.Username = get("SMTP_USERNAME")
	cfg.Email.SMTP.Password = get("SMTP_PASSWORD")
	if p := get("SMTP_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("SMTP_PORT %q: %w", p, err)
		}
		cfg.Email.SMTP.Port = port
	}

	cfg.Weather.APIKey = get("OPENWEATHER_API_KEY")

	if host := get("MQTT_BROKER"); host != "" {
		port := get("MQTT_PORT")
		if port == "" {
			port = "1883"
		}
		cfg.MQTT.Broker = "mqtt://" + host + ":" + port
	}
	cfg.MQTT.Username = get("MQTT_USERNAME")
	cfg.MQTT.Password = get("MQTT_PASSWORD")

	cfg.LLM.APIKey = get("OPENAI_API_KEY")

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Assistant.Name == "" {
		c.Assistant.Name = "Puneeth"
	}
	if c.Assistant.DefaultCity == "" {
		c.Assistant.DefaultCity = "London"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Reminders.DBPath == "" {
		c.Reminders.DBPath = filepath.Join(c.DataDir, "assistant.db")
	}

	if c.Speech.Mode == "" {
		c.Speech.Mode = "typed"
	}
	if c.Speech.ListenTimeoutSec <= 0 {
		c.Speech.ListenTimeoutSec = 15
	}

	c.Email.ApplyDefaults()

	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if c.Weather.Units == "" {
		c.Weather.Units = "metric"
	}
	if c.Weather.CacheTTLSec == 0 {
		c.Weather.CacheTTLSec = 600
	}

	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "home/device"
	}
	if c.MQTT.DeviceName == "" {
		c.MQTT.DeviceName = "assistant"
	}

	if c.Encyclopedia.BaseURL == "" {
		c.Encyclopedia.BaseURL = "https://en.wikipedia.org"
	}
	if c.Encyclopedia.Sentences <= 0 {
		c.Encyclopedia.Sentences = 2
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "ollama":
			c.LLM.Model = "qwen3:4b"
		default:
			c.LLM.Model = "gpt-3.5-turbo"
		}
	}
	if c.LLM.Temperature == nil {
		t := 0.7
		c.LLM.Temperature = &t
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 250
	}

	if c.Launcher.URLTemplate == "" {
		c.Launcher.URLTemplate = "https://www.%s.com"
	}
}

// Validate checks that the configuration is internally consistent.
// Returns an error describing the first problem found.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format %q invalid (valid: text, json)", c.LogFormat)
	}

	switch c.Speech.Mode {
	case "typed":
	case "command":
		if len(c.Speech.RecognizeCommand) == 0 {
			return fmt.Errorf("speech.recognize_command is required when speech.mode is \"command\"")
		}
	default:
		return fmt.Errorf("speech.mode %q invalid (valid: typed, command)", c.Speech.Mode)
	}

	if err := c.Email.Validate(); err != nil {
		return err
	}

	if c.MQTT.Configured() {
		u, err := url.Parse(c.MQTT.Broker)
		if err != nil {
			return fmt.Errorf("mqtt.broker %q: %w", c.MQTT.Broker, err)
		}
		switch u.Scheme {
		case "mqtt", "tcp", "mqtts", "ssl", "ws", "wss":
		default:
			return fmt.Errorf("mqtt.broker %q: unsupported scheme %q", c.MQTT.Broker, u.Scheme)
		}
	}

	switch c.LLM.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("llm.provider %q invalid (valid: openai, ollama)", c.LLM.Provider)
	}
	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("llm.temperature %v out of range (0-2)", *t)
	}

	if strings.Count(c.Launcher.URLTemplate, "%s") != 1 {
		return fmt.Errorf("launcher.url_template %q must contain exactly one %%s", c.Launcher.URLTemplate)
	}
	for i, a := range c.Launcher.Apps {
		if a.Name == "" || len(a.Command) == 0 {
			return fmt.Errorf("launcher.apps[%d]: name and command are required", i)
		}
	}

	return nil
}
