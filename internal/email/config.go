package email

import "fmt"

// Config holds outbound mail settings. It is embedded in the top-level
// assistant config under the "email" YAML key.
type Config struct {
	// SMTP configures message submission. Sending is disabled when
	// Host is empty.
	SMTP SMTPConfig `yaml:"smtp"`

	// From is the sender address (e.g., "Puneeth <me@example.com>").
	// Defaults to the SMTP username.
	From string `yaml:"from"`

	// IMAP optionally stores a copy of every sent message.
	IMAP IMAPConfig `yaml:"imap"`

	// SentFolder is the mailbox that receives the copy. Empty means no
	// IMAP APPEND after send.
	SentFolder string `yaml:"sent_folder"`
}

// Configured reports whether the minimum SMTP settings are present.
func (c Config) Configured() bool {
	return c.SMTP.Host != "" && c.SMTP.Username != ""
}

// AppendConfigured reports whether sent messages should be copied to
// an IMAP folder.
func (c Config) AppendConfigured() bool {
	return c.SentFolder != "" && c.IMAP.Host != "" && c.IMAP.Username != ""
}

// ApplyDefaults fills zero-value fields with sensible defaults.
// Called by the parent config's applyDefaults method.
func (c *Config) ApplyDefaults() {
	if c.SMTP.Host != "" {
		// SMTP defaults: port 587 with STARTTLS.
		if c.SMTP.Port == 0 {
			c.SMTP.Port = 587
		}
		if !c.SMTP.StartTLS && c.SMTP.Port != 465 {
			c.SMTP.StartTLS = true
		}
	}
	if c.From == "" {
		c.From = c.SMTP.Username
	}

	if c.IMAP.Host != "" {
		if c.IMAP.Port == 0 {
			c.IMAP.Port = 993
		}
		// Plaintext only on the conventional port 143.
		if !c.IMAP.TLS && c.IMAP.Port != 143 {
			c.IMAP.TLS = true
		}
		if c.IMAP.Username == "" {
			c.IMAP.Username = c.SMTP.Username
			c.IMAP.Password = c.SMTP.Password
		}
	}
}

// Validate checks that the email configuration is internally consistent.
func (c Config) Validate() error {
	if c.SMTP.Host != "" {
		if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
			return fmt.Errorf("email.smtp.port %d out of range (1-65535)", c.SMTP.Port)
		}
		if c.SMTP.Username == "" {
			return fmt.Errorf("email.smtp.username is required when email.smtp.host is set")
		}
	}
	if c.SentFolder != "" && c.IMAP.Host == "" {
		return fmt.Errorf("email.imap.host is required when email.sent_folder is set")
	}
	if c.IMAP.Host != "" && (c.IMAP.Port < 1 || c.IMAP.Port > 65535) {
		return fmt.Errorf("email.imap.port %d out of range (1-65535)", c.IMAP.Port)
	}
	return nil
}

// SMTPConfig holds SMTP server connection parameters for outbound email.
type SMTPConfig struct {
	// Host is the SMTP server hostname (e.g., "smtp.gmail.com").
	Host string `yaml:"host"`

	// Port is the SMTP server port. Default: 587 (submission with STARTTLS).
	Port int `yaml:"port"`

	// Username is the SMTP login username (typically the email address).
	Username string `yaml:"username"`

	// Password is the SMTP login password. Supports environment variable
	// expansion via the config loader (e.g., ${SMTP_PASSWORD}).
	Password string `yaml:"password"`

	// StartTLS controls whether to upgrade the connection with STARTTLS.
	// Default: true. Set to false for port 465 (implicit TLS).
	StartTLS bool `yaml:"starttls"`
}

// IMAPConfig holds IMAP server connection parameters.
type IMAPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// TLS controls whether to use TLS for the connection. Default: true.
	TLS bool `yaml:"tls"`
}
