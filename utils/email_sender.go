package utils

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"os"
	"strings"
	"sync"
)

// EmailSender delivers transactional mail (password resets)
type EmailSender struct {
	host     string
	port     string
	username string
	password string
	from     string
	logger   *Logger
}

// EmailConfig represents SMTP configuration
type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// NewEmailSender creates a new email sender
func NewEmailSender(config EmailConfig) *EmailSender {
	return &EmailSender{
		host:     config.Host,
		port:     config.Port,
		username: config.Username,
		password: config.Password,
		from:     config.From,
		logger:   GetLogger(),
	}
}

// Send sends an email to the specified recipients
func (s *EmailSender) Send(to []string, subject string, body string) error {
	if s.host == "" {
		return fmt.Errorf("SMTP host not configured")
	}

	msg := s.buildMessage(to, subject, body)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	// Try TLS first, fall back to plain SMTP
	err := s.sendWithTLS(addr, auth, s.from, to, []byte(msg))
	if err != nil {
		s.logger.Warn("TLS connection failed, falling back to plain SMTP", Error(err))
		err = smtp.SendMail(addr, auth, s.from, to, []byte(msg))
	}

	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email sent",
		Int("recipients", len(to)),
		String("subject", subject))

	return nil
}

// sendWithTLS sends email over an explicit TLS connection
func (s *EmailSender) sendWithTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: s.host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return err
		}
	}

	if err = client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

// buildMessage builds an RFC 822-style email message
func (s *EmailSender) buildMessage(to []string, subject string, body string) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return msg.String()
}

// Global email sender instance
var (
	globalEmailSender     *EmailSender
	globalEmailSenderOnce sync.Once
)

// GetEmailSender returns the global email sender, or nil when SMTP is
// not configured
func GetEmailSender() *EmailSender {
	globalEmailSenderOnce.Do(func() {
		config := EmailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		}

		if config.Port == "" {
			config.Port = "587"
		}
		if config.From == "" && config.Username != "" {
			config.From = config.Username
		}

		if config.Host != "" {
			globalEmailSender = NewEmailSender(config)
			GetLogger().Info("Email sender initialized",
				String("host", config.Host),
				String("from", config.From))
		} else {
			GetLogger().Warn("Email sender not configured (SMTP_HOST not set)")
		}
	})

	return globalEmailSender
}

// ResetGlobalEmailSender resets the global email sender (for testing)
func ResetGlobalEmailSender() {
	globalEmailSender = nil
	globalEmailSenderOnce = sync.Once{}
}
