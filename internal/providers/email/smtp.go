package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig configures the plain SMTP provider.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPProvider sends mail over authenticated SMTP. net/smtp covers the plain
// AUTH+STARTTLS path the storefront needs; no delivery library in use offers
// more than this for a three-template notifier.
type SMTPProvider struct {
	cfg SMTPConfig
}

var _ Provider = (*SMTPProvider)(nil)

func NewSMTPProvider(cfg SMTPConfig) *SMTPProvider {
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	return &SMTPProvider{cfg: cfg}
}

func (p *SMTPProvider) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	if p.cfg.Host == "" || p.cfg.From == "" {
		return ErrNotConfigured
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	msg.WriteString("From: " + p.cfg.From + "\r\n")
	msg.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)
	var auth smtp.Auth
	if p.cfg.Username != "" {
		auth = smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, p.cfg.From, to, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp_send_failed: %v", err)
	}
	return nil
}
