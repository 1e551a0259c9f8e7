package email

import (
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

type Sender interface {
	Send(msg Message) error
}

// SMTPSender delivers over plain SMTP, optionally with PLAIN auth.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	host := strings.TrimSpace(cfg.Host)
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = "no-reply@clinicbook.local"
	}
	s := &SMTPSender{
		addr: net.JoinHostPort(host, strings.TrimSpace(cfg.Port)),
		from: from,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}
	return s
}

func (s *SMTPSender) Send(msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	return smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, []byte(render(s.from, msg)))
}

func render(from string, msg Message) string {
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from,
		msg.To,
		sanitizeHeader(msg.Subject),
		strings.ReplaceAll(msg.Body, "\n", "\r\n"),
	)
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
