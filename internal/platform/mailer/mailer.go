package mailer

import (
	"fmt"
	"net/smtp"

	"opsdeck/internal/platform/config"
)

// Sender delivers account emails. Services depend on this interface so
// tests can substitute a recording fake.
type Sender interface {
	SendInvite(toEmail, fullName, setupURL string) error
}

type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg.SMTP}
}

func (s *SMTPSender) SendInvite(toEmail, fullName, setupURL string) error {
	subject := "You've been invited"
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour account request has been approved. Set your password here:\r\n%s\r\n",
		fullName, setupURL)

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.cfg.FromName, s.cfg.FromAddress, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	return smtp.SendMail(addr, auth, s.cfg.FromAddress, []string{toEmail}, []byte(msg))
}
