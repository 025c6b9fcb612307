package services

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers password-reset codes over a plain SMTP relay.
type Mailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (m *Mailer) SendResetCode(to, code string) error {
	subject := "Your password reset code"
	body := fmt.Sprintf("Use this code to reset your StakeFit password: %s\r\nIt expires in 15 minutes.", code)

	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := m.Host + ":" + m.Port
	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	if err := smtp.SendMail(addr, auth, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}
