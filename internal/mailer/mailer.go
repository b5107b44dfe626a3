package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Mailer delivers outbox emails over plain SMTP. Delivery is best
// effort: the worker retries failed sends, nothing in the request path
// waits on it.
type Mailer struct {
	host   string
	port   int
	user   string
	pass   string
	sender string
	log    *zap.Logger
}

func New(host string, port int, user, pass, sender string, log *zap.Logger) *Mailer {
	return &Mailer{host: host, port: port, user: user, pass: pass, sender: sender, log: log}
}

// Configured reports whether SMTP settings are present. When they are
// not, the outbox dispatcher logs sends instead of delivering them.
func (m *Mailer) Configured() bool {
	return m.host != "" && m.sender != ""
}

func (m *Mailer) Send(to, subject, body string) error {
	if !m.Configured() {
		m.log.Info("smtp not configured, skipping delivery",
			zap.String("to", to),
			zap.String("subject", subject),
		)
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.sender)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var a smtp.Auth
	if m.user != "" {
		a = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	if err := smtp.SendMail(addr, a, m.sender, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
