package contact

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
	To   string
}

type SMTPMailer struct {
	host string
	port int
	user string
	pass string
	from string
	to   string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer returns nil when the relay or the recipient is not configured.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if strings.TrimSpace(cfg.Host) == "" || cfg.Port <= 0 || strings.TrimSpace(cfg.From) == "" || strings.TrimSpace(cfg.To) == "" {
		return nil
	}
	return &SMTPMailer{
		host: strings.TrimSpace(cfg.Host),
		port: cfg.Port,
		user: strings.TrimSpace(cfg.User),
		pass: cfg.Pass,
		from: strings.TrimSpace(cfg.From),
		to:   strings.TrimSpace(cfg.To),
		send: smtp.SendMail,
	}
}

func (m *SMTPMailer) NotifyContact(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	subject := "Full access request from " + headerSafe(req.Name)
	var body strings.Builder
	fmt.Fprintf(&body, "Name: %s\n", headerSafe(req.Name))
	fmt.Fprintf(&body, "Email: %s\n", req.Email)
	if req.ExamInterest != "" {
		fmt.Fprintf(&body, "Exam: %s\n", req.ExamInterest)
	}
	fmt.Fprintf(&body, "Received: %s\n\n%s\n", req.CreatedAt.Format("2006-01-02 15:04 MST"), req.Message)

	msg := "From: " + m.from + "\r\n" +
		"To: " + m.to + "\r\n" +
		"Reply-To: " + headerSafe(req.Email) + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
		body.String() + "\r\n"

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	if err := m.send(addr, auth, m.from, []string{m.to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send contact notification: %w", err)
	}
	return nil
}

func headerSafe(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
