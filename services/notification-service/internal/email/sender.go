package email

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
	// Provider names the delivery channel recorded with each notification.
	Provider() string
}

// SMTPSender sends through a plain SMTP relay, authenticating when a username
// is configured.
type SMTPSender struct {
	addr string
	host string
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
		from = "no-reply@apptbook.local"
	}
	s := &SMTPSender{
		addr: fmt.Sprintf("%s:%s", host, strings.TrimSpace(cfg.Port)),
		host: host,
		from: from,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}
	return s
}

func (s *SMTPSender) Provider() string { return "smtp" }

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body := buildMessage(s.from, msg)
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, []byte(body)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", s.addr, err)
	}
	return nil
}

func buildMessage(from string, msg Message) string {
	to := msg.To
	if msg.ToName != "" {
		to = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", msg.ToName), msg.To)
	}
	contentType := "text/plain; charset=utf-8"
	content := msg.Text
	if msg.HTML != "" {
		contentType = "text/html; charset=utf-8"
		content = msg.HTML
	}
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: %s\r\n\r\n%s\r\n",
		from,
		to,
		mime.QEncoding.Encode("utf-8", msg.Subject),
		contentType,
		content,
	)
}

// LogSender only logs; it stands in when no provider is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Provider() string { return "log" }

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email not sent: no provider configured", "to", msg.To, "subject", msg.Subject)
	s.logger.Debug("email content", "to", msg.To, "text", msg.Text)
	return nil
}
