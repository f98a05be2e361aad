// Package email renders and delivers outgoing mail over SMTP.
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Pass     string
	From     string
	FromName string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

func (c SMTPConfig) fromHeader() string {
	if c.FromName == "" {
		return c.From
	}
	return fmt.Sprintf("%s <%s>", c.FromName, c.From)
}

// Message is one outgoing email.
type Message struct {
	To      []string
	Subject string
	Body    string
	HTML    bool
}

// Sender delivers a message and returns its Message-ID.
type Sender interface {
	Send(ctx context.Context, m Message) (string, error)
}

// SMTPSender delivers through an SMTP relay. In dev mode nothing is sent;
// the message is logged instead.
type SMTPSender struct {
	cfg     SMTPConfig
	devMode bool
}

// NewSMTPSender creates a sender.
func NewSMTPSender(cfg SMTPConfig, devMode bool) *SMTPSender {
	return &SMTPSender{cfg: cfg, devMode: devMode}
}

// Send delivers m. Port 465 uses implicit TLS; other ports use STARTTLS
// when the server offers it.
func (s *SMTPSender) Send(ctx context.Context, m Message) (string, error) {
	if len(m.To) == 0 || strings.TrimSpace(m.To[0]) == "" {
		return "", fmt.Errorf("missing recipient")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return "", fmt.Errorf("missing subject")
	}

	id := s.messageID()
	if s.devMode {
		slog.Info("email not sent in dev mode", "to", m.To, "subject", m.Subject, "message_id", id)
		slog.Debug("email body", "body", m.Body)
		return id, nil
	}
	if !s.cfg.IsConfigured() {
		return "", fmt.Errorf("SMTP not configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raw := s.build(m, id)
	addr := s.cfg.Host + ":" + s.cfg.Port
	var err error
	if s.cfg.Port == "465" {
		err = s.sendImplicitTLS(addr, m.To, raw)
	} else {
		err = s.sendSTARTTLS(addr, m.To, raw)
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *SMTPSender) messageID() string {
	domain := "localhost"
	if at := strings.LastIndex(s.cfg.From, "@"); at >= 0 && at < len(s.cfg.From)-1 {
		domain = s.cfg.From[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

func (s *SMTPSender) build(m Message, id string) []byte {
	contentType := "text/plain"
	if m.HTML {
		contentType = "text/html"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", s.cfg.fromHeader())
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", m.Subject)
	fmt.Fprintf(&sb, "Message-ID: %s\r\n", id)
	fmt.Fprintf(&sb, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	sb.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&sb, "Content-Type: %s; charset=\"UTF-8\"\r\n\r\n", contentType)
	sb.WriteString(m.Body)
	return []byte(sb.String())
}

func (s *SMTPSender) auth() smtp.Auth {
	if s.cfg.User == "" {
		return nil
	}
	return smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
}

func (s *SMTPSender) sendImplicitTLS(addr string, to []string, msg []byte) (err error) {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() {
		if qerr := c.Quit(); qerr != nil && err == nil {
			err = fmt.Errorf("quit: %w", qerr)
		}
	}()

	if a := s.auth(); a != nil {
		if err := c.Auth(a); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return nil
}

func (s *SMTPSender) sendSTARTTLS(addr string, to []string, msg []byte) error {
	if err := smtp.SendMail(addr, s.auth(), s.cfg.From, to, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
