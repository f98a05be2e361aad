package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/grhey0115/Tenant-Assessment/internal/email"
)

// Mailer sends sign-in links.
type Mailer struct {
	sender  email.Sender
	baseURL string
	devMode bool
}

// NewMailer creates a mailer that delivers through sender.
func NewMailer(cfg Config, sender email.Sender) *Mailer {
	return &Mailer{sender: sender, baseURL: cfg.BaseURL, devMode: cfg.DevMode}
}

// SendMagicLink mails an admin sign-in link and returns it. next, when set,
// is carried through so the callback can land on the page that was asked for.
func (m *Mailer) SendMagicLink(ctx context.Context, to, token, next string) (string, error) {
	q := url.Values{"token": {token}}
	if next != "" {
		q.Set("next", next)
	}
	link := m.baseURL + "/auth/callback?" + q.Encode()
	return link, m.send(ctx, to, link, "Tenant Assessment sign-in link",
		"Click the link below to sign in to Tenant Assessment:")
}

// SendCLIMagicLink mails a link that finishes CLI sign-in.
func (m *Mailer) SendCLIMagicLink(ctx context.Context, to, token string) (string, error) {
	link := m.baseURL + "/cli/auth/verify?" + url.Values{"token": {token}}.Encode()
	return link, m.send(ctx, to, link, "Tenant Assessment CLI sign-in link",
		"Click the link below to authorize the ta command line tool:")
}

func (m *Mailer) send(ctx context.Context, to, link, subject, intro string) error {
	if m.devMode {
		slog.Info("magic link", "email", to, "link", link)
	}
	body := fmt.Sprintf("%s\n\n%s\n\nThis link expires in 15 minutes and can only be used once.", intro, link)
	if _, err := m.sender.Send(ctx, email.Message{To: []string{to}, Subject: subject, Body: body}); err != nil {
		return fmt.Errorf("sending magic link: %w", err)
	}
	return nil
}
