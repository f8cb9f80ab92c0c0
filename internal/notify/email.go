package notify

import (
	"context"
	"strings"
	"time"

	"gopkg.in/mail.v2"

	"smartpothole/backend/internal/localization"
)

const (
	keyEmailSubject = "email.confirmation.subject"
	keyEmailBody    = "email.confirmation.body"
)

// Sender delivers composed messages. *mail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*mail.Message) error
}

// NewSMTPDialer returns a dialer that upgrades the connection with STARTTLS
// before authenticating.
func NewSMTPDialer(host string, port int, username, password string, timeout time.Duration) *mail.Dialer {
	d := mail.NewDialer(host, port, username, password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	if timeout > 0 {
		d.Timeout = timeout
	}
	return d
}

// EmailNotifier sends the registration confirmation to the submitter.
type EmailNotifier struct {
	sender    Sender
	from      string
	localizer *localization.Localizer
	lang      string
}

func NewEmailNotifier(sender Sender, from string, localizer *localization.Localizer, lang string) *EmailNotifier {
	if lang == "" {
		lang = localization.DefaultLang
	}
	return &EmailNotifier{sender: sender, from: from, localizer: localizer, lang: lang}
}

func (e *EmailNotifier) Name() string { return "email" }

// Notify sends the confirmation. A submission without an email address is
// skipped.
func (e *EmailNotifier) Notify(ctx context.Context, n Notification) error {
	to := strings.TrimSpace(n.Email)
	if to == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := e.Compose(n)
	done := make(chan error, 1)
	go func() { done <- e.sender.DialAndSend(msg) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Compose builds the confirmation message for n.
func (e *EmailNotifier) Compose(n Notification) *mail.Message {
	vars := n.Vars()
	m := mail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", strings.TrimSpace(n.Email))
	m.SetHeader("Subject", e.localizer.Format(e.lang, keyEmailSubject, vars))
	m.SetBody("text/plain", e.localizer.Format(e.lang, keyEmailBody, vars))
	return m
}
