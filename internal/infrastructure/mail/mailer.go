package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

// Config holds the SMTP settings. An empty Host or User disables delivery.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (c Config) Enabled() bool {
	return c.Host != "" && c.User != ""
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer delivers messages through an authenticated SMTP relay.
type SMTPMailer struct {
	dialer dialer
	from   string
}

// NewSMTPMailer builds a mailer on gomail's dialer. STARTTLS is negotiated by
// gomail when the server offers it; port 465 switches to implicit TLS.
func NewSMTPMailer(cfg Config) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg ports.Message) error {
	if msg.To == "" {
		return errors.New("mail: empty recipient")
	}
	gm := buildMessage(m.from, msg)

	// gomail has no context support; give up waiting when ctx ends.
	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(gm) }()

	select {
	case <-ctx.Done():
		return fmt.Errorf("mail send to %s: %w", msg.To, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mail send to %s: %w", msg.To, err)
		}
		return nil
	}
}

func buildMessage(from string, msg ports.Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)
	return gm
}

// LogMailer stands in for SMTP when it is not configured. It logs recipient and
// subject, and the body only when LogBody is set (development).
type LogMailer struct {
	log     zerolog.Logger
	LogBody bool
}

func NewLogMailer(log zerolog.Logger, logBody bool) *LogMailer {
	return &LogMailer{log: log, LogBody: logBody}
}

func (m *LogMailer) Send(_ context.Context, msg ports.Message) error {
	ev := m.log.Warn().Str("to", msg.To).Str("subject", msg.Subject)
	if m.LogBody {
		ev = ev.Str("body", msg.HTML)
	}
	ev.Msg("smtp not configured, email not sent")
	return nil
}

// ErrNotConfigured is returned by DisabledMailer.
var ErrNotConfigured = errors.New("mail: smtp is not configured")

// DisabledMailer refuses every message. It backs flows that cannot complete
// without delivery, such as email verification, when SMTP is missing.
type DisabledMailer struct{}

func (DisabledMailer) Send(context.Context, ports.Message) error {
	return ErrNotConfigured
}

// ForEnvironment picks the mailers for verification and for notifications.
// With SMTP configured both deliver through it. Without it notifications are
// only logged, and verification emails are logged with their body in
// development and refused elsewhere.
func ForEnvironment(cfg Config, development bool, log zerolog.Logger) (verification, notification ports.Mailer) {
	if cfg.Enabled() {
		m := NewSMTPMailer(cfg)
		return m, m
	}
	notification = NewLogMailer(log, false)
	if development {
		return NewLogMailer(log, true), notification
	}
	log.Warn().Msg("smtp not configured, signups cannot be verified")
	return DisabledMailer{}, notification
}
