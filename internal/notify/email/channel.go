package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"github.com/MrJamesThe3rd/dunning/internal/config"
)

type sendFunc func(ctx context.Context, msg *mail.Msg) error

// Channel delivers reminders as plain text email over SMTP.
type Channel struct {
	host    string
	from    string
	subject string
	send    sendFunc
	now     func() time.Time
}

func NewChannel(cfg config.SMTPConfig) *Channel {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(tlsPolicy(cfg.TLS)),
		mail.WithTimeout(30 * time.Second),
	}

	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	return &Channel{
		host:    cfg.Host,
		from:    cfg.From,
		subject: "Invoice Reminder",
		send: func(ctx context.Context, msg *mail.Msg) error {
			client, err := mail.NewClient(cfg.Host, opts...)
			if err != nil {
				return fmt.Errorf("creating smtp client: %w", err)
			}

			return client.DialAndSendWithContext(ctx, msg)
		},
		now: time.Now,
	}
}

func tlsPolicy(name string) mail.TLSPolicy {
	switch name {
	case "mandatory":
		return mail.TLSMandatory
	case "none":
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}

// SendText mails body to the address in to. An empty from uses the
// configured sender. The returned id is the Message-ID header.
func (c *Channel) SendText(ctx context.Context, to, from, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if from == "" {
		from = c.from
	}

	msg := mail.NewMsg()

	if err := msg.To(to); err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", to, err)
	}

	if err := msg.From(from); err != nil {
		return "", fmt.Errorf("invalid sender %q: %w", from, err)
	}

	id := uuid.NewString() + "@" + c.host

	msg.Subject(c.subject)
	msg.SetMessageIDWithValue(id)
	msg.SetDateWithValue(c.now())
	msg.SetBodyString(mail.TypeTextPlain, plain(body))

	if err := c.send(ctx, msg); err != nil {
		return "", fmt.Errorf("sending mail: %w", err)
	}

	return "<" + id + ">", nil
}

// plain drops the WhatsApp bold markers, which mean nothing in email.
func plain(body string) string {
	return strings.ReplaceAll(body, "*", "")
}
