package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/spiffcs/issuewatch/internal/constants"
	"github.com/spiffcs/issuewatch/internal/model"
)

// MailOptions configures the SMTP channel.
type MailOptions struct {
	Server    string
	Port      int
	User      string
	Password  string
	Recipient string
	MaxLines  int
	// TLSPolicy defaults to mandatory STARTTLS.
	TLSPolicy mail.TLSPolicy
}

// Mail delivers events as plain-text email, one message per event. The
// SMTP user is the sender.
type Mail struct {
	opts MailOptions
}

// NewMail creates a mail notifier.
func NewMail(opts MailOptions) (*Mail, error) {
	if opts.Server == "" || opts.Recipient == "" {
		return nil, fmt.Errorf("mail server and recipient are required")
	}
	if opts.Port == 0 {
		opts.Port = constants.DefaultSMTPPort
	}
	return &Mail{opts: opts}, nil
}

// Name implements Notifier.
func (m *Mail) Name() string {
	return "mail"
}

// Send implements Notifier.
func (m *Mail) Send(ctx context.Context, e model.Event) error {
	msg, err := m.message(e)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.opts.Server,
		mail.WithPort(m.opts.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.opts.User),
		mail.WithPassword(m.opts.Password),
		mail.WithTLSPolicy(m.opts.TLSPolicy),
		mail.WithTimeout(constants.RequestTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func (m *Mail) message(e model.Event) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.opts.User); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.opts.User, err)
	}
	if err := msg.To(m.opts.Recipient); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", m.opts.Recipient, err)
	}
	msg.Subject(Subject(e))
	msg.SetBodyString(mail.TypeTextPlain, Message(e, m.opts.MaxLines))
	return msg, nil
}
