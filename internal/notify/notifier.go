// Package notify delivers change events through one configured channel.
package notify

import (
	"context"
	"fmt"

	"github.com/spiffcs/issuewatch/config"
	"github.com/spiffcs/issuewatch/internal/log"
	"github.com/spiffcs/issuewatch/internal/model"
)

// Notifier delivers a single event.
type Notifier interface {
	// Name identifies the channel in logs ("chat/slack", "mail", "api").
	Name() string
	Send(ctx context.Context, e model.Event) error
}

// DeliveryError reports a failed delivery of one event.
type DeliveryError struct {
	Channel string
	Key     model.IssueKey
	Status  model.Status
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s event for issue %s via %s: %v", e.Status, e.Key, e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// UnknownChannelError is returned by New for an unsupported notification type.
type UnknownChannelError struct {
	Type string
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("unknown notification type %q", e.Type)
}

// New builds the notifier selected by cfg.Notification.Type. An empty type
// disables notifications and returns a nil Notifier with no error.
func New(cfg *config.Config) (Notifier, error) {
	n := cfg.Notification

	var (
		notifier Notifier
		err      error
	)
	switch n.Type {
	case "":
		return nil, nil
	case config.NotifyChat:
		notifier, err = NewChat(ChatOptions{
			Provider:       cfg.Chat.Provider,
			WebhookURL:     cfg.Chat.WebhookURL,
			TelegramToken:  cfg.Chat.TelegramToken,
			TelegramChatID: cfg.Chat.TelegramChatID,
			RatePerSec:     n.RatePerSec,
			MaxLines:       n.MaxLines,
		})
	case config.NotifyMail:
		notifier, err = NewMail(MailOptions{
			Server:    cfg.Mail.SMTPServer,
			Port:      cfg.Mail.SMTPPort,
			User:      cfg.Mail.SMTPUser,
			Password:  cfg.Mail.SMTPPassword,
			Recipient: cfg.Mail.RecipientEmail,
			MaxLines:  n.MaxLines,
		})
	case config.NotifyAPI:
		notifier, err = NewAPI(APIOptions{
			URL:         cfg.API.URL,
			BearerToken: cfg.API.BearerToken,
		})
	default:
		return nil, &UnknownChannelError{Type: n.Type}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s notifier: %w", n.Type, err)
	}
	return notifier, nil
}

// Dispatcher sends events through a Notifier and never fails the caller.
// Delivery errors are logged and counted.
type Dispatcher struct {
	n      Notifier
	sent   int
	failed int
}

// NewDispatcher wraps n. A nil n drops every event with a warning.
func NewDispatcher(n Notifier) *Dispatcher {
	return &Dispatcher{n: n}
}

// Enabled reports whether events are delivered anywhere.
func (d *Dispatcher) Enabled() bool {
	return d.n != nil
}

// Send delivers e. Failures are logged as *DeliveryError and swallowed.
func (d *Dispatcher) Send(ctx context.Context, e model.Event) {
	if d.n == nil {
		log.Warn("notification type not configured, event dropped",
			"issue", e.Key, "status", e.Status)
		return
	}

	if err := d.n.Send(ctx, e); err != nil {
		d.failed++
		derr := &DeliveryError{Channel: d.n.Name(), Key: e.Key, Status: e.Status, Err: err}
		log.Error("notification failed", "error", derr)
		return
	}

	d.sent++
	log.Info("notification sent", "channel", d.n.Name(), "issue", e.Key, "status", e.Status)
}

// Stats returns the number of successful and failed deliveries so far.
func (d *Dispatcher) Stats() (sent, failed int) {
	return d.sent, d.failed
}
