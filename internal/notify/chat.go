package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/spiffcs/issuewatch/config"
	"github.com/spiffcs/issuewatch/internal/constants"
	"github.com/spiffcs/issuewatch/internal/model"
)

// ChatOptions configures the chat channel.
type ChatOptions struct {
	// Provider is "slack" (default) or "telegram".
	Provider       string
	WebhookURL     string
	TelegramToken  string
	TelegramChatID int64
	// TelegramAPIURL overrides the Bot API endpoint.
	TelegramAPIURL string
	// RatePerSec caps deliveries; non-positive means unlimited.
	RatePerSec int
	MaxLines   int
	HTTPClient *http.Client
}

// chatProvider posts an already formatted message.
type chatProvider interface {
	name() string
	post(ctx context.Context, text string) error
}

// Chat delivers events as chat messages.
type Chat struct {
	provider chatProvider
	limiter  *rate.Limiter
	maxLines int
}

// NewChat creates a chat notifier for the configured provider.
func NewChat(opts ChatOptions) (*Chat, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: constants.RequestTimeout}
	}

	var p chatProvider
	switch opts.Provider {
	case "", config.ChatSlack:
		if opts.WebhookURL == "" {
			return nil, fmt.Errorf("slack webhook URL is empty")
		}
		p = &slackWebhook{url: opts.WebhookURL, client: client}
	case config.ChatTelegram:
		tp, err := newTelegram(opts, client)
		if err != nil {
			return nil, err
		}
		p = tp
	default:
		return nil, fmt.Errorf("unknown chat provider %q", opts.Provider)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.RatePerSec)
	}

	return &Chat{
		provider: p,
		limiter:  limiter,
		maxLines: opts.MaxLines,
	}, nil
}

// Name implements Notifier.
func (c *Chat) Name() string {
	return "chat/" + c.provider.name()
}

// Send implements Notifier.
func (c *Chat) Send(ctx context.Context, e model.Event) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.provider.post(ctx, Message(e, c.maxLines))
}

// slackWebhook posts to a Slack incoming webhook.
type slackWebhook struct {
	url    string
	client *http.Client
}

func (s *slackWebhook) name() string { return config.ChatSlack }

func (s *slackWebhook) post(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	return postJSON(ctx, s.client, s.url, body, nil)
}

// telegram sends through the Bot API without polling for updates.
type telegram struct {
	bot  *tele.Bot
	chat *tele.Chat
}

func newTelegram(opts ChatOptions, client *http.Client) (*telegram, error) {
	if opts.TelegramToken == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	if opts.TelegramChatID == 0 {
		return nil, fmt.Errorf("telegram chat id is empty")
	}

	b, err := tele.NewBot(tele.Settings{
		URL:     opts.TelegramAPIURL,
		Token:   opts.TelegramToken,
		Client:  client,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &telegram{bot: b, chat: &tele.Chat{ID: opts.TelegramChatID}}, nil
}

func (t *telegram) name() string { return config.ChatTelegram }

func (t *telegram) post(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Send(t.chat, text, &tele.SendOptions{DisableWebPagePreview: true})
	return err
}

// postJSON POSTs body and treats any non-2xx response as an error.
func postJSON(ctx context.Context, client *http.Client, url string, body []byte, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
