package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spiffcs/issuewatch/internal/constants"
	"github.com/spiffcs/issuewatch/internal/log"
	"github.com/spiffcs/issuewatch/internal/model"
)

// APIOptions configures the generic HTTP API channel.
type APIOptions struct {
	URL         string
	BearerToken string
	HTTPClient  *http.Client
}

// Payload is the JSON body POSTed for every event. Exactly one of the
// timestamps is set: created_at for new issues, comment_created_at for
// comments and updated_at otherwise.
type Payload struct {
	Title            string         `json:"title"`
	IssueID          model.IssueKey `json:"issue_id"`
	Status           model.Status   `json:"status"`
	URL              string         `json:"url"`
	Platform         model.Platform `json:"platform"`
	CreatedAt        *time.Time     `json:"created_at,omitempty"`
	UpdatedAt        *time.Time     `json:"updated_at,omitempty"`
	CommentCreatedAt *time.Time     `json:"comment_created_at,omitempty"`
	Body             string         `json:"body,omitempty"`
	Comment          string         `json:"comment,omitempty"`
}

// NewPayload builds the API payload for e.
func NewPayload(e model.Event) Payload {
	p := Payload{
		Title:    e.Title,
		IssueID:  e.Key,
		Status:   e.Status,
		URL:      e.URL,
		Platform: e.Platform,
		Body:     e.Body,
	}

	ts := e.Timestamp.UTC()
	switch e.Kind {
	case model.KindCreated:
		p.CreatedAt = &ts
	case model.KindCommentAdded:
		p.CommentCreatedAt = &ts
		if e.Comment != nil {
			p.Comment = e.Comment.Body
		}
	default:
		p.UpdatedAt = &ts
	}
	return p
}

// API POSTs events as JSON with a bearer token.
type API struct {
	url    string
	token  string
	client *http.Client
}

// NewAPI creates an API notifier.
func NewAPI(opts APIOptions) (*API, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("api url is empty")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: constants.RequestTimeout}
	}
	return &API{url: opts.URL, token: opts.BearerToken, client: client}, nil
}

// Name implements Notifier.
func (a *API) Name() string {
	return "api"
}

// Send implements Notifier.
func (a *API) Send(ctx context.Context, e model.Event) error {
	body, err := json.Marshal(NewPayload(e))
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if log.IsTrace() {
		log.Trace("api payload", "url", a.url, "body", string(body))
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+a.token)
	return postJSON(ctx, a.client, a.url, body, header)
}
