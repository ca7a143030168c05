package model

import "time"

// Kind is the type of change detected between two snapshots.
type Kind int

const (
	KindCreated Kind = iota
	KindTitleOrStateChanged
	KindReopened
	KindClosed
	KindCommentAdded
)

// String returns a stable, lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindCreated:
		return "created"
	case KindTitleOrStateChanged:
		return "title_or_state_changed"
	case KindReopened:
		return "reopened"
	case KindClosed:
		return "closed"
	case KindCommentAdded:
		return "comment_added"
	default:
		return "unknown"
	}
}

// Status is the routing tag carried by every event. The values are part
// of the API channel payload and must not change.
type Status string

const (
	StatusRegistered        Status = "registered"
	StatusUpdated           Status = "updated"
	StatusClosed            Status = "closed"
	StatusReopened          Status = "reopened"
	StatusCommentRegistered Status = "comment_registered"
)

// AllStatuses contains all valid status tags.
var AllStatuses = []Status{
	StatusRegistered,
	StatusUpdated,
	StatusClosed,
	StatusReopened,
	StatusCommentRegistered,
}

// Event is a single detected change, ready to be delivered by a notifier.
type Event struct {
	Kind          Kind
	Status        Status
	Platform      Platform
	Key           IssueKey
	Title         string
	PreviousTitle string
	Body          string
	Comment       *Comment
	URL           string
	Timestamp     time.Time
}

// NewCreated builds the event for an issue seen for the first time.
func NewCreated(p Platform, s IssueSnapshot) Event {
	return Event{
		Kind:      KindCreated,
		Status:    StatusRegistered,
		Platform:  p,
		Key:       s.Key,
		Title:     s.Title,
		Body:      s.Body,
		URL:       s.URL,
		Timestamp: s.CreatedAt,
	}
}

// NewChanged builds the event for a title or state change. The status is
// closed when the issue is now closed and updated otherwise.
func NewChanged(p Platform, prev, cur IssueSnapshot) Event {
	status := StatusUpdated
	if cur.IsClosed() {
		status = StatusClosed
	}
	return Event{
		Kind:          KindTitleOrStateChanged,
		Status:        status,
		Platform:      p,
		Key:           cur.Key,
		Title:         cur.Title,
		PreviousTitle: prev.Title,
		URL:           cur.URL,
		Timestamp:     cur.UpdatedAt,
	}
}

// NewReopened builds the event for a closed issue that is open again.
func NewReopened(p Platform, prev, cur IssueSnapshot) Event {
	return Event{
		Kind:          KindReopened,
		Status:        StatusReopened,
		Platform:      p,
		Key:           cur.Key,
		Title:         cur.Title,
		PreviousTitle: prev.Title,
		URL:           cur.URL,
		Timestamp:     cur.UpdatedAt,
	}
}

// NewClosed builds the event for an issue that disappeared from the fetch.
// The snapshot is the last one recorded before it disappeared.
func NewClosed(p Platform, last IssueSnapshot) Event {
	return Event{
		Kind:      KindClosed,
		Status:    StatusClosed,
		Platform:  p,
		Key:       last.Key,
		Title:     last.Title,
		URL:       last.URL,
		Timestamp: last.UpdatedAt,
	}
}

// NewCommentAdded builds the event for new comments, carrying the most
// recent one.
func NewCommentAdded(p Platform, s IssueSnapshot, latest Comment) Event {
	url := latest.URL
	if url == "" {
		url = s.URL
	}
	c := latest
	return Event{
		Kind:      KindCommentAdded,
		Status:    StatusCommentRegistered,
		Platform:  p,
		Key:       s.Key,
		Title:     s.Title,
		Comment:   &c,
		URL:       url,
		Timestamp: latest.CreatedAt,
	}
}
