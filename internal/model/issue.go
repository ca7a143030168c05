// Package model contains domain types for the issuewatch application.
// These types are independent of any hosting platform client library.
package model

import (
	"strconv"
	"time"
)

// Platform identifies the hosting platform an issue comes from.
type Platform string

const (
	PlatformGitLab Platform = "gitlab"
	PlatformGitHub Platform = "github"
)

// AllPlatforms contains all supported platforms.
var AllPlatforms = []Platform{PlatformGitLab, PlatformGitHub}

// DisplayName returns the human-facing platform name ("GitLab", "GitHub").
func (p Platform) DisplayName() string {
	switch p {
	case PlatformGitLab:
		return "GitLab"
	case PlatformGitHub:
		return "GitHub"
	default:
		return string(p)
	}
}

// Valid reports whether p is one of AllPlatforms.
func (p Platform) Valid() bool {
	for _, known := range AllPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// IssueKey identifies an issue within one project or repository.
// GitLab uses the project-scoped iid, GitHub the repository-scoped number.
type IssueKey int

// String returns the key in decimal form.
func (k IssueKey) String() string {
	return strconv.Itoa(int(k))
}

// State is the open/closed state of an issue.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// IssueSnapshot is the last observed state of one issue.
type IssueSnapshot struct {
	Key          IssueKey  `json:"issue_id"`
	Title        string    `json:"title"`
	State        State     `json:"state"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Body         string    `json:"body,omitempty"`
	URL          string    `json:"url"`
	CommentCount int       `json:"comment_count"`
}

// IsClosed reports whether the issue is closed.
func (s IssueSnapshot) IsClosed() bool {
	return s.State == StateClosed
}

// Comment is a single user comment (GitHub issue comment, GitLab note).
type Comment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author,omitempty"`
	Body      string    `json:"body"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
