// Package gateway fetches issues and comments from a hosting platform.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/spiffcs/issuewatch/internal/model"
)

// Gateway is the read-only view of one project or repository.
type Gateway interface {
	// Platform reports which hosting platform the gateway talks to.
	Platform() model.Platform

	// Issues returns every issue regardless of state, sorted by key.
	Issues(ctx context.Context) ([]model.IssueSnapshot, error)

	// Comments returns the user comments of one issue, oldest first.
	Comments(ctx context.Context, key model.IssueKey) ([]model.Comment, error)
}

var (
	// ErrNotFound is returned when the project, repository or issue does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAuth is returned when the platform rejects the credentials.
	ErrAuth = errors.New("authentication failed")

	// ErrRateLimited is returned when the platform rate limit has been exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// TransportError wraps any other failure talking to the platform.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// statusError maps an HTTP status code to one of the sentinel errors.
// It returns nil when the status has no sentinel.
func statusError(code int) error {
	switch code {
	case 401, 403:
		return ErrAuth
	case 404:
		return ErrNotFound
	case 429:
		return ErrRateLimited
	default:
		return nil
	}
}

func wrap(op string, sentinel, cause error) error {
	return fmt.Errorf("%s: %w: %v", op, sentinel, cause)
}
