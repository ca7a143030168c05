// Package constants provides a centralized location for all configuration
// defaults and magic numbers used throughout the issuewatch application.
package constants

import "time"

// Polling constants
const (
	// DefaultPollInterval is the period between two poll cycles.
	DefaultPollInterval = 60 * time.Second

	// DefaultCycleTimeout bounds a whole poll cycle (issue fetch, comment
	// fetches and deliveries).
	DefaultCycleTimeout = 5 * time.Minute

	// DefaultWorkers is the number of comment lists fetched concurrently
	// while diffing.
	DefaultWorkers = 4
)

// HTTP constants
const (
	// RequestTimeout bounds every outbound HTTP request, to the hosting
	// platform and to notification endpoints alike.
	RequestTimeout = 30 * time.Second

	// PageSize is the number of records requested per page from the
	// hosting platform APIs.
	PageSize = 100

	// RateLimitLowWatermark is the threshold below which rate limit
	// warnings are logged.
	RateLimitLowWatermark = 100
)

// Notification constants
const (
	// DefaultMaxLines is the maximum number of lines kept from a title,
	// body or comment in a chat message.
	DefaultMaxLines = 3

	// MaxLineWidth caps the display width of a single line in a chat
	// message.
	MaxLineWidth = 200

	// DefaultRatePerSec is the default chat delivery rate.
	DefaultRatePerSec = 1

	// EllipsisMarker is appended to truncated text.
	EllipsisMarker = "..."
)

// Platform defaults
const (
	// DefaultGitLabURL is used when gitlab.server_url is empty.
	DefaultGitLabURL = "https://gitlab.com"

	// DefaultSMTPPort is the submission port used with STARTTLS.
	DefaultSMTPPort = 587
)

// StateClosed is the closed state as reported by both platforms. Any other
// state, including GitLab's "opened", is treated as open.
const StateClosed = "closed"
