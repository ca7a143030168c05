package format

import "github.com/spiffcs/issuewatch/internal/model"

// Icon strings prefixed to chat messages, one per status tag.
const (
	// RegisteredIcon marks a new issue.
	RegisteredIcon = "\U0001F195" // 🆕

	// UpdatedIcon marks a title or state change.
	// Using U+270F + U+FE0F to force emoji presentation.
	UpdatedIcon = "\u270F\uFE0F" // ✏️

	// ReopenedIcon marks a reopened issue.
	ReopenedIcon = "\U0001F501" // 🔁

	// ClosedIcon marks a closed issue.
	ClosedIcon = "\u2705" // ✅

	// CommentIcon marks a new comment.
	CommentIcon = "\U0001F4AC" // 💬
)

// StatusIcon returns the icon for a status tag, or "" for unknown tags.
func StatusIcon(s model.Status) string {
	switch s {
	case model.StatusRegistered:
		return RegisteredIcon
	case model.StatusUpdated:
		return UpdatedIcon
	case model.StatusReopened:
		return ReopenedIcon
	case model.StatusClosed:
		return ClosedIcon
	case model.StatusCommentRegistered:
		return CommentIcon
	default:
		return ""
	}
}
