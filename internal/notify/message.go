package notify

import (
	"fmt"
	"strings"

	"github.com/spiffcs/issuewatch/internal/format"
	"github.com/spiffcs/issuewatch/internal/model"
)

// Subject returns the mail subject for e, e.g. "GitHub New Issue Alert".
func Subject(e model.Event) string {
	p := e.Platform.DisplayName()
	switch e.Status {
	case model.StatusRegistered:
		return p + " New Issue Alert"
	case model.StatusUpdated:
		return p + " Issue Update Alert"
	case model.StatusReopened:
		return p + " Issue Reopened Alert"
	case model.StatusClosed:
		return p + " Issue Closed Alert"
	case model.StatusCommentRegistered:
		return p + " New Comment Alert"
	default:
		return p + " Issue Alert"
	}
}

// Message renders the text of e. Title, body and comment are cut to
// maxLines lines; non-positive maxLines keeps everything.
func Message(e model.Event, maxLines int) string {
	p := e.Platform.DisplayName()
	title := format.TruncateLines(e.Title, maxLines)
	id := "#" + e.Key.String()

	var b strings.Builder
	if icon := format.StatusIcon(e.Status); icon != "" {
		b.WriteString(icon)
		b.WriteByte(' ')
	}

	switch e.Status {
	case model.StatusRegistered:
		fmt.Fprintf(&b, "[New %s Issue] %s (ID: %s)", p, title, id)
		if body := format.TruncateLines(e.Body, maxLines); body != "" {
			b.WriteString("\n")
			b.WriteString(body)
		}
	case model.StatusUpdated:
		prev := e.PreviousTitle
		if prev == "" {
			prev = e.Title
		}
		fmt.Fprintf(&b, "[%s Issue Change] '%s' (ID: %s) updated.", p, format.TruncateLines(prev, maxLines), id)
		if e.PreviousTitle != "" && e.PreviousTitle != e.Title {
			fmt.Fprintf(&b, "\nNew title: %s", title)
		}
	case model.StatusReopened:
		fmt.Fprintf(&b, "[%s Issue Reopened] '%s' (ID: %s) has been reopened.", p, title, id)
	case model.StatusClosed:
		fmt.Fprintf(&b, "[%s Issue Closed] '%s' (ID: %s) has been closed.", p, title, id)
	case model.StatusCommentRegistered:
		fmt.Fprintf(&b, "[%s New Comment] New comment on '%s' (ID: %s)", p, title, id)
		if e.Comment != nil {
			if e.Comment.Author != "" {
				fmt.Fprintf(&b, " by %s", e.Comment.Author)
			}
			if body := format.TruncateLines(e.Comment.Body, maxLines); body != "" {
				b.WriteString("\n")
				b.WriteString(body)
			}
		}
	default:
		fmt.Fprintf(&b, "[%s Issue] %s (ID: %s)", p, title, id)
	}

	if e.URL != "" {
		b.WriteString("\nURL: ")
		b.WriteString(e.URL)
	}
	return b.String()
}
