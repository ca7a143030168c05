// Package format provides shared text formatting utilities for notification
// messages and terminal output.
package format

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/spiffcs/issuewatch/internal/constants"
)

// DisplayWidth returns the visible width of a string in terminal columns,
// accounting for wide characters like emojis and CJK text.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// TruncateToWidth truncates s to fit within maxWidth display columns.
// When truncation occurs the ellipsis marker is appended and counted in
// maxWidth. Returns the resulting string and its visible width.
func TruncateToWidth(s string, maxWidth int) (string, int) {
	width := DisplayWidth(s)
	if width <= maxWidth {
		return s, width
	}

	marker := constants.EllipsisMarker
	target := maxWidth - len(marker)
	if target <= 0 {
		return marker, len(marker)
	}

	var b strings.Builder
	visible := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if visible+rw > target {
			break
		}
		b.WriteRune(r)
		visible += rw
	}
	b.WriteString(marker)

	return b.String(), visible + len(marker)
}

// TruncateLines keeps at most maxLines lines of s, each capped at
// constants.MaxLineWidth columns. When lines are dropped the ellipsis
// marker is appended on its own line. A non-positive maxLines keeps every
// line. Trailing blank lines are ignored.
func TruncateLines(s string, maxLines int) string {
	s = strings.TrimRight(strings.ReplaceAll(s, "\r\n", "\n"), "\n \t")
	if s == "" {
		return ""
	}

	lines := strings.Split(s, "\n")
	truncated := false
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		truncated = true
	}

	for i, line := range lines {
		lines[i], _ = TruncateToWidth(line, constants.MaxLineWidth)
	}
	if truncated {
		lines = append(lines, constants.EllipsisMarker)
	}

	return strings.Join(lines, "\n")
}

// PadRight pads a string with spaces to reach the target visible width.
func PadRight(s string, visibleWidth, targetWidth int) string {
	if visibleWidth >= targetWidth {
		return s
	}
	return s + strings.Repeat(" ", targetWidth-visibleWidth)
}
