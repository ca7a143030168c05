// Package output renders issue lists for the terminal.
package output

import (
	"fmt"
	"io"

	"github.com/spiffcs/issuewatch/internal/model"
)

// Format represents the output format
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatMarkdown:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be table, json or markdown)", s)
	}
}

// Formatter defines the interface for output formatters
type Formatter interface {
	Format(p model.Platform, issues []model.IssueSnapshot, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// Summary counts issues by state.
type Summary struct {
	Total  int `json:"total"`
	Open   int `json:"open"`
	Closed int `json:"closed"`
}

// Summarize counts issues by state.
func Summarize(issues []model.IssueSnapshot) Summary {
	s := Summary{Total: len(issues)}
	for _, issue := range issues {
		if issue.IsClosed() {
			s.Closed++
		} else {
			s.Open++
		}
	}
	return s
}
