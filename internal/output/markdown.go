package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spiffcs/issuewatch/internal/format"
	"github.com/spiffcs/issuewatch/internal/model"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct {
	// Now is used for ages; time.Now when zero.
	Now time.Time
}

// Format outputs issues as a Markdown report grouped by state
func (f *MarkdownFormatter) Format(p model.Platform, issues []model.IssueSnapshot, w io.Writer) error {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return nil
	}

	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}

	fmt.Fprintf(w, "# %s Issues\n", p.DisplayName())
	fmt.Fprintf(w, "\n*Generated: %s*\n\n", now.Format("2006-01-02 15:04"))

	groups := []struct {
		title string
		state model.State
	}{
		{"Open", model.StateOpen},
		{"Closed", model.StateClosed},
	}

	for _, g := range groups {
		var rows []model.IssueSnapshot
		for _, issue := range issues {
			if issue.State == g.state {
				rows = append(rows, issue)
			}
		}
		if len(rows) == 0 {
			continue
		}

		fmt.Fprintf(w, "## %s (%d)\n\n", g.title, len(rows))
		fmt.Fprintln(w, "| # | Title | Comments | Updated |")
		fmt.Fprintln(w, "|---|-------|----------|---------|")
		for _, issue := range rows {
			fmt.Fprintf(w, "| [%s](%s) | %s | %d | %s |\n",
				issue.Key, issue.URL,
				escapeMarkdown(issue.Title),
				issue.CommentCount,
				format.Age(issue.UpdatedAt, now))
		}
		fmt.Fprintln(w)
	}

	return nil
}

// escapeMarkdown keeps a title on one table row.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
