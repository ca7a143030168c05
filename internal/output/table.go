package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/spiffcs/issuewatch/internal/format"
	"github.com/spiffcs/issuewatch/internal/model"
)

// TableFormatter formats output as a terminal table
type TableFormatter struct {
	// Now is used for ages; time.Now when zero.
	Now time.Time
	// Links forces OSC 8 hyperlinks on or off; nil detects a terminal.
	Links *bool
}

// Column widths
const (
	colKey      = 6
	colState    = 6
	colTitle    = 60
	colComments = 8
	colAge      = 7
)

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func hyperlink(text, url string) string {
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

func (f *TableFormatter) links() bool {
	if f.Links != nil {
		return *f.Links
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// colorState renders the state column.
func colorState(s model.State) string {
	if s == model.StateClosed {
		return color.New(color.FgMagenta).Sprint(string(s))
	}
	return color.New(color.FgGreen).Sprint(string(s))
}

// Format outputs issues as a table
func (f *TableFormatter) Format(p model.Platform, issues []model.IssueSnapshot, w io.Writer) error {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return nil
	}

	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}
	links := f.links()

	fmt.Fprintf(w, "%-*s  %-*s  %-*s  %-*s  %s\n",
		colKey, "#",
		colState, "State",
		colTitle, "Title",
		colComments, "Comments",
		"Updated")
	fmt.Fprintln(w, strings.Repeat("-", colKey+colState+colTitle+colComments+colAge+8))

	for _, issue := range issues {
		key := "#" + issue.Key.String()
		keyWidth := format.DisplayWidth(key)
		if links && issue.URL != "" {
			key = hyperlink(key, issue.URL)
		}

		title, titleWidth := format.TruncateToWidth(singleLine(issue.Title), colTitle)

		fmt.Fprintf(w, "%s  %s  %s  %-*d  %s\n",
			format.PadRight(key, keyWidth, colKey),
			format.PadRight(colorState(issue.State), len(issue.State), colState),
			format.PadRight(title, titleWidth, colTitle),
			colComments, issue.CommentCount,
			format.Age(issue.UpdatedAt, now),
		)
	}

	printFooterSummary(p, issues, w)
	return nil
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// printFooterSummary prints issue counts below the table.
func printFooterSummary(p model.Platform, issues []model.IssueSnapshot, w io.Writer) {
	s := Summarize(issues)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %d issues (%d open, %d closed)\n", p.DisplayName(), s.Total, s.Open, s.Closed)
}
