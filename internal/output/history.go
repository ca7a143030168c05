package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/spiffcs/issuewatch/internal/format"
	"github.com/spiffcs/issuewatch/internal/history"
	"github.com/spiffcs/issuewatch/internal/model"
)

const (
	colTime   = 19
	colIssues = 6
	colEvents = 24
	colSent   = 9
	colMillis = 8
	colError  = 50
)

// FormatHistory writes cycle records, oldest first. Markdown falls back to
// the table layout.
func FormatHistory(f Format, records []history.Record, w io.Writer) error {
	if f == FormatJSON {
		if records == nil {
			records = []history.Record{}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No cycles recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-*s  %-*s  %-*s  %-*s  %-*s  %s\n",
		colTime, "Time",
		colIssues, "Issues",
		colEvents, "Events",
		colSent, "Sent/Fail",
		colMillis, "Took",
		"Error")
	fmt.Fprintln(w, strings.Repeat("-", colTime+colIssues+colEvents+colSent+colMillis+colError+10))

	var cycles, failures, events int
	for _, r := range records {
		cycles++
		events += r.TotalEvents()

		ev, evWidth := format.TruncateToWidth(eventSummary(r), colEvents)
		errText, _ := format.TruncateToWidth(singleLine(r.Error), colError)
		if r.Error != "" {
			failures++
			errText = color.New(color.FgRed).Sprint(errText)
		}

		fmt.Fprintf(w, "%-*s  %-*d  %s  %-*s  %-*s  %s\n",
			colTime, r.Timestamp.Local().Format(time.DateTime),
			colIssues, r.Issues,
			format.PadRight(ev, evWidth, colEvents),
			colSent, fmt.Sprintf("%d/%d", r.Delivered, r.Failed),
			colMillis, (time.Duration(r.DurationMS) * time.Millisecond).String(),
			errText,
		)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d cycles, %d failed, %d events\n", cycles, failures, events)
	return nil
}

// eventSummary renders per-status counts as icon and number pairs.
func eventSummary(r history.Record) string {
	if r.Bootstrap {
		return "initial load"
	}
	if r.TotalEvents() == 0 {
		return "-"
	}
	var parts []string
	for _, s := range model.AllStatuses {
		if n := r.Events[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", format.StatusIcon(s), n))
		}
	}
	return strings.Join(parts, " ")
}
