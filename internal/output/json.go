package output

import (
	"encoding/json"
	"io"

	"github.com/spiffcs/issuewatch/internal/model"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// JSONOutput wraps the issues with metadata for JSON output
type JSONOutput struct {
	Platform model.Platform        `json:"platform"`
	Issues   []model.IssueSnapshot `json:"issues"`
	Summary  Summary               `json:"summary"`
}

// Format outputs issues and their summary as JSON
func (f *JSONFormatter) Format(p model.Platform, issues []model.IssueSnapshot, w io.Writer) error {
	if issues == nil {
		issues = []model.IssueSnapshot{}
	}
	out := JSONOutput{
		Platform: p,
		Issues:   issues,
		Summary:  Summarize(issues),
	}

	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(out)
}
