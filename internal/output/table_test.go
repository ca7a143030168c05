package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/spiffcs/issuewatch/internal/model"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleIssues() []model.IssueSnapshot {
	return []model.IssueSnapshot{
		{Key: 1, Title: "Crash | on start", State: model.StateOpen, URL: "https://example.com/1", CommentCount: 2, UpdatedAt: now.Add(-2 * time.Hour)},
		{Key: 2, Title: strings.Repeat("long title ", 10), State: model.StateClosed, URL: "https://example.com/2", UpdatedAt: now.Add(-72 * time.Hour)},
	}
}

func init() {
	color.NoColor = true
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"markdown", FormatMarkdown, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseFormat(%q) expected error", tt.input)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestTableFormatter(t *testing.T) {
	noLinks := false
	f := &TableFormatter{Now: now, Links: &noLinks}

	var buf bytes.Buffer
	if err := f.Format(model.PlatformGitHub, sampleIssues(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"#1", "open", "closed", "Crash | on start", "2h", "3d", "GitHub: 2 issues (1 open, 1 closed)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "...") {
		t.Errorf("expected long title to be truncated, got:\n%s", out)
	}
	if strings.Contains(out, "\033]8;;") {
		t.Errorf("expected no hyperlinks, got:\n%q", out)
	}
}

func TestTableFormatterHyperlinks(t *testing.T) {
	links := true
	f := &TableFormatter{Now: now, Links: &links}

	var buf bytes.Buffer
	if err := f.Format(model.PlatformGitLab, sampleIssues()[:1], &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\033]8;;https://example.com/1\033\\#1") {
		t.Errorf("expected OSC 8 hyperlink, got:\n%q", buf.String())
	}
}

func TestTableFormatterEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(model.PlatformGitHub, nil, &buf); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "No issues found." {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(model.PlatformGitHub, sampleIssues(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var got JSONOutput
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Platform != model.PlatformGitHub {
		t.Errorf("Platform = %q", got.Platform)
	}
	if len(got.Issues) != 2 || got.Issues[0].Key != 1 {
		t.Errorf("unexpected issues: %+v", got.Issues)
	}
	if got.Summary != (Summary{Total: 2, Open: 1, Closed: 1}) {
		t.Errorf("Summary = %+v", got.Summary)
	}
}

func TestJSONFormatterEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(model.PlatformGitHub, nil, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"issues":[]`) {
		t.Errorf("expected empty array, got %s", buf.String())
	}
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownFormatter{Now: now}).Format(model.PlatformGitLab, sampleIssues(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"# GitLab Issues", "## Open (1)", "## Closed (1)", "[1](https://example.com/1)", `Crash \| on start`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}
