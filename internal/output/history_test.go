package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spiffcs/issuewatch/internal/history"
	"github.com/spiffcs/issuewatch/internal/model"
)

func sampleRecords() []history.Record {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []history.Record{
		{Timestamp: ts, Platform: model.PlatformGitHub, Issues: 3, Bootstrap: true, DurationMS: 120},
		{
			Timestamp:  ts.Add(time.Minute),
			Platform:   model.PlatformGitHub,
			Issues:     4,
			Events:     map[model.Status]int{model.StatusRegistered: 1, model.StatusCommentRegistered: 2},
			Delivered:  2,
			Failed:     1,
			DurationMS: 340,
		},
		{Timestamp: ts.Add(2 * time.Minute), Platform: model.PlatformGitHub, Error: "github: unauthorized"},
	}
}

func TestFormatHistoryTable(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatHistory(FormatTable, sampleRecords(), &buf); err != nil {
		t.Fatalf("FormatHistory() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Issues",
		"initial load",
		"2/1",
		"340ms",
		"github: unauthorized",
		"3 cycles, 1 failed, 3 events",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	// registered is listed before comment_registered
	reg := strings.Index(out, "\U0001F195 1")
	com := strings.Index(out, "\U0001F4AC 2")
	if reg < 0 || com < 0 || reg > com {
		t.Errorf("unexpected event summary order:\n%s", out)
	}
}

func TestFormatHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatHistory(FormatTable, nil, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No cycles recorded.") {
		t.Errorf("unexpected output %q", buf.String())
	}

	buf.Reset()
	if err := FormatHistory(FormatJSON, nil, &buf); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected empty JSON array, got %q", buf.String())
	}
}

func TestFormatHistoryJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatHistory(FormatJSON, sampleRecords(), &buf); err != nil {
		t.Fatal(err)
	}

	var got []history.Record
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 3 || got[1].Events[model.StatusCommentRegistered] != 2 {
		t.Errorf("unexpected records %+v", got)
	}
}
