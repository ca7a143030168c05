package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spiffcs/issuewatch/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "nested", "cycles.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := newTestStore(t)

	if got := s.Recent(10); len(got) != 0 {
		t.Fatalf("expected 0 records, got %d", len(got))
	}

	first := Record{
		Timestamp: time.Now(),
		Platform:  model.PlatformGitHub,
		Issues:    12,
		Bootstrap: true,
	}
	if err := s.Append(first); err != nil {
		t.Fatal(err)
	}

	second := Record{
		Timestamp: time.Now(),
		Platform:  model.PlatformGitHub,
		Issues:    13,
		Events: map[model.Status]int{
			model.StatusRegistered:        1,
			model.StatusCommentRegistered: 2,
		},
		Delivered: 3,
	}
	if err := s.Append(second); err != nil {
		t.Fatal(err)
	}

	got := s.Recent(10)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if !got[0].Bootstrap || got[0].Issues != 12 {
		t.Errorf("unexpected first record %+v", got[0])
	}
	if got[1].Events[model.StatusCommentRegistered] != 2 {
		t.Errorf("expected 2 comment events, got %+v", got[1].Events)
	}
	if got[1].TotalEvents() != 3 {
		t.Errorf("TotalEvents() = %d, want 3", got[1].TotalEvents())
	}
}

func TestRecentLimitsResults(t *testing.T) {
	s := newTestStore(t)

	for i := range 10 {
		if err := s.Append(Record{Issues: i}); err != nil {
			t.Fatal(err)
		}
	}

	got := s.Recent(3)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].Issues != 7 || got[2].Issues != 9 {
		t.Fatalf("expected the last three records, got %+v", got)
	}

	if all := s.Recent(0); len(all) != 10 {
		t.Fatalf("Recent(0) returned %d records, want 10", len(all))
	}
}

func TestPrune(t *testing.T) {
	s := newTestStore(t)

	for i := range maxRecords + 5 {
		if err := s.Append(Record{Issues: i}); err != nil {
			t.Fatal(err)
		}
	}

	got := s.Recent(maxRecords + 100)
	if len(got) != maxRecords {
		t.Fatalf("expected %d records after prune, got %d", maxRecords, len(got))
	}
	if got[0].Issues != 5 {
		t.Fatalf("expected first record Issues 5, got %d", got[0].Issues)
	}
}

func TestReopenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycles.jsonl")

	s1, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Append(Record{Issues: 99, Error: "fetch issues: boom"}); err != nil {
		t.Fatal(err)
	}

	s2, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got := s2.Recent(10)
	if len(got) != 1 || got[0].Error != "fetch issues: boom" {
		t.Fatalf("unexpected records %+v", got)
	}
	if s2.Path() != path {
		t.Errorf("Path() = %q, want %q", s2.Path(), path)
	}
}

func TestMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycles.jsonl")
	content := `{"ts":"2024-01-01T00:00:00Z","issues":10}
not json at all
{"ts":"2024-01-02T00:00:00Z","issues":20}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got := s.Recent(10)
	if len(got) != 2 {
		t.Fatalf("expected 2 valid records, got %d", len(got))
	}
	if got[0].Issues != 10 || got[1].Issues != 20 {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestAppendKeepsUnreadableJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycles.jsonl")
	content := `{"ts":"2024-01-01T00:00:00Z","issues":10}
` + strings.Repeat("x", maxLineSize+1) + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Append(Record{Issues: 11}); err == nil {
		t.Fatal("expected Append to fail on an unreadable journal")
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Fatalf("journal was rewritten, now %d bytes, want %d", len(got), len(content))
	}
}
