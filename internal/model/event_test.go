package model

import (
	"testing"
	"time"
)

func TestNewChangedStatus(t *testing.T) {
	prev := IssueSnapshot{Key: 7, Title: "A", State: StateOpen}

	tests := []struct {
		name  string
		state State
		want  Status
	}{
		{"closed issue", StateClosed, StatusClosed},
		{"open issue", StateOpen, StatusUpdated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := IssueSnapshot{Key: 7, Title: "A2", State: tt.state}
			e := NewChanged(PlatformGitHub, prev, cur)
			if e.Status != tt.want {
				t.Errorf("NewChanged().Status = %q, want %q", e.Status, tt.want)
			}
			if e.PreviousTitle != "A" {
				t.Errorf("NewChanged().PreviousTitle = %q, want %q", e.PreviousTitle, "A")
			}
		})
	}
}

func TestNewCommentAdded(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := IssueSnapshot{Key: 3, Title: "X", URL: "https://example.com/issues/3"}

	t.Run("uses comment url", func(t *testing.T) {
		e := NewCommentAdded(PlatformGitHub, s, Comment{Body: "hi", URL: "https://example.com/issues/3#c1", CreatedAt: at})
		if e.URL != "https://example.com/issues/3#c1" {
			t.Errorf("URL = %q", e.URL)
		}
		if !e.Timestamp.Equal(at) {
			t.Errorf("Timestamp = %v, want %v", e.Timestamp, at)
		}
		if e.Comment == nil || e.Comment.Body != "hi" {
			t.Errorf("Comment = %+v", e.Comment)
		}
	})

	t.Run("falls back to issue url", func(t *testing.T) {
		e := NewCommentAdded(PlatformGitLab, s, Comment{Body: "hi"})
		if e.URL != s.URL {
			t.Errorf("URL = %q, want %q", e.URL, s.URL)
		}
	})
}

func TestPlatform(t *testing.T) {
	if !PlatformGitLab.Valid() || !PlatformGitHub.Valid() {
		t.Error("expected known platforms to be valid")
	}
	if Platform("bitbucket").Valid() {
		t.Error("expected unknown platform to be invalid")
	}
	if PlatformGitHub.DisplayName() != "GitHub" {
		t.Errorf("DisplayName() = %q", PlatformGitHub.DisplayName())
	}
}
