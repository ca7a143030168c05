// Package history keeps a bounded JSON Lines journal of poll cycles.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spiffcs/issuewatch/internal/model"
)

const (
	// maxRecords is the maximum number of cycles retained in the journal.
	maxRecords = 1000

	// maxLineSize caps a single journal line; longer lines fail the read.
	maxLineSize = 1024 * 1024
)

// Record summarizes a single poll cycle.
type Record struct {
	Timestamp  time.Time            `json:"ts"`
	Platform   model.Platform       `json:"platform"`
	Issues     int                  `json:"issues"`
	Bootstrap  bool                 `json:"bootstrap,omitempty"`
	Events     map[model.Status]int `json:"events,omitempty"`
	Delivered  int                  `json:"delivered"`
	Failed     int                  `json:"failed"`
	DurationMS int64                `json:"durationMs"`
	Error      string               `json:"error,omitempty"`
}

// TotalEvents returns the number of events across all statuses.
func (r Record) TotalEvents() int {
	n := 0
	for _, c := range r.Events {
		n += c
	}
	return n
}

// Store appends cycle records to a file. It is never read back by the
// watcher itself.
type Store struct {
	path string
	mu   sync.Mutex
}

// DefaultPath returns the journal location in the user cache directory.
func DefaultPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "issuewatch", "cycles.jsonl"), nil
}

// NewStore creates a store at path, creating its directory. An empty path
// selects DefaultPath.
func NewStore(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return &Store{path: path}, nil
}

// Path returns the journal file location.
func (s *Store) Path() string {
	return s.path
}

// Append adds a record and prunes to the last maxRecords entries. When the
// existing journal cannot be read it is left untouched and an error is
// returned.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return fmt.Errorf("read cycle history %s: %w", s.path, err)
	}

	records = append(records, rec)
	if len(records) > maxRecords {
		records = records[len(records)-maxRecords:]
	}

	return s.writeAll(records)
}

// Recent returns the last n records, oldest first.
func (s *Store) Recent(n int) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil
	}
	if n <= 0 || len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}

func (s *Store) readAll() ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue // skip malformed lines
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

// writeAll replaces the journal through a temp file and rename.
func (s *Store) writeAll(records []Record) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, s.path)
}
