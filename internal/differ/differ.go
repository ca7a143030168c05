// Package differ detects issue changes between two poll cycles.
//
// A Differ owns the snapshot table: the last committed view of every issue
// in the watched project, including the number of comments seen so far.
// Diff compares a fresh fetch against the table without modifying it, and
// Commit installs the result once the caller has delivered the events.
package differ

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/issuewatch/internal/constants"
	"github.com/spiffcs/issuewatch/internal/log"
	"github.com/spiffcs/issuewatch/internal/model"
)

// CommentSource lists the comments of one issue.
type CommentSource interface {
	Platform() model.Platform
	Comments(ctx context.Context, key model.IssueKey) ([]model.Comment, error)
}

// Table maps issue keys to their last committed snapshot. CommentCount in
// each snapshot is the number of comments the differ has already seen.
type Table map[model.IssueKey]model.IssueSnapshot

// Keys returns the table keys in ascending order.
func (t Table) Keys() []model.IssueKey {
	keys := make([]model.IssueKey, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (t Table) clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Result is the outcome of one Diff.
type Result struct {
	// Events in delivery order: issues present in the fetch first, then
	// issues that disappeared, each group by ascending key.
	Events []model.Event
	// Next is the table to install with Commit.
	Next Table
	// Bootstrap is true when this was the first successful diff. No events
	// are produced on bootstrap.
	Bootstrap bool
}

// Differ holds the snapshot table between cycles. It is not safe for
// concurrent use; the poller serializes cycles.
type Differ struct {
	src          CommentSource
	workers      int
	table        Table
	bootstrapped bool
}

// Option configures a Differ.
type Option func(*Differ)

// WithWorkers sets how many comment lists are fetched concurrently.
func WithWorkers(n int) Option {
	return func(d *Differ) {
		if n > 0 {
			d.workers = n
		}
	}
}

// New creates a Differ with an empty table.
func New(src CommentSource, opts ...Option) *Differ {
	d := &Differ{
		src:     src,
		workers: constants.DefaultWorkers,
		table:   make(Table),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Bootstrapped reports whether a result has been committed.
func (d *Differ) Bootstrapped() bool {
	return d.bootstrapped
}

// Table returns a copy of the committed table.
func (d *Differ) Table() Table {
	return d.table.clone()
}

// Diff compares fetched against the committed table. Comments are fetched
// for every issue; any comment error aborts the diff. The table is left
// untouched until Commit.
func (d *Differ) Diff(ctx context.Context, fetched []model.IssueSnapshot) (*Result, error) {
	issues := dedupe(fetched)

	comments, err := d.fetchComments(ctx, issues)
	if err != nil {
		return nil, err
	}

	next := make(Table, len(issues))

	if !d.bootstrapped {
		for i, cur := range issues {
			cur.CommentCount = len(comments[i])
			next[cur.Key] = cur
		}
		log.Debug("bootstrap snapshot", "issues", len(next))
		return &Result{Next: next, Bootstrap: true}, nil
	}

	platform := d.src.Platform()
	var events []model.Event

	for i, cur := range issues {
		prev, seen := d.table[cur.Key]

		switch {
		case !seen:
			events = append(events, model.NewCreated(platform, cur))
		case prev.IsClosed() && !cur.IsClosed():
			events = append(events, model.NewReopened(platform, prev, cur))
		case prev.State != cur.State || prev.Title != cur.Title:
			events = append(events, model.NewChanged(platform, prev, cur))
		}

		count := len(comments[i])
		if count > prev.CommentCount {
			latest := comments[i][count-1]
			events = append(events, model.NewCommentAdded(platform, cur, latest))
		}

		cur.CommentCount = count
		next[cur.Key] = cur
	}

	for _, key := range d.table.Keys() {
		if _, ok := next[key]; ok {
			continue
		}
		events = append(events, model.NewClosed(platform, d.table[key]))
	}

	return &Result{Events: events, Next: next}, nil
}

// Commit installs r.Next as the committed table.
func (d *Differ) Commit(r *Result) {
	if r == nil {
		return
	}
	d.table = r.Next
	if d.table == nil {
		d.table = make(Table)
	}
	d.bootstrapped = true
}

// fetchComments lists the comments of every issue with bounded concurrency.
// comments[i] belongs to issues[i].
func (d *Differ) fetchComments(ctx context.Context, issues []model.IssueSnapshot) ([][]model.Comment, error) {
	comments := make([][]model.Comment, len(issues))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for i, issue := range issues {
		g.Go(func() error {
			list, err := d.src.Comments(ctx, issue.Key)
			if err != nil {
				return fmt.Errorf("comments of issue %s: %w", issue.Key, err)
			}
			comments[i] = list
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return comments, nil
}

// dedupe returns fetched sorted by key, keeping the first snapshot of any
// duplicated key.
func dedupe(fetched []model.IssueSnapshot) []model.IssueSnapshot {
	seen := make(map[model.IssueKey]struct{}, len(fetched))
	out := make([]model.IssueSnapshot, 0, len(fetched))

	for _, s := range fetched {
		if _, dup := seen[s.Key]; dup {
			log.Warn("duplicate issue in fetch, keeping first", "issue", s.Key)
			continue
		}
		seen[s.Key] = struct{}{}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
