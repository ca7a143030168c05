// Package poller drives poll cycles: fetch, diff, notify, commit.
package poller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/spiffcs/issuewatch/internal/constants"
	"github.com/spiffcs/issuewatch/internal/differ"
	"github.com/spiffcs/issuewatch/internal/gateway"
	"github.com/spiffcs/issuewatch/internal/history"
	"github.com/spiffcs/issuewatch/internal/log"
	"github.com/spiffcs/issuewatch/internal/model"
	"github.com/spiffcs/issuewatch/internal/notify"
)

// State is the activity of the poller.
type State int32

const (
	Idle State = iota
	Polling
)

func (s State) String() string {
	if s == Polling {
		return "polling"
	}
	return "idle"
}

// Recorder receives a summary of every finished cycle.
type Recorder interface {
	Append(rec history.Record) error
}

// Poller runs cycles one at a time against a single gateway.
type Poller struct {
	gw     gateway.Gateway
	differ *differ.Differ
	disp   *notify.Dispatcher
	rec    Recorder

	interval     time.Duration
	cycleTimeout time.Duration

	mu    sync.Mutex // held for the duration of a cycle
	state atomic.Int32
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the period between cycles. cron schedules have one
// second resolution.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithCycleTimeout bounds each cycle.
func WithCycleTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.cycleTimeout = d
		}
	}
}

// WithHistory records a summary of each cycle, including failed ones.
func WithHistory(r Recorder) Option {
	return func(p *Poller) {
		p.rec = r
	}
}

// New creates a Poller.
func New(gw gateway.Gateway, d *differ.Differ, disp *notify.Dispatcher, opts ...Option) *Poller {
	p := &Poller{
		gw:           gw,
		differ:       d,
		disp:         disp,
		interval:     constants.DefaultPollInterval,
		cycleTimeout: constants.DefaultCycleTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State reports whether a cycle is running.
func (p *Poller) State() State {
	return State(p.state.Load())
}

// RunCycle performs one cycle. On a gateway or diff error nothing is
// committed and the error is returned after being logged. Delivery
// failures never fail the cycle.
func (p *Poller) RunCycle(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.Store(int32(Polling))
	defer p.state.Store(int32(Idle))

	// cycleTimeout bounds fetching and diffing only. Deliveries run on the
	// caller's ctx so a rate limited backlog is paced out, not dropped;
	// each send carries its own request timeout.
	deliverCtx := ctx
	ctx, cancel := context.WithTimeout(ctx, p.cycleTimeout)
	defer cancel()

	start := time.Now()
	platform := p.gw.Platform()
	rec := history.Record{Timestamp: start, Platform: platform}
	defer func() {
		rec.DurationMS = time.Since(start).Milliseconds()
		p.record(rec)
	}()

	issues, err := p.gw.Issues(ctx)
	if err != nil {
		log.Error("poll cycle failed", "platform", platform, "stage", "issues", "error", err)
		rec.Error = err.Error()
		return fmt.Errorf("fetch issues: %w", err)
	}

	result, err := p.differ.Diff(ctx, issues)
	if err != nil {
		log.Error("poll cycle failed", "platform", platform, "stage", "comments", "error", err)
		rec.Error = err.Error()
		return fmt.Errorf("diff issues: %w", err)
	}

	sentBefore, failedBefore := p.disp.Stats()
	for _, e := range result.Events {
		log.Debug("change detected", "issue", e.Key, "kind", e.Kind, "status", e.Status)
		p.disp.Send(deliverCtx, e)
	}
	sent, failed := p.disp.Stats()

	p.differ.Commit(result)

	rec.Issues = len(result.Next)
	rec.Bootstrap = result.Bootstrap
	rec.Delivered = sent - sentBefore
	rec.Failed = failed - failedBefore
	rec.Events = countByStatus(result.Events)

	if result.Bootstrap {
		log.Info("initial state loaded, monitoring started",
			"platform", platform, "issues", len(result.Next))
		return nil
	}

	log.Info("poll cycle complete",
		"platform", platform,
		"issues", len(result.Next),
		"events", len(result.Events),
		"duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func (p *Poller) record(rec history.Record) {
	if p.rec == nil {
		return
	}
	if err := p.rec.Append(rec); err != nil {
		log.Warn("failed to record cycle history", "error", err)
	}
}

func countByStatus(events []model.Event) map[model.Status]int {
	if len(events) == 0 {
		return nil
	}
	counts := make(map[model.Status]int, len(model.AllStatuses))
	for _, e := range events {
		counts[e.Status]++
	}
	return counts
}

// Run performs one cycle immediately and then one per interval until ctx
// is cancelled. A slow cycle delays the next one; cycles never overlap.
// A cycle in progress when ctx is cancelled runs to completion.
func (p *Poller) Run(ctx context.Context) error {
	cycleCtx := context.WithoutCancel(ctx)

	_ = p.RunCycle(cycleCtx)

	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.DelayIfStillRunning(logger)),
	)

	spec := fmt.Sprintf("@every %s", p.interval)
	if _, err := c.AddFunc(spec, func() { _ = p.RunCycle(cycleCtx) }); err != nil {
		return fmt.Errorf("failed to schedule polling %q: %w", spec, err)
	}

	c.Start()
	log.Info("polling started", "interval", p.interval)

	<-ctx.Done()
	log.Info("stopping, waiting for running cycle")
	<-c.Stop().Done()

	return nil
}

// cronLogger routes cron's logging through the package logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	log.Trace("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
