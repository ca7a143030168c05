package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spiffcs/issuewatch/internal/differ"
	"github.com/spiffcs/issuewatch/internal/history"
	"github.com/spiffcs/issuewatch/internal/log"
	"github.com/spiffcs/issuewatch/internal/notify"
	"github.com/spiffcs/issuewatch/internal/poller"
)

// NewCmdRun creates the run command.
func NewCmdRun(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch for issue changes and send notifications (same as root issuewatch)",
		Long: `Loads the configuration, connects to the configured project or
repository, and polls it until interrupted. The first poll records the
current state without notifying; every later poll reports the changes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd, opts)
		},
	}
}

func runDaemon(cmd *cobra.Command, opts *Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if err := initLogging(cmd, opts, cfg, log.LevelInfo); err != nil {
		return err
	}
	defer log.Close()

	if log.IsDebug() {
		if y, err := cfg.Redacted().ToYAML(); err == nil {
			log.Debug("effective configuration", "config", y)
		}
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw, err := newGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.General.Platform, err)
	}

	n, err := newNotifier(cfg)
	if err != nil {
		return err
	}
	disp := notify.NewDispatcher(n)
	if !disp.Enabled() {
		log.Warn("notification.type is not set, changes will only be logged")
	}

	pollerOpts := []poller.Option{
		poller.WithInterval(cfg.PollInterval()),
		poller.WithCycleTimeout(cfg.CycleTimeout()),
	}
	if cfg.History.Enabled {
		store, err := history.NewStore(cfg.History.Path)
		if err != nil {
			log.Warn("cycle history disabled", "error", err)
		} else {
			log.Debug("recording cycle history", "path", store.Path())
			pollerOpts = append(pollerOpts, poller.WithHistory(store))
		}
	}

	d := differ.New(gw, differ.WithWorkers(cfg.General.Workers))
	p := poller.New(gw, d, disp, pollerOpts...)

	channel := "none"
	if n != nil {
		channel = n.Name()
	}
	log.Info("issuewatch started",
		"platform", gw.Platform(),
		"interval", cfg.PollInterval(),
		"channel", channel)

	if err := p.Run(ctx); err != nil {
		return err
	}

	sent, failed := disp.Stats()
	log.Info("issuewatch stopped", "notifications_sent", sent, "notifications_failed", failed)
	return nil
}

// contextOrBackground returns the command context, falling back to Background.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
