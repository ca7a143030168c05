package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/issuewatch/internal/log"
	"github.com/spiffcs/issuewatch/internal/model"
)

// NewCmdNotify creates the notify command.
func NewCmdNotify(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Work with the notification channel",
	}
	cmd.AddCommand(NewCmdNotifyTest(opts))
	return cmd
}

// NewCmdNotifyTest creates the notify test subcommand.
func NewCmdNotifyTest(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test notification through the configured channel",
		Long: `Sends a synthetic "new issue" notification through the configured
channel. Unlike the watcher, a delivery failure is reported as an error.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNotifyTest(cmd, opts)
		},
	}
}

func runNotifyTest(cmd *cobra.Command, opts *Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if err := initLogging(cmd, opts, cfg, 0); err != nil {
		return err
	}
	defer log.Close()

	n, err := newNotifier(cfg)
	if err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("notification.type is not set, nothing to test")
	}

	e := model.NewCreated(model.Platform(cfg.General.Platform), model.IssueSnapshot{
		Title:     "issuewatch test notification",
		State:     model.StateOpen,
		Body:      "If you can read this, notifications are configured correctly.",
		CreatedAt: time.Now(),
	})

	if err := n.Send(contextOrBackground(cmd), e); err != nil {
		return fmt.Errorf("test notification via %s failed: %w", n.Name(), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent via %s.\n", n.Name())
	return nil
}
