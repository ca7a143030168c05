package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spiffcs/issuewatch/config"
	"github.com/spiffcs/issuewatch/internal/history"
	"github.com/spiffcs/issuewatch/internal/output"
)

// NewCmdHistory creates the history command.
func NewCmdHistory(opts *Options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent poll cycles",
		Long: `Shows the journal of recent poll cycles written by the watcher when
history.enabled is set: issue counts, detected changes, deliveries and
errors. The journal is never used to restore state.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of cycles to show (0 for all)")
	cmd.Flags().StringVarP(&opts.Format, "output", "o", opts.Format, "Output format (table, json)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *Options, limit int) error {
	format, err := output.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return err
	}

	return output.FormatHistory(format, store.Recent(limit), cmd.OutOrStdout())
}
