package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spiffcs/issuewatch/internal/log"
	"github.com/spiffcs/issuewatch/internal/output"
)

// NewCmdIssues creates the issues command.
func NewCmdIssues(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues",
		Short: "List the current issues of the watched project",
		Long: `Fetches every issue of the configured project or repository once and
prints it. Useful to check credentials and to see what the watcher sees.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIssues(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "output", "o", opts.Format, "Output format (table, json, markdown)")

	return cmd
}

func runIssues(cmd *cobra.Command, opts *Options) error {
	format, err := output.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if err := initLogging(cmd, opts, cfg, 0); err != nil {
		return err
	}
	defer log.Close()

	ctx := contextOrBackground(cmd)
	gw, err := newGateway(ctx, cfg)
	if err != nil {
		return err
	}

	issues, err := gw.Issues(ctx)
	if err != nil {
		return err
	}

	return output.NewFormatter(format).Format(gw.Platform(), issues, cmd.OutOrStdout())
}
