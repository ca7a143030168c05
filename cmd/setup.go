package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiffcs/issuewatch/config"
	"github.com/spiffcs/issuewatch/internal/gateway"
	"github.com/spiffcs/issuewatch/internal/log"
	"github.com/spiffcs/issuewatch/internal/notify"
)

// loadConfig loads and validates the configuration.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogging sets up logging at the requested verbosity, never below
// minLevel, with the optional log file from cfg.
func initLogging(cmd *cobra.Command, opts *Options, cfg *config.Config, minLevel int) error {
	level := max(opts.Verbosity, minLevel)
	return log.InitializeWithFile(level, cmd.ErrOrStderr(), cfg.Logging.LogPath)
}

// newGateway builds the gateway for the configured platform. The project
// or repository is verified before returning.
func newGateway(ctx context.Context, cfg *config.Config) (gateway.Gateway, error) {
	switch cfg.General.Platform {
	case "github":
		owner, repo, err := config.SplitRepo(cfg.GitHub.RepoName)
		if err != nil {
			return nil, &config.ConfigError{Field: "github.repo_name", Reason: err.Error()}
		}
		return gateway.NewGitHub(ctx, gateway.GitHubOptions{
			Token:               cfg.GitHub.AccessToken,
			Owner:               owner,
			Repo:                repo,
			ServerURL:           cfg.GitHub.ServerURL,
			IncludePullRequests: cfg.GitHub.IncludePullRequests,
		})
	case "gitlab":
		return gateway.NewGitLab(ctx, gateway.GitLabOptions{
			Token:     cfg.GitLab.PrivateToken,
			ServerURL: cfg.GitLab.ServerURL,
			ProjectID: cfg.GitLab.ProjectID,
		})
	default:
		return nil, &config.ConfigError{
			Field:  "general.platform",
			Reason: fmt.Sprintf("unknown platform %q", cfg.General.Platform),
		}
	}
}

// newNotifier builds the configured notifier. An unknown channel type is
// reported as a configuration error.
func newNotifier(cfg *config.Config) (notify.Notifier, error) {
	n, err := notify.New(cfg)
	if err != nil {
		var unknown *notify.UnknownChannelError
		if errors.As(err, &unknown) {
			return nil, &config.ConfigError{Field: "notification.type", Reason: unknown.Error()}
		}
		return nil, err
	}
	return n, nil
}
