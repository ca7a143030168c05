package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/spiffcs/issuewatch/internal/constants"
	"github.com/spiffcs/issuewatch/internal/log"
	"github.com/spiffcs/issuewatch/internal/model"
)

// GitHubOptions configures a GitHub gateway.
type GitHubOptions struct {
	// Token is a personal access token.
	Token string
	// Owner and Repo name the watched repository.
	Owner string
	Repo  string
	// ServerURL points at a GitHub Enterprise server. Empty means github.com.
	ServerURL string
	// IncludePullRequests treats pull requests as issues.
	IncludePullRequests bool
}

// GitHub reads issues from one GitHub repository.
type GitHub struct {
	client *gh.Client
	owner  string
	repo   string
	pulls  bool
}

// NewGitHub creates a GitHub gateway and verifies that the repository
// exists and is readable with the given token.
func NewGitHub(ctx context.Context, opts GitHubOptions) (*GitHub, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("GitHub token not provided: %w", ErrAuth)
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: opts.Token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = constants.RequestTimeout

	tc.Transport = newRateLimitTransport(tc.Transport, "X-RateLimit-")

	client := gh.NewClient(tc)
	if opts.ServerURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(opts.ServerURL, opts.ServerURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub server URL %q: %w", opts.ServerURL, err)
		}
	}

	g := &GitHub{
		client: client,
		owner:  opts.Owner,
		repo:   opts.Repo,
		pulls:  opts.IncludePullRequests,
	}

	repo, _, err := client.Repositories.Get(ctx, opts.Owner, opts.Repo)
	if err != nil {
		return nil, classifyGitHub(fmt.Sprintf("get repository %s/%s", opts.Owner, opts.Repo), err)
	}
	log.Debug("connected to repository", "repo", repo.GetFullName(), "url", repo.GetHTMLURL())

	return g, nil
}

// Platform implements Gateway.
func (g *GitHub) Platform() model.Platform {
	return model.PlatformGitHub
}

// Issues fetches every issue of the repository in all states.
func (g *GitHub) Issues(ctx context.Context) ([]model.IssueSnapshot, error) {
	opts := &gh.IssueListByRepoOptions{
		State:     "all",
		Sort:      "created",
		Direction: "asc",
		ListOptions: gh.ListOptions{
			PerPage: constants.PageSize,
		},
	}

	var issues []model.IssueSnapshot
	skipped := 0

	for {
		page, resp, err := g.client.Issues.ListByRepo(ctx, g.owner, g.repo, opts)
		if err != nil {
			return nil, classifyGitHub("list issues", err)
		}

		for _, issue := range page {
			if issue.IsPullRequest() && !g.pulls {
				skipped++
				continue
			}
			issues = append(issues, githubSnapshot(issue))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].Key < issues[j].Key })
	log.Trace("fetched issues", "platform", model.PlatformGitHub, "count", len(issues), "pull_requests_skipped", skipped)

	return issues, nil
}

// Comments fetches every comment of one issue, oldest first.
func (g *GitHub) Comments(ctx context.Context, key model.IssueKey) ([]model.Comment, error) {
	opts := &gh.IssueListCommentsOptions{
		Sort:      gh.String("created"),
		Direction: gh.String("asc"),
		ListOptions: gh.ListOptions{
			PerPage: constants.PageSize,
		},
	}

	var comments []model.Comment

	for {
		page, resp, err := g.client.Issues.ListComments(ctx, g.owner, g.repo, int(key), opts)
		if err != nil {
			return nil, classifyGitHub(fmt.Sprintf("list comments of #%d", key), err)
		}

		for _, c := range page {
			comments = append(comments, model.Comment{
				ID:        c.GetID(),
				Author:    c.GetUser().GetLogin(),
				Body:      c.GetBody(),
				URL:       c.GetHTMLURL(),
				CreatedAt: c.GetCreatedAt().Time,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})

	return comments, nil
}

// githubSnapshot converts a go-github issue to a snapshot.
func githubSnapshot(issue *gh.Issue) model.IssueSnapshot {
	state := model.StateOpen
	if issue.GetState() == constants.StateClosed {
		state = model.StateClosed
	}

	return model.IssueSnapshot{
		Key:          model.IssueKey(issue.GetNumber()),
		Title:        issue.GetTitle(),
		State:        state,
		CreatedAt:    issue.GetCreatedAt().Time,
		UpdatedAt:    issue.GetUpdatedAt().Time,
		Body:         issue.GetBody(),
		URL:          issue.GetHTMLURL(),
		CommentCount: issue.GetComments(),
	}
}

// classifyGitHub maps go-github errors onto the gateway error set.
func classifyGitHub(op string, err error) error {
	if errors.Is(err, ErrRateLimited) {
		return fmt.Errorf("%s: %w", op, ErrRateLimited)
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return wrap(op, ErrRateLimited, err)
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return wrap(op, ErrRateLimited, err)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		if sentinel := statusError(respErr.Response.StatusCode); sentinel != nil {
			return wrap(op, sentinel, err)
		}
	}

	return &TransportError{Op: op, Err: err}
}

var _ Gateway = (*GitHub)(nil)
