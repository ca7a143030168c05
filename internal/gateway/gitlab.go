package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/spiffcs/issuewatch/internal/constants"
	"github.com/spiffcs/issuewatch/internal/log"
	"github.com/spiffcs/issuewatch/internal/model"
)

// GitLabOptions configures a GitLab gateway.
type GitLabOptions struct {
	// Token is a personal or project access token.
	Token string
	// ServerURL is the GitLab instance, https://gitlab.com when empty.
	ServerURL string
	// ProjectID is the numeric id or the full path of the project.
	ProjectID string
}

// GitLab reads issues from one GitLab project.
type GitLab struct {
	client  *gitlab.Client
	project string
	webURL  string
}

// NewGitLab creates a GitLab gateway and verifies that the project exists
// and is readable with the given token.
func NewGitLab(ctx context.Context, opts GitLabOptions) (*GitLab, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("GitLab token not provided: %w", ErrAuth)
	}
	serverURL := opts.ServerURL
	if serverURL == "" {
		serverURL = constants.DefaultGitLabURL
	}

	hc := &http.Client{
		Timeout:   constants.RequestTimeout,
		Transport: newRateLimitTransport(http.DefaultTransport, "RateLimit-"),
	}

	client, err := gitlab.NewClient(opts.Token,
		gitlab.WithBaseURL(serverURL),
		gitlab.WithHTTPClient(hc),
		gitlab.WithoutRetries(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}

	project, _, err := client.Projects.GetProject(opts.ProjectID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, classifyGitLab(fmt.Sprintf("get project %s", opts.ProjectID), err)
	}
	log.Debug("connected to project", "project", project.PathWithNamespace, "url", project.WebURL)

	return &GitLab{
		client:  client,
		project: opts.ProjectID,
		webURL:  strings.TrimSuffix(project.WebURL, "/"),
	}, nil
}

// Platform implements Gateway.
func (g *GitLab) Platform() model.Platform {
	return model.PlatformGitLab
}

// Issues fetches every issue of the project in all states.
func (g *GitLab) Issues(ctx context.Context) ([]model.IssueSnapshot, error) {
	opts := &gitlab.ListProjectIssuesOptions{
		State:   gitlab.Ptr("all"),
		OrderBy: gitlab.Ptr("created_at"),
		Sort:    gitlab.Ptr("asc"),
		ListOptions: gitlab.ListOptions{
			PerPage: constants.PageSize,
			Page:    1,
		},
	}

	var issues []model.IssueSnapshot

	for {
		page, resp, err := g.client.Issues.ListProjectIssues(g.project, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, classifyGitLab("list issues", err)
		}

		for _, issue := range page {
			issues = append(issues, gitlabSnapshot(issue))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].Key < issues[j].Key })
	log.Trace("fetched issues", "platform", model.PlatformGitLab, "count", len(issues))

	return issues, nil
}

// Comments fetches the user notes of one issue, oldest first. System
// notes (label changes, assignments, state changes) are skipped.
func (g *GitLab) Comments(ctx context.Context, key model.IssueKey) ([]model.Comment, error) {
	opts := &gitlab.ListIssueNotesOptions{
		OrderBy: gitlab.Ptr("created_at"),
		Sort:    gitlab.Ptr("asc"),
		ListOptions: gitlab.ListOptions{
			PerPage: constants.PageSize,
			Page:    1,
		},
	}

	var comments []model.Comment

	for {
		page, resp, err := g.client.Notes.ListIssueNotes(g.project, int(key), opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, classifyGitLab(fmt.Sprintf("list notes of #%d", key), err)
		}

		for _, note := range page {
			if note.System {
				continue
			}
			comments = append(comments, model.Comment{
				ID:        int64(note.ID),
				Author:    note.Author.Username,
				Body:      note.Body,
				URL:       fmt.Sprintf("%s/-/issues/%d#note_%d", g.webURL, key, note.ID),
				CreatedAt: timeOf(note.CreatedAt),
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

// gitlabSnapshot converts a client-go issue to a snapshot. GitLab's
// "opened" state is normalized to open.
func gitlabSnapshot(issue *gitlab.Issue) model.IssueSnapshot {
	state := model.StateOpen
	if issue.State == constants.StateClosed {
		state = model.StateClosed
	}

	return model.IssueSnapshot{
		Key:          model.IssueKey(issue.IID),
		Title:        issue.Title,
		State:        state,
		CreatedAt:    timeOf(issue.CreatedAt),
		UpdatedAt:    timeOf(issue.UpdatedAt),
		Body:         issue.Description,
		URL:          issue.WebURL,
		CommentCount: issue.UserNotesCount,
	}
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// classifyGitLab maps client-go errors onto the gateway error set.
func classifyGitLab(op string, err error) error {
	if errors.Is(err, ErrRateLimited) {
		return fmt.Errorf("%s: %w", op, ErrRateLimited)
	}

	// client-go reports 404 with its own sentinel instead of an ErrorResponse.
	if errors.Is(err, gitlab.ErrNotFound) {
		return wrap(op, ErrNotFound, err)
	}

	var respErr *gitlab.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		if sentinel := statusError(respErr.Response.StatusCode); sentinel != nil {
			return wrap(op, sentinel, err)
		}
	}

	return &TransportError{Op: op, Err: err}
}

var _ Gateway = (*GitLab)(nil)
