// internal/github/client.go
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	custom_errors "omnilens/internal/errors"
	"omnilens/internal/metrics"
	"omnilens/internal/model"
	"omnilens/internal/telemetry"
)

const (
	perPage = 100

	// Filtered run listings stop at this many results regardless of paging.
	runListingCap = 1000

	mediaTypeV3 = "application/vnd.github.v3+json"
)

// Factory builds per-user Clients against one configured API endpoint.
type Factory struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFactory returns a Factory. A nil baseURL keeps go-github's default (api.github.com);
// a nil httpClient uses http.DefaultClient underneath the token transport.
func NewFactory(baseURL *url.URL, httpClient *http.Client, logger *slog.Logger) *Factory {
	return &Factory{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// ForToken creates a Client that authenticates every call with the given delegated token.
func (f *Factory) ForToken(token string) *Client {
	ctx := context.Background()
	if f.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Transport = &acceptTransport{base: tc.Transport}
	if f.httpClient != nil {
		tc.Timeout = f.httpClient.Timeout
	}

	gh := github.NewClient(tc)
	if f.baseURL != nil {
		base := *f.baseURL
		gh.BaseURL = &base
	}

	return &Client{
		gh:     gh,
		logger: f.logger,
	}
}

// acceptTransport pins the v3 media type on every request.
// Some go-github services replace it with preview media types.
type acceptTransport struct {
	base http.RoundTripper
}

func (t *acceptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept", mediaTypeV3)
	return t.base.RoundTrip(req)
}

// Client is a wrapper around the go-github client scoped to one user's token.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// GetRepository fetches repository details and translates them to our internal model.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*model.Repository, error) {
	start := time.Now()
	repo, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	observe("get_repository", resp, start)
	if err != nil {
		return nil, translateError(err, resp)
	}
	return toInternalRepository(repo), nil
}

// ListActiveWorkflows returns the repository's workflows whose state is active.
// The state query parameter of the list endpoint is unreliable, so filtering happens here.
func (c *Client) ListActiveWorkflows(ctx context.Context, repoPath string) ([]model.Workflow, error) {
	owner, name, err := splitRepo(repoPath)
	if err != nil {
		return nil, err
	}

	opts := &github.ListOptions{PerPage: perPage}
	active := []model.Workflow{}

	for {
		start := time.Now()
		page, resp, err := c.gh.Actions.ListWorkflows(ctx, owner, name, opts)
		observe("list_workflows", resp, start)
		if err != nil {
			return nil, translateError(err, resp)
		}
		c.logRateLimit(resp, repoPath+"/workflows", opts.Page, len(page.Workflows))

		for _, w := range page.Workflows {
			if w.GetState() != string(model.WorkflowActive) {
				continue
			}
			active = append(active, toInternalWorkflow(w))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return active, nil
}

// ListRunsForDate returns every run, on any branch and in any status, that started
// within the UTC calendar day of date. Runs arrive newest first, so paging stops as
// soon as a page ends with a run that started before the day.
func (c *Client) ListRunsForDate(ctx context.Context, repoPath string, date time.Time) ([]model.WorkflowRun, error) {
	owner, name, err := splitRepo(repoPath)
	if err != nil {
		return nil, err
	}

	dayStart, dayEnd := DayWindow(date)
	opts := &github.ListWorkflowRunsOptions{
		// A run created after the window cannot have started inside it.
		Created:     "<=" + dayEnd.Format(time.RFC3339),
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	runs := []model.WorkflowRun{}

	for {
		start := time.Now()
		page, resp, err := c.gh.Actions.ListRepositoryWorkflowRuns(ctx, owner, name, opts)
		observe("list_workflow_runs", resp, start)
		if err != nil {
			return nil, translateError(err, resp)
		}
		c.logRateLimit(resp, repoPath+"/runs", opts.Page, len(page.WorkflowRuns))
		if opts.Page == 0 && page.GetTotalCount() >= runListingCap {
			c.logger.Warn("Run listing hit GitHub's result cap; the day may be undercounted",
				"repo", repoPath,
				"date", dayStart.Format(time.DateOnly),
				"total_count", page.GetTotalCount(),
			)
		}

		var oldest *model.WorkflowRun
		for _, r := range page.WorkflowRuns {
			run, err := toInternalRun(r)
			if err != nil {
				return nil, &custom_errors.UpstreamError{
					StatusCode: resp.StatusCode,
					Message:    fmt.Sprintf("malformed workflow run in response: %v", err),
					Err:        err,
				}
			}
			oldest = &run
			if run.RunStartedAt != nil && withinWindow(*run.RunStartedAt, dayStart, dayEnd) {
				runs = append(runs, run)
			}
		}

		if oldest != nil && oldest.RunStartedAt != nil && oldest.RunStartedAt.Before(dayStart) {
			c.logger.Debug("Reached runs older than requested day", "repo", repoPath, "page", opts.Page)
			break
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return runs, nil
}

// ListRunsForDateGrouped is ListRunsForDate keyed by workflow id.
func (c *Client) ListRunsForDateGrouped(ctx context.Context, repoPath string, date time.Time) (map[int64][]model.WorkflowRun, error) {
	runs, err := c.ListRunsForDate(ctx, repoPath, date)
	if err != nil {
		return nil, err
	}
	return metrics.GroupByWorkflow(runs), nil
}

// DayWindow returns the first and last second of date's UTC calendar day.
func DayWindow(date time.Time) (time.Time, time.Time) {
	d := date.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24*time.Hour - time.Second)
}

func withinWindow(ts, start, end time.Time) bool {
	return !ts.Before(start) && !ts.After(end)
}

// translateError maps a go-github failure onto the upstream error taxonomy.
func translateError(err error, resp *github.Response) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}

	// Only GitHub's own message is surfaced; the raw error stays in Err for logs.
	msg := http.StatusText(status)
	if status == 0 {
		msg = "GitHub could not be reached"
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Message != "" {
		msg = ghErr.Message
	}

	// Rate limiting is not an access problem; it surfaces as a generic upstream failure.
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return &custom_errors.UpstreamError{StatusCode: status, Message: "GitHub API rate limit exceeded", Err: err}
	}

	switch status {
	case http.StatusForbidden:
		return &custom_errors.UpstreamAccessError{Message: msg}
	case http.StatusNotFound:
		return &custom_errors.NotFoundError{Resource: "repository", Upstream: true}
	}
	return &custom_errors.UpstreamError{StatusCode: status, Message: msg, Err: err}
}

func observe(endpoint string, resp *github.Response, start time.Time) {
	code := 0
	if resp != nil && resp.Response != nil {
		code = resp.StatusCode
	}
	telemetry.ObserveGithubRequest(endpoint, code, time.Since(start))
}

// logRateLimit logs the GitHub API rate limit status after each page.
func (c *Client) logRateLimit(resp *github.Response, endpoint string, page, count int) {
	c.logger.Debug("GitHub API page fetched",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)
	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		c.logger.Warn("GitHub rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits an "owner/repo" string into its two components.
func splitRepo(repoPath string) (string, string, error) {
	parts := strings.Split(repoPath, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &custom_errors.ErrInvalidRepoFormat{Repo: repoPath}
	}
	return parts[0], parts[1], nil
}

// toInternalRepository translates a github.Repository object to our internal model.Repository.
func toInternalRepository(r *github.Repository) *model.Repository {
	repoPath := r.GetFullName()
	if repoPath == "" {
		repoPath = r.GetOwner().GetLogin() + "/" + r.GetName()
	}

	visibility := model.VisibilityPublic
	if r.GetPrivate() || r.GetVisibility() == "private" || r.GetVisibility() == "internal" {
		visibility = model.VisibilityPrivate
	}

	var avatar *string
	if a := r.GetOwner().GetAvatarURL(); a != "" {
		avatar = &a
	}

	return &model.Repository{
		Slug:          model.SlugFor(repoPath),
		RepoPath:      repoPath,
		DisplayName:   r.GetName(),
		HTMLURL:       r.GetHTMLURL(),
		DefaultBranch: r.GetDefaultBranch(),
		AvatarURL:     avatar,
		Visibility:    visibility,
	}
}

func toInternalWorkflow(w *github.Workflow) model.Workflow {
	return model.Workflow{
		ID:        w.GetID(),
		Name:      w.GetName(),
		Path:      w.GetPath(),
		State:     model.WorkflowState(w.GetState()),
		CreatedAt: w.GetCreatedAt().Time,
		UpdatedAt: w.GetUpdatedAt().Time,
	}
}

// toInternalRun validates a github.WorkflowRun and translates it to model.WorkflowRun.
// Pre-execution statuses (requested, waiting, pending) are reported as queued.
func toInternalRun(r *github.WorkflowRun) (model.WorkflowRun, error) {
	if r.ID == nil || r.WorkflowID == nil {
		return model.WorkflowRun{}, errors.New("run is missing id or workflow_id")
	}

	var status model.RunStatus
	switch s := r.GetStatus(); s {
	case "completed":
		status = model.RunCompleted
	case "in_progress":
		status = model.RunInProgress
	case "queued", "requested", "waiting", "pending":
		status = model.RunQueued
	default:
		return model.WorkflowRun{}, fmt.Errorf("run %d has unknown status %q", r.GetID(), s)
	}

	run := model.WorkflowRun{
		ID:         r.GetID(),
		Name:       r.GetName(),
		WorkflowID: r.GetWorkflowID(),
		Status:     status,
		HTMLURL:    r.GetHTMLURL(),
		HeadBranch: r.GetHeadBranch(),
		Event:      r.GetEvent(),
		RunNumber:  r.GetRunNumber(),
	}
	if status == model.RunCompleted {
		run.Conclusion = model.RunConclusion(r.GetConclusion())
	}

	switch {
	case r.RunStartedAt != nil:
		t := r.GetRunStartedAt().Time.UTC()
		run.RunStartedAt = &t
	case r.CreatedAt != nil:
		t := r.GetCreatedAt().Time.UTC()
		run.RunStartedAt = &t
	}
	if r.UpdatedAt != nil {
		t := r.GetUpdatedAt().Time.UTC()
		run.UpdatedAt = &t
	}

	return run, nil
}
