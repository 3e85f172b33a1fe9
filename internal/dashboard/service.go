// internal/dashboard/service.go
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	custom_errors "omnilens/internal/errors"
	"omnilens/internal/health"
	"omnilens/internal/metrics"
	"omnilens/internal/model"
	"omnilens/internal/telemetry"
)

const (
	defaultCacheTTL    = 5 * time.Minute
	noWorkflowsMessage = "No active workflows found for this repository"
)

// Store is the persistence the pipelines need.
type Store interface {
	GetUserRepo(ctx context.Context, slug, userID string) (*model.Repository, error)
	ListUserRepos(ctx context.Context, userID string) ([]model.Repository, error)
	CreateRepo(ctx context.Context, userID string, repo model.Repository) (*model.Repository, error)
	DeleteRepo(ctx context.Context, slug, userID string) error
	GetWorkflows(ctx context.Context, slug, userID string) ([]model.Workflow, time.Time, error)
	SaveWorkflows(ctx context.Context, slug, userID string, workflows []model.Workflow, cachedAt time.Time) error
}

// TokenSource resolves the GitHub token a user delegated at sign-in.
type TokenSource interface {
	DelegatedToken(ctx context.Context, userID string) (string, error)
}

// Fetcher reads repository, workflow and run data from GitHub with one user's token.
type Fetcher interface {
	GetRepository(ctx context.Context, owner, name string) (*model.Repository, error)
	ListActiveWorkflows(ctx context.Context, repoPath string) ([]model.Workflow, error)
	ListRunsForDate(ctx context.Context, repoPath string, date time.Time) ([]model.WorkflowRun, error)
}

// FetcherFactory builds a Fetcher bound to a token.
type FetcherFactory interface {
	ForToken(token string) Fetcher
}

// FetcherFunc adapts a function to FetcherFactory.
type FetcherFunc func(token string) Fetcher

func (f FetcherFunc) ForToken(token string) Fetcher { return f(token) }

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	CacheTTL    time.Duration
	Concurrency int
	Now         func() time.Time
}

// Service runs the request pipelines behind the API.
type Service struct {
	store       Store
	tokens      TokenSource
	fetchers    FetcherFactory
	logger      *slog.Logger
	cacheTTL    time.Duration
	concurrency int
	now         func() time.Time
}

// NewService creates a new Service instance.
func NewService(store Store, tokens TokenSource, fetchers FetcherFactory, logger *slog.Logger, opts Options) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:       store,
		tokens:      tokens,
		fetchers:    fetchers,
		logger:      logger,
		cacheTTL:    opts.CacheTTL,
		concurrency: opts.Concurrency,
		now:         opts.Now,
	}
}

// WorkflowList is a repository's active workflows and whether they came from the cache.
type WorkflowList struct {
	Repository model.Repository
	Workflows  []model.Workflow
	CacheHit   bool
}

// DateRuns is one day of runs for a repository and their aggregate.
type DateRuns struct {
	Repository model.Repository
	Runs       []model.WorkflowRun
	Overview   model.DailyOverview
}

// RepoOverview is a day's aggregate plus per-workflow health against the previous day.
type RepoOverview struct {
	Repository     model.Repository
	Overview       model.DailyOverview
	WorkflowHealth []model.WorkflowHealth
	Date           time.Time
	GeneratedAt    time.Time
}

// DashboardEntry is one repository of the batch dashboard. Err is set instead of Overview when its pipeline failed.
type DashboardEntry struct {
	Repository model.Repository
	Overview   *model.DailyOverview
	Err        error
}

// CacheWriteResult reports a best-effort workflow cache refresh.
type CacheWriteResult struct {
	Written int
	Err     error
}

// Today returns the current UTC calendar day.
func (s *Service) Today() time.Time {
	return startOfDay(s.now())
}

// ListWorkflows returns the repository's active workflows, from the cache while it is fresh.
func (s *Service) ListWorkflows(ctx context.Context, userID, slug string) (*WorkflowList, error) {
	repo, err := s.lookupRepo(ctx, userID, slug)
	if err != nil {
		return nil, err
	}

	workflows, hit, err := s.workflows(ctx, userID, repo, s.lazyFetcher(userID))
	if err != nil {
		return nil, err
	}
	return &WorkflowList{Repository: *repo, Workflows: workflows, CacheHit: hit}, nil
}

// RunsForDate returns every run of the repository on date's UTC day and the day's overview.
// A repository without active workflows yields an explanatory zero overview, not an error.
func (s *Service) RunsForDate(ctx context.Context, userID, slug string, date time.Time) (*DateRuns, error) {
	repo, err := s.lookupRepo(ctx, userID, slug)
	if err != nil {
		return nil, err
	}

	runs, overview, err := s.day(ctx, userID, repo, s.lazyFetcher(userID), date)
	if err != nil {
		return nil, err
	}
	return &DateRuns{Repository: *repo, Runs: runs, Overview: overview}, nil
}

// Overview aggregates date's runs and classifies each workflow against the previous day.
// Both days are fetched concurrently; either failing fails the overview.
func (s *Service) Overview(ctx context.Context, userID, slug string, date time.Time) (*RepoOverview, error) {
	repo, err := s.lookupRepo(ctx, userID, slug)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With("user_id", userID, "repo", repo.RepoPath)

	lf := s.lazyFetcher(userID)
	workflows, _, err := s.workflows(ctx, userID, repo, lf)
	if err != nil {
		return nil, err
	}

	result := &RepoOverview{
		Repository:  *repo,
		Date:        date,
		GeneratedAt: s.now().UTC(),
	}
	if len(workflows) == 0 {
		result.Overview = metrics.EmptyOverview(noWorkflowsMessage)
		result.WorkflowHealth = []model.WorkflowHealth{}
		return result, nil
	}

	f, err := lf.get(ctx)
	if err != nil {
		return nil, err
	}

	var today, yesterday []model.WorkflowRun
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		runs, err := f.ListRunsForDate(gctx, repo.RepoPath, date)
		today = runs
		return err
	})
	g.Go(func() error {
		runs, err := f.ListRunsForDate(gctx, repo.RepoPath, date.AddDate(0, 0, -1))
		yesterday = runs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Overview = metrics.Compute(workflows, today)
	result.WorkflowHealth = health.ClassifyAll(workflows, today, yesterday)
	logger.Info("Computed overview",
		"date", date.Format(time.DateOnly),
		"runs", result.Overview.TotalRuns,
		"success_rate", result.Overview.SuccessRate,
		"runtime", metrics.FormatDuration(result.Overview.TotalRuntime),
	)
	return result, nil
}

// Dashboard computes the day's overview for every tracked repository, a bounded number at a time.
// A failing repository is reported in its entry and does not fail the batch.
func (s *Service) Dashboard(ctx context.Context, userID string, date time.Time) ([]DashboardEntry, error) {
	repos, err := s.store.ListUserRepos(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries := make([]DashboardEntry, len(repos))
	if len(repos) == 0 {
		return entries, nil
	}

	f, err := s.lazyFetcher(userID).get(ctx)
	if err != nil {
		return nil, err
	}
	fixed := &lazyFetcher{f: f}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, repo := range repos {
		g.Go(func() error {
			entries[i].Repository = repo
			if gctx.Err() != nil {
				entries[i].Err = gctx.Err()
				return nil
			}
			_, overview, err := s.day(gctx, userID, &repo, fixed, date)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.Warn("Failed to compute repository overview", "user_id", userID, "repo", repo.RepoPath, "error", err)
				}
				entries[i].Err = err
				return nil
			}
			entries[i].Overview = &overview
			return nil
		})
	}

	_ = g.Wait() // per-repository failures live in the entries
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListRepositories returns the repositories the user tracks.
func (s *Service) ListRepositories(ctx context.Context, userID string) ([]model.Repository, error) {
	return s.store.ListUserRepos(ctx, userID)
}

// AddRepository verifies repoPath on GitHub with the user's token and starts tracking it.
// repoPath may be "owner/repo" or a github.com URL.
func (s *Service) AddRepository(ctx context.Context, userID, repoPath string) (*model.Repository, error) {
	owner, name, err := parseRepoPath(repoPath)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetUserRepo(ctx, model.SlugFor(owner+"/"+name), userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &custom_errors.ConflictError{Resource: "repository " + existing.RepoPath}
	}

	f, err := s.lazyFetcher(userID).get(ctx)
	if err != nil {
		return nil, err
	}
	ghRepo, err := f.GetRepository(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateRepo(ctx, userID, *ghRepo)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Repository added", "user_id", userID, "repo", created.RepoPath, "slug", created.Slug)
	return created, nil
}

// RemoveRepository stops tracking a repository and drops its cached workflows.
func (s *Service) RemoveRepository(ctx context.Context, userID, slug string) error {
	if err := s.store.DeleteRepo(ctx, slug, userID); err != nil {
		return err
	}
	s.logger.Info("Repository removed", "user_id", userID, "slug", slug)
	return nil
}

func (s *Service) lookupRepo(ctx context.Context, userID, slug string) (*model.Repository, error) {
	repo, err := s.store.GetUserRepo(ctx, slug, userID)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, &custom_errors.NotFoundError{Resource: "repository"}
	}
	return repo, nil
}

// day loads the workflow definitions, then the runs for date, then aggregates them.
// A failed definition fetch returns before any runs are requested.
func (s *Service) day(ctx context.Context, userID string, repo *model.Repository, lf *lazyFetcher, date time.Time) ([]model.WorkflowRun, model.DailyOverview, error) {
	workflows, _, err := s.workflows(ctx, userID, repo, lf)
	if err != nil {
		return nil, model.DailyOverview{}, err
	}
	if len(workflows) == 0 {
		return []model.WorkflowRun{}, metrics.EmptyOverview(noWorkflowsMessage), nil
	}

	f, err := lf.get(ctx)
	if err != nil {
		return nil, model.DailyOverview{}, err
	}
	runs, err := f.ListRunsForDate(ctx, repo.RepoPath, date)
	if err != nil {
		return nil, model.DailyOverview{}, err
	}
	return runs, metrics.Compute(workflows, runs), nil
}

// workflows serves the definition list from the cache while it is younger than the TTL,
// and otherwise fetches it from GitHub and refreshes the cache.
func (s *Service) workflows(ctx context.Context, userID string, repo *model.Repository, lf *lazyFetcher) ([]model.Workflow, bool, error) {
	logger := s.logger.With("user_id", userID, "repo", repo.RepoPath)

	cached, cachedAt, err := s.store.GetWorkflows(ctx, repo.Slug, userID)
	switch {
	case err != nil:
		logger.Warn("Workflow cache read failed, fetching from GitHub", "error", err)
	case len(cached) > 0 && s.now().Sub(cachedAt) < s.cacheTTL:
		telemetry.RecordCacheLookup(true)
		logger.Debug("Workflow cache hit", "cached_at", cachedAt, "count", len(cached))
		return cached, true, nil
	}
	telemetry.RecordCacheLookup(false)

	f, err := lf.get(ctx)
	if err != nil {
		return nil, false, err
	}
	fresh, err := f.ListActiveWorkflows(ctx, repo.RepoPath)
	if err != nil {
		return nil, false, err
	}

	res := s.refreshCache(ctx, userID, repo.Slug, fresh)
	if res.Err != nil {
		logger.Warn("Workflow cache refresh failed", "error", res.Err)
	} else {
		logger.Debug("Workflow cache refreshed", "count", res.Written)
	}
	return fresh, false, nil
}

func (s *Service) refreshCache(ctx context.Context, userID, slug string, workflows []model.Workflow) CacheWriteResult {
	if err := s.store.SaveWorkflows(ctx, slug, userID, workflows, s.now().UTC()); err != nil {
		return CacheWriteResult{Err: err}
	}
	return CacheWriteResult{Written: len(workflows)}
}

// lazyFetcher defers the token lookup until GitHub is actually needed. Not safe for concurrent first use.
type lazyFetcher struct {
	s      *Service
	userID string
	f      Fetcher
}

func (s *Service) lazyFetcher(userID string) *lazyFetcher {
	return &lazyFetcher{s: s, userID: userID}
}

func (l *lazyFetcher) get(ctx context.Context) (Fetcher, error) {
	if l.f != nil {
		return l.f, nil
	}
	token, err := l.s.tokens.DelegatedToken(ctx, l.userID)
	if err != nil {
		return nil, err
	}
	l.f = l.s.fetchers.ForToken(token)
	return l.f, nil
}

// parseRepoPath accepts "owner/repo", optionally as a github.com URL with a trailing ".git".
func parseRepoPath(raw string) (string, string, error) {
	p := strings.TrimSpace(raw)
	for _, prefix := range []string{"https://github.com/", "http://github.com/", "github.com/"} {
		if rest, ok := strings.CutPrefix(p, prefix); ok {
			p = rest
			break
		}
	}
	p = strings.TrimSuffix(strings.TrimSuffix(p, "/"), ".git")

	parts := strings.Split(p, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &custom_errors.ErrInvalidRepoFormat{Repo: raw}
	}
	return parts[0], parts[1], nil
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
