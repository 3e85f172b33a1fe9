// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"omnilens/internal/auth"
	"omnilens/internal/dashboard"
	custom_errors "omnilens/internal/errors"
	"omnilens/internal/metrics"
	"omnilens/internal/model"
)

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9._-]+$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Service is the set of pipelines the handlers call into.
type Service interface {
	Today() time.Time
	ListWorkflows(ctx context.Context, userID, slug string) (*dashboard.WorkflowList, error)
	RunsForDate(ctx context.Context, userID, slug string, date time.Time) (*dashboard.DateRuns, error)
	Overview(ctx context.Context, userID, slug string, date time.Time) (*dashboard.RepoOverview, error)
	Dashboard(ctx context.Context, userID string, date time.Time) ([]dashboard.DashboardEntry, error)
	ListRepositories(ctx context.Context, userID string) ([]model.Repository, error)
	AddRepository(ctx context.Context, userID, repoPath string) (*model.Repository, error)
	RemoveRepository(ctx context.Context, userID, slug string) error
}

// Handler is the container for API dependencies.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
// authenticate guards everything under /api and must store the user id with auth.WithUserID.
func NewRouter(svc Service, authenticate func(http.Handler) http.Handler, logger *slog.Logger, requestTimeout time.Duration) http.Handler {
	h := &Handler{
		svc:    svc,
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", h.healthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/workflow/{slug}", h.getWorkflow)
		r.Get("/workflow/{slug}/overview", h.getOverview)
		r.Get("/dashboard", h.getDashboard)
		r.Get("/repo", h.listRepos)
		r.With(bodySizeLimit).Post("/repo", h.addRepo)
		r.Delete("/repo/{slug}", h.removeRepo)
	})

	return r
}

type workflowListResponse struct {
	Repository model.Repository `json:"repository"`
	Workflows  []model.Workflow `json:"workflows"`
	TotalCount int              `json:"totalCount"`
}

type workflowRunsResponse struct {
	// Either []model.WorkflowRun or map[int64][]model.WorkflowRun when grouped.
	WorkflowRuns any                 `json:"workflowRuns"`
	OverviewData model.DailyOverview `json:"overviewData"`
}

type overviewResponse struct {
	Repository     model.Repository       `json:"repository"`
	Overview       model.DailyOverview    `json:"overview"`
	WorkflowHealth []model.WorkflowHealth `json:"workflowHealth"`
	Date           string                 `json:"date"`
	GeneratedAt    time.Time              `json:"generatedAt"`
}

type dashboardRepo struct {
	Repository model.Repository     `json:"repository"`
	Overview   *model.DailyOverview `json:"overview,omitempty"`
	Error      string               `json:"error,omitempty"`
}

type dashboardResponse struct {
	Date         string          `json:"date"`
	Repositories []dashboardRepo `json:"repositories"`
}

type addRepoRequest struct {
	RepoPath string `json:"repoPath"`
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getWorkflow lists a repository's workflows, or with ?date= returns that day's runs and overview.
// GET /api/workflow/{slug}?date=YYYY-MM-DD&grouped=true
func (h *Handler) getWorkflow(w http.ResponseWriter, r *http.Request) {
	userID, slug, ok := h.userAndSlug(w, r)
	if !ok {
		return
	}

	rawDate := r.URL.Query().Get("date")
	if rawDate == "" {
		list, err := h.svc.ListWorkflows(r.Context(), userID, slug)
		if err != nil {
			h.respondWithServiceError(w, r, err)
			return
		}
		if list.CacheHit {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
		respondWithJSON(w, http.StatusOK, workflowListResponse{
			Repository: list.Repository,
			Workflows:  list.Workflows,
			TotalCount: len(list.Workflows),
		})
		return
	}

	date, err := parseDate(rawDate)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	result, err := h.svc.RunsForDate(r.Context(), userID, slug, date)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	resp := workflowRunsResponse{WorkflowRuns: result.Runs, OverviewData: result.Overview}
	if r.URL.Query().Get("grouped") == "true" {
		resp.WorkflowRuns = metrics.GroupByWorkflow(result.Runs)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// getOverview returns the day's overview with per-workflow health. The date defaults to today (UTC).
// GET /api/workflow/{slug}/overview?date=YYYY-MM-DD
func (h *Handler) getOverview(w http.ResponseWriter, r *http.Request) {
	userID, slug, ok := h.userAndSlug(w, r)
	if !ok {
		return
	}
	date, err := h.dateOrToday(r)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	result, err := h.svc.Overview(r.Context(), userID, slug, date)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, overviewResponse{
		Repository:     result.Repository,
		Overview:       result.Overview,
		WorkflowHealth: result.WorkflowHealth,
		Date:           result.Date.Format(time.DateOnly),
		GeneratedAt:    result.GeneratedAt,
	})
}

// getDashboard returns the day's overview for every tracked repository.
// GET /api/dashboard?date=YYYY-MM-DD
func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	date, err := h.dateOrToday(r)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	entries, err := h.svc.Dashboard(r.Context(), userID, date)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	repos := make([]dashboardRepo, 0, len(entries))
	for _, e := range entries {
		item := dashboardRepo{Repository: e.Repository, Overview: e.Overview}
		if e.Err != nil {
			_, item.Error, _ = publicError(e.Err)
		}
		repos = append(repos, item)
	}
	respondWithJSON(w, http.StatusOK, dashboardResponse{Date: date.Format(time.DateOnly), Repositories: repos})
}

// GET /api/repo
func (h *Handler) listRepos(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	repos, err := h.svc.ListRepositories(r.Context(), userID)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string][]model.Repository{"repositories": repos})
}

// POST /api/repo {"repoPath": "owner/repo"}
func (h *Handler) addRepo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req addRepoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RepoPath == "" {
		respondWithError(w, http.StatusBadRequest, "repoPath is required")
		return
	}

	repo, err := h.svc.AddRepository(r.Context(), userID, req.RepoPath)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]*model.Repository{"repository": repo})
}

// DELETE /api/repo/{slug}
func (h *Handler) removeRepo(w http.ResponseWriter, r *http.Request) {
	userID, slug, ok := h.userAndSlug(w, r)
	if !ok {
		return
	}
	if err := h.svc.RemoveRepository(r.Context(), userID, slug); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}

func (h *Handler) userAndSlug(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	userID, ok := h.userID(w, r)
	if !ok {
		return "", "", false
	}
	slug := chi.URLParam(r, "slug")
	if !slugPattern.MatchString(slug) {
		respondWithError(w, http.StatusBadRequest, "Invalid repository slug", slug)
		return "", "", false
	}
	return userID, slug, true
}

func (h *Handler) dateOrToday(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return h.svc.Today(), nil
	}
	return parseDate(raw)
}

// parseDate accepts only real calendar dates in YYYY-MM-DD form.
func parseDate(raw string) (time.Time, error) {
	invalid := &custom_errors.ValidationError{
		Message: "Invalid date format. Expected YYYY-MM-DD",
		Details: []string{raw},
	}
	if !datePattern.MatchString(raw) {
		return time.Time{}, invalid
	}
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, invalid
	}
	return date, nil
}
