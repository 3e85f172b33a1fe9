// internal/store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"omnilens/internal/database"
	custom_errors "omnilens/internal/errors"
	"omnilens/internal/model"
)

const uniqueViolation = "23505"

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	database.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store persists tracked repositories and the workflow definition cache.
type Store struct {
	db DB
	q  database.Querier
}

// New creates a Store backed by the given pool.
func New(db DB) *Store {
	return &Store{
		db: db,
		q:  database.New(db),
	}
}

// GetUserRepo returns the user's repository with the given slug, or nil if it is not tracked.
func (s *Store) GetUserRepo(ctx context.Context, slug, userID string) (*model.Repository, error) {
	row, err := s.q.GetUserRepo(ctx, database.GetUserRepoParams{Slug: slug, UserID: userID})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &custom_errors.PersistenceError{Op: "get repository", Err: err}
	}
	repo := toModelRepository(row)
	return &repo, nil
}

// ListUserRepos returns every repository the user tracks, ordered by display name.
func (s *Store) ListUserRepos(ctx context.Context, userID string) ([]model.Repository, error) {
	rows, err := s.q.ListUserRepos(ctx, userID)
	if err != nil {
		return nil, &custom_errors.PersistenceError{Op: "list repositories", Err: err}
	}
	repos := make([]model.Repository, 0, len(rows))
	for _, r := range rows {
		repos = append(repos, toModelRepository(r))
	}
	return repos, nil
}

// CreateRepo starts tracking repo for the user. A second insert of the same slug fails with ConflictError.
func (s *Store) CreateRepo(ctx context.Context, userID string, repo model.Repository) (*model.Repository, error) {
	row, err := s.q.CreateRepository(ctx, database.CreateRepositoryParams{
		UserID:        userID,
		Slug:          repo.Slug,
		RepoPath:      repo.RepoPath,
		DisplayName:   repo.DisplayName,
		HtmlUrl:       repo.HTMLURL,
		DefaultBranch: repo.DefaultBranch,
		AvatarUrl:     toPGText(repo.AvatarURL),
		Visibility:    repo.Visibility,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, &custom_errors.ConflictError{Resource: "repository " + repo.RepoPath}
		}
		return nil, &custom_errors.PersistenceError{Op: "create repository", Err: err}
	}
	created := toModelRepository(row)
	return &created, nil
}

// DeleteRepo stops tracking a repository. Its cached workflows go with it (ON DELETE CASCADE).
func (s *Store) DeleteRepo(ctx context.Context, slug, userID string) error {
	n, err := s.q.DeleteRepository(ctx, database.DeleteRepositoryParams{Slug: slug, UserID: userID})
	if err != nil {
		return &custom_errors.PersistenceError{Op: "delete repository", Err: err}
	}
	if n == 0 {
		return &custom_errors.NotFoundError{Resource: "repository"}
	}
	return nil
}

// GetWorkflows returns the cached workflow definitions and when they were cached.
// The time is zero when nothing is cached.
func (s *Store) GetWorkflows(ctx context.Context, slug, userID string) ([]model.Workflow, time.Time, error) {
	rows, err := s.q.GetWorkflows(ctx, database.GetWorkflowsParams{RepoSlug: slug, UserID: userID})
	if err != nil {
		return nil, time.Time{}, &custom_errors.PersistenceError{Op: "get workflows", Err: err}
	}

	var cachedAt time.Time
	workflows := make([]model.Workflow, 0, len(rows))
	for _, r := range rows {
		if cachedAt.IsZero() || r.CachedAt.Before(cachedAt) {
			cachedAt = r.CachedAt
		}
		workflows = append(workflows, model.Workflow{
			ID:        r.WorkflowID,
			Name:      r.Name,
			Path:      r.Path,
			State:     model.WorkflowState(r.State),
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return workflows, cachedAt, nil
}

// SaveWorkflows replaces the cached workflow list wholesale inside one transaction.
// Concurrent writers are not coordinated; the last commit wins.
func (s *Store) SaveWorkflows(ctx context.Context, slug, userID string, workflows []model.Workflow, cachedAt time.Time) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return &custom_errors.PersistenceError{Op: "begin workflow cache transaction", Err: err}
	}
	defer tx.Rollback(ctx) // Rollback is a no-op if the transaction is already committed.

	qtx := database.New(tx)
	if err := qtx.DeleteWorkflows(ctx, database.DeleteWorkflowsParams{RepoSlug: slug, UserID: userID}); err != nil {
		return &custom_errors.PersistenceError{Op: "clear workflow cache", Err: err}
	}

	if len(workflows) > 0 {
		if _, err := qtx.InsertWorkflows(ctx, prepareWorkflowBulkInsert(slug, userID, workflows, cachedAt)); err != nil {
			return &custom_errors.PersistenceError{Op: "insert workflow cache", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &custom_errors.PersistenceError{Op: "commit workflow cache", Err: err}
	}
	return nil
}

func prepareWorkflowBulkInsert(slug, userID string, workflows []model.Workflow, cachedAt time.Time) []database.InsertWorkflowsParams {
	params := make([]database.InsertWorkflowsParams, len(workflows))
	for i, w := range workflows {
		params[i] = database.InsertWorkflowsParams{
			UserID:     userID,
			RepoSlug:   slug,
			WorkflowID: w.ID,
			Name:       w.Name,
			Path:       w.Path,
			State:      string(w.State),
			CreatedAt:  w.CreatedAt,
			UpdatedAt:  w.UpdatedAt,
			CachedAt:   cachedAt,
		}
	}
	return params
}

func toModelRepository(r database.Repository) model.Repository {
	var avatar *string
	if r.AvatarUrl.Valid {
		a := r.AvatarUrl.String
		avatar = &a
	}
	return model.Repository{
		ID:            r.ID,
		UserID:        r.UserID,
		Slug:          r.Slug,
		RepoPath:      r.RepoPath,
		DisplayName:   r.DisplayName,
		HTMLURL:       r.HtmlUrl,
		DefaultBranch: r.DefaultBranch,
		AvatarURL:     avatar,
		Visibility:    r.Visibility,
		CreatedAt:     r.CreatedAt,
	}
}

func toPGText(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
