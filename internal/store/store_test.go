// internal/store/store_test.go
package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"omnilens/internal/database"
	custom_errors "omnilens/internal/errors"
	"omnilens/internal/model"
)

// MockQuerier is a mock of the database.Querier interface.
type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) CreateRepository(ctx context.Context, arg database.CreateRepositoryParams) (database.Repository, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.Repository), args.Error(1)
}
func (m *MockQuerier) DeleteRepository(ctx context.Context, arg database.DeleteRepositoryParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockQuerier) DeleteWorkflows(ctx context.Context, arg database.DeleteWorkflowsParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}
func (m *MockQuerier) GetGithubAccessToken(ctx context.Context, userID string) (pgtype.Text, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(pgtype.Text), args.Error(1)
}
func (m *MockQuerier) GetSessionUser(ctx context.Context, sessionToken string) (string, error) {
	args := m.Called(ctx, sessionToken)
	return args.String(0), args.Error(1)
}
func (m *MockQuerier) GetUserRepo(ctx context.Context, arg database.GetUserRepoParams) (database.Repository, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.Repository), args.Error(1)
}
func (m *MockQuerier) GetWorkflows(ctx context.Context, arg database.GetWorkflowsParams) ([]database.Workflow, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]database.Workflow), args.Error(1)
}
func (m *MockQuerier) InsertWorkflows(ctx context.Context, arg []database.InsertWorkflowsParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockQuerier) ListUserRepos(ctx context.Context, userID string) ([]database.Repository, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]database.Repository), args.Error(1)
}

func TestStore_GetUserRepo(t *testing.T) {
	ctx := context.Background()
	params := database.GetUserRepoParams{Slug: "octo-hello", UserID: "user-1"}

	t.Run("returns nil when the repository is not tracked", func(t *testing.T) {
		mockQ := new(MockQuerier)
		s := &Store{q: mockQ}
		mockQ.On("GetUserRepo", ctx, params).Return(database.Repository{}, pgx.ErrNoRows).Once()

		repo, err := s.GetUserRepo(ctx, "octo-hello", "user-1")

		assert.NoError(t, err)
		assert.Nil(t, repo)
		mockQ.AssertExpectations(t)
	})

	t.Run("maps the row", func(t *testing.T) {
		mockQ := new(MockQuerier)
		s := &Store{q: mockQ}
		mockQ.On("GetUserRepo", ctx, params).Return(database.Repository{
			ID:            7,
			UserID:        "user-1",
			Slug:          "octo-hello",
			RepoPath:      "octo/hello",
			DisplayName:   "hello",
			HtmlUrl:       "https://github.com/octo/hello",
			DefaultBranch: "main",
			AvatarUrl:     pgtype.Text{String: "https://avatars/octo", Valid: true},
			Visibility:    model.VisibilityPrivate,
		}, nil).Once()

		repo, err := s.GetUserRepo(ctx, "octo-hello", "user-1")

		require.NoError(t, err)
		require.NotNil(t, repo)
		assert.Equal(t, "octo/hello", repo.RepoPath)
		assert.Equal(t, "https://github.com/octo/hello", repo.HTMLURL)
		require.NotNil(t, repo.AvatarURL)
		assert.Equal(t, "https://avatars/octo", *repo.AvatarURL)
	})

	t.Run("wraps unexpected database errors", func(t *testing.T) {
		mockQ := new(MockQuerier)
		s := &Store{q: mockQ}
		dbError := errors.New("connection reset")
		mockQ.On("GetUserRepo", ctx, params).Return(database.Repository{}, dbError).Once()

		_, err := s.GetUserRepo(ctx, "octo-hello", "user-1")

		var persistErr *custom_errors.PersistenceError
		require.ErrorAs(t, err, &persistErr)
		assert.ErrorIs(t, err, dbError)
	})
}

func TestStore_CreateRepo(t *testing.T) {
	ctx := context.Background()
	repo := model.Repository{
		Slug:          "octo-hello",
		RepoPath:      "octo/hello",
		DisplayName:   "hello",
		HTMLURL:       "https://github.com/octo/hello",
		DefaultBranch: "main",
		Visibility:    model.VisibilityPublic,
	}

	t.Run("inserts without avatar", func(t *testing.T) {
		mockQ := new(MockQuerier)
		s := &Store{q: mockQ}
		mockQ.On("CreateRepository", ctx, mock.MatchedBy(func(p database.CreateRepositoryParams) bool {
			return p.UserID == "user-1" && p.Slug == "octo-hello" && !p.AvatarUrl.Valid
		})).Return(database.Repository{ID: 1, UserID: "user-1", Slug: "octo-hello", RepoPath: "octo/hello"}, nil).Once()

		created, err := s.CreateRepo(ctx, "user-1", repo)

		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID)
		assert.Nil(t, created.AvatarURL)
		mockQ.AssertExpectations(t)
	})

	t.Run("reports duplicates as a conflict", func(t *testing.T) {
		mockQ := new(MockQuerier)
		s := &Store{q: mockQ}
		mockQ.On("CreateRepository", ctx, mock.Anything).Return(database.Repository{}, &pgconn.PgError{Code: "23505"}).Once()

		_, err := s.CreateRepo(ctx, "user-1", repo)

		var conflict *custom_errors.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})
}

func TestStore_DeleteRepo(t *testing.T) {
	ctx := context.Background()
	params := database.DeleteRepositoryParams{Slug: "octo-hello", UserID: "user-1"}

	t.Run("deletes a tracked repository", func(t *testing.T) {
		mockQ := new(MockQuerier)
		s := &Store{q: mockQ}
		mockQ.On("DeleteRepository", ctx, params).Return(int64(1), nil).Once()

		assert.NoError(t, s.DeleteRepo(ctx, "octo-hello", "user-1"))
	})

	t.Run("reports an untracked repository as not found", func(t *testing.T) {
		mockQ := new(MockQuerier)
		s := &Store{q: mockQ}
		mockQ.On("DeleteRepository", ctx, params).Return(int64(0), nil).Once()

		err := s.DeleteRepo(ctx, "octo-hello", "user-1")

		var notFound *custom_errors.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestStore_GetWorkflows(t *testing.T) {
	ctx := context.Background()
	older := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Second)

	t.Run("returns the oldest cache time", func(t *testing.T) {
		mockQ := new(MockQuerier)
		s := &Store{q: mockQ}
		mockQ.On("GetWorkflows", ctx, database.GetWorkflowsParams{RepoSlug: "octo-hello", UserID: "user-1"}).Return([]database.Workflow{
			{WorkflowID: 1, Name: "CI", Path: ".github/workflows/ci.yml", State: "active", CachedAt: newer},
			{WorkflowID: 2, Name: "Deploy", Path: ".github/workflows/deploy.yml", State: "active", CachedAt: older},
		}, nil).Once()

		workflows, cachedAt, err := s.GetWorkflows(ctx, "octo-hello", "user-1")

		require.NoError(t, err)
		assert.Len(t, workflows, 2)
		assert.Equal(t, model.WorkflowActive, workflows[0].State)
		assert.Equal(t, older, cachedAt)
	})

	t.Run("zero time when nothing is cached", func(t *testing.T) {
		mockQ := new(MockQuerier)
		s := &Store{q: mockQ}
		mockQ.On("GetWorkflows", ctx, mock.Anything).Return([]database.Workflow(nil), nil).Once()

		workflows, cachedAt, err := s.GetWorkflows(ctx, "octo-hello", "user-1")

		require.NoError(t, err)
		assert.Empty(t, workflows)
		assert.True(t, cachedAt.IsZero())
	})
}

func TestPrepareWorkflowBulkInsert(t *testing.T) {
	cachedAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	params := prepareWorkflowBulkInsert("octo-hello", "user-1", []model.Workflow{
		{ID: 11, Name: "CI", Path: "ci.yml", State: model.WorkflowActive},
	}, cachedAt)

	require.Len(t, params, 1)
	assert.Equal(t, database.InsertWorkflowsParams{
		UserID:     "user-1",
		RepoSlug:   "octo-hello",
		WorkflowID: 11,
		Name:       "CI",
		Path:       "ci.yml",
		State:      "active",
		CachedAt:   cachedAt,
	}, params[0])
}
