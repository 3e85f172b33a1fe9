package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	custom_errors "omnilens/internal/errors"
)

type MockQueries struct {
	mock.Mock
}

func (m *MockQueries) GetSessionUser(ctx context.Context, sessionToken string) (string, error) {
	args := m.Called(ctx, sessionToken)
	return args.String(0), args.Error(1)
}

func (m *MockQueries) GetGithubAccessToken(ctx context.Context, userID string) (pgtype.Text, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(pgtype.Text), args.Error(1)
}

func newTestAuthenticator(q Queries) *Authenticator {
	return New(q, "next-auth.session-token", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// echoUser writes the user id found in the request context.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, _ := UserIDFromContext(r.Context())
	_, _ = io.WriteString(w, id)
})

func TestMiddleware(t *testing.T) {
	t.Run("rejects request without session", func(t *testing.T) {
		mockQ := new(MockQueries)
		a := newTestAuthenticator(mockQ)

		rec := httptest.NewRecorder()
		a.Middleware(echoUser).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/repo", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
		mockQ.AssertNotCalled(t, "GetSessionUser", mock.Anything, mock.Anything)
	})

	t.Run("accepts bearer token", func(t *testing.T) {
		mockQ := new(MockQueries)
		mockQ.On("GetSessionUser", mock.Anything, "tok-1").Return("user-1", nil).Once()
		a := newTestAuthenticator(mockQ)

		req := httptest.NewRequest(http.MethodGet, "/api/repo", nil)
		req.Header.Set("Authorization", "Bearer tok-1")
		rec := httptest.NewRecorder()
		a.Middleware(echoUser).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", rec.Body.String())
		mockQ.AssertExpectations(t)
	})

	t.Run("accepts secure session cookie", func(t *testing.T) {
		mockQ := new(MockQueries)
		mockQ.On("GetSessionUser", mock.Anything, "cookie-tok").Return("user-2", nil).Once()
		a := newTestAuthenticator(mockQ)

		req := httptest.NewRequest(http.MethodGet, "/api/repo", nil)
		req.AddCookie(&http.Cookie{Name: "__Secure-next-auth.session-token", Value: "cookie-tok"})
		rec := httptest.NewRecorder()
		a.Middleware(echoUser).ServeHTTP(rec, req)

		assert.Equal(t, "user-2", rec.Body.String())
	})

	t.Run("rejects expired session", func(t *testing.T) {
		mockQ := new(MockQueries)
		mockQ.On("GetSessionUser", mock.Anything, "old").Return("", pgx.ErrNoRows).Once()
		a := newTestAuthenticator(mockQ)

		req := httptest.NewRequest(http.MethodGet, "/api/repo", nil)
		req.AddCookie(&http.Cookie{Name: "next-auth.session-token", Value: "old"})
		rec := httptest.NewRecorder()
		a.Middleware(echoUser).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("database failure is an internal error", func(t *testing.T) {
		mockQ := new(MockQueries)
		mockQ.On("GetSessionUser", mock.Anything, "tok").Return("", errors.New("pool closed")).Once()
		a := newTestAuthenticator(mockQ)

		req := httptest.NewRequest(http.MethodGet, "/api/repo", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		a.Middleware(echoUser).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	})
}

func TestDelegatedToken(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the stored token", func(t *testing.T) {
		mockQ := new(MockQueries)
		mockQ.On("GetGithubAccessToken", ctx, "user-1").Return(pgtype.Text{String: "gho_abc", Valid: true}, nil).Once()

		token, err := newTestAuthenticator(mockQ).DelegatedToken(ctx, "user-1")

		require.NoError(t, err)
		assert.Equal(t, "gho_abc", token)
	})

	for name, result := range map[string]struct {
		text pgtype.Text
		err  error
	}{
		"no github account": {pgtype.Text{}, pgx.ErrNoRows},
		"null token":        {pgtype.Text{}, nil},
		"empty token":       {pgtype.Text{String: "", Valid: true}, nil},
	} {
		t.Run(name, func(t *testing.T) {
			mockQ := new(MockQueries)
			mockQ.On("GetGithubAccessToken", ctx, "user-1").Return(result.text, result.err).Once()

			_, err := newTestAuthenticator(mockQ).DelegatedToken(ctx, "user-1")

			var authErr *custom_errors.AuthError
			require.ErrorAs(t, err, &authErr)
			assert.ErrorIs(t, err, custom_errors.ErrNoDelegatedToken)
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUserID(context.Background(), "user-9"))
	assert.True(t, ok)
	assert.Equal(t, "user-9", id)
}
