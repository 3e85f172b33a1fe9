// internal/auth/auth.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	custom_errors "omnilens/internal/errors"
)

// securePrefix is prepended to the session cookie name when the provider runs over HTTPS.
const securePrefix = "__Secure-"

// Queries is the read-only subset of the database used for sessions and delegated tokens.
// The tables behind it are owned by the auth provider.
type Queries interface {
	GetSessionUser(ctx context.Context, sessionToken string) (string, error)
	GetGithubAccessToken(ctx context.Context, userID string) (pgtype.Text, error)
}

type contextKey struct{}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserIDFromContext returns the user id stored by Middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Authenticator resolves sessions and delegated GitHub tokens.
type Authenticator struct {
	q          Queries
	cookieName string
	logger     *slog.Logger
}

// New creates an Authenticator that reads the session from cookieName (or its __Secure- variant).
func New(q Queries, cookieName string, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		q:          q,
		cookieName: cookieName,
		logger:     logger,
	}
}

// Middleware rejects requests without a live session and stores the session's user id in the context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.sessionToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, err := a.q.GetSessionUser(r.Context(), token)
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if err != nil {
			a.logger.Error("Failed to resolve session", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// DelegatedToken returns the GitHub access token the user granted at sign-in.
func (a *Authenticator) DelegatedToken(ctx context.Context, userID string) (string, error) {
	tok, err := a.q.GetGithubAccessToken(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", &custom_errors.AuthError{Err: custom_errors.ErrNoDelegatedToken}
	}
	if err != nil {
		return "", &custom_errors.PersistenceError{Op: "get github access token", Err: err}
	}
	if !tok.Valid || tok.String == "" {
		return "", &custom_errors.AuthError{Err: custom_errors.ErrNoDelegatedToken}
	}
	return tok.String, nil
}

func (a *Authenticator) sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	for _, name := range []string{a.cookieName, securePrefix + a.cookieName} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
