// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrInvalidRepoFormat is returned when a repository path is not in 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}

// ValidationError is a malformed request parameter, caught at the HTTP boundary.
type ValidationError struct {
	Message string
	Details []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrUnauthenticated  = errors.New("no valid session")
	ErrNoDelegatedToken = errors.New("no GitHub access token for user")
)

// AuthError means the caller has no session or no delegated GitHub token.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NotFoundError is a resource missing locally or on GitHub.
type NotFoundError struct {
	Resource string
	Upstream bool
}

func (e *NotFoundError) Error() string {
	if e.Upstream {
		return fmt.Sprintf("%s not found on GitHub", e.Resource)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// UpstreamAccessError is a 403 from GitHub: the token lacks scope or the repository is inaccessible.
type UpstreamAccessError struct {
	Message string
}

func (e *UpstreamAccessError) Error() string {
	return fmt.Sprintf("GitHub access denied: %s", e.Message)
}

// UpstreamError is any other GitHub failure, including transport errors (StatusCode 0).
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("GitHub request failed with status %d: %s", e.StatusCode, e.Message)
	if e.StatusCode == 0 {
		msg = fmt.Sprintf("GitHub request failed: %s", e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// PersistenceError wraps a database failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConflictError is a write that collides with an existing row.
type ConflictError struct {
	Resource string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Resource)
}
