// internal/api/response.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	custom_errors "omnilens/internal/errors"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string, details ...string) {
	respondWithJSON(w, code, errorResponse{Error: message, Details: details})
}

// publicError maps err onto a status code and a message safe to show the caller.
// Anything unrecognized becomes a generic 500; the cause is only logged.
func publicError(err error) (int, string, []string) {
	var (
		validationErr *custom_errors.ValidationError
		formatErr     *custom_errors.ErrInvalidRepoFormat
		authErr       *custom_errors.AuthError
		accessErr     *custom_errors.UpstreamAccessError
		notFoundErr   *custom_errors.NotFoundError
		conflictErr   *custom_errors.ConflictError
		upstreamErr   *custom_errors.UpstreamError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message, validationErr.Details
	case errors.As(err, &formatErr):
		return http.StatusBadRequest, "Invalid repository format. Expected owner/repo", []string{formatErr.Repo}
	case errors.As(err, &authErr):
		if errors.Is(authErr, custom_errors.ErrNoDelegatedToken) {
			return http.StatusUnauthorized, "GitHub access token not found. Please sign in again", nil
		}
		return http.StatusUnauthorized, "Unauthorized", nil
	case errors.As(err, &accessErr):
		return http.StatusForbidden, "Access denied. Your GitHub token cannot read this repository's workflows", []string{accessErr.Message}
	case errors.As(err, &notFoundErr):
		if notFoundErr.Upstream {
			return http.StatusNotFound, "Repository not found on GitHub", nil
		}
		return http.StatusNotFound, "Repository not found", nil
	case errors.As(err, &conflictErr):
		return http.StatusConflict, "Repository is already tracked", nil
	case errors.As(err, &upstreamErr):
		if upstreamErr.StatusCode == 0 {
			// Transport failures carry nothing from GitHub worth showing.
			return http.StatusInternalServerError, "GitHub request failed", nil
		}
		msg := fmt.Sprintf("GitHub request failed with status %d", upstreamErr.StatusCode)
		return http.StatusInternalServerError, msg, []string{upstreamErr.Message}
	}
	return http.StatusInternalServerError, "Internal server error", nil
}

func (h *Handler) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg, details := publicError(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		h.logger.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)
	}
	respondWithError(w, code, msg, details...)
}
