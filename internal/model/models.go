// internal/model/models.go
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Repository is a GitHub repository tracked by a user.
type Repository struct {
	ID            int64     `json:"-"`
	UserID        string    `json:"-"`
	Slug          string    `json:"slug"`
	RepoPath      string    `json:"repoPath"`
	DisplayName   string    `json:"displayName"`
	HTMLURL       string    `json:"htmlUrl"`
	DefaultBranch string    `json:"defaultBranch"`
	AvatarURL     *string   `json:"avatarUrl"`
	Visibility    string    `json:"visibility"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
}

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// SlugFor derives the per-user repository slug from an "owner/repo" path.
func SlugFor(repoPath string) string {
	return strings.ToLower(strings.ReplaceAll(repoPath, "/", "-"))
}

type WorkflowState string

const (
	WorkflowActive  WorkflowState = "active"
	WorkflowDeleted WorkflowState = "deleted"
)

// Workflow is a GitHub Actions workflow definition.
type Workflow struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Path      string        `json:"path"`
	State     WorkflowState `json:"state"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type RunStatus string

const (
	RunQueued     RunStatus = "queued"
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
)

// RunConclusion is empty until a run completes and is encoded as null in that case.
type RunConclusion string

const (
	ConclusionSuccess        RunConclusion = "success"
	ConclusionFailure        RunConclusion = "failure"
	ConclusionCancelled      RunConclusion = "cancelled"
	ConclusionSkipped        RunConclusion = "skipped"
	ConclusionNeutral        RunConclusion = "neutral"
	ConclusionTimedOut       RunConclusion = "timed_out"
	ConclusionActionRequired RunConclusion = "action_required"
)

func (c RunConclusion) MarshalJSON() ([]byte, error) {
	if c == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

func (c *RunConclusion) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = RunConclusion(s)
	return nil
}

// WorkflowRun is one execution of a workflow. It only lives for the duration of a request.
type WorkflowRun struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	WorkflowID   int64         `json:"workflow_id"`
	Status       RunStatus     `json:"status"`
	Conclusion   RunConclusion `json:"conclusion"`
	RunStartedAt *time.Time    `json:"run_started_at"`
	UpdatedAt    *time.Time    `json:"updated_at"`
	HTMLURL      string        `json:"html_url"`
	HeadBranch   string        `json:"head_branch"`
	Event        string        `json:"event"`
	RunNumber    int           `json:"run_number"`
}

// IsLive reports whether the run has not finished yet.
func (r WorkflowRun) IsLive() bool {
	return r.Status == RunQueued || r.Status == RunInProgress
}

// DailyOverview is the aggregate of one repository's workflow runs on one calendar day.
type DailyOverview struct {
	CompletedRuns    int      `json:"completedRuns"`
	InProgressRuns   int      `json:"inProgressRuns"`
	PassedRuns       int      `json:"passedRuns"`
	FailedRuns       int      `json:"failedRuns"`
	TotalRuntime     int64    `json:"totalRuntime"`
	TotalRuns        int      `json:"totalRuns"`
	TotalWorkflows   int      `json:"totalWorkflows"`
	MissingWorkflows []string `json:"missingWorkflows"`
	DidntRunCount    int      `json:"didntRunCount"`
	RunsByHour       []int    `json:"runsByHour"`
	AvgRunsPerHour   float64  `json:"avgRunsPerHour"`
	MinRunsPerHour   int      `json:"minRunsPerHour"`
	MaxRunsPerHour   int      `json:"maxRunsPerHour"`
	SuccessRate      int      `json:"successRate"`
	Message          string   `json:"message,omitempty"`
}

type HealthStatus string

const (
	HealthConsistent   HealthStatus = "consistent"
	HealthImproved     HealthStatus = "improved"
	HealthRegressed    HealthStatus = "regressed"
	HealthStillFailing HealthStatus = "still_failing"
	HealthNoRunsToday  HealthStatus = "no_runs_today"
)

type WorkflowHealth struct {
	WorkflowID int64        `json:"workflowId"`
	Name       string       `json:"name"`
	Status     HealthStatus `json:"status"`
}
