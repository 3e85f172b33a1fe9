// Package metrics reduces a day's workflow runs into a DailyOverview.
// Everything here is pure: no I/O and no clock.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"omnilens/internal/model"
)

const hoursPerDay = 24

// Compute aggregates runs against the active workflow definitions.
// Runs are bucketed by start hour, or by updated_at when no start time is known;
// a run with neither timestamp is counted everywhere except RunsByHour.
func Compute(workflows []model.Workflow, runs []model.WorkflowRun) model.DailyOverview {
	o := model.DailyOverview{
		TotalRuns:        len(runs),
		TotalWorkflows:   len(workflows),
		MissingWorkflows: []string{},
		RunsByHour:       make([]int, hoursPerDay),
	}

	ran := make(map[int64]struct{}, len(runs))
	for _, r := range runs {
		ran[r.WorkflowID] = struct{}{}

		switch r.Status {
		case model.RunCompleted:
			o.CompletedRuns++
			o.TotalRuntime += runtimeSeconds(r)
		case model.RunInProgress, model.RunQueued:
			o.InProgressRuns++
		}

		// Non-completed runs carry no conclusion, so this only ever counts completed runs.
		switch r.Conclusion {
		case model.ConclusionSuccess:
			o.PassedRuns++
		case model.ConclusionFailure:
			o.FailedRuns++
		}

		if at := bucketTime(r); at != nil {
			o.RunsByHour[at.UTC().Hour()]++
		}
	}

	for _, w := range workflows {
		if _, ok := ran[w.ID]; !ok {
			o.MissingWorkflows = append(o.MissingWorkflows, w.Name)
		}
	}
	o.DidntRunCount = len(o.MissingWorkflows)

	o.MinRunsPerHour, o.MaxRunsPerHour = o.RunsByHour[0], o.RunsByHour[0]
	for _, n := range o.RunsByHour[1:] {
		o.MinRunsPerHour = min(o.MinRunsPerHour, n)
		o.MaxRunsPerHour = max(o.MaxRunsPerHour, n)
	}
	if len(runs) > 0 {
		o.AvgRunsPerHour = float64(len(runs)) / hoursPerDay
	}

	o.SuccessRate = SuccessRate(o.PassedRuns, o.CompletedRuns)
	return o
}

func bucketTime(r model.WorkflowRun) *time.Time {
	if r.RunStartedAt != nil {
		return r.RunStartedAt
	}
	return r.UpdatedAt
}

// EmptyOverview is the zero-valued overview returned when a repository has nothing to aggregate.
func EmptyOverview(message string) model.DailyOverview {
	return model.DailyOverview{
		MissingWorkflows: []string{},
		RunsByHour:       make([]int, hoursPerDay),
		Message:          message,
	}
}

// SuccessRate is passed/completed as a rounded percentage, 0 when nothing completed.
func SuccessRate(passed, completed int) int {
	if completed <= 0 {
		return 0
	}
	return int(math.Round(float64(passed) / float64(completed) * 100))
}

// runtimeSeconds is the whole-second duration of a completed run.
// Runs missing either timestamp contribute nothing; so do runs whose
// updated_at precedes run_started_at.
func runtimeSeconds(r model.WorkflowRun) int64 {
	if r.RunStartedAt == nil || r.UpdatedAt == nil {
		return 0
	}
	d := r.UpdatedAt.Sub(*r.RunStartedAt)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// GroupByWorkflow buckets runs by workflow id, preserving their order.
func GroupByWorkflow(runs []model.WorkflowRun) map[int64][]model.WorkflowRun {
	grouped := make(map[int64][]model.WorkflowRun)
	for _, r := range runs {
		grouped[r.WorkflowID] = append(grouped[r.WorkflowID], r)
	}
	return grouped
}

// SortByStart orders runs oldest first. Runs without a start time sort first.
func SortByStart(runs []model.WorkflowRun) {
	sort.SliceStable(runs, func(i, j int) bool {
		a, b := runs[i].RunStartedAt, runs[j].RunStartedAt
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		}
		return a.Before(*b)
	})
}

// FormatDuration renders seconds as "1h 2m 3s", "4m 5s" or "6s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = -seconds
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
