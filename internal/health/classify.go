// Package health classifies each workflow's trend by comparing today's runs with yesterday's.
package health

import (
	"omnilens/internal/metrics"
	"omnilens/internal/model"
)

// ClassifyAll returns one classification per workflow, in workflow order.
func ClassifyAll(workflows []model.Workflow, today, yesterday []model.WorkflowRun) []model.WorkflowHealth {
	todayByID := metrics.GroupByWorkflow(today)
	yesterdayByID := metrics.GroupByWorkflow(yesterday)

	result := make([]model.WorkflowHealth, 0, len(workflows))
	for _, w := range workflows {
		result = append(result, model.WorkflowHealth{
			WorkflowID: w.ID,
			Name:       w.Name,
			Status:     Classify(todayByID[w.ID], yesterdayByID[w.ID]),
		})
	}
	return result
}

// Classify compares one workflow's runs today against its runs yesterday.
//
// A queued or running run today short-circuits to consistent. With only passes
// today the workflow improved if yesterday ended in failure; with only failures
// it regressed if yesterday ended in success. Mixed days compare today's latest
// outcome with yesterday's latest, and when both agree (or yesterday is empty)
// fall back to a majority vote over today's passes and failures.
func Classify(today, yesterday []model.WorkflowRun) model.HealthStatus {
	if len(today) == 0 {
		return model.HealthNoRunsToday
	}
	for _, r := range today {
		if r.IsLive() {
			return model.HealthConsistent
		}
	}

	outcomes := decisiveOutcomes(today)
	if len(outcomes) == 0 {
		// Only cancelled, skipped or otherwise neutral runs.
		return model.HealthConsistent
	}

	prev, hasPrev := latest(decisiveOutcomes(yesterday))
	prevFailed := hasPrev && prev == model.ConclusionFailure
	prevPassed := hasPrev && prev == model.ConclusionSuccess

	var passes, fails int
	for _, c := range outcomes {
		if c == model.ConclusionSuccess {
			passes++
		} else {
			fails++
		}
	}

	switch {
	case fails == 0:
		if prevFailed {
			return model.HealthImproved
		}
		return model.HealthConsistent
	case passes == 0:
		if prevPassed {
			return model.HealthRegressed
		}
		return model.HealthStillFailing
	}

	last, _ := latest(outcomes)
	if hasPrev && last != prev {
		if last == model.ConclusionSuccess {
			return model.HealthImproved
		}
		return model.HealthRegressed
	}

	switch {
	case passes > fails:
		if prevFailed {
			return model.HealthImproved
		}
		return model.HealthConsistent
	case fails > passes:
		if prevPassed {
			return model.HealthRegressed
		}
		return model.HealthStillFailing
	}

	if last == model.ConclusionSuccess {
		return model.HealthConsistent
	}
	return model.HealthStillFailing
}

// decisiveOutcomes returns the success/failure conclusions of completed runs, oldest first.
func decisiveOutcomes(runs []model.WorkflowRun) []model.RunConclusion {
	sorted := make([]model.WorkflowRun, len(runs))
	copy(sorted, runs)
	metrics.SortByStart(sorted)

	var out []model.RunConclusion
	for _, r := range sorted {
		if r.Status != model.RunCompleted {
			continue
		}
		if r.Conclusion == model.ConclusionSuccess || r.Conclusion == model.ConclusionFailure {
			out = append(out, r.Conclusion)
		}
	}
	return out
}

func latest(outcomes []model.RunConclusion) (model.RunConclusion, bool) {
	if len(outcomes) == 0 {
		return "", false
	}
	return outcomes[len(outcomes)-1], true
}
