package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"omnilens/internal/model"
)

var base = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func run(hour int, conclusion model.RunConclusion) model.WorkflowRun {
	started := base.Add(time.Duration(hour) * time.Hour)
	return model.WorkflowRun{
		WorkflowID:   1,
		Status:       model.RunCompleted,
		Conclusion:   conclusion,
		RunStartedAt: &started,
	}
}

func liveRun(status model.RunStatus) model.WorkflowRun {
	started := base.Add(20 * time.Hour)
	return model.WorkflowRun{WorkflowID: 1, Status: status, RunStartedAt: &started}
}

const (
	pass = model.ConclusionSuccess
	fail = model.ConclusionFailure
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		today     []model.WorkflowRun
		yesterday []model.WorkflowRun
		want      model.HealthStatus
	}{
		{"no runs today", nil, []model.WorkflowRun{run(1, fail)}, model.HealthNoRunsToday},
		{"in progress suppresses history", []model.WorkflowRun{run(1, fail), liveRun(model.RunInProgress)}, []model.WorkflowRun{run(1, pass)}, model.HealthConsistent},
		{"queued suppresses history", []model.WorkflowRun{liveRun(model.RunQueued)}, nil, model.HealthConsistent},
		{"all passed after failure", []model.WorkflowRun{run(1, pass), run(2, pass)}, []model.WorkflowRun{run(3, fail)}, model.HealthImproved},
		{"all passed after success", []model.WorkflowRun{run(1, pass)}, []model.WorkflowRun{run(3, pass)}, model.HealthConsistent},
		{"all passed without history", []model.WorkflowRun{run(1, pass)}, nil, model.HealthConsistent},
		{"all failed after success", []model.WorkflowRun{run(1, fail)}, []model.WorkflowRun{run(1, fail), run(2, pass)}, model.HealthRegressed},
		{"all failed after failure", []model.WorkflowRun{run(1, fail)}, []model.WorkflowRun{run(2, fail)}, model.HealthStillFailing},
		{"all failed without history", []model.WorkflowRun{run(1, fail)}, nil, model.HealthStillFailing},
		{"mixed ending in pass after failure", []model.WorkflowRun{run(1, fail), run(2, fail), run(3, pass)}, []model.WorkflowRun{run(5, fail)}, model.HealthImproved},
		{"mixed ending in fail after success", []model.WorkflowRun{run(1, pass), run(2, pass), run(3, fail)}, []model.WorkflowRun{run(5, pass)}, model.HealthRegressed},
		{"mixed same polarity majority pass", []model.WorkflowRun{run(1, pass), run(2, fail), run(3, pass)}, []model.WorkflowRun{run(5, pass)}, model.HealthConsistent},
		{"mixed same polarity majority fail after failure", []model.WorkflowRun{run(1, fail), run(2, pass), run(3, fail)}, []model.WorkflowRun{run(5, fail)}, model.HealthStillFailing},
		{"mixed no history majority pass", []model.WorkflowRun{run(1, fail), run(2, pass), run(3, pass)}, nil, model.HealthConsistent},
		{"mixed no history majority fail", []model.WorkflowRun{run(1, pass), run(2, fail), run(3, fail)}, nil, model.HealthStillFailing},
		{"mixed tie ending in pass", []model.WorkflowRun{run(1, fail), run(2, pass)}, nil, model.HealthConsistent},
		{"mixed tie ending in fail", []model.WorkflowRun{run(1, pass), run(2, fail)}, nil, model.HealthStillFailing},
		{"only cancelled today", []model.WorkflowRun{run(1, model.ConclusionCancelled)}, []model.WorkflowRun{run(1, fail)}, model.HealthConsistent},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Classify(c.today, c.yesterday))
		})
	}
}

func TestClassify_UsesStartOrderNotSliceOrder(t *testing.T) {
	// GitHub returns newest first; the latest outcome is the pass at 09:00.
	today := []model.WorkflowRun{run(9, pass), run(2, fail), run(1, fail)}
	yesterday := []model.WorkflowRun{run(23, fail), run(4, pass)}

	assert.Equal(t, model.HealthImproved, Classify(today, yesterday))
}

func TestClassifyAll(t *testing.T) {
	workflows := []model.Workflow{{ID: 1, Name: "CI"}, {ID: 2, Name: "Nightly"}}
	today := []model.WorkflowRun{run(1, pass)}
	yesterday := []model.WorkflowRun{run(1, fail)}

	got := ClassifyAll(workflows, today, yesterday)

	assert.Equal(t, []model.WorkflowHealth{
		{WorkflowID: 1, Name: "CI", Status: model.HealthImproved},
		{WorkflowID: 2, Name: "Nightly", Status: model.HealthNoRunsToday},
	}, got)
}
