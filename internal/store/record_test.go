package store

import (
	"testing"
	"time"

	"github.com/stellarlinkco/sandbench/internal/metrics"
	"github.com/stellarlinkco/sandbench/internal/runner"
	"github.com/stellarlinkco/sandbench/internal/sandbox"
	"github.com/stellarlinkco/sandbench/internal/taskgen"
)

func TestFromReport(t *testing.T) {
	t.Parallel()

	at := time.Unix(1_700_000_000, 0).UTC()
	rep := &metrics.Report{
		Domain:       sandbox.DomainCalendar,
		Model:        "claude-3",
		Variant:      runner.VariantAllTools,
		RunID:        "run_1",
		TotalTasks:   2,
		Evaluated:    2,
		Correct:      1,
		ExactMatches: 1,
		ActionTotal:  2,
		PassRate:     0.5,
		Defined:      true,
		Outcomes: []metrics.TaskOutcome{
			{TaskID: "calendar-000", Kind: taskgen.KindAction, Correct: true, ExactMatch: true},
			{TaskID: "calendar-001", Kind: taskgen.KindAction, Failure: "timeout"},
		},
	}
	results := &runner.ResultSet{
		RunID:     "run_1",
		CreatedAt: at,
		Results: []runner.TaskResult{
			{TaskID: "calendar-000", InputTokens: 100, OutputTokens: 20, LatencyMs: 900},
			{TaskID: "calendar-001", InputTokens: 50, OutputTokens: 10, LatencyMs: 400},
		},
	}

	rec, err := FromReport(rep, results)
	if err != nil {
		t.Fatalf("FromReport: %v", err)
	}
	if rec.RunID != "run_1" || rec.Domain != "calendar" || rec.Variant != "all_tools" {
		t.Fatalf("key: got %#v", rec)
	}
	if rec.InputTokens != 150 || rec.OutputTokens != 30 || rec.LatencyMs != 1300 {
		t.Fatalf("totals: got %#v", rec)
	}
	if !rec.CreatedAt.Equal(at) {
		t.Fatalf("CreatedAt: got %v", rec.CreatedAt)
	}
	if len(rec.Outcomes) != 2 || rec.Outcomes[0].Kind != "action" || rec.Outcomes[1].Failure != "timeout" {
		t.Fatalf("outcomes: got %#v", rec.Outcomes)
	}

	if _, err := FromReport(nil, results); err == nil {
		t.Fatal("expected error for nil report")
	}
	if _, err := FromReport(rep, nil); err == nil {
		t.Fatal("expected error for nil results")
	}
}
