package store

import (
	"errors"

	"github.com/stellarlinkco/sandbench/internal/metrics"
	"github.com/stellarlinkco/sandbench/internal/runner"
)

// FromReport builds a storable record from a scored report and the result
// set it was computed from. Token and latency totals come from the results.
func FromReport(rep *metrics.Report, results *runner.ResultSet) (*Record, error) {
	if rep == nil {
		return nil, errors.New("store: nil report")
	}
	if results == nil {
		return nil, errors.New("store: nil result set")
	}

	rec := &Record{
		RunID:   rep.RunID,
		Domain:  string(rep.Domain),
		Model:   rep.Model,
		Variant: string(rep.Variant),

		TotalTasks:       rep.TotalTasks,
		Evaluated:        rep.Evaluated,
		Correct:          rep.Correct,
		ExactMatches:     rep.ExactMatches,
		SentinelFailures: rep.SentinelFailures,

		LookupTotal:   rep.LookupTotal,
		LookupCorrect: rep.LookupCorrect,
		ActionTotal:   rep.ActionTotal,
		ActionCorrect: rep.ActionCorrect,

		PassRate: rep.PassRate,
		Defined:  rep.Defined,

		CreatedAt: results.CreatedAt,
	}

	for _, tr := range results.Results {
		rec.InputTokens += tr.InputTokens
		rec.OutputTokens += tr.OutputTokens
		rec.LatencyMs += tr.LatencyMs
	}

	for _, o := range rep.Outcomes {
		rec.Outcomes = append(rec.Outcomes, OutcomeRecord{
			TaskID:     o.TaskID,
			Kind:       string(o.Kind),
			Correct:    o.Correct,
			ExactMatch: o.ExactMatch,
			Failure:    o.Failure,
		})
	}

	return rec, nil
}
