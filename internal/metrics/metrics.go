// Package metrics scores recorded inference runs against a task set's
// expected actions and answers.
package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/stellarlinkco/sandbench/internal/runner"
	"github.com/stellarlinkco/sandbench/internal/sandbox"
	"github.com/stellarlinkco/sandbench/internal/taskgen"
)

// ErrVariantMismatch means the result file was recorded under a different
// tool-catalog variant than the one being scored.
var ErrVariantMismatch = errors.New("metrics: result variant mismatch")

// TaskOutcome scores a single task.
type TaskOutcome struct {
	TaskID     string       `json:"task_id"`
	Kind       taskgen.Kind `json:"kind"`
	Correct    bool         `json:"correct"`
	ExactMatch bool         `json:"exact_match"`
	Failure    string       `json:"failure,omitempty"`
}

// Report aggregates outcomes for one (domain, model, variant) run.
type Report struct {
	Domain  sandbox.Domain `json:"domain"`
	Model   string         `json:"model"`
	Variant runner.Variant `json:"variant"`
	RunID   string         `json:"run_id"`

	TotalTasks       int      `json:"total_tasks"`
	Evaluated        int      `json:"evaluated"`
	Missing          []string `json:"missing,omitempty"`
	SentinelFailures int      `json:"sentinel_failures"`

	Correct      int `json:"correct"`
	ExactMatches int `json:"exact_matches"`

	LookupTotal   int `json:"lookup_total"`
	LookupCorrect int `json:"lookup_correct"`
	ActionTotal   int `json:"action_total"`
	ActionCorrect int `json:"action_correct"`

	// PassRate is Correct/Evaluated; undefined when nothing was evaluated.
	PassRate float64 `json:"pass_rate"`
	Defined  bool    `json:"defined"`

	Outcomes []TaskOutcome `json:"outcomes,omitempty"`
}

// Calculate scores a result set against its task set. Tasks missing from the
// results are reported and excluded from the denominator; sentinel-failure
// results stay in the denominator and never score.
func Calculate(set *taskgen.TaskSet, results *runner.ResultSet, snap *sandbox.Snapshot, variant runner.Variant) (*Report, error) {
	if set == nil {
		return nil, errors.New("metrics: nil task set")
	}
	if results == nil {
		return nil, errors.New("metrics: nil result set")
	}
	if snap == nil {
		return nil, errors.New("metrics: nil snapshot")
	}
	if results.Variant != variant {
		return nil, fmt.Errorf("%w: results recorded as %q, scoring %q", ErrVariantMismatch, results.Variant, variant)
	}
	if results.Domain != set.Domain {
		return nil, fmt.Errorf("metrics: results for domain %q, tasks for %q", results.Domain, set.Domain)
	}

	byID := make(map[string]*runner.TaskResult, len(results.Results))
	for i := range results.Results {
		byID[results.Results[i].TaskID] = &results.Results[i]
	}

	rep := &Report{
		Domain:     set.Domain,
		Model:      results.Model,
		Variant:    variant,
		RunID:      results.RunID,
		TotalTasks: len(set.Tasks),
	}

	for _, task := range set.Tasks {
		res, ok := byID[task.ID]
		if !ok {
			rep.Missing = append(rep.Missing, task.ID)
			continue
		}

		rep.Evaluated++
		outcome := TaskOutcome{TaskID: task.ID, Kind: task.Kind, Failure: res.Failure}

		if res.Failure != "" {
			rep.SentinelFailures++
		} else {
			switch task.Kind {
			case taskgen.KindLookup:
				outcome.Correct = answerMatches(res.FinalText, task.Expected.Answer)
			default:
				outcome.ExactMatch = exactMatch(res.ToolCalls, task.Expected.Actions)
				outcome.Correct = outcome.ExactMatch || stateEquivalent(snap, res.ToolCalls, task.Expected.Actions)
			}
		}

		switch task.Kind {
		case taskgen.KindLookup:
			rep.LookupTotal++
			if outcome.Correct {
				rep.LookupCorrect++
			}
		default:
			rep.ActionTotal++
			if outcome.Correct {
				rep.ActionCorrect++
			}
			if outcome.ExactMatch {
				rep.ExactMatches++
			}
		}
		if outcome.Correct {
			rep.Correct++
		}

		rep.Outcomes = append(rep.Outcomes, outcome)
	}

	if rep.Evaluated > 0 {
		rep.Defined = true
		rep.PassRate = float64(rep.Correct) / float64(rep.Evaluated)
	}

	return rep, nil
}

// answerMatches checks the final ANSWER: line against the expected literal,
// trimmed and case-insensitive.
func answerMatches(finalText, expected string) bool {
	expected = strings.TrimSpace(expected)
	if expected == "" {
		return false
	}
	answer, ok := ExtractAnswer(finalText)
	if !ok {
		return false
	}
	return strings.EqualFold(answer, expected)
}

// ExtractAnswer returns the payload of the last ANSWER: line in a response.
func ExtractAnswer(text string) (string, bool) {
	answer := ""
	found := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := cutPrefixFold(line, "ANSWER:")
		if !ok {
			continue
		}
		answer = strings.TrimSpace(rest)
		found = true
	}
	return answer, found
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// exactMatch compares the side-effecting calls of the trace to the expected
// actions: same call strings after lowercasing non-exact argument values,
// order-insensitive.
func exactMatch(trace []sandbox.Call, expected []sandbox.Call) bool {
	got := canonicalCalls(sideEffects(trace))
	want := canonicalCalls(expected)
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// Argument values compared verbatim during exact match; everything else is
// lowercased first.
var caseSensitiveArgs = map[string]struct{}{
	"status":    {},
	"list_name": {},
	"board":     {},
}

func canonicalCalls(calls []sandbox.Call) []string {
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, canonicalCall(c))
	}
	sort.Strings(out)
	return out
}

func canonicalCall(c sandbox.Call) string {
	canon := sandbox.Call{Tool: strings.ToLower(c.Tool)}
	if len(c.Args) > 0 {
		canon.Args = make(map[string]string, len(c.Args))
		for k, v := range c.Args {
			key := strings.ToLower(strings.TrimSpace(k))
			if _, exact := caseSensitiveArgs[key]; !exact {
				v = strings.ToLower(v)
			}
			canon.Args[key] = v
		}
	}
	// update_task and update_customer route case sensitivity through the
	// field argument instead of the key.
	if field, ok := canon.Args["field"]; ok {
		if _, exact := caseSensitiveArgs[field]; exact {
			if v, ok := c.Args["new_value"]; ok {
				canon.Args["new_value"] = v
			}
		}
	}
	return canon.String()
}

func sideEffects(calls []sandbox.Call) []sandbox.Call {
	var out []sandbox.Call
	for _, c := range calls {
		if sandbox.SideEffecting(c.Tool) {
			out = append(out, c)
		}
	}
	return out
}

// stateEquivalent replays both action lists on fresh clones and compares end
// states. This credits equivalent action orderings and catches unwanted side
// effects that name-level matching misses.
func stateEquivalent(snap *sandbox.Snapshot, trace []sandbox.Call, expected []sandbox.Call) bool {
	predicted := snap.Clone()
	if err := predicted.Replay(sideEffects(trace)); err != nil {
		return false
	}
	truth := snap.Clone()
	if err := truth.Replay(expected); err != nil {
		return false
	}
	return predicted.Equal(truth)
}
