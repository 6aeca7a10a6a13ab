// Package taskgen derives query/answer pairs from a sandbox snapshot. Each
// domain has a fixed taxonomy of templates; a template samples parameters
// from the snapshot with a seeded RNG and computes the expected outcome by
// querying the snapshot directly, so every expected outcome is recomputable
// from the data it was drawn from.
package taskgen

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/stellarlinkco/sandbench/internal/sandbox"
)

// Kind distinguishes tasks scored on side effects from tasks scored on a
// literal answer.
type Kind string

const (
	// KindAction tasks are scored against an ordered list of
	// side-effecting tool calls.
	KindAction Kind = "action"
	// KindLookup tasks are scored against a literal answer string.
	KindLookup Kind = "lookup"
)

// ErrNoOracleAnswer reports a template that could not produce a valid
// query/answer pair within the attempt budget. It indicates the snapshot and
// the template taxonomy are inconsistent.
var ErrNoOracleAnswer = errors.New("taskgen: no oracle answer")

// ErrReplayFailed reports an expected action list that does not execute
// cleanly against the snapshot it was derived from.
var ErrReplayFailed = errors.New("taskgen: expected actions failed to replay")

// Expected is a task's ground truth: an action sequence, a literal answer,
// or deliberately neither for no-op tasks.
type Expected struct {
	Actions []sandbox.Call `yaml:"actions,omitempty" json:"actions,omitempty"`
	Answer  string         `yaml:"answer,omitempty" json:"answer,omitempty"`
}

// Task pairs a natural-language query with its expected outcome. Tasks are
// immutable once generated.
type Task struct {
	ID       string           `yaml:"id" json:"id"`
	Domain   sandbox.Domain   `yaml:"domain" json:"domain"`
	Kind     Kind             `yaml:"kind" json:"kind"`
	Template string           `yaml:"template" json:"template"`
	Query    string           `yaml:"query" json:"query"`
	Domains  []sandbox.Domain `yaml:"domains" json:"domains"`
	Expected Expected         `yaml:"expected" json:"expected"`
}

// TaskSet is one domain's generated tasks plus the seed that produced them.
type TaskSet struct {
	Domain sandbox.Domain `yaml:"domain" json:"domain"`
	Seed   int64          `yaml:"seed" json:"seed"`
	Tasks  []Task         `yaml:"tasks" json:"tasks"`
}

// Options control generation volume and reproducibility.
type Options struct {
	Seed           int64
	MaxPerTemplate int
}

// sample is one draw from a template. A nil sample means the draw had no
// valid oracle answer and should be retried with fresh parameters. noop
// marks tasks whose correct behavior is an empty action list; those are
// kept, not discarded.
type sample struct {
	query   string
	actions []sandbox.Call
	answer  string
	noop    bool
}

type template struct {
	name    string
	kind    Kind
	domains []sandbox.Domain
	logic   func(r *rand.Rand, s *sandbox.Snapshot) *sample
}

// attemptsPerTask bounds resampling when draws keep producing empty oracles
// or duplicate queries.
const attemptsPerTask = 64

func domainTemplates(d sandbox.Domain) ([]template, error) {
	switch d {
	case sandbox.DomainCalendar:
		return calendarTemplates(), nil
	case sandbox.DomainEmail:
		return emailTemplates(), nil
	case sandbox.DomainAnalytics:
		return analyticsTemplates(), nil
	case sandbox.DomainProject:
		return projectTemplates(), nil
	case sandbox.DomainCRM:
		return crmTemplates(), nil
	default:
		return nil, fmt.Errorf("%w: %q has no task templates", sandbox.ErrUnknownDomain, d)
	}
}

// Generate builds a task set for one domain. The same snapshot, seed, and
// options always produce the same tasks.
func Generate(d sandbox.Domain, snap *sandbox.Snapshot, opts Options) (*TaskSet, error) {
	if snap == nil {
		return nil, fmt.Errorf("taskgen: nil snapshot")
	}
	templates, err := domainTemplates(d)
	if err != nil {
		return nil, err
	}
	maxPer := opts.MaxPerTemplate
	if maxPer <= 0 {
		maxPer = 3
	}

	r := rand.New(rand.NewSource(opts.Seed))
	set := &TaskSet{Domain: d, Seed: opts.Seed}
	seen := make(map[string]struct{})

	for _, t := range templates {
		generated := 0
		attempts := 0
		for generated < maxPer {
			if attempts >= attemptsPerTask {
				if generated > 0 {
					// Template exhausted its distinct queries; move on.
					break
				}
				return nil, fmt.Errorf("%w: template %q on domain %s", ErrNoOracleAnswer, t.name, d)
			}
			attempts++

			smp := t.logic(r, snap)
			if smp == nil {
				continue
			}
			if t.kind == KindLookup && smp.answer == "" {
				continue
			}
			if _, dup := seen[smp.query]; dup {
				continue
			}
			if t.kind == KindAction && !smp.noop {
				if len(smp.actions) == 0 {
					continue
				}
				if err := snap.Clone().Replay(smp.actions); err != nil {
					return nil, fmt.Errorf("%w: template %q: %v", ErrReplayFailed, t.name, err)
				}
			}

			seen[smp.query] = struct{}{}
			domains := t.domains
			if len(domains) == 0 {
				domains = []sandbox.Domain{d}
			}
			set.Tasks = append(set.Tasks, Task{
				ID:       fmt.Sprintf("%s-%03d", d, len(set.Tasks)),
				Domain:   d,
				Kind:     t.kind,
				Template: t.name,
				Query:    smp.query,
				Domains:  domains,
				Expected: Expected{Actions: smp.actions, Answer: smp.answer},
			})
			generated++
			attempts = 0
		}
	}
	return set, nil
}

// Validate re-checks a task set against its snapshot: action sequences must
// replay cleanly and lookup answers must be present.
func Validate(set *TaskSet, snap *sandbox.Snapshot) error {
	if set == nil || snap == nil {
		return fmt.Errorf("taskgen: nil task set or snapshot")
	}
	for _, task := range set.Tasks {
		switch task.Kind {
		case KindLookup:
			if task.Expected.Answer == "" {
				return fmt.Errorf("taskgen: task %s: lookup with empty answer", task.ID)
			}
		case KindAction:
			if err := snap.Clone().Replay(task.Expected.Actions); err != nil {
				return fmt.Errorf("%w: task %s: %v", ErrReplayFailed, task.ID, err)
			}
		default:
			return fmt.Errorf("taskgen: task %s: unknown kind %q", task.ID, task.Kind)
		}
	}
	return nil
}

func pick[T any](r *rand.Rand, items []T) T {
	return items[r.Intn(len(items))]
}
