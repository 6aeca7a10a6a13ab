package taskgen

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/stellarlinkco/sandbench/internal/sandbox"
)

func generateAll(t *testing.T, snap *sandbox.Snapshot, opts Options) map[sandbox.Domain]*TaskSet {
	t.Helper()
	sets := make(map[sandbox.Domain]*TaskSet)
	for _, d := range sandbox.TaskDomains() {
		set, err := Generate(d, snap, opts)
		if err != nil {
			t.Fatalf("Generate(%s): %v", d, err)
		}
		sets[d] = set
	}
	return sets
}

func TestGenerateDeterministic(t *testing.T) {
	snap := sandbox.Generate(sandbox.DefaultGenConfig(11))
	opts := Options{Seed: 3, MaxPerTemplate: 2}
	a := generateAll(t, snap, opts)
	b := generateAll(t, snap, opts)
	for d, set := range a {
		if !reflect.DeepEqual(set, b[d]) {
			t.Errorf("%s: same seed produced different task sets", d)
		}
	}
}

func TestGenerateOracleConsistency(t *testing.T) {
	snap := sandbox.Generate(sandbox.DefaultGenConfig(11))
	for d, set := range generateAll(t, snap, Options{Seed: 9, MaxPerTemplate: 2}) {
		if len(set.Tasks) == 0 {
			t.Errorf("%s: no tasks generated", d)
			continue
		}
		if err := Validate(set, snap); err != nil {
			t.Errorf("%s: %v", d, err)
		}
		seen := make(map[string]struct{})
		for _, task := range set.Tasks {
			if _, dup := seen[task.Query]; dup {
				t.Errorf("%s: duplicate query %q", d, task.Query)
			}
			seen[task.Query] = struct{}{}
			if task.Domain != d {
				t.Errorf("task %s carries domain %s, want %s", task.ID, task.Domain, d)
			}
			if len(task.Domains) == 0 {
				t.Errorf("task %s has no catalog domains", task.ID)
			}
			for _, c := range task.Expected.Actions {
				if !sandbox.SideEffecting(c.Tool) {
					t.Errorf("task %s expects read-only call %s", task.ID, c.Tool)
				}
			}
		}
	}
}

func TestGenerateKeepsNoOpTasks(t *testing.T) {
	snap := sandbox.Generate(sandbox.DefaultGenConfig(11))
	for d, set := range generateAll(t, snap, Options{Seed: 5, MaxPerTemplate: 2}) {
		found := false
		for _, task := range set.Tasks {
			if task.Kind == KindAction && len(task.Expected.Actions) == 0 {
				found = true
				if task.Expected.Answer != "" {
					t.Errorf("no-op task %s carries an answer", task.ID)
				}
			}
		}
		if !found {
			t.Errorf("%s: no no-op tasks generated", d)
		}
	}
}

func TestGenerateCalendarDayCount(t *testing.T) {
	// Three events across two days; count queries must match the snapshot.
	snap := sandbox.Generate(sandbox.GenConfig{Seed: 42, People: 6, Events: 3, Emails: 1, Visits: 1, Tasks: 1, Customers: 1})
	set, err := Generate(sandbox.DomainCalendar, snap, Options{Seed: 42, MaxPerTemplate: 2})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	byDay := make(map[string]int)
	for _, e := range snap.Events {
		byDay[e.Start[:len(sandbox.DateLayout)]]++
	}
	checked := 0
	for _, task := range set.Tasks {
		if task.Template != "count_meetings_on_day" {
			continue
		}
		checked++
		day := strings.TrimSuffix(strings.TrimPrefix(task.Query, "How many meetings do I have on "), "?")
		want := strconv.Itoa(byDay[day])
		if task.Expected.Answer != want {
			t.Errorf("task %s: answer %q, want %q for %s", task.ID, task.Expected.Answer, want, day)
		}
	}
	if checked == 0 {
		t.Fatal("no count_meetings_on_day tasks generated")
	}
}

func TestGenerateUnknownDomain(t *testing.T) {
	snap := sandbox.Generate(sandbox.DefaultGenConfig(1))
	_, err := Generate(sandbox.DomainDirectory, snap, Options{Seed: 1})
	if !errors.Is(err, sandbox.ErrUnknownDomain) {
		t.Fatalf("error = %v, want ErrUnknownDomain", err)
	}
}

func TestGenerateNoOracleAnswer(t *testing.T) {
	// An empty snapshot gives every template nothing to sample.
	_, err := Generate(sandbox.DomainCalendar, &sandbox.Snapshot{}, Options{Seed: 1})
	if !errors.Is(err, ErrNoOracleAnswer) {
		t.Fatalf("error = %v, want ErrNoOracleAnswer", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	snap := sandbox.Generate(sandbox.DefaultGenConfig(2))
	set, err := Generate(sandbox.DomainCRM, snap, Options{Seed: 2, MaxPerTemplate: 2})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	dir := t.TempDir()
	if err := Save(set, dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(dir, sandbox.DomainCRM)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(set, loaded) {
		t.Error("task set changed across YAML round trip")
	}
	if _, err := Load(dir, sandbox.DomainEmail); err == nil {
		t.Error("expected error loading missing domain file")
	}
}

func TestValidateRejectsBadTasks(t *testing.T) {
	snap := sandbox.Generate(sandbox.DefaultGenConfig(2))
	set := &TaskSet{
		Domain: sandbox.DomainCalendar,
		Tasks: []Task{{
			ID:     "calendar-000",
			Domain: sandbox.DomainCalendar,
			Kind:   KindLookup,
			Query:  "How many meetings?",
		}},
	}
	if err := Validate(set, snap); err == nil {
		t.Error("expected error for lookup without answer")
	}

	set.Tasks[0].Kind = "guess"
	if err := Validate(set, snap); err == nil {
		t.Error("expected error for unknown kind")
	}
}
