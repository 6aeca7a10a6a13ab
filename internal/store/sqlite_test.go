package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "store.db")
	st, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func testRecord(runID, model string, createdAt time.Time) *Record {
	return &Record{
		RunID:   runID,
		Domain:  "calendar",
		Model:   model,
		Variant: "restricted",

		TotalTasks:       4,
		Evaluated:        4,
		Correct:          3,
		ExactMatches:     2,
		SentinelFailures: 1,

		LookupTotal:   2,
		LookupCorrect: 2,
		ActionTotal:   2,
		ActionCorrect: 1,

		PassRate: 0.75,
		Defined:  true,

		InputTokens:  1200,
		OutputTokens: 340,
		LatencyMs:    5400,

		CreatedAt: createdAt,
		Outcomes: []OutcomeRecord{
			{TaskID: "calendar-000", Kind: "lookup", Correct: true},
			{TaskID: "calendar-001", Kind: "lookup", Correct: true},
			{TaskID: "calendar-002", Kind: "action", Correct: true, ExactMatch: true},
			{TaskID: "calendar-003", Kind: "action", Failure: "timeout"},
		},
	}
}

func TestSQLiteStore_SaveRecordGetRecord(t *testing.T) {
	t.Parallel()

	st := newTestSQLiteStore(t)
	ctx := context.Background()

	at := time.Unix(1_700_000_000, 0).UTC()
	rec := testRecord("run_1", "claude-3", at)
	if err := st.SaveRecord(ctx, rec); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	got, err := st.GetRecord(ctx, "run_1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Domain != "calendar" || got.Model != "claude-3" || got.Variant != "restricted" {
		t.Fatalf("key: got %#v", got)
	}
	if !got.CreatedAt.Equal(at) {
		t.Fatalf("CreatedAt: got %v want %v", got.CreatedAt, at)
	}
	if got.Correct != 3 || got.ExactMatches != 2 || got.SentinelFailures != 1 {
		t.Fatalf("counts: got %#v", got)
	}
	if got.PassRate != 0.75 || !got.Defined {
		t.Fatalf("pass rate: got %v defined=%v", got.PassRate, got.Defined)
	}
	if got.InputTokens != 1200 || got.OutputTokens != 340 || got.LatencyMs != 5400 {
		t.Fatalf("totals: got %#v", got)
	}
	if len(got.Outcomes) != 4 {
		t.Fatalf("Outcomes: got %d want 4", len(got.Outcomes))
	}
	if got.Outcomes[3].Failure != "timeout" {
		t.Fatalf("Outcomes[3].Failure: got %q", got.Outcomes[3].Failure)
	}
}

func TestSQLiteStore_GetRecord_NotFound(t *testing.T) {
	t.Parallel()

	st := newTestSQLiteStore(t)
	_, err := st.GetRecord(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("error = %v, want sql.ErrNoRows", err)
	}
}

func TestSQLiteStore_SaveRecord_Validation(t *testing.T) {
	t.Parallel()

	st := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := st.SaveRecord(ctx, nil); err == nil {
		t.Fatal("expected error for nil record")
	}
	if err := st.SaveRecord(ctx, &Record{Domain: "calendar", Model: "m", Variant: "restricted"}); err == nil {
		t.Fatal("expected error for empty run id")
	}
	if err := st.SaveRecord(ctx, &Record{RunID: "r", Model: "m", Variant: "restricted"}); err == nil {
		t.Fatal("expected error for missing domain")
	}

	rec := testRecord("run_dup", "m", time.Now().UTC())
	if err := st.SaveRecord(ctx, rec); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if err := st.SaveRecord(ctx, rec); err == nil {
		t.Fatal("expected error on duplicate run id")
	}
}

func TestSQLiteStore_ListRecords_Filter(t *testing.T) {
	t.Parallel()

	st := newTestSQLiteStore(t)
	ctx := context.Background()
	t0 := time.Unix(1_700_000_000, 0).UTC()

	a := testRecord("run_a", "claude-3", t0)
	b := testRecord("run_b", "gpt-4o", t0.Add(2*time.Hour))
	c := testRecord("run_c", "gpt-4o", t0.Add(4*time.Hour))
	c.Domain = "email"
	for _, rec := range []*Record{a, b, c} {
		if err := st.SaveRecord(ctx, rec); err != nil {
			t.Fatalf("SaveRecord %s: %v", rec.RunID, err)
		}
	}

	got, err := st.ListRecords(ctx, Filter{Model: "gpt-4o", Limit: 10})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(got) != 2 || got[0].RunID != "run_c" || got[1].RunID != "run_b" {
		t.Fatalf("model filter: got %#v", got)
	}

	got, err = st.ListRecords(ctx, Filter{Domain: "calendar", Since: t0.Add(time.Hour), Limit: 10})
	if err != nil {
		t.Fatalf("ListRecords since: %v", err)
	}
	if len(got) != 1 || got[0].RunID != "run_b" {
		t.Fatalf("since filter: got %#v", got)
	}

	got, err = st.ListRecords(ctx, Filter{Limit: 1})
	if err != nil {
		t.Fatalf("ListRecords limit: %v", err)
	}
	if len(got) != 1 || got[0].RunID != "run_c" {
		t.Fatalf("limit: got %#v", got)
	}
}

func TestSQLiteStore_GetHistory(t *testing.T) {
	t.Parallel()

	st := newTestSQLiteStore(t)
	ctx := context.Background()
	t0 := time.Unix(1_700_000_000, 0).UTC()

	for i, runID := range []string{"run_h1", "run_h2", "run_h3"} {
		rec := testRecord(runID, "claude-3", t0.Add(time.Duration(i)*time.Hour))
		if err := st.SaveRecord(ctx, rec); err != nil {
			t.Fatalf("SaveRecord %s: %v", runID, err)
		}
	}

	history, err := st.GetHistory(ctx, "calendar", "claude-3", "restricted", 2)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 2 || history[0].RunID != "run_h3" || history[1].RunID != "run_h2" {
		t.Fatalf("GetHistory: got %#v", history)
	}

	if _, err := st.GetHistory(ctx, "", "claude-3", "restricted", 2); err == nil {
		t.Fatal("expected error for empty domain")
	}
}

func TestSQLiteStore_GetModelComparison(t *testing.T) {
	t.Parallel()

	st := newTestSQLiteStore(t)
	ctx := context.Background()
	t0 := time.Unix(1_700_000_000, 0).UTC()

	a := testRecord("run_ma", "claude-3", t0)
	a.Outcomes = []OutcomeRecord{
		{TaskID: "calendar-000", Kind: "lookup", Correct: true},
		{TaskID: "calendar-001", Kind: "action", Correct: false},
	}
	b := testRecord("run_mb", "gpt-4o", t0.Add(time.Hour))
	b.Outcomes = []OutcomeRecord{
		{TaskID: "calendar-000", Kind: "lookup", Correct: false},
		{TaskID: "calendar-001", Kind: "action", Correct: true},
	}
	for _, rec := range []*Record{a, b} {
		if err := st.SaveRecord(ctx, rec); err != nil {
			t.Fatalf("SaveRecord %s: %v", rec.RunID, err)
		}
	}

	comp, err := st.GetModelComparison(ctx, "calendar", "restricted", "claude-3", "gpt-4o")
	if err != nil {
		t.Fatalf("GetModelComparison: %v", err)
	}
	if comp.ARecord.RunID != "run_ma" || comp.BRecord.RunID != "run_mb" {
		t.Fatalf("records: got %q %q", comp.ARecord.RunID, comp.BRecord.RunID)
	}
	if len(comp.Regressions) != 1 || comp.Regressions[0] != "calendar-000" {
		t.Fatalf("Regressions: got %#v", comp.Regressions)
	}
	if len(comp.Improvements) != 1 || comp.Improvements[0] != "calendar-001" {
		t.Fatalf("Improvements: got %#v", comp.Improvements)
	}

	if _, err := st.GetModelComparison(ctx, "calendar", "restricted", "claude-3", "nope"); err == nil {
		t.Fatal("expected error for model without runs")
	}
}

func TestNewSQLiteStore_EmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := NewSQLiteStore(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
