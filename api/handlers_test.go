package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stellarlinkco/sandbench/internal/store"
)

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, &fakeStore{})

	w := doRequest(srv, http.MethodGet, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", w.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field: got %q", body["status"])
	}
}

func TestHandleListRuns(t *testing.T) {
	var gotFilter store.Filter
	st := &fakeStore{
		ListRecordsFunc: func(ctx context.Context, filter store.Filter) ([]*store.Record, error) {
			gotFilter = filter
			return []*store.Record{{RunID: "run-1", Domain: "calendar", Model: "claude-3", Variant: "restricted"}}, nil
		},
	}
	srv := newTestServer(t, st)

	w := doRequest(srv, http.MethodGet, "/api/runs?domain=calendar&model=claude-3&variant=restricted&limit=5&since=2026-01-01")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
	}

	if gotFilter.Domain != "calendar" || gotFilter.Model != "claude-3" || gotFilter.Variant != "restricted" {
		t.Fatalf("filter: %+v", gotFilter)
	}
	if gotFilter.Limit != 5 {
		t.Fatalf("limit: got %d want %d", gotFilter.Limit, 5)
	}
	if gotFilter.Since.Format("2006-01-02") != "2026-01-01" {
		t.Fatalf("since: got %v", gotFilter.Since)
	}

	var records []*store.Record
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].RunID != "run-1" {
		t.Fatalf("records: %+v", records)
	}
}

func TestHandleListRuns_BadParams(t *testing.T) {
	srv := newTestServer(t, &fakeStore{})

	for _, target := range []string{
		"/api/runs?limit=zero",
		"/api/runs?limit=-1",
		"/api/runs?since=nope",
		"/api/runs?until=13-2026",
	} {
		if w := doRequest(srv, http.MethodGet, target); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status got %d want %d", target, w.Code, http.StatusBadRequest)
		}
	}
}

func TestHandleListRuns_StoreError(t *testing.T) {
	st := &fakeStore{
		ListRecordsFunc: func(context.Context, store.Filter) ([]*store.Record, error) {
			return nil, errors.New("boom")
		},
	}
	srv := newTestServer(t, st)

	w := doRequest(srv, http.MethodGet, "/api/runs")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d want %d", w.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(w.Body.String(), "boom") {
		t.Fatalf("body: %q", w.Body.String())
	}
}

func TestHandleGetRun(t *testing.T) {
	rec := &store.Record{
		RunID:     "run-1",
		Domain:    "email",
		Model:     "gpt-4o",
		Variant:   "all_tools",
		CreatedAt: time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC),
		Outcomes:  []store.OutcomeRecord{{TaskID: "email-000", Kind: "lookup", Correct: true}},
	}
	st := &fakeStore{
		GetRecordFunc: func(ctx context.Context, runID string) (*store.Record, error) {
			if runID != "run-1" {
				return nil, sql.ErrNoRows
			}
			return rec, nil
		},
	}
	srv := newTestServer(t, st)

	w := doRequest(srv, http.MethodGet, "/api/runs/run-1")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
	}
	var got store.Record
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunID != "run-1" || got.Model != "gpt-4o" {
		t.Fatalf("record: %+v", got)
	}

	if w := doRequest(srv, http.MethodGet, "/api/runs/missing"); w.Code != http.StatusNotFound {
		t.Fatalf("missing run: status got %d want %d", w.Code, http.StatusNotFound)
	}
}

func TestHandleGetRunOutcomes(t *testing.T) {
	st := &fakeStore{
		GetRecordFunc: func(ctx context.Context, runID string) (*store.Record, error) {
			switch runID {
			case "run-1":
				return &store.Record{
					RunID: "run-1",
					Outcomes: []store.OutcomeRecord{
						{TaskID: "crm-000", Kind: "action", Correct: true, ExactMatch: true},
						{TaskID: "crm-001", Kind: "action", Failure: "timeout"},
					},
				}, nil
			case "run-empty":
				return &store.Record{RunID: "run-empty"}, nil
			default:
				return nil, sql.ErrNoRows
			}
		},
	}
	srv := newTestServer(t, st)

	w := doRequest(srv, http.MethodGet, "/api/runs/run-1/outcomes")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
	}
	var outcomes []store.OutcomeRecord
	if err := json.Unmarshal(w.Body.Bytes(), &outcomes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(outcomes) != 2 || outcomes[1].Failure != "timeout" {
		t.Fatalf("outcomes: %+v", outcomes)
	}

	w = doRequest(srv, http.MethodGet, "/api/runs/run-empty/outcomes")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("empty outcomes: status=%d body=%q", w.Code, w.Body.String())
	}

	if w := doRequest(srv, http.MethodGet, "/api/runs/missing/outcomes"); w.Code != http.StatusNotFound {
		t.Fatalf("missing run: status got %d want %d", w.Code, http.StatusNotFound)
	}
}

func TestHandleGetHistory(t *testing.T) {
	var gotDomain, gotModel, gotVariant string
	var gotLimit int
	st := &fakeStore{
		GetHistoryFunc: func(ctx context.Context, domain, model, variant string, limit int) ([]*store.Record, error) {
			gotDomain, gotModel, gotVariant, gotLimit = domain, model, variant, limit
			return []*store.Record{{RunID: "run-1"}}, nil
		},
	}
	srv := newTestServer(t, st)

	w := doRequest(srv, http.MethodGet, "/api/history?domain=project&model=claude-3&limit=3")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
	}
	if gotDomain != "project" || gotModel != "claude-3" || gotVariant != "restricted" || gotLimit != 3 {
		t.Fatalf("args: domain=%q model=%q variant=%q limit=%d", gotDomain, gotModel, gotVariant, gotLimit)
	}
}

func TestHandleGetHistory_BadParams(t *testing.T) {
	srv := newTestServer(t, &fakeStore{})

	for _, target := range []string{
		"/api/history",
		"/api/history?domain=bogus&model=claude-3",
		"/api/history?domain=crm",
		"/api/history?domain=crm&model=claude-3&variant=weird",
	} {
		if w := doRequest(srv, http.MethodGet, target); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status got %d want %d", target, w.Code, http.StatusBadRequest)
		}
	}
}

func TestHandleCompareModels(t *testing.T) {
	st := &fakeStore{
		GetModelComparisonFunc: func(ctx context.Context, domain, variant, modelA, modelB string) (*store.ModelComparison, error) {
			if modelB == "absent" {
				return nil, errors.New(`store: no runs for model "absent" on analytics/restricted`)
			}
			return &store.ModelComparison{
				Domain:      domain,
				Variant:     variant,
				ModelA:      modelA,
				ModelB:      modelB,
				Regressions: []string{"analytics-002"},
			}, nil
		},
	}
	srv := newTestServer(t, st)

	w := doRequest(srv, http.MethodGet, "/api/compare?domain=analytics&model_a=claude-3&model_b=gpt-4o")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
	}
	var cmp store.ModelComparison
	if err := json.Unmarshal(w.Body.Bytes(), &cmp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmp.ModelA != "claude-3" || len(cmp.Regressions) != 1 {
		t.Fatalf("comparison: %+v", cmp)
	}

	if w := doRequest(srv, http.MethodGet, "/api/compare?domain=analytics&model_a=claude-3&model_b=absent"); w.Code != http.StatusNotFound {
		t.Fatalf("absent model: status got %d want %d", w.Code, http.StatusNotFound)
	}

	if w := doRequest(srv, http.MethodGet, "/api/compare?domain=analytics&model_a=claude-3"); w.Code != http.StatusBadRequest {
		t.Fatalf("missing model_b: status got %d want %d", w.Code, http.StatusBadRequest)
	}
}
