package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stellarlinkco/sandbench/internal/leaderboard"
	"github.com/stellarlinkco/sandbench/internal/store"
)

func TestHandleGetLeaderboard(t *testing.T) {
	var gotFilter store.Filter
	st := &fakeStore{
		ListRecordsFunc: func(ctx context.Context, filter store.Filter) ([]*store.Record, error) {
			gotFilter = filter
			return []*store.Record{
				{
					RunID: "run-a", Domain: "calendar", Model: "claude-3", Variant: "restricted",
					Evaluated: 10, Correct: 9, PassRate: 0.9, Defined: true,
					CreatedAt: time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC),
				},
				{
					RunID: "run-b", Domain: "calendar", Model: "gpt-4o", Variant: "restricted",
					Evaluated: 10, Correct: 7, PassRate: 0.7, Defined: true,
					CreatedAt: time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC),
				},
			}, nil
		},
	}
	srv := newTestServer(t, st)

	w := doRequest(srv, http.MethodGet, "/api/leaderboard?domain=calendar&limit=10")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
	}

	if gotFilter.Domain != "calendar" || gotFilter.Variant != "restricted" {
		t.Fatalf("filter: %+v", gotFilter)
	}

	var entries []leaderboard.Entry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries: %+v", entries)
	}
	if entries[0].Rank != 1 || entries[0].Model != "claude-3" {
		t.Fatalf("first entry: %+v", entries[0])
	}
	if entries[1].Model != "gpt-4o" {
		t.Fatalf("second entry: %+v", entries[1])
	}
}

func TestHandleGetLeaderboard_BadParams(t *testing.T) {
	srv := newTestServer(t, &fakeStore{})

	for _, target := range []string{
		"/api/leaderboard",
		"/api/leaderboard?domain=bogus",
		"/api/leaderboard?domain=calendar&variant=weird",
		"/api/leaderboard?domain=calendar&limit=0",
		"/api/leaderboard?domain=calendar&limit=abc",
	} {
		if w := doRequest(srv, http.MethodGet, target); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status got %d want %d", target, w.Code, http.StatusBadRequest)
		}
	}
}

func TestHandleGetLeaderboard_LimitCap(t *testing.T) {
	var gotLimit int
	st := &fakeStore{
		ListRecordsFunc: func(ctx context.Context, filter store.Filter) ([]*store.Record, error) {
			gotLimit = filter.Limit
			return nil, nil
		},
	}
	srv := newTestServer(t, st)

	if w := doRequest(srv, http.MethodGet, "/api/leaderboard?domain=calendar&limit=500"); w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	// Capped to 100 entries; the loader over-fetches history by 10x.
	if gotLimit != 1000 {
		t.Fatalf("list limit: got %d want %d", gotLimit, 1000)
	}
}
