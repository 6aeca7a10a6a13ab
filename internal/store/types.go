// Package store persists metric records for evaluation runs so results can
// be compared across models and over time.
package store

import (
	"context"
	"time"
)

// RecordWriter defines persistence for metric records.
type RecordWriter interface {
	SaveRecord(ctx context.Context, rec *Record) error
}

// RecordReader defines read access to stored metric records.
type RecordReader interface {
	GetRecord(ctx context.Context, runID string) (*Record, error)
	ListRecords(ctx context.Context, filter Filter) ([]*Record, error)
	GetHistory(ctx context.Context, domain, model, variant string, limit int) ([]*Record, error)
	GetModelComparison(ctx context.Context, domain, variant, modelA, modelB string) (*ModelComparison, error)
}

// Store defines persistence for evaluation run metrics.
type Store interface {
	RecordWriter
	RecordReader
	Close() error
}

// Record is one scored evaluation run keyed by (domain, model, variant).
type Record struct {
	RunID   string
	Domain  string
	Model   string
	Variant string

	TotalTasks       int
	Evaluated        int
	Correct          int
	ExactMatches     int
	SentinelFailures int

	LookupTotal   int
	LookupCorrect int
	ActionTotal   int
	ActionCorrect int

	PassRate float64
	Defined  bool

	InputTokens  int
	OutputTokens int
	LatencyMs    int64

	CreatedAt time.Time
	Outcomes  []OutcomeRecord // JSON serialized
}

// OutcomeRecord is a single task's score within a run.
type OutcomeRecord struct {
	TaskID     string `json:"task_id"`
	Kind       string `json:"kind"`
	Correct    bool   `json:"correct"`
	ExactMatch bool   `json:"exact_match"`
	Failure    string `json:"failure,omitempty"`
}

// Filter narrows record listings.
type Filter struct {
	Domain  string
	Model   string
	Variant string
	Since   time.Time
	Until   time.Time
	Limit   int
}

// ModelComparison summarizes per-task regressions between two models on the
// same domain and variant, using each model's latest run.
type ModelComparison struct {
	Domain  string
	Variant string
	ModelA  string
	ModelB  string

	ARecord *Record
	BRecord *Record

	// Task IDs that model A gets right and model B gets wrong, and the
	// reverse.
	Regressions  []string
	Improvements []string
}
