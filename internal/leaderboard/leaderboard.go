// Package leaderboard ranks models from stored metric records.
package leaderboard

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/stellarlinkco/sandbench/internal/store"
)

const defaultLimit = 50

// Entry is one model's standing on a (domain, variant) board. Rates come
// from the model's most recent run; Runs counts every stored run.
type Entry struct {
	Rank    int    `json:"rank"`
	Model   string `json:"model"`
	Domain  string `json:"domain"`
	Variant string `json:"variant"`

	Runs             int     `json:"runs"`
	Evaluated        int     `json:"evaluated"`
	Correct          int     `json:"correct"`
	PassRate         float64 `json:"pass_rate"`
	ExactRate        float64 `json:"exact_rate"`
	SentinelFailures int     `json:"sentinel_failures"`
	LatencyMs        int64   `json:"latency_ms"`

	LastEval time.Time `json:"last_eval"`
}

// Build ranks models from records already filtered to one domain and
// variant. Records with an undefined pass rate are skipped.
func Build(records []*store.Record) []Entry {
	latest := make(map[string]*store.Record)
	runs := make(map[string]int)
	for _, rec := range records {
		if rec == nil || !rec.Defined {
			continue
		}
		runs[rec.Model]++
		cur, ok := latest[rec.Model]
		if !ok || rec.CreatedAt.After(cur.CreatedAt) {
			latest[rec.Model] = rec
		}
	}

	out := make([]Entry, 0, len(latest))
	for model, rec := range latest {
		e := Entry{
			Model:            model,
			Domain:           rec.Domain,
			Variant:          rec.Variant,
			Runs:             runs[model],
			Evaluated:        rec.Evaluated,
			Correct:          rec.Correct,
			PassRate:         rec.PassRate,
			SentinelFailures: rec.SentinelFailures,
			LatencyMs:        rec.LatencyMs,
			LastEval:         rec.CreatedAt,
		}
		if rec.ActionTotal > 0 {
			e.ExactRate = float64(rec.ExactMatches) / float64(rec.ActionTotal)
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].PassRate != out[j].PassRate {
			return out[i].PassRate > out[j].PassRate
		}
		if out[i].ExactRate != out[j].ExactRate {
			return out[i].ExactRate > out[j].ExactRate
		}
		if out[i].LatencyMs != out[j].LatencyMs {
			return out[i].LatencyMs < out[j].LatencyMs
		}
		if !out[i].LastEval.Equal(out[j].LastEval) {
			return out[i].LastEval.After(out[j].LastEval)
		}
		return out[i].Model < out[j].Model
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Load reads records for one (domain, variant) board and ranks them.
func Load(ctx context.Context, r store.RecordReader, domain, variant string, limit int) ([]Entry, error) {
	if r == nil {
		return nil, errors.New("leaderboard: nil store")
	}
	if ctx == nil {
		return nil, errors.New("leaderboard: nil context")
	}
	domain = strings.TrimSpace(domain)
	variant = strings.TrimSpace(variant)
	if domain == "" || variant == "" {
		return nil, errors.New("leaderboard: missing domain/variant")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	// Pull enough history that every model's latest run is present even when
	// one model dominates recent activity.
	records, err := r.ListRecords(ctx, store.Filter{
		Domain:  domain,
		Variant: variant,
		Limit:   limit * 10,
	})
	if err != nil {
		return nil, err
	}

	board := Build(records)
	if len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}
