package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultHistoryLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertRecordStmt  *sql.Stmt
	getRecordStmt     *sql.Stmt
	historyStmt       *sql.Stmt
	latestByModelStmt *sql.Stmt
}

var (
	sqliteOpen              = sql.Open
	sqlitePrepareStatements = (*SQLiteStore).prepareStatements
)

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sqliteOpen("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := sqlitePrepareStatements(st); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS metric_records (
			run_id TEXT PRIMARY KEY,
			domain TEXT NOT NULL,
			model TEXT NOT NULL,
			variant TEXT NOT NULL,
			total_tasks INTEGER NOT NULL,
			evaluated INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			exact_matches INTEGER NOT NULL,
			sentinel_failures INTEGER NOT NULL,
			lookup_total INTEGER NOT NULL,
			lookup_correct INTEGER NOT NULL,
			action_total INTEGER NOT NULL,
			action_correct INTEGER NOT NULL,
			pass_rate REAL NOT NULL,
			defined INTEGER NOT NULL,
			input_tokens INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			latency_ms INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			outcomes BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metric_records_key ON metric_records(domain, model, variant)`,
		`CREATE INDEX IF NOT EXISTS idx_metric_records_created_at ON metric_records(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

const recordColumns = `run_id, domain, model, variant, total_tasks, evaluated, correct,
	exact_matches, sentinel_failures, lookup_total, lookup_correct, action_total,
	action_correct, pass_rate, defined, input_tokens, output_tokens, latency_ms,
	created_at, outcomes`

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	ctx := context.Background()
	type stmtSpec struct {
		dst    **sql.Stmt
		query  string
		errFmt string
	}

	specs := []stmtSpec{
		{
			dst: &s.insertRecordStmt,
			query: `
				INSERT INTO metric_records (` + recordColumns + `)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert record: %w",
		},
		{
			dst: &s.getRecordStmt,
			query: `
				SELECT ` + recordColumns + `
				FROM metric_records WHERE run_id = ?
			`,
			errFmt: "store: prepare get record: %w",
		},
		{
			dst: &s.historyStmt,
			query: `
				SELECT ` + recordColumns + `
				FROM metric_records
				WHERE domain = ? AND model = ? AND variant = ?
				ORDER BY created_at DESC
				LIMIT ?
			`,
			errFmt: "store: prepare history: %w",
		},
		{
			dst: &s.latestByModelStmt,
			query: `
				SELECT ` + recordColumns + `
				FROM metric_records
				WHERE domain = ? AND model = ? AND variant = ?
				ORDER BY created_at DESC
				LIMIT 1
			`,
			errFmt: "store: prepare latest record: %w",
		},
	}

	for _, spec := range specs {
		stmt, err := s.db.PrepareContext(ctx, spec.query)
		if err != nil {
			return fmt.Errorf(spec.errFmt, err)
		}
		*spec.dst = stmt
	}

	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	stmts := []*sql.Stmt{
		s.insertRecordStmt,
		s.getRecordStmt,
		s.historyStmt,
		s.latestByModelStmt,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRecord persists one run's metric record.
func (s *SQLiteStore) SaveRecord(ctx context.Context, rec *Record) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if rec == nil {
		return errors.New("store: nil record")
	}

	runID := strings.TrimSpace(rec.RunID)
	if runID == "" {
		return errors.New("store: empty run id")
	}
	domain := strings.TrimSpace(rec.Domain)
	model := strings.TrimSpace(rec.Model)
	variant := strings.TrimSpace(rec.Variant)
	if domain == "" || model == "" || variant == "" {
		return errors.New("store: missing domain/model/variant")
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	outcomesJSON, err := json.Marshal(rec.Outcomes)
	if err != nil {
		return fmt.Errorf("store: marshal outcomes: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin record tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt := tx.StmtContext(ctx, s.insertRecordStmt)
	defer stmt.Close()

	_, err = stmt.ExecContext(
		ctx,
		runID,
		domain,
		model,
		variant,
		rec.TotalTasks,
		rec.Evaluated,
		rec.Correct,
		rec.ExactMatches,
		rec.SentinelFailures,
		rec.LookupTotal,
		rec.LookupCorrect,
		rec.ActionTotal,
		rec.ActionCorrect,
		rec.PassRate,
		boolToInt(rec.Defined),
		rec.InputTokens,
		rec.OutputTokens,
		rec.LatencyMs,
		createdAt.UTC().UnixMilli(),
		outcomesJSON,
	)
	if err != nil {
		return fmt.Errorf("store: insert record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit record: %w", err)
	}
	return nil
}

// GetRecord loads a record by run id.
func (s *SQLiteStore) GetRecord(ctx context.Context, runID string) (*Record, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, errors.New("store: empty run id")
	}

	row := s.getRecordStmt.QueryRowContext(ctx, runID)
	rec, err := scanRecordRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: get record: %w", err)
	}
	return rec, nil
}

// ListRecords returns records matching the filter, newest first.
func (s *SQLiteStore) ListRecords(ctx context.Context, filter Filter) ([]*Record, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + recordColumns + ` FROM metric_records WHERE 1=1`)

	var args []any
	if v := strings.TrimSpace(filter.Domain); v != "" {
		sb.WriteString(` AND domain = ?`)
		args = append(args, v)
	}
	if v := strings.TrimSpace(filter.Model); v != "" {
		sb.WriteString(` AND model = ?`)
		args = append(args, v)
	}
	if v := strings.TrimSpace(filter.Variant); v != "" {
		sb.WriteString(` AND variant = ?`)
		args = append(args, v)
	}
	if !filter.Since.IsZero() {
		sb.WriteString(` AND created_at >= ?`)
		args = append(args, filter.Since.UTC().UnixMilli())
	}
	if !filter.Until.IsZero() {
		sb.WriteString(` AND created_at <= ?`)
		args = append(args, filter.Until.UTC().UnixMilli())
	}
	sb.WriteString(` ORDER BY created_at DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list records: %w", err)
	}
	defer rows.Close()
	return scanRecordRows(rows)
}

// GetHistory returns recent records for one (domain, model, variant) key.
func (s *SQLiteStore) GetHistory(ctx context.Context, domain, model, variant string, limit int) ([]*Record, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	domain = strings.TrimSpace(domain)
	model = strings.TrimSpace(model)
	variant = strings.TrimSpace(variant)
	if domain == "" || model == "" || variant == "" {
		return nil, errors.New("store: missing domain/model/variant")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := s.historyStmt.QueryContext(ctx, domain, model, variant, limit)
	if err != nil {
		return nil, fmt.Errorf("store: history: %w", err)
	}
	defer rows.Close()

	return scanRecordRows(rows)
}

// GetModelComparison compares the latest runs of two models on the same
// domain and variant, listing the task-level wins of each side.
func (s *SQLiteStore) GetModelComparison(ctx context.Context, domain, variant, modelA, modelB string) (*ModelComparison, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	domain = strings.TrimSpace(domain)
	variant = strings.TrimSpace(variant)
	modelA = strings.TrimSpace(modelA)
	modelB = strings.TrimSpace(modelB)
	if domain == "" || variant == "" || modelA == "" || modelB == "" {
		return nil, errors.New("store: missing domain/variant/model")
	}

	recA, err := s.latestRecord(ctx, domain, modelA, variant)
	if err != nil {
		return nil, err
	}
	recB, err := s.latestRecord(ctx, domain, modelB, variant)
	if err != nil {
		return nil, err
	}

	regressions, improvements := compareOutcomes(recA.Outcomes, recB.Outcomes)

	return &ModelComparison{
		Domain:       domain,
		Variant:      variant,
		ModelA:       modelA,
		ModelB:       modelB,
		ARecord:      recA,
		BRecord:      recB,
		Regressions:  regressions,
		Improvements: improvements,
	}, nil
}

func (s *SQLiteStore) latestRecord(ctx context.Context, domain, model, variant string) (*Record, error) {
	row := s.latestByModelStmt.QueryRowContext(ctx, domain, model, variant)
	rec, err := scanRecordRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: no runs for model %q on %s/%s", model, domain, variant)
		}
		return nil, fmt.Errorf("store: latest record: %w", err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecordRow(row rowScanner) (*Record, error) {
	var (
		rec          Record
		defined      int
		createdAtMS  int64
		outcomesJSON []byte
	)
	if err := row.Scan(
		&rec.RunID,
		&rec.Domain,
		&rec.Model,
		&rec.Variant,
		&rec.TotalTasks,
		&rec.Evaluated,
		&rec.Correct,
		&rec.ExactMatches,
		&rec.SentinelFailures,
		&rec.LookupTotal,
		&rec.LookupCorrect,
		&rec.ActionTotal,
		&rec.ActionCorrect,
		&rec.PassRate,
		&defined,
		&rec.InputTokens,
		&rec.OutputTokens,
		&rec.LatencyMs,
		&createdAtMS,
		&outcomesJSON,
	); err != nil {
		return nil, err
	}

	rec.Defined = defined != 0
	rec.CreatedAt = time.UnixMilli(createdAtMS).UTC()

	outcomes, err := decodeOutcomes(outcomesJSON)
	if err != nil {
		return nil, fmt.Errorf("decode outcomes: %w", err)
	}
	rec.Outcomes = outcomes

	return &rec, nil
}

func scanRecordRows(rows *sql.Rows) ([]*Record, error) {
	var out []*Record
	for rows.Next() {
		rec, err := scanRecordRow(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan record rows: %w", err)
	}
	return out, nil
}

func decodeOutcomes(outcomesJSON []byte) ([]OutcomeRecord, error) {
	if len(outcomesJSON) == 0 {
		return nil, nil
	}
	var out []OutcomeRecord
	if err := json.Unmarshal(outcomesJSON, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func compareOutcomes(a, b []OutcomeRecord) ([]string, []string) {
	aCorrect := make(map[string]bool, len(a))
	for _, o := range a {
		aCorrect[o.TaskID] = o.Correct
	}
	bCorrect := make(map[string]bool, len(b))
	for _, o := range b {
		bCorrect[o.TaskID] = o.Correct
	}

	var regressions []string
	var improvements []string
	for taskID, aOK := range aCorrect {
		bOK, ok := bCorrect[taskID]
		if !ok {
			continue
		}
		if aOK && !bOK {
			regressions = append(regressions, taskID)
		}
		if !aOK && bOK {
			improvements = append(improvements, taskID)
		}
	}

	sort.Strings(regressions)
	sort.Strings(improvements)
	return regressions, improvements
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
