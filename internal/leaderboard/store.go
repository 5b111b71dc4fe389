// Package leaderboard persists evaluation run summaries in sqlite so runs
// against different providers and memory configurations can be compared.
package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultLimit = 50

type Store struct {
	db *sql.DB
}

// Entry is one evaluation run summary. Accuracy is a percentage; latencies
// are per-item averages in milliseconds.
type Entry struct {
	ID                 int64
	Provider           string
	Model              string
	Dataset            string
	Accuracy           float64
	TotalItems         int
	LatencyStoreMsAvg  float64
	LatencyRecallMsAvg float64
	EvalDate           time.Time
}

func NewStore(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("leaderboard: empty db path")
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("leaderboard: create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: open db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("leaderboard: ping db: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("leaderboard: nil db")
	}

	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			dataset TEXT NOT NULL,
			accuracy REAL NOT NULL,
			total_items INTEGER NOT NULL,
			latency_store_ms REAL NOT NULL,
			latency_recall_ms REAL NOT NULL,
			eval_date INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_model_dataset ON runs(model, dataset)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_eval_date ON runs(eval_date)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("leaderboard: init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, entry *Entry) error {
	if s == nil || s.db == nil {
		return errors.New("leaderboard: nil store")
	}
	if ctx == nil {
		return errors.New("leaderboard: nil context")
	}
	if entry == nil {
		return errors.New("leaderboard: nil entry")
	}

	provider := strings.TrimSpace(entry.Provider)
	model := strings.TrimSpace(entry.Model)
	dataset := strings.TrimSpace(entry.Dataset)
	if provider == "" || model == "" || dataset == "" {
		return errors.New("leaderboard: missing provider/model/dataset")
	}
	if entry.TotalItems <= 0 {
		return errors.New("leaderboard: total items must be positive")
	}

	evalDate := entry.EvalDate
	if evalDate.IsZero() {
		evalDate = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			provider, model, dataset, accuracy, total_items, latency_store_ms, latency_recall_ms, eval_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, provider, model, dataset, entry.Accuracy, entry.TotalItems, entry.LatencyStoreMsAvg, entry.LatencyRecallMsAvg, evalDate.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("leaderboard: insert run: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	entry.EvalDate = evalDate
	entry.Provider = provider
	entry.Model = model
	entry.Dataset = dataset
	return nil
}

// GetLeaderboard returns the best runs for a dataset, most accurate first.
// Ties break toward lower recall latency, then more recent runs.
func (s *Store) GetLeaderboard(ctx context.Context, dataset string, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("leaderboard: nil store")
	}
	if ctx == nil {
		return nil, errors.New("leaderboard: nil context")
	}
	dataset = strings.TrimSpace(dataset)
	if dataset == "" {
		return nil, errors.New("leaderboard: empty dataset")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, model, dataset, accuracy, total_items, latency_store_ms, latency_recall_ms, eval_date
		FROM runs
		WHERE dataset = ?
		ORDER BY accuracy DESC, latency_recall_ms ASC, eval_date DESC
		LIMIT ?
	`, dataset, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query leaderboard: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func (s *Store) GetModelHistory(ctx context.Context, model, dataset string) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("leaderboard: nil store")
	}
	if ctx == nil {
		return nil, errors.New("leaderboard: nil context")
	}
	model = strings.TrimSpace(model)
	dataset = strings.TrimSpace(dataset)
	if model == "" || dataset == "" {
		return nil, errors.New("leaderboard: missing model/dataset")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, model, dataset, accuracy, total_items, latency_store_ms, latency_recall_ms, eval_date
		FROM runs
		WHERE model = ? AND dataset = ?
		ORDER BY eval_date DESC
	`, model, dataset)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query model history: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var evalDateMS int64
		if err := rows.Scan(
			&e.ID,
			&e.Provider,
			&e.Model,
			&e.Dataset,
			&e.Accuracy,
			&e.TotalItems,
			&e.LatencyStoreMsAvg,
			&e.LatencyRecallMsAvg,
			&evalDateMS,
		); err != nil {
			return nil, fmt.Errorf("leaderboard: scan run: %w", err)
		}
		e.EvalDate = time.UnixMilli(evalDateMS).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: scan rows: %w", err)
	}
	return out, nil
}
