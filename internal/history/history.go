// Package history keeps a log of flow invocations for the dashboard. The flow
// pipeline never writes here itself; callers record each run after it ends.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/krishi-mitra/internal/db"
	"github.com/ziadkadry99/krishi-mitra/internal/pipeline"
)

// Run is one recorded flow invocation.
type Run struct {
	ID           string    `json:"id"`
	Flow         string    `json:"flow"`
	Status       string    `json:"status"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	Model        string    `json:"model,omitempty"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	CreatedAt    time.Time `json:"created_at"`
}

// FlowStats aggregates runs of a single flow.
type FlowStats struct {
	Flow          string  `json:"flow"`
	Runs          int     `json:"runs"`
	Failures      int     `json:"failures"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
	TotalCostUSD  float64 `json:"total_cost_usd"`
}

// Store persists runs.
type Store struct {
	db *db.DB
}

// NewStore creates a new history store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// FromResult builds a Run from the outcome of a flow call.
func FromResult(flow string, res *pipeline.Result, elapsed time.Duration, err error) *Run {
	run := &Run{Flow: flow, Status: "ok", DurationMS: elapsed.Milliseconds()}
	if err != nil {
		run.Status = "error"
		run.ErrorKind = string(pipeline.KindOf(err))
		return run
	}
	if res != nil {
		run.Model = res.Usage.Model
		run.InputTokens = res.Usage.InputTokens
		run.OutputTokens = res.Usage.OutputTokens
		run.CostUSD = res.Usage.CostUSD
	}
	return run
}

// Record inserts a run.
func (s *Store) Record(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO flow_runs (id, flow, status, error_kind, duration_ms, model, input_tokens, output_tokens, cost_usd, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Flow, r.Status, r.ErrorKind, r.DurationMS, r.Model, r.InputTokens, r.OutputTokens, r.CostUSD, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording flow run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, flow, status, error_kind, duration_ms, model, input_tokens, output_tokens, cost_usd, created_at
		 FROM flow_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing flow runs: %w", err)
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Flow, &r.Status, &r.ErrorKind, &r.DurationMS, &r.Model,
			&r.InputTokens, &r.OutputTokens, &r.CostUSD, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning flow run: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Stats aggregates all runs per flow, sorted by flow name.
func (s *Store) Stats(ctx context.Context) ([]FlowStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT flow, COUNT(*), SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), AVG(duration_ms), SUM(cost_usd)
		 FROM flow_runs GROUP BY flow ORDER BY flow`)
	if err != nil {
		return nil, fmt.Errorf("aggregating flow runs: %w", err)
	}
	defer rows.Close()

	var result []FlowStats
	for rows.Next() {
		var st FlowStats
		if err := rows.Scan(&st.Flow, &st.Runs, &st.Failures, &st.AvgDurationMS, &st.TotalCostUSD); err != nil {
			return nil, fmt.Errorf("scanning flow stats: %w", err)
		}
		result = append(result, st)
	}
	return result, rows.Err()
}
