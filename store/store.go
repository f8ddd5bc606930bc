// Package store persists solved schedules to Postgres, the way the
// teacher persists MPC decisions: one row per run plus one row per step,
// inserted in a single transaction (scheduler/mpc_persistence.go).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// StepRecord is the net demand and price in effect at one grid step of a
// solved run.
type StepRecord struct {
	Timestamp time.Time
	DemandW   float64
	PriceEUR  float64 // €/Wh
}

// Run is a single completed solve, ready to persist.
type Run struct {
	SolvedAt      time.Time
	Seed          int64
	Iterations    int
	Reason        string
	InitialCostEUR float64
	FinalCostEUR   float64
	Steps         []StepRecord
}

// Store wraps a Postgres connection pool.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres using connString (see lib/pq's DSN format).
func Open(connString string) (*Store, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schedule_runs and schedule_steps tables if absent.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schedule_runs (
			id SERIAL PRIMARY KEY,
			solved_at TIMESTAMPTZ NOT NULL,
			seed BIGINT NOT NULL,
			iterations INTEGER NOT NULL,
			reason TEXT NOT NULL,
			initial_cost_eur DOUBLE PRECISION NOT NULL,
			final_cost_eur DOUBLE PRECISION NOT NULL
		);
		CREATE TABLE IF NOT EXISTS schedule_steps (
			run_id INTEGER NOT NULL REFERENCES schedule_runs(id) ON DELETE CASCADE,
			timestamp TIMESTAMPTZ NOT NULL,
			demand_w DOUBLE PRECISION NOT NULL,
			price_eur DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, timestamp)
		);
	`)
	if err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// SaveRun persists a solved run and its per-step demand/price trace in a
// single transaction.
func (s *Store) SaveRun(ctx context.Context, run Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var runID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO schedule_runs (solved_at, seed, iterations, reason, initial_cost_eur, final_cost_eur)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, run.SolvedAt, run.Seed, run.Iterations, run.Reason, run.InitialCostEUR, run.FinalCostEUR).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO schedule_steps (run_id, timestamp, demand_w, price_eur)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing step insert: %w", err)
	}
	defer stmt.Close()

	for _, step := range run.Steps {
		if _, err := stmt.ExecContext(ctx, runID, step.Timestamp, step.DemandW, step.PriceEUR); err != nil {
			return 0, fmt.Errorf("inserting step at %s: %w", step.Timestamp, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return runID, nil
}

// LoadRun loads a run and its steps by id, ordered by timestamp.
func (s *Store) LoadRun(ctx context.Context, runID int64) (*Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT solved_at, seed, iterations, reason, initial_cost_eur, final_cost_eur
		FROM schedule_runs WHERE id = $1
	`, runID).Scan(&run.SolvedAt, &run.Seed, &run.Iterations, &run.Reason, &run.InitialCostEUR, &run.FinalCostEUR)
	if err != nil {
		return nil, fmt.Errorf("loading run %d: %w", runID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, demand_w, price_eur FROM schedule_steps
		WHERE run_id = $1 ORDER BY timestamp ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading steps for run %d: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var step StepRecord
		if err := rows.Scan(&step.Timestamp, &step.DemandW, &step.PriceEUR); err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		run.Steps = append(run.Steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating steps: %w", err)
	}

	return &run, nil
}
