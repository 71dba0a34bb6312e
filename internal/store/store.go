// Package store keeps a history of equity estimates in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lox/pokerequity/internal/equity"
	"github.com/lox/pokerequity/poker"
)

// Store is a connection pool to the estimates database.
type Store struct {
	pool *pgxpool.Pool
}

// Estimate is one stored report.
type Estimate struct {
	ID               uuid.UUID     `json:"id"`
	Hole             string        `json:"hole_cards"`
	Board            string        `json:"board"`
	Opponents        int           `json:"num_opponents"`
	Risk             float64       `json:"risk_tolerance"`
	TrialsPerBatch   int           `json:"trials_per_batch"`
	BatchesRequested int           `json:"batches_requested"`
	BatchesCompleted int           `json:"batches_completed"`
	WinRate          float64       `json:"win_rate"`
	StdDev           float64       `json:"sd"`
	Breakeven        float64       `json:"breakeven"`
	StakeFraction    float64       `json:"stake_fraction"`
	Partial          bool          `json:"partial"`
	Retries          int           `json:"retries"`
	Seed             int64         `json:"seed"`
	Elapsed          time.Duration `json:"elapsed_ns"`
	CreatedAt        time.Time     `json:"created_at"`
}

// Open connects to databaseURL and checks the connection.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases every pooled connection.
func (s *Store) Close() {
	s.pool.Close()
}

const insertEstimate = `
INSERT INTO estimates (
    id, hole_cards, board, opponents, risk, trials_per_batch,
    batches_requested, batches_completed, win_rate, std_dev, breakeven,
    stake_fraction, partial, retries, seed, elapsed_ms, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

// RecordEstimate stores a finished report.
func (s *Store) RecordEstimate(ctx context.Context, req equity.Request, rep *equity.Report) error {
	_, err := s.pool.Exec(ctx, insertEstimate,
		rep.ID,
		cardString(req.Hole[:]),
		cardString(req.Board),
		req.Opponents,
		req.Risk,
		rep.TrialsPerBatch,
		rep.Requested,
		rep.Batches,
		rep.Mean,
		rep.StdDev,
		rep.Breakeven,
		rep.StakeFraction,
		rep.Partial,
		rep.Retries,
		rep.Seed,
		rep.Elapsed.Milliseconds(),
		rep.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert estimate %s: %w", rep.ID, err)
	}
	return nil
}

// Recent returns up to limit estimates, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Estimate, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, hole_cards, board, opponents, risk, trials_per_batch,
       batches_requested, batches_completed, win_rate, std_dev, breakeven,
       stake_fraction, partial, retries, seed, elapsed_ms, created_at
FROM estimates
ORDER BY created_at DESC, id
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimates: %w", err)
	}

	estimates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Estimate, error) {
		var (
			e         Estimate
			elapsedMS int64
		)
		err := row.Scan(&e.ID, &e.Hole, &e.Board, &e.Opponents, &e.Risk, &e.TrialsPerBatch,
			&e.BatchesRequested, &e.BatchesCompleted, &e.WinRate, &e.StdDev, &e.Breakeven,
			&e.StakeFraction, &e.Partial, &e.Retries, &e.Seed, &elapsedMS, &e.CreatedAt)
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read estimates: %w", err)
	}
	return estimates, nil
}

func cardString(cards []poker.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
