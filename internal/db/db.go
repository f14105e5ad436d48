// Package db provides PostgreSQL storage for export snapshots.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/wins-exporter/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// SaveSnapshot stores an export run and its rows in one transaction.
// Row positions are kept so the snapshot reads back in export order.
func (db *DB) SaveSnapshot(ctx context.Context, snapshot *types.Snapshot) error {
	if snapshot.RunID == uuid.Nil {
		snapshot.RunID = uuid.New()
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO export_runs (id, cutoff, retention_days, destination, format, row_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snapshot.RunID, snapshot.Cutoff, snapshot.RetentionDays, snapshot.Destination,
		snapshot.Format, len(snapshot.Rows), snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert export run: %w", err)
	}

	if len(snapshot.Rows) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"win_rows"},
			winRowColumns,
			pgx.CopyFromSlice(len(snapshot.Rows), func(i int) ([]any, error) {
				r := snapshot.Rows[i]
				return []any{snapshot.RunID, i, r.Title, r.Category, r.PrimaryDate, r.Quantity, r.Price, r.ExternalLink}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to copy win rows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

var winRowColumns = []string{"run_id", "position", "project", "chain", "mint_date_utc", "supply", "mint_price", "twitter"}

// GetRun retrieves an export run by ID. It returns nil when no run exists.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, cutoff, retention_days, destination, format, row_count, created_at
		 FROM export_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Cutoff, &run.RetentionDays, &run.Destination, &run.Format, &run.RowCount, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent export runs
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, cutoff, retention_days, destination, format, row_count, created_at
		 FROM export_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Cutoff, &run.RetentionDays, &run.Destination, &run.Format, &run.RowCount, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRows returns the rows of a run in export order.
func (db *DB) GetRows(ctx context.Context, runID uuid.UUID) ([]types.OutputRow, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT project, chain, mint_date_utc, supply, mint_price, twitter
		 FROM win_rows WHERE run_id = $1 ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	defer rows.Close()

	out := []types.OutputRow{}
	for rows.Next() {
		var r types.OutputRow
		if err := rows.Scan(&r.Title, &r.Category, &r.PrimaryDate, &r.Quantity, &r.Price, &r.ExternalLink); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its rows.
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM export_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}
