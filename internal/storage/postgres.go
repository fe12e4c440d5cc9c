package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/serpclick/internal/run"
)

// PostgresStore persists run history so rank movement can be compared
// across runs.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// SaveRun writes the run row and its outcomes in a single transaction.
func (s *PostgresStore) SaveRun(ctx context.Context, startedAt, finishedAt time.Time, targetURL string, outcomes []run.Outcome) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var runID int
	err = tx.QueryRow(ctx,
		`INSERT INTO runs (target_url, started_at, finished_at)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		targetURL, startedAt, finishedAt,
	).Scan(&runID)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, o := range outcomes {
		batch.Queue(
			`INSERT INTO run_outcomes (run_id, keyword, status, position, clicked, error, recorded_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			runID, o.Keyword, string(o.Status), o.Position, o.Clicked, o.Err, o.At)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
