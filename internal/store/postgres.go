package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"async-job-dispatcher/internal/models"
)

// Store wraps pgxpool for Postgres persistence of job records. The store is
// the only shared mutable state between invocations: every admission decision
// re-reads it, and all mutation goes through single-record statements.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a pooled connection to Postgres.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CreateJob inserts a new record in ACTIVE status. The id is assigned by the
// caller (the lifecycle manager) and must be unique.
func (s *Store) CreateJob(ctx context.Context, id string, submittedAt time.Time) (models.Job, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO jobs (id, status, submitted_at, updated_at)
		VALUES ($1, $2, $3, $3)
	`, id, models.StatusActive, submittedAt)
	if err != nil {
		return models.Job{}, fmt.Errorf("insert job: %w", err)
	}
	return models.Job{
		ID:          id,
		Status:      models.StatusActive,
		SubmittedAt: submittedAt,
		UpdatedAt:   submittedAt,
	}, nil
}

// CountActive returns how many records are currently ACTIVE. This is the
// admission controller's status-equality scan; a failed count propagates
// rather than reading as zero.
func (s *Store) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM jobs WHERE status = $1
	`, models.StatusActive).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active jobs: %w", err)
	}
	return n, nil
}

// CompleteJob conditionally transitions a record ACTIVE -> COMPLETED. It
// reports whether a row actually changed; zero rows is the idempotent no-op
// for duplicate or unknown ids, not an error.
func (s *Store) CompleteJob(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, models.StatusCompleted, models.StatusActive)
	if err != nil {
		return false, fmt.Errorf("complete job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkFailed applies the compensating ACTIVE -> FAILED transition used when
// dispatch could not be acknowledged after the record was persisted.
func (s *Store) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE jobs SET status = $2, last_error = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`, id, models.StatusFailed, reason, models.StatusActive)
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	return nil
}

// GetJob fetches a job by id. The second return reports existence.
func (s *Store) GetJob(ctx context.Context, id string) (models.Job, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, status, submitted_at, updated_at, last_error
		FROM jobs WHERE id = $1
	`, id)

	var job models.Job
	var lastErr pgtype.Text
	if err := row.Scan(&job.ID, &job.Status, &job.SubmittedAt, &job.UpdatedAt, &lastErr); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Job{}, false, nil
		}
		return models.Job{}, false, fmt.Errorf("scan job: %w", err)
	}
	job.LastError = textPtr(lastErr)
	return job, true, nil
}

func textPtr(t pgtype.Text) *string {
	if t.Valid {
		return &t.String
	}
	return nil
}
