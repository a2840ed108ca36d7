package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
)

type RemoteJobRepository struct {
	pool PgxPool
}

var _ RemoteJobRepositoryInterface = (*RemoteJobRepository)(nil)

func NewRemoteJobRepository(pool PgxPool) *RemoteJobRepository {
	return &RemoteJobRepository{pool: pool}
}

func (r *RemoteJobRepository) Create(ctx context.Context, job *domain.RemoteJob) error {
	query := `
		INSERT INTO remote_jobs (id, style, prompt, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = domain.RemoteJobQueued
	}

	err := r.pool.QueryRow(ctx, query,
		job.ID,
		job.Style,
		job.Prompt,
		string(job.Status),
		job.Attempts,
	).Scan(&job.CreatedAt, &job.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create remote job: %w", err)
	}

	return nil
}

func (r *RemoteJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RemoteJob, error) {
	query := `
		SELECT id, style, prompt, status, image_url, order_id, output_url, attempts, error, error_code, result, created_at, updated_at
		FROM remote_jobs
		WHERE id = $1
	`

	var (
		job    domain.RemoteJob
		status string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.Style,
		&job.Prompt,
		&status,
		&job.ImageURL,
		&job.OrderID,
		&job.OutputURL,
		&job.Attempts,
		&job.Error,
		&job.ErrorCode,
		&job.Result,
		&job.CreatedAt,
		&job.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRemoteJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get remote job by id: %w", err)
	}

	job.Status = domain.RemoteJobStatus(status)
	return &job, nil
}

// Update writes every mutable column. Terminal rows are never moved back
// to a non-terminal status.
func (r *RemoteJobRepository) Update(ctx context.Context, job *domain.RemoteJob) error {
	query := `
		UPDATE remote_jobs
		SET status = $2, image_url = $3, order_id = $4, output_url = $5,
		    attempts = $6, error = $7, error_code = $8, result = $9, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('done', 'failed', 'timeout')
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		job.ID,
		string(job.Status),
		job.ImageURL,
		job.OrderID,
		job.OutputURL,
		job.Attempts,
		job.Error,
		job.ErrorCode,
		job.Result,
	).Scan(&job.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRemoteJobNotFound
	}
	if err != nil {
		return fmt.Errorf("update remote job: %w", err)
	}

	return nil
}
