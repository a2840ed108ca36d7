package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
)

// AnalysisRepositoryInterface defines operations for analysis records
type AnalysisRepositoryInterface interface {
	Create(ctx context.Context, a *domain.Analysis) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Analysis, error)
}

// RemoteJobRepositoryInterface defines operations for the remote job ledger
type RemoteJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.RemoteJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RemoteJob, error)
	Update(ctx context.Context, job *domain.RemoteJob) error
}
