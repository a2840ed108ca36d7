package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
)

// MemoryRemoteJobRepository keeps the job ledger in process when no
// database is configured. Finished jobs older than retention are dropped
// on the next Create.
type MemoryRemoteJobRepository struct {
	mu        sync.RWMutex
	jobs      map[uuid.UUID]domain.RemoteJob
	retention time.Duration
	now       func() time.Time
}

var _ RemoteJobRepositoryInterface = (*MemoryRemoteJobRepository)(nil)

func NewMemoryRemoteJobRepository(retention time.Duration) *MemoryRemoteJobRepository {
	if retention <= 0 {
		retention = time.Hour
	}
	return &MemoryRemoteJobRepository{
		jobs:      make(map[uuid.UUID]domain.RemoteJob),
		retention: retention,
		now:       time.Now,
	}
}

func (r *MemoryRemoteJobRepository) Create(_ context.Context, job *domain.RemoteJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, j := range r.jobs {
		if j.Status.Terminal() && now.Sub(j.UpdatedAt) > r.retention {
			delete(r.jobs, id)
		}
	}

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = domain.RemoteJobQueued
	}
	job.CreatedAt = now
	job.UpdatedAt = now
	r.jobs[job.ID] = *job
	return nil
}

func (r *MemoryRemoteJobRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.RemoteJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrRemoteJobNotFound
	}
	job.Result = append([]byte(nil), job.Result...)
	return &job, nil
}

func (r *MemoryRemoteJobRepository) Update(_ context.Context, job *domain.RemoteJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.jobs[job.ID]
	if !ok || current.Status.Terminal() {
		return domain.ErrRemoteJobNotFound
	}

	job.CreatedAt = current.CreatedAt
	job.UpdatedAt = r.now()
	stored := *job
	stored.Result = append([]byte(nil), job.Result...)
	r.jobs[job.ID] = stored
	return nil
}
