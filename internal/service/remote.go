package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/repository"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/styletransfer"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/vision"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/worker"
)

// maxStyleLength bounds the style name that ends up in the prompt.
const maxStyleLength = 64

// JobQueue accepts remote jobs for background execution.
type JobQueue interface {
	Enqueue(job domain.RemoteJob, image []byte) error
}

type RemoteService struct {
	repo   repository.RemoteJobRepositoryInterface
	queue  JobQueue
	logger *slog.Logger
}

// NewRemoteService wires remote jobs. A nil queue means remote style
// transfer is not configured.
func NewRemoteService(repo repository.RemoteJobRepositoryInterface, queue JobQueue, logger *slog.Logger) *RemoteService {
	return &RemoteService{repo: repo, queue: queue, logger: logger.With("component", "remote_service")}
}

// Submit validates the selfie, records a queued job and hands it to the
// worker. The image is re-encoded as JPEG so the remote side always gets
// the same format.
func (s *RemoteService) Submit(ctx context.Context, imageBase64, style string) (*domain.RemoteJob, error) {
	if s == nil || s.queue == nil {
		return nil, domain.ErrRemoteDisabled
	}

	style = strings.TrimSpace(style)
	if style == "" || len(style) > maxStyleLength {
		return nil, domain.ErrValidationFailed.WithError(errors.New("style must be 1-64 characters"))
	}

	data, err := vision.DecodeBase64(imageBase64)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	img, err := vision.Decode(data)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	jpeg, err := vision.EncodeJPEG(img, vision.EditJPEGQuality)
	_ = img.Close()
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}

	job := &domain.RemoteJob{
		Style:  style,
		Prompt: styletransfer.PromptFor(style),
		Status: domain.RemoteJobQueued,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("create remote job: %w", err))
	}

	if err := s.queue.Enqueue(*job, jpeg); err != nil {
		job.Status = domain.RemoteJobFailed
		job.Error = err.Error()
		job.ErrorCode = domain.ErrRemoteQueueFull.Code
		if uerr := s.repo.Update(ctx, job); uerr != nil {
			s.logger.WarnContext(ctx, "failed to mark rejected job", slog.String("job_id", job.ID.String()), slog.String("error", uerr.Error()))
		}
		return nil, domain.ErrRemoteQueueFull.WithError(err)
	}

	return job, nil
}

// Job returns the current ledger entry for id.
func (s *RemoteService) Job(ctx context.Context, id uuid.UUID) (*domain.RemoteJob, error) {
	if s == nil || s.repo == nil {
		return nil, domain.ErrRemoteJobNotFound
	}
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRemoteJobNotFound) {
			return nil, domain.ErrRemoteJobNotFound
		}
		return nil, domain.ErrInternal.WithError(err)
	}
	return job, nil
}

// JPEGRunner wraps a style-transfer runner so that finished jobs always
// carry a JPEG, whatever format the remote side produced.
type JPEGRunner struct {
	Runner worker.Runner
}

func (r JPEGRunner) Run(ctx context.Context, image []byte, style string, obs styletransfer.Observer) (*styletransfer.Output, error) {
	out, err := r.Runner.Run(ctx, image, style, obs)
	if err != nil {
		return nil, err
	}

	img, err := vision.Decode(out.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", styletransfer.ErrInvalidResponse, err)
	}
	defer img.Close()

	jpeg, err := vision.EncodeJPEG(img, vision.EditJPEGQuality)
	if err != nil {
		return nil, err
	}
	out.Image = jpeg
	return out, nil
}
