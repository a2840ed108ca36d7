package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/audit"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/repository"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/styletransfer"
)

// ErrQueueFull is returned by Enqueue when the buffer has no room.
var ErrQueueFull = errors.New("remote job queue full")

// ErrStopped is recorded on jobs still queued when the worker stops.
var ErrStopped = errors.New("worker stopped")

// Runner executes one remote style-transfer job.
type Runner interface {
	Run(ctx context.Context, image []byte, style string, obs styletransfer.Observer) (*styletransfer.Output, error)
}

type task struct {
	job   domain.RemoteJob
	image []byte
}

// RemoteJobWorker runs remote jobs in the background and records every
// state change in the job ledger.
type RemoteJobWorker struct {
	runner Runner
	repo   repository.RemoteJobRepositoryInterface
	audit  audit.Logger
	logger *slog.Logger

	queue chan task

	workers    int
	jobTimeout time.Duration
	writeTTL   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu orders Enqueue against Stop so no task lands after the drain.
	mu      sync.Mutex
	stopped bool
}

// RemoteJobWorkerConfig holds configuration for the worker
type RemoteJobWorkerConfig struct {
	Workers    int           // Concurrent jobs (default: 2)
	QueueSize  int           // Pending jobs before Enqueue refuses (default: 64)
	JobTimeout time.Duration // Upper bound for one job, upload to download (default: 2 minutes)
}

// DefaultRemoteJobWorkerConfig returns default configuration
func DefaultRemoteJobWorkerConfig() RemoteJobWorkerConfig {
	return RemoteJobWorkerConfig{
		Workers:    2,
		QueueSize:  64,
		JobTimeout: 2 * time.Minute,
	}
}

// NewRemoteJobWorker creates a new worker. auditLogger may be nil.
func NewRemoteJobWorker(
	runner Runner,
	repo repository.RemoteJobRepositoryInterface,
	auditLogger audit.Logger,
	logger *slog.Logger,
	config RemoteJobWorkerConfig,
) *RemoteJobWorker {
	defaults := DefaultRemoteJobWorkerConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RemoteJobWorker{
		runner:     runner,
		repo:       repo,
		audit:      auditLogger,
		logger:     logger.With("component", "remote_job_worker"),
		queue:      make(chan task, config.QueueSize),
		workers:    config.Workers,
		jobTimeout: config.JobTimeout,
		writeTTL:   5 * time.Second,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins the background workers
func (w *RemoteJobWorker) Start() {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	w.logger.Info("remote job worker started",
		"workers", w.workers,
		"queue_size", cap(w.queue),
		"job_timeout", w.jobTimeout,
	)
}

// Stop cancels running jobs, fails the queued ones and waits for the
// workers to exit.
func (w *RemoteJobWorker) Stop() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()

	for {
		select {
		case t := <-w.queue:
			w.finish(t.job, nil, ErrStopped)
		default:
			w.logger.Info("remote job worker stopped")
			return
		}
	}
}

// Enqueue schedules job. It never blocks: a full buffer returns
// ErrQueueFull and the caller decides what to tell the client.
func (w *RemoteJobWorker) Enqueue(job domain.RemoteJob, image []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- task{job: job, image: image}:
		return nil
	default:
		w.logger.Warn("remote job dropped, queue full", "job_id", job.ID)
		return ErrQueueFull
	}
}

func (w *RemoteJobWorker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

func (w *RemoteJobWorker) process(t task) {
	ctx, cancel := context.WithTimeout(w.ctx, w.jobTimeout)
	defer cancel()

	job := t.job
	start := time.Now()

	obs := styletransfer.ObserverFunc(func(tr styletransfer.Transition) {
		if tr.State.Terminal() {
			return
		}
		job.Status = statusFor(tr.State)
		job.ImageURL = tr.ImageURL
		job.OrderID = tr.OrderID
		job.Attempts = tr.Attempt
		w.persist(job)

		if tr.State == styletransfer.StateSubmitted {
			_ = w.audit.Log(ctx, audit.Event{
				EventType: audit.EventRemoteSubmitted,
				JobID:     job.ID.String(),
				Provider:  "style_transfer",
				Success:   true,
				Metadata:  map[string]string{"style": job.Style, "order_id": tr.OrderID},
			})
		}
	})

	out, err := w.runner.Run(ctx, t.image, job.Style, obs)
	w.finish(job, out, err)

	w.logger.Info("remote job finished",
		"job_id", job.ID,
		"style", job.Style,
		"success", err == nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// finish writes the terminal row. The job context may already be done, so
// the write gets its own deadline.
func (w *RemoteJobWorker) finish(job domain.RemoteJob, out *styletransfer.Output, err error) {
	if out != nil {
		job.ImageURL = out.ImageURL
		job.OrderID = out.OrderID
		job.OutputURL = out.OutputURL
		job.Attempts = out.Attempts
		job.Result = out.Image
	}
	job.Status = TerminalStatus(err)
	if err != nil {
		job.Error = err.Error()
		job.ErrorCode = AppErrorFor(err).Code
	}
	w.persist(job)

	ctx, cancel := context.WithTimeout(context.Background(), w.writeTTL)
	defer cancel()

	event := audit.Event{
		EventType: audit.EventRemoteFinished,
		JobID:     job.ID.String(),
		Provider:  "style_transfer",
		Success:   err == nil,
		Metadata:  map[string]string{"style": job.Style, "status": string(job.Status)},
	}
	if err != nil {
		event.Error = err.Error()
	}
	_ = w.audit.Log(ctx, event)
}

func (w *RemoteJobWorker) persist(job domain.RemoteJob) {
	ctx, cancel := context.WithTimeout(context.Background(), w.writeTTL)
	defer cancel()

	if err := w.repo.Update(ctx, &job); err != nil {
		w.logger.Error("failed to record remote job state",
			"job_id", job.ID,
			"status", job.Status,
			"error", err,
		)
	}
}

// TerminalStatus maps the outcome of a run to the ledger status. Running
// out of poll attempts and hitting the job deadline are both timeouts.
func TerminalStatus(err error) domain.RemoteJobStatus {
	switch {
	case err == nil:
		return domain.RemoteJobDone
	case errors.Is(err, styletransfer.ErrJobTimeout), errors.Is(err, context.DeadlineExceeded):
		return domain.RemoteJobTimeout
	default:
		return domain.RemoteJobFailed
	}
}

// AppErrorFor picks the client-facing error for a failed run.
func AppErrorFor(err error) *domain.AppError {
	switch {
	case TerminalStatus(err) == domain.RemoteJobTimeout:
		return domain.ErrRemoteJobTimeout
	case errors.Is(err, styletransfer.ErrUpload):
		return domain.ErrRemoteUploadFailed
	default:
		return domain.ErrRemoteJobFailed
	}
}

func statusFor(s styletransfer.State) domain.RemoteJobStatus {
	switch s {
	case styletransfer.StateUploading:
		return domain.RemoteJobUploading
	case styletransfer.StateSubmitted:
		return domain.RemoteJobSubmitted
	case styletransfer.StatePolling:
		return domain.RemoteJobPolling
	case styletransfer.StateDone:
		return domain.RemoteJobDone
	case styletransfer.StateTimeout:
		return domain.RemoteJobTimeout
	default:
		return domain.RemoteJobFailed
	}
}
