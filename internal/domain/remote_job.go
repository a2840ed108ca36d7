package domain

import (
	"time"

	"github.com/google/uuid"
)

// RemoteJobStatus is the local lifecycle state of a remote style-transfer job.
type RemoteJobStatus string

const (
	RemoteJobQueued    RemoteJobStatus = "queued"
	RemoteJobUploading RemoteJobStatus = "uploading"
	RemoteJobSubmitted RemoteJobStatus = "submitted"
	RemoteJobPolling   RemoteJobStatus = "polling"
	RemoteJobDone      RemoteJobStatus = "done"
	RemoteJobFailed    RemoteJobStatus = "failed"
	RemoteJobTimeout   RemoteJobStatus = "timeout"
)

// Terminal reports whether no further transitions happen from s.
func (s RemoteJobStatus) Terminal() bool {
	switch s {
	case RemoteJobDone, RemoteJobFailed, RemoteJobTimeout:
		return true
	}
	return false
}

// RemoteJob tracks one upload/generate/poll run against the style service.
type RemoteJob struct {
	ID        uuid.UUID
	Style     string
	Prompt    string
	Status    RemoteJobStatus
	ImageURL  string
	OrderID   string
	OutputURL string
	Attempts  int
	Error     string
	ErrorCode string // AppError code, set for failed and timeout
	Result    []byte // JPEG, set once Status is done
	CreatedAt time.Time
	UpdatedAt time.Time
}
