package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/service"
)

// ImageEditor interface for local edits
type ImageEditor interface {
	Edit(ctx context.Context, req service.EditRequest) (*service.EditResult, error)
}

// RemoteEditor interface for remote style-transfer jobs
type RemoteEditor interface {
	Submit(ctx context.Context, imageBase64, style string) (*domain.RemoteJob, error)
	Job(ctx context.Context, id uuid.UUID) (*domain.RemoteJob, error)
}

// EditHandler serves local edits and remote style transfer
type EditHandler struct {
	editor ImageEditor
	remote RemoteEditor
	logger *slog.Logger
}

// NewEditHandler creates a new EditHandler instance
func NewEditHandler(editor ImageEditor, remote RemoteEditor, logger *slog.Logger) *EditHandler {
	return &EditHandler{
		editor: editor,
		remote: remote,
		logger: logger,
	}
}

// EditRequest body for the edit endpoint
type EditRequest struct {
	ImageBase64 string `json:"image_base64"`
	EditType    string `json:"edit_type"`
	Value       string `json:"value"`
}

// EditResponse response for the edit endpoint
type EditResponse struct {
	Status      string `json:"status"`
	ImageResult string `json:"image_result"`
	Changed     bool   `json:"changed"`
	Reason      string `json:"reason,omitempty"`
}

// RemoteEditRequest body for the remote edit endpoint
type RemoteEditRequest struct {
	ImageBase64 string `json:"image_base64"`
	Style       string `json:"style"`
}

// RemoteJobResponse describes a remote job
type RemoteJobResponse struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	Style       string `json:"style,omitempty"`
	Attempts    int    `json:"attempts"`
	ImageResult string `json:"image_result,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Edit POST /v1/edit-style - recolor hair or apply an overlay
func (h *EditHandler) Edit(c *fiber.Ctx) error {
	var req EditRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if strings.TrimSpace(req.ImageBase64) == "" {
		return domain.ErrValidationFailed.WithError(errors.New("image_base64 is required"))
	}
	if strings.TrimSpace(req.EditType) == "" {
		return domain.ErrValidationFailed.WithError(errors.New("edit_type is required"))
	}

	result, err := h.editor.Edit(c.Context(), service.EditRequest{
		ImageBase64: req.ImageBase64,
		EditType:    req.EditType,
		Value:       req.Value,
		RequestID:   middleware.RequestID(c),
		ClientIP:    c.IP(),
		UserAgent:   c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return err
	}

	return c.JSON(EditResponse{
		Status:      "success",
		ImageResult: base64.StdEncoding.EncodeToString(result.Image),
		Changed:     result.Transformed,
		Reason:      string(result.Reason),
	})
}

// SubmitRemote POST /v1/edit-style/remote - queue a remote style transfer
func (h *EditHandler) SubmitRemote(c *fiber.Ctx) error {
	var req RemoteEditRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if strings.TrimSpace(req.ImageBase64) == "" {
		return domain.ErrValidationFailed.WithError(errors.New("image_base64 is required"))
	}

	job, err := h.remote.Submit(c.Context(), req.ImageBase64, req.Style)
	if err != nil {
		return err
	}

	h.logger.Info("remote job queued",
		slog.String("request_id", middleware.RequestID(c)),
		slog.String("job_id", job.ID.String()),
		slog.String("style", job.Style),
	)

	c.Set(fiber.HeaderLocation, "/v1/remote-jobs/"+job.ID.String())
	return c.Status(fiber.StatusAccepted).JSON(RemoteJobResponse{
		JobID:    job.ID.String(),
		Status:   string(job.Status),
		Style:    job.Style,
		Attempts: job.Attempts,
	})
}

// GetRemoteJob GET /v1/remote-jobs/:id - poll a remote job
func (h *EditHandler) GetRemoteJob(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrRemoteJobNotFound.WithError(err)
	}

	job, err := h.remote.Job(c.Context(), id)
	if err != nil {
		return err
	}

	resp := RemoteJobResponse{
		JobID:     job.ID.String(),
		Status:    string(job.Status),
		Style:     job.Style,
		Attempts:  job.Attempts,
		ErrorCode: job.ErrorCode,
		Error:     job.Error,
	}
	if !job.CreatedAt.IsZero() {
		resp.CreatedAt = job.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	if !job.UpdatedAt.IsZero() {
		resp.UpdatedAt = job.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	if job.Status == domain.RemoteJobDone && len(job.Result) > 0 {
		resp.ImageResult = base64.StdEncoding.EncodeToString(job.Result)
	}

	return c.JSON(resp)
}
