package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same code, so errors.Is(err,
// ErrInvalidImage) holds for values built with WithError.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrImageTooLarge = &AppError{
		Code:       "IMAGE_TOO_LARGE",
		Message:    "Image exceeds the maximum allowed size",
		StatusCode: 413,
	}

	ErrFaceNotDetected = &AppError{
		Code:       "FACE_NOT_DETECTED",
		Message:    "Wajah tidak terdeteksi. Gunakan foto selfie yang lebih jelas.",
		StatusCode: 422,
	}

	ErrInvalidColor = &AppError{
		Code:       "INVALID_COLOR",
		Message:    "Color must be a hex value like #A0522D",
		StatusCode: 422,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	// Remote style transfer
	ErrRemoteDisabled = &AppError{
		Code:       "REMOTE_DISABLED",
		Message:    "Remote style transfer is not configured",
		StatusCode: 503,
	}

	ErrRemoteQueueFull = &AppError{
		Code:       "REMOTE_QUEUE_FULL",
		Message:    "Too many remote edits in progress, try again later",
		StatusCode: 503,
	}

	ErrRemoteUploadFailed = &AppError{
		Code:       "REMOTE_UPLOAD_FAILED",
		Message:    "Could not upload the image to the style service",
		StatusCode: 502,
	}

	ErrRemoteJobFailed = &AppError{
		Code:       "REMOTE_JOB_FAILED",
		Message:    "The style service rejected this image or prompt",
		StatusCode: 422,
	}

	ErrRemoteJobTimeout = &AppError{
		Code:       "REMOTE_JOB_TIMEOUT",
		Message:    "The style service did not finish in time, try again",
		StatusCode: 504,
	}

	ErrRemoteJobNotFound = &AppError{
		Code:       "REMOTE_JOB_NOT_FOUND",
		Message:    "Remote job not found",
		StatusCode: 404,
	}
)
