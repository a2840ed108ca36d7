package handler

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
)

// DefaultMaxImageSize is used when a handler is built with a zero limit.
const DefaultMaxImageSize = 10 * 1024 * 1024 // 10MB

var validImageTypes = map[string]bool{
	"image/jpeg":               true,
	"image/jpg":                true,
	"image/png":                true,
	"image/webp":               true,
	"application/octet-stream": true,
	"":                         true,
}

// extractImage reads the multipart "image" file. Mobile clients often send
// no usable Content-Type, so the decoder has the final say on format.
func extractImage(c *fiber.Ctx, maxSize int64) ([]byte, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(errors.New("image file is required"))
	}

	if file.Size > maxSize {
		return nil, domain.ErrImageTooLarge
	}
	if file.Size == 0 {
		return nil, domain.ErrInvalidImage.WithError(errors.New("empty file"))
	}

	contentType := strings.ToLower(file.Header.Get(fiber.HeaderContentType))
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(errors.New("unsupported content type " + contentType))
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}

// parseBool accepts the form values the mobile client sends for checkboxes.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
