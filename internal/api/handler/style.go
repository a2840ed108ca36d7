package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/service"
)

var errClassifierUnavailable = errors.New("classifier unavailable")

// StyleAnalyzer interface for the analysis service
type StyleAnalyzer interface {
	Analyze(ctx context.Context, req service.AnalyzeRequest) (*service.AnalyzeResult, error)
}

// StyleHandler serves face-shape analysis
type StyleHandler struct {
	service      StyleAnalyzer
	maxImageSize int64
	logger       *slog.Logger
}

// NewStyleHandler creates a new StyleHandler instance
func NewStyleHandler(service StyleAnalyzer, maxImageSize int64, logger *slog.Logger) *StyleHandler {
	if maxImageSize <= 0 {
		maxImageSize = DefaultMaxImageSize
	}
	return &StyleHandler{
		service:      service,
		maxImageSize: maxImageSize,
		logger:       logger,
	}
}

// AnalyzeData is the payload of a successful analysis
type AnalyzeData struct {
	UserID          string            `json:"user_id"`
	Gender          string            `json:"gender"`
	IsHijab         bool              `json:"is_hijab"`
	FaceShape       string            `json:"face_shape"`
	Confidence      string            `json:"confidence"`
	AllScores       map[string]string `json:"all_scores"`
	Recommendations []string          `json:"recommendations"`
	PhotoBase64     string            `json:"photo_base64"`
}

// AnalyzeResponse response for analyze endpoint
type AnalyzeResponse struct {
	Status string      `json:"status"`
	Data   AnalyzeData `json:"data"`
}

// Analyze POST /v1/style/analyze - classify face shape and recommend hairstyles
func (h *StyleHandler) Analyze(c *fiber.Ctx) error {
	imageBytes, err := extractImage(c, h.maxImageSize)
	if err != nil {
		return err
	}

	if h.service == nil {
		return domain.ErrFaceNotDetected.WithError(errClassifierUnavailable)
	}

	result, err := h.service.Analyze(c.Context(), service.AnalyzeRequest{
		Image:     imageBytes,
		UserID:    strings.TrimSpace(c.FormValue("user_id")),
		Gender:    domain.ParseGender(c.FormValue("gender")),
		IsHijab:   parseBool(c.FormValue("is_hijab")),
		RequestID: middleware.RequestID(c),
		ClientIP:  c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return err
	}

	a := result.Analysis
	return c.JSON(AnalyzeResponse{
		Status: "success",
		Data: AnalyzeData{
			UserID:          a.UserID,
			Gender:          string(a.Gender),
			IsHijab:         a.IsHijab,
			FaceShape:       string(a.FaceShape),
			Confidence:      result.Prediction.ConfidencePercent(),
			AllScores:       a.Scores,
			Recommendations: a.Recommendations,
			PhotoBase64:     result.Preview,
		},
	})
}
