package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/audit"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/cache"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/recommend"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/vision"
)

const analysisCacheNamespace = "analysis"

// AnonymousUser is recorded when the client sends no user id.
const AnonymousUser = "anonymous"

type ShapeClassifier interface {
	Classify(ctx context.Context, img gocv.Mat) (domain.ShapePrediction, error)
}

type AnalysisRepositoryInterface interface {
	Create(ctx context.Context, a *domain.Analysis) error
}

// AnalyzeRequest is one selfie submitted for face shape analysis.
type AnalyzeRequest struct {
	Image     []byte
	UserID    string
	Gender    domain.Gender
	IsHijab   bool
	RequestID string
	ClientIP  string
	UserAgent string
}

// AnalyzeResult carries the stored analysis plus the preview thumbnail.
type AnalyzeResult struct {
	Analysis   domain.Analysis
	Prediction domain.ShapePrediction
	Preview    string
	Cached     bool
}

// cachedPrediction is the cache payload. Recommendations depend on the
// request's gender and hijab flags, so only the prediction is cached.
type cachedPrediction struct {
	Label      domain.FaceShape             `json:"label"`
	Confidence float64                      `json:"confidence"`
	Scores     map[domain.FaceShape]float64 `json:"scores"`
}

type StyleService struct {
	classifier ShapeClassifier
	cache      cache.Cache
	cacheTTL   time.Duration
	repo       AnalysisRepositoryInterface
	audit      audit.Logger
	logger     *slog.Logger
}

// NewStyleService wires the analysis flow. cache and repo are optional.
func NewStyleService(
	classifier ShapeClassifier,
	c cache.Cache,
	cacheTTL time.Duration,
	repo AnalysisRepositoryInterface,
	auditLogger audit.Logger,
	logger *slog.Logger,
) *StyleService {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &StyleService{
		classifier: classifier,
		cache:      c,
		cacheTTL:   cacheTTL,
		repo:       repo,
		audit:      auditLogger,
		logger:     logger.With("component", "style_service"),
	}
}

// Analyze classifies the face shape, maps it to hairstyles and renders
// the preview thumbnail.
func (s *StyleService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	img, err := vision.Decode(req.Image)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer img.Close()

	imageHash := cache.Hash(req.Image)
	key := cache.Key(analysisCacheNamespace, req.Image)

	prediction, cached := s.cachedPrediction(ctx, key)
	if cached {
		s.logAudit(ctx, req, audit.EventAnalysisCacheHit, imageHash, true, nil, nil)
	} else {
		prediction, err = s.classifier.Classify(ctx, img)
		if err != nil {
			s.logAudit(ctx, req, audit.EventFaceAnalyzed, imageHash, false, err, nil)
			return nil, domain.ErrFaceNotDetected.WithError(err)
		}
		s.storePrediction(ctx, key, prediction)
	}

	preview, err := vision.Preview(img)
	if err != nil {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("render preview: %w", err))
	}

	userID := req.UserID
	if userID == "" {
		userID = AnonymousUser
	}
	gender := req.Gender
	if gender == "" {
		gender = domain.GenderMale
	}

	analysis := domain.Analysis{
		UserID:          userID,
		Gender:          gender,
		IsHijab:         req.IsHijab,
		FaceShape:       prediction.Label,
		Confidence:      prediction.Confidence,
		Scores:          prediction.ScorePercents(),
		Recommendations: recommend.Recommend(prediction.Label, gender, req.IsHijab),
		ImageHash:       imageHash,
		CreatedAt:       time.Now().UTC(),
	}

	if s.repo != nil {
		// A lost history row is logged, not returned.
		if err := s.repo.Create(ctx, &analysis); err != nil {
			s.logger.WarnContext(ctx, "failed to store analysis",
				slog.String("request_id", req.RequestID),
				slog.String("error", err.Error()),
			)
		}
	}

	if !cached {
		s.logAudit(ctx, req, audit.EventFaceAnalyzed, imageHash, true, nil, map[string]string{
			"face_shape": string(prediction.Label),
			"confidence": prediction.ConfidencePercent(),
		})
	}

	return &AnalyzeResult{
		Analysis:   analysis,
		Prediction: prediction,
		Preview:    preview,
		Cached:     cached,
	}, nil
}

func (s *StyleService) cachedPrediction(ctx context.Context, key string) (domain.ShapePrediction, bool) {
	if s.cache == nil {
		return domain.ShapePrediction{}, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !cache.IsMiss(err) {
			s.logger.WarnContext(ctx, "analysis cache read failed", slog.String("error", err.Error()))
		}
		return domain.ShapePrediction{}, false
	}

	var cp cachedPrediction
	if err := json.Unmarshal(raw, &cp); err != nil || cp.Label == "" {
		s.logger.WarnContext(ctx, "discarding corrupt analysis cache entry", slog.String("key", key))
		_ = s.cache.Delete(ctx, key)
		return domain.ShapePrediction{}, false
	}
	return domain.ShapePrediction{Label: cp.Label, Confidence: cp.Confidence, Scores: cp.Scores}, true
}

func (s *StyleService) storePrediction(ctx context.Context, key string, p domain.ShapePrediction) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(cachedPrediction{Label: p.Label, Confidence: p.Confidence, Scores: p.Scores})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "analysis cache write failed", slog.String("error", err.Error()))
	}
}

func (s *StyleService) logAudit(ctx context.Context, req AnalyzeRequest, eventType audit.EventType, imageHash string, success bool, err error, meta map[string]string) {
	event := audit.Event{
		RequestID: req.RequestID,
		EventType: eventType,
		ImageHash: imageHash,
		Provider:  "classifier",
		Success:   success,
		Metadata:  meta,
		IPAddress: req.ClientIP,
		UserAgent: req.UserAgent,
	}
	if err != nil {
		event.Error = err.Error()
	}
	_ = s.audit.Log(ctx, event)
}
