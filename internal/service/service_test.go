package service

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/audit"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/overlay"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/vision"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, img gocv.Mat) (domain.ShapePrediction, error) {
	args := m.Called(ctx, img)
	return args.Get(0).(domain.ShapePrediction), args.Error(1)
}

type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Create(ctx context.Context, a *domain.Analysis) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

type MockRecolorer struct {
	mock.Mock
}

func (m *MockRecolorer) Recolor(ctx context.Context, img gocv.Mat, hex string) vision.Result {
	args := m.Called(ctx, img, hex)
	if reason := args.Get(0).(vision.Reason); reason != vision.ReasonNone {
		return vision.Unchanged(img, reason)
	}
	out := img.Clone()
	out.SetTo(gocv.NewScalar(255, 0, 0, 0))
	return vision.Changed(out)
}

type MockOverlay struct {
	mock.Mock
}

func (m *MockOverlay) Overlay(ctx context.Context, img gocv.Mat, cat overlay.Category, name string) vision.Result {
	args := m.Called(ctx, img, cat, name)
	if reason := args.Get(0).(vision.Reason); reason != vision.ReasonNone {
		return vision.Unchanged(img, reason)
	}
	return vision.Changed(img.Clone())
}

type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(job domain.RemoteJob, image []byte) error {
	args := m.Called(job, image)
	return args.Error(0)
}

// recordingAudit keeps every event it is given.
type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, e audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingAudit) Events() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event(nil), r.events...)
}

// testJPEG returns a w x h mid-grey JPEG.
func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 0), h, w, gocv.MatTypeCV8UC3)
	defer img.Close()
	data, err := vision.EncodeJPEG(img, 95)
	require.NoError(t, err)
	return data
}

func testJPEGBase64(t *testing.T, w, h int) string {
	return base64.StdEncoding.EncodeToString(testJPEG(t, w, h))
}

func ovalPrediction() domain.ShapePrediction {
	return domain.ShapePrediction{
		Label:      domain.ShapeOval,
		Confidence: 0.8,
		Scores: map[domain.FaceShape]float64{
			domain.ShapeOval:   0.8,
			domain.ShapeRound:  0.15,
			domain.ShapeSquare: 0.05,
		},
	}
}
