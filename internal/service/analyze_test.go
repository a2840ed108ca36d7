package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/audit"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/cache"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/classifier"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry"
	geomock "github.com/saturnino-fabrica-de-software/stylekit/internal/geometry/mock"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/vision"
)

func TestStyleService_Analyze(t *testing.T) {
	image := testJPEG(t, 800, 600)

	tests := []struct {
		name       string
		req        AnalyzeRequest
		setupMocks func(*MockClassifier, *MockAnalysisRepository)
		wantErr    *domain.AppError
		wantRecs   []string
		wantUser   string
	}{
		{
			name: "male oval",
			req:  AnalyzeRequest{Image: image, UserID: "u1", Gender: domain.GenderMale},
			setupMocks: func(c *MockClassifier, r *MockAnalysisRepository) {
				c.On("Classify", mock.Anything, mock.Anything).Return(ovalPrediction(), nil)
				r.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			wantRecs: []string{"Undercut", "Pompadour", "Side Part"},
			wantUser: "u1",
		},
		{
			name: "female with hijab, anonymous",
			req:  AnalyzeRequest{Image: image, Gender: domain.GenderFemale, IsHijab: true},
			setupMocks: func(c *MockClassifier, r *MockAnalysisRepository) {
				c.On("Classify", mock.Anything, mock.Anything).Return(ovalPrediction(), nil)
				r.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			wantRecs: []string{"Gaya Hijab Layered", "Pashmina Flowy", "Ciput Ninja Nyaman"},
			wantUser: AnonymousUser,
		},
		{
			name: "repository failure does not fail the request",
			req:  AnalyzeRequest{Image: image, UserID: "u2"},
			setupMocks: func(c *MockClassifier, r *MockAnalysisRepository) {
				c.On("Classify", mock.Anything, mock.Anything).Return(ovalPrediction(), nil)
				r.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
			},
			wantRecs: []string{"Undercut", "Pompadour", "Side Part"},
			wantUser: "u2",
		},
		{
			name: "no face",
			req:  AnalyzeRequest{Image: image},
			setupMocks: func(c *MockClassifier, r *MockAnalysisRepository) {
				c.On("Classify", mock.Anything, mock.Anything).
					Return(domain.ShapePrediction{}, errors.Join(classifier.ErrNoPrediction, geometry.ErrNoFace))
			},
			wantErr: domain.ErrFaceNotDetected,
		},
		{
			name: "model unavailable degrades to no face",
			req:  AnalyzeRequest{Image: image},
			setupMocks: func(c *MockClassifier, r *MockAnalysisRepository) {
				c.On("Classify", mock.Anything, mock.Anything).
					Return(domain.ShapePrediction{}, errors.Join(classifier.ErrNoPrediction, geometry.ErrModelUnavailable))
			},
			wantErr: domain.ErrFaceNotDetected,
		},
		{
			name:       "undecodable image",
			req:        AnalyzeRequest{Image: []byte("not an image")},
			setupMocks: func(c *MockClassifier, r *MockAnalysisRepository) {},
			wantErr:    domain.ErrInvalidImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClassifier := new(MockClassifier)
			mockRepo := new(MockAnalysisRepository)
			tt.setupMocks(mockClassifier, mockRepo)

			svc := NewStyleService(mockClassifier, nil, time.Hour, mockRepo, nil, testLogger)
			res, err := svc.Analyze(context.Background(), tt.req)

			if tt.wantErr != nil {
				var appErr *domain.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.wantErr.Code, appErr.Code)
				assert.Nil(t, res)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.ShapeOval, res.Analysis.FaceShape)
			assert.Equal(t, tt.wantRecs, res.Analysis.Recommendations)
			assert.Equal(t, tt.wantUser, res.Analysis.UserID)
			assert.Equal(t, "80.0%", res.Analysis.Scores["Oval"])
			assert.Equal(t, cache.Hash(image), res.Analysis.ImageHash)
			assert.False(t, res.Cached)

			preview, err := base64.StdEncoding.DecodeString(res.Preview)
			require.NoError(t, err)
			thumb, err := vision.Decode(preview)
			require.NoError(t, err)
			defer thumb.Close()
			assert.Equal(t, 400, thumb.Cols())
			assert.Equal(t, 300, thumb.Rows())

			mockClassifier.AssertExpectations(t)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestStyleService_AnalyzeUsesCache(t *testing.T) {
	image := testJPEG(t, 200, 200)
	mockClassifier := new(MockClassifier)
	mockClassifier.On("Classify", mock.Anything, mock.Anything).Return(ovalPrediction(), nil).Once()

	c := cache.NewMemoryCache(16)
	svc := NewStyleService(mockClassifier, c, time.Hour, nil, nil, testLogger)

	first, err := svc.Analyze(context.Background(), AnalyzeRequest{Image: image})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Analyze(context.Background(), AnalyzeRequest{Image: image, Gender: domain.GenderFemale})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Prediction, second.Prediction)
	assert.Equal(t, []string{"Long Layered Cut", "Side Swept Bangs", "Bob Cut"}, second.Analysis.Recommendations,
		"recommendations follow the request, not the cached entry")

	mockClassifier.AssertNumberOfCalls(t, "Classify", 1)
}

func TestStyleService_CorruptCacheEntry(t *testing.T) {
	image := testJPEG(t, 200, 200)
	c := cache.NewMemoryCache(16)
	require.NoError(t, c.Set(context.Background(), cache.Key(analysisCacheNamespace, image), []byte("{"), time.Hour))

	mockClassifier := new(MockClassifier)
	mockClassifier.On("Classify", mock.Anything, mock.Anything).Return(ovalPrediction(), nil)

	svc := NewStyleService(mockClassifier, c, time.Hour, nil, nil, testLogger)
	res, err := svc.Analyze(context.Background(), AnalyzeRequest{Image: image})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	mockClassifier.AssertNumberOfCalls(t, "Classify", 1)
}

func TestStyleService_AnalyzeWithoutClassifierModel(t *testing.T) {
	rec := &recordingAudit{}
	svc := NewStyleService(classifier.New(geomock.CenteredDetector(), nil), nil, time.Hour, nil, rec, testLogger)

	res, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Image:     testJPEG(t, 200, 200),
		ClientIP:  "203.0.113.7",
		UserAgent: "stylekit-ios/2.1",
	})

	require.ErrorIs(t, err, domain.ErrFaceNotDetected)
	assert.ErrorIs(t, err, geometry.ErrModelUnavailable)
	assert.Nil(t, res)

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventFaceAnalyzed, events[0].EventType)
	assert.False(t, events[0].Success)
	assert.Equal(t, "203.0.113.7", events[0].IPAddress)
	assert.Equal(t, "stylekit-ios/2.1", events[0].UserAgent)
}
