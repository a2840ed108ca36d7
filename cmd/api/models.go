package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/audit"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/classifier"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/config"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry/mock"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry/rekognition"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/inference"
)

// Tensor names of the exported models.
var (
	classifierIO = modelIO{inputs: []string{"input_1"}, outputs: []string{"dense_1"}}
	faceMeshIO   = modelIO{inputs: []string{"input_1"}, outputs: []string{"conv2d_21", "conv2d_31"}}
	segmenterIO  = modelIO{inputs: []string{"input_1"}, outputs: []string{"activation_10"}}
)

type modelIO struct {
	inputs  []string
	outputs []string
}

// models owns every process-scoped model handle.
type models struct {
	detector   geometry.Detector
	extractor  *geometry.Extractor
	classifier *classifier.Classifier

	closers []func() error
}

func (m *models) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i]())
	}
	errs = append(errs, inference.Shutdown())
	return errors.Join(errs...)
}

func loadSession(path string, io modelIO, logger *slog.Logger) (*inference.Session, error) {
	sess, err := inference.NewSession(path, io.inputs, io.outputs)
	if err != nil {
		return nil, err
	}
	logger.Info("model loaded", slog.String("path", sess.ModelPath()))
	return sess, nil
}

// loadModels builds the detector, geometry extractor and classifier. A model
// that fails to load is logged once and left out: analysis then reports no
// face and edits return the image unchanged. In development the missing
// geometry is replaced with synthetic stand-ins so the edit endpoints stay
// usable.
func loadModels(ctx context.Context, cfg *config.Config, auditLogger audit.Logger, logger *slog.Logger) *models {
	m := &models{}

	detector, err := newDetector(ctx, cfg, auditLogger)
	switch {
	case err == nil:
		if c, ok := detector.(interface{ Close() error }); ok {
			m.closers = append(m.closers, c.Close)
		}
	case cfg.IsDevelopment():
		logger.Warn("face detector unavailable, using synthetic detector", slog.Any("error", err))
		detector = mock.CenteredDetector()
	default:
		logger.Error("face detector unavailable, faces will not be detected", slog.Any("error", err))
		detector = nil
	}
	m.detector = detector

	runtimeErr := inference.Initialize(cfg.ONNXRuntimeLib)
	if runtimeErr != nil {
		logger.Error("onnx runtime unavailable, models disabled", slog.Any("error", runtimeErr))
	}

	var landmarks geometry.LandmarkModel
	var segmenter geometry.Segmenter
	var model classifier.Model
	if runtimeErr == nil {
		if detector != nil {
			mesh, err := loadSession(cfg.FaceMeshModel, faceMeshIO, logger)
			if err == nil {
				m.closers = append(m.closers, mesh.Destroy)
				landmarks = geometry.NewFaceMesh(detector, mesh, geometry.DefaultMeshConfig())
			} else {
				logger.Error("face mesh model unavailable", slog.Any("error", err))
			}
		}

		seg, err := loadSession(cfg.SegmentationModel, segmenterIO, logger)
		if err == nil {
			m.closers = append(m.closers, seg.Destroy)
			segmenter = geometry.NewSelfieSegmenter(seg, geometry.DefaultSegmenterConfig())
		} else {
			logger.Error("segmentation model unavailable", slog.Any("error", err))
		}

		cls, err := loadSession(cfg.ClassifierModel, classifierIO, logger)
		if err == nil {
			m.closers = append(m.closers, cls.Destroy)
			model = classifier.NewONNXModel(cls, len(domain.FaceShapes))
		} else {
			logger.Error("classifier model unavailable, faces will not be detected", slog.Any("error", err))
		}
	}
	m.classifier = classifier.New(detector, model)

	if cfg.IsDevelopment() {
		if landmarks == nil {
			logger.Warn("using synthetic face mesh")
			landmarks = &mock.Landmarks{}
		}
		if segmenter == nil {
			logger.Warn("using synthetic person mask")
			segmenter = &mock.Segmenter{}
		}
	}
	m.extractor = geometry.NewExtractor(detector, landmarks, segmenter)

	return m
}

func newDetector(ctx context.Context, cfg *config.Config, auditLogger audit.Logger) (geometry.Detector, error) {
	switch cfg.FaceDetector {
	case "rekognition":
		rcfg := rekognition.DefaultConfig()
		rcfg.Region = cfg.AWSRegion
		client, err := rekognition.NewClient(ctx, rcfg)
		if err != nil {
			return nil, fmt.Errorf("rekognition detector: %w", err)
		}
		return rekognition.NewDetector(client, rcfg, rekognition.WithAuditLogger(auditLogger)), nil
	default:
		d, err := geometry.NewCascadeDetector(geometry.DefaultCascadeConfig(cfg.CascadePath))
		if err != nil {
			return nil, fmt.Errorf("cascade detector: %w", err)
		}
		return d, nil
	}
}
