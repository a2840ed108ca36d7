package geometry

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Detector locates the single face used by the pipeline.
type Detector interface {
	Detect(ctx context.Context, img gocv.Mat) (FaceBox, error)
}

// CascadeConfig tunes the Haar cascade.
type CascadeConfig struct {
	Path         string
	ScaleFactor  float64
	MinNeighbors int
	MinSize      int
}

// DefaultCascadeConfig matches the frontal-face settings the classifier was
// calibrated with.
func DefaultCascadeConfig(path string) CascadeConfig {
	return CascadeConfig{
		Path:         path,
		ScaleFactor:  1.3,
		MinNeighbors: 5,
		MinSize:      30,
	}
}

// CascadeDetector wraps an OpenCV cascade classifier. The classifier is not
// reentrant, so detection is serialized.
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	config     CascadeConfig
}

var _ Detector = (*CascadeDetector)(nil)

// NewCascadeDetector loads the cascade XML at cfg.Path.
func NewCascadeDetector(cfg CascadeConfig) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.Path) {
		_ = classifier.Close()
		return nil, fmt.Errorf("load cascade %s: %w", cfg.Path, ErrModelUnavailable)
	}
	return &CascadeDetector{classifier: classifier, config: cfg}, nil
}

// Detect returns the largest frontal face in img.
func (d *CascadeDetector) Detect(ctx context.Context, img gocv.Mat) (FaceBox, error) {
	if err := ctx.Err(); err != nil {
		return FaceBox{}, err
	}
	if img.Empty() {
		return FaceBox{}, ErrNoFace
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	d.mu.Lock()
	rects := d.classifier.DetectMultiScaleWithParams(
		gray,
		d.config.ScaleFactor,
		d.config.MinNeighbors,
		0,
		image.Pt(d.config.MinSize, d.config.MinSize),
		image.Pt(0, 0),
	)
	d.mu.Unlock()

	best, ok := Largest(rects)
	if !ok {
		return FaceBox{}, ErrNoFace
	}
	return best, nil
}

// Close releases the classifier.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}

// Largest picks the biggest rectangle; ties keep the earliest.
func Largest(rects []image.Rectangle) (FaceBox, bool) {
	bestIdx := -1
	bestArea := 0
	for i, r := range rects {
		area := r.Dx() * r.Dy()
		if area > bestArea {
			bestIdx, bestArea = i, area
		}
	}
	if bestIdx < 0 {
		return FaceBox{}, false
	}
	r := rects[bestIdx]
	return FaceBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}, true
}
