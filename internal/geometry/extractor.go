package geometry

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"
)

// Geometry holds everything the edit pipeline knows about one image.
type Geometry struct {
	Landmarks LandmarkSet
	Mask      Mask
	HasMask   bool
}

// Extractor bundles the process-scoped model handles. All handles are
// loaded once and shared read-only between requests.
type Extractor struct {
	detector  Detector
	landmarks LandmarkModel
	segmenter Segmenter
}

func NewExtractor(detector Detector, landmarks LandmarkModel, segmenter Segmenter) *Extractor {
	return &Extractor{detector: detector, landmarks: landmarks, segmenter: segmenter}
}

// Detect returns the face box, or ErrNoFace.
func (e *Extractor) Detect(ctx context.Context, img gocv.Mat) (FaceBox, error) {
	if e.detector == nil {
		return FaceBox{}, ErrModelUnavailable
	}
	return e.detector.Detect(ctx, img)
}

// Landmarks returns the face mesh, or ErrNoLandmarks.
func (e *Extractor) Landmarks(ctx context.Context, img gocv.Mat) (LandmarkSet, error) {
	if e.landmarks == nil {
		return nil, ErrModelUnavailable
	}
	set, err := e.landmarks.Landmarks(ctx, img)
	if err != nil {
		return nil, err
	}
	if !set.Valid() {
		return nil, fmt.Errorf("%w: got %d points", ErrNoLandmarks, len(set))
	}
	return set, nil
}

// Segment returns the soft person mask.
func (e *Extractor) Segment(ctx context.Context, img gocv.Mat) (Mask, error) {
	if e.segmenter == nil {
		return Mask{}, ErrModelUnavailable
	}
	return e.segmenter.Segment(ctx, img)
}

// Extract runs the landmark model and, when withMask is set, the segmenter
// concurrently. Both read img without modifying it.
func (e *Extractor) Extract(ctx context.Context, img gocv.Mat, withMask bool) (Geometry, error) {
	var geo Geometry

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		set, err := e.Landmarks(gctx, img)
		if err != nil {
			return err
		}
		geo.Landmarks = set
		return nil
	})
	if withMask {
		g.Go(func() error {
			mask, err := e.Segment(gctx, img)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrSegmentation, err)
			}
			geo.Mask = mask
			geo.HasMask = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Geometry{}, err
	}
	return geo, nil
}
