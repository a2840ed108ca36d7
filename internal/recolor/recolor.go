// Package recolor repaints the hair region of a selfie.
package recolor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/vision"
)

const (
	saturationFactor = 0.7
	blurKernel       = 15
)

// GeometrySource supplies landmarks and the person mask.
type GeometrySource interface {
	Extract(ctx context.Context, img gocv.Mat, withMask bool) (geometry.Geometry, error)
}

type Recolorer struct {
	geometry GeometrySource
	logger   *slog.Logger
}

func New(geo GeometrySource, logger *slog.Logger) *Recolorer {
	return &Recolorer{geometry: geo, logger: logger.With("component", "recolor")}
}

// Recolor sets the hue of the hair region to hex and lowers its saturation,
// keeping brightness so highlights survive. It never fails: any problem
// yields an unchanged copy of img with a reason.
func (r *Recolorer) Recolor(ctx context.Context, img gocv.Mat, hex string) vision.Result {
	target, err := ParseHexColor(hex)
	if err != nil {
		return vision.Unchanged(img, vision.ReasonInvalidColor)
	}
	if img.Empty() || img.Channels() != 3 {
		return vision.Unchanged(img, vision.ReasonEmptyImage)
	}

	geo, err := r.geometry.Extract(ctx, img, true)
	if err != nil {
		reason := reasonFor(err)
		r.logger.DebugContext(ctx, "recolor skipped", slog.String("reason", string(reason)), slog.String("error", err.Error()))
		return vision.Unchanged(img, reason)
	}

	w, h := img.Cols(), img.Rows()
	hair, err := HairMask(geo.Mask, geo.Landmarks, w, h)
	if err != nil {
		r.logger.DebugContext(ctx, "hair mask failed", slog.String("error", err.Error()))
		return vision.Unchanged(img, vision.ReasonNoSegmentation)
	}
	if !anySet(hair) {
		return vision.Unchanged(img, vision.ReasonEmptyHairRegion)
	}

	out, err := apply(img, hair, target)
	if err != nil {
		r.logger.WarnContext(ctx, "recolor failed", slog.String("error", err.Error()))
		return vision.Unchanged(img, vision.ReasonInternal)
	}
	return vision.Changed(out)
}

func reasonFor(err error) vision.Reason {
	switch {
	case errors.Is(err, geometry.ErrSegmentation):
		return vision.ReasonNoSegmentation
	case errors.Is(err, geometry.ErrNoFace), errors.Is(err, geometry.ErrNoLandmarks):
		return vision.ReasonNoLandmarks
	default:
		return vision.ReasonInternal
	}
}

func anySet(mask []bool) bool {
	for _, v := range mask {
		if v {
			return true
		}
	}
	return false
}

// targetHSV converts one BGR color to OpenCV 8-bit HSV.
func targetHSV(c color.RGBA) (uint8, uint8) {
	px := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0), 1, 1, gocv.MatTypeCV8UC3)
	defer px.Close()
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(px, &hsv, gocv.ColorBGRToHSV)
	return hsv.GetVecbAt(0, 0)[0], hsv.GetVecbAt(0, 0)[1]
}

// apply returns a new Mat with the hair pixels recolored and blended.
func apply(img gocv.Mat, hair []bool, target color.RGBA) (gocv.Mat, error) {
	w, h := img.Cols(), img.Rows()
	hue, sat := targetHSV(target)
	newSat := uint8(float64(sat) * saturationFactor)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	hsvData, err := hsv.DataPtrUint8()
	if err != nil {
		return gocv.NewMat(), err
	}
	for i, isHair := range hair {
		if isHair {
			hsvData[i*3] = hue
			hsvData[i*3+1] = newSat
		}
	}

	colored := gocv.NewMat()
	defer colored.Close()
	gocv.CvtColor(hsv, &colored, gocv.ColorHSVToBGR)

	weights := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), h, w, gocv.MatTypeCV64F)
	defer weights.Close()
	wData, err := weights.DataPtrFloat64()
	if err != nil {
		return gocv.NewMat(), err
	}
	for i, isHair := range hair {
		if isHair {
			wData[i] = 1
		}
	}

	soft := gocv.NewMat()
	defer soft.Close()
	gocv.GaussianBlur(weights, &soft, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)

	out := img.Clone()
	if err := blend(out, colored, soft); err != nil {
		_ = out.Close()
		return gocv.NewMat(), err
	}
	return out, nil
}

// blend writes base*(1-m) + over*m into base, truncating to uint8.
func blend(base, over, m gocv.Mat) error {
	baseData, err := base.DataPtrUint8()
	if err != nil {
		return err
	}
	overData, err := over.DataPtrUint8()
	if err != nil {
		return err
	}
	mData, err := m.DataPtrFloat64()
	if err != nil {
		return err
	}
	for i, a := range mData {
		if a == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			j := i*3 + c
			baseData[j] = uint8(float64(baseData[j])*(1-a) + float64(overData[j])*a)
		}
	}
	return nil
}
