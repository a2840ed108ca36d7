// Package overlay places transparent stickers (hair, hijab, glasses) on a
// face so that they follow head tilt and size.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/assets"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/vision"
)

const alphaBlurKernel = 3

// LandmarkSource places the face mesh.
type LandmarkSource interface {
	Landmarks(ctx context.Context, img gocv.Mat) (geometry.LandmarkSet, error)
}

type Compositor struct {
	landmarks LandmarkSource
	assets    assets.Store
	logger    *slog.Logger
}

func NewCompositor(landmarks LandmarkSource, store assets.Store, logger *slog.Logger) *Compositor {
	return &Compositor{landmarks: landmarks, assets: store, logger: logger.With("component", "overlay")}
}

// Overlay blends the named sticker of cat onto a copy of img. Any failure
// returns an unchanged copy with a reason.
func (c *Compositor) Overlay(ctx context.Context, img gocv.Mat, cat Category, name string) vision.Result {
	if img.Empty() || img.Channels() != 3 {
		return vision.Unchanged(img, vision.ReasonEmptyImage)
	}

	sticker, err := c.assets.Load(cat.String(), name)
	if err != nil {
		defer sticker.Close()
		if errors.Is(err, assets.ErrAssetNotFound) || errors.Is(err, assets.ErrInvalidName) {
			return vision.Unchanged(img, vision.ReasonAssetNotFound)
		}
		c.logger.WarnContext(ctx, "asset load failed",
			slog.String("category", cat.String()),
			slog.String("asset", name),
			slog.String("error", err.Error()),
		)
		return vision.Unchanged(img, vision.ReasonInternal)
	}
	defer sticker.Close()

	if sticker.Channels() != 4 {
		return vision.Unchanged(img, vision.ReasonAssetNoAlpha)
	}

	landmarks, err := c.landmarks.Landmarks(ctx, img)
	if err != nil {
		c.logger.DebugContext(ctx, "overlay skipped", slog.String("error", err.Error()))
		return vision.Unchanged(img, vision.ReasonNoLandmarks)
	}

	p, reason := Place(landmarks, cat, img.Cols(), img.Rows(), sticker.Cols(), sticker.Rows())
	if reason != vision.ReasonNone {
		return vision.Unchanged(img, reason)
	}

	prepared := transform(sticker, p)
	defer prepared.Close()

	out := img.Clone()
	ok, err := softAlphaBlend(out, prepared, p.X, p.Y)
	if err != nil {
		_ = out.Close()
		c.logger.WarnContext(ctx, "overlay blend failed", slog.String("error", err.Error()))
		return vision.Unchanged(img, vision.ReasonInternal)
	}
	if !ok {
		_ = out.Close()
		return vision.Unchanged(img, vision.ReasonOutOfFrame)
	}
	return vision.Changed(out)
}

// transform rotates the sticker by -p.Angle on its own canvas and then
// resizes it to the placement size.
func transform(sticker gocv.Mat, p Placement) gocv.Mat {
	w, h := sticker.Cols(), sticker.Rows()
	m := rotationMatrix(float64(w)/2, float64(h)/2, -p.Angle)
	defer m.Close()

	rotated := gocv.NewMat()
	defer rotated.Close()
	gocv.WarpAffineWithParams(sticker, &rotated, m, image.Pt(w, h),
		gocv.InterpolationCubic, gocv.BorderConstant, color.RGBA{})

	resized := gocv.NewMat()
	gocv.Resize(rotated, &resized, image.Pt(p.Width, p.Height), 0, 0, gocv.InterpolationLinear)
	return resized
}

// softAlphaBlend draws the BGRA sticker onto base with its top-left corner
// at (x, y), clipped to the frame. It reports false when nothing overlaps.
func softAlphaBlend(base, sticker gocv.Mat, x, y int) (bool, error) {
	bw, bh := base.Cols(), base.Rows()
	sw, sh := sticker.Cols(), sticker.Rows()

	xs, ys := max(0, x), max(0, y)
	xe, ye := min(bw, x+sw), min(bh, y+sh)
	if xs >= xe || ys >= ye {
		return false, nil
	}
	ox, oy := xs-x, ys-y
	cw, ch := xe-xs, ye-ys

	region := sticker.Region(image.Rect(ox, oy, ox+cw, oy+ch))
	crop := region.Clone()
	_ = region.Close()
	defer crop.Close()

	stData, err := crop.DataPtrUint8()
	if err != nil {
		return false, fmt.Errorf("read sticker: %w", err)
	}

	alpha := gocv.NewMatWithSize(ch, cw, gocv.MatTypeCV64F)
	defer alpha.Close()
	aData, err := alpha.DataPtrFloat64()
	if err != nil {
		return false, fmt.Errorf("alpha buffer: %w", err)
	}
	for i := range aData {
		aData[i] = float64(stData[i*4+3]) / 255.0
	}

	soft := gocv.NewMat()
	defer soft.Close()
	gocv.GaussianBlur(alpha, &soft, image.Pt(alphaBlurKernel, alphaBlurKernel), 0, 0, gocv.BorderDefault)
	sData, err := soft.DataPtrFloat64()
	if err != nil {
		return false, fmt.Errorf("alpha buffer: %w", err)
	}

	baseData, err := base.DataPtrUint8()
	if err != nil {
		return false, fmt.Errorf("read frame: %w", err)
	}
	for row := 0; row < ch; row++ {
		for col := 0; col < cw; col++ {
			a := sData[row*cw+col]
			si := (row*cw + col) * 4
			bi := ((ys+row)*bw + xs + col) * 3
			for c := 0; c < 3; c++ {
				baseData[bi+c] = uint8(a*float64(stData[si+c]) + (1-a)*float64(baseData[bi+c]))
			}
		}
	}
	return true, nil
}
