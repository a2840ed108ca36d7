// Package mock provides deterministic geometry for development and tests.
package mock

import (
	"context"
	"math"

	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry"
)

// Face describes a synthetic upright-or-tilted face in pixel space.
type Face struct {
	CenterX float64
	CenterY float64
	RadiusX float64
	RadiusY float64
	// Tilt is the in-plane head rotation in degrees, clockwise on screen.
	Tilt float64
}

// CenteredFace returns a face occupying the middle of a w x h image.
func CenteredFace(w, h int) Face {
	return Face{
		CenterX: float64(w) / 2,
		CenterY: float64(h) * 0.45,
		RadiusX: float64(w) * 0.2,
		RadiusY: float64(h) * 0.25,
	}
}

// Mesh builds a full 468-point landmark set for f on a w x h image. Points
// that the pipeline does not name sit at the face centre.
func Mesh(f Face, w, h int) geometry.LandmarkSet {
	rad := f.Tilt * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	place := func(dx, dy float64) geometry.Point {
		x := f.CenterX + dx*cos - dy*sin
		y := f.CenterY + dx*sin + dy*cos
		return geometry.Point{X: x / float64(w), Y: y / float64(h)}
	}

	set := make(geometry.LandmarkSet, geometry.MeshSize)
	centre := place(0, 0)
	for i := range set {
		set[i] = centre
	}

	n := len(geometry.FaceOutline)
	for i, idx := range geometry.FaceOutline {
		theta := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		set[idx] = place(f.RadiusX*math.Cos(theta), f.RadiusY*math.Sin(theta))
	}

	set[geometry.IdxLeftEye] = place(-0.45*f.RadiusX, -0.15*f.RadiusY)
	set[geometry.IdxRightEye] = place(0.45*f.RadiusX, -0.15*f.RadiusY)
	set[geometry.IdxLeftCheek] = place(-f.RadiusX, 0)
	set[geometry.IdxRightCheek] = place(f.RadiusX, 0)
	set[geometry.IdxNoseBridge] = place(0, -0.2*f.RadiusY)

	return set
}

// Detector always reports the same box.
type Detector struct {
	Box geometry.FaceBox
	Err error
}

// CenteredDetector reports a box covering the central 60% of the frame.
func CenteredDetector() *Detector {
	return &Detector{}
}

func (d *Detector) Detect(ctx context.Context, img gocv.Mat) (geometry.FaceBox, error) {
	if d.Err != nil {
		return geometry.FaceBox{}, d.Err
	}
	if !d.Box.Empty() {
		return d.Box, nil
	}
	w, h := img.Cols(), img.Rows()
	if w == 0 || h == 0 {
		return geometry.FaceBox{}, geometry.ErrNoFace
	}
	return geometry.FaceBox{X: w / 5, Y: h / 5, Width: w * 3 / 5, Height: h * 3 / 5}, nil
}

// Landmarks returns a fixed mesh, or a mesh centred in the image when Face
// is zero.
type Landmarks struct {
	Face *Face
	Set  geometry.LandmarkSet
	Err  error
}

func (l *Landmarks) Landmarks(ctx context.Context, img gocv.Mat) (geometry.LandmarkSet, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	if l.Set != nil {
		return l.Set, nil
	}
	face := CenteredFace(img.Cols(), img.Rows())
	if l.Face != nil {
		face = *l.Face
	}
	return Mesh(face, img.Cols(), img.Rows()), nil
}

// Segmenter marks every pixel for which Person returns true with
// probability 1, everything else 0. A nil Person marks the whole frame.
type Segmenter struct {
	Person func(x, y int) bool
	Err    error
}

func (s *Segmenter) Segment(ctx context.Context, img gocv.Mat) (geometry.Mask, error) {
	if s.Err != nil {
		return geometry.Mask{}, s.Err
	}
	w, h := img.Cols(), img.Rows()
	mask := geometry.Mask{Width: w, Height: h, Data: make([]float32, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if s.Person == nil || s.Person(x, y) {
				mask.Data[y*w+x] = 1
			}
		}
	}
	return mask, nil
}

var (
	_ geometry.Detector      = (*Detector)(nil)
	_ geometry.LandmarkModel = (*Landmarks)(nil)
	_ geometry.Segmenter     = (*Segmenter)(nil)
)
