package geometry

import (
	"errors"
	"image"
	"math"
)

var (
	// ErrNoFace means the detector found nothing. Terminal for the request.
	ErrNoFace = errors.New("no face detected")
	// ErrNoLandmarks means the face mesh could not place landmarks.
	ErrNoLandmarks = errors.New("no face landmarks")
	// ErrModelUnavailable means a model handle was never loaded.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrSegmentation wraps any failure of the person segmenter.
	ErrSegmentation = errors.New("segmentation failed")
)

// MediaPipe face mesh indices used by the edit pipeline.
const (
	MeshSize = 468

	IdxForehead   = 10
	IdxNoseBridge = 6
	IdxChin       = 152
	IdxLeftEye    = 33
	IdxRightEye   = 263
	IdxLeftCheek  = 234
	IdxRightCheek = 454
)

const (
	// PersonCutoff thresholds the segmentation mask.
	PersonCutoff = 0.4
	// DefaultMargin is the face box expansion on each side.
	DefaultMargin = 0.2
)

// FaceOutline traces the face from the forehead clockwise and back.
var FaceOutline = []int{
	10, 338, 297, 332, 284, 251, 389, 356, 454,
	323, 361, 288, 397, 365, 379, 378, 400, 377,
	152, 148, 176, 149, 150, 136, 172, 58, 132,
	93, 234, 127, 162, 21, 54, 103, 67, 109,
}

// Point is a landmark in normalized [0,1] image coordinates.
type Point struct {
	X float64
	Y float64
}

// Scaled converts p to pixel space without rounding.
func (p Point) Scaled(w, h int) (float64, float64) {
	return p.X * float64(w), p.Y * float64(h)
}

// Pixel converts p to integer pixel coordinates, truncating toward zero.
func (p Point) Pixel(w, h int) image.Point {
	x, y := p.Scaled(w, h)
	return image.Pt(int(x), int(y))
}

// FaceBox is an axis-aligned face rectangle in pixels.
type FaceBox struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Rect returns the box as an image.Rectangle.
func (b FaceBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Empty reports whether the box has no area.
func (b FaceBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// LandmarkSet is a fixed-order face mesh.
type LandmarkSet []Point

// At returns the landmark at idx.
func (l LandmarkSet) At(idx int) (Point, bool) {
	if idx < 0 || idx >= len(l) {
		return Point{}, false
	}
	return l[idx], true
}

// Valid reports whether the set has the full mesh cardinality.
func (l LandmarkSet) Valid() bool {
	return len(l) == MeshSize
}

// Distinct reports whether two landmarks resolve to different pixels.
func Distinct(a, b Point, w, h int) bool {
	ax, ay := a.Scaled(w, h)
	bx, by := b.Scaled(w, h)
	return math.Hypot(bx-ax, by-ay) >= 1
}

// Mask is a per-pixel probability grid in row-major order.
type Mask struct {
	Width  int
	Height int
	Data   []float32
}

// At returns the probability at (x, y).
func (m Mask) At(x, y int) float32 {
	return m.Data[y*m.Width+x]
}

// Binary thresholds the mask; values strictly above cutoff are true.
func (m Mask) Binary(cutoff float32) []bool {
	out := make([]bool, len(m.Data))
	for i, v := range m.Data {
		out[i] = v > cutoff
	}
	return out
}
