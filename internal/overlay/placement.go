package overlay

import (
	"math"

	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/vision"
)

// Placement is where and how a sticker lands on the frame.
type Placement struct {
	// Angle is the head tilt in degrees, positive when the right eye is
	// lower on screen.
	Angle     float64
	FaceWidth float64
	Width     int
	Height    int
	X         int
	Y         int
}

// Place computes the sticker geometry for an assetW x assetH sticker on an
// imgW x imgH frame. A non-empty reason means the overlay must be skipped.
func Place(landmarks geometry.LandmarkSet, cat Category, imgW, imgH, assetW, assetH int) (Placement, vision.Reason) {
	if !landmarks.Valid() {
		return Placement{}, vision.ReasonNoLandmarks
	}
	if assetW <= 0 || assetH <= 0 {
		return Placement{}, vision.ReasonInvalidSize
	}

	leftEye, _ := landmarks.At(geometry.IdxLeftEye)
	rightEye, _ := landmarks.At(geometry.IdxRightEye)
	leftCheek, _ := landmarks.At(geometry.IdxLeftCheek)
	rightCheek, _ := landmarks.At(geometry.IdxRightCheek)
	anchor, ok := landmarks.At(cat.Anchor)
	if !ok {
		return Placement{}, vision.ReasonNoLandmarks
	}
	if !geometry.Distinct(leftEye, rightEye, imgW, imgH) || !geometry.Distinct(leftCheek, rightCheek, imgW, imgH) {
		return Placement{}, vision.ReasonDegenerate
	}

	dy := (rightEye.Y - leftEye.Y) * float64(imgH)
	dx := (rightEye.X - leftEye.X) * float64(imgW)
	angle := math.Atan2(dy, dx) * 180 / math.Pi

	lx, ly := leftCheek.Scaled(imgW, imgH)
	rx, ry := rightCheek.Scaled(imgW, imgH)
	faceWidth := math.Hypot(rx-lx, ry-ly)

	w := int(faceWidth * cat.Scale)
	h := int(float64(w) * float64(assetH) / float64(assetW))
	if w <= 0 || h <= 0 {
		return Placement{}, vision.ReasonInvalidSize
	}

	c := anchor.Pixel(imgW, imgH)
	return Placement{
		Angle:     angle,
		FaceWidth: faceWidth,
		Width:     w,
		Height:    h,
		X:         c.X - w/2,
		Y:         c.Y - int(float64(h)*cat.YOffset),
	}, vision.ReasonNone
}

// rotationCoefficients returns the 2x3 affine matrix rotating by angle
// degrees (counter-clockwise on screen) around (cx, cy).
func rotationCoefficients(cx, cy, angle float64) [6]float64 {
	rad := angle * math.Pi / 180
	a := math.Cos(rad)
	b := math.Sin(rad)
	return [6]float64{
		a, b, (1-a)*cx - b*cy,
		-b, a, b*cx + (1-a)*cy,
	}
}

// rotationMatrix is rotationCoefficients as a CV_64F Mat.
func rotationMatrix(cx, cy, angle float64) gocv.Mat {
	k := rotationCoefficients(cx, cy, angle)
	m := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	for i, v := range k {
		m.SetDoubleAt(i/3, i%3, v)
	}
	return m
}
