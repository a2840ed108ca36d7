package recolor

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry"
)

// ChinRow is the first image row treated as clothing.
func ChinRow(landmarks geometry.LandmarkSet, h int) int {
	chin, _ := landmarks.At(geometry.IdxChin)
	return min(max(int(chin.Y*float64(h)), 0), h)
}

// HairMask marks pixels that belong to the person but not to the face
// outline polygon, and only above the chin row.
func HairMask(person geometry.Mask, landmarks geometry.LandmarkSet, w, h int) ([]bool, error) {
	if person.Width != w || person.Height != h || len(person.Data) != w*h {
		return nil, fmt.Errorf("mask is %dx%d, image is %dx%d", person.Width, person.Height, w, h)
	}
	if !landmarks.Valid() {
		return nil, geometry.ErrNoLandmarks
	}

	shield, err := faceShield(landmarks, w, h)
	if err != nil {
		return nil, err
	}

	chinRow := ChinRow(landmarks, h)
	body := person.Binary(geometry.PersonCutoff)
	hair := make([]bool, w*h)
	for y := 0; y < chinRow; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			hair[i] = body[i] && shield[i] == 0
		}
	}
	return hair, nil
}

// faceShield rasterizes the face outline polygon into a w x h byte grid.
func faceShield(landmarks geometry.LandmarkSet, w, h int) ([]uint8, error) {
	poly := make([]image.Point, len(geometry.FaceOutline))
	for i, idx := range geometry.FaceOutline {
		poly[i] = landmarks[idx].Pixel(w, h)
	}

	canvas := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), h, w, gocv.MatTypeCV8U)
	defer canvas.Close()

	pts := gocv.NewPointsVectorFromPoints([][]image.Point{poly})
	defer pts.Close()

	if err := gocv.FillPoly(&canvas, pts, color.RGBA{R: 255, G: 255, B: 255}); err != nil {
		return nil, fmt.Errorf("fill face outline: %w", err)
	}

	data, err := canvas.DataPtrUint8()
	if err != nil {
		return nil, fmt.Errorf("read face shield: %w", err)
	}
	out := make([]uint8, len(data))
	copy(out, data)
	return out, nil
}
