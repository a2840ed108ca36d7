package geometry

import (
	"context"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// LandmarkModel places the dense face mesh on the dominant face.
type LandmarkModel interface {
	Landmarks(ctx context.Context, img gocv.Mat) (LandmarkSet, error)
}

// TensorRunner runs a single float32 input through a model and returns
// every output. inference.Session satisfies it.
type TensorRunner interface {
	RunFloat32(inputShape []int64, input []float32, outputShapes ...[]int64) ([][]float32, error)
}

// MeshConfig describes the face mesh network.
type MeshConfig struct {
	InputSize     int
	ROIScale      float64
	MinPresence   float64
	LandmarkCount int
}

// DefaultMeshConfig matches the MediaPipe face_landmark model.
func DefaultMeshConfig() MeshConfig {
	return MeshConfig{
		InputSize:     192,
		ROIScale:      1.5,
		MinPresence:   0.5,
		LandmarkCount: MeshSize,
	}
}

// FaceMesh crops a square region around the detected face and regresses
// 468 landmarks from it.
type FaceMesh struct {
	detector Detector
	runner   TensorRunner
	config   MeshConfig
}

var _ LandmarkModel = (*FaceMesh)(nil)

// NewFaceMesh builds a mesh model over a loaded session.
func NewFaceMesh(detector Detector, runner TensorRunner, cfg MeshConfig) *FaceMesh {
	return &FaceMesh{detector: detector, runner: runner, config: cfg}
}

// Landmarks returns the normalized mesh for the face in img.
func (m *FaceMesh) Landmarks(ctx context.Context, img gocv.Mat) (LandmarkSet, error) {
	if m == nil || m.runner == nil {
		return nil, ErrModelUnavailable
	}

	box, err := m.detector.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoLandmarks, err)
	}

	size := m.config.InputSize
	cx := float64(box.X) + float64(box.Width)/2
	cy := float64(box.Y) + float64(box.Height)/2
	side := float64(max(box.Width, box.Height)) * m.config.ROIScale
	scale := float64(size) / side

	transform := roiTransform(cx, cy, scale, size)
	defer transform.Close()

	crop := gocv.NewMat()
	defer crop.Close()
	gocv.WarpAffine(img, &crop, transform, image.Pt(size, size))

	input, err := toRGBTensor(crop, 1.0/255.0)
	if err != nil {
		return nil, err
	}

	n := m.config.LandmarkCount
	outputs, err := m.runner.RunFloat32(
		[]int64{1, int64(size), int64(size), 3},
		input,
		[]int64{1, 1, 1, int64(n * 3)},
		[]int64{1, 1, 1, 1},
	)
	if err != nil {
		return nil, fmt.Errorf("face mesh: %w", err)
	}
	if len(outputs) < 2 || len(outputs[0]) < n*3 || len(outputs[1]) < 1 {
		return nil, fmt.Errorf("face mesh: unexpected output shape")
	}

	if sigmoid(float64(outputs[1][0])) < m.config.MinPresence {
		return nil, ErrNoLandmarks
	}

	return unprojectMesh(outputs[0], n, cx, cy, scale, size, img.Cols(), img.Rows()), nil
}

// roiTransform maps the square of side size/scale centred on (cx, cy) onto
// a size x size canvas.
func roiTransform(cx, cy, scale float64, size int) gocv.Mat {
	m := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	half := float64(size) / 2
	m.SetDoubleAt(0, 0, scale)
	m.SetDoubleAt(0, 1, 0)
	m.SetDoubleAt(0, 2, half-cx*scale)
	m.SetDoubleAt(1, 0, 0)
	m.SetDoubleAt(1, 1, scale)
	m.SetDoubleAt(1, 2, half-cy*scale)
	return m
}

// unprojectMesh converts raw crop-space (x, y, z) triples to normalized
// image coordinates.
func unprojectMesh(raw []float32, n int, cx, cy, scale float64, size, imgW, imgH int) LandmarkSet {
	half := float64(size) / 2
	out := make(LandmarkSet, n)
	for i := 0; i < n; i++ {
		x := (float64(raw[i*3])-half)/scale + cx
		y := (float64(raw[i*3+1])-half)/scale + cy
		out[i] = Point{X: x / float64(imgW), Y: y / float64(imgH)}
	}
	return out
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}
