package geometry

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type stubDetector struct {
	box FaceBox
	err error
}

func (s stubDetector) Detect(ctx context.Context, img gocv.Mat) (FaceBox, error) {
	return s.box, s.err
}

type stubRunner struct {
	outputs [][]float32
	err     error
	shapes  [][]int64
}

func (s *stubRunner) RunFloat32(inputShape []int64, input []float32, outputShapes ...[]int64) ([][]float32, error) {
	s.shapes = append([][]int64{inputShape}, outputShapes...)
	return s.outputs, s.err
}

func centredMesh(n, size int, presence float32) [][]float32 {
	raw := make([]float32, n*3)
	for i := 0; i < n; i++ {
		raw[i*3] = float32(size) / 2
		raw[i*3+1] = float32(size) / 2
	}
	return [][]float32{raw, {presence}}
}

func TestUnprojectMesh(t *testing.T) {
	// Crop centre maps back to the face centre; a point 96px right in crop
	// space lands 96/scale px right in the image.
	raw := []float32{96, 96, 0, 192, 96, 0}
	scale := 0.5
	got := unprojectMesh(raw, 2, 100, 50, scale, 192, 400, 200)

	require.Len(t, got, 2)
	assert.InDelta(t, 100.0/400, got[0].X, 1e-9)
	assert.InDelta(t, 50.0/200, got[0].Y, 1e-9)
	assert.InDelta(t, 292.0/400, got[1].X, 1e-9)
	assert.InDelta(t, 50.0/200, got[1].Y, 1e-9)
}

func TestRoiTransform(t *testing.T) {
	m := roiTransform(100, 80, 0.5, 192)
	defer m.Close()

	assert.InDelta(t, 0.5, m.GetDoubleAt(0, 0), 1e-9)
	assert.InDelta(t, 96-50.0, m.GetDoubleAt(0, 2), 1e-9)
	assert.InDelta(t, 96-40.0, m.GetDoubleAt(1, 2), 1e-9)
}

func TestFaceMesh_Landmarks(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(120, 120, 120, 0), 200, 300, gocv.MatTypeCV8UC3)
	defer img.Close()
	gocv.Rectangle(&img, image.Rect(100, 50, 200, 150), color.RGBA{R: 200, G: 180, B: 160}, -1)

	box := FaceBox{X: 100, Y: 50, Width: 100, Height: 100}

	t.Run("centred output maps to the box centre", func(t *testing.T) {
		runner := &stubRunner{outputs: centredMesh(MeshSize, 192, 5)}
		mesh := NewFaceMesh(stubDetector{box: box}, runner, DefaultMeshConfig())

		set, err := mesh.Landmarks(context.Background(), img)

		require.NoError(t, err)
		require.True(t, set.Valid())
		assert.InDelta(t, 150.0/300, set[IdxChin].X, 1e-6)
		assert.InDelta(t, 100.0/200, set[IdxChin].Y, 1e-6)
		assert.Equal(t, []int64{1, 192, 192, 3}, runner.shapes[0])
		assert.Equal(t, []int64{1, 1, 1, MeshSize * 3}, runner.shapes[1])
	})

	t.Run("low presence", func(t *testing.T) {
		runner := &stubRunner{outputs: centredMesh(MeshSize, 192, -5)}
		mesh := NewFaceMesh(stubDetector{box: box}, runner, DefaultMeshConfig())

		_, err := mesh.Landmarks(context.Background(), img)
		assert.ErrorIs(t, err, ErrNoLandmarks)
	})

	t.Run("detector miss", func(t *testing.T) {
		mesh := NewFaceMesh(stubDetector{err: ErrNoFace}, &stubRunner{}, DefaultMeshConfig())

		_, err := mesh.Landmarks(context.Background(), img)
		assert.ErrorIs(t, err, ErrNoLandmarks)
	})

	t.Run("runner error", func(t *testing.T) {
		boom := errors.New("boom")
		mesh := NewFaceMesh(stubDetector{box: box}, &stubRunner{err: boom}, DefaultMeshConfig())

		_, err := mesh.Landmarks(context.Background(), img)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("short output", func(t *testing.T) {
		runner := &stubRunner{outputs: [][]float32{{1, 2, 3}}}
		mesh := NewFaceMesh(stubDetector{box: box}, runner, DefaultMeshConfig())

		_, err := mesh.Landmarks(context.Background(), img)
		assert.Error(t, err)
	})

	t.Run("nil runner", func(t *testing.T) {
		mesh := NewFaceMesh(stubDetector{box: box}, nil, DefaultMeshConfig())

		_, err := mesh.Landmarks(context.Background(), img)
		assert.ErrorIs(t, err, ErrModelUnavailable)
	})
}

func TestSelfieSegmenter_Segment(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 90, 160, gocv.MatTypeCV8UC3)
	defer img.Close()

	cfg := SegmenterConfig{InputWidth: 16, InputHeight: 9}
	probs := make([]float32, 16*9)
	for i := range probs {
		probs[i] = 0.8
	}
	runner := &stubRunner{outputs: [][]float32{probs}}
	seg := NewSelfieSegmenter(runner, cfg)

	mask, err := seg.Segment(context.Background(), img)

	require.NoError(t, err)
	assert.Equal(t, 160, mask.Width)
	assert.Equal(t, 90, mask.Height)
	require.Len(t, mask.Data, 160*90)
	assert.InDelta(t, 0.8, mask.At(80, 45), 1e-5)
	assert.Equal(t, []int64{1, 9, 16, 3}, runner.shapes[0])
}

func TestUpsampleMask_Clamps(t *testing.T) {
	mask, err := upsampleMask([]float32{-1, 2, 0.5, 0.5}, 2, 2, 2, 2)

	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0.5, 0.5}, mask.Data)
}

func TestLargest(t *testing.T) {
	tests := []struct {
		name  string
		rects []image.Rectangle
		want  FaceBox
		ok    bool
	}{
		{name: "empty", rects: nil, ok: false},
		{
			name:  "single",
			rects: []image.Rectangle{image.Rect(1, 2, 11, 22)},
			want:  FaceBox{X: 1, Y: 2, Width: 10, Height: 20},
			ok:    true,
		},
		{
			name:  "biggest wins",
			rects: []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(50, 50, 90, 90), image.Rect(5, 5, 20, 20)},
			want:  FaceBox{X: 50, Y: 50, Width: 40, Height: 40},
			ok:    true,
		},
		{
			name:  "tie keeps first",
			rects: []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(20, 20, 30, 30)},
			want:  FaceBox{X: 0, Y: 0, Width: 10, Height: 10},
			ok:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Largest(tt.rects)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
