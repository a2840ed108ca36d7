package overlay

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/assets"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry/mock"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/vision"
)

type memoryStore struct {
	items map[string]gocv.Mat
}

func (m *memoryStore) Load(category, name string) (gocv.Mat, error) {
	img, ok := m.items[category+"/"+name]
	if !ok {
		return gocv.NewMat(), assets.ErrAssetNotFound
	}
	return img.Clone(), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) *memoryStore {
	t.Helper()
	red := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 255, 255), 20, 40, gocv.MatTypeCV8UC4)
	flat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 255, 0), 20, 40, gocv.MatTypeCV8UC3)
	t.Cleanup(func() {
		_ = red.Close()
		_ = flat.Close()
	})
	return &memoryStore{items: map[string]gocv.Mat{
		"glasses/red": red,
		"hair/red":    red,
		"hijab/flat":  flat,
	}}
}

func frame(t *testing.T) gocv.Mat {
	t.Helper()
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(100, 100, 100, 0), 200, 200, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { _ = img.Close() })
	return img
}

func assertRed(t *testing.T, px []uint8) {
	t.Helper()
	assert.InDelta(t, 0, int(px[0]), 1)
	assert.InDelta(t, 0, int(px[1]), 1)
	assert.InDelta(t, 255, int(px[2]), 1)
}

func TestCompositor_Overlay(t *testing.T) {
	store := newStore(t)

	t.Run("glasses land on the nose bridge", func(t *testing.T) {
		img := frame(t)
		original := img.ToBytes()
		c := NewCompositor(&mock.Landmarks{}, store, testLogger())

		res := c.Overlay(context.Background(), img, Glasses, "red")
		defer res.Close()

		require.True(t, res.Transformed)
		assert.Equal(t, original, img.ToBytes(), "input must not be modified")

		// centred face: nose bridge at (100, 80), sticker 72x36
		assertRed(t, res.Image.GetVecbAt(80, 100))
		assert.Equal(t, []uint8{100, 100, 100}, res.Image.GetVecbAt(150, 100))
		assert.Equal(t, []uint8{100, 100, 100}, res.Image.GetVecbAt(5, 5))
	})

	t.Run("partially off frame is clipped", func(t *testing.T) {
		img := frame(t)
		face := mock.Face{CenterX: 10, CenterY: 20, RadiusX: 40, RadiusY: 50}
		c := NewCompositor(&mock.Landmarks{Face: &face}, store, testLogger())

		res := c.Overlay(context.Background(), img, Glasses, "red")
		defer res.Close()

		require.True(t, res.Transformed)
		assert.Equal(t, img.Cols(), res.Image.Cols())
		assert.Equal(t, img.Rows(), res.Image.Rows())
		assertRed(t, res.Image.GetVecbAt(0, 0))
	})

	t.Run("deterministic", func(t *testing.T) {
		img := frame(t)
		face := mock.Face{CenterX: 100, CenterY: 100, RadiusX: 45, RadiusY: 60, Tilt: 15}
		c := NewCompositor(&mock.Landmarks{Face: &face}, store, testLogger())

		first := c.Overlay(context.Background(), img, Hair, "red")
		defer first.Close()
		second := c.Overlay(context.Background(), img, Hair, "red")
		defer second.Close()

		require.True(t, first.Transformed)
		assert.Equal(t, first.Image.ToBytes(), second.Image.ToBytes())
	})

	tests := []struct {
		name      string
		landmarks LandmarkSource
		cat       Category
		asset     string
		want      vision.Reason
	}{
		{"missing asset", &mock.Landmarks{}, Hair, "mullet", vision.ReasonAssetNotFound},
		{"asset without alpha", &mock.Landmarks{}, Hijab, "flat", vision.ReasonAssetNoAlpha},
		{"no landmarks", &mock.Landmarks{Err: geometry.ErrNoLandmarks}, Hair, "red", vision.ReasonNoLandmarks},
		{
			"sticker fully out of frame",
			&mock.Landmarks{Face: &mock.Face{CenterX: -1000, CenterY: 100, RadiusX: 40, RadiusY: 50}},
			Glasses, "red", vision.ReasonOutOfFrame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := frame(t)
			c := NewCompositor(tt.landmarks, store, testLogger())

			res := c.Overlay(context.Background(), img, tt.cat, tt.asset)
			defer res.Close()

			assert.False(t, res.Transformed)
			assert.Equal(t, tt.want, res.Reason)
			assert.Equal(t, img.ToBytes(), res.Image.ToBytes())
		})
	}
}

func TestSoftAlphaBlend(t *testing.T) {
	base := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 10, 10, 0), 10, 10, gocv.MatTypeCV8UC3)
	defer base.Close()
	sticker := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 200, 200, 0), 4, 4, gocv.MatTypeCV8UC4)
	defer sticker.Close()

	t.Run("transparent sticker leaves the frame alone", func(t *testing.T) {
		out := base.Clone()
		defer out.Close()

		ok, err := softAlphaBlend(out, sticker, 3, 3)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, base.ToBytes(), out.ToBytes())
	})

	t.Run("no overlap", func(t *testing.T) {
		out := base.Clone()
		defer out.Close()

		ok, err := softAlphaBlend(out, sticker, 10, 0)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = softAlphaBlend(out, sticker, -4, -4)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
