package assets

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func encodePNG(t *testing.T, img gocv.Mat) []byte {
	t.Helper()
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	require.NoError(t, err)
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...)
}

func TestFSStore_Load(t *testing.T) {
	bgra := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 128), 8, 12, gocv.MatTypeCV8UC4)
	defer bgra.Close()
	bgr := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 8, 12, gocv.MatTypeCV8UC3)
	defer bgr.Close()

	store := NewFSStore(fstest.MapFS{
		"hair/pompadour.png": {Data: encodePNG(t, bgra)},
		"glasses/flat.png":   {Data: encodePNG(t, bgr)},
		"hijab/broken.png":   {Data: []byte("not a png")},
		"hair/Side Part.png":  {Data: encodePNG(t, bgra)},
	})

	t.Run("keeps alpha", func(t *testing.T) {
		img, err := store.Load("hair", "pompadour")
		require.NoError(t, err)
		defer img.Close()

		assert.Equal(t, 4, img.Channels())
		assert.Equal(t, 12, img.Cols())
		assert.Equal(t, 8, img.Rows())
	})

	t.Run("without alpha", func(t *testing.T) {
		img, err := store.Load("glasses", "flat")
		require.NoError(t, err)
		defer img.Close()

		assert.Equal(t, 3, img.Channels())
	})

	t.Run("name with space", func(t *testing.T) {
		img, err := store.Load("hair", "Side Part")
		require.NoError(t, err)
		defer img.Close()

		assert.Equal(t, 4, img.Channels())
	})

	t.Run("missing", func(t *testing.T) {
		img, err := store.Load("hair", "mullet")
		defer img.Close()
		assert.ErrorIs(t, err, ErrAssetNotFound)
	})

	t.Run("corrupt", func(t *testing.T) {
		img, err := store.Load("hijab", "broken")
		defer img.Close()
		assert.Error(t, err)
	})
}

func TestPath(t *testing.T) {
	tests := []struct {
		category string
		name     string
		want     string
		wantErr  bool
	}{
		{"hair", "pompadour", "hair/pompadour.png", false},
		{"glasses", "round_02", "glasses/round_02.png", false},
		{"hijab", "pashmina-flowy", "hijab/pashmina-flowy.png", false},
		{"hair", "../secret", "", true},
		{"hair", "a/b", "", true},
		{"hair", "", "", true},
		{"..", "x", "", true},
		{"hair", ".hidden", "", true},
		{"hair", "Side Part", "hair/Side Part.png", false},
		{"hair", "Bob 2.0", "hair/Bob 2.0.png", false},
		{"hair", "a..b", "", true},
		{"hair", `a\b`, "", true},
		{"hair", "..", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.category+"/"+tt.name, func(t *testing.T) {
			got, err := Path(tt.category, tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
