package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandBox(t *testing.T) {
	tests := []struct {
		name          string
		box           FaceBox
		width, height int
		want          FaceBox
	}{
		{
			name:   "centered face gets full margin",
			box:    FaceBox{X: 100, Y: 100, Width: 100, Height: 50},
			width:  400,
			height: 400,
			want:   FaceBox{X: 80, Y: 90, Width: 140, Height: 70},
		},
		{
			name:   "face touching top left corner is clamped",
			box:    FaceBox{X: 0, Y: 0, Width: 100, Height: 100},
			width:  400,
			height: 400,
			want:   FaceBox{X: 0, Y: 0, Width: 120, Height: 120},
		},
		{
			name:   "face touching bottom right corner is clamped",
			box:    FaceBox{X: 300, Y: 320, Width: 100, Height: 80},
			width:  400,
			height: 400,
			want:   FaceBox{X: 280, Y: 304, Width: 120, Height: 96},
		},
		{
			name:   "face filling the frame stays inside",
			box:    FaceBox{X: 0, Y: 0, Width: 64, Height: 48},
			width:  64,
			height: 48,
			want:   FaceBox{X: 0, Y: 0, Width: 64, Height: 48},
		},
		{
			name:   "margin truncates toward zero",
			box:    FaceBox{X: 50, Y: 50, Width: 9, Height: 14},
			width:  200,
			height: 200,
			want:   FaceBox{X: 49, Y: 48, Width: 11, Height: 18},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandBox(tt.box, tt.width, tt.height, DefaultMargin)
			assert.Equal(t, tt.want, got)

			assert.GreaterOrEqual(t, got.X, 0)
			assert.GreaterOrEqual(t, got.Y, 0)
			assert.LessOrEqual(t, got.X+got.Width, tt.width)
			assert.LessOrEqual(t, got.Y+got.Height, tt.height)
		})
	}
}

func TestPoint_Pixel(t *testing.T) {
	p := Point{X: 0.5, Y: 0.999}
	assert.Equal(t, 50, p.Pixel(100, 100).X)
	assert.Equal(t, 99, p.Pixel(100, 100).Y)
}

func TestDistinct(t *testing.T) {
	a := Point{X: 0.5, Y: 0.5}
	assert.False(t, Distinct(a, a, 640, 480))
	assert.False(t, Distinct(a, Point{X: 0.5001, Y: 0.5}, 640, 480))
	assert.True(t, Distinct(a, Point{X: 0.6, Y: 0.5}, 640, 480))
}

func TestMask_Binary(t *testing.T) {
	m := Mask{Width: 2, Height: 2, Data: []float32{0.1, 0.4, 0.41, 0.9}}
	assert.Equal(t, []bool{false, false, true, true}, m.Binary(PersonCutoff))
	assert.Equal(t, float32(0.41), m.At(0, 1))
}
