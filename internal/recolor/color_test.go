package recolor

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{in: "#A0522D", want: color.RGBA{R: 0xA0, G: 0x52, B: 0x2D, A: 255}},
		{in: "a0522d", want: color.RGBA{R: 0xA0, G: 0x52, B: 0x2D, A: 255}},
		{in: " #000000 ", want: color.RGBA{A: 255}},
		{in: "#FFF", wantErr: true},
		{in: "#GG0000", wantErr: true},
		{in: "", wantErr: true},
		{in: "#A0522D00", wantErr: true},
		{in: "#+12345", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidColor)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
