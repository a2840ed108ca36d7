package geometry

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// toRGBTensor converts a BGR Mat into NHWC float32 RGB values scaled by
// scale. The Mat must already be at the model's input size.
func toRGBTensor(img gocv.Mat, scale float64) ([]float32, error) {
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(img, &rgb, gocv.ColorBGRToRGB)

	f := gocv.NewMat()
	defer f.Close()
	rgb.ConvertToWithParams(&f, gocv.MatTypeCV32FC3, float32(scale), 0)

	data, err := f.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read tensor data: %w", err)
	}
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// resizeExact resizes img to size with bilinear interpolation.
func resizeExact(img gocv.Mat, size image.Point) gocv.Mat {
	out := gocv.NewMat()
	gocv.Resize(img, &out, size, 0, 0, gocv.InterpolationLinear)
	return out
}
