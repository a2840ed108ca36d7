package geometry

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Segmenter produces a soft person mask the size of the input image.
type Segmenter interface {
	Segment(ctx context.Context, img gocv.Mat) (Mask, error)
}

// SegmenterConfig describes the selfie segmentation network input.
type SegmenterConfig struct {
	InputWidth  int
	InputHeight int
}

// DefaultSegmenterConfig matches the landscape selfie segmentation model.
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{InputWidth: 256, InputHeight: 144}
}

// SelfieSegmenter runs the selfie segmentation model.
type SelfieSegmenter struct {
	runner TensorRunner
	config SegmenterConfig
}

var _ Segmenter = (*SelfieSegmenter)(nil)

func NewSelfieSegmenter(runner TensorRunner, cfg SegmenterConfig) *SelfieSegmenter {
	return &SelfieSegmenter{runner: runner, config: cfg}
}

func (s *SelfieSegmenter) Segment(ctx context.Context, img gocv.Mat) (Mask, error) {
	if s == nil || s.runner == nil {
		return Mask{}, ErrModelUnavailable
	}
	if err := ctx.Err(); err != nil {
		return Mask{}, err
	}

	w, h := s.config.InputWidth, s.config.InputHeight
	small := resizeExact(img, image.Pt(w, h))
	defer small.Close()

	input, err := toRGBTensor(small, 1.0/255.0)
	if err != nil {
		return Mask{}, err
	}

	outputs, err := s.runner.RunFloat32(
		[]int64{1, int64(h), int64(w), 3},
		input,
		[]int64{1, int64(h), int64(w), 1},
	)
	if err != nil {
		return Mask{}, fmt.Errorf("segmentation: %w", err)
	}
	if len(outputs) == 0 || len(outputs[0]) < w*h {
		return Mask{}, fmt.Errorf("segmentation: unexpected output shape")
	}

	return upsampleMask(outputs[0][:w*h], w, h, img.Cols(), img.Rows())
}

// upsampleMask resizes a w x h probability grid to outW x outH.
func upsampleMask(probs []float32, w, h, outW, outH int) (Mask, error) {
	low := gocv.NewMatWithSize(h, w, gocv.MatTypeCV32F)
	defer low.Close()

	dst, err := low.DataPtrFloat32()
	if err != nil {
		return Mask{}, fmt.Errorf("segmentation buffer: %w", err)
	}
	copy(dst, probs)

	full := resizeExact(low, image.Pt(outW, outH))
	defer full.Close()

	data, err := full.DataPtrFloat32()
	if err != nil {
		return Mask{}, fmt.Errorf("segmentation buffer: %w", err)
	}

	out := Mask{Width: outW, Height: outH, Data: make([]float32, len(data))}
	for i, v := range data {
		out.Data[i] = min(max(v, 0), 1)
	}
	return out, nil
}
