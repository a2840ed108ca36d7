package classifier

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry"
)

// InputSize is the square side the classifier was trained on.
const InputSize = 224

// Model scores one NHWC RGB crop. Values are raw 0-255 floats.
type Model interface {
	Predict(ctx context.Context, input []float32) ([]float32, error)
}

// ONNXModel runs the face-shape network through an inference session.
type ONNXModel struct {
	runner  geometry.TensorRunner
	classes int
}

var _ Model = (*ONNXModel)(nil)

// NewONNXModel wraps a loaded session. classes is the output width.
func NewONNXModel(runner geometry.TensorRunner, classes int) *ONNXModel {
	return &ONNXModel{runner: runner, classes: classes}
}

func (m *ONNXModel) Predict(ctx context.Context, input []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outputs, err := m.runner.RunFloat32(
		[]int64{1, InputSize, InputSize, 3},
		input,
		[]int64{1, int64(m.classes)},
	)
	if err != nil {
		return nil, fmt.Errorf("run classifier: %w", err)
	}
	if len(outputs) == 0 || len(outputs[0]) != m.classes {
		return nil, fmt.Errorf("classifier output: want %d scores", m.classes)
	}
	return outputs[0], nil
}
