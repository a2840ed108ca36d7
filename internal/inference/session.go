// Package inference owns the process-wide ONNX Runtime environment and the
// sessions built on it.
package inference

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	initialized bool
	initMu      sync.Mutex
)

// ErrNotInitialized is returned when a session is created before Initialize.
var ErrNotInitialized = errors.New("onnx runtime not initialized")

// Initialize loads the shared library and sets up the ONNX Runtime
// environment. Safe to call more than once.
func Initialize(libraryPath string) error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		return nil
	}

	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnx runtime: %w", err)
	}

	initialized = true
	return nil
}

// Shutdown tears the environment down. Sessions must be destroyed first.
func Shutdown() error {
	initMu.Lock()
	defer initMu.Unlock()

	if !initialized {
		return nil
	}

	if err := ort.DestroyEnvironment(); err != nil {
		return fmt.Errorf("destroy onnx runtime: %w", err)
	}

	initialized = false
	return nil
}

// Session wraps a DynamicAdvancedSession. Run calls are serialized, so one
// Session can be shared by every request.
type Session struct {
	mu          sync.Mutex
	session     *ort.DynamicAdvancedSession
	modelPath   string
	inputNames  []string
	outputNames []string
}

// NewSession loads an ONNX model with the given input and output names.
func NewSession(modelPath string, inputNames, outputNames []string) (*Session, error) {
	initMu.Lock()
	ready := initialized
	initMu.Unlock()
	if !ready {
		return nil, ErrNotInitialized
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, options)
	if err != nil {
		return nil, fmt.Errorf("create session for %s: %w", modelPath, err)
	}

	return &Session{
		session:     session,
		modelPath:   modelPath,
		inputNames:  inputNames,
		outputNames: outputNames,
	}, nil
}

// ModelPath returns the file the session was loaded from.
func (s *Session) ModelPath() string {
	return s.modelPath
}

// Run executes inference. Outputs must be pre-allocated tensors.
func (s *Session) Run(inputs []ort.Value, outputs []ort.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Run(inputs, outputs)
}

// RunFloat32 runs a single float32 input and returns copies of each output.
func (s *Session) RunFloat32(inputShape []int64, input []float32, outputShapes ...[]int64) ([][]float32, error) {
	in, err := CreateTensor(inputShape, input)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer in.Destroy()

	outs := make([]*ort.Tensor[float32], 0, len(outputShapes))
	defer func() {
		for _, o := range outs {
			_ = o.Destroy()
		}
	}()

	values := make([]ort.Value, 0, len(outputShapes))
	for _, shape := range outputShapes {
		o, err := CreateEmptyTensor[float32](shape)
		if err != nil {
			return nil, fmt.Errorf("create output tensor: %w", err)
		}
		outs = append(outs, o)
		values = append(values, o)
	}

	if err := s.Run([]ort.Value{in}, values); err != nil {
		return nil, fmt.Errorf("run %s: %w", s.modelPath, err)
	}

	results := make([][]float32, len(outs))
	for i, o := range outs {
		data := o.GetData()
		results[i] = make([]float32, len(data))
		copy(results[i], data)
	}
	return results, nil
}

// Destroy releases session resources.
func (s *Session) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		err := s.session.Destroy()
		s.session = nil
		return err
	}
	return nil
}

// CreateTensor creates a tensor with the given shape and data.
func CreateTensor[T ort.TensorData](shape []int64, data []T) (*ort.Tensor[T], error) {
	return ort.NewTensor(ort.NewShape(shape...), data)
}

// CreateEmptyTensor allocates a zeroed tensor for output.
func CreateEmptyTensor[T ort.TensorData](shape []int64) (*ort.Tensor[T], error) {
	size := int64(1)
	for _, dim := range shape {
		size *= dim
	}
	data := make([]T, size)
	return ort.NewTensor(ort.NewShape(shape...), data)
}
