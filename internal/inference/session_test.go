package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSession_RequiresInitialize(t *testing.T) {
	_, err := NewSession("model.onnx", []string{"input"}, []string{"output"})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestShutdown_WithoutInitialize(t *testing.T) {
	assert.NoError(t, Shutdown())
}
