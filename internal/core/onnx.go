package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	initOnce sync.Once
	initErr  error
)

// InitOnnxRuntime loads the onnxruntime shared library. It is safe to call from every model
// constructor; only the first call has an effect.
func InitOnnxRuntime(dylib string) error {
	initOnce.Do(func() {
		if dylib != "" {
			ort.SetSharedLibraryPath(dylib)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			initErr = fmt.Errorf("error initializing onnxruntime from %q: %w", dylib, err)
			return
		}
		slog.Info("onnxruntime initialized", "dylib", dylib)
	})
	return initErr
}

// OnnxSession runs an ONNX graph with named inputs and outputs. Output tensors are allocated
// by onnxruntime so that models with data dependent output shapes are supported.
type OnnxSession struct {
	session *ort.DynamicAdvancedSession
	inputs  []string
	outputs []string
}

func NewOnnxSession(modelPath string, inputs, outputs []string) (*OnnxSession, error) {
	if !ort.IsInitialized() {
		return nil, errors.New("onnxruntime is not initialized")
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputs, outputs, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create onnx session for %s: %w", modelPath, err)
	}

	return &OnnxSession{session: session, inputs: inputs, outputs: outputs}, nil
}

// Run executes the graph. The caller owns the returned values and must destroy them.
func (s *OnnxSession) Run(inputs ...ort.Value) ([]ort.Value, error) {
	if len(inputs) != len(s.inputs) {
		return nil, fmt.Errorf("%w: expected %d inputs, got %d", ErrShapeMismatch, len(s.inputs), len(inputs))
	}

	outputs := make([]ort.Value, len(s.outputs))
	if err := s.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("session run error: %w", err)
	}
	return outputs, nil
}

func (s *OnnxSession) Release() {
	if err := s.session.Destroy(); err != nil {
		slog.Error("error destroying onnx session", "error", err)
	}
}

func destroyAll(values []ort.Value) {
	for _, v := range values {
		if v != nil {
			v.Destroy()
		}
	}
}

func tensorData[T ort.TensorData](v ort.Value, name string) ([]T, ort.Shape, error) {
	t, ok := v.(*ort.Tensor[T])
	if !ok {
		return nil, nil, fmt.Errorf("%w: output %q has unexpected element type", ErrShapeMismatch, name)
	}
	return t.GetData(), t.GetShape(), nil
}

func int64Tensor(values []uint32) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}
