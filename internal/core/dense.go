package core

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

type DenseModelConfig struct {
	ModelPath  string
	InputName  string
	OutputName string
}

// OnnxDenseModel runs a graph with a single float input and a single [batch, classes]
// output, e.g. a Keras classifier exported with tf2onnx.
type OnnxDenseModel struct {
	session    *OnnxSession
	outputName string
}

var _ TensorModel = (*OnnxDenseModel)(nil)

func LoadOnnxDenseModel(cfg DenseModelConfig) (*OnnxDenseModel, error) {
	in, out := cfg.InputName, cfg.OutputName
	if in == "" {
		in = "input"
	}
	if out == "" {
		out = "dense_1"
	}
	session, err := NewOnnxSession(cfg.ModelPath, []string{in}, []string{out})
	if err != nil {
		return nil, err
	}
	return &OnnxDenseModel{session: session, outputName: out}, nil
}

func (m *OnnxDenseModel) Predict(ctx context.Context, shape []int64, data []float32) ([][]float32, error) {
	input, err := ort.NewTensor(ort.NewShape(shape...), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShapeMismatch, err)
	}
	defer input.Destroy()

	outputs, err := m.session.Run(input)
	if err != nil {
		return nil, err
	}
	defer destroyAll(outputs)

	values, outShape, err := tensorData[float32](outputs[0], m.outputName)
	if err != nil {
		return nil, err
	}
	if len(outShape) != 2 {
		return nil, fmt.Errorf("%w: output %q has shape %v, expected [batch, classes]", ErrShapeMismatch, m.outputName, outShape)
	}

	rows, err := SplitRows(values, int(outShape[1]))
	if err != nil {
		return nil, err
	}
	// the output tensor is destroyed on return
	out := make([][]float32, len(rows))
	for i, row := range rows {
		out[i] = append([]float32(nil), row...)
	}
	return out, nil
}

func (m *OnnxDenseModel) Release() {
	m.session.Release()
}
