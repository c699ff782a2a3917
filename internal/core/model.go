package core

import (
	"context"
	"errors"
	"fmt"
	"image"

	"lambda-ml/internal/core/gbt"
	"lambda-ml/internal/core/knn"
	"lambda-ml/internal/core/xgboost"
)

// ModelType identifies the artifact format a function serves.
type ModelType string

const (
	OnnxText     ModelType = "onnx_text"
	OnnxImage    ModelType = "onnx_image"
	OnnxDetector ModelType = "onnx_detector"
	OnnxDense    ModelType = "onnx_dense"
	XGBoost      ModelType = "xgboost"
	KNN          ModelType = "knn"
	GBT          ModelType = "gbt"
	Linear       ModelType = "linear"
)

var (
	ErrUnknownModelType = errors.New("unknown model type")
	ErrShapeMismatch    = errors.New("input shape does not match model")
)

type LabelScore struct {
	Label string  `json:"label"`
	Score float32 `json:"score"`
}

type TextClassifier interface {
	// Classify returns a score for every label the model knows, in label order.
	Classify(ctx context.Context, text string) ([]LabelScore, error)

	Release()
}

type ImageClassifier interface {
	Classify(ctx context.Context, img image.Image) (LabelScore, error)

	Release()
}

type ObjectDetector interface {
	Detect(ctx context.Context, img image.Image) (Detections, error)

	Release()
}

type TensorModel interface {
	// Predict runs one batch; every row of the result holds the model outputs for the
	// corresponding input row.
	Predict(ctx context.Context, shape []int64, data []float32) ([][]float32, error)

	Release()
}

// Classifier is implemented by the tabular models: it maps feature rows to class indices.
type Classifier interface {
	Predict(rows [][]float64) ([]int, error)

	Classes() []string

	FeatureNames() []string
}

type ClassifierLoader func(path string) (Classifier, error)

func NewClassifierLoaders() map[ModelType]ClassifierLoader {
	return map[ModelType]ClassifierLoader{
		KNN: func(path string) (Classifier, error) {
			return knn.LoadFile(path)
		},
		GBT: func(path string) (Classifier, error) {
			return gbt.LoadFile(path)
		},
		XGBoost: func(path string) (Classifier, error) {
			return xgboost.LoadFile(path)
		},
	}
}

func LoadClassifier(modelType ModelType, path string) (Classifier, error) {
	loader, ok := NewClassifierLoaders()[modelType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModelType, modelType)
	}
	model, err := loader(path)
	if err != nil {
		return nil, fmt.Errorf("error loading %s model from %s: %w", modelType, path, err)
	}
	return model, nil
}
