package training

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"lambda-ml/internal/core/dataset"
	"lambda-ml/internal/core/gbt"
	"lambda-ml/internal/core/knn"
	"lambda-ml/internal/core/metrics"
)

type ClassifierConfig struct {
	TestFraction float64
	Seed         int64
}

var (
	IrisSplit         = ClassifierConfig{TestFraction: 0.4, Seed: 1}
	BreastCancerSplit = ClassifierConfig{TestFraction: 0.2, Seed: 42}
)

const IrisNeighbours = 3

type fitter interface {
	Fit(rows [][]float64, labels []int) error
	Predict(rows [][]float64) ([]int, error)
}

func fitAndScore(model fitter, data *dataset.Labeled, cfg ClassifierConfig) (float64, error) {
	trainIdx, testIdx, err := dataset.TrainTestSplit(len(data.X), cfg.TestFraction, cfg.Seed)
	if err != nil {
		return 0, err
	}
	if err := model.Fit(dataset.Select(data.X, trainIdx), dataset.Select(data.Y, trainIdx)); err != nil {
		return 0, err
	}
	preds, err := model.Predict(dataset.Select(data.X, testIdx))
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(dataset.Select(data.Y, testIdx), preds)
}

// TrainIris fits a 3 nearest neighbours classifier on iris.data and returns its test accuracy.
func TrainIris(ctx context.Context, source string, cfg ClassifierConfig) (*knn.Classifier, float64, error) {
	raw, err := FetchDataset(ctx, source)
	if err != nil {
		return nil, 0, err
	}
	data, err := dataset.LoadIris(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, fmt.Errorf("error parsing iris dataset: %w", err)
	}
	slog.Info("loaded dataset", "rows", len(data.X), "features", len(data.FeatureNames))

	model := knn.New(IrisNeighbours, data.ClassNames, data.FeatureNames)
	accuracy, err := fitAndScore(model, data, cfg)
	if err != nil {
		return nil, 0, fmt.Errorf("error training knn classifier: %w", err)
	}
	return model, accuracy, nil
}

// TrainBreastCancer fits a boosted tree ensemble on wdbc.data and returns its test accuracy.
func TrainBreastCancer(ctx context.Context, source string, cfg ClassifierConfig, params gbt.Params) (*gbt.Model, float64, error) {
	raw, err := FetchDataset(ctx, source)
	if err != nil {
		return nil, 0, err
	}
	data, err := dataset.LoadWDBC(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, fmt.Errorf("error parsing wdbc dataset: %w", err)
	}
	slog.Info("loaded dataset", "rows", len(data.X), "features", len(data.FeatureNames))

	model := gbt.New(params, data.ClassNames, data.FeatureNames)
	accuracy, err := fitAndScore(model, data, cfg)
	if err != nil {
		return nil, 0, fmt.Errorf("error training boosted trees: %w", err)
	}
	return model, accuracy, nil
}
