package training

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"

	"lambda-ml/internal/core/dataset"
	"lambda-ml/internal/core/linear"
	"lambda-ml/internal/core/metrics"
	"lambda-ml/internal/storage"
)

// RegressionHoldout is the number of trailing samples used to score a regression fit.
const RegressionHoldout = 20

type RegressionReport struct {
	Training         string  `json:"training"`
	MeanSquaredError float64 `json:"mean_squared_error"`
	RSquared         float64 `json:"r_squared"`
}

// FitRegression fits on all but the last RegressionHoldout samples and scores the held out tail.
func FitRegression(x [][]float64, y []float64) (*linear.Model, RegressionReport, error) {
	if len(x) != len(y) {
		return nil, RegressionReport{}, fmt.Errorf("got %d samples but %d targets", len(x), len(y))
	}
	trainIdx, testIdx, err := dataset.HoldoutLast(len(x), RegressionHoldout)
	if err != nil {
		return nil, RegressionReport{}, err
	}

	model, err := linear.Fit(dataset.Select(x, trainIdx), dataset.Select(y, trainIdx))
	if err != nil {
		return nil, RegressionReport{}, err
	}

	yTest := dataset.Select(y, testIdx)
	yPred, err := model.Predict(dataset.Select(x, testIdx))
	if err != nil {
		return nil, RegressionReport{}, err
	}

	mse, err := metrics.MeanSquaredError(yTest, yPred)
	if err != nil {
		return nil, RegressionReport{}, err
	}
	r2, err := metrics.R2Score(yTest, yPred)
	if err != nil {
		return nil, RegressionReport{}, err
	}

	return model, RegressionReport{Training: "success", MeanSquaredError: mse, RSquared: r2}, nil
}

// RegressionTrainer fits a linear model and overwrites the artifact at Bucket/Key.
type RegressionTrainer struct {
	Store  storage.Provider
	Bucket string
	Key    string
}

func (t *RegressionTrainer) Train(ctx context.Context, x [][]float64, y []float64) (RegressionReport, error) {
	model, report, err := FitRegression(x, y)
	if err != nil {
		return RegressionReport{}, fmt.Errorf("error training regression model: %w", err)
	}
	slog.Info("model training successful", "mean_squared_error", report.MeanSquaredError, "r_squared", report.RSquared)

	// The report is the response body; a model is only persisted when it can be returned.
	for _, v := range []float64{report.MeanSquaredError, report.RSquared} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return RegressionReport{}, fmt.Errorf("error training regression model: non finite metrics %+v", report)
		}
	}

	data, err := model.Marshal()
	if err != nil {
		return RegressionReport{}, err
	}
	if err := t.Store.PutObject(ctx, t.Bucket, t.Key, bytes.NewReader(data)); err != nil {
		return RegressionReport{}, fmt.Errorf("error saving model to %s/%s: %w", t.Bucket, t.Key, err)
	}
	slog.Info("model saved", "bucket", t.Bucket, "key", t.Key)

	return report, nil
}
