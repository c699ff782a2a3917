package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"lambda-ml/internal/core"
)

func className(model core.Classifier, idx int) string {
	classes := model.Classes()
	if idx >= 0 && idx < len(classes) {
		return classes[idx]
	}
	return strconv.Itoa(idx)
}

type IrisEvent struct {
	Data [][]float64 `json:"data"`
}

type IrisPredictions struct {
	Predictions []string `json:"predictions"`
}

type Iris struct {
	Model core.Classifier
}

func (h *Iris) Handle(ctx context.Context, event IrisEvent) (string, error) {
	slog.Info("received event", "event", event)
	if len(event.Data) == 0 {
		return "", missing("data")
	}
	if n := len(h.Model.FeatureNames()); n > 0 {
		for i, row := range event.Data {
			if len(row) != n {
				return "", invalid("row %d has %d values, expected %d", i, len(row), n)
			}
		}
	}

	preds, err := h.Model.Predict(event.Data)
	if err != nil {
		return "", fmt.Errorf("error predicting: %w", err)
	}

	result := IrisPredictions{Predictions: make([]string, len(preds))}
	for i, p := range preds {
		result.Predictions[i] = className(h.Model, p)
	}
	slog.Info("returning", "result", result)
	return jsonString(result)
}

// FeatureEvent is a single flat record keyed by feature name.
type FeatureEvent map[string]float64

type LabelResult struct {
	Result string `json:"result"`
}

type BreastCancer struct {
	Model core.Classifier
}

func (h *BreastCancer) row(event FeatureEvent) ([]float64, error) {
	names := h.Model.FeatureNames()
	if len(names) == 0 {
		return nil, fmt.Errorf("model has no feature names")
	}
	row := make([]float64, len(names))
	for i, name := range names {
		v, ok := event[name]
		if !ok {
			return nil, missing(name)
		}
		row[i] = v
	}
	return row, nil
}

func (h *BreastCancer) Handle(ctx context.Context, event FeatureEvent) (string, error) {
	slog.Info("received event", "event", event)
	row, err := h.row(event)
	if err != nil {
		return "", err
	}

	preds, err := h.Model.Predict([][]float64{row})
	if err != nil {
		return "", fmt.Errorf("error predicting: %w", err)
	}

	result := LabelResult{Result: className(h.Model, preds[0])}
	slog.Info("returning", "result", result)
	return jsonString(result)
}
