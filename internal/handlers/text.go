package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"lambda-ml/internal/core"
)

type TextEvent struct {
	Text string `json:"text"`
}

type TextPrediction struct {
	Prediction string `json:"prediction"`
}

type TextClassify struct {
	Model core.TextClassifier
}

func (h *TextClassify) Handle(ctx context.Context, event TextEvent) (string, error) {
	slog.Info("received event", "event", event)
	if event.Text == "" {
		return "", missing("text")
	}

	scores, err := h.Model.Classify(ctx, event.Text)
	if err != nil {
		return "", fmt.Errorf("error classifying text: %w", err)
	}

	best := -1
	for i, s := range scores {
		if best < 0 || s.Score > scores[best].Score {
			best = i
		}
	}
	if best < 0 {
		return "", fmt.Errorf("%w: classifier returned no labels", core.ErrShapeMismatch)
	}

	result := TextPrediction{Prediction: scores[best].Label}
	slog.Info("returning", "result", result)
	return jsonString(result)
}

func (h *TextClassify) Release() {
	h.Model.Release()
}

type SentimentEvent struct {
	HebrewText string `json:"hebrew_text"`
}

// Sentiment returns the score of every sentiment label, nested once per input text.
type Sentiment struct {
	Model core.TextClassifier
}

func (h *Sentiment) Handle(ctx context.Context, event SentimentEvent) (string, error) {
	slog.Info("received event", "event", event)
	if event.HebrewText == "" {
		return "", missing("hebrew_text")
	}

	scores, err := h.Model.Classify(ctx, event.HebrewText)
	if err != nil {
		return "", fmt.Errorf("error running sentiment analysis: %w", err)
	}

	result := [][]core.LabelScore{scores}
	slog.Info("returning", "result", result)
	return jsonString(result)
}

func (h *Sentiment) Release() {
	h.Model.Release()
}
