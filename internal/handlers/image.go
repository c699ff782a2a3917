package handlers

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"lambda-ml/internal/core"
	"lambda-ml/internal/core/imaging"
)

// ImageEvent carries the image location. inputImageUrl is accepted as an alias for url.
type ImageEvent struct {
	URL           string `json:"url"`
	InputImageURL string `json:"inputImageUrl,omitempty"`
}

func (e ImageEvent) location() (string, error) {
	if e.URL != "" {
		return e.URL, nil
	}
	if e.InputImageURL != "" {
		return e.InputImageURL, nil
	}
	return "", missing("url")
}

func fetchImage(ctx context.Context, fetcher imaging.Fetcher, event ImageEvent) (image.Image, error) {
	url, err := event.location()
	if err != nil {
		return nil, err
	}
	data, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, invalid("%v", err)
	}
	return img, nil
}

type ImageClass struct {
	Class       string  `json:"class"`
	Probability float32 `json:"probability"`
}

type ImageClassify struct {
	Fetcher imaging.Fetcher
	Model   core.ImageClassifier
}

func (h *ImageClassify) Handle(ctx context.Context, event ImageEvent) (string, error) {
	slog.Info("received event", "event", event)
	img, err := fetchImage(ctx, h.Fetcher, event)
	if err != nil {
		return "", err
	}

	best, err := h.Model.Classify(ctx, img)
	if err != nil {
		return "", fmt.Errorf("error classifying image: %w", err)
	}

	result := ImageClass{Class: best.Label, Probability: best.Score}
	slog.Info("returning", "result", result)
	return jsonString(result)
}

func (h *ImageClassify) Release() {
	h.Model.Release()
}

type ObjectDetect struct {
	Fetcher imaging.Fetcher
	Model   core.ObjectDetector
}

func (h *ObjectDetect) Handle(ctx context.Context, event ImageEvent) (Envelope, error) {
	slog.Info("received event", "event", event)
	img, err := fetchImage(ctx, h.Fetcher, event)
	if err != nil {
		return Envelope{}, err
	}

	detections, err := h.Model.Detect(ctx, img)
	if err != nil {
		return Envelope{}, fmt.Errorf("error detecting objects: %w", err)
	}

	slog.Info("returning", "detections", len(detections.Scores))
	return newEnvelope(detections)
}

func (h *ObjectDetect) Release() {
	h.Model.Release()
}
