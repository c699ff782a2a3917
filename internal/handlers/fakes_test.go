package handlers

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"

	"lambda-ml/internal/core"
)

type fakeText struct {
	scores   []core.LabelScore
	got      string
	released bool
}

func (f *fakeText) Classify(ctx context.Context, text string) ([]core.LabelScore, error) {
	f.got = text
	return f.scores, nil
}

func (f *fakeText) Release() { f.released = true }

type fakeClassifier struct {
	classes  []string
	features []string
	preds    []int
	rows     [][]float64
}

func (f *fakeClassifier) Predict(rows [][]float64) ([]int, error) {
	f.rows = rows
	if len(f.preds) != len(rows) {
		return nil, errors.New("unexpected row count")
	}
	return f.preds, nil
}

func (f *fakeClassifier) Classes() []string { return f.classes }

func (f *fakeClassifier) FeatureNames() []string { return f.features }

type fakeTensor struct {
	shape    []int64
	out      [][]float32
	released bool
}

func (f *fakeTensor) Predict(ctx context.Context, shape []int64, data []float32) ([][]float32, error) {
	f.shape = shape
	return f.out, nil
}

func (f *fakeTensor) Release() { f.released = true }

type fakeImageClassifier struct {
	best     core.LabelScore
	bounds   image.Rectangle
	released bool
}

func (f *fakeImageClassifier) Classify(ctx context.Context, img image.Image) (core.LabelScore, error) {
	f.bounds = img.Bounds()
	return f.best, nil
}

func (f *fakeImageClassifier) Release() { f.released = true }

type fakeDetector struct {
	det      core.Detections
	released bool
}

func (f *fakeDetector) Detect(ctx context.Context, img image.Image) (core.Detections, error) {
	return f.det, nil
}

func (f *fakeDetector) Release() { f.released = true }

type fakeFetcher struct {
	data []byte
	url  string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.url = url
	return f.data, nil
}

func pngBytes(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
