package core

import (
	"fmt"
	"math"
)

func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		maxLogit = max(maxLogit, l)
	}

	probs := make([]float32, len(logits))
	var total float64
	for i, l := range logits {
		e := math.Exp(float64(l - maxLogit))
		probs[i] = float32(e)
		total += e
	}
	for i := range probs {
		probs[i] = float32(float64(probs[i]) / total)
	}
	return probs
}

// Argmax returns the index of the first maximum, or -1 for an empty slice.
func Argmax(values []float32) int {
	best := -1
	for i, v := range values {
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}

// SplitRows reshapes a flat row major buffer into rows of the given width.
func SplitRows(flat []float32, width int) ([][]float32, error) {
	if width <= 0 || len(flat)%width != 0 {
		return nil, fmt.Errorf("%w: %d values cannot be split into rows of %d", ErrShapeMismatch, len(flat), width)
	}
	rows := make([][]float32, len(flat)/width)
	for i := range rows {
		rows[i] = flat[i*width : (i+1)*width]
	}
	return rows, nil
}

func labelScores(labels []string, scores []float32) ([]LabelScore, error) {
	if len(labels) != len(scores) {
		return nil, fmt.Errorf("%w: model produced %d scores for %d labels", ErrShapeMismatch, len(scores), len(labels))
	}
	out := make([]LabelScore, len(scores))
	for i, s := range scores {
		out[i] = LabelScore{Label: labels[i], Score: s}
	}
	return out, nil
}
