package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

func checkLengths(a, b int) error {
	if a != b {
		return fmt.Errorf("length mismatch: %d targets, %d predictions", a, b)
	}
	if a == 0 {
		return fmt.Errorf("no samples")
	}
	return nil
}

func MeanSquaredError(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(len(yTrue), len(yPred)); err != nil {
		return 0, err
	}
	var total float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		total += d * d
	}
	return total / float64(len(yTrue)), nil
}

// R2Score is the coefficient of determination of the predictions. Constant targets score 1
// when predicted exactly and 0 otherwise, so the result is always finite.
func R2Score(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(len(yTrue), len(yPred)); err != nil {
		return 0, err
	}

	mean := stat.Mean(yTrue, nil)
	var ssTot, ssRes float64
	for i := range yTrue {
		ssTot += (yTrue[i] - mean) * (yTrue[i] - mean)
		ssRes += (yTrue[i] - yPred[i]) * (yTrue[i] - yPred[i])
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return stat.RSquaredFrom(yPred, yTrue, nil), nil
}

func Accuracy(yTrue, yPred []int) (float64, error) {
	if err := checkLengths(len(yTrue), len(yPred)); err != nil {
		return 0, err
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}
