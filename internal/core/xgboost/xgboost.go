// Package xgboost serves binary:logistic boosters saved by XGBoost in its binary format.
package xgboost

import (
	"fmt"
	"math"

	"github.com/dmitryikh/leaves"
)

var defaultClasses = []string{"0", "1"}

type Booster struct {
	ensemble *leaves.Ensemble
	classes  []string
	features []string
}

func LoadFile(path string) (*Booster, error) {
	ensemble, err := leaves.XGEnsembleFromFile(path, true)
	if err != nil {
		return nil, fmt.Errorf("error loading xgboost booster: %w", err)
	}
	return &Booster{ensemble: ensemble, classes: defaultClasses}, nil
}

// WithFeatureNames attaches the column order expected by the booster; the binary format does
// not carry it.
func (b *Booster) WithFeatureNames(names []string) (*Booster, error) {
	if len(names) != b.NFeatures() {
		return nil, fmt.Errorf("got %d feature names, booster expects %d", len(names), b.NFeatures())
	}
	b.features = names
	return b, nil
}

func (b *Booster) NFeatures() int {
	return b.ensemble.NFeatures()
}

func (b *Booster) PredictProba(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != b.ensemble.NFeatures() {
			return nil, fmt.Errorf("row %d has %d features, booster expects %d", i, len(row), b.ensemble.NFeatures())
		}
		out[i] = b.ensemble.PredictSingle(row, 0)
	}
	return out, nil
}

// Predict rounds the positive class probability, as the deployed endpoint did.
func (b *Booster) Predict(rows [][]float64) ([]int, error) {
	probs, err := b.PredictProba(rows)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probs))
	for i, p := range probs {
		out[i] = int(math.Round(p))
	}
	return out, nil
}

func (b *Booster) Classes() []string {
	return b.classes
}

func (b *Booster) FeatureNames() []string {
	return b.features
}
