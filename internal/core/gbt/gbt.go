// Package gbt implements binary gradient boosted decision trees trained on the logistic
// loss with second order (Newton) leaf weights.
package gbt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

var ErrNotFitted = errors.New("gbt model has no trees")

type Params struct {
	NumTrees       int     `json:"num_trees"`
	MaxDepth       int     `json:"max_depth"`
	LearningRate   float64 `json:"learning_rate"`
	Lambda         float64 `json:"lambda"`
	MinChildWeight float64 `json:"min_child_weight"`
}

func DefaultParams() Params {
	return Params{
		NumTrees:       100,
		MaxDepth:       6,
		LearningRate:   0.3,
		Lambda:         1,
		MinChildWeight: 1,
	}
}

type Model struct {
	Params     Params   `json:"params"`
	BaseScore  float64  `json:"base_score"`
	Trees      []Tree   `json:"trees"`
	ClassNames []string `json:"class_names"`
	Features   []string `json:"feature_names"`
}

func New(params Params, classNames, featureNames []string) *Model {
	return &Model{Params: params, ClassNames: classNames, Features: featureNames}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Fit trains the ensemble on labels in {0, 1}.
func (m *Model) Fit(rows [][]float64, labels []int) error {
	if len(rows) == 0 {
		return fmt.Errorf("gbt fit: empty training set")
	}
	if len(rows) != len(labels) {
		return fmt.Errorf("gbt fit: %d rows but %d labels", len(rows), len(labels))
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return fmt.Errorf("gbt fit: row %d has %d features, expected %d", i, len(row), width)
		}
		if labels[i] != 0 && labels[i] != 1 {
			return fmt.Errorf("gbt fit: label %d at row %d is not binary", labels[i], i)
		}
	}
	if m.Params.NumTrees <= 0 || m.Params.MaxDepth <= 0 {
		return fmt.Errorf("gbt fit: invalid params %+v", m.Params)
	}

	margin := make([]float64, len(rows))
	for i := range margin {
		margin[i] = m.BaseScore
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}

	b := &treeBuilder{
		rows:   rows,
		grad:   make([]float64, len(rows)),
		hess:   make([]float64, len(rows)),
		params: m.Params,
	}

	m.Trees = make([]Tree, 0, m.Params.NumTrees)
	for t := 0; t < m.Params.NumTrees; t++ {
		for i := range rows {
			p := sigmoid(margin[i])
			b.grad[i] = p - float64(labels[i])
			b.hess[i] = max(p*(1-p), 1e-16)
		}
		tree := Tree{Nodes: b.build(idx, 0)}
		for i, row := range rows {
			v, err := tree.predict(row)
			if err != nil {
				return fmt.Errorf("gbt fit: tree %d: %w", t, err)
			}
			margin[i] += v
		}
		m.Trees = append(m.Trees, tree)
	}
	return nil
}

func (m *Model) margin(row []float64) (float64, error) {
	total := m.BaseScore
	for i, tree := range m.Trees {
		v, err := tree.predict(row)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		total += v
	}
	return total, nil
}

// PredictProba returns P(class 1) for every row.
func (m *Model) PredictProba(rows [][]float64) ([]float64, error) {
	if len(m.Trees) == 0 {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if n := len(m.Features); n > 0 && len(row) != n {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), n)
		}
		z, err := m.margin(row)
		if err != nil {
			return nil, err
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

func (m *Model) Predict(rows [][]float64) ([]int, error) {
	probs, err := m.PredictProba(rows)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probs))
	for i, p := range probs {
		if p > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

func (m *Model) Classes() []string {
	return m.ClassNames
}

func (m *Model) FeatureNames() []string {
	return m.Features
}

func (m *Model) Save(path string) error {
	if len(m.Trees) == 0 {
		return ErrNotFitted
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("error encoding gbt model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing gbt model: %w", err)
	}
	return nil
}

func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading gbt model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error decoding gbt model: %w", err)
	}
	if len(m.Trees) == 0 {
		return nil, ErrNotFitted
	}
	return &m, nil
}
