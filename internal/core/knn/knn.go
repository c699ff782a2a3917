package knn

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"lambda-ml/internal/core/utils"
)

var ErrNotFitted = errors.New("knn classifier has no training points")

// Classifier is a brute force k nearest neighbours classifier over Euclidean distance.
// The training set is the model, so the artifact carries every point.
type Classifier struct {
	K          int         `json:"k"`
	Points     [][]float64 `json:"points"`
	Labels     []int       `json:"labels"`
	ClassNames []string    `json:"class_names"`
	Features   []string    `json:"feature_names"`
}

func New(k int, classNames, featureNames []string) *Classifier {
	return &Classifier{K: k, ClassNames: classNames, Features: featureNames}
}

func (c *Classifier) Fit(rows [][]float64, labels []int) error {
	if len(rows) != len(labels) {
		return fmt.Errorf("knn fit: %d rows but %d labels", len(rows), len(labels))
	}
	if len(rows) == 0 {
		return fmt.Errorf("knn fit: empty training set")
	}
	if c.K <= 0 {
		return fmt.Errorf("knn fit: k must be positive, got %d", c.K)
	}
	width := len(rows[0])
	points := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != width {
			return fmt.Errorf("knn fit: row %d has %d features, expected %d", i, len(row), width)
		}
		points[i] = append([]float64(nil), row...)
	}
	c.Points = points
	c.Labels = append([]int(nil), labels...)
	return nil
}

type neighbour struct {
	dist  float64
	label int
}

func (c *Classifier) predictOne(row []float64) int {
	neighbours := make([]neighbour, len(c.Points))
	for i, p := range c.Points {
		var d float64
		for j := range p {
			diff := p[j] - row[j]
			d += diff * diff
		}
		neighbours[i] = neighbour{dist: math.Sqrt(d), label: c.Labels[i]}
	}
	sort.SliceStable(neighbours, func(i, j int) bool { return neighbours[i].dist < neighbours[j].dist })

	k := min(c.K, len(neighbours))
	votes := map[int]int{}
	for _, n := range neighbours[:k] {
		votes[n.label]++
	}

	// Ties go to the smallest class index.
	best, bestVotes := -1, -1
	for label, v := range votes {
		if v > bestVotes || (v == bestVotes && label < best) {
			best, bestVotes = label, v
		}
	}
	return best
}

func (c *Classifier) Predict(rows [][]float64) ([]int, error) {
	if len(c.Points) == 0 {
		return nil, ErrNotFitted
	}
	width := len(c.Points[0])
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), width)
		}
	}
	return utils.Map(rows, func(row []float64) (int, error) {
		return c.predictOne(row), nil
	}, 0)
}

func (c *Classifier) Classes() []string {
	return c.ClassNames
}

func (c *Classifier) FeatureNames() []string {
	return c.Features
}

func (c *Classifier) Save(path string) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("error encoding knn model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing knn model: %w", err)
	}
	return nil
}

func LoadFile(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading knn model: %w", err)
	}
	var c Classifier
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("error decoding knn model: %w", err)
	}
	if len(c.Points) == 0 || len(c.Points) != len(c.Labels) {
		return nil, fmt.Errorf("invalid knn model: %d points, %d labels", len(c.Points), len(c.Labels))
	}
	if c.K <= 0 {
		return nil, fmt.Errorf("invalid knn model: k=%d", c.K)
	}
	return &c, nil
}
