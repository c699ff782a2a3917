// Package linear fits ordinary least squares models with an intercept term.
package linear

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var ErrNotFitted = errors.New("linear model is not fitted")

type Model struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// rankTolerance drops singular values below this fraction of the largest one, so collinear or
// underdetermined inputs get the minimum norm solution instead of an error.
const rankTolerance = 1e-10

// Fit centers the data, solves min ||Xc w - yc||² through a rank truncated SVD and recovers the
// intercept from the means.
func Fit(x [][]float64, y []float64) (*Model, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("linear fit: empty training set")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("linear fit: %d rows but %d targets", len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return nil, fmt.Errorf("linear fit: rows have no features")
	}

	n := float64(len(x))
	xMean := make([]float64, width)
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("linear fit: row %d has %d features, expected %d", i, len(row), width)
		}
		for j, v := range row {
			xMean[j] += v / n
		}
	}
	yMean := stat.Mean(y, nil)

	design := mat.NewDense(len(x), width, nil)
	for i, row := range x {
		for j, v := range row {
			design.Set(i, j, v-xMean[j])
		}
	}
	target := mat.NewVecDense(len(y), nil)
	for i, v := range y {
		target.SetVec(i, v-yMean)
	}

	var svd mat.SVD
	if !svd.Factorize(design, mat.SVDThin) {
		return nil, fmt.Errorf("linear fit: svd factorization failed")
	}

	m := &Model{Coefficients: make([]float64, width)}
	// Constant features carry no signal: all coefficients stay zero.
	if rank := svd.Rank(rankTolerance); rank > 0 {
		var w mat.VecDense
		svd.SolveVecTo(&w, target, rank)
		for j := range m.Coefficients {
			m.Coefficients[j] = w.AtVec(j)
		}
	}

	m.Intercept = yMean
	for j, c := range m.Coefficients {
		m.Intercept -= c * xMean[j]
	}
	return m, nil
}

func (m *Model) Predict(x [][]float64) ([]float64, error) {
	if len(m.Coefficients) == 0 {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != len(m.Coefficients) {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), len(m.Coefficients))
		}
		v := m.Intercept
		for j, c := range m.Coefficients {
			v += c * row[j]
		}
		out[i] = v
	}
	return out, nil
}

func (m *Model) Marshal() ([]byte, error) {
	if len(m.Coefficients) == 0 {
		return nil, ErrNotFitted
	}
	return json.Marshal(m)
}

func Load(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("error decoding linear model: %w", err)
	}
	if len(m.Coefficients) == 0 {
		return nil, ErrNotFitted
	}
	return &m, nil
}

func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening linear model: %w", err)
	}
	defer f.Close()
	return Load(f)
}
