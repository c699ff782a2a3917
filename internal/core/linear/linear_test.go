package linear

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitExact(t *testing.T) {
	// y = 3 + 2*x0 - x1
	x := [][]float64{{0, 0}, {1, 0}, {0, 1}, {2, 3}, {4, 1}}
	y := make([]float64, len(x))
	for i, row := range x {
		y[i] = 3 + 2*row[0] - row[1]
	}

	m, err := Fit(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 3, m.Intercept, 1e-9)
	assert.InDeltaSlice(t, []float64{2, -1}, m.Coefficients, 1e-9)

	preds, err := m.Predict([][]float64{{10, 10}})
	require.NoError(t, err)
	assert.InDelta(t, 13, preds[0], 1e-9)
}

func TestFitNoisy(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := make([][]float64, 200)
	y := make([]float64, 200)
	for i := range x {
		x[i] = []float64{rng.NormFloat64(), rng.NormFloat64()}
		y[i] = 20 + 5*x[i][0] + 3*x[i][1] + rng.NormFloat64()*0.5
	}

	m, err := Fit(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 20, m.Intercept, 0.2)
	assert.InDelta(t, 5, m.Coefficients[0], 0.2)
	assert.InDelta(t, 3, m.Coefficients[1], 0.2)
}

func TestFitErrors(t *testing.T) {
	_, err := Fit(nil, nil)
	assert.Error(t, err)

	_, err = Fit([][]float64{{1}, {2}}, []float64{1})
	assert.Error(t, err)

	_, err = Fit([][]float64{{}, {}}, []float64{1, 2})
	assert.Error(t, err)
}

func TestFitDuplicatedColumn(t *testing.T) {
	// The second column is twice the first: the minimum norm split of the slope 3 over
	// (v, 2v) is (0.6, 1.2).
	x := make([][]float64, 60)
	y := make([]float64, 60)
	for i := range x {
		v := float64(i) / 10
		x[i] = []float64{v, 2 * v}
		y[i] = 1 + 3*v
	}

	m, err := Fit(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 1, m.Intercept, 1e-8)
	assert.InDeltaSlice(t, []float64{0.6, 1.2}, m.Coefficients, 1e-8)

	preds, err := m.Predict([][]float64{{2, 4}})
	require.NoError(t, err)
	assert.InDelta(t, 7, preds[0], 1e-8)
}

func TestFitUnderdetermined(t *testing.T) {
	m, err := Fit([][]float64{{1, 2, 3}, {2, 2, 5}}, []float64{4, 6})
	require.NoError(t, err)

	preds, err := m.Predict([][]float64{{1, 2, 3}, {2, 2, 5}})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{4, 6}, preds, 1e-8)

	single, err := Fit([][]float64{{1, 2}}, []float64{5})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, single.Coefficients)
	assert.InDelta(t, 5, single.Intercept, 1e-12)
}

func TestMarshalLoad(t *testing.T) {
	m := &Model{Coefficients: []float64{1.5, -0.25}, Intercept: 20}
	data, err := m.Marshal()
	require.NoError(t, err)

	loaded, err := Load(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, m, loaded)

	_, err = (&Model{}).Marshal()
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = Load(bytes.NewReader([]byte(`{"intercept": 1}`)))
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = loaded.Predict([][]float64{{1}})
	assert.Error(t, err)
}
