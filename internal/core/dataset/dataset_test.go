package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sbinet/npyio/npy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const bankCSV = `age,balance,y_no,y_yes
30,1.5,1,0
45,-2,0,1
`

func TestFrameDropFloats(t *testing.T) {
	frame, err := ReadCSV(strings.NewReader(bankCSV), true)
	require.NoError(t, err)
	assert.Equal(t, 2, frame.Len())

	features, err := frame.Drop("y_no", "y_yes")
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "balance"}, features.Columns)

	x, err := features.Floats()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{30, 1.5}, {45, -2}}, x)

	_, err = frame.Drop("missing")
	assert.Error(t, err)

	_, err = frame.Floats()
	require.NoError(t, err)

	bad, err := ReadCSV(strings.NewReader("a\nx\n"), true)
	require.NoError(t, err)
	_, err = bad.Floats()
	assert.Error(t, err)
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), true)
	assert.Error(t, err)
}

func TestLoadIris(t *testing.T) {
	data := "5.1,3.5,1.4,0.2,Iris-setosa\n7.0,3.2,4.7,1.4,Iris-versicolor\n6.3,3.3,6.0,2.5,Iris-virginica\n\n"
	ds, err := LoadIris(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, ds.Y)
	assert.Equal(t, []float64{5.1, 3.5, 1.4, 0.2}, ds.X[0])
	assert.Equal(t, IrisTargetNames, ds.ClassNames)

	_, err = LoadIris(strings.NewReader("1,2,3,4,Iris-unknown\n"))
	assert.Error(t, err)
}

func TestLoadWDBC(t *testing.T) {
	row := func(id, diagnosis string) string {
		values := make([]string, 30)
		for i := range values {
			values[i] = "1.5"
		}
		return id + "," + diagnosis + "," + strings.Join(values, ",")
	}
	data := row("842302", "M") + "\n" + row("8510426", "B") + "\n"

	ds, err := LoadWDBC(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, ds.Y)
	assert.Len(t, ds.FeatureNames, 30)
	assert.Equal(t, "radius_mean", ds.FeatureNames[0])
	assert.Len(t, ds.X[0], 30)
}

func TestTrainTestSplit(t *testing.T) {
	train, test, err := TrainTestSplit(150, 0.4, 1)
	require.NoError(t, err)
	assert.Len(t, test, 60)
	assert.Len(t, train, 90)

	seen := map[int]bool{}
	for _, i := range append(append([]int(nil), train...), test...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, 150)

	train2, test2, err := TrainTestSplit(150, 0.4, 1)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	_, _, err = TrainTestSplit(10, 1.5, 1)
	assert.Error(t, err)
}

func TestHoldoutLast(t *testing.T) {
	train, test, err := HoldoutLast(25, 20)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, train)
	assert.Equal(t, 5, test[0])
	assert.Len(t, test, 20)

	_, _, err = HoldoutLast(20, 20)
	assert.Error(t, err)

	assert.Equal(t, []string{"c", "a"}, Select([]string{"a", "b", "c"}, []int{2, 0}))
}

func TestReadNpy(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{0, 1, 2, 3, 4, 5})
	var buf bytes.Buffer
	require.NoError(t, npy.Write(&buf, m))

	data, shape, err := ReadNpy(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, shape)
	assert.Equal(t, []float32{0, 1, 2, 3, 4, 5}, data)

	_, _, err = ReadNpy(strings.NewReader("not an npy file"))
	assert.Error(t, err)
}
