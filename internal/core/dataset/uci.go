package dataset

import (
	"fmt"
	"io"
	"strings"
)

const (
	IrisURL = "https://archive.ics.uci.edu/ml/machine-learning-databases/iris/iris.data"
	WDBCURL = "https://archive.ics.uci.edu/ml/machine-learning-databases/breast-cancer-wisconsin/wdbc.data"
)

var (
	IrisTargetNames  = []string{"setosa", "versicolor", "virginica"}
	IrisFeatureNames = []string{"sepal length (cm)", "sepal width (cm)", "petal length (cm)", "petal width (cm)"}

	// WDBCColumns names the columns of wdbc.data as listed in wdbc.names.
	WDBCColumns = []string{"id", "diagnosis", "radius_mean", "texture_mean", "perimeter_mean", "area_mean", "smoothness_mean",
		"compactness_mean", "concavity_mean", "concave points_mean", "symmetry_mean", "fractal_dimension_mean",
		"radius_se", "texture_se", "perimeter_se", "area_se", "smoothness_se", "compactness_se", "concavity_se",
		"concave points_se", "symmetry_se", "fractal_dimension_se", "radius_worst", "texture_worst",
		"perimeter_worst", "area_worst", "smoothness_worst", "compactness_worst", "concavity_worst",
		"concave points_worst", "symmetry_worst", "fractal_dimension_worst"}

	WDBCClasses = []string{"B", "M"}
)

type Labeled struct {
	X            [][]float64
	Y            []int
	FeatureNames []string
	ClassNames   []string
}

func encodeLabels(values, classes []string) ([]int, error) {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	out := make([]int, len(values))
	for i, v := range values {
		label, ok := index[v]
		if !ok {
			return nil, fmt.Errorf("row %d: unknown class %q", i, v)
		}
		out[i] = label
	}
	return out, nil
}

// LoadIris reads the UCI iris.data file. Blank trailing lines are ignored.
func LoadIris(r io.Reader) (*Labeled, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading iris data: %w", err)
	}
	frame, err := ReadCSV(strings.NewReader(strings.TrimSpace(string(data))), false)
	if err != nil {
		return nil, err
	}
	if err := frame.Rename(append(append([]string(nil), IrisFeatureNames...), "class")); err != nil {
		return nil, err
	}

	species, err := frame.Column("class")
	if err != nil {
		return nil, err
	}
	for i, s := range species {
		species[i] = strings.TrimPrefix(s, "Iris-")
	}
	y, err := encodeLabels(species, IrisTargetNames)
	if err != nil {
		return nil, err
	}

	features, err := frame.Drop("class")
	if err != nil {
		return nil, err
	}
	x, err := features.Floats()
	if err != nil {
		return nil, err
	}
	return &Labeled{X: x, Y: y, FeatureNames: IrisFeatureNames, ClassNames: IrisTargetNames}, nil
}

// LoadWDBC reads the UCI breast cancer wdbc.data file with diagnosis M=1, B=0.
func LoadWDBC(r io.Reader) (*Labeled, error) {
	frame, err := ReadCSV(r, false)
	if err != nil {
		return nil, err
	}
	if err := frame.Rename(WDBCColumns); err != nil {
		return nil, err
	}

	diagnosis, err := frame.Column("diagnosis")
	if err != nil {
		return nil, err
	}
	y, err := encodeLabels(diagnosis, WDBCClasses)
	if err != nil {
		return nil, err
	}

	features, err := frame.Drop("id", "diagnosis")
	if err != nil {
		return nil, err
	}
	x, err := features.Floats()
	if err != nil {
		return nil, err
	}
	return &Labeled{X: x, Y: y, FeatureNames: features.Columns, ClassNames: WDBCClasses}, nil
}
