package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit shuffles row indices with the given seed and holds out ceil(n*testFraction)
// of them. The same n, fraction and seed always produce the same split.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0, 1), got %v", testFraction)
	}
	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest == 0 || nTest >= n {
		return nil, nil, fmt.Errorf("cannot hold out %d of %d rows", nTest, n)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// HoldoutLast keeps the final n rows for evaluation.
func HoldoutLast(total, n int) (train, test []int, err error) {
	if n <= 0 || n >= total {
		return nil, nil, fmt.Errorf("cannot hold out %d of %d rows", n, total)
	}
	train = make([]int, 0, total-n)
	test = make([]int, 0, n)
	for i := 0; i < total; i++ {
		if i < total-n {
			train = append(train, i)
		} else {
			test = append(test, i)
		}
	}
	return train, test, nil
}

func Select[T any](rows []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}
