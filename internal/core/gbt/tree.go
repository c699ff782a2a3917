package gbt

import (
	"errors"
	"sort"

	"lambda-ml/internal/core/utils"
)

// Node is one entry of a flattened regression tree. Children are indices into the owning
// tree's node slice; leaves carry the raw score they add to the margin.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

var errInvalidTree = errors.New("invalid tree")

func (t Tree) predict(row []float64) (float64, error) {
	idx := 0
	for {
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, errInvalidTree
		}
		node := t.Nodes[idx]
		if node.Leaf {
			return node.Value, nil
		}
		if node.Feature < 0 || node.Feature >= len(row) {
			return 0, errInvalidTree
		}
		if row[node.Feature] < node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

type treeBuilder struct {
	rows   [][]float64
	grad   []float64
	hess   []float64
	params Params
}

func (b *treeBuilder) leaf(idx []int) Node {
	g, h := b.sums(idx)
	return Node{Feature: -1, Left: -1, Right: -1, Leaf: true, Value: -g / (h + b.params.Lambda) * b.params.LearningRate}
}

func (b *treeBuilder) sums(idx []int) (g, h float64) {
	for _, i := range idx {
		g += b.grad[i]
		h += b.hess[i]
	}
	return g, h
}

func (b *treeBuilder) score(g, h float64) float64 {
	return g * g / (h + b.params.Lambda)
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// featureSplit scans one feature in sorted order and returns its best split with positive gain
// that keeps min_child_weight hessian mass on both sides.
func (b *treeBuilder) featureSplit(idx []int, f int, g, h, parent float64) split {
	best := split{feature: -1}
	sorted := append([]int(nil), idx...)
	sort.SliceStable(sorted, func(i, j int) bool { return b.rows[sorted[i]][f] < b.rows[sorted[j]][f] })

	var gl, hl float64
	for k := 0; k < len(sorted)-1; k++ {
		gl += b.grad[sorted[k]]
		hl += b.hess[sorted[k]]
		cur, next := b.rows[sorted[k]][f], b.rows[sorted[k+1]][f]
		if cur == next {
			continue
		}
		gr, hr := g-gl, h-hl
		if hl < b.params.MinChildWeight || hr < b.params.MinChildWeight {
			continue
		}
		gain := b.score(gl, hl) + b.score(gr, hr) - parent
		if gain > best.gain {
			best = split{feature: f, threshold: (cur + next) / 2, gain: gain}
		}
	}
	return best
}

// bestSplit searches features in parallel. Candidates are reduced in feature order so the
// chosen split does not depend on scheduling.
func (b *treeBuilder) bestSplit(idx []int) (split, bool) {
	g, h := b.sums(idx)
	parent := b.score(g, h)

	features := make([]int, len(b.rows[idx[0]]))
	for f := range features {
		features[f] = f
	}
	candidates, err := utils.Map(features, func(f int) (split, error) {
		return b.featureSplit(idx, f, g, h, parent), nil
	}, 0)
	if err != nil {
		return split{}, false
	}

	best := split{feature: -1}
	for _, c := range candidates {
		if c.feature >= 0 && c.gain > best.gain {
			best = c
		}
	}
	return best, best.feature >= 0
}

func (b *treeBuilder) build(idx []int, depth int) []Node {
	if depth >= b.params.MaxDepth || len(idx) < 2 {
		return []Node{b.leaf(idx)}
	}
	s, ok := b.bestSplit(idx)
	if !ok {
		return []Node{b.leaf(idx)}
	}

	var left, right []int
	for _, i := range idx {
		if b.rows[i][s.feature] < s.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	leftNodes := b.build(left, depth+1)
	rightNodes := b.build(right, depth+1)

	nodes := make([]Node, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, Node{
		Feature:   s.feature,
		Threshold: s.threshold,
		Left:      1,
		Right:     1 + len(leftNodes),
	})
	nodes = append(nodes, offset(leftNodes, 1)...)
	nodes = append(nodes, offset(rightNodes, 1+len(leftNodes))...)
	return nodes
}

// offset rebases child pointers of a subtree that is being placed at position base.
func offset(nodes []Node, base int) []Node {
	for i := range nodes {
		if !nodes[i].Leaf {
			nodes[i].Left += base
			nodes[i].Right += base
		}
	}
	return nodes
}
