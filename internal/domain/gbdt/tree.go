package gbdt

import (
	"sort"

	"github.com/mkdev28/Cropp/internal/domain/features"
)

// Node is one node of a regression tree stored in a flat slice. Leaves have
// Feature -1. Numeric splits send x <= Threshold left; categorical splits
// send the listed (sorted) levels left and everything else, including
// levels never seen in training, right.
type Node struct {
	Feature    int      `json:"f"`
	Threshold  float64  `json:"t,omitempty"`
	Categories []string `json:"c,omitempty"`
	Left       int      `json:"l"`
	Right      int      `json:"r"`
	Value      float64  `json:"v,omitempty"`
	Cover      float64  `json:"w"`
}

// IsLeaf reports whether the node is terminal.
func (n *Node) IsLeaf() bool { return n.Feature < 0 }

func (n *Node) goesLeft(v features.Value) bool {
	if n.Categories != nil {
		i := sort.SearchStrings(n.Categories, v.Cat)
		return i < len(n.Categories) && n.Categories[i] == v.Cat
	}
	return v.Num <= n.Threshold
}

// Tree is a single boosted tree. Nodes[0] is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict returns the leaf value x falls into.
func (t *Tree) Predict(x features.Vector) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if n.goesLeft(x[n.Feature]) {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// ExpectedValue returns the cover-weighted mean leaf value, the tree's
// prediction when no feature is known.
func (t *Tree) ExpectedValue() float64 {
	root := t.Nodes[0].Cover
	if root == 0 {
		return 0
	}
	var sum float64
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			sum += t.Nodes[i].Cover * t.Nodes[i].Value
		}
	}
	return sum / root
}

// nodeMeans returns the cover-weighted mean prediction below every node.
func (t *Tree) nodeMeans() []float64 {
	means := make([]float64, len(t.Nodes))
	var walk func(i int) float64
	walk = func(i int) float64 {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			means[i] = n.Value
			return n.Value
		}
		l, r := walk(n.Left), walk(n.Right)
		if n.Cover > 0 {
			means[i] = (t.Nodes[n.Left].Cover*l + t.Nodes[n.Right].Cover*r) / n.Cover
		}
		return means[i]
	}
	walk(0)
	return means
}
