package gbdt

import (
	"fmt"
	"math"
	"sort"
)

// Validate checks that every tree is well formed against the model schema:
// children point forward and stay in range, splits use known features of
// the right kind, and values are finite. A model that passes cannot index
// out of range or loop while predicting.
func (m *Model) Validate() error {
	if math.IsNaN(m.BaseScore) || math.IsInf(m.BaseScore, 0) {
		return fmt.Errorf("base score is not finite")
	}
	if len(m.Trees) == 0 {
		return fmt.Errorf("model has no trees")
	}
	for i := range m.Trees {
		if err := m.Trees[i].validate(m); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (t *Tree) validate(m *Model) error {
	n := len(t.Nodes)
	if n == 0 {
		return fmt.Errorf("no nodes")
	}
	for i := range t.Nodes {
		node := &t.Nodes[i]
		if !finite(node.Value) || !finite(node.Cover) || !finite(node.Threshold) {
			return fmt.Errorf("node %d has a non-finite value", i)
		}
		if node.IsLeaf() {
			if node.Categories != nil {
				return fmt.Errorf("leaf %d has categories", i)
			}
			continue
		}
		if node.Feature >= m.Schema.Len() {
			return fmt.Errorf("node %d splits on feature %d of %d", i, node.Feature, m.Schema.Len())
		}
		for _, child := range [2]int{node.Left, node.Right} {
			if child <= i || child >= n {
				return fmt.Errorf("node %d has child %d outside (%d, %d)", i, child, i, n)
			}
		}
		categorical := m.Schema.IsCategorical(node.Feature)
		switch {
		case node.Categories != nil && !categorical:
			return fmt.Errorf("node %d has categories on numeric feature %d", i, node.Feature)
		case node.Categories == nil && categorical:
			return fmt.Errorf("node %d has no categories on categorical feature %d", i, node.Feature)
		case !sort.StringsAreSorted(node.Categories):
			return fmt.Errorf("node %d categories are not sorted", i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
