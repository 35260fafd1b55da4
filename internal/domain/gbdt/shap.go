package gbdt

import "github.com/mkdev28/Cropp/internal/domain/features"

// Explanation attributes a margin to individual features. Contributions are
// in log-odds and, together with Bias, sum to the model margin.
type Explanation struct {
	Contributions []float64
	Bias          float64
}

// Explain computes exact path-dependent TreeSHAP values for x over the
// whole ensemble.
func (m *Model) Explain(x features.Vector) Explanation {
	phi := make([]float64, m.Schema.Len())
	bias := m.BaseScore
	for i := range m.Trees {
		t := &m.Trees[i]
		bias += t.ExpectedValue()
		if len(t.Nodes) > 1 {
			t.shap(x, phi, 0, nil, 1, 1, -1)
		}
	}
	return Explanation{Contributions: phi, Bias: bias}
}

// pathElement tracks one feature on the current root-to-node path: the
// fraction of zero (feature unknown) and one (feature known) paths flowing
// through, and the permutation weight of the subset sizes.
type pathElement struct {
	feature      int
	zeroFraction float64
	oneFraction  float64
	weight       float64
}

func (t *Tree) shap(x features.Vector, phi []float64, node int, parent []pathElement, zeroFraction, oneFraction float64, feature int) {
	depth := len(parent)
	path := make([]pathElement, depth+1, depth+2)
	copy(path, parent)
	extendPath(path, depth, zeroFraction, oneFraction, feature)

	n := &t.Nodes[node]
	if n.IsLeaf() {
		for i := 1; i <= depth; i++ {
			w := unwoundPathSum(path, depth, i)
			el := path[i]
			phi[el.feature] += w * (el.oneFraction - el.zeroFraction) * n.Value
		}
		return
	}

	hot, cold := n.Right, n.Left
	if n.goesLeft(x[n.Feature]) {
		hot, cold = n.Left, n.Right
	}
	hotZero := t.Nodes[hot].Cover / n.Cover
	coldZero := t.Nodes[cold].Cover / n.Cover
	incomingZero, incomingOne := 1.0, 1.0

	// A feature split on twice along the path contributes once; undo its
	// earlier extension and carry its fractions forward.
	for k := 0; k <= depth; k++ {
		if path[k].feature == n.Feature {
			incomingZero = path[k].zeroFraction
			incomingOne = path[k].oneFraction
			unwindPath(path, depth, k)
			path = path[:depth]
			break
		}
	}

	t.shap(x, phi, hot, path, hotZero*incomingZero, incomingOne, n.Feature)
	t.shap(x, phi, cold, path, coldZero*incomingZero, 0, n.Feature)
}

func extendPath(path []pathElement, depth int, zeroFraction, oneFraction float64, feature int) {
	path[depth] = pathElement{feature: feature, zeroFraction: zeroFraction, oneFraction: oneFraction}
	if depth == 0 {
		path[depth].weight = 1
	}
	d := float64(depth + 1)
	for i := depth - 1; i >= 0; i-- {
		path[i+1].weight += oneFraction * path[i].weight * float64(i+1) / d
		path[i].weight = zeroFraction * path[i].weight * float64(depth-i) / d
	}
}

func unwindPath(path []pathElement, depth, index int) {
	one := path[index].oneFraction
	zero := path[index].zeroFraction
	next := path[depth].weight
	d := float64(depth + 1)

	for i := depth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := path[i].weight
			path[i].weight = next * d / (float64(i+1) * one)
			next = tmp - path[i].weight*zero*float64(depth-i)/d
		} else {
			path[i].weight = path[i].weight * d / (zero * float64(depth-i))
		}
	}
	for i := index; i < depth; i++ {
		path[i].feature = path[i+1].feature
		path[i].zeroFraction = path[i+1].zeroFraction
		path[i].oneFraction = path[i+1].oneFraction
	}
}

func unwoundPathSum(path []pathElement, depth, index int) float64 {
	one := path[index].oneFraction
	zero := path[index].zeroFraction
	next := path[depth].weight
	d := float64(depth + 1)

	var total float64
	for i := depth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := next * d / (float64(i+1) * one)
			total += tmp
			next = path[i].weight - tmp*zero*float64(depth-i)/d
		} else if zero != 0 {
			total += path[i].weight / zero / (float64(depth-i) / d)
		}
	}
	return total
}
