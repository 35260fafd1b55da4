package gbdt

// predictionValuesChange scores each feature by how much its splits move the
// cover-weighted prediction away from the parent mean, summed over the
// ensemble and normalised to 100.
func predictionValuesChange(trees []Tree, nFeatures int) []float64 {
	imp := make([]float64, nFeatures)
	for ti := range trees {
		t := &trees[ti]
		means := t.nodeMeans()
		for i := range t.Nodes {
			n := &t.Nodes[i]
			if n.IsLeaf() {
				continue
			}
			l, r := &t.Nodes[n.Left], &t.Nodes[n.Right]
			dl := means[n.Left] - means[i]
			dr := means[n.Right] - means[i]
			imp[n.Feature] += l.Cover*dl*dl + r.Cover*dr*dr
		}
	}

	var total float64
	for _, v := range imp {
		total += v
	}
	if total > 0 {
		for i := range imp {
			imp[i] = imp[i] / total * 100
		}
	}
	return imp
}
