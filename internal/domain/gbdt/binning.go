package gbdt

import (
	"sort"

	"github.com/mkdev28/Cropp/internal/domain/features"
)

// quantizedData is the column-major training view the split search runs on.
// Numeric columns hold border indices; categorical columns hold dictionary
// codes.
type quantizedData struct {
	borders [][]float64 // per feature, nil for categoricals
	levels  [][]string  // per feature, nil for numerics
	columns [][]int32
}

// quantize computes split candidates for every feature from the training
// rows and encodes the rows against them.
func quantize(schema features.Schema, rows []features.Vector, borderCount int) *quantizedData {
	nf := schema.Len()
	q := &quantizedData{
		borders: make([][]float64, nf),
		levels:  make([][]string, nf),
		columns: make([][]int32, nf),
	}

	for f := 0; f < nf; f++ {
		col := make([]int32, len(rows))
		if schema.IsCategorical(f) {
			q.levels[f] = distinctLevels(rows, f)
			for i, row := range rows {
				col[i] = int32(sort.SearchStrings(q.levels[f], row[f].Cat))
			}
		} else {
			q.borders[f] = numericBorders(rows, f, borderCount)
			for i, row := range rows {
				col[i] = int32(sort.SearchFloat64s(q.borders[f], row[f].Num))
			}
		}
		q.columns[f] = col
	}
	return q
}

func distinctLevels(rows []features.Vector, f int) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		seen[row[f].Cat] = struct{}{}
	}
	levels := make([]string, 0, len(seen))
	for l := range seen {
		levels = append(levels, l)
	}
	sort.Strings(levels)
	return levels
}

// numericBorders returns sorted thresholds t such that a split sends
// x <= t left. Features with few distinct values split between every pair of
// neighbours; others split on quantiles.
func numericBorders(rows []features.Vector, f int, borderCount int) []float64 {
	values := make([]float64, len(rows))
	for i, row := range rows {
		values[i] = row[f].Num
	}
	sort.Float64s(values)

	distinct := values[:0:0]
	for i, v := range values {
		if i == 0 || v != values[i-1] {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) < 2 {
		return nil
	}

	if len(distinct) <= borderCount+1 {
		borders := make([]float64, len(distinct)-1)
		for i := range borders {
			borders[i] = (distinct[i] + distinct[i+1]) / 2
		}
		return borders
	}

	borders := make([]float64, 0, borderCount)
	last := distinct[len(distinct)-1]
	for k := 1; k <= borderCount; k++ {
		b := values[k*(len(values)-1)/(borderCount+1)]
		if b >= last {
			break
		}
		if len(borders) == 0 || b > borders[len(borders)-1] {
			borders = append(borders, b)
		}
	}
	return borders
}
