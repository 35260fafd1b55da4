package service

import (
	"math"
	"math/rand"
	"sort"
)

// Split holds row indices of the three training partitions.
type Split struct {
	Fit         []int
	Validation  []int
	Calibration []int
}

// StratifiedSplit partitions row indices so each partition keeps the overall
// class balance. Each class is shuffled with the seed and cut at the given
// fractions; the calibration split takes the remainder. Indices within a
// partition are returned in ascending order.
func StratifiedSplit(labels []float64, trainFrac, validFrac float64, seed int64) Split {
	var pos, neg []int
	for i, y := range labels {
		if y > 0.5 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}

	rnd := rand.New(rand.NewSource(seed))
	var s Split
	for _, class := range [][]int{neg, pos} {
		rnd.Shuffle(len(class), func(i, j int) { class[i], class[j] = class[j], class[i] })
		nFit := int(math.Round(float64(len(class)) * trainFrac))
		nValid := int(math.Round(float64(len(class)) * validFrac))
		if nFit+nValid > len(class) {
			nValid = len(class) - nFit
		}
		s.Fit = append(s.Fit, class[:nFit]...)
		s.Validation = append(s.Validation, class[nFit:nFit+nValid]...)
		s.Calibration = append(s.Calibration, class[nFit+nValid:]...)
	}
	sort.Ints(s.Fit)
	sort.Ints(s.Validation)
	sort.Ints(s.Calibration)
	return s
}

func classCounts(labels []float64, idx []int) (neg, pos int) {
	for _, i := range idx {
		if labels[i] > 0.5 {
			pos++
		} else {
			neg++
		}
	}
	return neg, pos
}
