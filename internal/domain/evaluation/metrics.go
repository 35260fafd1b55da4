// Package evaluation scores binary probability forecasts against outcomes.
// Labels are 0 or 1; scores may be probabilities or log-odds where noted.
package evaluation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// DecisionThreshold is the probability above which a claim is predicted.
const DecisionThreshold = 0.5

// AUC returns the area under the ROC curve of scores against labels. Tied
// scores form one diagonal step, which credits them half a pair. Any
// monotone score works, so margins may be passed directly. It is 0.5 when
// either class is absent.
func AUC(scores, labels []float64) float64 {
	n := len(scores)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	y := make([]float64, n)
	classes := make([]bool, n)
	var pos int
	for k, i := range idx {
		y[k] = scores[i]
		classes[k] = labels[i] > 0.5
		if classes[k] {
			pos++
		}
	}
	if pos == 0 || pos == n {
		return 0.5
	}

	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// Brier returns the mean squared error of probabilities.
func Brier(probs, labels []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	var sum float64
	for i, p := range probs {
		d := p - labels[i]
		sum += d * d
	}
	return sum / float64(len(probs))
}

// LogLoss returns the mean negative log-likelihood, clipping probabilities
// away from 0 and 1.
func LogLoss(probs, labels []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	const eps = 1e-15
	var sum float64
	for i, p := range probs {
		p = math.Min(math.Max(p, eps), 1-eps)
		if labels[i] > 0.5 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(probs))
}

// Confusion counts outcomes at a decision threshold.
type Confusion struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	TN int `json:"tn"`
	FN int `json:"fn"`
}

// ConfusionAt classifies p >= threshold as a predicted claim.
func ConfusionAt(probs, labels []float64, threshold float64) Confusion {
	var c Confusion
	for i, p := range probs {
		predicted := p >= threshold
		actual := labels[i] > 0.5
		switch {
		case predicted && actual:
			c.TP++
		case predicted:
			c.FP++
		case actual:
			c.FN++
		default:
			c.TN++
		}
	}
	return c
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func (c Confusion) Precision() float64 { return ratio(c.TP, c.TP+c.FP) }
func (c Confusion) Recall() float64    { return ratio(c.TP, c.TP+c.FN) }
func (c Confusion) Accuracy() float64  { return ratio(c.TP+c.TN, c.TP+c.TN+c.FP+c.FN) }

func (c Confusion) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// Matrix returns [[TN, FP], [FN, TP]], rows actual and columns predicted.
func (c Confusion) Matrix() [2][2]int {
	return [2][2]int{{c.TN, c.FP}, {c.FN, c.TP}}
}

// ReliabilityBin is one row of a calibration table.
type ReliabilityBin struct {
	Lower         float64 `json:"lower"`
	Upper         float64 `json:"upper"`
	MeanPredicted float64 `json:"mean_predicted"`
	ObservedRate  float64 `json:"observed_rate"`
	Count         int     `json:"count"`
}

// Reliability groups probabilities into equal-width bins and compares the
// mean forecast with the observed claim rate in each. Empty bins are kept
// with zero counts.
func Reliability(probs, labels []float64, bins int) []ReliabilityBin {
	if bins <= 0 {
		bins = 10
	}
	out := make([]ReliabilityBin, bins)
	width := 1.0 / float64(bins)
	for b := range out {
		out[b].Lower = float64(b) * width
		out[b].Upper = float64(b+1) * width
	}
	for i, p := range probs {
		b := int(p / width)
		if b >= bins {
			b = bins - 1
		}
		if b < 0 {
			b = 0
		}
		out[b].Count++
		out[b].MeanPredicted += p
		out[b].ObservedRate += labels[i]
	}
	for b := range out {
		if out[b].Count > 0 {
			out[b].MeanPredicted /= float64(out[b].Count)
			out[b].ObservedRate /= float64(out[b].Count)
		}
	}
	return out
}

// Report is the held-out evaluation stored with a bundle.
type Report struct {
	AUC             float64          `json:"auc"`
	Brier           float64          `json:"brier"`
	LogLoss         float64          `json:"log_loss"`
	Precision       float64          `json:"precision"`
	Recall          float64          `json:"recall"`
	F1              float64          `json:"f1"`
	Accuracy        float64          `json:"accuracy"`
	ConfusionMatrix [2][2]int        `json:"confusion_matrix"`
	ClaimRate       float64          `json:"claim_rate"`
	Samples         int              `json:"samples"`
	Reliability     []ReliabilityBin `json:"reliability"`
}

// Evaluate computes every held-out metric from calibrated probabilities.
func Evaluate(probs, labels []float64) Report {
	c := ConfusionAt(probs, labels, DecisionThreshold)
	var claims float64
	for _, y := range labels {
		claims += y
	}
	rate := 0.0
	if len(labels) > 0 {
		rate = claims / float64(len(labels))
	}
	return Report{
		AUC:             AUC(probs, labels),
		Brier:           Brier(probs, labels),
		LogLoss:         LogLoss(probs, labels),
		Precision:       c.Precision(),
		Recall:          c.Recall(),
		F1:              c.F1(),
		Accuracy:        c.Accuracy(),
		ConfusionMatrix: c.Matrix(),
		ClaimRate:       rate,
		Samples:         len(labels),
		Reliability:     Reliability(probs, labels, 10),
	}
}
