package bundle

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mkdev28/Cropp/internal/domain/explain"
)

// FeatureImportance is one feature's normalised importance.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Summary is the human-readable description written next to a persisted
// bundle.
type Summary struct {
	BundleID            uuid.UUID           `json:"bundle_id"`
	CreatedAt           time.Time           `json:"created_at"`
	Calibrated          bool                `json:"calibrated"`
	FeatureNames        []string            `json:"feature_names"`
	CategoricalFeatures []string            `json:"categorical_features"`
	NumericalFeatures   []string            `json:"numerical_features"`
	Metrics             Metrics             `json:"metrics"`
	FeatureImportance   []FeatureImportance `json:"feature_importance"`
	TopFeatures         []string            `json:"top_features"`
	Config              TrainingConfig      `json:"config"`
}

// Importance returns every feature's importance, most important first.
// Ties keep schema order.
func (b *Bundle) Importance() []FeatureImportance {
	names := b.engineer.Schema().Names
	out := make([]FeatureImportance, 0, len(names))
	for i, name := range names {
		var v float64
		if i < len(b.model.Importance) {
			v = b.model.Importance[i]
		}
		out = append(out, FeatureImportance{Feature: name, Importance: explain.Round(v, 4)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out
}

// TopFeatures returns the n most important features.
func (b *Bundle) TopFeatures(n int) []FeatureImportance {
	all := b.Importance()
	return all[:min(n, len(all))]
}

// Summary describes the bundle.
func (b *Bundle) Summary() Summary {
	schema := b.engineer.Schema()
	importance := b.Importance()
	top := make([]string, 0, 10)
	for _, fi := range importance[:min(10, len(importance))] {
		top = append(top, fi.Feature)
	}
	return Summary{
		BundleID:            b.id,
		CreatedAt:           b.createdAt,
		Calibrated:          b.Calibrated(),
		FeatureNames:        append([]string(nil), schema.Names...),
		CategoricalFeatures: schema.Categorical(),
		NumericalFeatures:   schema.Numerical(),
		Metrics:             b.metrics,
		FeatureImportance:   importance,
		TopFeatures:         top,
		Config:              b.config,
	}
}
