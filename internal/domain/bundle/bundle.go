// Package bundle holds the immutable unit that is trained, persisted,
// activated and scored: feature statistics, boosted model, calibrator and
// held-out metrics.
package bundle

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mkdev28/Cropp/internal/domain/calibration"
	"github.com/mkdev28/Cropp/internal/domain/evaluation"
	"github.com/mkdev28/Cropp/internal/domain/explain"
	"github.com/mkdev28/Cropp/internal/domain/features"
	"github.com/mkdev28/Cropp/internal/domain/gbdt"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/domain/valueobject"
)

// TrainingConfig is the configuration a bundle is trained with.
type TrainingConfig struct {
	Boosting           gbdt.Config `yaml:"boosting" json:"boosting"`
	TrainFraction      float64     `yaml:"train_fraction" json:"train_fraction"`
	ValidationFraction float64     `yaml:"validation_fraction" json:"validation_fraction"`
	Seed               int64       `yaml:"seed" json:"seed"`
	MinRecords         int         `yaml:"min_records" json:"min_records"`
	MinClassPerSplit   int         `yaml:"min_class_per_split" json:"min_class_per_split"`
}

// Metrics is the held-out evaluation plus the facts of the training run.
type Metrics struct {
	evaluation.Report
	BestIteration       int     `json:"best_iteration"`
	Iterations          int     `json:"iterations"`
	ValidationAUC       float64 `json:"validation_auc"`
	TrainSize           int     `json:"train_size"`
	ValidationSize      int     `json:"validation_size"`
	CalibrationSize     int     `json:"calibration_size"`
	CalibrationFallback bool    `json:"calibration_fallback"`
	CalibrationError    string  `json:"calibration_error,omitempty"`
}

// Components are the fitted parts a bundle is assembled from.
type Components struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	Config     TrainingConfig
	Stats      features.Stats
	Model      *gbdt.Model
	Calibrator *calibration.Isotonic
	Metrics    Metrics
}

// Bundle is a trained scoring pipeline. It is never mutated after New and
// is safe to share between goroutines.
type Bundle struct {
	id         uuid.UUID
	createdAt  time.Time
	config     TrainingConfig
	engineer   *features.Engineer
	model      *gbdt.Model
	calibrator *calibration.Isotonic
	metrics    Metrics
}

// New assembles a bundle. A nil calibrator means scores use the raw model
// probability. A zero ID or timestamp is filled in.
func New(c Components) (*Bundle, error) {
	if c.Model == nil {
		return nil, fmt.Errorf("bundle requires a fitted model")
	}
	if err := c.Model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	engineer := features.NewEngineer(c.Stats)
	if err := engineer.Schema().Compatible(c.Model.Schema); err != nil {
		return nil, fmt.Errorf("model does not match the feature engineer: %w", err)
	}
	if n := len(c.Model.Importance); n != 0 && n != engineer.Schema().Len() {
		return nil, fmt.Errorf("model has %d importances for %d features", n, engineer.Schema().Len())
	}
	if c.Calibrator != nil {
		if err := c.Calibrator.Validate(); err != nil {
			return nil, fmt.Errorf("invalid calibrator: %w", err)
		}
	}

	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &Bundle{
		id:         id,
		createdAt:  createdAt,
		config:     c.Config,
		engineer:   engineer,
		model:      c.Model,
		calibrator: c.Calibrator,
		metrics:    c.Metrics,
	}, nil
}

// Ready reports whether the bundle can score. It is false for a nil bundle.
func (b *Bundle) Ready() bool {
	return b != nil && b.model != nil && b.engineer != nil
}

// Getters

func (b *Bundle) ID() uuid.UUID                     { return b.id }
func (b *Bundle) CreatedAt() time.Time              { return b.createdAt }
func (b *Bundle) Config() TrainingConfig            { return b.config }
func (b *Bundle) Schema() features.Schema           { return b.engineer.Schema() }
func (b *Bundle) Stats() features.Stats             { return b.engineer.Stats() }
func (b *Bundle) Model() *gbdt.Model                { return b.model }
func (b *Bundle) Calibrator() *calibration.Isotonic { return b.calibrator }
func (b *Bundle) Metrics() Metrics                  { return b.metrics }

// Calibrated reports whether scores pass through a fitted calibrator.
func (b *Bundle) Calibrated() bool { return b.calibrator != nil }

// Probability returns the calibrated claim probability for a feature vector.
func (b *Bundle) Probability(x features.Vector) float64 {
	p := b.model.PredictProba(x)
	if b.calibrator != nil {
		return b.calibrator.Predict(p)
	}
	return p
}

// Score validates, imputes, featurises, predicts and explains one record.
func (b *Bundle) Score(r model.FarmRecord) (model.RiskReport, error) {
	if !b.Ready() {
		return model.RiskReport{}, model.ErrNotReady
	}
	if err := r.Validate(model.ValidateForScoring); err != nil {
		return model.RiskReport{}, err
	}
	x, imputed, err := b.engineer.TransformOne(r)
	if err != nil {
		return model.RiskReport{}, fmt.Errorf("featurise record: %w", err)
	}

	p := b.Probability(x)
	exp := b.model.Explain(x)
	names := b.engineer.Schema().Names
	breakdown, err := explain.Breakdown(names, exp.Contributions)
	if err != nil {
		return model.RiskReport{}, fmt.Errorf("compose breakdown: %w", err)
	}
	risk, protective := explain.Drivers(names, exp.Contributions)

	score := explain.RiskScore(p)
	band := valueobject.RiskBandFromScore(score)
	farmer := r.FarmerID
	if farmer == "" {
		farmer = model.UnknownFarmer
	}
	if imputed == nil {
		imputed = []string{}
	}

	return model.RiskReport{
		FarmerID:             farmer,
		RiskScore:            score,
		RiskCategory:         band.Category(),
		CategoryLabel:        band.Label(),
		ClaimProbability:     explain.Round(p*100, 2),
		Confidence:           valueobject.ConfidenceFromImputed(len(imputed)),
		ImputedFields:        imputed,
		Breakdown:            breakdown,
		TopRiskDrivers:       risk,
		TopProtectiveFactors: protective,
		BundleID:             b.id,
	}, nil
}

// Contribution is one feature's share of the margin in log-odds.
type Contribution struct {
	Feature      string  `json:"feature"`
	Value        string  `json:"value"`
	Contribution float64 `json:"contribution"`
}

// Explanation is the full attribution of one record's margin.
type Explanation struct {
	Bias          float64        `json:"bias"`
	Margin        float64        `json:"margin"`
	Probability   float64        `json:"probability"`
	Contributions []Contribution `json:"contributions"`
}

// Explain returns the unrounded per-feature contributions for a record in
// schema order. Bias plus every contribution equals Margin.
func (b *Bundle) Explain(r model.FarmRecord) (Explanation, error) {
	if !b.Ready() {
		return Explanation{}, model.ErrNotReady
	}
	if err := r.Validate(model.ValidateForScoring); err != nil {
		return Explanation{}, err
	}
	x, _, err := b.engineer.TransformOne(r)
	if err != nil {
		return Explanation{}, fmt.Errorf("featurise record: %w", err)
	}

	exp := b.model.Explain(x)
	schema := b.engineer.Schema()
	out := Explanation{
		Bias:          exp.Bias,
		Margin:        b.model.Margin(x),
		Probability:   b.Probability(x),
		Contributions: make([]Contribution, schema.Len()),
	}
	for i, name := range schema.Names {
		value := x[i].Cat
		if !schema.IsCategorical(i) {
			value = formatNumber(x[i].Num)
		}
		out.Contributions[i] = Contribution{Feature: name, Value: value, Contribution: exp.Contributions[i]}
	}
	return out, nil
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.4g", v)
}
