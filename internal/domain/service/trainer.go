package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mkdev28/Cropp/internal/domain/bundle"
	"github.com/mkdev28/Cropp/internal/domain/calibration"
	"github.com/mkdev28/Cropp/internal/domain/evaluation"
	"github.com/mkdev28/Cropp/internal/domain/features"
	"github.com/mkdev28/Cropp/internal/domain/gbdt"
	"github.com/mkdev28/Cropp/internal/domain/model"
)

// Trainer fits a complete bundle from labelled farm records.
type Trainer struct {
	cfg    TrainingConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewTrainer creates a trainer. A nil logger discards log output.
func NewTrainer(cfg TrainingConfig, logger *slog.Logger) (*Trainer, error) {
	if err := ValidateTrainingConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Trainer{cfg: cfg, logger: logger, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Config returns the configuration the trainer applies.
func (t *Trainer) Config() TrainingConfig { return t.cfg }

// Train splits the records, fits feature statistics on the fit split, fits
// the booster with early stopping on the validation split, calibrates and
// evaluates on the held-out split, and assembles the bundle.
func (t *Trainer) Train(ctx context.Context, records []model.LabeledRecord) (*bundle.Bundle, error) {
	if len(records) < t.cfg.MinRecords {
		return nil, fmt.Errorf("%d records, need at least %d: %w", len(records), t.cfg.MinRecords, model.ErrInsufficientData)
	}

	raw := make([]model.FarmRecord, len(records))
	labels := make([]float64, len(records))
	for i := range records {
		if err := records[i].Record.Validate(model.ValidateForTraining); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		raw[i] = records[i].Record
		if records[i].Claimed {
			labels[i] = 1
		}
	}

	split := StratifiedSplit(labels, t.cfg.TrainFraction, t.cfg.ValidationFraction, t.cfg.Seed)
	for _, part := range []struct {
		name string
		idx  []int
	}{{"fit", split.Fit}, {"validation", split.Validation}, {"calibration", split.Calibration}} {
		neg, pos := classCounts(labels, part.idx)
		if neg < t.cfg.MinClassPerSplit || pos < t.cfg.MinClassPerSplit {
			return nil, fmt.Errorf("%s split has %d claims and %d non-claims, need %d of each: %w",
				part.name, pos, neg, t.cfg.MinClassPerSplit, model.ErrInsufficientData)
		}
	}
	t.logger.Info("training split",
		"records", len(records),
		"fit", len(split.Fit),
		"validation", len(split.Validation),
		"calibration", len(split.Calibration),
	)

	stats, err := features.FitStats(pick(raw, split.Fit))
	if err != nil {
		return nil, fmt.Errorf("fit feature statistics: %w", err)
	}
	engineer := features.NewEngineer(stats)

	fitSet, err := dataset(engineer, raw, labels, split.Fit)
	if err != nil {
		return nil, fmt.Errorf("featurise fit split: %w", err)
	}
	validSet, err := dataset(engineer, raw, labels, split.Validation)
	if err != nil {
		return nil, fmt.Errorf("featurise validation split: %w", err)
	}
	calibSet, err := dataset(engineer, raw, labels, split.Calibration)
	if err != nil {
		return nil, fmt.Errorf("featurise calibration split: %w", err)
	}

	start := time.Now()
	m, err := gbdt.Fit(ctx, t.cfg.Boosting, engineer.Schema(), fitSet, validSet)
	if err != nil {
		return nil, fmt.Errorf("fit booster: %w", err)
	}
	t.logger.Info("booster fitted",
		"iterations", m.Iterations,
		"best_iteration", m.BestIteration,
		"validation_auc", m.ValidationAUC,
		"duration", time.Since(start),
	)

	rawProbs := make([]float64, calibSet.Len())
	for i, row := range calibSet.Rows {
		rawProbs[i] = m.PredictProba(row)
	}

	metrics := bundle.Metrics{
		BestIteration:   m.BestIteration,
		Iterations:      m.Iterations,
		ValidationAUC:   m.ValidationAUC,
		TrainSize:       fitSet.Len(),
		ValidationSize:  validSet.Len(),
		CalibrationSize: calibSet.Len(),
	}
	calibrator, err := calibration.FitIsotonic(rawProbs, calibSet.Labels)
	switch {
	case errors.Is(err, calibration.ErrDegenerate):
		t.logger.Warn("calibration failed, scoring with raw probabilities", "error", err)
		calibrator = nil
		metrics.CalibrationFallback = true
		metrics.CalibrationError = err.Error()
	case err != nil:
		return nil, fmt.Errorf("fit calibrator: %w", err)
	}

	probs := rawProbs
	if calibrator != nil {
		probs = make([]float64, len(rawProbs))
		for i, p := range rawProbs {
			probs[i] = calibrator.Predict(p)
		}
	}
	metrics.Report = evaluation.Evaluate(probs, calibSet.Labels)

	b, err := bundle.New(bundle.Components{
		CreatedAt:  t.now(),
		Config:     t.cfg,
		Stats:      stats,
		Model:      m,
		Calibrator: calibrator,
		Metrics:    metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("assemble bundle: %w", err)
	}
	t.logger.Info("bundle trained",
		"bundle_id", b.ID(),
		"auc", metrics.AUC,
		"brier", metrics.Brier,
		"calibrated", b.Calibrated(),
	)
	return b, nil
}

func pick(records []model.FarmRecord, idx []int) []model.FarmRecord {
	out := make([]model.FarmRecord, len(idx))
	for i, j := range idx {
		out[i] = records[j]
	}
	return out
}

func dataset(e *features.Engineer, records []model.FarmRecord, labels []float64, idx []int) (gbdt.Dataset, error) {
	m, err := e.Transform(pick(records, idx))
	if err != nil {
		return gbdt.Dataset{}, err
	}
	ds := gbdt.Dataset{Rows: m.Rows, Labels: make([]float64, len(idx))}
	for i, j := range idx {
		ds.Labels[i] = labels[j]
	}
	return ds, nil
}
