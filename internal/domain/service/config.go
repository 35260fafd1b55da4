package service

import (
	"fmt"

	"github.com/mkdev28/Cropp/internal/domain/bundle"
	"github.com/mkdev28/Cropp/internal/domain/gbdt"
)

// TrainingConfig is the full training configuration recorded in each bundle.
type TrainingConfig = bundle.TrainingConfig

// DefaultTrainingConfig returns the production training configuration: a
// 70/15/15 stratified split seeded with 42 and the default booster.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Boosting:           gbdt.DefaultConfig(),
		TrainFraction:      0.70,
		ValidationFraction: 0.15,
		Seed:               42,
		MinRecords:         2000,
		MinClassPerSplit:   5,
	}
}

// ValidateTrainingConfig rejects configurations the trainer cannot run with.
func ValidateTrainingConfig(cfg TrainingConfig) error {
	if err := cfg.Boosting.Validate(); err != nil {
		return err
	}
	switch {
	case cfg.TrainFraction <= 0 || cfg.ValidationFraction <= 0:
		return fmt.Errorf("split fractions must be positive, got %g and %g", cfg.TrainFraction, cfg.ValidationFraction)
	case cfg.TrainFraction+cfg.ValidationFraction >= 1:
		return fmt.Errorf("split fractions %g + %g leave no calibration split", cfg.TrainFraction, cfg.ValidationFraction)
	case cfg.MinRecords < 1:
		return fmt.Errorf("min records must be positive, got %d", cfg.MinRecords)
	case cfg.MinClassPerSplit < 1:
		return fmt.Errorf("min class per split must be positive, got %d", cfg.MinClassPerSplit)
	}
	return nil
}
