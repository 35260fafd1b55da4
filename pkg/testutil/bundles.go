package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mkdev28/Cropp/internal/domain/bundle"
	"github.com/mkdev28/Cropp/internal/domain/gbdt"
	"github.com/mkdev28/Cropp/internal/domain/service"
)

// FastTrainingConfig trains a small but accurate ensemble in well under a
// second on a few thousand records.
func FastTrainingConfig() service.TrainingConfig {
	cfg := service.DefaultTrainingConfig()
	cfg.Boosting = gbdt.Config{
		Iterations:          80,
		LearningRate:        0.1,
		Depth:               4,
		L2LeafReg:           3,
		EarlyStoppingRounds: 20,
		BorderCount:         32,
		MinDataInLeaf:       5,
		BalancedClassWeight: true,
	}
	cfg.MinRecords = 1000
	return cfg
}

var (
	trainedOnce   sync.Once
	trainedBundle *bundle.Bundle
	trainedErr    error
)

// TrainedBundle returns a bundle trained once per test binary on 3000
// generated farms.
func TrainedBundle(t *testing.T) *bundle.Bundle {
	t.Helper()
	trainedOnce.Do(func() {
		trainer, err := service.NewTrainer(FastTrainingConfig(), nil)
		if err != nil {
			trainedErr = err
			return
		}
		trainedBundle, trainedErr = trainer.Train(context.Background(), LabeledFarms(3000, 7))
	})
	require.NoError(t, trainedErr)
	return trainedBundle
}

// BundleVersion returns the shared trained bundle re-issued under id and
// createdAt, for tests that need several distinct bundles.
func BundleVersion(t *testing.T, id uuid.UUID, createdAt time.Time) *bundle.Bundle {
	t.Helper()
	b := TrainedBundle(t)
	v, err := bundle.New(bundle.Components{
		ID:         id,
		CreatedAt:  createdAt,
		Config:     b.Config(),
		Stats:      b.Stats(),
		Model:      b.Model(),
		Calibrator: b.Calibrator(),
		Metrics:    b.Metrics(),
	})
	require.NoError(t, err)
	return v
}
