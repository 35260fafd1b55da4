package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdev28/Cropp/internal/application/dto"
	"github.com/mkdev28/Cropp/internal/application/usecase"
	"github.com/mkdev28/Cropp/internal/domain/event"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/domain/service"
	"github.com/mkdev28/Cropp/pkg/testutil"
)

func TestActivateBundle_Execute(t *testing.T) {
	b := testutil.TrainedBundle(t)

	t.Run("swaps the serving bundle and announces it", func(t *testing.T) {
		repo := newMockBundleRepository(b)
		active := usecase.NewActiveBundle(nil)
		publisher := &mockEventPublisher{}
		uc := usecase.NewActivateBundle(repo, active, publisher, nil, discardLogger())

		resp, err := uc.Execute(context.Background(), dto.ActivateBundleRequest{BundleID: b.ID()})

		require.NoError(t, err)
		assert.Equal(t, b.ID(), resp.BundleID)
		assert.Equal(t, uuid.Nil, resp.PreviousBundleID)
		assert.Same(t, b, active.Load())
		assert.True(t, active.Ready())
		assert.Equal(t, b.ID(), repo.activeID)
		require.Len(t, publisher.published, 1)
		activated, ok := publisher.published[0].(event.BundleActivated)
		require.True(t, ok)
		assert.Equal(t, b.ID(), activated.BundleID)
	})

	t.Run("unknown bundle leaves the holder untouched", func(t *testing.T) {
		repo := newMockBundleRepository()
		active := usecase.NewActiveBundle(b)
		uc := usecase.NewActivateBundle(repo, active, nil, nil, discardLogger())

		_, err := uc.Execute(context.Background(), dto.ActivateBundleRequest{BundleID: testutil.TestBundleID})

		assert.ErrorIs(t, err, model.ErrBundleNotFound)
		assert.Same(t, b, active.Load())
	})

	t.Run("reload is idempotent", func(t *testing.T) {
		repo := newMockBundleRepository(b)
		active := usecase.NewActiveBundle(nil)
		uc := usecase.NewActivateBundle(repo, active, nil, nil, discardLogger())

		require.NoError(t, uc.Reload(context.Background(), b.ID()))
		require.NoError(t, uc.Reload(context.Background(), b.ID()))
		assert.Same(t, b, active.Load())
		assert.Equal(t, uuid.Nil, repo.activeID)
	})

	t.Run("load active at startup", func(t *testing.T) {
		repo := newMockBundleRepository(b)
		active := usecase.NewActiveBundle(nil)
		uc := usecase.NewActivateBundle(repo, active, nil, nil, discardLogger())

		require.NoError(t, uc.LoadActive(context.Background()))
		assert.False(t, active.Ready())

		require.NoError(t, repo.Activate(context.Background(), b.ID()))
		require.NoError(t, uc.LoadActive(context.Background()))
		assert.True(t, active.Ready())
	})
}

func TestTrainBundle_Execute(t *testing.T) {
	trainer, err := service.NewTrainer(testutil.FastTrainingConfig(), discardLogger())
	require.NoError(t, err)

	repo := newMockBundleRepository()
	active := usecase.NewActiveBundle(nil)
	publisher := &mockEventPublisher{}
	exporter := &mockExporter{}
	activate := usecase.NewActivateBundle(repo, active, publisher, nil, discardLogger())
	uc := usecase.NewTrainBundle(trainer, repo, exporter, publisher, activate, nil, discardLogger())

	resp, err := uc.Execute(context.Background(), dto.TrainBundleRequest{
		Records:  testutil.LabeledFarms(1500, 3),
		Activate: true,
	})

	require.NoError(t, err)
	id := resp.Summary.BundleID
	assert.True(t, resp.Activated)
	assert.Contains(t, resp.ArtifactPath, id.String())
	assert.Equal(t, []uuid.UUID{id}, exporter.exported)
	assert.Contains(t, repo.bundles, id)
	assert.Equal(t, id, active.Load().ID())
	assert.Equal(t, []string{event.EventTypeBundleTrained, event.EventTypeBundleActivated}, publisher.types())
}

func TestTrainBundle_InsufficientData(t *testing.T) {
	trainer, err := service.NewTrainer(testutil.FastTrainingConfig(), discardLogger())
	require.NoError(t, err)
	repo := newMockBundleRepository()
	uc := usecase.NewTrainBundle(trainer, repo, nil, nil, nil, nil, discardLogger())

	_, err = uc.Execute(context.Background(), dto.TrainBundleRequest{Records: testutil.LabeledFarms(50, 3)})

	assert.ErrorIs(t, err, model.ErrInsufficientData)
	assert.Empty(t, repo.bundles)
}

func TestGetModelInfo_Execute(t *testing.T) {
	b := testutil.TrainedBundle(t)

	info, err := usecase.NewGetModelInfo(usecase.NewActiveBundle(b)).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, b.ID(), info.BundleID)
	assert.Equal(t, 47, info.FeatureCount)
	assert.Len(t, info.CategoricalFeatures, 4)
	assert.Len(t, info.TopFeatures, 10)
	assert.True(t, info.Calibrated)

	_, err = usecase.NewGetModelInfo(usecase.NewActiveBundle(nil)).Execute(context.Background())
	assert.ErrorIs(t, err, model.ErrNotReady)
}

func TestGetAssessment_Execute(t *testing.T) {
	b := testutil.TrainedBundle(t)
	repo := &mockAssessmentRepository{}
	scored, err := usecase.NewScoreFarm(usecase.NewActiveBundle(b), repo, nil, nil, discardLogger()).
		Execute(context.Background(), dto.ScoreFarmRequest{Record: testutil.FarmRecord()})
	require.NoError(t, err)

	uc := usecase.NewGetAssessment(repo)

	got, err := uc.Execute(context.Background(), dto.GetAssessmentRequest{AssessmentID: scored.AssessmentID})
	require.NoError(t, err)
	assert.Equal(t, scored.Report, got.Report)
	assert.Equal(t, scored.AssessmentID, got.ID)

	_, err = uc.Execute(context.Background(), dto.GetAssessmentRequest{AssessmentID: testutil.TestAssessmentID})
	assert.ErrorIs(t, err, model.ErrAssessmentNotFound)
}
