package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdev28/Cropp/internal/application/dto"
	"github.com/mkdev28/Cropp/internal/application/usecase"
	"github.com/mkdev28/Cropp/internal/domain/event"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/pkg/testutil"
)

func TestScoreFarm_Execute(t *testing.T) {
	b := testutil.TrainedBundle(t)

	t.Run("scores, stores and publishes", func(t *testing.T) {
		repo := &mockAssessmentRepository{}
		publisher := &mockEventPublisher{}
		uc := usecase.NewScoreFarm(usecase.NewActiveBundle(b), repo, publisher, nil, discardLogger())

		resp, err := uc.Execute(context.Background(), dto.ScoreFarmRequest{Record: testutil.RainfedDroughtFarm()})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, resp.AssessmentID)
		assert.Equal(t, b.ID(), resp.Report.BundleID)
		testutil.AssertWellFormedReport(t, resp.Report)
		require.Len(t, repo.saved, 1)
		assert.Equal(t, resp.AssessmentID, repo.saved[0].ID())
		types := publisher.types()
		require.NotEmpty(t, types)
		assert.Equal(t, event.EventTypeFarmAssessed, types[0])
		if resp.Report.Band().IsCritical() {
			assert.Contains(t, types, event.EventTypeHighRiskFarmDetected)
		}
	})

	t.Run("works without repository or publisher", func(t *testing.T) {
		uc := usecase.NewScoreFarm(usecase.NewActiveBundle(b), nil, nil, nil, discardLogger())

		resp, err := uc.Execute(context.Background(), dto.ScoreFarmRequest{Record: testutil.FarmRecord()})

		require.NoError(t, err)
		assert.Equal(t, "F-0001", resp.Report.FarmerID)
	})

	t.Run("no active bundle", func(t *testing.T) {
		repo := &mockAssessmentRepository{}
		uc := usecase.NewScoreFarm(usecase.NewActiveBundle(nil), repo, nil, nil, discardLogger())

		_, err := uc.Execute(context.Background(), dto.ScoreFarmRequest{Record: testutil.FarmRecord()})

		assert.ErrorIs(t, err, model.ErrNotReady)
		assert.Empty(t, repo.saved)
	})

	t.Run("invalid record", func(t *testing.T) {
		uc := usecase.NewScoreFarm(usecase.NewActiveBundle(b), nil, nil, nil, discardLogger())
		record := testutil.FarmRecord(func(r *model.FarmRecord) { r.LandAcres = model.Float(-1) })

		_, err := uc.Execute(context.Background(), dto.ScoreFarmRequest{Record: record})

		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := &mockAssessmentRepository{saveFunc: func(context.Context, *model.Assessment) error {
			return errors.New("connection refused")
		}}
		publisher := &mockEventPublisher{}
		uc := usecase.NewScoreFarm(usecase.NewActiveBundle(b), repo, publisher, nil, discardLogger())

		_, err := uc.Execute(context.Background(), dto.ScoreFarmRequest{Record: testutil.FarmRecord()})

		testutil.AssertErrorContains(t, err, "failed to save assessment")
		assert.Empty(t, publisher.published)
	})
}

func TestScoreBatch_Execute(t *testing.T) {
	b := testutil.TrainedBundle(t)
	records := []model.FarmRecord{
		testutil.RainfedDroughtFarm(),
		testutil.IrrigatedDiversifiedFarm(),
		testutil.FarmRecord(),
	}

	t.Run("matches single scoring in input order", func(t *testing.T) {
		uc := usecase.NewScoreBatch(usecase.NewActiveBundle(b), nil, discardLogger())

		resp, err := uc.Execute(context.Background(), dto.ScoreBatchRequest{Records: records})

		require.NoError(t, err)
		assert.Equal(t, 3, resp.Count)
		assert.Equal(t, b.ID(), resp.BundleID)
		for i, r := range records {
			want, err := b.Score(r)
			require.NoError(t, err)
			assert.Equal(t, want, resp.Reports[i])
		}
	})

	t.Run("one bad record fails the batch", func(t *testing.T) {
		uc := usecase.NewScoreBatch(usecase.NewActiveBundle(b), nil, discardLogger())
		bad := append([]model.FarmRecord{}, records...)
		bad[1].Season = ""

		_, err := uc.Execute(context.Background(), dto.ScoreBatchRequest{Records: bad})

		assert.ErrorIs(t, err, model.ErrValidation)
		assert.Contains(t, err.Error(), "record 1")
	})

	t.Run("no active bundle", func(t *testing.T) {
		uc := usecase.NewScoreBatch(usecase.NewActiveBundle(nil), nil, discardLogger())

		_, err := uc.Execute(context.Background(), dto.ScoreBatchRequest{Records: records})

		assert.ErrorIs(t, err, model.ErrNotReady)
	})

	t.Run("too large", func(t *testing.T) {
		uc := usecase.NewScoreBatch(usecase.NewActiveBundle(b), nil, discardLogger())

		_, err := uc.Execute(context.Background(), dto.ScoreBatchRequest{Records: make([]model.FarmRecord, usecase.MaxBatchSize+1)})

		require.ErrorIs(t, err, model.ErrValidation)
		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "inputs", verr.Fields[0].Field)
	})
}
