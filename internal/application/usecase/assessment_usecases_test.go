package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdev28/Cropp/internal/application/dto"
	"github.com/mkdev28/Cropp/internal/application/usecase"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/pkg/testutil"
)

func TestListAssessments_Execute(t *testing.T) {
	b := testutil.TrainedBundle(t)
	repo := &mockAssessmentRepository{}
	score := usecase.NewScoreFarm(usecase.NewActiveBundle(b), repo, nil, nil, discardLogger())
	for _, rec := range []model.FarmRecord{testutil.FarmRecord(), testutil.FarmRecord(), testutil.RainfedDroughtFarm()} {
		_, err := score.Execute(context.Background(), dto.ScoreFarmRequest{Record: rec})
		require.NoError(t, err)
	}

	uc := usecase.NewListAssessments(repo)

	resp, err := uc.Execute(context.Background(), dto.ListAssessmentsRequest{FarmerID: "F-0001"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)
	for _, a := range resp.Assessments {
		assert.Equal(t, "F-0001", a.Report.FarmerID)
	}

	_, err = uc.Execute(context.Background(), dto.ListAssessmentsRequest{})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestExplainFarm_Execute(t *testing.T) {
	b := testutil.TrainedBundle(t)
	uc := usecase.NewExplainFarm(usecase.NewActiveBundle(b))

	resp, err := uc.Execute(context.Background(), dto.ScoreFarmRequest{Record: testutil.RainfedDroughtFarm()})
	require.NoError(t, err)
	assert.Equal(t, b.ID(), resp.BundleID)
	assert.Len(t, resp.Explanation.Contributions, b.Schema().Len())

	sum := resp.Explanation.Bias
	for _, c := range resp.Explanation.Contributions {
		sum += c.Contribution
	}
	assert.InDelta(t, resp.Explanation.Margin, sum, 1e-6)

	_, err = usecase.NewExplainFarm(usecase.NewActiveBundle(nil)).
		Execute(context.Background(), dto.ScoreFarmRequest{Record: testutil.FarmRecord()})
	assert.ErrorIs(t, err, model.ErrNotReady)
}
