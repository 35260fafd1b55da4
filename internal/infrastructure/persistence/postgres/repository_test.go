package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/infrastructure/persistence/postgres"
	"github.com/mkdev28/Cropp/pkg/testutil"
)

func TestNewRepositories(t *testing.T) {
	assert.NotNil(t, postgres.NewBundleRepository(nil))
	assert.NotNil(t, postgres.NewAssessmentRepository(nil))
}

func TestRepositories_Integration(t *testing.T) {
	testutil.SkipUnlessIntegration(t)

	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Cleanup(t)

	bundles := postgres.NewBundleRepository(pc.Pool)
	assessments := postgres.NewAssessmentRepository(pc.Pool)

	epoch := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	first := testutil.BundleVersion(t, testutil.TestBundleID, epoch)
	second := testutil.BundleVersion(t, testutil.TestBundleID2, epoch.Add(time.Hour))

	t.Run("bundles", func(t *testing.T) {
		_, err := bundles.FindActive(ctx)
		assert.ErrorIs(t, err, model.ErrBundleNotFound)

		require.NoError(t, bundles.Save(ctx, first))
		require.NoError(t, bundles.Save(ctx, second))
		assert.Error(t, bundles.Save(ctx, first))

		got, err := bundles.FindByID(ctx, first.ID())
		require.NoError(t, err)
		assert.Equal(t, first.Summary().FeatureNames, got.Summary().FeatureNames)

		_, err = bundles.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, model.ErrBundleNotFound)

		require.NoError(t, bundles.Activate(ctx, first.ID()))
		require.NoError(t, bundles.Activate(ctx, second.ID()))
		assert.ErrorIs(t, bundles.Activate(ctx, uuid.New()), model.ErrBundleNotFound)

		active, err := bundles.FindActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, second.ID(), active.ID())

		infos, err := bundles.List(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, second.ID(), infos[0].ID)
		assert.True(t, infos[0].Active)
		assert.False(t, infos[1].Active)
		assert.NotNil(t, infos[1].ActivatedAt)
	})

	t.Run("assessments", func(t *testing.T) {
		report, err := first.Score(testutil.RainfedDroughtFarm())
		require.NoError(t, err)
		a, err := model.NewAssessment(report)
		require.NoError(t, err)

		require.NoError(t, assessments.Save(ctx, a))

		got, err := assessments.FindByID(ctx, a.ID())
		require.NoError(t, err)
		assert.Equal(t, a.Report(), got.Report())
		assert.WithinDuration(t, a.AssessedAt(), got.AssessedAt(), time.Millisecond)
		assert.Empty(t, got.Events())

		byFarmer, err := assessments.FindByFarmerID(ctx, report.FarmerID, 10, 0)
		require.NoError(t, err)
		require.Len(t, byFarmer, 1)
		assert.Equal(t, a.ID(), byFarmer[0].ID())

		_, err = assessments.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, model.ErrAssessmentNotFound)
	})
}
