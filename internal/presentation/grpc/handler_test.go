package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mkdev28/Cropp/internal/application/usecase"
	"github.com/mkdev28/Cropp/internal/domain/bundle"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/domain/port"
	"github.com/mkdev28/Cropp/pkg/testutil"
)

// --- Mock implementations ---

type mockAssessmentRepo struct {
	saveErr error
}

func (m *mockAssessmentRepo) Save(_ context.Context, _ *model.Assessment) error {
	return m.saveErr
}

func (m *mockAssessmentRepo) FindByID(_ context.Context, _ uuid.UUID) (*model.Assessment, error) {
	return nil, model.ErrAssessmentNotFound
}

func (m *mockAssessmentRepo) FindByFarmerID(_ context.Context, _ string, _, _ int) ([]*model.Assessment, error) {
	return nil, nil
}

type mockBundleRepo struct {
	bundles map[uuid.UUID]*bundle.Bundle
}

func (m *mockBundleRepo) Save(_ context.Context, b *bundle.Bundle) error {
	m.bundles[b.ID()] = b
	return nil
}

func (m *mockBundleRepo) FindByID(_ context.Context, id uuid.UUID) (*bundle.Bundle, error) {
	if b, ok := m.bundles[id]; ok {
		return b, nil
	}
	return nil, model.ErrBundleNotFound
}

func (m *mockBundleRepo) Activate(_ context.Context, _ uuid.UUID) error { return nil }

func (m *mockBundleRepo) FindActive(_ context.Context) (*bundle.Bundle, error) {
	return nil, model.ErrBundleNotFound
}

func (m *mockBundleRepo) List(_ context.Context, _, _ int) ([]port.BundleInfo, error) {
	return nil, nil
}

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildHandler(t *testing.T, b *bundle.Bundle, repo port.AssessmentRepository) *RiskServiceHandler {
	t.Helper()
	logger := testLogger()
	active := usecase.NewActiveBundle(b)
	bundles := &mockBundleRepo{bundles: map[uuid.UUID]*bundle.Bundle{}}
	if b != nil {
		bundles.bundles[b.ID()] = b
	}
	return NewRiskServiceHandler(
		usecase.NewScoreFarm(active, repo, nil, nil, logger),
		usecase.NewScoreBatch(active, nil, logger),
		usecase.NewGetModelInfo(active),
		usecase.NewActivateBundle(bundles, active, nil, nil, logger),
		logger,
	)
}

func requireGRPCCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status error, got %v", err)
	assert.Equal(t, code, st.Code())
}

// --- Tests ---

func TestScoreFarm(t *testing.T) {
	b := testutil.TrainedBundle(t)

	t.Run("nil record returns InvalidArgument", func(t *testing.T) {
		h := buildHandler(t, b, nil)
		_, err := h.ScoreFarm(context.Background(), &ScoreFarmRequest{})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("invalid record returns InvalidArgument", func(t *testing.T) {
		h := buildHandler(t, b, nil)
		rec := testutil.FarmRecord(func(r *model.FarmRecord) { r.Season = "summer" })
		_, err := h.ScoreFarm(context.Background(), &ScoreFarmRequest{Record: &rec})
		requireGRPCCode(t, err, codes.InvalidArgument)
		assert.Contains(t, err.Error(), "season")
	})

	t.Run("no bundle returns Unavailable", func(t *testing.T) {
		h := buildHandler(t, nil, nil)
		rec := testutil.FarmRecord()
		_, err := h.ScoreFarm(context.Background(), &ScoreFarmRequest{Record: &rec})
		requireGRPCCode(t, err, codes.Unavailable)
	})

	t.Run("happy path returns report", func(t *testing.T) {
		h := buildHandler(t, b, &mockAssessmentRepo{})
		rec := testutil.RainfedDroughtFarm()
		resp, err := h.ScoreFarm(context.Background(), &ScoreFarmRequest{Record: &rec})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AssessmentID)
		require.NotNil(t, resp.Report)
		testutil.AssertWellFormedReport(t, *resp.Report)
	})

	t.Run("save failure returns Internal", func(t *testing.T) {
		h := buildHandler(t, b, &mockAssessmentRepo{saveErr: errors.New("db error")})
		rec := testutil.FarmRecord()
		_, err := h.ScoreFarm(context.Background(), &ScoreFarmRequest{Record: &rec})
		requireGRPCCode(t, err, codes.Internal)
	})
}

func TestScoreBatch(t *testing.T) {
	b := testutil.TrainedBundle(t)
	h := buildHandler(t, b, nil)

	t.Run("empty returns InvalidArgument", func(t *testing.T) {
		_, err := h.ScoreBatch(context.Background(), &ScoreBatchRequest{})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("oversized returns InvalidArgument", func(t *testing.T) {
		recs := make([]model.FarmRecord, usecase.MaxBatchSize+1)
		_, err := h.ScoreBatch(context.Background(), &ScoreBatchRequest{Records: recs})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("scores in order", func(t *testing.T) {
		resp, err := h.ScoreBatch(context.Background(), &ScoreBatchRequest{
			Records: []model.FarmRecord{testutil.FarmRecord(), testutil.RainfedDroughtFarm()},
		})
		require.NoError(t, err)
		assert.Equal(t, int32(2), resp.Count)
		assert.Equal(t, b.ID().String(), resp.BundleID)
		assert.Equal(t, "F-DROUGHT", resp.Reports[1].FarmerID)
	})
}

func TestGetModelInfo(t *testing.T) {
	resp, err := buildHandler(t, testutil.TrainedBundle(t), nil).GetModelInfo(context.Background(), &GetModelInfoRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Info.TopFeatures, 10)

	_, err = buildHandler(t, nil, nil).GetModelInfo(context.Background(), &GetModelInfoRequest{})
	requireGRPCCode(t, err, codes.Unavailable)
}

func TestActivateBundle(t *testing.T) {
	b := testutil.TrainedBundle(t)
	h := buildHandler(t, b, nil)

	t.Run("invalid id returns InvalidArgument", func(t *testing.T) {
		_, err := h.ActivateBundle(context.Background(), &ActivateBundleRequest{BundleID: "bad-uuid"})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("unknown bundle returns NotFound", func(t *testing.T) {
		_, err := h.ActivateBundle(context.Background(), &ActivateBundleRequest{BundleID: testutil.TestBundleID2.String()})
		requireGRPCCode(t, err, codes.NotFound)
	})

	t.Run("activates stored bundle", func(t *testing.T) {
		resp, err := h.ActivateBundle(context.Background(), &ActivateBundleRequest{BundleID: b.ID().String()})
		require.NoError(t, err)
		assert.Equal(t, b.ID().String(), resp.BundleID)
	})

	t.Run("without use case returns Unimplemented", func(t *testing.T) {
		logger := testLogger()
		active := usecase.NewActiveBundle(b)
		bare := NewRiskServiceHandler(nil, nil, usecase.NewGetModelInfo(active), nil, logger)
		_, err := bare.ActivateBundle(context.Background(), &ActivateBundleRequest{BundleID: b.ID().String()})
		requireGRPCCode(t, err, codes.Unimplemented)
	})
}
