package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mkdev28/Cropp/internal/application/dto"
	"github.com/mkdev28/Cropp/internal/application/usecase"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/pkg/auth"
)

// Compile-time assertion that RiskServiceHandler implements RiskServiceServer.
var _ RiskServiceServer = (*RiskServiceHandler)(nil)

// RiskServiceHandler implements the gRPC RiskServiceServer interface.
type RiskServiceHandler struct {
	UnimplementedRiskServiceServer
	scoreFarm      *usecase.ScoreFarm
	scoreBatch     *usecase.ScoreBatch
	modelInfo      *usecase.GetModelInfo
	activateBundle *usecase.ActivateBundle
	logger         *slog.Logger
}

// NewRiskServiceHandler creates a new gRPC handler. activateBundle may be nil,
// in which case ActivateBundle is unimplemented.
func NewRiskServiceHandler(
	scoreFarm *usecase.ScoreFarm,
	scoreBatch *usecase.ScoreBatch,
	modelInfo *usecase.GetModelInfo,
	activateBundle *usecase.ActivateBundle,
	logger *slog.Logger,
) *RiskServiceHandler {
	return &RiskServiceHandler{
		scoreFarm:      scoreFarm,
		scoreBatch:     scoreBatch,
		modelInfo:      modelInfo,
		activateBundle: activateBundle,
		logger:         logger,
	}
}

// Proto-aligned request/response message types.

// ScoreFarmRequest represents the proto ScoreFarmRequest message.
type ScoreFarmRequest struct {
	Record *model.FarmRecord `json:"record"`
}

// ScoreFarmResponse represents the proto ScoreFarmResponse message.
type ScoreFarmResponse struct {
	AssessmentID string            `json:"assessment_id"`
	AssessedAt   string            `json:"assessed_at"`
	Report       *model.RiskReport `json:"report"`
}

// ScoreBatchRequest represents the proto ScoreBatchRequest message.
type ScoreBatchRequest struct {
	Records []model.FarmRecord `json:"records"`
}

// ScoreBatchResponse represents the proto ScoreBatchResponse message.
type ScoreBatchResponse struct {
	BundleID string             `json:"bundle_id"`
	Reports  []model.RiskReport `json:"reports"`
	Count    int32              `json:"count"`
}

// GetModelInfoRequest represents the proto GetModelInfoRequest message.
type GetModelInfoRequest struct{}

// GetModelInfoResponse represents the proto GetModelInfoResponse message.
type GetModelInfoResponse struct {
	Info *dto.ModelInfoResponse `json:"info"`
}

// ActivateBundleRequest represents the proto ActivateBundleRequest message.
type ActivateBundleRequest struct {
	BundleID string `json:"bundle_id"`
}

// ActivateBundleResponse represents the proto ActivateBundleResponse message.
type ActivateBundleResponse struct {
	BundleID         string `json:"bundle_id"`
	PreviousBundleID string `json:"previous_bundle_id"`
	ActivatedAt      string `json:"activated_at"`
}

// ScoreFarm handles a single-record scoring request.
func (h *RiskServiceHandler) ScoreFarm(ctx context.Context, req *ScoreFarmRequest) (*ScoreFarmResponse, error) {
	if req == nil || req.Record == nil {
		return nil, status.Error(codes.InvalidArgument, "record is required")
	}

	resp, err := h.scoreFarm.Execute(ctx, dto.ScoreFarmRequest{Record: *req.Record})
	if err != nil {
		return nil, h.toStatus(ctx, "score farm", err)
	}

	return &ScoreFarmResponse{
		AssessmentID: resp.AssessmentID.String(),
		AssessedAt:   resp.AssessedAt.Format(time.RFC3339Nano),
		Report:       &resp.Report,
	}, nil
}

// ScoreBatch handles a batch scoring request.
func (h *RiskServiceHandler) ScoreBatch(ctx context.Context, req *ScoreBatchRequest) (*ScoreBatchResponse, error) {
	if req == nil || len(req.Records) == 0 {
		return nil, status.Error(codes.InvalidArgument, "records are required")
	}
	resp, err := h.scoreBatch.Execute(ctx, dto.ScoreBatchRequest{Records: req.Records})
	if err != nil {
		return nil, h.toStatus(ctx, "score batch", err)
	}

	return &ScoreBatchResponse{
		BundleID: resp.BundleID.String(),
		Reports:  resp.Reports,
		Count:    int32(resp.Count),
	}, nil
}

// GetModelInfo describes the serving bundle.
func (h *RiskServiceHandler) GetModelInfo(ctx context.Context, _ *GetModelInfoRequest) (*GetModelInfoResponse, error) {
	info, err := h.modelInfo.Execute(ctx)
	if err != nil {
		return nil, h.toStatus(ctx, "get model info", err)
	}
	return &GetModelInfoResponse{Info: &info}, nil
}

// ActivateBundle puts a stored bundle into service.
func (h *RiskServiceHandler) ActivateBundle(ctx context.Context, req *ActivateBundleRequest) (*ActivateBundleResponse, error) {
	if h.activateBundle == nil {
		return h.UnimplementedRiskServiceServer.ActivateBundle(ctx, req)
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := uuid.Parse(req.BundleID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid bundle_id: %v", err)
	}

	caller := "anonymous"
	if claims, ok := auth.ClaimsFromContext(ctx); ok {
		caller = claims.Subject
	}
	h.logger.Info("activating bundle", slog.String("bundle_id", id.String()), slog.String("caller", caller))

	resp, err := h.activateBundle.Execute(ctx, dto.ActivateBundleRequest{BundleID: id})
	if err != nil {
		return nil, h.toStatus(ctx, "activate bundle", err)
	}

	return &ActivateBundleResponse{
		BundleID:         resp.BundleID.String(),
		PreviousBundleID: resp.PreviousBundleID.String(),
		ActivatedAt:      resp.ActivatedAt.Format(time.RFC3339Nano),
	}, nil
}

// toStatus maps domain errors onto gRPC status codes.
func (h *RiskServiceHandler) toStatus(ctx context.Context, op string, err error) error {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		parts := make([]string, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			parts = append(parts, f.Field+": "+f.Reason)
		}
		return status.Errorf(codes.InvalidArgument, "invalid farm record: %s", strings.Join(parts, "; "))
	case errors.Is(err, model.ErrNotReady):
		return status.Error(codes.Unavailable, "model not loaded")
	case errors.Is(err, model.ErrBundleNotFound), errors.Is(err, model.ErrAssessmentNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		h.logger.ErrorContext(ctx, "failed to "+op, slog.String("error", err.Error()))
		return status.Errorf(codes.Internal, "failed to %s", op)
	}
}
