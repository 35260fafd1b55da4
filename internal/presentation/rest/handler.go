package rest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mkdev28/Cropp/internal/application/dto"
	"github.com/mkdev28/Cropp/internal/application/usecase"
	"github.com/mkdev28/Cropp/internal/presentation/schema"
)

const (
	maxRecordBody = 64 << 10
	maxBatchBody  = 8 << 20
)

// Handler serves the scoring API.
type Handler struct {
	scoreFarm       *usecase.ScoreFarm
	scoreBatch      *usecase.ScoreBatch
	explainFarm     *usecase.ExplainFarm
	modelInfo       *usecase.GetModelInfo
	getAssessment   *usecase.GetAssessment
	listAssessments *usecase.ListAssessments
	validator       *schema.Validator
	logger          *slog.Logger
}

// Deps are the use cases behind the API. The assessment use cases are
// optional; their routes are not mounted without them.
type Deps struct {
	ScoreFarm       *usecase.ScoreFarm
	ScoreBatch      *usecase.ScoreBatch
	ExplainFarm     *usecase.ExplainFarm
	ModelInfo       *usecase.GetModelInfo
	GetAssessment   *usecase.GetAssessment
	ListAssessments *usecase.ListAssessments
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps, validator *schema.Validator, logger *slog.Logger) *Handler {
	return &Handler{
		scoreFarm:       deps.ScoreFarm,
		scoreBatch:      deps.ScoreBatch,
		explainFarm:     deps.ExplainFarm,
		modelInfo:       deps.ModelInfo,
		getAssessment:   deps.GetAssessment,
		listAssessments: deps.ListAssessments,
		validator:       validator,
		logger:          logger,
	}
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, Response{Error: fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit)})
			return nil, false
		}
		writeJSON(w, http.StatusBadRequest, Response{Error: "failed to read body"})
		return nil, false
	}
	return body, true
}

// Predict handles POST /api/v1/predict.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r, maxRecordBody)
	if !ok {
		return
	}
	rec, err := h.validator.DecodeRecord(body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp, err := h.scoreFarm.Execute(r.Context(), dto.ScoreFarmRequest{Record: rec})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

// PredictBatch handles POST /api/v1/predict/batch.
func (h *Handler) PredictBatch(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r, maxBatchBody)
	if !ok {
		return
	}
	recs, err := h.validator.DecodeBatch(body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp, err := h.scoreBatch.Execute(r.Context(), dto.ScoreBatchRequest{Records: recs})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

// Explain handles POST /api/v1/explain.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r, maxRecordBody)
	if !ok {
		return
	}
	rec, err := h.validator.DecodeRecord(body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp, err := h.explainFarm.Execute(r.Context(), dto.ScoreFarmRequest{Record: rec})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

// ModelInfo handles GET /api/v1/model/info.
func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	resp, err := h.modelInfo.Execute(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

// GetAssessment handles GET /api/v1/assessments/{id}.
func (h *Handler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Error: "invalid assessment id"})
		return
	}

	resp, err := h.getAssessment.Execute(r.Context(), dto.GetAssessmentRequest{AssessmentID: id})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

// ListAssessments handles GET /api/v1/farmers/{farmerID}/assessments.
func (h *Handler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	req := dto.ListAssessmentsRequest{FarmerID: chi.URLParam(r, "farmerID")}
	q := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &req.Limit, "offset": &req.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Error: "invalid " + name})
			return
		}
		*dst = n
	}

	resp, err := h.listAssessments.Execute(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, resp)
}
