package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/molscore/internal/application/scoring"
	domain "github.com/turtacn/molscore/internal/domain/scoring"
	"github.com/turtacn/molscore/internal/infrastructure/monitoring/logging"
)

// Scorer is the slice of the scoring service the HTTP API needs.
type Scorer interface {
	Score(ctx context.Context, req scoring.Request) (*scoring.Result, error)
	Properties() []scoring.PropertyInfo
	Preview(property string) (*scoring.Preview, error)
	DefaultProperty() domain.Selector
}

// ScoreRequest is the body of POST /api/v1/scores.
type ScoreRequest struct {
	Molecule string `json:"molecule"`
	Property string `json:"property,omitempty"`
}

// PropertiesResponse lists the accepted properties.
type PropertiesResponse struct {
	Default    string                 `json:"default"`
	Properties []scoring.PropertyInfo `json:"properties"`
}

// ScoreHandler serves the scoring endpoints.
type ScoreHandler struct {
	scorer  Scorer
	maxBody int64
	logger  logging.Logger
}

// NewScoreHandler creates a ScoreHandler.  maxBody <= 0 selects the package
// default.
func NewScoreHandler(scorer Scorer, maxBody int64, logger logging.Logger) *ScoreHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ScoreHandler{scorer: scorer, maxBody: maxBody, logger: logger}
}

// Score handles POST /api/v1/scores.
func (h *ScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.scorer.Score(r.Context(), scoring.Request{
		RequestID: chimw.GetReqID(r.Context()),
		Molecule:  req.Molecule,
		Property:  req.Property,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListProperties handles GET /api/v1/properties.
func (h *ScoreHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PropertiesResponse{
		Default:    h.scorer.DefaultProperty().String(),
		Properties: h.scorer.Properties(),
	})
}

// PreviewJob handles GET /api/v1/properties/{property}/job.
func (h *ScoreHandler) PreviewJob(w http.ResponseWriter, r *http.Request) {
	pv, err := h.scorer.Preview(chi.URLParam(r, "property"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pv)
}

//Personal.AI order the ending
