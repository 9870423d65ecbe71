package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"acredita/internal/scoring"
	"acredita/internal/transport/http/shared"
	"acredita/internal/whatif"
	"acredita/pkg/domainerrors"
)

// ScoringHandler exposes the pure calculators: ad-hoc score preview and
// what-if rule simulation. Neither endpoint persists anything.
type ScoringHandler struct {
	cfg    scoring.ModelConfig
	logger *slog.Logger
}

func NewScoringHandler(cfg scoring.ModelConfig, logger *slog.Logger) *ScoringHandler {
	return &ScoringHandler{cfg: cfg, logger: logger}
}

// Register registers the scoring routes with the chi router.
func (h *ScoringHandler) Register(r chi.Router) {
	r.Post("/scoring/calculate", h.handleCalculate)
	r.Post("/whatif/simulate", h.handleSimulate)
}

type calculateRequest struct {
	Questions []scoring.Question `json:"questions"`
	Answers   scoring.Answers    `json:"answers"`
}

func (h *ScoringHandler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := scoring.Calculate(req.Answers, req.Questions, h.cfg)
	if err != nil {
		shared.WriteError(w, domainerrors.Newf(domainerrors.CodeBadRequest, "invalid submission: %v", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

type simulateRequest struct {
	Population []whatif.SiteEvaluation `json:"population"`
	Baseline   whatif.Config           `json:"baseline"`
	Draft      whatif.Config           `json:"draft"`
}

func (h *ScoringHandler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, whatif.Simulate(req.Population, req.Baseline, req.Draft))
}
