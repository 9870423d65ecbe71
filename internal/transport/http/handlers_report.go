package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"acredita/internal/report"
	"acredita/internal/transport/http/shared"
	"acredita/pkg/domainerrors"
	"acredita/pkg/requestcontext"
)

// ReportHandler handles report lifecycle endpoints.
type ReportHandler struct {
	svc    *report.Service
	logger *slog.Logger
}

func NewReportHandler(svc *report.Service, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, logger: logger}
}

// Register registers the report routes with the chi router.
func (h *ReportHandler) Register(r chi.Router) {
	r.Post("/reports/generate", h.handleGenerate)
	r.Get("/reports/{reportID}", h.handleGet)
	r.Get("/reports/{reportID}/verify", h.handleVerify)
	r.Get("/reports/{reportID}/signatures", h.handleSignatures)
	r.Post("/reports/{reportID}/acknowledge", h.handleAcknowledge)
}

func (h *ReportHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req report.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.SiteID == uuid.Nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "siteId is required"))
		return
	}

	rep, err := h.svc.Generate(ctx, req)
	if err != nil {
		h.writeServiceError(w, r, "failed to generate report", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, rep)
}

func (h *ReportHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	reportID, ok := h.reportID(w, r)
	if !ok {
		return
	}
	rep, err := h.svc.Get(r.Context(), reportID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load report", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rep)
}

func (h *ReportHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	reportID, ok := h.reportID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.Verify(r.Context(), reportID)
	if err != nil {
		h.writeServiceError(w, r, "failed to verify report", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *ReportHandler) handleSignatures(w http.ResponseWriter, r *http.Request) {
	reportID, ok := h.reportID(w, r)
	if !ok {
		return
	}
	sigs, err := h.svc.Signatures(r.Context(), reportID)
	if err != nil {
		h.writeServiceError(w, r, "failed to list signatures", err)
		return
	}
	if sigs == nil {
		sigs = []report.Signature{}
	}
	shared.WriteJSON(w, http.StatusOK, sigs)
}

func (h *ReportHandler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	reportID, ok := h.reportID(w, r)
	if !ok {
		return
	}

	var req report.AcknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	sig, err := h.svc.Acknowledge(r.Context(), reportID, req)
	if err != nil {
		h.writeServiceError(w, r, "failed to acknowledge report", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, sig)
}

func (h *ReportHandler) reportID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "reportID"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid report id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *ReportHandler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if !shared.IsDomainError(err) {
		h.logger.ErrorContext(r.Context(), msg,
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
	shared.WriteError(w, err)
}
