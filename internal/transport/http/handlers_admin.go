package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"acredita/internal/adminconfig"
	"acredita/internal/audit"
	"acredita/internal/guard"
	"acredita/internal/transport/http/shared"
	"acredita/pkg/domainerrors"
	"acredita/pkg/requestcontext"
)

const defaultAuditLimit = 50

// AdminHandler handles configuration management and the audit trail.
type AdminHandler struct {
	svc      *adminconfig.Service
	auditor  *audit.Publisher
	activity *audit.ActivityLog
	logger   *slog.Logger
}

func NewAdminHandler(svc *adminconfig.Service, auditor *audit.Publisher, activity *audit.ActivityLog, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, auditor: auditor, activity: activity, logger: logger}
}

// Register registers the admin routes with the chi router.
func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/admin/rules", h.handleListRules)
	r.Patch("/admin/rules/{id}", h.handleUpdateRule)
	r.Get("/admin/templates", h.handleListTemplates)
	r.Patch("/admin/templates/{id}", h.handleUpdateTemplate)
	r.Get("/admin/mappings", h.handleListMappings)
	r.Patch("/admin/mappings/{id}", h.handleUpdateMapping)
	r.Get("/admin/audit", h.handleListAudit)
	r.Get("/admin/audit/{entityType}/{entityID}", h.handleAuditByEntity)
	r.Get("/admin/activity", h.handleListActivity)
}

type updateRuleRequest struct {
	guard.RuleUpdate
	ChangeReason string `json:"changeReason,omitempty"`
}

type updateTemplateRequest struct {
	guard.TemplateUpdate
	ChangeReason string `json:"changeReason,omitempty"`
}

type updateMappingRequest struct {
	guard.MappingUpdate
	ChangeReason string `json:"changeReason,omitempty"`
}

func (h *AdminHandler) handleListRules(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListRules(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "failed to list rules", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req updateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.svc.UpdateRule(r.Context(), id, req.RuleUpdate, req.ChangeReason)
	if err != nil {
		h.writeServiceError(w, r, "failed to update rule", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListTemplates(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "failed to list templates", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req updateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.svc.UpdateTemplate(r.Context(), id, req.TemplateUpdate, req.ChangeReason)
	if err != nil {
		h.writeServiceError(w, r, "failed to update template", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) handleListMappings(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListMappings(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "failed to list mappings", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) handleUpdateMapping(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req updateMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.svc.UpdateMapping(r.Context(), id, req.MappingUpdate, req.ChangeReason)
	if err != nil {
		h.writeServiceError(w, r, "failed to update mapping", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	entries, err := h.auditor.ListRecent(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, "failed to list audit entries", err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}

func (h *AdminHandler) handleAuditByEntity(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	entityID := chi.URLParam(r, "entityID")
	entries, err := h.auditor.ListByEntity(r.Context(), entityType, entityID)
	if err != nil {
		h.writeServiceError(w, r, "failed to list audit entries", err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}

func (h *AdminHandler) handleListActivity(w http.ResponseWriter, r *http.Request) {
	activities, err := h.activity.ListRecent(r.Context(), defaultAuditLimit)
	if err != nil {
		h.writeServiceError(w, r, "failed to list activity feed", err)
		return
	}
	if activities == nil {
		activities = []audit.Activity{}
	}
	shared.WriteJSON(w, http.StatusOK, activities)
}

func (h *AdminHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *AdminHandler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if !shared.IsDomainError(err) {
		h.logger.ErrorContext(r.Context(), msg,
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
	shared.WriteError(w, err)
}
