// Package adminconfig manages mutations to the evaluation configuration:
// admin rules, report templates, and score-to-label mappings. Every mutation
// passes through the critical-change guard and lands in the audit trail.
package adminconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"acredita/internal/audit"
	"acredita/internal/guard"
	"acredita/internal/platform/metrics"
	"acredita/internal/report"
	"acredita/internal/rules"
	"acredita/pkg/domainerrors"
	"acredita/pkg/requestcontext"
)

type RuleStore interface {
	Save(ctx context.Context, rule rules.AdminRule) error
	FindByID(ctx context.Context, id uuid.UUID) (rules.AdminRule, error)
	List(ctx context.Context) ([]rules.AdminRule, error)
}

type TemplateStore interface {
	Save(ctx context.Context, tpl report.ReportTemplate) error
	FindByID(ctx context.Context, id uuid.UUID) (report.ReportTemplate, error)
	List(ctx context.Context) ([]report.ReportTemplate, error)
}

type MappingStore interface {
	Save(ctx context.Context, m rules.ScoreStatusMapping) error
	FindByID(ctx context.Context, id uuid.UUID) (rules.ScoreStatusMapping, error)
	List(ctx context.Context) ([]rules.ScoreStatusMapping, error)
}

// Service applies guarded configuration updates.
type Service struct {
	ruleStore    RuleStore
	tplStore     TemplateStore
	mappingStore MappingStore
	auditor      *audit.Publisher
	activity     *audit.ActivityLog
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewService(
	ruleStore RuleStore,
	tplStore TemplateStore,
	mappingStore MappingStore,
	auditor *audit.Publisher,
	activity *audit.ActivityLog,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		ruleStore:    ruleStore,
		tplStore:     tplStore,
		mappingStore: mappingStore,
		auditor:      auditor,
		activity:     activity,
		metrics:      m,
		logger:       logger,
	}
}

// UpdateRule applies a partial rule update. A severity-reducing change is
// rejected unless a non-empty change reason accompanies it; the rejection
// carries the critical flag so clients can prompt for a justification and
// resubmit the same payload.
func (s *Service) UpdateRule(ctx context.Context, id uuid.UUID, updates guard.RuleUpdate, reason string) (rules.AdminRule, error) {
	existing, err := s.ruleStore.FindByID(ctx, id)
	if err != nil {
		if domainerrors.Is(err, domainerrors.CodeNotFound) {
			return rules.AdminRule{}, domainerrors.Newf(domainerrors.CodeNotFound, "rule %s not found", id)
		}
		return rules.AdminRule{}, fmt.Errorf("load rule: %w", err)
	}

	critical := guard.DetectCriticalRuleChange(existing, updates)
	if critical && reason == "" {
		return rules.AdminRule{}, domainerrors.NewCritical(domainerrors.CodeCriticalChange,
			"this change reduces evaluation strictness and requires a change reason")
	}

	updated := guard.ApplyRuleUpdate(existing, updates)
	if err := s.ruleStore.Save(ctx, updated); err != nil {
		return rules.AdminRule{}, fmt.Errorf("save rule: %w", err)
	}

	s.recordChange(ctx, audit.EntityAdminRule, id.String(), audit.ActionRuleUpdated,
		existing, updated, critical, reason,
		fmt.Sprintf("Rule for %s updated", updated.DomainKey))
	return updated, nil
}

// UpdateTemplate applies a partial template update under the same guard
// contract as UpdateRule.
func (s *Service) UpdateTemplate(ctx context.Context, id uuid.UUID, updates guard.TemplateUpdate, reason string) (report.ReportTemplate, error) {
	existing, err := s.tplStore.FindByID(ctx, id)
	if err != nil {
		if domainerrors.Is(err, domainerrors.CodeNotFound) {
			return report.ReportTemplate{}, domainerrors.Newf(domainerrors.CodeNotFound, "template %s not found", id)
		}
		return report.ReportTemplate{}, fmt.Errorf("load template: %w", err)
	}

	critical := guard.DetectCriticalTemplateChange(existing, updates)
	if critical && reason == "" {
		return report.ReportTemplate{}, domainerrors.NewCritical(domainerrors.CodeCriticalChange,
			"editing the rejection narrative requires a change reason")
	}

	updated := guard.ApplyTemplateUpdate(existing, updates)
	if err := s.tplStore.Save(ctx, updated); err != nil {
		return report.ReportTemplate{}, fmt.Errorf("save template: %w", err)
	}

	s.recordChange(ctx, audit.EntityReportTemplate, id.String(), audit.ActionTemplateUpdated,
		existing, updated, critical, reason,
		fmt.Sprintf("Template for status %q updated", updated.StatusType))
	return updated, nil
}

// UpdateMapping applies a partial score-mapping update under the same guard
// contract as UpdateRule.
func (s *Service) UpdateMapping(ctx context.Context, id uuid.UUID, updates guard.MappingUpdate, reason string) (rules.ScoreStatusMapping, error) {
	existing, err := s.mappingStore.FindByID(ctx, id)
	if err != nil {
		if domainerrors.Is(err, domainerrors.CodeNotFound) {
			return rules.ScoreStatusMapping{}, domainerrors.Newf(domainerrors.CodeNotFound, "mapping %s not found", id)
		}
		return rules.ScoreStatusMapping{}, fmt.Errorf("load mapping: %w", err)
	}

	critical := guard.DetectCriticalMappingChange(existing, updates)
	if critical && reason == "" {
		return rules.ScoreStatusMapping{}, domainerrors.NewCritical(domainerrors.CodeCriticalChange,
			"widening the Adequate band requires a change reason")
	}

	updated := guard.ApplyMappingUpdate(existing, updates)
	if err := s.mappingStore.Save(ctx, updated); err != nil {
		return rules.ScoreStatusMapping{}, fmt.Errorf("save mapping: %w", err)
	}

	s.recordChange(ctx, audit.EntityScoreMapping, id.String(), audit.ActionMappingUpdated,
		existing, updated, critical, reason,
		fmt.Sprintf("Score band %q updated", updated.StatusLabel))
	return updated, nil
}

// ListRules returns all rules, active or not, for the admin UI.
func (s *Service) ListRules(ctx context.Context) ([]rules.AdminRule, error) {
	return s.ruleStore.List(ctx)
}

func (s *Service) ListTemplates(ctx context.Context) ([]report.ReportTemplate, error) {
	return s.tplStore.List(ctx)
}

func (s *Service) ListMappings(ctx context.Context) ([]rules.ScoreStatusMapping, error) {
	return s.mappingStore.List(ctx)
}

func (s *Service) recordChange(
	ctx context.Context,
	entityType, entityID, action string,
	before, after any,
	critical bool,
	reason, activityMessage string,
) {
	entry := audit.Entry{
		EntityType:       entityType,
		EntityID:         entityID,
		ActionType:       action,
		BeforeState:      marshalState(before),
		AfterState:       marshalState(after),
		IsCriticalChange: critical,
		ChangeReason:     reason,
	}
	if s.auditor != nil {
		if err := s.auditor.Emit(ctx, entry); err != nil {
			s.logger.ErrorContext(ctx, "failed to emit audit entry",
				"error", err,
				"entity_id", entityID,
				"action", action,
			)
		}
	}
	if s.activity != nil {
		s.activity.Record(activityMessage, requestcontext.ActorName(ctx))
	}
	if critical {
		s.metrics.IncrementCriticalChanges()
		s.logger.WarnContext(ctx, "critical configuration change applied",
			"entity_type", entityType,
			"entity_id", entityID,
			"reason", reason,
		)
	}
}

func marshalState(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
