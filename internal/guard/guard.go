// Package guard inspects configuration edits for severity-reducing changes.
// A critical change is one that makes the evaluation model more lenient; it
// requires an explicit justification before it may be applied. Pure domain
// logic - no I/O, no side effects.
package guard

import (
	"acredita/internal/report"
	"acredita/internal/rules"
)

// RuleUpdate is a partial update to an AdminRule. Nil fields are untouched.
type RuleUpdate struct {
	DomainKey               *string            `json:"domainKey,omitempty"`
	Trigger                 *rules.TriggerKey  `json:"triggerKey,omitempty"`
	RulePriority            *int               `json:"rulePriority,omitempty"`
	ForcesMinimumStatus     *rules.FinalStatus `json:"forcesMinimumStatus,omitempty"`
	BlocksApproval          *bool              `json:"blocksApproval,omitempty"`
	RequiresCapa            *bool              `json:"requiresCapa,omitempty"`
	RequiredActionText      *string            `json:"requiredActionText,omitempty"`
	EvidenceRequiredText    *string            `json:"evidenceRequiredText,omitempty"`
	RecommendedTimelineDays *int               `json:"recommendedTimelineDays,omitempty"`
	Active                  *bool              `json:"active,omitempty"`
}

// TemplateUpdate is a partial update to a ReportTemplate.
type TemplateUpdate struct {
	ExecutiveSummaryText   *string            `json:"executiveSummaryText,omitempty"`
	ReevaluationClauseText *string            `json:"reevaluationClauseText,omitempty"`
	DomainParagraphs       *map[string]string `json:"domainParagraphTemplates,omitempty"`
}

// MappingUpdate is a partial update to a ScoreStatusMapping.
type MappingUpdate struct {
	MinScore    *int         `json:"minScore,omitempty"`
	MaxScore    *int         `json:"maxScore,omitempty"`
	StatusLabel *rules.Label `json:"statusLabel,omitempty"`
}

// DetectCriticalRuleChange reports whether applying updates to the existing
// rule would reduce the strictness of the evaluation model:
//   - forcesMinimumStatus resolves to a strictly less severe status,
//   - blocksApproval transitions true -> false,
//   - a blocking rule is deactivated.
//
// Tightening is never critical.
func DetectCriticalRuleChange(existing rules.AdminRule, updates RuleUpdate) bool {
	if updates.ForcesMinimumStatus != nil &&
		updates.ForcesMinimumStatus.Severity() < existing.ForcesMinimumStatus.Severity() {
		return true
	}
	if updates.BlocksApproval != nil && existing.BlocksApproval && !*updates.BlocksApproval {
		return true
	}
	if updates.Active != nil && existing.Active && !*updates.Active && existing.BlocksApproval {
		return true
	}
	return false
}

// DetectCriticalTemplateChange flags edits to the executive summary of the
// "Not Approved" template; that text is the rejection rationale shown to
// sites and regulators.
func DetectCriticalTemplateChange(existing report.ReportTemplate, updates TemplateUpdate) bool {
	return existing.StatusType == rules.StatusNotApproved &&
		updates.ExecutiveSummaryText != nil &&
		*updates.ExecutiveSummaryText != existing.ExecutiveSummaryText
}

// DetectCriticalMappingChange flags widening of the "Adequate" band by
// lowering its minimum score.
func DetectCriticalMappingChange(existing rules.ScoreStatusMapping, updates MappingUpdate) bool {
	return existing.StatusLabel == rules.LabelAdequate &&
		updates.MinScore != nil &&
		*updates.MinScore < existing.MinScore
}

// ApplyRuleUpdate returns the rule with non-nil update fields applied and the
// version number bumped.
func ApplyRuleUpdate(existing rules.AdminRule, updates RuleUpdate) rules.AdminRule {
	out := existing
	if updates.DomainKey != nil {
		out.DomainKey = *updates.DomainKey
	}
	if updates.Trigger != nil {
		out.Trigger = *updates.Trigger
	}
	if updates.RulePriority != nil {
		out.RulePriority = *updates.RulePriority
	}
	if updates.ForcesMinimumStatus != nil {
		out.ForcesMinimumStatus = *updates.ForcesMinimumStatus
	}
	if updates.BlocksApproval != nil {
		out.BlocksApproval = *updates.BlocksApproval
	}
	if updates.RequiresCapa != nil {
		out.RequiresCapa = *updates.RequiresCapa
	}
	if updates.RequiredActionText != nil {
		out.RequiredActionText = *updates.RequiredActionText
	}
	if updates.EvidenceRequiredText != nil {
		out.EvidenceRequiredText = *updates.EvidenceRequiredText
	}
	if updates.RecommendedTimelineDays != nil {
		out.RecommendedTimelineDays = *updates.RecommendedTimelineDays
	}
	if updates.Active != nil {
		out.Active = *updates.Active
	}
	out.VersionNumber = existing.VersionNumber + 1
	return out
}

// ApplyTemplateUpdate returns the template with non-nil fields applied.
func ApplyTemplateUpdate(existing report.ReportTemplate, updates TemplateUpdate) report.ReportTemplate {
	out := existing
	if updates.ExecutiveSummaryText != nil {
		out.ExecutiveSummaryText = *updates.ExecutiveSummaryText
	}
	if updates.ReevaluationClauseText != nil {
		out.ReevaluationClauseText = *updates.ReevaluationClauseText
	}
	if updates.DomainParagraphs != nil {
		out.DomainParagraphTemplates = *updates.DomainParagraphs
	}
	return out
}

// ApplyMappingUpdate returns the mapping with non-nil fields applied.
func ApplyMappingUpdate(existing rules.ScoreStatusMapping, updates MappingUpdate) rules.ScoreStatusMapping {
	out := existing
	if updates.MinScore != nil {
		out.MinScore = *updates.MinScore
	}
	if updates.MaxScore != nil {
		out.MaxScore = *updates.MaxScore
	}
	if updates.StatusLabel != nil {
		out.StatusLabel = *updates.StatusLabel
	}
	return out
}
