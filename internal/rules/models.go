// Package rules evaluates admin-defined rules against per-domain scores to
// produce a final approval status, and derives corrective-action items from
// the rules that triggered. Everything here is pure domain logic - no I/O,
// no side effects.
package rules

import (
	"github.com/google/uuid"

	"acredita/internal/scoring"
)

// FinalStatus is the approval status a report carries after rule evaluation.
type FinalStatus string

const (
	StatusApproved              FinalStatus = "Approved"
	StatusConditionallyApproved FinalStatus = "Conditionally Approved"
	StatusNotApproved           FinalStatus = "Not Approved"
)

// Severity orders statuses by strictness. Transitions during one evaluation
// pass may only increase severity.
func (s FinalStatus) Severity() int {
	switch s {
	case StatusApproved:
		return 1
	case StatusConditionallyApproved:
		return 2
	case StatusNotApproved:
		return 3
	}
	return 0
}

// FromScoringStatus seeds the final status from the calculator's verdict.
func FromScoringStatus(status scoring.Status) FinalStatus {
	switch status {
	case scoring.StatusApproved:
		return StatusApproved
	case scoring.StatusConditional:
		return StatusConditionallyApproved
	}
	return StatusNotApproved
}

// Domain is a named evaluation area used to organize rules, scores, and
// report sections. Domains referenced by historical reports are never
// deleted; report reproducibility depends on their stability.
type Domain struct {
	DomainKey         string `json:"domainKey"`
	DisplayName       string `json:"displayName"`
	Description       string `json:"description,omitempty"`
	DisplayOrder      int    `json:"displayOrder"`
	IsVisibleInReport bool   `json:"isVisibleInReport"`
}

// Label is the qualitative band a domain score resolves to.
type Label string

const (
	LabelAdequate          Label = "Adequate"
	LabelPartiallyAdequate Label = "Partially Adequate"
	LabelCriticalGap       Label = "Critical Gap"
	LabelNotEvidenced      Label = "Not Evidenced"
)

// TriggerKey selects when a rule fires. Besides an exact label it supports
// two wildcard variants.
type TriggerKey string

const (
	// TriggerAnyGap fires on Critical Gap and Not Evidenced.
	TriggerAnyGap TriggerKey = "any_gap"
	// TriggerBelowAdequate fires on anything that is not Adequate.
	TriggerBelowAdequate TriggerKey = "below_adequate"
)

// Matches reports whether the trigger fires for the resolved label.
func (t TriggerKey) Matches(label Label) bool {
	switch t {
	case TriggerAnyGap:
		return label == LabelCriticalGap || label == LabelNotEvidenced
	case TriggerBelowAdequate:
		return label != LabelAdequate
	default:
		return Label(t) == label
	}
}

// AdminRule is an admin-defined gate rule evaluated against a domain's
// resolved label. Only active rules participate; rulePriority orders
// evaluation (higher first).
type AdminRule struct {
	ID                      uuid.UUID   `json:"id"`
	DomainKey               string      `json:"domainKey"`
	Trigger                 TriggerKey  `json:"triggerKey"`
	RulePriority            int         `json:"rulePriority"`
	ForcesMinimumStatus     FinalStatus `json:"forcesMinimumStatus"`
	BlocksApproval          bool        `json:"blocksApproval"`
	RequiresCapa            bool        `json:"requiresCapa"`
	RequiredActionText      string      `json:"requiredActionText,omitempty"`
	EvidenceRequiredText    string      `json:"evidenceRequiredText,omitempty"`
	RecommendedTimelineDays int         `json:"recommendedTimelineDays,omitempty"`
	Active                  bool        `json:"active"`
	VersionNumber           int         `json:"versionNumber"`
}

// ScoreStatusMapping partitions [0,100] into qualitative labels. Ranges are
// non-overlapping by convention, not enforcement.
type ScoreStatusMapping struct {
	ID          uuid.UUID `json:"id"`
	MinScore    int       `json:"minScore"`
	MaxScore    int       `json:"maxScore"`
	StatusLabel Label     `json:"statusLabel"`
}

// CapaItem is a corrective-action item derived from a triggered rule.
type CapaItem struct {
	RuleID           uuid.UUID `json:"ruleId"`
	DomainKey        string    `json:"domainKey"`
	DomainName       string    `json:"domainName"`
	RequiredAction   string    `json:"requiredAction"`
	EvidenceRequired string    `json:"evidenceRequired"`
	TimelineDays     int       `json:"timelineDays"`
	Priority         int       `json:"priority"`
}

// Outcome is the result of one rule evaluation pass.
type Outcome struct {
	FinalStatus    FinalStatus `json:"finalStatus"`
	TriggeredRules []AdminRule `json:"triggeredRules"`
}
