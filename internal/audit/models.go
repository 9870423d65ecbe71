// Package audit captures the append-only trail for configuration mutations
// and report lifecycle events. Entries are transport-agnostic so stores and
// sinks can fan out.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entity types covered by the trail.
const (
	EntityReport         = "report"
	EntityAdminRule      = "admin_rule"
	EntityReportTemplate = "report_template"
	EntityScoreMapping   = "score_mapping"
)

// Action types.
const (
	ActionReportGenerated    = "report_generated"
	ActionReportAcknowledged = "report_acknowledged"
	ActionRuleUpdated        = "rule_updated"
	ActionTemplateUpdated    = "template_updated"
	ActionMappingUpdated     = "mapping_updated"
)

// Entry is one audit record. BeforeState/AfterState hold the entity encoded
// as JSON at the persistence boundary; IsCriticalChange marks
// severity-reducing configuration edits together with their justification.
type Entry struct {
	ID               uuid.UUID       `json:"id"`
	EntityType       string          `json:"entityType"`
	EntityID         string          `json:"entityId"`
	ActionType       string          `json:"actionType"`
	ActorUserID      string          `json:"actorUserId,omitempty"`
	ActorName        string          `json:"actorName"`
	IPAddress        string          `json:"ipAddress,omitempty"`
	UserAgent        string          `json:"userAgent,omitempty"`
	BeforeState      json.RawMessage `json:"beforeStateJson,omitempty"`
	AfterState       json.RawMessage `json:"afterStateJson,omitempty"`
	IsCriticalChange bool            `json:"isCriticalChange"`
	ChangeReason     string          `json:"changeReason,omitempty"`
	CreatedAt        time.Time       `json:"createdAtUtc"`
}

// Activity is the human-readable counterpart of an Entry, shown on the
// dashboard activity feed.
type Activity struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	ActorName string    `json:"actorName"`
	CreatedAt time.Time `json:"createdAt"`
}
