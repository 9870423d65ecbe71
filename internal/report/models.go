// Package report assembles versioned, immutable report snapshots and manages
// their integrity hash and lock/acknowledge lifecycle.
package report

import (
	"time"

	"github.com/google/uuid"

	"acredita/internal/rules"
	"acredita/internal/scoring"
)

// Site is the evaluated clinical site. Site CRUD lives outside this core; the
// assembler only needs existence and the display name.
type Site struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReportTemplate holds the narrative text for one final status.
type ReportTemplate struct {
	ID                       uuid.UUID         `json:"id"`
	StatusType               rules.FinalStatus `json:"statusType"`
	ExecutiveSummaryText     string            `json:"executiveSummaryText"`
	ReevaluationClauseText   string            `json:"reevaluationClauseText"`
	DomainParagraphTemplates map[string]string `json:"domainParagraphTemplates,omitempty"`
}

// ScoreSnapshot freezes the calculator output embedded in a report.
type ScoreSnapshot struct {
	GlobalScore    int                `json:"globalScore"`
	ScoringStatus  scoring.Status     `json:"scoringStatus"`
	CategoryScores map[string]float64 `json:"categoryScores"`
}

// DomainEvaluation is one report section: a visible domain with its rounded
// score and resolved qualitative label.
type DomainEvaluation struct {
	DomainKey    string      `json:"domainKey"`
	DisplayName  string      `json:"displayName"`
	DisplayOrder int         `json:"displayOrder"`
	Score        int         `json:"score"`
	Label        rules.Label `json:"label"`
}

// NarrativeSnapshot is the rendered narrative embedded in the report,
// independent of later template edits.
type NarrativeSnapshot struct {
	StatusType         rules.FinalStatus  `json:"statusType"`
	ExecutiveSummary   string             `json:"executiveSummary"`
	ReevaluationClause string             `json:"reevaluationClause"`
	DomainParagraphs   map[string]string  `json:"domainParagraphs,omitempty"`
	DomainEvaluations  []DomainEvaluation `json:"domainEvaluations"`
}

// Report is the versioned snapshot produced by one generation event. All
// fields are immutable after creation except IsLocked, which flips one way on
// the first acknowledgment.
type Report struct {
	ID                 uuid.UUID                  `json:"id"`
	SiteID             uuid.UUID                  `json:"siteId"`
	ReportVersion      string                     `json:"reportVersion"`
	GeneratedByUserID  string                     `json:"generatedByUserId"`
	GeneratedByName    string                     `json:"generatedByName"`
	StatusAtGeneration scoring.Status             `json:"statusAtGeneration"`
	FinalStatus        rules.FinalStatus          `json:"finalStatus"`
	ScoreSnapshot      ScoreSnapshot              `json:"scoreSnapshot"`
	RulesSnapshot      []rules.AdminRule          `json:"rulesSnapshot"`
	TemplatesSnapshot  []ReportTemplate           `json:"templatesSnapshot"`
	MappingsSnapshot   []rules.ScoreStatusMapping `json:"mappingsSnapshot"`
	Narrative          NarrativeSnapshot          `json:"narrativeSnapshot"`
	CapaItems          []rules.CapaItem           `json:"capaItems"`
	HashSHA256         string                     `json:"hashSha256"`
	IsLocked           bool                       `json:"isLocked"`
	PreviousReportID   *uuid.UUID                 `json:"previousReportId,omitempty"`
	GeneratedAt        time.Time                  `json:"generatedAt"`
}

// Signature is one acknowledgment record. Signatures are append-only and
// never deduplicated; locking happens on the first successful one.
type Signature struct {
	ID               uuid.UUID `json:"id"`
	ReportID         uuid.UUID `json:"reportId"`
	SignedByName     string    `json:"signedByName"`
	SignedByRole     string    `json:"signedByRole"`
	IPAddress        string    `json:"ipAddress,omitempty"`
	UserAgent        string    `json:"userAgent,omitempty"`
	Device           string    `json:"device,omitempty"`
	HashAtSignature  string    `json:"hashAtSignature"`
	SignatureMethod  string    `json:"signatureMethod"`
	SignaturePayload string    `json:"signaturePayload,omitempty"`
	SignedAt         time.Time `json:"signedAtUtc"`
}
