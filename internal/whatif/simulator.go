// Package whatif previews the impact of a draft rule configuration on
// already-evaluated sites before the draft is applied. Pure domain logic - no
// I/O, no side effects.
package whatif

import (
	"github.com/google/uuid"

	"acredita/internal/rules"
	"acredita/internal/scoring"
)

// SiteEvaluation is the frozen evaluation state of one site: the scoring
// verdict and per-domain scores from its latest report.
type SiteEvaluation struct {
	SiteID         uuid.UUID          `json:"siteId"`
	SiteName       string             `json:"siteName"`
	ScoringStatus  scoring.Status     `json:"scoringStatus"`
	CategoryScores map[string]float64 `json:"categoryScores"`
}

// Config is one rule configuration variant under comparison.
type Config struct {
	Rules    []rules.AdminRule          `json:"rules"`
	Mappings []rules.ScoreStatusMapping `json:"mappings"`
}

// SiteImpact is the before/after outcome for one site.
type SiteImpact struct {
	SiteID         uuid.UUID         `json:"siteId"`
	SiteName       string            `json:"siteName"`
	BaselineStatus rules.FinalStatus `json:"baselineStatus"`
	DraftStatus    rules.FinalStatus `json:"draftStatus"`
	Changed        bool              `json:"changed"`
}

// Result summarizes a simulation run.
type Result struct {
	TotalSites  int            `json:"totalSites"`
	Changed     int            `json:"changed"`
	Transitions map[string]int `json:"transitions,omitempty"`
	Sites       []SiteImpact   `json:"sites"`
}

// Simulate re-runs rule evaluation for every site under both configurations
// and reports which sites would change status. Scoring inputs are taken as-is
// from the stored evaluations; only the rule layer is varied.
func Simulate(population []SiteEvaluation, baseline, draft Config) Result {
	result := Result{
		TotalSites: len(population),
		Sites:      make([]SiteImpact, 0, len(population)),
	}

	for _, site := range population {
		before := rules.DetermineFinalStatus(site.ScoringStatus, site.CategoryScores, baseline.Rules, baseline.Mappings)
		after := rules.DetermineFinalStatus(site.ScoringStatus, site.CategoryScores, draft.Rules, draft.Mappings)

		impact := SiteImpact{
			SiteID:         site.SiteID,
			SiteName:       site.SiteName,
			BaselineStatus: before.FinalStatus,
			DraftStatus:    after.FinalStatus,
			Changed:        before.FinalStatus != after.FinalStatus,
		}
		result.Sites = append(result.Sites, impact)

		if impact.Changed {
			result.Changed++
			if result.Transitions == nil {
				result.Transitions = make(map[string]int)
			}
			result.Transitions[string(before.FinalStatus)+" -> "+string(after.FinalStatus)]++
		}
	}
	return result
}
