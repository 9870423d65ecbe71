package rules

import (
	"sort"

	"acredita/internal/scoring"
)

// DetermineFinalStatus runs one rule evaluation pass.
//
// The final status seeds from the scoring verdict and can only move toward
// stricter outcomes: a blocking rule downgrades Approved to Conditionally
// Approved, and forcesMinimumStatus raises the status when its severity
// exceeds the current one. Rules without a score for their domain are
// skipped.
func DetermineFinalStatus(
	scoringStatus scoring.Status,
	categoryScores map[string]float64,
	activeRules []AdminRule,
	mappings []ScoreStatusMapping,
) Outcome {
	final := FromScoringStatus(scoringStatus)

	// Higher priority first; stable so ties keep their original order in
	// the triggered-rule audit trail.
	ordered := make([]AdminRule, len(activeRules))
	copy(ordered, activeRules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RulePriority > ordered[j].RulePriority
	})

	var triggered []AdminRule
	for _, rule := range ordered {
		if !rule.Active {
			continue
		}
		score, ok := categoryScores[rule.DomainKey]
		if !ok {
			continue
		}
		label := ResolveLabel(score, mappings)
		if !rule.Trigger.Matches(label) {
			continue
		}

		triggered = append(triggered, rule)
		if rule.BlocksApproval && final == StatusApproved {
			final = StatusConditionallyApproved
		}
		if rule.ForcesMinimumStatus.Severity() > final.Severity() {
			final = rule.ForcesMinimumStatus
		}
	}

	return Outcome{FinalStatus: final, TriggeredRules: triggered}
}
