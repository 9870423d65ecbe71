package rules

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"acredita/internal/scoring"
)

func rule(domain string, trigger TriggerKey, priority int, mutate func(*AdminRule)) AdminRule {
	r := AdminRule{
		ID:           uuid.New(),
		DomainKey:    domain,
		Trigger:      trigger,
		RulePriority: priority,
		Active:       true,
	}
	if mutate != nil {
		mutate(&r)
	}
	return r
}

func TestResolveLabel_FallbackThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  Label
	}{
		{95, LabelAdequate},
		{80, LabelAdequate},
		{79.5, LabelAdequate}, // rounds to 80
		{79.4, LabelPartiallyAdequate},
		{50, LabelPartiallyAdequate},
		{49, LabelCriticalGap},
		{25, LabelCriticalGap},
		{24, LabelNotEvidenced},
		{0, LabelNotEvidenced},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveLabel(tt.score, nil), "score %v", tt.score)
	}
}

func TestResolveLabel_ConfiguredMappingWins(t *testing.T) {
	mappings := []ScoreStatusMapping{
		{MinScore: 70, MaxScore: 100, StatusLabel: LabelAdequate},
		{MinScore: 0, MaxScore: 69, StatusLabel: LabelCriticalGap},
	}
	assert.Equal(t, LabelAdequate, ResolveLabel(70, mappings))
	assert.Equal(t, LabelCriticalGap, ResolveLabel(69.4, mappings))
}

func TestTriggerKeyMatches(t *testing.T) {
	assert.True(t, TriggerAnyGap.Matches(LabelCriticalGap))
	assert.True(t, TriggerAnyGap.Matches(LabelNotEvidenced))
	assert.False(t, TriggerAnyGap.Matches(LabelPartiallyAdequate))

	assert.True(t, TriggerBelowAdequate.Matches(LabelPartiallyAdequate))
	assert.True(t, TriggerBelowAdequate.Matches(LabelNotEvidenced))
	assert.False(t, TriggerBelowAdequate.Matches(LabelAdequate))

	exact := TriggerKey(LabelCriticalGap)
	assert.True(t, exact.Matches(LabelCriticalGap))
	assert.False(t, exact.Matches(LabelNotEvidenced))
}

func TestDetermineFinalStatus_SeedsFromScoringStatus(t *testing.T) {
	out := DetermineFinalStatus(scoring.StatusApproved, nil, nil, nil)
	assert.Equal(t, StatusApproved, out.FinalStatus)

	out = DetermineFinalStatus(scoring.StatusConditional, nil, nil, nil)
	assert.Equal(t, StatusConditionallyApproved, out.FinalStatus)

	out = DetermineFinalStatus(scoring.StatusRejected, nil, nil, nil)
	assert.Equal(t, StatusNotApproved, out.FinalStatus)
}

func TestDetermineFinalStatus_BlockingRuleDowngradesApproved(t *testing.T) {
	scores := map[string]float64{"patient_safety": 40}
	blocking := rule("patient_safety", TriggerAnyGap, 10, func(r *AdminRule) {
		r.BlocksApproval = true
	})

	out := DetermineFinalStatus(scoring.StatusApproved, scores, []AdminRule{blocking}, nil)

	assert.Equal(t, StatusConditionallyApproved, out.FinalStatus)
	assert.Len(t, out.TriggeredRules, 1)
}

func TestDetermineFinalStatus_ForcedMinimumOnlyTightens(t *testing.T) {
	scores := map[string]float64{"patient_safety": 10}

	force := rule("patient_safety", TriggerAnyGap, 10, func(r *AdminRule) {
		r.ForcesMinimumStatus = StatusNotApproved
	})
	relax := rule("patient_safety", TriggerAnyGap, 5, func(r *AdminRule) {
		r.ForcesMinimumStatus = StatusApproved
	})

	// The lower-priority "relaxing" rule still triggers but can never move
	// the status back toward Approved.
	out := DetermineFinalStatus(scoring.StatusApproved, scores, []AdminRule{relax, force}, nil)

	assert.Equal(t, StatusNotApproved, out.FinalStatus)
	assert.Len(t, out.TriggeredRules, 2)
}

func TestDetermineFinalStatus_Monotonicity(t *testing.T) {
	scores := map[string]float64{"a": 10, "b": 90}
	ruleSet := []AdminRule{
		rule("a", TriggerAnyGap, 3, func(r *AdminRule) { r.ForcesMinimumStatus = StatusConditionallyApproved }),
		rule("b", TriggerKey(LabelAdequate), 2, func(r *AdminRule) { r.ForcesMinimumStatus = StatusApproved }),
		rule("a", TriggerBelowAdequate, 1, func(r *AdminRule) { r.ForcesMinimumStatus = StatusNotApproved }),
	}

	out := DetermineFinalStatus(scoring.StatusApproved, scores, ruleSet, nil)
	assert.Equal(t, StatusNotApproved, out.FinalStatus)
}

func TestDetermineFinalStatus_PriorityOrdersTriggeredRules(t *testing.T) {
	scores := map[string]float64{"a": 10}
	low := rule("a", TriggerAnyGap, 1, nil)
	high := rule("a", TriggerAnyGap, 9, nil)

	out := DetermineFinalStatus(scoring.StatusApproved, scores, []AdminRule{low, high}, nil)

	assert.Equal(t, []AdminRule{high, low}, out.TriggeredRules)
}

func TestDetermineFinalStatus_SkipsInactiveAndUnscored(t *testing.T) {
	scores := map[string]float64{"a": 10}
	inactive := rule("a", TriggerAnyGap, 5, func(r *AdminRule) {
		r.Active = false
		r.ForcesMinimumStatus = StatusNotApproved
	})
	unscored := rule("missing", TriggerAnyGap, 5, func(r *AdminRule) {
		r.ForcesMinimumStatus = StatusNotApproved
	})

	out := DetermineFinalStatus(scoring.StatusApproved, scores, []AdminRule{inactive, unscored}, nil)

	assert.Equal(t, StatusApproved, out.FinalStatus)
	assert.Empty(t, out.TriggeredRules)
}
