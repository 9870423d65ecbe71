package whatif

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"acredita/internal/rules"
	"acredita/internal/scoring"
)

func TestSimulate(t *testing.T) {
	healthy := SiteEvaluation{
		SiteID:         uuid.New(),
		SiteName:       "Clinica Norte",
		ScoringStatus:  scoring.StatusApproved,
		CategoryScores: map[string]float64{"Staff": 95, "Quality Management": 90},
	}
	weakStaff := SiteEvaluation{
		SiteID:         uuid.New(),
		SiteName:       "Clinica Sur",
		ScoringStatus:  scoring.StatusApproved,
		CategoryScores: map[string]float64{"Staff": 55, "Quality Management": 90},
	}
	population := []SiteEvaluation{healthy, weakStaff}

	baseline := Config{}
	draft := Config{
		Rules: []rules.AdminRule{{
			ID:             uuid.New(),
			DomainKey:      "Staff",
			Trigger:        rules.TriggerBelowAdequate,
			BlocksApproval: true,
			Active:         true,
		}},
	}

	result := Simulate(population, baseline, draft)

	assert.Equal(t, 2, result.TotalSites)
	assert.Equal(t, 1, result.Changed)
	assert.Equal(t, map[string]int{"Approved -> Conditionally Approved": 1}, result.Transitions)

	assert.False(t, result.Sites[0].Changed)
	assert.Equal(t, rules.StatusApproved, result.Sites[0].DraftStatus)

	assert.True(t, result.Sites[1].Changed)
	assert.Equal(t, rules.StatusApproved, result.Sites[1].BaselineStatus)
	assert.Equal(t, rules.StatusConditionallyApproved, result.Sites[1].DraftStatus)
}

func TestSimulate_MappingChangeOnly(t *testing.T) {
	site := SiteEvaluation{
		SiteID:         uuid.New(),
		SiteName:       "Clinica Centro",
		ScoringStatus:  scoring.StatusApproved,
		CategoryScores: map[string]float64{"Staff": 75},
	}
	blockOnGap := []rules.AdminRule{{
		ID:             uuid.New(),
		DomainKey:      "Staff",
		Trigger:        rules.TriggerAnyGap,
		BlocksApproval: true,
		Active:         true,
	}}

	// Baseline: 75 falls in Partially Adequate, the gap rule stays quiet.
	baseline := Config{Rules: blockOnGap}
	// Draft: tightened bands reclassify 75 as a Critical Gap.
	draft := Config{
		Rules: blockOnGap,
		Mappings: []rules.ScoreStatusMapping{
			{ID: uuid.New(), MinScore: 90, MaxScore: 100, StatusLabel: rules.LabelAdequate},
			{ID: uuid.New(), MinScore: 80, MaxScore: 89, StatusLabel: rules.LabelPartiallyAdequate},
			{ID: uuid.New(), MinScore: 0, MaxScore: 79, StatusLabel: rules.LabelCriticalGap},
		},
	}

	result := Simulate([]SiteEvaluation{site}, baseline, draft)

	assert.Equal(t, 1, result.Changed)
	assert.Equal(t, rules.StatusConditionallyApproved, result.Sites[0].DraftStatus)
}

func TestSimulate_EmptyPopulation(t *testing.T) {
	result := Simulate(nil, Config{}, Config{})
	assert.Zero(t, result.TotalSites)
	assert.Zero(t, result.Changed)
	assert.Nil(t, result.Transitions)
	assert.Empty(t, result.Sites)
}
