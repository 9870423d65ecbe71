package rules

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCapaItems(t *testing.T) {
	domains := []Domain{
		{DomainKey: "patient_safety", DisplayName: "Patient Safety"},
		{DomainKey: "staff", DisplayName: "Staff"},
	}

	withCapa := AdminRule{
		ID: uuid.New(), DomainKey: "patient_safety", RulePriority: 5,
		RequiresCapa: true, RequiredActionText: "Retrain staff on reporting",
		EvidenceRequiredText: "Training records", RecommendedTimelineDays: 30,
	}
	withoutCapa := AdminRule{ID: uuid.New(), DomainKey: "staff", RulePriority: 9}
	withDefaults := AdminRule{ID: uuid.New(), DomainKey: "staff", RulePriority: 7, RequiresCapa: true}

	items := GenerateCapaItems([]AdminRule{withCapa, withoutCapa, withDefaults}, domains)
	require.Len(t, items, 2)

	// Sorted descending by rule priority.
	assert.Equal(t, withDefaults.ID, items[0].RuleID)
	assert.Equal(t, withCapa.ID, items[1].RuleID)

	assert.Equal(t, "Staff", items[0].DomainName)
	assert.Equal(t, defaultRequiredAction, items[0].RequiredAction)
	assert.Equal(t, defaultEvidenceRequired, items[0].EvidenceRequired)
	assert.Equal(t, defaultTimelineDays, items[0].TimelineDays)

	assert.Equal(t, "Patient Safety", items[1].DomainName)
	assert.Equal(t, "Retrain staff on reporting", items[1].RequiredAction)
	assert.Equal(t, 30, items[1].TimelineDays)
}

func TestGenerateCapaItems_UnknownDomainFallsBackToKey(t *testing.T) {
	r := AdminRule{ID: uuid.New(), DomainKey: "orphan", RulePriority: 1, RequiresCapa: true}

	items := GenerateCapaItems([]AdminRule{r}, nil)
	require.Len(t, items, 1)
	assert.Equal(t, "orphan", items[0].DomainName)
}

func TestGenerateCapaItems_Empty(t *testing.T) {
	assert.Empty(t, GenerateCapaItems(nil, nil))
}
