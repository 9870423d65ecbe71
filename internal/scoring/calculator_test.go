package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strongSiteQuestions() []Question {
	return []Question{
		{ID: "q1", Text: "Quality system in place", Category: "Quality Management", Weight: 5, Type: TypeSelect, Enabled: true},
		{ID: "q2", Text: "Incident reporting", Category: "Patient Safety", Weight: 5, Type: TypeSelect, Enabled: true},
		{ID: "q3", Text: "Staff qualifications", Category: "Staff", Weight: 4, Type: TypeSelect, Enabled: true},
		{ID: "q4", Text: "Facility condition", Category: "Infrastructure", Weight: 3, Type: TypeSelect, Enabled: true},
	}
}

func TestStarFactor(t *testing.T) {
	assert.Equal(t, 0.0, StarFactor(1))
	assert.Equal(t, 0.5, StarFactor(2))
	assert.Equal(t, 1.0, StarFactor(3))
	assert.Equal(t, 1.1, StarFactor(4))
	assert.Equal(t, 1.2, StarFactor(5))
	assert.Equal(t, 0.0, StarFactor(0))
	assert.Equal(t, 0.0, StarFactor(6))
}

func TestCalculate_StrongSiteIsSobresaliente(t *testing.T) {
	answers := Answers{"q1": "4", "q2": "4", "q3": "4", "q4": "4"}

	result, err := Calculate(answers, strongSiteQuestions(), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, ClassSobresaliente, result.Classification)
	assert.Equal(t, StatusApproved, result.Status)
	assert.Empty(t, result.KnockOutReason)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, 100.0, result.CategoryScores["Quality Management"])
}

func TestCalculate_CriticalCategoryBelowMinimumRejects(t *testing.T) {
	questions := []Question{
		{ID: "q1", Text: "Quality system in place", Category: "Quality Management", Weight: 5, Type: TypeSelect, Enabled: true},
		{ID: "q2", Text: "Staff qualifications", Category: "Staff", Weight: 5, Type: TypeSelect, Enabled: true},
	}
	answers := Answers{"q1": "1", "q2": "4"}

	result, err := Calculate(answers, questions, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, ClassBloqueCritico, result.Classification)
	assert.Equal(t, StatusRejected, result.Status)
	assert.Contains(t, result.KnockOutReason, "Quality group below minimum")
}

func TestCalculate_KnockOutPrecedesHighScore(t *testing.T) {
	questions := append(strongSiteQuestions(), Question{
		ID: "ko", Text: "Valid operating license", Category: "Quality Management",
		Weight: 1, Type: TypeYesNo, Enabled: true, IsKnockOut: true,
	})
	answers := Answers{"q1": "5", "q2": "5", "q3": "5", "q4": "5", "ko": "No"}

	result, err := Calculate(answers, questions, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, result.Status)
	assert.Contains(t, result.KnockOutReason, "Valid operating license")
}

func TestCalculate_KnockOutPolarity(t *testing.T) {
	questions := []Question{
		{ID: "ko", Text: "Any unresolved regulatory findings", Category: "Quality Management",
			Weight: 1, Type: TypeYesNo, Enabled: true, IsKnockOut: true, KnockOutAnswer: "Yes"},
		{ID: "q1", Text: "Quality system in place", Category: "Quality Management", Weight: 5, Type: TypeSelect, Enabled: true},
	}

	result, err := Calculate(Answers{"ko": "Yes", "q1": "5"}, questions, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, result.Status)
	assert.NotEmpty(t, result.KnockOutReason)

	result, err = Calculate(Answers{"ko": "No", "q1": "5"}, questions, DefaultConfig())
	require.NoError(t, err)
	assert.NotContains(t, result.KnockOutReason, "regulatory findings")
}

func TestCalculate_Determinism(t *testing.T) {
	answers := Answers{"q1": "3", "q2": "5", "q3": "2", "q4": "4"}
	questions := strongSiteQuestions()
	cfg := DefaultConfig()

	first, err := Calculate(answers, questions, cfg)
	require.NoError(t, err)
	second, err := Calculate(answers, questions, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculate_EmptyAnswers(t *testing.T) {
	result, err := Calculate(Answers{}, strongSiteQuestions(), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Score)
	assert.Empty(t, result.CategoryScores)
	assert.Equal(t, StatusRejected, result.Status)
	assert.Equal(t, ClassNoAprobado, result.Classification)
}

func TestCalculate_UnansweredAndNAExcluded(t *testing.T) {
	questions := []Question{
		{ID: "q1", Text: "A", Category: "Staff", Weight: 5, Type: TypeSelect, Enabled: true},
		{ID: "q2", Text: "B", Category: "Staff", Weight: 5, Type: TypeSelect, Enabled: true},
		{ID: "q3", Text: "C", Category: "Staff", Weight: 5, Type: TypeYesNo, Enabled: true},
	}
	// q2 unanswered, q3 NA: only q1 is in the denominator.
	result, err := Calculate(Answers{"q1": "3", "q3": "NA"}, questions, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 100.0, result.CategoryScores["Staff"])
}

func TestCalculate_DisabledQuestionsExcluded(t *testing.T) {
	questions := []Question{
		{ID: "q1", Text: "A", Category: "Staff", Weight: 5, Type: TypeSelect, Enabled: true},
		{ID: "q2", Text: "B", Category: "Staff", Weight: 50, Type: TypeSelect, Enabled: false},
	}
	result, err := Calculate(Answers{"q1": "3", "q2": "1"}, questions, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 100.0, result.CategoryScores["Staff"])
}

func TestCalculate_CriticalFailureCountGate(t *testing.T) {
	questions := []Question{
		{ID: "q1", Text: "A", Category: "Quality Management", Weight: 1, Type: TypeYesNo, Enabled: true},
		{ID: "q2", Text: "B", Category: "Patient Safety", Weight: 1, Type: TypeYesNo, Enabled: true},
		{ID: "q3", Text: "C", Category: "Staff", Weight: 5, Type: TypeSelect, Enabled: true},
	}
	cfg := DefaultConfig()
	// Keep the minimum gates out of the way so the count gate is the one
	// that fires.
	cfg.Minimums.CriticalCategory = 0
	cfg.Minimums.QualityGroup = 0

	result, err := Calculate(Answers{"q1": "No", "q2": "No", "q3": "5"}, questions, cfg)
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, result.Status)
	assert.Contains(t, result.KnockOutReason, "Critical failures")
}

func TestTextCredit(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     float64
	}{
		{"keyword match", "We use a certified SOP manual", []string{"sop"}, 1},
		{"keyword match is case-insensitive", "CERTIFIED PROCESS", []string{"certified"}, 1},
		{"negation", "No procedures in place", []string{"sop"}, 0},
		{"spanish negation", "ninguno", nil, 0},
		{"partial credit", "We have some informal process", []string{"sop"}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textCredit(tt.text, tt.keywords))
		})
	}
}

func TestCalculate_InvalidAnswersRejected(t *testing.T) {
	questions := []Question{
		{ID: "q1", Text: "A", Category: "Staff", Weight: 5, Type: TypeSelect, Enabled: true},
	}
	_, err := Calculate(Answers{"q1": "7"}, questions, DefaultConfig())
	assert.Error(t, err)

	questions[0].Type = TypeYesNo
	_, err = Calculate(Answers{"q1": "maybe"}, questions, DefaultConfig())
	assert.Error(t, err)
}

func TestModelConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Minimums.CriticalFailuresForRejection = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.CategoryGroups["Ghost"] = "nonexistent"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.GroupWeights[GroupQuality] = -1
	assert.Error(t, cfg.Validate())
}
