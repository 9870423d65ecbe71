package scoring

import (
	pkgerrors "acredita/pkg/domainerrors"
)

// Canonical group keys for the group-weighted global average.
const (
	GroupInfrastructure = "infrastructure"
	GroupStaff          = "staff"
	GroupQuality        = "quality"
	GroupRecruitment    = "recruitment"
	GroupSystems        = "systems"
)

// Minimums are the gate thresholds. Percentages are 0-100.
type Minimums struct {
	CriticalCategory             float64 `json:"criticalCategory"`
	QualityGroup                 float64 `json:"qualityGroup"`
	StaffGroup                   float64 `json:"staffGroup"`
	CriticalFailuresForRejection int     `json:"criticalFailuresForRejection"`
}

// Thresholds map the global score to a classification tier.
type Thresholds struct {
	Excellent   float64 `json:"excellent"`
	Approved    float64 `json:"approved"`
	Conditional float64 `json:"conditional"`
}

// ModelConfig is the scoring-model configuration produced by the admin UI.
// CategoryGroups is a declared mapping; the calculator never infers groups
// from category names.
type ModelConfig struct {
	GroupWeights       map[string]float64 `json:"groupWeights"`
	Minimums           Minimums           `json:"minimums"`
	Thresholds         Thresholds         `json:"thresholds"`
	CategoryGroups     map[string]string  `json:"categoryGroups"`
	CriticalCategories []string           `json:"criticalCategories"`
}

// DefaultConfig returns the calibrated defaults. Group weights approximately
// sum to 100 but the calculator normalizes by the weights actually in play.
func DefaultConfig() ModelConfig {
	return ModelConfig{
		GroupWeights: map[string]float64{
			GroupInfrastructure: 15,
			GroupStaff:          20,
			GroupQuality:        30,
			GroupRecruitment:    15,
			GroupSystems:        20,
		},
		Minimums: Minimums{
			CriticalCategory:             70,
			QualityGroup:                 70,
			StaffGroup:                   60,
			CriticalFailuresForRejection: 2,
		},
		Thresholds: Thresholds{
			Excellent:   90,
			Approved:    75,
			Conditional: 50,
		},
		CategoryGroups: map[string]string{
			"Quality Management": GroupQuality,
			"Patient Safety":     GroupQuality,
			"Staff":              GroupStaff,
			"Infrastructure":     GroupInfrastructure,
			"Recruitment":        GroupRecruitment,
			"Systems":            GroupSystems,
		},
		CriticalCategories: []string{"Quality Management", "Patient Safety"},
	}
}

// Validate enforces the config invariants before any scoring run.
func (c ModelConfig) Validate() error {
	for group, w := range c.GroupWeights {
		if w < 0 {
			return pkgerrors.Newf(pkgerrors.CodeBadRequest, "group weight for %q must be >= 0", group)
		}
	}
	if c.Minimums.CriticalFailuresForRejection < 1 {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "criticalFailuresForRejection must be >= 1")
	}
	for _, min := range []float64{c.Minimums.CriticalCategory, c.Minimums.QualityGroup, c.Minimums.StaffGroup} {
		if min < 0 || min > 100 {
			return pkgerrors.New(pkgerrors.CodeBadRequest, "gate minimums must be percentages 0-100")
		}
	}
	for category, group := range c.CategoryGroups {
		if _, ok := c.GroupWeights[group]; !ok {
			return pkgerrors.Newf(pkgerrors.CodeBadRequest, "category %q maps to unknown group %q", category, group)
		}
	}
	return nil
}

func (c ModelConfig) isCritical(category string) bool {
	for _, crit := range c.CriticalCategories {
		if crit == category {
			return true
		}
	}
	return false
}
