package rules

import "math"

// Hardcoded fallback thresholds used when no configured mapping matches a
// score. These mirror the default Adequate/Partially Adequate/Critical Gap
// bands.
const (
	fallbackAdequateMin          = 80
	fallbackPartiallyAdequateMin = 50
	fallbackCriticalGapMin       = 25
)

// ResolveLabel maps a 0-100 score to its qualitative label. The score is
// rounded first; configured mappings win, the fallback thresholds apply when
// none matches.
func ResolveLabel(score float64, mappings []ScoreStatusMapping) Label {
	rounded := int(math.Round(score))
	for _, m := range mappings {
		if rounded >= m.MinScore && rounded <= m.MaxScore {
			return m.StatusLabel
		}
	}
	switch {
	case rounded >= fallbackAdequateMin:
		return LabelAdequate
	case rounded >= fallbackPartiallyAdequateMin:
		return LabelPartiallyAdequate
	case rounded >= fallbackCriticalGapMin:
		return LabelCriticalGap
	default:
		return LabelNotEvidenced
	}
}
