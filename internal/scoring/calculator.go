// Package scoring turns raw questionnaire answers into a weighted score,
// per-category breakdown, classification, and knock-out reasoning.
// Calculate is pure domain logic - no I/O, no side effects.
package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	pkgerrors "acredita/pkg/domainerrors"
)

// starFactors is the fixed star-rating-to-credit mapping. The calibration of
// the model depends on these exact values; do not tune them per deployment.
var starFactors = map[int]float64{
	1: 0.0,
	2: 0.5,
	3: 1.0,
	4: 1.1,
	5: 1.2,
}

// StarFactor returns the credit multiplier for a 1-5 star rating, 0 for
// anything out of range.
func StarFactor(stars int) float64 {
	return starFactors[stars]
}

// Calculate computes the weighted score for one site's answers.
//
// Gates run in a fixed order and can only worsen the outcome, never improve
// it: knock-out questions first (short-circuiting the rest), then critical
// category minimums, then the quality/staff group minimums, then the critical
// failure count.
func Calculate(answers Answers, questions []Question, cfg ModelConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	type catAgg struct {
		weighted float64
		weight   float64
	}
	cats := make(map[string]*catAgg)

	var knockOutReason string
	criticalFailures := 0

	for _, q := range questions {
		if !q.Enabled {
			continue
		}
		raw, answered := answers[q.ID]
		if !answered || raw == "NA" || strings.TrimSpace(string(raw)) == "" {
			// Unanswered questions are excluded from denominators, not
			// penalized.
			continue
		}

		if q.IsKnockOut && knockOutReason == "" {
			failing := q.KnockOutAnswer
			if failing == "" {
				failing = "No"
			}
			if string(raw) == failing {
				knockOutReason = fmt.Sprintf("Knock-out question failed: %s", q.Text)
			}
		}

		credit, err := answerCredit(q, raw)
		if err != nil {
			return Result{}, err
		}

		agg := cats[q.Category]
		if agg == nil {
			agg = &catAgg{}
			cats[q.Category] = agg
		}
		agg.weighted += q.Weight * credit
		agg.weight += q.Weight

		if cfg.isCritical(q.Category) && !q.IsKnockOut && credit < 0.5 {
			criticalFailures++
		}
	}

	// Category scores, clamped to [0,100]. Zero total weight excludes the
	// category rather than producing NaN.
	categoryScores := make(map[string]float64, len(cats))
	for category, agg := range cats {
		if agg.weight <= 0 {
			continue
		}
		categoryScores[category] = clamp(100*agg.weighted/agg.weight, 0, 100)
	}

	global := globalScore(categoryScores, cfg)
	score := int(math.Round(global))

	if knockOutReason == "" {
		knockOutReason = gateReason(categoryScores, cfg, criticalFailures)
	}

	result := Result{
		Score:          score,
		CategoryScores: categoryScores,
		KnockOutReason: knockOutReason,
	}
	if knockOutReason != "" {
		result.Status = StatusRejected
		result.Classification = ClassBloqueCritico
		return result, nil
	}

	switch {
	case global >= cfg.Thresholds.Excellent:
		result.Status = StatusApproved
		result.Classification = ClassSobresaliente
	case global >= cfg.Thresholds.Approved:
		result.Status = StatusApproved
		result.Classification = ClassAprobado
	case global >= cfg.Thresholds.Conditional:
		result.Status = StatusConditional
		result.Classification = ClassCondicional
	default:
		result.Status = StatusRejected
		result.Classification = ClassNoAprobado
	}
	return result, nil
}

// globalScore is the group-weighted average over groups that have at least
// one scored category. Categories without a declared group contribute to
// their own category score only.
func globalScore(categoryScores map[string]float64, cfg ModelConfig) float64 {
	groupSum := make(map[string]float64)
	groupCount := make(map[string]int)
	for category, score := range categoryScores {
		group, ok := cfg.CategoryGroups[category]
		if !ok {
			continue
		}
		groupSum[group] += score
		groupCount[group]++
	}

	var weighted, totalWeight float64
	for group, sum := range groupSum {
		avg := sum / float64(groupCount[group])
		w := cfg.GroupWeights[group]
		weighted += w * avg
		totalWeight += w
	}
	if totalWeight <= 0 {
		return 0
	}
	return weighted / totalWeight
}

// gateReason evaluates gates (b) through (d) in order and returns the first
// failure, or "" when no gate fired.
func gateReason(categoryScores map[string]float64, cfg ModelConfig, criticalFailures int) string {
	// (b) critical category below its minimum.
	for _, category := range cfg.CriticalCategories {
		score, ok := categoryScores[category]
		if !ok {
			continue
		}
		if score < cfg.Minimums.CriticalCategory {
			return fmt.Sprintf("%s group below minimum", groupTitle(category, cfg))
		}
	}

	// (c) quality / staff group averages below their minimums.
	if avg, ok := groupAverage(categoryScores, cfg, GroupQuality); ok && avg < cfg.Minimums.QualityGroup {
		return "Quality group below minimum"
	}
	if avg, ok := groupAverage(categoryScores, cfg, GroupStaff); ok && avg < cfg.Minimums.StaffGroup {
		return "Staff group below minimum"
	}

	// (d) too many failed critical questions.
	if criticalFailures >= cfg.Minimums.CriticalFailuresForRejection {
		return fmt.Sprintf("Critical failures at rejection limit: %d", criticalFailures)
	}
	return ""
}

func groupAverage(categoryScores map[string]float64, cfg ModelConfig, group string) (float64, bool) {
	var sum float64
	var n int
	for category, score := range categoryScores {
		if cfg.CategoryGroups[category] == group {
			sum += score
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// groupTitle renders the reason wording for a category's group, e.g.
// "Quality Management" -> "Quality". Falls back to the category name when no
// group is declared.
func groupTitle(category string, cfg ModelConfig) string {
	group, ok := cfg.CategoryGroups[category]
	if !ok || group == "" {
		return category
	}
	return strings.ToUpper(group[:1]) + group[1:]
}

func answerCredit(q Question, raw AnswerValue) (float64, error) {
	switch q.Type {
	case TypeYesNo:
		switch raw {
		case "Yes":
			return 1, nil
		case "No":
			return 0, nil
		}
		return 0, pkgerrors.Newf(pkgerrors.CodeBadRequest, "question %s: invalid yes/no answer %q", q.ID, raw)
	case TypeSelect:
		stars, err := strconv.Atoi(string(raw))
		if err != nil || stars < 1 || stars > 5 {
			return 0, pkgerrors.Newf(pkgerrors.CodeBadRequest, "question %s: invalid star rating %q", q.ID, raw)
		}
		return StarFactor(stars), nil
	case TypeText:
		return textCredit(string(raw), q.Keywords), nil
	}
	return 0, pkgerrors.Newf(pkgerrors.CodeBadRequest, "question %s: unknown question type %q", q.ID, q.Type)
}

// textCredit grants full credit when any configured keyword matches as a
// case-insensitive substring, zero for negation-like answers, and partial
// credit otherwise.
func textCredit(text string, keywords []string) float64 {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return 1
		}
	}
	if isNegation(lower) {
		return 0
	}
	return 0.5
}

var negationWords = map[string]bool{
	"no": true, "not": true, "none": true, "nothing": true,
	"n/a": true, "na": true, "ninguno": true, "ninguna": true,
	"nada": true, "sin": true,
}

func isNegation(lower string) bool {
	first, _, _ := strings.Cut(lower, " ")
	return negationWords[first]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
