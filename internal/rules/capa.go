package rules

import "sort"

// Fallback texts for rules authored without remediation details.
const (
	defaultRequiredAction   = "Submit a corrective action plan addressing the identified gap"
	defaultEvidenceRequired = "Documentation demonstrating the gap has been closed"
	defaultTimelineDays     = 90
)

// GenerateCapaItems derives corrective-action items from the rules that
// triggered. Only rules flagged requiresCapa produce an item; items are
// ordered by rule priority, highest first.
func GenerateCapaItems(triggered []AdminRule, domains []Domain) []CapaItem {
	names := make(map[string]string, len(domains))
	for _, d := range domains {
		names[d.DomainKey] = d.DisplayName
	}

	items := make([]CapaItem, 0, len(triggered))
	for _, rule := range triggered {
		if !rule.RequiresCapa {
			continue
		}

		item := CapaItem{
			RuleID:           rule.ID,
			DomainKey:        rule.DomainKey,
			DomainName:       names[rule.DomainKey],
			RequiredAction:   rule.RequiredActionText,
			EvidenceRequired: rule.EvidenceRequiredText,
			TimelineDays:     rule.RecommendedTimelineDays,
			Priority:         rule.RulePriority,
		}
		if item.DomainName == "" {
			item.DomainName = rule.DomainKey
		}
		if item.RequiredAction == "" {
			item.RequiredAction = defaultRequiredAction
		}
		if item.EvidenceRequired == "" {
			item.EvidenceRequired = defaultEvidenceRequired
		}
		if item.TimelineDays <= 0 {
			item.TimelineDays = defaultTimelineDays
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority > items[j].Priority
	})
	return items
}
