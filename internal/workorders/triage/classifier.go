// Package triage turns free-text maintenance descriptions into structured
// category, urgency and emergency classifications.
package triage

import (
	"strings"

	"propertyops_backend/internal/workorders/domain"
)

// emergencyKeywords force Emergency urgency regardless of any other signal
// in the text.
var emergencyKeywords = []string{
	"gas leak",
	"flooding",
	"flood",
	"no heat",
	"sewage backup",
	"sewage overflow",
	"electrical fire",
	"burst pipe",
	"carbon monoxide",
}

var urgentPhrases = []string{"urgent", "asap", "emergency", "immediately"}

var calmPhrases = []string{"when you can", "not urgent", "no rush", "whenever"}

// Classify is the keyword classifier. It is a pure function of the
// description, the optional externally-supplied category and the vendor rule
// configuration.
//
// An external category is trusted as-is when it names a configured rule;
// otherwise classification falls back to rule keyword matching in priority
// order, defaulting to General Maintenance when nothing matches.
func Classify(description string, externalCategory domain.Category, rules domain.RuleSet) domain.TriageResult {
	lower := strings.ToLower(description)

	result := domain.TriageResult{
		Urgency: classifyUrgency(lower),
	}
	result.Emergency = result.Urgency == domain.UrgencyEmergency

	if externalCategory != "" {
		if _, ok := rules.Rule(externalCategory); ok {
			result.Category = externalCategory
			return result
		}
	}

	result.Category, result.MatchedKeywords = matchCategory(lower, rules)
	return result
}

func classifyUrgency(lowerDescription string) domain.Urgency {
	for _, keyword := range emergencyKeywords {
		if strings.Contains(lowerDescription, keyword) {
			return domain.UrgencyEmergency
		}
	}
	for _, phrase := range calmPhrases {
		if strings.Contains(lowerDescription, phrase) {
			return domain.UrgencyLow
		}
	}
	for _, phrase := range urgentPhrases {
		if strings.Contains(lowerDescription, phrase) {
			return domain.UrgencyHigh
		}
	}
	return domain.UrgencyMedium
}

// matchCategory walks the rules in priority order; the first rule with any
// keyword substring match wins and all of its matching keywords are recorded.
func matchCategory(lowerDescription string, rules domain.RuleSet) (domain.Category, []string) {
	for _, rule := range rules.Rules() {
		var matched []string
		for _, keyword := range rule.Keywords {
			if strings.Contains(lowerDescription, strings.ToLower(keyword)) {
				matched = append(matched, keyword)
			}
		}
		if len(matched) > 0 {
			return rule.Category, matched
		}
	}
	return domain.CategoryGeneralMaintenance, nil
}
