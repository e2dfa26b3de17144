package services

import (
	"strings"
	"unicode"

	"github.com/meditriage/triage-core/internal/domain/entities"
)

// Free-text model output is parsed with keyword heuristics. All functions in
// this file are pure: string in, structured data out, no side effects.

const (
	maxDiagnoses       = 5
	defaultProbability = 0.6
)

// probabilityKeywords maps embedded likelihood phrasing to a numeric
// probability. Checks run in declaration order and the first match wins, so a
// line containing both "high" and "possible" scores 0.8.
var probabilityKeywords = []struct {
	keyword string
	value   float64
}{
	{"most likely", 0.8},
	{"high", 0.8},
	{"moderate", 0.5},
	{"possible", 0.5},
	{"unlikely", 0.2},
	{"low", 0.2},
}

// ParseTriageLevel extracts the triage level from a triage-assessment
// response via case-insensitive keyword search in priority order. The second
// return value reports whether any keyword matched; when none does, the level
// defaults to SemiUrgent. The fallback is deliberate: an unclassifiable
// assessment must still produce a usable, conservative triage level.
func ParseTriageLevel(text string) (entities.TriageLevel, bool) {
	t := strings.ToLower(text)

	switch {
	case containsAny(t, "emergency", "911", "life-threatening"):
		return entities.TriageEmergency, true
	case containsAny(t, "semi-urgent", "within 24"):
		return entities.TriageSemiUrgent, true
	case strings.Contains(t, "urgent") && !strings.Contains(t, "non-urgent"):
		return entities.TriageUrgent, true
	case containsAny(t, "non-urgent", "schedule appointment"):
		return entities.TriageNonUrgent, true
	case containsAny(t, "self-care", "monitor at home"):
		return entities.TriageSelfCare, true
	}

	return entities.TriageSemiUrgent, false
}

// ParseDiagnoses extracts differential-diagnosis entries from a free-text
// response. A line is a diagnosis if it begins with a digit, "-" or "*".
// Lines between list items extend the running rationale of the previous
// entry. At most five entries are returned, in input order.
func ParseDiagnoses(text string) []entities.Diagnosis {
	var diagnoses []entities.Diagnosis

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if !isListItem(trimmed) {
			// Continuation line: extend the rationale of the last entry.
			if n := len(diagnoses); n > 0 {
				if diagnoses[n-1].Rationale != "" {
					diagnoses[n-1].Rationale += " "
				}
				diagnoses[n-1].Rationale += trimmed
			}
			continue
		}

		body := stripListMarker(trimmed)
		if body == "" {
			continue
		}

		condition, rationale := splitOnSeparator(body)
		diagnoses = append(diagnoses, entities.Diagnosis{
			Condition:   condition,
			Probability: inferProbability(trimmed),
			Rationale:   rationale,
		})
	}

	if len(diagnoses) > maxDiagnoses {
		diagnoses = diagnoses[:maxDiagnoses]
	}
	return diagnoses
}

// ParseActions extracts recommendations from a free-text response using the
// same list-item detection as ParseDiagnoses. When the overall triage level
// is Emergency every action is forced to immediate priority.
func ParseActions(text string, overallTriage entities.TriageLevel) []entities.RecommendedAction {
	var actions []entities.RecommendedAction

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !isListItem(trimmed) {
			continue
		}

		body := stripListMarker(trimmed)
		if body == "" {
			continue
		}

		actions = append(actions, entities.RecommendedAction{
			Action:   body,
			Priority: inferPriority(trimmed, overallTriage),
		})
	}

	return actions
}

func inferProbability(line string) float64 {
	l := strings.ToLower(line)
	for _, pk := range probabilityKeywords {
		if strings.Contains(l, pk.keyword) {
			return pk.value
		}
	}
	return defaultProbability
}

func inferPriority(line string, overallTriage entities.TriageLevel) entities.ActionPriority {
	if overallTriage == entities.TriageEmergency {
		return entities.PriorityImmediate
	}

	l := strings.ToLower(line)
	switch {
	case containsAny(l, "immediate", "emergency", "call 911"):
		return entities.PriorityImmediate
	case containsAny(l, "urgent", "soon", "today"):
		return entities.PriorityHigh
	case containsAny(l, "monitor", "watch", "follow up"):
		return entities.PriorityLow
	}
	return entities.PriorityMedium
}

func isListItem(line string) bool {
	if line == "" {
		return false
	}
	r := rune(line[0])
	return unicode.IsDigit(r) || r == '-' || r == '*'
}

// stripListMarker removes the leading list decoration: digits, dots, closing
// parens, dashes, asterisks and surrounding space.
func stripListMarker(line string) string {
	return strings.TrimLeft(line, "0123456789.)-* \t")
}

// splitOnSeparator splits a list-item body into its leading term and the
// remainder after the first ":", em-dash or en-dash, which seeds the
// rationale.
func splitOnSeparator(body string) (string, string) {
	for _, sep := range []string{":", "—", "–"} {
		if idx := strings.Index(body, sep); idx >= 0 {
			return strings.TrimSpace(body[:idx]), strings.TrimSpace(body[idx+len(sep):])
		}
	}
	return strings.TrimSpace(body), ""
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
