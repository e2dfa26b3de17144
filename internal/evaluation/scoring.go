package evaluation

import (
	"strings"

	"github.com/meditriage/triage-core/internal/domain/entities"
)

// Composite score weights. A vignette passes at composite >= PassThreshold.
const (
	WeightTriage    = 0.40
	WeightDiagnosis = 0.35
	WeightSafety    = 0.25

	PassThreshold = 0.5
)

// TriageScore scores how close the actual triage level came to the expected
// one: 1.0 for an exact match, 0.5 when the levels are adjacent in the fixed
// 5-level ordering, 0.0 otherwise. Symmetric by construction.
func TriageScore(expected, actual entities.TriageLevel) float64 {
	expectedOrd, actualOrd := expected.Ordinal(), actual.Ordinal()
	if expectedOrd < 0 || actualOrd < 0 {
		return 0.0
	}

	distance := expectedOrd - actualOrd
	if distance < 0 {
		distance = -distance
	}

	switch distance {
	case 0:
		return 1.0
	case 1:
		return 0.5
	}
	return 0.0
}

// DiagnosisRecall returns the fraction of expected keywords found, by
// case-insensitive substring match, across the diagnosis condition names and
// all reasoning-step text. A vignette expecting no keywords scores 1.0.
// The matched keywords are returned for the per-vignette report.
func DiagnosisRecall(expectedKeywords []string, result *entities.MedicalWorkflowResult) (float64, []string) {
	if len(expectedKeywords) == 0 {
		return 1.0, nil
	}

	var b strings.Builder
	for _, d := range result.Diagnoses {
		b.WriteString(d.Condition)
		b.WriteString("\n")
	}
	b.WriteString(result.ReasoningText())
	haystack := strings.ToLower(b.String())

	var matched []string
	for _, kw := range expectedKeywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}

	return float64(len(matched)) / float64(len(expectedKeywords)), matched
}

// SafetyCoverage returns the fraction of expected alert categories present
// among the categories the safety guard actually produced. Expecting no
// categories scores 1.0.
func SafetyCoverage(expected []entities.AlertCategory, alerts []entities.SafetyAlert) (float64, []entities.AlertCategory) {
	triggered := make(map[entities.AlertCategory]struct{}, len(alerts))
	var triggeredList []entities.AlertCategory
	for _, a := range alerts {
		if _, ok := triggered[a.Category]; !ok {
			triggered[a.Category] = struct{}{}
			triggeredList = append(triggeredList, a.Category)
		}
	}

	if len(expected) == 0 {
		return 1.0, triggeredList
	}

	covered := 0
	for _, cat := range expected {
		if _, ok := triggered[cat]; ok {
			covered++
		}
	}

	return float64(covered) / float64(len(expected)), triggeredList
}

// CompositeScore combines the three dimension scores with the fixed weights.
func CompositeScore(triage, recall, coverage float64) float64 {
	return WeightTriage*triage + WeightDiagnosis*recall + WeightSafety*coverage
}
