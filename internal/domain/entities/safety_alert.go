package entities

import "sort"

// AlertSeverity orders safety alerts for presentation. The order is total:
// critical before warning before info.
type AlertSeverity string

const (
	AlertCritical AlertSeverity = "critical"
	AlertWarning  AlertSeverity = "warning"
	AlertInfo     AlertSeverity = "info"
)

// Rank returns the sort rank of the severity; lower sorts first.
func (s AlertSeverity) Rank() int {
	switch s {
	case AlertCritical:
		return 0
	case AlertWarning:
		return 1
	case AlertInfo:
		return 2
	}
	return 3
}

// AlertCategory identifies which safety check produced an alert.
type AlertCategory string

const (
	CategoryEmergencyEscalation   AlertCategory = "emergency_escalation"
	CategoryRedFlagSymptom        AlertCategory = "red_flag_symptom"
	CategoryCriticalVital         AlertCategory = "critical_vital"
	CategoryMedicationInteraction AlertCategory = "medication_interaction"
	CategoryConfidenceCalibration AlertCategory = "confidence_calibration"
	CategoryDemographicBias       AlertCategory = "demographic_bias"
	CategoryPregnancyRisk         AlertCategory = "pregnancy_risk"
	CategoryInputRobustness       AlertCategory = "input_robustness"
)

// AlertCategories returns all defined categories.
func AlertCategories() []AlertCategory {
	return []AlertCategory{
		CategoryEmergencyEscalation,
		CategoryRedFlagSymptom,
		CategoryCriticalVital,
		CategoryMedicationInteraction,
		CategoryConfidenceCalibration,
		CategoryDemographicBias,
		CategoryPregnancyRisk,
		CategoryInputRobustness,
	}
}

// SafetyAlert is one finding from the safety guard.
type SafetyAlert struct {
	Severity AlertSeverity `json:"severity"`
	Category AlertCategory `json:"category"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Action   string        `json:"action,omitempty"` // optional action label, e.g. "Call 911"
}

// SortAlerts orders alerts critical, warning, info. The sort is stable so
// alerts within a severity band keep the order their checks produced them in.
func SortAlerts(alerts []SafetyAlert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() < alerts[j].Severity.Rank()
	})
}
