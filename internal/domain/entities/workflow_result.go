package entities

import "time"

// TriageLevel is the ordinal urgency classification produced by the pipeline.
type TriageLevel string

const (
	TriageEmergency  TriageLevel = "emergency"
	TriageUrgent     TriageLevel = "urgent"
	TriageSemiUrgent TriageLevel = "semi_urgent"
	TriageNonUrgent  TriageLevel = "non_urgent"
	TriageSelfCare   TriageLevel = "self_care"
)

// TriageLevels returns all levels in descending urgency order.
func TriageLevels() []TriageLevel {
	return []TriageLevel{TriageEmergency, TriageUrgent, TriageSemiUrgent, TriageNonUrgent, TriageSelfCare}
}

// Ordinal returns the position of the level in the fixed 5-level ordering,
// Emergency=0 through SelfCare=4. Unknown levels return -1.
func (t TriageLevel) Ordinal() int {
	switch t {
	case TriageEmergency:
		return 0
	case TriageUrgent:
		return 1
	case TriageSemiUrgent:
		return 2
	case TriageNonUrgent:
		return 3
	case TriageSelfCare:
		return 4
	}
	return -1
}

// IsValid checks if the level is one of the defined constants.
func (t TriageLevel) IsValid() bool {
	return t.Ordinal() >= 0
}

// ReasoningStep is one pipeline stage's output, immutable once recorded.
type ReasoningStep struct {
	Number     int       `json:"number"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Diagnosis is one differential-diagnosis entry parsed from model output.
type Diagnosis struct {
	Condition   string  `json:"condition"`
	Probability float64 `json:"probability"` // 0..1
	Rationale   string  `json:"rationale,omitempty"`
}

// ActionPriority orders recommended actions for presentation.
type ActionPriority string

const (
	PriorityImmediate ActionPriority = "immediate"
	PriorityHigh      ActionPriority = "high"
	PriorityMedium    ActionPriority = "medium"
	PriorityLow       ActionPriority = "low"
)

// RecommendedAction is one actionable recommendation parsed from model output.
type RecommendedAction struct {
	Action   string         `json:"action"`
	Priority ActionPriority `json:"priority"`
}

// PerformanceMetrics holds timing and telemetry for one workflow execution.
type PerformanceMetrics struct {
	TotalDurationMS         int64            `json:"total_duration_ms"`
	StepDurationsMS         map[string]int64 `json:"step_durations_ms"`
	ModelID                 string           `json:"model_id"`
	ThermalState            string           `json:"thermal_state"`
	ImageAnalysisDurationMS *int64           `json:"image_analysis_duration_ms,omitempty"`
}

// MedicalWorkflowResult is the full pipeline output for one intake. Safety
// alerts are attached after validation; everything else is written once.
type MedicalWorkflowResult struct {
	CaseID       string              `json:"case_id"`
	TriageLevel  TriageLevel         `json:"triage_level"`
	Diagnoses    []Diagnosis         `json:"diagnoses"`
	Actions      []RecommendedAction `json:"actions"`
	Steps        []ReasoningStep     `json:"steps"`
	Metrics      PerformanceMetrics  `json:"metrics"`
	SafetyAlerts []SafetyAlert       `json:"safety_alerts"`
	Disclaimer   string              `json:"disclaimer"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// ReasoningText concatenates every step's content for keyword scanning by
// the safety guard and the benchmark scorer.
func (r *MedicalWorkflowResult) ReasoningText() string {
	total := 0
	for _, s := range r.Steps {
		total += len(s.Content) + 1
	}
	buf := make([]byte, 0, total)
	for _, s := range r.Steps {
		buf = append(buf, s.Content...)
		buf = append(buf, '\n')
	}
	return string(buf)
}
