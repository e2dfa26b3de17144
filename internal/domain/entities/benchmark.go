package entities

import "time"

// BenchmarkVignette is one clinical test case replayed through the pipeline.
type BenchmarkVignette struct {
	Name                     string          `json:"name" yaml:"name"`
	Category                 string          `json:"category" yaml:"category"`
	Intake                   PatientIntake   `json:"intake" yaml:"intake"`
	ExpectedTriage           TriageLevel     `json:"expected_triage" yaml:"expected_triage"`
	ExpectedKeywords         []string        `json:"expected_keywords" yaml:"expected_keywords"`
	ExpectedSafetyCategories []AlertCategory `json:"expected_safety_categories" yaml:"expected_safety_categories"`
}

// VignetteResult is the scored outcome for a single vignette run.
type VignetteResult struct {
	VignetteName        string          `json:"vignette_name"`
	Category            string          `json:"category"`
	ExpectedTriage      TriageLevel     `json:"expected_triage"`
	ActualTriage        TriageLevel     `json:"actual_triage"`
	TriageScore         float64         `json:"triage_score"`
	MatchedKeywords     []string        `json:"matched_keywords"`
	DiagnosisRecall     float64         `json:"diagnosis_recall"`
	ExpectedCategories  []AlertCategory `json:"expected_categories"`
	TriggeredCategories []AlertCategory `json:"triggered_categories"`
	SafetyCoverage      float64         `json:"safety_coverage"`
	CompositeScore      float64         `json:"composite_score"`
	Passed              bool            `json:"passed"`
	DurationMS          int64           `json:"duration_ms"`
	ExecutionError      string          `json:"execution_error,omitempty"`
}

// BenchmarkReport aggregates one full harness run.
type BenchmarkReport struct {
	ID                  string                              `json:"id"`
	StartedAt           time.Time                           `json:"started_at"`
	CompletedAt         time.Time                           `json:"completed_at"`
	VignetteCount       int                                 `json:"vignette_count"`
	Results             []VignetteResult                    `json:"results"`
	MeanTriageScore     float64                             `json:"mean_triage_score"`
	MeanDiagnosisRecall float64                             `json:"mean_diagnosis_recall"`
	MeanSafetyCoverage  float64                             `json:"mean_safety_coverage"`
	MeanCompositeScore  float64                             `json:"mean_composite_score"`
	PassRate            float64                             `json:"pass_rate"`
	ConfusionMatrix     map[TriageLevel]map[TriageLevel]int `json:"confusion_matrix"`
}
