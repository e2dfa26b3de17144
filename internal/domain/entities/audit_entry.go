package entities

import "time"

// AuditStepRecord is the privacy-preserving trace of one reasoning step.
// Only fixed-length hashes of the title and content are kept.
type AuditStepRecord struct {
	Number      int    `json:"number"`
	TitleHash   string `json:"title_hash"`
	ContentHash string `json:"content_hash"`
	DurationMS  int64  `json:"duration_ms"`
}

// AlertSummary summarizes the safety alerts of a run without their text.
type AlertSummary struct {
	CriticalCount int             `json:"critical_count"`
	WarningCount  int             `json:"warning_count"`
	InfoCount     int             `json:"info_count"`
	Categories    []AlertCategory `json:"categories"`
}

// ConsentFlags records what the patient agreed to at intake time.
type ConsentFlags struct {
	StoreRecord   bool `json:"store_record"`
	ImageAnalysis bool `json:"image_analysis"`
}

// AuditEntry is the persisted compliance record for one workflow execution.
// It proves that reasoning occurred and what shape it took; it never stores
// raw patient text, only hashes. Entries are append-only and never mutated.
type AuditEntry struct {
	CaseID                 string             `json:"case_id"`
	ModelID                string             `json:"model_id"`
	ModelVersion           string             `json:"model_version,omitempty"`
	Steps                  []AuditStepRecord  `json:"steps"`
	TriageLevel            TriageLevel        `json:"triage_level"`
	Alerts                 AlertSummary       `json:"alerts"`
	Performance            PerformanceMetrics `json:"performance"`
	PatientDataHash        string             `json:"patient_data_hash"`
	ImageAnalysisPerformed bool               `json:"image_analysis_performed"`
	Consent                ConsentFlags       `json:"consent"`
	CreatedAt              time.Time          `json:"created_at"`
}
