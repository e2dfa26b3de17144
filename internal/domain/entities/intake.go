package entities

import (
	"strconv"
	"strings"
)

// BiologicalSex is the sex recorded at intake, used by demographic safety checks.
type BiologicalSex string

const (
	SexMale   BiologicalSex = "male"
	SexFemale BiologicalSex = "female"
	SexOther  BiologicalSex = "other"
)

// SymptomSeverity is the patient-reported severity of the presenting complaint.
type SymptomSeverity string

const (
	SeverityMild     SymptomSeverity = "mild"
	SeverityModerate SymptomSeverity = "moderate"
	SeveritySevere   SymptomSeverity = "severe"
)

// VitalSigns holds point-in-time measurements. All fields are optional;
// a nil pointer means the measurement was not taken.
type VitalSigns struct {
	HeartRate        *int     `json:"heart_rate,omitempty"`
	BloodPressure    string   `json:"blood_pressure,omitempty"` // "systolic/diastolic", e.g. "120/80"
	TemperatureF     *float64 `json:"temperature_f,omitempty"`
	RespiratoryRate  *int     `json:"respiratory_rate,omitempty"`
	OxygenSaturation *int     `json:"oxygen_saturation,omitempty"` // SpO2 percent
	WeightKg         *float64 `json:"weight_kg,omitempty"`
}

// Systolic parses the systolic component of the blood pressure string.
// Returns (0, false) if no pressure was recorded or the string is malformed.
func (v *VitalSigns) Systolic() (int, bool) {
	if v == nil || v.BloodPressure == "" {
		return 0, false
	}
	parts := strings.SplitN(v.BloodPressure, "/", 2)
	systolic, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	return systolic, true
}

// PatientIntake is one triage request. It is immutable once handed to the
// workflow engine.
type PatientIntake struct {
	PatientID      string          `json:"patient_id"`
	Age            int             `json:"age"`
	Sex            BiologicalSex   `json:"sex"`
	Pregnant       bool            `json:"pregnant"`
	ChiefComplaint string          `json:"chief_complaint"`
	Symptoms       []string        `json:"symptoms"`
	Onset          string          `json:"onset,omitempty"`
	Severity       SymptomSeverity `json:"severity,omitempty"`
	Vitals         *VitalSigns     `json:"vitals,omitempty"`
	History        []string        `json:"history,omitempty"`
	Medications    []string        `json:"medications,omitempty"`
	Allergies      []string        `json:"allergies,omitempty"`
	ImagePaths     []string        `json:"image_paths,omitempty"`
	ConsentToStore bool            `json:"consent_to_store"`
}

// SymptomText joins the chief complaint and symptom list into one lowercase
// blob for keyword matching.
func (p *PatientIntake) SymptomText() string {
	parts := make([]string, 0, len(p.Symptoms)+1)
	if p.ChiefComplaint != "" {
		parts = append(parts, p.ChiefComplaint)
	}
	parts = append(parts, p.Symptoms...)
	return strings.ToLower(strings.Join(parts, "; "))
}
