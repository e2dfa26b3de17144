package services

import (
	"fmt"
	"strings"

	"github.com/meditriage/triage-core/internal/domain/entities"
)

const triageSystemPrompt = `You are a clinical triage reasoning assistant supporting a licensed healthcare workflow. Reason step by step, be specific, and never invent vital signs or history that were not provided. You are assisting a triage decision, not replacing clinical judgment. Do not address the patient directly.`

const resultDisclaimer = "This assessment was generated by an automated reasoning pipeline and does not constitute medical advice. All findings must be reviewed by a qualified clinician."

// excerptLimit bounds how much of a previous stage's output is carried into
// the next prompt.
const excerptLimit = 500

func buildPatientContext(intake *entities.PatientIntake) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Patient: %d-year-old %s.\n", intake.Age, intake.Sex)
	if intake.Pregnant {
		b.WriteString("The patient is pregnant.\n")
	}
	fmt.Fprintf(&b, "Chief complaint: %s\n", intake.ChiefComplaint)
	if len(intake.Symptoms) > 0 {
		fmt.Fprintf(&b, "Symptoms: %s\n", strings.Join(intake.Symptoms, ", "))
	}
	if intake.Onset != "" {
		fmt.Fprintf(&b, "Onset: %s\n", intake.Onset)
	}
	if intake.Severity != "" {
		fmt.Fprintf(&b, "Reported severity: %s\n", intake.Severity)
	}
	if v := intake.Vitals; v != nil {
		b.WriteString("Vitals:")
		if v.HeartRate != nil {
			fmt.Fprintf(&b, " HR %d bpm;", *v.HeartRate)
		}
		if v.BloodPressure != "" {
			fmt.Fprintf(&b, " BP %s;", v.BloodPressure)
		}
		if v.TemperatureF != nil {
			fmt.Fprintf(&b, " Temp %.1f F;", *v.TemperatureF)
		}
		if v.RespiratoryRate != nil {
			fmt.Fprintf(&b, " RR %d;", *v.RespiratoryRate)
		}
		if v.OxygenSaturation != nil {
			fmt.Fprintf(&b, " SpO2 %d%%;", *v.OxygenSaturation)
		}
		b.WriteString("\n")
	}
	if len(intake.History) > 0 {
		fmt.Fprintf(&b, "Medical history: %s\n", strings.Join(intake.History, ", "))
	}
	if len(intake.Medications) > 0 {
		fmt.Fprintf(&b, "Current medications: %s\n", strings.Join(intake.Medications, ", "))
	}
	if len(intake.Allergies) > 0 {
		fmt.Fprintf(&b, "Allergies: %s\n", strings.Join(intake.Allergies, ", "))
	}

	return b.String()
}

func buildSymptomAnalysisPrompt(patientContext string) string {
	return patientContext + "\nAnalyze the presenting symptoms. Identify the dominant symptom cluster, relevant associations between symptoms, and any findings that change the clinical picture."
}

func buildTriageAssessmentPrompt(patientContext, symptomAnalysis string) string {
	return fmt.Sprintf(
		"%s\nSymptom analysis:\n%s\n\nAssign a triage level for this presentation. Use exactly one of: Emergency, Urgent, Semi-Urgent, Non-Urgent, Self-Care. State the level explicitly and justify it.",
		patientContext, symptomAnalysis,
	)
}

func buildDifferentialPrompt(patientContext string, triage entities.TriageLevel, symptomAnalysis string) string {
	return fmt.Sprintf(
		"%s\nTriage level: %s\nSymptom analysis excerpt:\n%s\n\nList the most likely differential diagnoses as a numbered list, most likely first. For each, give the condition name, a likelihood qualifier (high, moderate, or low), then a colon and a short rationale.",
		patientContext, triage, excerpt(symptomAnalysis),
	)
}

func buildRiskStratificationPrompt(patientContext string, diagnoses []entities.Diagnosis) string {
	names := make([]string, len(diagnoses))
	for i, d := range diagnoses {
		names[i] = d.Condition
	}
	return fmt.Sprintf(
		"%s\nDifferential diagnoses under consideration: %s\n\nStratify the short-term risk for this patient. Discuss which diagnoses would be dangerous to miss, expected progression without treatment, and factors in this presentation that raise or lower risk.",
		patientContext, strings.Join(names, ", "),
	)
}

func buildRecommendationsPrompt(patientContext string, triage entities.TriageLevel, riskOutput string) string {
	return fmt.Sprintf(
		"%s\nTriage level: %s\nRisk assessment excerpt:\n%s\n\nGive concrete recommended actions as a numbered list, most important first. Include when and where to seek care and what to monitor.",
		patientContext, triage, excerpt(riskOutput),
	)
}

func excerpt(text string) string {
	if len(text) <= excerptLimit {
		return text
	}
	return text[:excerptLimit]
}
