package services

import (
	"fmt"
	"strings"

	"github.com/meditriage/triage-core/internal/domain/entities"
)

// SafetyGuard screens every workflow result against clinical risk rules. It
// is pure and deterministic: no I/O, no state, and no check ever errors —
// absence of a trigger simply yields no alert. Checks are independent so they
// can be tested in isolation; the final severity sort is the only ordering
// guarantee callers may rely on.
type SafetyGuard struct{}

// NewSafetyGuard creates a new safety guard.
func NewSafetyGuard() *SafetyGuard {
	return &SafetyGuard{}
}

// Validate runs all eight checks and returns their alerts sorted
// critical, warning, info.
func (g *SafetyGuard) Validate(result *entities.MedicalWorkflowResult, intake *entities.PatientIntake) []entities.SafetyAlert {
	var alerts []entities.SafetyAlert

	alerts = append(alerts, g.checkEmergencyEscalation(result)...)
	alerts = append(alerts, g.checkRedFlagSymptoms(intake)...)
	alerts = append(alerts, g.checkCriticalVitals(intake)...)
	alerts = append(alerts, g.checkMedicationInteractions(intake)...)
	alerts = append(alerts, g.checkConfidenceCalibration(result)...)
	alerts = append(alerts, g.checkDemographicBias(result, intake)...)
	alerts = append(alerts, g.checkPregnancyRisk(intake)...)
	alerts = append(alerts, g.checkInputRobustness(intake)...)

	entities.SortAlerts(alerts)
	return alerts
}

func (g *SafetyGuard) checkEmergencyEscalation(result *entities.MedicalWorkflowResult) []entities.SafetyAlert {
	if result.TriageLevel == entities.TriageEmergency {
		return []entities.SafetyAlert{{
			Severity: entities.AlertCritical,
			Category: entities.CategoryEmergencyEscalation,
			Title:    "Emergency triage level",
			Message:  "The assessment classified this presentation as an emergency. Seek immediate care.",
			Action:   "Call 911",
		}}
	}

	reasoning := strings.ToLower(result.ReasoningText())
	for _, keyword := range acuteConditionKeywords {
		if strings.Contains(reasoning, keyword) {
			return []entities.SafetyAlert{{
				Severity: entities.AlertWarning,
				Category: entities.CategoryEmergencyEscalation,
				Title:    "Possible acute condition mentioned",
				Message:  fmt.Sprintf("The reasoning mentions %q but the triage level is below emergency. Verify the classification.", keyword),
			}}
		}
	}
	return nil
}

func (g *SafetyGuard) checkRedFlagSymptoms(intake *entities.PatientIntake) []entities.SafetyAlert {
	var alerts []entities.SafetyAlert
	text := intake.SymptomText()

	for _, rf := range redFlagSymptoms {
		if strings.Contains(text, rf.Phrase) {
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertWarning,
				Category: entities.CategoryRedFlagSymptom,
				Title:    fmt.Sprintf("Red-flag symptom: %s", rf.Phrase),
				Message:  rf.Reason,
			})
		}
	}
	return alerts
}

func (g *SafetyGuard) checkCriticalVitals(intake *entities.PatientIntake) []entities.SafetyAlert {
	vitals := intake.Vitals
	if vitals == nil {
		return nil
	}

	var alerts []entities.SafetyAlert

	if vitals.HeartRate != nil {
		hr := *vitals.HeartRate
		band := heartRateBandForAge(intake.Age)
		switch {
		case hr < band.CriticalLow || hr > band.CriticalHigh:
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertCritical,
				Category: entities.CategoryCriticalVital,
				Title:    "Critical heart rate",
				Message:  fmt.Sprintf("Heart rate %d bpm is outside the critical range for the %s bracket (%d-%d).", hr, band.Name, band.CriticalLow, band.CriticalHigh),
			})
		case hr < band.WarningLow || hr > band.WarningHigh:
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertWarning,
				Category: entities.CategoryCriticalVital,
				Title:    "Abnormal heart rate",
				Message:  fmt.Sprintf("Heart rate %d bpm is outside the expected range for the %s bracket (%d-%d).", hr, band.Name, band.WarningLow, band.WarningHigh),
			})
		}
	}

	if vitals.TemperatureF != nil {
		temp := *vitals.TemperatureF
		switch {
		case temp >= tempCriticalHighF || temp <= tempCriticalLowF:
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertCritical,
				Category: entities.CategoryCriticalVital,
				Title:    "Critical temperature",
				Message:  fmt.Sprintf("Temperature %.1f°F is in a critical range.", temp),
			})
		case temp >= tempWarningHighF || temp <= tempWarningLowF:
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertWarning,
				Category: entities.CategoryCriticalVital,
				Title:    "Abnormal temperature",
				Message:  fmt.Sprintf("Temperature %.1f°F is outside the expected range.", temp),
			})
		}
	}

	if vitals.OxygenSaturation != nil {
		spo2 := *vitals.OxygenSaturation
		switch {
		case spo2 < spo2Critical:
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertCritical,
				Category: entities.CategoryCriticalVital,
				Title:    "Critical SpO2",
				Message:  fmt.Sprintf("Oxygen saturation %d%% indicates severe hypoxemia.", spo2),
			})
		case spo2 < spo2Warning:
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertWarning,
				Category: entities.CategoryCriticalVital,
				Title:    "Low SpO2",
				Message:  fmt.Sprintf("Oxygen saturation %d%% is below the expected range.", spo2),
			})
		}
	}

	if vitals.RespiratoryRate != nil {
		rr := *vitals.RespiratoryRate
		switch {
		case rr > respRateCriticalHigh || rr < respRateCriticalLow:
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertCritical,
				Category: entities.CategoryCriticalVital,
				Title:    "Critical respiratory rate",
				Message:  fmt.Sprintf("Respiratory rate %d breaths/min is in a critical range.", rr),
			})
		case rr > respRateWarningHigh || rr < respRateWarningLow:
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertWarning,
				Category: entities.CategoryCriticalVital,
				Title:    "Abnormal respiratory rate",
				Message:  fmt.Sprintf("Respiratory rate %d breaths/min is outside the expected range.", rr),
			})
		}
	}

	return alerts
}

func (g *SafetyGuard) checkMedicationInteractions(intake *entities.PatientIntake) []entities.SafetyAlert {
	if len(intake.Medications) < 2 {
		return nil
	}

	meds := make([]string, len(intake.Medications))
	for i, m := range intake.Medications {
		meds[i] = strings.ToLower(m)
	}

	takes := func(drug string) bool {
		for _, m := range meds {
			if strings.Contains(m, drug) {
				return true
			}
		}
		return false
	}

	var alerts []entities.SafetyAlert
	for _, di := range drugInteractions {
		if takes(di.DrugA) && takes(di.DrugB) {
			alerts = append(alerts, entities.SafetyAlert{
				Severity: di.Severity,
				Category: entities.CategoryMedicationInteraction,
				Title:    fmt.Sprintf("Interaction: %s + %s", di.DrugA, di.DrugB),
				Message:  di.Reason,
			})
		}
	}
	return alerts
}

func (g *SafetyGuard) checkConfidenceCalibration(result *entities.MedicalWorkflowResult) []entities.SafetyAlert {
	var alerts []entities.SafetyAlert

	if len(result.Diagnoses) >= 3 {
		minP, maxP := result.Diagnoses[0].Probability, result.Diagnoses[0].Probability
		for _, d := range result.Diagnoses[1:] {
			if d.Probability < minP {
				minP = d.Probability
			}
			if d.Probability > maxP {
				maxP = d.Probability
			}
		}
		if maxP-minP < 0.15 {
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertInfo,
				Category: entities.CategoryConfidenceCalibration,
				Title:    "Low diagnostic confidence",
				Message:  "The differential contains several diagnoses with near-identical probabilities; the model did not discriminate between them.",
			})
		}
	}

	if len(result.Diagnoses) == 1 {
		alerts = append(alerts, entities.SafetyAlert{
			Severity: entities.AlertInfo,
			Category: entities.CategoryConfidenceCalibration,
			Title:    "Anchoring risk",
			Message:  "Only a single diagnosis was considered. Alternative explanations may have been overlooked.",
		})
	}

	return alerts
}

func (g *SafetyGuard) checkDemographicBias(result *entities.MedicalWorkflowResult, intake *entities.PatientIntake) []entities.SafetyAlert {
	var alerts []entities.SafetyAlert

	conditions := make([]string, len(result.Diagnoses))
	for i, d := range result.Diagnoses {
		conditions[i] = strings.ToLower(d.Condition)
	}
	hasCondition := func(keywords []string) (string, bool) {
		for _, c := range conditions {
			for _, kw := range keywords {
				if strings.Contains(c, kw) {
					return kw, true
				}
			}
		}
		return "", false
	}

	if intake.Sex == entities.SexMale {
		if kw, ok := hasCondition(femaleOnlyConditions); ok {
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertWarning,
				Category: entities.CategoryDemographicBias,
				Title:    "Sex-condition mismatch",
				Message:  fmt.Sprintf("A diagnosis involving %q was proposed for a male patient.", kw),
			})
		}
	}
	if intake.Sex == entities.SexFemale {
		if kw, ok := hasCondition(maleOnlyConditions); ok {
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertWarning,
				Category: entities.CategoryDemographicBias,
				Title:    "Sex-condition mismatch",
				Message:  fmt.Sprintf("A diagnosis involving %q was proposed for a female patient.", kw),
			})
		}

		// Women presenting with chest pain are historically under-triaged.
		if strings.Contains(intake.SymptomText(), "chest pain") && result.TriageLevel != entities.TriageEmergency {
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertWarning,
				Category: entities.CategoryDemographicBias,
				Title:    "Possible under-triage pattern",
				Message:  "Female patient with chest pain triaged below emergency. Cardiac presentations in women are frequently atypical.",
			})
		}
	}

	if intake.Age < 18 {
		if kw, ok := hasCondition(geriatricOnlyConditions); ok {
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertInfo,
				Category: entities.CategoryDemographicBias,
				Title:    "Age-condition mismatch",
				Message:  fmt.Sprintf("A diagnosis involving %q is atypical for a pediatric patient.", kw),
			})
		}
	}
	if intake.Age >= 65 {
		if kw, ok := hasCondition(pediatricOnlyConditions); ok {
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertInfo,
				Category: entities.CategoryDemographicBias,
				Title:    "Age-condition mismatch",
				Message:  fmt.Sprintf("A diagnosis involving %q is atypical for a geriatric patient.", kw),
			})
		}
	}

	return alerts
}

func (g *SafetyGuard) checkPregnancyRisk(intake *entities.PatientIntake) []entities.SafetyAlert {
	if !intake.Pregnant {
		return nil
	}

	var alerts []entities.SafetyAlert
	text := intake.SymptomText()

	if systolic, ok := intake.Vitals.Systolic(); ok && systolic >= 140 {
		if containsAny(text, pregnancyHeadacheVision...) {
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertCritical,
				Category: entities.CategoryPregnancyRisk,
				Title:    "Eclampsia warning",
				Message:  fmt.Sprintf("Systolic pressure %d mmHg with headache or visual symptoms during pregnancy requires emergency evaluation.", systolic),
				Action:   "Seek emergency obstetric care",
			})
		} else {
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertWarning,
				Category: entities.CategoryPregnancyRisk,
				Title:    "Possible preeclampsia",
				Message:  fmt.Sprintf("Systolic pressure %d mmHg during pregnancy is above the preeclampsia threshold.", systolic),
			})
		}
	}

	if containsAny(text, pregnancyAbdominalPain...) {
		alerts = append(alerts, entities.SafetyAlert{
			Severity: entities.AlertWarning,
			Category: entities.CategoryPregnancyRisk,
			Title:    "Abdominal pain during pregnancy",
			Message:  "Abdominal or pelvic pain during pregnancy needs prompt obstetric assessment.",
		})
	}
	if containsAny(text, pregnancyBleeding...) {
		alerts = append(alerts, entities.SafetyAlert{
			Severity: entities.AlertWarning,
			Category: entities.CategoryPregnancyRisk,
			Title:    "Bleeding during pregnancy",
			Message:  "Vaginal bleeding during pregnancy needs prompt obstetric assessment.",
		})
	}

	return alerts
}

func (g *SafetyGuard) checkInputRobustness(intake *entities.PatientIntake) []entities.SafetyAlert {
	var alerts []entities.SafetyAlert

	if len(intake.Symptoms) > 20 {
		alerts = append(alerts, entities.SafetyAlert{
			Severity: entities.AlertInfo,
			Category: entities.CategoryInputRobustness,
			Title:    "Unusually long symptom list",
			Message:  fmt.Sprintf("%d symptoms were listed; the assessment may dilute across them.", len(intake.Symptoms)),
		})
	}

	if v := intake.Vitals; v != nil && v.HeartRate != nil && v.OxygenSaturation != nil && v.RespiratoryRate != nil {
		if *v.HeartRate > 150 && *v.OxygenSaturation > 97 && *v.RespiratoryRate < 12 {
			alerts = append(alerts, entities.SafetyAlert{
				Severity: entities.AlertInfo,
				Category: entities.CategoryInputRobustness,
				Title:    "Physiologically inconsistent vitals",
				Message:  "Severe tachycardia with normal saturation and low respiratory rate is an unusual combination; verify the measurements.",
			})
		}
	}

	if len(strings.TrimSpace(intake.ChiefComplaint)) < 5 {
		alerts = append(alerts, entities.SafetyAlert{
			Severity: entities.AlertInfo,
			Category: entities.CategoryInputRobustness,
			Title:    "Minimal chief complaint",
			Message:  "The chief complaint is too short to anchor the assessment reliably.",
		})
	}

	return alerts
}
