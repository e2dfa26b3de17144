package evaluation

import (
	"github.com/meditriage/triage-core/internal/domain/entities"
)

// Corpus returns the fixed benchmark corpus: ten hand-authored clinical
// vignettes spanning emergency, urgent and self-care tiers. The corpus is
// static; supplemental vignettes can be appended via LoadVignettes.
func Corpus() []entities.BenchmarkVignette {
	return []entities.BenchmarkVignette{
		{
			Name:     "acute-coronary-syndrome",
			Category: "cardiac",
			Intake: entities.PatientIntake{
				PatientID:      "bench-001",
				Age:            58,
				Sex:            entities.SexMale,
				ChiefComplaint: "Crushing chest pain radiating to the left arm",
				Symptoms:       []string{"chest pain", "shortness of breath", "sweating", "nausea"},
				Onset:          "45 minutes ago",
				Severity:       entities.SeveritySevere,
				Vitals:         &entities.VitalSigns{HeartRate: intPtr(112), BloodPressure: "150/95", OxygenSaturation: intPtr(94)},
				History:        []string{"hypertension", "smoker, 30 pack-years"},
				Medications:    []string{"lisinopril"},
			},
			ExpectedTriage:           entities.TriageEmergency,
			ExpectedKeywords:         []string{"myocardial infarction", "acute coronary"},
			ExpectedSafetyCategories: []entities.AlertCategory{entities.CategoryEmergencyEscalation, entities.CategoryRedFlagSymptom},
		},
		{
			Name:     "acute-stroke",
			Category: "neurologic",
			Intake: entities.PatientIntake{
				PatientID:      "bench-002",
				Age:            72,
				Sex:            entities.SexFemale,
				ChiefComplaint: "Sudden weakness on the right side with slurred speech",
				Symptoms:       []string{"sudden weakness", "slurred speech", "facial droop"},
				Onset:          "30 minutes ago",
				Severity:       entities.SeveritySevere,
				Vitals:         &entities.VitalSigns{BloodPressure: "175/100", HeartRate: intPtr(88)},
				History:        []string{"atrial fibrillation"},
				Medications:    []string{"warfarin"},
			},
			ExpectedTriage:           entities.TriageEmergency,
			ExpectedKeywords:         []string{"stroke"},
			ExpectedSafetyCategories: []entities.AlertCategory{entities.CategoryEmergencyEscalation, entities.CategoryRedFlagSymptom},
		},
		{
			Name:     "anaphylaxis",
			Category: "allergic",
			Intake: entities.PatientIntake{
				PatientID:      "bench-003",
				Age:            24,
				Sex:            entities.SexFemale,
				ChiefComplaint: "Throat swelling and difficulty breathing after eating peanuts",
				Symptoms:       []string{"difficulty breathing", "hives", "throat tightness", "dizziness"},
				Onset:          "15 minutes ago",
				Severity:       entities.SeveritySevere,
				Vitals:         &entities.VitalSigns{HeartRate: intPtr(128), OxygenSaturation: intPtr(85), RespiratoryRate: intPtr(28)},
				Allergies:      []string{"peanuts"},
			},
			ExpectedTriage:           entities.TriageEmergency,
			ExpectedKeywords:         []string{"anaphylaxis"},
			ExpectedSafetyCategories: []entities.AlertCategory{entities.CategoryEmergencyEscalation, entities.CategoryCriticalVital},
		},
		{
			Name:     "febrile-infant",
			Category: "pediatric",
			Intake: entities.PatientIntake{
				PatientID:      "bench-004",
				Age:            0,
				Sex:            entities.SexMale,
				ChiefComplaint: "High fever and poor feeding in a 3-week-old",
				Symptoms:       []string{"fever", "poor feeding", "lethargy"},
				Onset:          "6 hours ago",
				Severity:       entities.SeveritySevere,
				Vitals:         &entities.VitalSigns{HeartRate: intPtr(210), TemperatureF: floatPtr(103.1)},
			},
			ExpectedTriage:           entities.TriageEmergency,
			ExpectedKeywords:         []string{"sepsis", "neonatal"},
			ExpectedSafetyCategories: []entities.AlertCategory{entities.CategoryCriticalVital},
		},
		{
			Name:     "preeclampsia",
			Category: "obstetric",
			Intake: entities.PatientIntake{
				PatientID:      "bench-005",
				Age:            32,
				Sex:            entities.SexFemale,
				Pregnant:       true,
				ChiefComplaint: "Persistent headache and swollen ankles at 34 weeks",
				Symptoms:       []string{"headache", "ankle swelling", "blurred vision"},
				Onset:          "2 days ago",
				Severity:       entities.SeverityModerate,
				Vitals:         &entities.VitalSigns{BloodPressure: "152/96", HeartRate: intPtr(92)},
			},
			ExpectedTriage:           entities.TriageUrgent,
			ExpectedKeywords:         []string{"preeclampsia"},
			ExpectedSafetyCategories: []entities.AlertCategory{entities.CategoryPregnancyRisk},
		},
		{
			Name:     "possible-appendicitis",
			Category: "abdominal",
			Intake: entities.PatientIntake{
				PatientID:      "bench-006",
				Age:            21,
				Sex:            entities.SexMale,
				ChiefComplaint: "Abdominal pain migrating to the right lower quadrant",
				Symptoms:       []string{"abdominal pain", "loss of appetite", "low-grade fever", "nausea"},
				Onset:          "18 hours ago",
				Severity:       entities.SeverityModerate,
				Vitals:         &entities.VitalSigns{TemperatureF: floatPtr(100.8), HeartRate: intPtr(98)},
			},
			ExpectedTriage:   entities.TriageUrgent,
			ExpectedKeywords: []string{"appendicitis"},
		},
		{
			Name:     "nitrate-pde5-interaction",
			Category: "medication",
			Intake: entities.PatientIntake{
				PatientID:      "bench-007",
				Age:            67,
				Sex:            entities.SexMale,
				ChiefComplaint: "Lightheadedness and near-fainting since this morning",
				Symptoms:       []string{"dizziness", "lightheadedness", "weakness"},
				Onset:          "8 hours ago",
				Severity:       entities.SeverityModerate,
				Vitals:         &entities.VitalSigns{BloodPressure: "88/55", HeartRate: intPtr(105)},
				History:        []string{"coronary artery disease", "erectile dysfunction"},
				Medications:    []string{"nitroglycerin", "sildenafil", "atorvastatin"},
			},
			ExpectedTriage:           entities.TriageUrgent,
			ExpectedKeywords:         []string{"hypotension"},
			ExpectedSafetyCategories: []entities.AlertCategory{entities.CategoryMedicationInteraction},
		},
		{
			Name:     "uncomplicated-uti",
			Category: "genitourinary",
			Intake: entities.PatientIntake{
				PatientID:      "bench-008",
				Age:            28,
				Sex:            entities.SexFemale,
				ChiefComplaint: "Burning with urination and urinary frequency",
				Symptoms:       []string{"dysuria", "urinary frequency", "urgency"},
				Onset:          "2 days ago",
				Severity:       entities.SeverityMild,
			},
			ExpectedTriage:   entities.TriageSemiUrgent,
			ExpectedKeywords: []string{"urinary tract infection"},
		},
		{
			Name:     "sore-throat",
			Category: "respiratory",
			Intake: entities.PatientIntake{
				PatientID:      "bench-009",
				Age:            35,
				Sex:            entities.SexMale,
				ChiefComplaint: "Sore throat and mild fever for three days",
				Symptoms:       []string{"sore throat", "mild fever", "swollen glands"},
				Onset:          "3 days ago",
				Severity:       entities.SeverityMild,
				Vitals:         &entities.VitalSigns{TemperatureF: floatPtr(99.8)},
			},
			ExpectedTriage:   entities.TriageNonUrgent,
			ExpectedKeywords: []string{"pharyngitis"},
		},
		{
			Name:     "common-cold",
			Category: "respiratory",
			Intake: entities.PatientIntake{
				PatientID:      "bench-010",
				Age:            41,
				Sex:            entities.SexFemale,
				ChiefComplaint: "Runny nose, sneezing and mild cough for two days",
				Symptoms:       []string{"runny nose", "sneezing", "mild cough"},
				Onset:          "2 days ago",
				Severity:       entities.SeverityMild,
			},
			ExpectedTriage:   entities.TriageSelfCare,
			ExpectedKeywords: []string{"viral", "upper respiratory"},
		},
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
