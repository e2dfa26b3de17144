package services

import (
	"strings"
	"testing"

	"github.com/meditriage/triage-core/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intake(mutate func(*entities.PatientIntake)) *entities.PatientIntake {
	in := &entities.PatientIntake{
		PatientID:      "p-1",
		Age:            40,
		Sex:            entities.SexMale,
		ChiefComplaint: "Mild headache for two days",
		Symptoms:       []string{"headache"},
	}
	if mutate != nil {
		mutate(in)
	}
	return in
}

func result(mutate func(*entities.MedicalWorkflowResult)) *entities.MedicalWorkflowResult {
	r := &entities.MedicalWorkflowResult{
		CaseID:      "case-1",
		TriageLevel: entities.TriageNonUrgent,
		Diagnoses: []entities.Diagnosis{
			{Condition: "Tension headache", Probability: 0.8},
			{Condition: "Migraine", Probability: 0.5},
		},
	}
	if mutate != nil {
		mutate(r)
	}
	return r
}

func categoriesOf(alerts []entities.SafetyAlert) []entities.AlertCategory {
	cats := make([]entities.AlertCategory, len(alerts))
	for i, a := range alerts {
		cats[i] = a.Category
	}
	return cats
}

func TestSafetyGuard_EmergencyEscalation(t *testing.T) {
	guard := NewSafetyGuard()

	alerts := guard.Validate(result(func(r *entities.MedicalWorkflowResult) {
		r.TriageLevel = entities.TriageEmergency
	}), intake(nil))

	require.NotEmpty(t, alerts)
	assert.Equal(t, entities.AlertCritical, alerts[0].Severity)
	assert.Equal(t, entities.CategoryEmergencyEscalation, alerts[0].Category)
	assert.Equal(t, "Call 911", alerts[0].Action)
}

func TestSafetyGuard_AcuteConditionBelowEmergency(t *testing.T) {
	guard := NewSafetyGuard()

	alerts := guard.Validate(result(func(r *entities.MedicalWorkflowResult) {
		r.Steps = []entities.ReasoningStep{
			{Number: 1, Title: "Symptom Analysis", Content: "The presentation could represent early sepsis."},
		}
	}), intake(nil))

	assert.Contains(t, categoriesOf(alerts), entities.CategoryEmergencyEscalation)
	for _, a := range alerts {
		if a.Category == entities.CategoryEmergencyEscalation {
			assert.Equal(t, entities.AlertWarning, a.Severity)
		}
	}
}

func TestSafetyGuard_RedFlagSymptoms(t *testing.T) {
	guard := NewSafetyGuard()

	alerts := guard.Validate(result(nil), intake(func(in *entities.PatientIntake) {
		in.ChiefComplaint = "Worst headache of my life"
		in.Symptoms = []string{"stiff neck"}
	}))

	count := 0
	for _, a := range alerts {
		if a.Category == entities.CategoryRedFlagSymptom {
			count++
			assert.Equal(t, entities.AlertWarning, a.Severity)
		}
	}
	assert.Equal(t, 2, count)
}

func TestSafetyGuard_HeartRateBands(t *testing.T) {
	guard := NewSafetyGuard()

	tests := []struct {
		name     string
		age      int
		hr       int
		severity entities.AlertSeverity
		none     bool
	}{
		{"infant normal", 0, 130, "", true},
		{"infant critical tachycardia", 0, 210, entities.AlertCritical, false},
		{"toddler boundary uses toddler band", 1, 75, entities.AlertWarning, false},
		{"child boundary uses child band", 6, 65, entities.AlertWarning, false},
		{"adolescent boundary uses adolescent band", 12, 55, entities.AlertWarning, false},
		{"adolescent upper boundary still uses adolescent band", 17, 55, entities.AlertWarning, false},
		{"adult boundary uses adult band", 18, 45, entities.AlertWarning, false},
		{"adult critical bradycardia", 30, 38, entities.AlertCritical, false},
		{"geriatric boundary uses geriatric band", 65, 50, entities.AlertWarning, false},
		{"geriatric normal", 80, 70, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hr := tt.hr
			alerts := guard.Validate(result(nil), intake(func(in *entities.PatientIntake) {
				in.Age = tt.age
				in.Vitals = &entities.VitalSigns{HeartRate: &hr}
			}))

			var found *entities.SafetyAlert
			for i := range alerts {
				if alerts[i].Category == entities.CategoryCriticalVital {
					found = &alerts[i]
					break
				}
			}

			if tt.none {
				assert.Nil(t, found)
				return
			}
			require.NotNil(t, found)
			assert.Equal(t, tt.severity, found.Severity)
		})
	}
}

func TestSafetyGuard_CriticalSpO2(t *testing.T) {
	guard := NewSafetyGuard()
	spo2 := 85

	alerts := guard.Validate(result(nil), intake(func(in *entities.PatientIntake) {
		in.Vitals = &entities.VitalSigns{OxygenSaturation: &spo2}
	}))

	require.NotEmpty(t, alerts)
	assert.Equal(t, entities.AlertCritical, alerts[0].Severity)
	assert.Contains(t, alerts[0].Title, "SpO2")
}

func TestSafetyGuard_DrugInteraction_OrderIndependent(t *testing.T) {
	guard := NewSafetyGuard()

	for _, meds := range [][]string{
		{"nitroglycerin", "sildenafil"},
		{"Sildenafil 50mg", "Nitroglycerin spray"},
	} {
		alerts := guard.Validate(result(nil), intake(func(in *entities.PatientIntake) {
			in.Medications = meds
		}))

		found := false
		for _, a := range alerts {
			if a.Category == entities.CategoryMedicationInteraction {
				found = true
				assert.Equal(t, entities.AlertCritical, a.Severity)
			}
		}
		assert.True(t, found, "meds %v should trigger the interaction", meds)
	}
}

func TestSafetyGuard_NoInteractionForSingleMedication(t *testing.T) {
	guard := NewSafetyGuard()

	alerts := guard.Validate(result(nil), intake(func(in *entities.PatientIntake) {
		in.Medications = []string{"sildenafil"}
	}))

	assert.NotContains(t, categoriesOf(alerts), entities.CategoryMedicationInteraction)
}

func TestSafetyGuard_ConfidenceCalibration(t *testing.T) {
	guard := NewSafetyGuard()

	t.Run("flat differential", func(t *testing.T) {
		alerts := guard.Validate(result(func(r *entities.MedicalWorkflowResult) {
			r.Diagnoses = []entities.Diagnosis{
				{Condition: "A", Probability: 0.5},
				{Condition: "B", Probability: 0.55},
				{Condition: "C", Probability: 0.6},
			}
		}), intake(nil))

		found := false
		for _, a := range alerts {
			if a.Title == "Low diagnostic confidence" {
				found = true
				assert.Equal(t, entities.AlertInfo, a.Severity)
			}
		}
		assert.True(t, found)
	})

	t.Run("single diagnosis anchoring", func(t *testing.T) {
		alerts := guard.Validate(result(func(r *entities.MedicalWorkflowResult) {
			r.Diagnoses = []entities.Diagnosis{{Condition: "A", Probability: 0.8}}
		}), intake(nil))

		found := false
		for _, a := range alerts {
			if a.Title == "Anchoring risk" {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("well separated differential", func(t *testing.T) {
		alerts := guard.Validate(result(func(r *entities.MedicalWorkflowResult) {
			r.Diagnoses = []entities.Diagnosis{
				{Condition: "A", Probability: 0.8},
				{Condition: "B", Probability: 0.5},
				{Condition: "C", Probability: 0.2},
			}
		}), intake(nil))

		assert.NotContains(t, categoriesOf(alerts), entities.CategoryConfidenceCalibration)
	})
}

func TestSafetyGuard_DemographicBias(t *testing.T) {
	guard := NewSafetyGuard()

	t.Run("sex condition mismatch", func(t *testing.T) {
		alerts := guard.Validate(result(func(r *entities.MedicalWorkflowResult) {
			r.Diagnoses = []entities.Diagnosis{{Condition: "Ovarian cyst", Probability: 0.6}}
		}), intake(func(in *entities.PatientIntake) {
			in.Sex = entities.SexMale
		}))

		assert.Contains(t, categoriesOf(alerts), entities.CategoryDemographicBias)
	})

	t.Run("female chest pain under-triage", func(t *testing.T) {
		alerts := guard.Validate(result(func(r *entities.MedicalWorkflowResult) {
			r.TriageLevel = entities.TriageUrgent
		}), intake(func(in *entities.PatientIntake) {
			in.Sex = entities.SexFemale
			in.ChiefComplaint = "Chest pain and fatigue"
		}))

		found := false
		for _, a := range alerts {
			if a.Title == "Possible under-triage pattern" {
				found = true
				assert.Equal(t, entities.AlertWarning, a.Severity)
			}
		}
		assert.True(t, found)
	})

	t.Run("pediatric geriatric condition", func(t *testing.T) {
		alerts := guard.Validate(result(func(r *entities.MedicalWorkflowResult) {
			r.Diagnoses = []entities.Diagnosis{{Condition: "Giant cell arteritis", Probability: 0.6}}
		}), intake(func(in *entities.PatientIntake) {
			in.Age = 10
		}))

		found := false
		for _, a := range alerts {
			if a.Title == "Age-condition mismatch" {
				found = true
				assert.Equal(t, entities.AlertInfo, a.Severity)
			}
		}
		assert.True(t, found)
	})
}

func TestSafetyGuard_PregnancyRisk(t *testing.T) {
	guard := NewSafetyGuard()

	t.Run("eclampsia warning with headache", func(t *testing.T) {
		alerts := guard.Validate(result(nil), intake(func(in *entities.PatientIntake) {
			in.Sex = entities.SexFemale
			in.Pregnant = true
			in.ChiefComplaint = "Severe headache"
			in.Vitals = &entities.VitalSigns{BloodPressure: "152/96"}
		}))

		found := false
		for _, a := range alerts {
			if a.Title == "Eclampsia warning" {
				found = true
				assert.Equal(t, entities.AlertCritical, a.Severity)
			}
		}
		assert.True(t, found)
	})

	t.Run("preeclampsia without neuro symptoms", func(t *testing.T) {
		alerts := guard.Validate(result(nil), intake(func(in *entities.PatientIntake) {
			in.Sex = entities.SexFemale
			in.Pregnant = true
			in.ChiefComplaint = "Swollen ankles"
			in.Symptoms = []string{"ankle swelling"}
			in.Vitals = &entities.VitalSigns{BloodPressure: "145/92"}
		}))

		found := false
		for _, a := range alerts {
			if a.Title == "Possible preeclampsia" {
				found = true
				assert.Equal(t, entities.AlertWarning, a.Severity)
			}
		}
		assert.True(t, found)
	})

	t.Run("not pregnant never triggers", func(t *testing.T) {
		alerts := guard.Validate(result(nil), intake(func(in *entities.PatientIntake) {
			in.Vitals = &entities.VitalSigns{BloodPressure: "160/100"}
		}))

		assert.NotContains(t, categoriesOf(alerts), entities.CategoryPregnancyRisk)
	})
}

func TestSafetyGuard_InputRobustness(t *testing.T) {
	guard := NewSafetyGuard()

	t.Run("long symptom list", func(t *testing.T) {
		alerts := guard.Validate(result(nil), intake(func(in *entities.PatientIntake) {
			in.Symptoms = make([]string, 21)
			for i := range in.Symptoms {
				in.Symptoms[i] = "symptom"
			}
		}))

		assert.Contains(t, categoriesOf(alerts), entities.CategoryInputRobustness)
	})

	t.Run("inconsistent vitals", func(t *testing.T) {
		hr, spo2, rr := 160, 99, 10
		alerts := guard.Validate(result(nil), intake(func(in *entities.PatientIntake) {
			in.Vitals = &entities.VitalSigns{HeartRate: &hr, OxygenSaturation: &spo2, RespiratoryRate: &rr}
		}))

		found := false
		for _, a := range alerts {
			if a.Title == "Physiologically inconsistent vitals" {
				found = true
				assert.Equal(t, entities.AlertInfo, a.Severity)
			}
		}
		assert.True(t, found)
	})

	t.Run("minimal chief complaint", func(t *testing.T) {
		alerts := guard.Validate(result(nil), intake(func(in *entities.PatientIntake) {
			in.ChiefComplaint = "sick"
		}))

		found := false
		for _, a := range alerts {
			if a.Title == "Minimal chief complaint" {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestSafetyGuard_AlertOrdering(t *testing.T) {
	guard := NewSafetyGuard()
	spo2 := 85

	// Triggers a critical vital, a red-flag warning and an info alert at once.
	alerts := guard.Validate(result(func(r *entities.MedicalWorkflowResult) {
		r.Diagnoses = []entities.Diagnosis{{Condition: "Pneumonia", Probability: 0.6}}
	}), intake(func(in *entities.PatientIntake) {
		in.ChiefComplaint = "Difficulty breathing"
		in.Symptoms = []string{"difficulty breathing"}
		in.Vitals = &entities.VitalSigns{OxygenSaturation: &spo2}
	}))

	require.True(t, len(alerts) >= 3)
	for i := 1; i < len(alerts); i++ {
		assert.LessOrEqual(t, alerts[i-1].Severity.Rank(), alerts[i].Severity.Rank(),
			"alerts must be sorted critical, warning, info")
	}
}

func TestSafetyGuard_CleanResultNoAlerts(t *testing.T) {
	guard := NewSafetyGuard()

	alerts := guard.Validate(result(nil), intake(func(in *entities.PatientIntake) {
		in.ChiefComplaint = "Runny nose and sneezing"
		in.Symptoms = []string{"runny nose", "sneezing"}
	}))

	assert.Empty(t, alerts)
}

func TestSafetyGuard_MessagesNeverEmpty(t *testing.T) {
	guard := NewSafetyGuard()
	spo2 := 85

	alerts := guard.Validate(result(func(r *entities.MedicalWorkflowResult) {
		r.TriageLevel = entities.TriageEmergency
		r.Diagnoses = []entities.Diagnosis{{Condition: "Ovarian torsion", Probability: 0.6}}
	}), intake(func(in *entities.PatientIntake) {
		in.ChiefComplaint = "Chest pain"
		in.Pregnant = true
		in.Sex = entities.SexFemale
		in.Vitals = &entities.VitalSigns{OxygenSaturation: &spo2, BloodPressure: "150/95"}
	}))

	for _, a := range alerts {
		assert.NotEmpty(t, a.Title)
		assert.False(t, strings.TrimSpace(a.Message) == "", "alert %q has empty message", a.Title)
	}
}
