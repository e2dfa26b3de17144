package entities

import "testing"

func TestTriageLevelOrdinal(t *testing.T) {
	ordered := []TriageLevel{TriageEmergency, TriageUrgent, TriageSemiUrgent, TriageNonUrgent, TriageSelfCare}
	for i, level := range ordered {
		if got := level.Ordinal(); got != i {
			t.Errorf("Ordinal(%s) = %d, want %d", level, got, i)
		}
		if !level.IsValid() {
			t.Errorf("IsValid(%s) = false, want true", level)
		}
	}

	if TriageLevel("bogus").Ordinal() != -1 {
		t.Error("unknown level should have ordinal -1")
	}
	if TriageLevel("bogus").IsValid() {
		t.Error("unknown level should be invalid")
	}
}

func TestSortAlerts(t *testing.T) {
	alerts := []SafetyAlert{
		{Severity: AlertInfo, Title: "i1"},
		{Severity: AlertCritical, Title: "c1"},
		{Severity: AlertWarning, Title: "w1"},
		{Severity: AlertInfo, Title: "i2"},
		{Severity: AlertCritical, Title: "c2"},
	}

	SortAlerts(alerts)

	want := []string{"c1", "c2", "w1", "i1", "i2"}
	for i, title := range want {
		if alerts[i].Title != title {
			t.Errorf("alerts[%d].Title = %s, want %s (sort must be stable within severity)", i, alerts[i].Title, title)
		}
	}
}

func TestVitalSignsSystolic(t *testing.T) {
	tests := []struct {
		bp   string
		want int
		ok   bool
	}{
		{"120/80", 120, true},
		{"152/96", 152, true},
		{" 140 /90", 140, true},
		{"", 0, false},
		{"abc/90", 0, false},
	}

	for _, tt := range tests {
		v := &VitalSigns{BloodPressure: tt.bp}
		got, ok := v.Systolic()
		if got != tt.want || ok != tt.ok {
			t.Errorf("Systolic(%q) = (%d, %v), want (%d, %v)", tt.bp, got, ok, tt.want, tt.ok)
		}
	}

	var nilVitals *VitalSigns
	if _, ok := nilVitals.Systolic(); ok {
		t.Error("nil vitals should report no systolic pressure")
	}
}

func TestSymptomText(t *testing.T) {
	intake := &PatientIntake{
		ChiefComplaint: "Crushing Chest Pain",
		Symptoms:       []string{"Sweating", "Nausea"},
	}
	got := intake.SymptomText()
	want := "crushing chest pain; sweating; nausea"
	if got != want {
		t.Errorf("SymptomText() = %q, want %q", got, want)
	}
}
