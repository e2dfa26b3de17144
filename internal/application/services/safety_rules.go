package services

import "github.com/meditriage/triage-core/internal/domain/entities"

// Fixed clinical rule tables used by the safety guard. Thresholds follow
// standard emergency-medicine reference ranges; they are screening bounds,
// not diagnostic ones.

// acuteConditionKeywords trigger a soft emergency escalation when they appear
// in the reasoning text while the triage level is below Emergency.
var acuteConditionKeywords = []string{
	"stroke",
	"heart attack",
	"myocardial infarction",
	"anaphylaxis",
	"sepsis",
	"pulmonary embolism",
	"aortic dissection",
	"meningitis",
	"internal bleeding",
}

// redFlagSymptoms are phrases independently known to warrant urgent
// evaluation regardless of model output.
var redFlagSymptoms = []struct {
	Phrase string
	Reason string
}{
	{"worst headache", "A sudden worst-ever headache can indicate subarachnoid hemorrhage."},
	{"thunderclap headache", "Thunderclap onset suggests intracranial hemorrhage."},
	{"chest pain", "Chest pain requires evaluation for cardiac causes."},
	{"chest pressure", "Chest pressure requires evaluation for cardiac causes."},
	{"sudden weakness", "Sudden focal weakness can indicate stroke."},
	{"slurred speech", "Slurred speech can indicate stroke."},
	{"facial droop", "Facial droop can indicate stroke."},
	{"difficulty breathing", "Respiratory distress can deteriorate rapidly."},
	{"coughing blood", "Hemoptysis can indicate pulmonary embolism or malignancy."},
	{"stiff neck", "Neck stiffness with fever can indicate meningitis."},
	{"loss of consciousness", "Syncope requires evaluation for cardiac or neurologic causes."},
	{"suicidal", "Suicidal ideation requires immediate crisis intervention."},
}

// heartRateBand holds age-stratified heart-rate screening thresholds.
// CriticalLow/CriticalHigh bound the critical band; WarningLow/WarningHigh
// the warning band.
type heartRateBand struct {
	Name         string
	MinAge       int // inclusive
	MaxAge       int // inclusive
	CriticalLow  int
	CriticalHigh int
	WarningLow   int
	WarningHigh  int
}

// heartRateBands cover six age brackets: infant, toddler, child, adolescent,
// adult, geriatric. Lookup is by inclusive age range; the band boundaries are
// at ages 1, 6, 12, 18 and 65.
var heartRateBands = []heartRateBand{
	{"infant", 0, 0, 80, 200, 90, 180},
	{"toddler", 1, 5, 70, 180, 80, 160},
	{"child", 6, 11, 60, 160, 70, 140},
	{"adolescent", 12, 17, 50, 150, 60, 130},
	{"adult", 18, 64, 40, 140, 50, 120},
	{"geriatric", 65, 200, 45, 130, 55, 115},
}

func heartRateBandForAge(age int) heartRateBand {
	for _, band := range heartRateBands {
		if age >= band.MinAge && age <= band.MaxAge {
			return band
		}
	}
	// Ages above the table fall into the geriatric band.
	return heartRateBands[len(heartRateBands)-1]
}

// Fixed vital-sign screening bounds (not age-stratified).
const (
	tempCriticalHighF = 104.0
	tempCriticalLowF  = 95.0
	tempWarningHighF  = 101.5
	tempWarningLowF   = 96.5

	spo2Critical = 88
	spo2Warning  = 92

	respRateCriticalHigh = 30
	respRateCriticalLow  = 8
	respRateWarningHigh  = 24
	respRateWarningLow   = 10
)

// drugInteraction is one known drug-pair interaction. Medication matching is
// case-insensitive substring, so brand qualifiers in the intake list still
// match.
type drugInteraction struct {
	DrugA    string
	DrugB    string
	Severity entities.AlertSeverity
	Reason   string
}

var drugInteractions = []drugInteraction{
	{"sildenafil", "nitroglycerin", entities.AlertCritical, "PDE5 inhibitors with nitrates cause profound hypotension."},
	{"tadalafil", "nitroglycerin", entities.AlertCritical, "PDE5 inhibitors with nitrates cause profound hypotension."},
	{"sildenafil", "isosorbide", entities.AlertCritical, "PDE5 inhibitors with nitrates cause profound hypotension."},
	{"warfarin", "fluconazole", entities.AlertCritical, "Fluconazole inhibits warfarin metabolism and raises bleeding risk sharply."},
	{"warfarin", "amiodarone", entities.AlertCritical, "Amiodarone potentiates warfarin; INR can rise dangerously."},
	{"warfarin", "aspirin", entities.AlertWarning, "Combined anticoagulant and antiplatelet therapy increases bleeding risk."},
	{"phenelzine", "sertraline", entities.AlertCritical, "MAOI with SSRI risks serotonin syndrome."},
	{"sertraline", "tramadol", entities.AlertWarning, "Serotonergic combination; watch for serotonin syndrome."},
	{"fluoxetine", "tramadol", entities.AlertWarning, "Serotonergic combination; watch for serotonin syndrome."},
	{"sertraline", "sumatriptan", entities.AlertWarning, "SSRI with triptan; serotonin syndrome has been reported."},
	{"lisinopril", "spironolactone", entities.AlertWarning, "ACE inhibitor with potassium-sparing diuretic risks hyperkalemia."},
	{"methotrexate", "trimethoprim", entities.AlertCritical, "Both are folate antagonists; combination risks severe myelosuppression."},
	{"clopidogrel", "omeprazole", entities.AlertWarning, "Omeprazole reduces clopidogrel activation and antiplatelet effect."},
	{"simvastatin", "clarithromycin", entities.AlertWarning, "CYP3A4 inhibition raises statin levels and rhabdomyolysis risk."},
}

// Condition keywords used by the demographic-bias check.
var femaleOnlyConditions = []string{"ovarian", "uterine", "endometriosis", "ectopic pregnancy", "cervical cancer"}
var maleOnlyConditions = []string{"prostate", "testicular"}
var geriatricOnlyConditions = []string{"polymyalgia rheumatica", "giant cell arteritis", "temporal arteritis"}
var pediatricOnlyConditions = []string{"croup", "infantile colic", "roseola", "intussusception"}

// Pregnancy symptom keyword sets.
var pregnancyHeadacheVision = []string{"headache", "vision", "visual disturbance", "blurred"}
var pregnancyAbdominalPain = []string{"abdominal pain", "cramping", "pelvic pain"}
var pregnancyBleeding = []string{"bleeding", "spotting"}
