package triage

// Stage is one discrete step in the fixed triage conversation sequence.
// Stages only move forward, jump to StageCompleted on an emergency, or
// reset to StageGreeting on restart.
type Stage int

const (
	StageGreeting Stage = iota
	StageConsent
	StageDemographics
	StageMedicalHistory
	StageMainSymptoms
	StageSymptomDetails
	StageAssociatedSymptoms
	StageSummaryConfirmation
	StageFinalAssessment
	StageCompleted
)

// TotalSteps counts the stages a user walks through (StageCompleted excluded).
const TotalSteps = 9

var stageNames = map[Stage]string{
	StageGreeting:            "greeting",
	StageConsent:             "consent",
	StageDemographics:        "demographics",
	StageMedicalHistory:      "medical_history",
	StageMainSymptoms:        "main_symptoms",
	StageSymptomDetails:      "symptom_details",
	StageAssociatedSymptoms:  "associated_symptoms",
	StageSummaryConfirmation: "summary_confirmation",
	StageFinalAssessment:     "final_assessment",
	StageCompleted:           "completed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStage maps a persisted stage name back to its enum value.
func ParseStage(name string) (Stage, bool) {
	for stage, n := range stageNames {
		if n == name {
			return stage, true
		}
	}
	return StageGreeting, false
}

// Step returns the 1-based progress position for this stage.
func (s Stage) Step() int {
	if s >= StageCompleted {
		return TotalSteps
	}
	return int(s) + 1
}

// Terminal reports whether no further forward transition exists.
func (s Stage) Terminal() bool {
	return s == StageCompleted
}
