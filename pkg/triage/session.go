package triage

import (
	"fmt"
	"strings"
	"time"
)

// Fields holds the structured attributes collected during the conversation.
// A field is only written once per assessment; Reset clears everything.
type Fields struct {
	Consent            bool   `json:"consent,omitempty"`
	Age                *int   `json:"age,omitempty"`
	Sex                string `json:"sex,omitempty"`
	MedicalHistory     string `json:"medical_history,omitempty"`
	MainSymptoms       string `json:"main_symptoms,omitempty"`
	SymptomDetails     string `json:"symptom_details,omitempty"`
	AssociatedSymptoms string `json:"associated_symptoms,omitempty"`
}

// Session is the in-memory conversation state for one triage assessment.
// It is owned by the session repository; the machine borrows it for the
// duration of one turn.
type Session struct {
	ID               string
	TenantID         string
	Stage            Stage
	Fields           Fields
	RedFlagsDetected bool
	Completed        bool
	CreatedAt        time.Time
}

func NewSession(id, tenantID string) *Session {
	return &Session{
		ID:        id,
		TenantID:  tenantID,
		Stage:     StageGreeting,
		CreatedAt: time.Now(),
	}
}

// Reset discards all collected data and returns the session to the initial
// stage. Identity and creation time survive a restart.
func (s *Session) Reset() {
	s.Stage = StageGreeting
	s.Fields = Fields{}
	s.RedFlagsDetected = false
	s.Completed = false
}

// SymptomQuery builds the retrieval query for the knowledge base from the
// symptom fields, matching what the assessment is grounded on.
func (s *Session) SymptomQuery() string {
	return strings.TrimSpace(s.Fields.MainSymptoms + " " + s.Fields.AssociatedSymptoms)
}

// Summary renders the human-readable patient summary in the fixed field order.
func (s *Session) Summary() string {
	var b strings.Builder
	b.WriteString("Patient Summary:\n")
	b.WriteString(fmt.Sprintf("• Age: %s years\n", orNotProvided(ageString(s.Fields.Age))))
	b.WriteString(fmt.Sprintf("• Sex: %s\n", orNotProvided(s.Fields.Sex)))
	b.WriteString(fmt.Sprintf("• Medical History: %s\n", orNotProvided(s.Fields.MedicalHistory)))
	b.WriteString(fmt.Sprintf("• Main Symptoms: %s\n", orNotProvided(s.Fields.MainSymptoms)))
	b.WriteString(fmt.Sprintf("• Symptom Details: %s\n", orNotProvided(s.Fields.SymptomDetails)))
	b.WriteString(fmt.Sprintf("• Associated Symptoms: %s", orNotProvided(s.Fields.AssociatedSymptoms)))
	return b.String()
}

func ageString(age *int) string {
	if age == nil {
		return ""
	}
	return fmt.Sprintf("%d", *age)
}

func orNotProvided(v string) string {
	if strings.TrimSpace(v) == "" {
		return "Not provided"
	}
	return v
}
