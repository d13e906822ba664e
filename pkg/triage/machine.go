package triage

import (
	"fmt"
	"log"
	"strings"
)

// Result is the outcome of one processed turn.
type Result struct {
	Reply string

	// NeedsAssessment is set when the session reached the final-assessment
	// trigger. The caller runs the retrieval/generation pipeline outside the
	// per-session lock and commits the outcome with CommitAssessment.
	NeedsAssessment bool
}

// Machine is the triage conversation state machine. It owns all stage
// transitions; the only mutation of a Session during a turn happens here or
// in CommitAssessment. The machine itself performs no I/O.
type Machine struct {
	detector *EmergencyDetector
	logger   *log.Logger
}

func NewMachine(detector *EmergencyDetector, logger *log.Logger) *Machine {
	return &Machine{
		detector: detector,
		logger:   logger,
	}
}

// Process advances the session by one turn. Precedence: emergency detection
// first, restart second, then the current stage's handler.
func (m *Machine) Process(session *Session, message string) Result {
	message = strings.TrimSpace(message)

	if m.detector.Detect(message) {
		m.logger.Printf("[TRIAGE] session=%s red flag detected at stage=%s", session.ID, session.Stage)
		session.RedFlagsDetected = true
		session.Stage = StageCompleted
		session.Completed = true
		return Result{Reply: EmergencyReply}
	}

	if IsRestart(message) {
		m.logger.Printf("[TRIAGE] session=%s restart from stage=%s", session.ID, session.Stage)
		session.Reset()
		return m.handleGreeting(session)
	}

	switch session.Stage {
	case StageGreeting:
		return m.handleGreeting(session)
	case StageConsent:
		return m.handleConsent(session, message)
	case StageDemographics:
		return m.handleDemographics(session, message)
	case StageMedicalHistory:
		return m.handleMedicalHistory(session, message)
	case StageMainSymptoms:
		return m.handleMainSymptoms(session, message)
	case StageSymptomDetails:
		return m.handleSymptomDetails(session, message)
	case StageAssociatedSymptoms:
		return m.handleAssociatedSymptoms(session, message)
	case StageSummaryConfirmation:
		return m.handleSummaryConfirmation(session, message)
	case StageFinalAssessment:
		return Result{NeedsAssessment: true}
	default:
		return Result{Reply: alreadyCompleteReply}
	}
}

// CommitAssessment records the outcome of the generation pipeline. Called
// under the per-session lock after the collaborator call returned. The
// session always completes: a failing collaborator must not leave the
// conversation in a retry loop.
func (m *Machine) CommitAssessment(session *Session, assessment string, generationFailed bool) Result {
	session.Stage = StageCompleted
	session.Completed = true

	if generationFailed {
		m.logger.Printf("[TRIAGE] session=%s assessment generation failed, fallback issued", session.ID)
		return Result{Reply: GenerationFallbackReply}
	}
	return Result{Reply: assessment}
}

func (m *Machine) handleGreeting(session *Session) Result {
	session.Stage = StageConsent
	return Result{Reply: greetingReply}
}

func (m *Machine) handleConsent(session *Session, message string) Result {
	switch classify(message, consentYesWords, consentNoWords) {
	case answerYes:
		session.Fields.Consent = true
		session.Stage = StageDemographics
		return Result{Reply: consentGrantedReply}
	case answerNo:
		session.Completed = true
		session.Stage = StageCompleted
		return Result{Reply: consentDeclinedReply}
	default:
		return Result{Reply: consentRepromptReply}
	}
}

func (m *Machine) handleDemographics(session *Session, message string) Result {
	demo, status := ExtractDemographics(message)
	switch status {
	case ExtractInvalidAge:
		return Result{Reply: demographicsInvalidAgeReply}
	case ExtractMissing:
		return Result{Reply: demographicsRepromptReply}
	}

	age := demo.Age
	session.Fields.Age = &age
	session.Fields.Sex = demo.Sex
	session.Stage = StageMedicalHistory
	return Result{Reply: fmt.Sprintf("Recorded: %d years old, %s\n\n%s", demo.Age, demo.Sex, medicalHistoryPrompt)}
}

func (m *Machine) handleMedicalHistory(session *Session, message string) Result {
	session.Fields.MedicalHistory = message
	session.Stage = StageMainSymptoms
	return Result{Reply: mainSymptomsPrompt}
}

// handleMainSymptoms stores the symptom description. The Process entry point
// already screened this message for red flags, so no second scan is needed;
// symptom text is simply the most likely place for the screen to fire.
func (m *Machine) handleMainSymptoms(session *Session, message string) Result {
	session.Fields.MainSymptoms = message
	session.Stage = StageSymptomDetails
	return Result{Reply: symptomDetailsPrompt}
}

func (m *Machine) handleSymptomDetails(session *Session, message string) Result {
	session.Fields.SymptomDetails = message
	session.Stage = StageAssociatedSymptoms
	return Result{Reply: associatedSymptomsPrompt}
}

func (m *Machine) handleAssociatedSymptoms(session *Session, message string) Result {
	session.Fields.AssociatedSymptoms = message
	session.Stage = StageSummaryConfirmation
	reply := "Associated symptoms recorded.\n\n" +
		"Summary Confirmation:\n" +
		"Let me confirm the information you've provided:\n\n" +
		session.Summary() +
		summaryConfirmationSuffix
	return Result{Reply: reply}
}

func (m *Machine) handleSummaryConfirmation(session *Session, message string) Result {
	if classify(message, confirmYesWords, nil) == answerYes {
		session.Stage = StageFinalAssessment
		return Result{Reply: analyzingReply}
	}
	// No structured field correction exists; the user re-confirms after
	// restating, or restarts.
	return Result{Reply: correctionRepromptReply}
}
