package triage

import "strings"

// redFlagPhrases are matched as case-insensitive substrings against every
// inbound message, regardless of stage.
var redFlagPhrases = []string{
	"worst headache of my life", "worst headache ever", "thunderclap headache",
	"loss of consciousness", "passed out", "fainted", "unconscious",
	"difficulty speaking", "slurred speech", "can't speak properly",
	"weakness on one side", "paralysis", "can't move arm", "can't move leg",
	"chest pain with shortness of breath", "crushing chest pain",
	"severe difficulty breathing", "can't breathe", "gasping for air",
	"severe abdominal pain", "worst stomach pain ever",
	"blood in vomit", "vomiting blood", "threw up blood",
	"blood in stool", "bloody stool", "rectal bleeding",
	"seizure", "convulsion", "shaking uncontrollably",
	"sudden vision loss", "can't see",
	"high fever with stiff neck", "neck stiffness with fever",
	"severe allergic reaction", "anaphylaxis", "throat closing",
}

// EmergencyReply is fixed and non-personalized. It never depends on the
// generation collaborator so an emergency response cannot be delayed by
// network latency or generation failure.
const EmergencyReply = "EMERGENCY ALERT\n\n" +
	"Your symptoms require immediate medical attention.\n\n" +
	"DO NOT DELAY:\n" +
	"• Call 112 immediately\n" +
	"• Go to nearest Emergency Room\n" +
	"• Do not drive yourself\n\n" +
	"This cannot wait."

// EmergencyDetector scans free text for red-flag phrases. Stateless.
type EmergencyDetector struct{}

func NewEmergencyDetector() *EmergencyDetector {
	return &EmergencyDetector{}
}

func (d *EmergencyDetector) Detect(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range redFlagPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// RedFlagPhrases exposes a copy of the phrase list for vocabulary-overlap checks.
func RedFlagPhrases() []string {
	out := make([]string, len(redFlagPhrases))
	copy(out, redFlagPhrases)
	return out
}
