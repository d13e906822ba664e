package triage

import "strings"

// Keyword sets for yes/no classification and restart detection. The restart
// vocabulary must stay disjoint from the red-flag phrases; a test guards this.

var consentYesWords = []string{"yes", "ok", "sure", "agree", "consent", "proceed"}

var consentNoWords = []string{"no", "don't", "refuse", "decline"}

var confirmYesWords = []string{"yes", "correct", "accurate", "right", "confirm"}

var restartPhrases = []string{
	"restart", "start again", "start over", "begin again",
	"new assessment", "new triage", "reset",
}

type answer int

const (
	answerUnknown answer = iota
	answerYes
	answerNo
)

func classify(message string, yesWords, noWords []string) answer {
	lower := strings.ToLower(message)
	for _, w := range yesWords {
		if strings.Contains(lower, w) {
			return answerYes
		}
	}
	for _, w := range noWords {
		if strings.Contains(lower, w) {
			return answerNo
		}
	}
	return answerUnknown
}

// IsRestart reports whether the message asks to begin a new assessment.
// Restart takes precedence over normal stage processing at any stage.
func IsRestart(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range restartPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// RestartPhrases exposes a copy of the phrase list for vocabulary-overlap checks.
func RestartPhrases() []string {
	out := make([]string, len(restartPhrases))
	copy(out, restartPhrases)
	return out
}
