package triage

// Fixed reply texts for each stage transition. Kept in one place so the
// conversation script can be reviewed without reading the machine.

const greetingReply = "I will guide you through a structured assessment of your symptoms based on clinical protocols. This process typically takes 5-10 minutes.\n\n" +
	"Important Disclaimers:\n" +
	"• This is not a substitute for professional medical advice.\n" +
	"• For emergencies, call 112 immediately.\n" +
	"• This assessment is for informational purposes only.\n\n" +
	"Do you consent to proceed with this medical assessment?"

const consentGrantedReply = "Please provide your age and biological sex (e.g., '32, female' or '45, male'):"

const consentDeclinedReply = "I understand. If you change your mind, feel free to start a new conversation.\n\n" +
	"For immediate medical concerns, please contact your healthcare provider or call emergency services."

const consentRepromptReply = "Please respond with 'yes' if you consent to proceed with the medical assessment, " +
	"or 'no' if you prefer not to continue."

const demographicsRepromptReply = "I need both your age and biological sex. Please provide both pieces of information.\n\n" +
	"Examples:\n" +
	"• 'I am 28 years old and female'\n" +
	"• '35, male'\n" +
	"• '42 year old woman'"

const demographicsInvalidAgeReply = "Please provide a valid age between 0 and 120 years."

const medicalHistoryPrompt = "Medical History:\n" +
	"Do you have any significant medical conditions, ongoing health issues, " +
	"or take any medications regularly?\n\n" +
	"Please include:\n" +
	"• Chronic conditions (diabetes, heart disease, etc.)\n" +
	"• Current medications\n" +
	"• Known allergies\n" +
	"• Recent surgeries or hospitalizations\n\n" +
	"If none, simply say 'no' or 'none'."

const mainSymptomsPrompt = "✓ Medical history noted.\n\n" +
	"Main Symptoms: Describe what you're experiencing, where, when it started, and severity (1-10):"

const symptomDetailsPrompt = "✓ Symptoms noted.\n\n" +
	"Details: How long have you had this? Is it constant or intermittent? What makes it better/worse?"

const associatedSymptomsPrompt = "✓ Details recorded.\n\n" +
	"Other Symptoms: Any fever, nausea, dizziness, breathing issues, or other symptoms? (Say 'none' if not applicable)"

const summaryConfirmationSuffix = "\n\nIs this information correct? Please respond with:\n" +
	"• 'Yes' or 'Correct' if everything is accurate\n" +
	"• 'No' or tell me what needs to be corrected"

const analyzingReply = "Information confirmed.\n\n" +
	"Analyzing your symptoms...\n\n" +
	"I'm now processing your information using clinical protocols and " +
	"medical knowledge base to provide you with a comprehensive assessment.\n\n" +
	"This may take a moment. Send any message to continue."

const correctionRepromptReply = "Please let me know what information needs to be corrected, " +
	"and I'll update your records accordingly."

const alreadyCompleteReply = "✅ Your assessment is complete!\n" +
	"If you'd like to start a new triage assessment, type 'restart' or 'start again'."

// GenerationFallbackReply is returned when the generation collaborator fails
// or times out. The session is marked completed so a failing collaborator is
// never retried indefinitely.
const GenerationFallbackReply = "I apologize, but I'm experiencing technical difficulties generating your assessment.\n\n" +
	"Please consult with a healthcare professional immediately for proper evaluation.\n\n" +
	"If you're experiencing concerning symptoms, contact:\n" +
	"• Your primary care physician\n" +
	"• Urgent care center\n" +
	"• Emergency room (for severe symptoms)\n" +
	"• Call 112 for emergencies"
