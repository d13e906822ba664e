package prompt

import (
	"strings"
)

// Builder assembles the final-assessment prompt from the structured patient
// summary and the retrieved knowledge context. Pure string template: field
// order and the output-format instruction are fixed, no network or state
// access.
type Builder struct {
	patientSummary string
	context        string
}

func NewBuilder(patientSummary, context string) *Builder {
	return &Builder{
		patientSummary: patientSummary,
		context:        context,
	}
}

// Build returns the literal prompt handed to the generation provider.
func (b *Builder) Build() string {
	var prompt strings.Builder

	b.writeRole(&prompt)
	b.writePatientInformation(&prompt)
	b.writeKnowledgeContext(&prompt)
	b.writeOutputFormat(&prompt)

	return prompt.String()
}

func (b *Builder) writeRole(prompt *strings.Builder) {
	prompt.WriteString("You are an AI medical assistant. Provide a concise clinical assessment.\n\n")
}

func (b *Builder) writePatientInformation(prompt *strings.Builder) {
	prompt.WriteString("PATIENT INFORMATION:\n")
	prompt.WriteString(b.patientSummary)
	prompt.WriteString("\n\n")
}

func (b *Builder) writeKnowledgeContext(prompt *strings.Builder) {
	prompt.WriteString("RELEVANT MEDICAL KNOWLEDGE FROM DATABASE:\n")
	if b.context == "" {
		prompt.WriteString("No relevant documents found in the knowledge base.\n")
	} else {
		prompt.WriteString(b.context)
		prompt.WriteString("\n")
	}
	prompt.WriteString("\n")
}

func (b *Builder) writeOutputFormat(prompt *strings.Builder) {
	prompt.WriteString(`Provide a structured clinical assessment following this exact format:

CLINICAL SUMMARY:
[Brief 2-3 sentence overview of the patient's presentation]

DIFFERENTIAL DIAGNOSIS:
1. Primary Consideration: [Most likely diagnosis]
   - Clinical reasoning: [Why this is most likely]
   - Typical presentation: [How this condition usually presents]

2. Alternative Diagnosis: [Second possibility]
   - Clinical reasoning: [Why to consider this]
   - Key differentiating features: [What might distinguish this]

3. Less Likely Consideration: [Third possibility]
   - Brief rationale: [Why included in differential]

URGENCY ASSESSMENT:
Choose ONE and explain why:
- EMERGENT (Immediate care required - within minutes)
- URGENT (Same-day medical evaluation needed)
- SEMI-URGENT (Medical evaluation within 24-48 hours)
- NON-URGENT (Routine care appropriate)

CLINICAL RECOMMENDATIONS:

Immediate Actions:
• [Specific steps to take right now]
• [Any immediate symptom management]

Medical Care:
• [When to seek care and where]
• [What type of healthcare provider]
• [What to expect during the visit]

Self-Care Management:
• [Home care measures if appropriate]
• [Activity restrictions if any]
• [Symptom monitoring guidelines]

Red Flag Warning Signs:
• [Specific symptoms requiring immediate medical attention]
• [When to call 112 or go to ER]

FOLLOW-UP RECOMMENDATIONS:
• [When to return if symptoms persist]
• [Any specific tests or evaluations needed]

MEDICAL DISCLAIMER:
This assessment is for educational and informational purposes only. It does not constitute professional medical advice, diagnosis, or treatment. Always consult qualified healthcare professionals for definitive medical care. In case of emergency, call 112 immediately.
`)
}

// QuestionBuilder assembles the prompt for the free-form document Q&A
// endpoint, grounding a single user question in retrieved context.
type QuestionBuilder struct {
	context  string
	question string
}

func NewQuestionBuilder(context, question string) *QuestionBuilder {
	return &QuestionBuilder{
		context:  context,
		question: question,
	}
}

func (b *QuestionBuilder) Build() string {
	var prompt strings.Builder

	prompt.WriteString("You are a medical AI assistant with access to the user's uploaded medical documents below.\n\n")
	prompt.WriteString("Context:\n")
	if b.context == "" {
		prompt.WriteString("No relevant documents found.\n")
	} else {
		prompt.WriteString(b.context)
		prompt.WriteString("\n")
	}
	prompt.WriteString("\nUser question:\n")
	prompt.WriteString(b.question)
	prompt.WriteString("\n\nPlease provide an accurate and concise answer based on the above context.")

	return prompt.String()
}
