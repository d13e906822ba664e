package response

import (
	"regexp"
	"strings"
)

// Generated assessments come back with inconsistent markdown decoration.
// CleanAssessment strips it and re-establishes the section layout the
// clients render as plain text.

var (
	boldRe        = regexp.MustCompile(`(?s)(\*\*|__)(.*?)(\*\*|__)`)
	italicRe      = regexp.MustCompile(`(?s)([*_])(.*?)([*_])`)
	strayStarRe   = regexp.MustCompile(`\*+`)
	bulletRe      = regexp.MustCompile(`•\s*`)
	blankRunsRe   = regexp.MustCompile(`\n\s*\n\s*\n`)
	inlineSpaceRe = regexp.MustCompile(`[ \t]+`)
)

var assessmentSections = []string{
	"CLINICAL SUMMARY:",
	"DIFFERENTIAL DIAGNOSIS:",
	"URGENCY ASSESSMENT:",
	"CLINICAL RECOMMENDATIONS:",
	"FOLLOW-UP RECOMMENDATIONS:",
	"MEDICAL DISCLAIMER:",
}

// StripMarkdown removes bold and italic decoration while keeping the text.
func StripMarkdown(text string) string {
	text = boldRe.ReplaceAllString(text, "$2")
	text = italicRe.ReplaceAllString(text, "$2")
	return text
}

// CleanAssessment normalizes a generated clinical assessment: markdown
// removed, bullets unified, whitespace collapsed, and a blank line forced
// before each major section header.
func CleanAssessment(text string) string {
	text = StripMarkdown(text)
	text = strayStarRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "• ")
	text = inlineSpaceRe.ReplaceAllString(text, " ")

	for _, section := range assessmentSections {
		text = strings.ReplaceAll(text, section, "\n"+section)
	}
	text = blankRunsRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
