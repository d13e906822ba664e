package triage

import (
	"regexp"
	"strconv"
)

// Demographics extraction: the first standalone 1-3 digit token is taken as
// the age, and the sex category is matched against whole-word synonym sets.
// When several categories match in one message, the first match in the fixed
// category order wins.

const (
	MinAge = 0
	MaxAge = 120
)

var ageRe = regexp.MustCompile(`\b(\d{1,3})\b`)

type sexCategory struct {
	name     string
	patterns []*regexp.Regexp
}

var sexCategories = []sexCategory{
	{"male", compileWords("male", "man", "m", "boy")},
	{"female", compileWords("female", "woman", "f", "girl")},
	{"other", compileWords("other", "non-binary", "nonbinary", "transgender")},
}

func compileWords(words ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		res[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return res
}

// Demographics is the validated result of a successful extraction.
type Demographics struct {
	Age int
	Sex string
}

// ExtractStatus tells the machine which re-prompt to issue on failure.
type ExtractStatus int

const (
	ExtractOK ExtractStatus = iota
	ExtractMissing
	ExtractInvalidAge
)

// ExtractDemographics parses age and sex from one free-text message. Both
// must be present and the age must lie in [MinAge, MaxAge]; on any failure
// nothing should be committed to the session.
func ExtractDemographics(message string) (Demographics, ExtractStatus) {
	var d Demographics

	ageMatch := ageRe.FindStringSubmatch(message)
	sex := detectSex(message)
	if ageMatch == nil || sex == "" {
		return d, ExtractMissing
	}

	age, err := strconv.Atoi(ageMatch[1])
	if err != nil || age < MinAge || age > MaxAge {
		return d, ExtractInvalidAge
	}

	d.Age = age
	d.Sex = sex
	return d, ExtractOK
}

func detectSex(message string) string {
	for _, cat := range sexCategories {
		for _, re := range cat.patterns {
			if re.MatchString(message) {
				return cat.name
			}
		}
	}
	return ""
}
