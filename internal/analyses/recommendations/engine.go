package recommendations

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	maxSuggestedSkills = 5
	maxBulletKeywords  = 3
	excerptWindow      = 500
	excerptShown       = 200

	relevanceCurrent   = 0.9
	relevanceSuggested = 0.7
)

var experienceWord = regexp.MustCompile(`(?i)experience`)

var experienceImprovements = []string{
	"Add missing technologies",
	"Quantify achievements",
	"Use action verbs",
}

// Generate builds the summary advice, per-section suggestions and skill
// relevance for an analysis. newID may be nil.
func Generate(in Input, newID func() string) Set {
	if newID == nil {
		newID = shortID
	}
	set := Set{
		Summary:  summaryAdvice(in),
		Sections: []SectionSuggestion{},
	}
	if s, ok := experienceSuggestion(in, newID); ok {
		set.Sections = append(set.Sections, s)
	}

	set.SuggestedSkills = append([]string{}, in.Matched...)
	set.SuggestedSkills = append(set.SuggestedSkills, head(in.Missing, maxSuggestedSkills)...)
	set.Relevance = make(map[string]float64, len(set.SuggestedSkills))
	for _, kw := range in.Matched {
		set.Relevance[kw] = relevanceCurrent
	}
	for _, kw := range head(in.Missing, maxSuggestedSkills) {
		if _, ok := set.Relevance[kw]; !ok {
			set.Relevance[kw] = relevanceSuggested
		}
	}
	return set
}

func summaryAdvice(in Input) []string {
	title := strings.TrimSpace(in.JobTitle)
	if title == "" {
		title = "target role"
	}
	return []string{
		fmt.Sprintf("Add %d missing keywords from the job description", len(in.Missing)),
		"Quantify your achievements with specific metrics",
		"Emphasize experience with required technologies",
		fmt.Sprintf("Highlight your %s relevant experience", title),
	}
}

// experienceSuggestion quotes the text following the first mention of
// "experience" and asks for the top missing keywords to be worked in.
func experienceSuggestion(in Input, newID func() string) (SectionSuggestion, bool) {
	if len(in.Missing) == 0 {
		return SectionSuggestion{}, false
	}
	loc := experienceWord.FindStringIndex(in.ResumeText)
	if loc == nil {
		return SectionSuggestion{}, false
	}
	excerpt := truncateRunes(in.ResumeText[loc[0]:], excerptWindow)
	if strings.TrimSpace(excerpt) == "" {
		return SectionSuggestion{}, false
	}
	return SectionSuggestion{
		ID:           "exp-" + newID(),
		Type:         "experience",
		Original:     truncateRunes(excerpt, excerptShown) + "...",
		Suggested:    "Add keywords: " + strings.Join(head(in.Missing, maxBulletKeywords), ", "),
		Improvements: append([]string(nil), experienceImprovements...),
	}, true
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
