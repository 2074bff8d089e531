// Package sections folds free-form résumé text into the fixed category
// taxonomy, either by heading heuristics or by asking a language model.
package sections

import (
	"context"

	"resume-optimizer/resume/model"
)

// Method records which strategy produced a Result.
type Method string

const (
	MethodHeuristic Method = "heuristic"
	MethodDelegated Method = "delegated"
	MethodFallback  Method = "fallback"
)

// FullResumeLabel is the heading recorded when the whole text is filed
// under a single category.
const FullResumeLabel = "Full Resume"

// Result is a normalized résumé. Sections always carries all five keys.
type Result struct {
	Sections model.SectionSet     `json:"sections"`
	Mapping  model.SectionMapping `json:"section_mappings"`
	Original map[string]string    `json:"original_sections"`
	Contact  model.ContactInfo    `json:"contact_info"`
	Method   Method               `json:"method"`
}

// Classifier turns raw résumé text into a Result.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// WholeText files the entire text under experience. It is the last-resort
// result when nothing better can be derived.
func WholeText(text string) Result {
	set := model.NewSectionSet()
	set[model.Experience] = text
	return Result{
		Sections: set,
		Mapping:  model.SectionMapping{FullResumeLabel: model.Experience},
		Original: map[string]string{FullResumeLabel: text},
		Method:   MethodFallback,
	}
}
