package generations

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"resume-optimizer/internal/optimizer"
	"resume-optimizer/internal/pipeline"
)

const (
	maxSelectedSections = 10
	maxSelectedSkills   = 20
	maxInstructionChars = 500
)

var selectionPattern = regexp.MustCompile(`^[\w\s.-]+$`)

// GenerateRequest is the body of POST /resume/generate.
type GenerateRequest struct {
	AnalysisID             string   `json:"analysisId"`
	EditType               string   `json:"editType"`
	SelectedSections       []string `json:"selectedSections"`
	SelectedSkills         []string `json:"selectedSkills"`
	AdditionalInstructions string   `json:"additionalInstructions"`
	Format                 string   `json:"format"`
}

// FieldError names one rejected field.
type FieldError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError lists every problem found in a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Issue
	}
	return "invalid generate request: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

type input struct {
	analysisID   string
	editType     optimizer.EditType
	sections     []string
	skills       []string
	instructions string
	format       pipeline.Format
}

func (r GenerateRequest) validate(defaultFormat pipeline.Format) (input, error) {
	var fields []FieldError
	add := func(field, issue string) { fields = append(fields, FieldError{Field: field, Issue: issue}) }

	in := input{
		analysisID:   strings.ToLower(strings.TrimSpace(r.AnalysisID)),
		instructions: strings.TrimSpace(r.AdditionalInstructions),
	}
	if _, err := uuid.Parse(in.analysisID); err != nil || len(in.analysisID) != 36 {
		add("analysisId", "invalid_uuid")
	}

	switch optimizer.EditType(strings.TrimSpace(r.EditType)) {
	case optimizer.EditQuick:
		in.editType = optimizer.EditQuick
	case optimizer.EditFull:
		in.editType = optimizer.EditFull
	default:
		add("editType", "must_be_quick_or_full")
	}

	var issue string
	if in.sections, issue = selection(r.SelectedSections, maxSelectedSections); issue != "" {
		add("selectedSections", issue)
	}
	if in.skills, issue = selection(r.SelectedSkills, maxSelectedSkills); issue != "" {
		add("selectedSkills", issue)
	}
	if utf8.RuneCountInString(in.instructions) > maxInstructionChars {
		add("additionalInstructions", fmt.Sprintf("max_length_%d", maxInstructionChars))
	}

	format, ok := pipeline.ParseFormat(r.Format, defaultFormat)
	if !ok {
		add("format", "must_be_latex_or_html")
	}
	in.format = format

	if len(fields) > 0 {
		return input{}, &ValidationError{Fields: fields}
	}
	return in, nil
}

func selection(items []string, limit int) ([]string, string) {
	if len(items) > limit {
		return nil, fmt.Sprintf("max_items_%d", limit)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !selectionPattern.MatchString(item) {
			return nil, "invalid_format"
		}
		out = append(out, strings.TrimSpace(item))
	}
	return out, ""
}
