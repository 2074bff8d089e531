package analyses

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"resume-optimizer/internal/shared/util"
)

const (
	minResumeChars = 100
	maxResumeChars = 50000
	minJobChars    = 50
	maxJobChars    = 10000
	minLabelChars  = 2
	maxLabelChars  = 100
	// MaxFileBytes bounds a decoded résumé upload.
	MaxFileBytes = 10 << 20
	// MaxRequestBytes bounds the raw JSON body: a base64 MaxFileBytes upload
	// plus room for the text fields.
	MaxRequestBytes = MaxFileBytes/3*4 + 1<<20
)

var pdfMagic = []byte("%PDF")

// AnalyzeRequest is the body of POST /resume/analyze. Exactly one of
// ResumeText and ResumeFile (base64 PDF) must be set.
type AnalyzeRequest struct {
	ResumeText     string `json:"resumeText"`
	ResumeFile     string `json:"resumeFile"`
	JobDescription string `json:"jobDescription"`
	JobTitle       string `json:"jobTitle"`
	CompanyName    string `json:"companyName"`
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
	return "invalid analyze request: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// TooLarge reports whether the upload exceeded MaxFileBytes.
func (e *ValidationError) TooLarge() bool {
	for _, f := range e.Fields {
		if f.Issue == "too_large" {
			return true
		}
	}
	return false
}

type input struct {
	text           string
	file           []byte
	jobDescription string
	jobTitle       string
	companyName    string
}

// validate checks lengths and the upload before any delegated call is made.
func (r AnalyzeRequest) validate() (input, error) {
	var fields []FieldError
	add := func(field, issue string) { fields = append(fields, FieldError{Field: field, Issue: issue}) }

	in := input{
		text:           strings.TrimSpace(r.ResumeText),
		jobDescription: strings.TrimSpace(r.JobDescription),
		jobTitle:       strings.TrimSpace(r.JobTitle),
		companyName:    util.SanitizeLabel(r.CompanyName),
	}

	switch {
	case in.text != "" && r.ResumeFile != "":
		add("resumeText", "exclusive_with_resumeFile")
	case r.ResumeFile != "":
		data, issue := decodePDF(r.ResumeFile)
		if issue != "" {
			add("resumeFile", issue)
		}
		in.file = data
	case in.text == "":
		add("resumeText", "required")
	default:
		if issue := lengthIssue(in.text, minResumeChars, maxResumeChars); issue != "" {
			add("resumeText", issue)
		}
	}

	if issue := lengthIssue(in.jobDescription, minJobChars, maxJobChars); issue != "" {
		add("jobDescription", issue)
	}
	if issue := lengthIssue(in.jobTitle, minLabelChars, maxLabelChars); issue != "" {
		add("jobTitle", issue)
	}
	if issue := lengthIssue(in.companyName, minLabelChars, maxLabelChars); issue != "" {
		add("companyName", issue)
	}

	if len(fields) > 0 {
		return input{}, &ValidationError{Fields: fields}
	}
	return in, nil
}

func lengthIssue(s string, lo, hi int) string {
	n := utf8.RuneCountInString(s)
	switch {
	case n == 0:
		return "required"
	case n < lo:
		return fmt.Sprintf("min_length_%d", lo)
	case n > hi:
		return fmt.Sprintf("max_length_%d", hi)
	}
	return ""
}

// decodePDF accepts plain base64 or a data URL.
func decodePDF(raw string) ([]byte, string) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, ";base64,"); i >= 0 && strings.HasPrefix(raw, "data:") {
		raw = raw[i+len(";base64,"):]
	}
	if base64.StdEncoding.DecodedLen(len(raw)) > MaxFileBytes+3 {
		return nil, "too_large"
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "invalid_base64"
	}
	if len(data) > MaxFileBytes {
		return nil, "too_large"
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, "not_pdf"
	}
	return data, ""
}
