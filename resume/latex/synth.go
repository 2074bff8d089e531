package latex

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"resume-optimizer/internal/llm"
	"resume-optimizer/resume/model"
)

// Path tags how a Source was produced.
type Path string

const (
	// PathDirect is markup written whole by a language model.
	PathDirect Path = "direct"
	// PathAssembled is markup filled into the template from a Document.
	PathAssembled Path = "assembled"
)

// Source is a validated LaTeX document ready for compilation.
type Source struct {
	Path   Path
	Markup string
	// Document is set on the assembled path.
	Document *model.Document
	// FallbackReason explains why the assembled path was taken, or why the
	// Document came from the local parser.
	FallbackReason string
}

//go:embed prompts/direct.txt
var directPrompt string

var directTemplate = template.Must(template.New("direct").Parse(directPrompt))

// Synthesizer produces LaTeX from an OptimizationResult.
type Synthesizer struct {
	Client llm.Client
}

// NewSynthesizer returns a Synthesizer using client for both paths.
func NewSynthesizer(client llm.Client) *Synthesizer {
	return &Synthesizer{Client: client}
}

// Synthesize tries the direct path and falls back to assembly when the
// direct markup cannot be produced or fails validation.
func (s *Synthesizer) Synthesize(ctx context.Context, res model.OptimizationResult) (Source, error) {
	src, err := s.Direct(ctx, res)
	if err == nil {
		return src, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Source{}, ctxErr
	}
	return s.Assembled(ctx, res, err.Error())
}

// Direct asks the model for a complete document. The returned Source is
// only non-empty when it passed Validate.
func (s *Synthesizer) Direct(ctx context.Context, res model.OptimizationResult) (Source, error) {
	if s.Client == nil {
		return Source{}, llm.ErrNotImplemented
	}
	prompt, err := renderDirectPrompt(res)
	if err != nil {
		return Source{}, err
	}
	raw, err := s.Client.Complete(ctx, llm.Request{Purpose: "markup", Prompt: prompt})
	if err != nil {
		return Source{}, err
	}
	markup := trimToDocument(llm.StripCodeFences(raw))
	if err := Validate(markup); err != nil {
		return Source{}, err
	}
	return Source{Path: PathDirect, Markup: markup}, nil
}

// Assembled builds the document through a Document and the fixed template.
// reason records why the direct path was not used.
func (s *Synthesizer) Assembled(ctx context.Context, res model.OptimizationResult, reason string) (Source, error) {
	doc, structureNote, err := Structurer{Client: s.Client}.Structure(ctx, res)
	if err != nil {
		return Source{}, err
	}
	markup := Assemble(doc)
	if err := Validate(markup); err != nil {
		return Source{}, err
	}
	if structureNote != "" {
		reason = joinReasons(reason, "local parse: "+structureNote)
	}
	return Source{Path: PathAssembled, Markup: markup, Document: &doc, FallbackReason: reason}, nil
}

func renderDirectPrompt(res model.OptimizationResult) (string, error) {
	contactJSON, err := json.MarshalIndent(res.Contact, "", "  ")
	if err != nil {
		return "", err
	}
	sections := res.Sections.Complete()
	var buf bytes.Buffer
	err = directTemplate.Execute(&buf, map[string]string{
		"Template":    Template(),
		"ContactJSON": string(contactJSON),
		"Education":   sections[model.Education],
		"Experience":  sections[model.Experience],
		"Projects":    sections[model.Projects],
		"Skills":      sections[model.Skills],
		"Other":       sections[model.Other],
	})
	if err != nil {
		return "", fmt.Errorf("render markup prompt: %w", err)
	}
	return buf.String(), nil
}

// trimToDocument drops any prose around \documentclass ... \end{document}.
func trimToDocument(markup string) string {
	if idx := strings.Index(markup, `\documentclass`); idx > 0 {
		markup = markup[idx:]
	}
	const end = `\end{document}`
	if idx := strings.LastIndex(markup, end); idx >= 0 {
		markup = markup[:idx+len(end)]
	}
	return strings.TrimSpace(markup) + "\n"
}

func joinReasons(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}
