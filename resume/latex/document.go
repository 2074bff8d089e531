package latex

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/xeipuuv/gojsonschema"

	"resume-optimizer/internal/llm"
	"resume-optimizer/resume/model"
)

var (
	//go:embed schemas/document.json
	documentSchema string
	//go:embed prompts/extract.txt
	extractPrompt string
)

var (
	documentSchemaLoader = gojsonschema.NewStringLoader(documentSchema)
	extractTemplate      = template.Must(template.New("extract").Parse(extractPrompt))
)

// ErrDocumentSchema marks a structured document that does not match the
// expected shape.
var ErrDocumentSchema = errors.New("document does not match schema")

// ValidateDocumentJSON checks raw against the structured document schema.
func ValidateDocumentJSON(raw []byte) error {
	res, err := gojsonschema.Validate(documentSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDocumentSchema, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrDocumentSchema, strings.Join(msgs, "; "))
}

// ParseDocument validates and decodes a provider reply into a Document.
func ParseDocument(raw string) (model.Document, error) {
	src := []byte(llm.StripCodeFences(raw))
	var generic map[string]any
	if err := json.Unmarshal(src, &generic); err != nil {
		candidate := llm.ExtractJSONObject(string(src))
		if candidate == "" {
			return model.Document{}, fmt.Errorf("%w: %v", llm.ErrInvalidOutput, err)
		}
		src = []byte(candidate)
		if err := json.Unmarshal(src, &generic); err != nil {
			return model.Document{}, fmt.Errorf("%w: %v", llm.ErrInvalidOutput, err)
		}
	}
	normalizeGeneric(generic)
	normalized, err := json.Marshal(generic)
	if err != nil {
		return model.Document{}, err
	}
	if err := ValidateDocumentJSON(normalized); err != nil {
		return model.Document{}, err
	}
	var doc model.Document
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return model.Document{}, fmt.Errorf("%w: %v", llm.ErrInvalidOutput, err)
	}
	// the generic round-trip sorted the skill categories; take their
	// original order from the source.
	var ordered struct {
		Skills model.SkillGroups `json:"skills"`
	}
	if json.Unmarshal(src, &ordered) == nil {
		doc.Skills = ordered.Skills
	}
	return doc, nil
}

// normalizeGeneric turns numeric GPAs into strings so they decode into
// EducationEntry.
func normalizeGeneric(doc map[string]any) {
	entries, _ := doc["education"].([]any)
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if gpa, ok := entry["gpa"].(float64); ok {
			entry["gpa"] = strconv.FormatFloat(gpa, 'f', -1, 64)
		}
	}
}

// Structurer turns optimized sections into a Document, asking a language
// model first and parsing the sections locally when that fails.
type Structurer struct {
	Client llm.Client
}

// Structure returns the document and, when the local parser had to be
// used, the reason.
func (s Structurer) Structure(ctx context.Context, res model.OptimizationResult) (model.Document, string, error) {
	doc, err := s.extract(ctx, res)
	if err == nil && !doc.IsEmpty() {
		doc.Contact = res.Contact.Merge(doc.Contact)
		return doc, "", nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return model.Document{}, "", ctxErr
	}
	reason := "structured extraction returned no content"
	if err != nil {
		reason = err.Error()
	}
	return FromSections(res.Sections, res.Contact), reason, nil
}

func (s Structurer) extract(ctx context.Context, res model.OptimizationResult) (model.Document, error) {
	if s.Client == nil {
		return model.Document{}, llm.ErrNotImplemented
	}
	contactJSON, err := json.MarshalIndent(res.Contact, "", "  ")
	if err != nil {
		return model.Document{}, err
	}
	var prompt bytes.Buffer
	if err := extractTemplate.Execute(&prompt, map[string]string{
		"Resume":      res.Sections.Text(),
		"ContactJSON": string(contactJSON),
	}); err != nil {
		return model.Document{}, fmt.Errorf("render extract prompt: %w", err)
	}
	raw, err := s.Client.Complete(ctx, llm.Request{Purpose: "structure", Prompt: prompt.String(), JSON: true})
	if err != nil {
		return model.Document{}, err
	}
	return ParseDocument(raw)
}
