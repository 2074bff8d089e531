package sections

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"resume-optimizer/internal/llm"
	"resume-optimizer/internal/shared/telemetry"
	"resume-optimizer/resume/model"
)

//go:embed prompts/classify.txt
var classifyPrompt string

var classifyTemplate = template.Must(template.New("classify").Parse(classifyPrompt))

// ErrDroppedContent is reported when a model reply files nothing at all for
// non-empty input.
var ErrDroppedContent = errors.New("classification dropped all content")

// Delegated classifies by asking a language model to map headings by
// meaning. Any failure degrades to WholeText so callers always get a
// usable Result.
type Delegated struct {
	Client llm.Client
}

// NewDelegated returns a Delegated classifier backed by client.
func NewDelegated(client llm.Client) *Delegated {
	return &Delegated{Client: client}
}

type classifyReply struct {
	Contact  model.ContactInfo    `json:"contact_info"`
	Sections model.SectionSet     `json:"sections"`
	Original map[string]any       `json:"original_sections"`
	Mapping  model.SectionMapping `json:"section_mappings"`
}

// Classify never returns an error other than context cancellation.
func (d *Delegated) Classify(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res, err := d.classify(ctx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		telemetry.Warn("sections.classify_fallback", map[string]any{
			"error":   err,
			"textLen": len(text),
		})
		return WholeText(text), nil
	}
	return res, nil
}

func (d *Delegated) classify(ctx context.Context, text string) (Result, error) {
	if d.Client == nil {
		return Result{}, llm.ErrNotImplemented
	}
	var prompt bytes.Buffer
	if err := classifyTemplate.Execute(&prompt, struct{ ResumeText string }{text}); err != nil {
		return Result{}, fmt.Errorf("render classify prompt: %w", err)
	}
	raw, err := d.Client.Complete(ctx, llm.Request{Purpose: "classify", Prompt: prompt.String(), JSON: true})
	if err != nil {
		return Result{}, err
	}
	return parseClassifyReply(raw, text)
}

func parseClassifyReply(raw, text string) (Result, error) {
	var reply classifyReply
	if err := llm.DecodeJSON(raw, &reply); err != nil {
		return Result{}, err
	}
	set := reply.Sections.Complete()
	if set.IsEmpty() && strings.TrimSpace(text) != "" {
		return Result{}, ErrDroppedContent
	}
	original := make(map[string]string, len(reply.Original))
	for heading, body := range reply.Original {
		original[heading] = flatten(body)
	}
	mapping := reply.Mapping
	if mapping == nil {
		mapping = model.SectionMapping{}
	}
	return Result{
		Sections: set,
		Mapping:  mapping,
		Original: original,
		Contact:  reply.Contact,
		Method:   MethodDelegated,
	}, nil
}

func flatten(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		var set model.SectionSet
		if json.Unmarshal([]byte(`{"other":`+string(b)+`}`), &set) == nil {
			return set[model.Other]
		}
		return string(b)
	}
}
