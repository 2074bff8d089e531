// Package optimizer rewrites normalized résumé sections for a target job.
package optimizer

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"resume-optimizer/internal/llm"
	"resume-optimizer/internal/shared/telemetry"
	"resume-optimizer/resume/model"
)

// EditType controls how aggressively sections are rewritten.
type EditType string

const (
	EditQuick EditType = "quick"
	EditFull  EditType = "full"
)

const (
	minScore = 1
	maxScore = 10
	// reported when the model omits its own summary.
	defaultScoreBefore = 5
	defaultScoreAfter  = 7
)

//go:embed prompts/optimize.txt
var optimizePrompt string

var optimizeTemplate = template.Must(template.New("optimize").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(optimizePrompt))

// Request is everything the optimizer needs for one job.
type Request struct {
	Sections       model.SectionSet
	Contact        model.ContactInfo
	JobDescription string
	JobTitle       string
	Company        string
	EditType       EditType
	FocusSections  []string
	Skills         []string
	Instructions   string
}

// Optimizer produces an OptimizationResult. It only returns an error when
// ctx is done; every other failure yields the unmodified input.
type Optimizer interface {
	Optimize(ctx context.Context, req Request) (model.OptimizationResult, error)
}

// Delegated asks a language model to rewrite the sections.
type Delegated struct {
	Client llm.Client
}

// New returns a Delegated optimizer.
func New(client llm.Client) *Delegated {
	return &Delegated{Client: client}
}

type optimizeReply struct {
	Contact  *model.ContactInfo         `json:"contact_info"`
	Sections *model.SectionSet          `json:"sections"`
	Summary  *model.OptimizationSummary `json:"optimization_summary"`
}

// Optimize implements Optimizer.
func (o *Delegated) Optimize(ctx context.Context, req Request) (model.OptimizationResult, error) {
	if err := ctx.Err(); err != nil {
		return model.OptimizationResult{}, err
	}
	res, err := o.optimize(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.OptimizationResult{}, ctxErr
		}
		telemetry.Warn("optimizer.fallback", map[string]any{"error": err})
		return Unchanged(req, err), nil
	}
	return res, nil
}

// Unchanged is the result reported when optimization could not run.
func Unchanged(req Request, cause error) model.OptimizationResult {
	res := model.OptimizationResult{
		Sections: req.Sections.Complete(),
		Contact:  req.Contact,
		Summary:  model.NeutralSummary(),
	}
	if cause != nil {
		res.Err = fmt.Sprintf("Error during optimization: %v", cause)
	}
	return res
}

func (o *Delegated) optimize(ctx context.Context, req Request) (model.OptimizationResult, error) {
	if o.Client == nil {
		return model.OptimizationResult{}, llm.ErrNotImplemented
	}
	prompt, err := renderPrompt(req)
	if err != nil {
		return model.OptimizationResult{}, err
	}
	raw, err := o.Client.Complete(ctx, llm.Request{Purpose: "optimize", Prompt: prompt, JSON: true})
	if err != nil {
		return model.OptimizationResult{}, err
	}
	var reply optimizeReply
	if err := llm.DecodeJSON(raw, &reply); err != nil {
		return model.OptimizationResult{}, err
	}
	return reconcile(req, reply), nil
}

func renderPrompt(req Request) (string, error) {
	resumeJSON, err := json.MarshalIndent(struct {
		Contact  model.ContactInfo `json:"contact_info"`
		Sections model.SectionSet  `json:"sections"`
	}{req.Contact, req.Sections.Complete()}, "", "  ")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = optimizeTemplate.Execute(&buf, map[string]any{
		"ResumeJSON":     string(resumeJSON),
		"JobDescription": req.JobDescription,
		"JobTitle":       req.JobTitle,
		"Company":        req.Company,
		"Quick":          req.EditType == EditQuick,
		"FocusSections":  req.FocusSections,
		"Skills":         req.Skills,
		"Instructions":   strings.TrimSpace(req.Instructions),
	})
	if err != nil {
		return "", fmt.Errorf("render optimize prompt: %w", err)
	}
	return buf.String(), nil
}

// reconcile merges the model reply with the input. Sections that were empty
// stay empty, sections the model blanked keep their original text, and
// contact details are never replaced by the model's.
func reconcile(req Request, reply optimizeReply) model.OptimizationResult {
	in := req.Sections.Complete()
	out := model.NewSectionSet()
	if reply.Sections != nil {
		out = reply.Sections.Complete()
	}
	for _, c := range model.Categories {
		switch {
		case strings.TrimSpace(in[c]) == "":
			out[c] = ""
		case strings.TrimSpace(out[c]) == "":
			out[c] = in[c]
		}
	}

	contact := req.Contact
	if reply.Contact != nil {
		contact = contact.Merge(*reply.Contact)
	}

	summary := model.OptimizationSummary{
		KeywordsAdded:  []string{},
		ChangesMade:    []string{},
		ATSScoreBefore: defaultScoreBefore,
		ATSScoreAfter:  defaultScoreAfter,
	}
	if reply.Summary != nil {
		summary = *reply.Summary
		if summary.KeywordsAdded == nil {
			summary.KeywordsAdded = []string{}
		}
		if summary.ChangesMade == nil {
			summary.ChangesMade = []string{}
		}
		summary.ATSScoreBefore = clampScore(summary.ATSScoreBefore)
		summary.ATSScoreAfter = clampScore(summary.ATSScoreAfter)
	}
	return model.OptimizationResult{Sections: out, Contact: contact, Summary: summary}
}

func clampScore(v int) int {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
