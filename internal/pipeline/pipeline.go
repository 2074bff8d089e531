// Package pipeline sequences one résumé through normalization, keyword
// analysis, optimization, markup synthesis and rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resume-optimizer/internal/keywords"
	"resume-optimizer/internal/optimizer"
	"resume-optimizer/internal/sections"
	"resume-optimizer/internal/shared/metrics"
	"resume-optimizer/internal/shared/telemetry"
	"resume-optimizer/resume/latex"
	"resume-optimizer/resume/model"
	"resume-optimizer/resume/render"
)

// Format selects the output backend.
type Format string

const (
	FormatLatex Format = "latex"
	FormatHTML  Format = "html"
)

// RenderPathHTML is reported for documents printed from HTML.
const RenderPathHTML = "html"

var ErrNoRenderer = errors.New("no renderer configured for format")

// ParseFormat maps a request value onto a Format, defaulting to def.
func ParseFormat(raw string, def Format) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return def, true
	case string(FormatLatex), "pdf":
		return FormatLatex, true
	case string(FormatHTML):
		return FormatHTML, true
	}
	return "", false
}

// Synthesizer is the markup stage. *latex.Synthesizer implements it.
type Synthesizer interface {
	Synthesize(ctx context.Context, res model.OptimizationResult) (latex.Source, error)
	Assembled(ctx context.Context, res model.OptimizationResult, reason string) (latex.Source, error)
}

// Compiler turns validated markup into a PDF. *render.Compiler implements it.
type Compiler interface {
	Compile(ctx context.Context, markup string) ([]byte, error)
}

// HTMLRenderer is the alternate backend. *render.HTMLRenderer implements it.
type HTMLRenderer interface {
	Render(ctx context.Context, contact model.ContactInfo, text string) ([]byte, string, error)
}

// Pipeline holds the stages. Each request runs them sequentially.
type Pipeline struct {
	Classifier  sections.Classifier
	Optimizer   optimizer.Optimizer
	Synthesizer Synthesizer
	Compiler    Compiler
	HTML        HTMLRenderer
	now         func() time.Time
}

// New wires a pipeline. A nil classifier means heuristic normalization.
func New(classifier sections.Classifier, opt optimizer.Optimizer, synth Synthesizer, compiler Compiler, html HTMLRenderer) *Pipeline {
	if classifier == nil {
		classifier = sections.Heuristic{}
	}
	return &Pipeline{
		Classifier:  classifier,
		Optimizer:   opt,
		Synthesizer: synth,
		Compiler:    compiler,
		HTML:        html,
		now:         time.Now,
	}
}

// Analysis is the normalized résumé plus its keyword match against a job.
type Analysis struct {
	Normalized sections.Result
	Contact    model.ContactInfo
	Keywords   []string
	Matched    []string
	Missing    []string
	Score      keywords.Score
}

// Analyze normalizes text and scores it against the job description.
// Contact details found by extraction win over the classifier's.
func (p *Pipeline) Analyze(ctx context.Context, text string, contact model.ContactInfo, jobDescription string) (Analysis, error) {
	normalized, err := p.normalize(ctx, text)
	if err != nil {
		return Analysis{}, err
	}
	kws := keywords.Extract(jobDescription)
	matched, missing := keywords.Match(kws, text)
	return Analysis{
		Normalized: normalized,
		Contact:    contact.Merge(normalized.Contact),
		Keywords:   kws,
		Matched:    matched,
		Missing:    missing,
		Score:      keywords.ScoreMatches(len(matched)),
	}, nil
}

func (p *Pipeline) normalize(ctx context.Context, text string) (sections.Result, error) {
	res, err := p.Classifier.Classify(ctx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return sections.Result{}, ctxErr
		}
		telemetry.Warn("pipeline.normalize_fallback", map[string]any{"error": err})
		res = sections.Split(text)
	}
	if res.Method == sections.MethodFallback {
		metrics.IncFallback("normalize")
	}
	res.Sections = res.Sections.Complete()
	return res, nil
}

// Input is one generation request.
type Input struct {
	Sections       model.SectionSet
	Contact        model.ContactInfo
	Keywords       []string
	JobDescription string
	JobTitle       string
	Company        string
	EditType       optimizer.EditType
	FocusSections  []string
	Skills         []string
	Instructions   string
	Format         Format
}

// Output is a rendered document and how it was produced.
type Output struct {
	PDF          []byte
	Optimization model.OptimizationResult
	Coverage     keywords.Coverage
	Format       Format
	// RenderPath is "direct", "assembled" or "html".
	RenderPath     string
	FallbackReason string
	Markup         string
	Duration       time.Duration
}

// Generate optimizes the sections and renders them. Optimizer failures are
// absorbed. Invalid markup and compile failures are returned.
func (p *Pipeline) Generate(ctx context.Context, in Input) (Output, error) {
	start := p.now()
	out, err := p.generate(ctx, in)
	out.Duration = p.now().Sub(start)
	metrics.ObserveGenerationDurationMs(float64(out.Duration.Milliseconds()))
	metrics.IncGeneration(err == nil)
	if err != nil {
		telemetry.Error("pipeline.generate_failed", map[string]any{
			"format":      string(in.Format),
			"render_path": out.RenderPath,
			"error":       err,
		})
		return out, err
	}
	telemetry.Info("pipeline.generate", map[string]any{
		"format":          string(out.Format),
		"render_path":     out.RenderPath,
		"fallback_reason": out.FallbackReason,
		"keywords_gained": len(out.Coverage.Gained),
		"ats_before":      out.Optimization.Summary.ATSScoreBefore,
		"ats_after":       out.Optimization.Summary.ATSScoreAfter,
		"duration_ms":     out.Duration.Milliseconds(),
	})
	return out, nil
}

func (p *Pipeline) generate(ctx context.Context, in Input) (Output, error) {
	if p.Optimizer == nil {
		return Output{}, errors.New("pipeline has no optimizer")
	}
	format := in.Format
	if format == "" {
		format = FormatLatex
	}
	original := in.Sections.Complete()
	res, err := p.Optimizer.Optimize(ctx, optimizer.Request{
		Sections:       original,
		Contact:        in.Contact,
		JobDescription: in.JobDescription,
		JobTitle:       in.JobTitle,
		Company:        in.Company,
		EditType:       in.EditType,
		FocusSections:  in.FocusSections,
		Skills:         in.Skills,
		Instructions:   in.Instructions,
	})
	if err != nil {
		return Output{}, err
	}
	if res.Err != "" {
		metrics.IncFallback("optimize")
	}

	kws := in.Keywords
	if len(kws) == 0 {
		kws = keywords.Extract(in.JobDescription)
	}
	out := Output{
		Optimization: res,
		Coverage:     keywords.CoverageDelta(kws, original.Text(), res.Sections.Text()),
		Format:       format,
	}
	metrics.ObserveKeywordsGained(len(out.Coverage.Gained))

	switch format {
	case FormatHTML:
		return p.renderHTML(ctx, res, out)
	case FormatLatex:
		return p.renderLatex(ctx, res, out)
	}
	return out, fmt.Errorf("%w: %s", ErrNoRenderer, format)
}

func (p *Pipeline) renderHTML(ctx context.Context, res model.OptimizationResult, out Output) (Output, error) {
	if p.HTML == nil {
		return out, fmt.Errorf("%w: %s", ErrNoRenderer, FormatHTML)
	}
	out.RenderPath = RenderPathHTML
	metrics.IncRenderPath(RenderPathHTML)
	pdf, page, err := p.HTML.Render(ctx, res.Contact, res.Sections.Text())
	out.Markup = page
	if err != nil {
		return out, err
	}
	out.PDF = pdf
	return out, nil
}

// renderLatex compiles the synthesized markup. A direct document the
// compiler rejects gets one more try through the assembled path.
func (p *Pipeline) renderLatex(ctx context.Context, res model.OptimizationResult, out Output) (Output, error) {
	if p.Synthesizer == nil || p.Compiler == nil {
		return out, fmt.Errorf("%w: %s", ErrNoRenderer, FormatLatex)
	}
	src, err := p.Synthesizer.Synthesize(ctx, res)
	if err != nil {
		return out, fmt.Errorf("synthesize markup: %w", err)
	}
	noteSource(src)

	pdf, err := p.Compiler.Compile(ctx, src.Markup)
	if err != nil && src.Path == latex.PathDirect && errors.Is(err, render.ErrCompileFailed) {
		metrics.IncCompileFailure()
		telemetry.Warn("pipeline.direct_compile_failed", map[string]any{"error": err})
		src, err = p.Synthesizer.Assembled(ctx, res, "direct markup did not compile: "+err.Error())
		if err != nil {
			return out, fmt.Errorf("synthesize markup: %w", err)
		}
		noteSource(src)
		pdf, err = p.Compiler.Compile(ctx, src.Markup)
	}
	out.RenderPath = string(src.Path)
	out.FallbackReason = src.FallbackReason
	out.Markup = src.Markup
	if err != nil {
		if errors.Is(err, render.ErrCompileFailed) {
			metrics.IncCompileFailure()
		}
		return out, fmt.Errorf("compile: %w", err)
	}
	out.PDF = pdf
	return out, nil
}

func noteSource(src latex.Source) {
	metrics.IncRenderPath(string(src.Path))
	if src.Path == latex.PathAssembled {
		metrics.IncFallback("markup")
	}
	if strings.Contains(src.FallbackReason, "local parse") {
		metrics.IncFallback("structure")
	}
}
