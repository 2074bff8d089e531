package main

// Optimize one résumé against a job description without the HTTP server:
//   go run ./cmd/optimize --resume cv.pdf --job job.txt --out tailored.pdf

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"resume-optimizer/internal/bootstrap"
	"resume-optimizer/internal/extract"
	"resume-optimizer/internal/optimizer"
	"resume-optimizer/internal/pipeline"
	"resume-optimizer/internal/shared/config"
	"resume-optimizer/internal/shared/telemetry"
)

type report struct {
	RenderPath     string   `json:"render_path"`
	FallbackReason string   `json:"fallback_reason,omitempty"`
	Normalization  string   `json:"normalization"`
	ScoreCurrent   int      `json:"score_current"`
	ScorePotential int      `json:"score_potential"`
	Matched        []string `json:"matched_keywords"`
	Missing        []string `json:"missing_keywords"`
	KeywordsAdded  []string `json:"keywords_added"`
	KeywordsGained []string `json:"keywords_gained"`
	ChangesMade    []string `json:"changes_made"`
	ATSBefore      int      `json:"ats_score_before"`
	ATSAfter       int      `json:"ats_score_after"`
	Warning        string   `json:"warning,omitempty"`
	Output         string   `json:"output"`
	DurationMs     int64    `json:"duration_ms"`
}

func main() {
	var (
		resumePath string
		jobPath    string
		outPath    string
		markupPath string
		configPath string
		format     string
		useHTML    bool
		editType   string
		company    string
		jobTitle   string
		timeout    time.Duration
	)
	pflag.StringVarP(&resumePath, "resume", "r", "", "Path to the résumé (pdf, docx or txt)")
	pflag.StringVarP(&jobPath, "job", "j", "", "Path to the job description text")
	pflag.StringVarP(&outPath, "out", "o", "./out/resume.pdf", "Where to write the PDF")
	pflag.StringVar(&markupPath, "latex", "", "Also write the generated markup to this path")
	pflag.StringVarP(&configPath, "config", "c", "", "YAML config file (defaults to environment)")
	pflag.StringVar(&format, "format", "", "Output backend: latex or html (defaults to the configured renderer)")
	pflag.BoolVar(&useHTML, "html", false, "Shorthand for --format html")
	pflag.StringVar(&editType, "edit", string(optimizer.EditFull), "Edit depth: quick or full")
	pflag.StringVar(&company, "company", "", "Company name used in the prompt")
	pflag.StringVar(&jobTitle, "title", "", "Job title used in the prompt")
	pflag.DurationVar(&timeout, "timeout", 3*time.Minute, "Overall deadline")
	pflag.Parse()

	if strings.TrimSpace(resumePath) == "" || strings.TrimSpace(jobPath) == "" {
		exitErr("--resume and --job are required")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		exitErr(err.Error())
	}
	telemetry.Init(telemetry.Config{Level: cfg.LogLevel, Format: "pretty"})

	defaultFormat := pipeline.FormatLatex
	if cfg.Renderer == "html" {
		defaultFormat = pipeline.FormatHTML
	}
	if useHTML {
		format = string(pipeline.FormatHTML)
	}
	outFormat, ok := pipeline.ParseFormat(format, defaultFormat)
	if !ok {
		exitErr("unknown --format " + format)
	}
	edit := optimizer.EditType(strings.ToLower(editType))
	if edit != optimizer.EditQuick && edit != optimizer.EditFull {
		exitErr("--edit must be quick or full")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resumeBytes, err := os.ReadFile(resumePath)
	if err != nil {
		exitErr(fmt.Sprintf("read resume: %v", err))
	}
	jobBytes, err := os.ReadFile(jobPath)
	if err != nil {
		exitErr(fmt.Sprintf("read job description: %v", err))
	}
	jobDescription := strings.TrimSpace(string(jobBytes))

	extracted, err := extract.Extract(ctx, resumeBytes, "", filepath.Base(resumePath))
	if err != nil {
		exitErr(fmt.Sprintf("extract resume: %v", err))
	}

	p, _, err := bootstrap.NewPipeline(ctx, cfg)
	if err != nil {
		exitErr(err.Error())
	}

	analysis, err := p.Analyze(ctx, extracted.Text, extracted.Contact, jobDescription)
	if err != nil {
		exitErr(fmt.Sprintf("analyze: %v", err))
	}

	out, genErr := p.Generate(ctx, pipeline.Input{
		Sections:       analysis.Normalized.Sections,
		Contact:        analysis.Contact,
		Keywords:       analysis.Keywords,
		JobDescription: jobDescription,
		JobTitle:       jobTitle,
		Company:        company,
		EditType:       edit,
		Format:         outFormat,
	})
	if markupPath != "" && out.Markup != "" {
		if err := writeFile(markupPath, []byte(out.Markup)); err != nil {
			exitErr(err.Error())
		}
	}
	if genErr != nil {
		exitErr(fmt.Sprintf("generate: %v", genErr))
	}
	if err := writeFile(outPath, out.PDF); err != nil {
		exitErr(err.Error())
	}

	rep := report{
		RenderPath:     out.RenderPath,
		FallbackReason: out.FallbackReason,
		Normalization:  string(analysis.Normalized.Method),
		ScoreCurrent:   analysis.Score.Current,
		ScorePotential: analysis.Score.Potential,
		Matched:        analysis.Matched,
		Missing:        analysis.Missing,
		KeywordsAdded:  out.Optimization.Summary.KeywordsAdded,
		KeywordsGained: out.Coverage.Gained,
		ChangesMade:    out.Optimization.Summary.ChangesMade,
		ATSBefore:      out.Optimization.Summary.ATSScoreBefore,
		ATSAfter:       out.Optimization.Summary.ATSScoreAfter,
		Warning:        out.Optimization.Err,
		Output:         outPath,
		DurationMs:     out.Duration.Milliseconds(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rep)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
