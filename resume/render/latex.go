package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"resume-optimizer/internal/shared/telemetry"
	"resume-optimizer/resume/latex"
)

const (
	DefaultBinary  = "pdflatex"
	defaultPasses  = 2
	maxDiagnostics = 10
	sourceName     = "resume"
)

var (
	ErrCompileFailed   = errors.New("latex compilation failed")
	ErrCompilerMissing = errors.New("latex compiler not installed")
)

// unclosedHint is the log text pdflatex emits for a command missing its closing brace.
const unclosedHint = "File ended while scanning use of"

// CompileError carries the compiler's own explanation of a failed build.
type CompileError struct {
	Diagnostics []string
	DebugPath   string
	Unclosed    bool
}

func (e *CompileError) Error() string {
	if len(e.Diagnostics) == 0 {
		return ErrCompileFailed.Error()
	}
	return fmt.Sprintf("%s: %s", ErrCompileFailed, strings.Join(e.Diagnostics, "; "))
}

func (e *CompileError) Unwrap() error {
	return ErrCompileFailed
}

// Runner executes one compiler pass inside dir and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, dir string, name string, args ...string) ([]byte, error)

func (f RunnerFunc) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	return f(ctx, dir, name, args...)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Compiler turns LaTeX markup into PDF bytes with an external toolchain.
type Compiler struct {
	Binary string
	Passes int
	// WorkDir is where per-request scratch directories are created.
	WorkDir string
	// DebugDir keeps a copy of every source that failed to compile.
	// Empty disables debug copies.
	DebugDir string
	Runner   Runner
	Timeout  time.Duration
}

// NewCompiler returns a Compiler running binary (pdflatex when empty) twice.
func NewCompiler(binary string, debugDir string) *Compiler {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Compiler{
		Binary:   binary,
		Passes:   defaultPasses,
		DebugDir: debugDir,
		Runner:   execRunner{},
		Timeout:  90 * time.Second,
	}
}

// Compile validates markup and builds it. Invalid markup never reaches the
// compiler. Success is judged by the PDF existing, not by exit status.
func (c *Compiler) Compile(ctx context.Context, markup string) ([]byte, error) {
	if err := latex.Validate(markup); err != nil {
		return nil, err
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp(c.WorkDir, "latex-")
	if err != nil {
		return nil, fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	texName := sourceName + ".tex"
	texPath := filepath.Join(dir, texName)
	if err := os.WriteFile(texPath, []byte(markup), 0o600); err != nil {
		return nil, fmt.Errorf("write source: %w", err)
	}

	passes := c.Passes
	if passes <= 0 {
		passes = defaultPasses
	}
	var stdout []byte
	for i := 0; i < passes; i++ {
		out, runErr := c.runner().Run(ctx, dir, c.binary(), "-interaction=nonstopmode", texName)
		stdout = out
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if runErr != nil {
			var exitErr *exec.ExitError
			if !errors.As(runErr, &exitErr) {
				if errors.Is(runErr, exec.ErrNotFound) {
					return nil, fmt.Errorf("%w: %s", ErrCompilerMissing, c.binary())
				}
				return nil, fmt.Errorf("run %s: %w", c.binary(), runErr)
			}
		}
	}

	pdfPath := filepath.Join(dir, sourceName+".pdf")
	if pdf, err := os.ReadFile(pdfPath); err == nil {
		for _, ext := range []string{".aux", ".log", ".out"} {
			_ = os.Remove(filepath.Join(dir, sourceName+ext))
		}
		return pdf, nil
	}

	logData, _ := os.ReadFile(filepath.Join(dir, sourceName+".log"))
	cerr := &CompileError{
		Diagnostics: Diagnostics(string(logData), string(stdout)),
		Unclosed:    bytes.Contains(logData, []byte(unclosedHint)),
	}
	cerr.DebugPath = c.keepDebugCopy(markup)
	telemetry.Warn("latex.compile_failed", map[string]any{
		"diagnostics": cerr.Diagnostics,
		"debug_path":  cerr.DebugPath,
		"unclosed":    cerr.Unclosed,
	})
	return nil, cerr
}

// Diagnostics pulls up to ten error lines (and the line after each) from a
// pdflatex log. When the log has none, stdout lines mentioning "!" are used.
func Diagnostics(log string, stdout string) []string {
	var out []string
	lines := strings.Split(log, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, "!") {
			continue
		}
		out = append(out, strings.TrimRight(line, "\r"))
		if i+1 < len(lines) {
			out = append(out, strings.TrimRight(lines[i+1], "\r"))
		}
	}
	if len(out) == 0 {
		for _, line := range strings.Split(stdout, "\n") {
			if strings.Contains(line, "!") {
				out = append(out, strings.TrimSpace(line))
			}
			if len(out) == 5 {
				break
			}
		}
	}
	if len(out) > maxDiagnostics {
		out = out[:maxDiagnostics]
	}
	return out
}

func (c *Compiler) keepDebugCopy(markup string) string {
	if c.DebugDir == "" {
		return ""
	}
	if err := os.MkdirAll(c.DebugDir, 0o755); err != nil {
		telemetry.Warn("latex.debug_copy_failed", map[string]any{"error": err})
		return ""
	}
	f, err := os.CreateTemp(c.DebugDir, sourceName+"-*_debug.tex")
	if err != nil {
		telemetry.Warn("latex.debug_copy_failed", map[string]any{"error": err})
		return ""
	}
	defer f.Close()
	if _, err := f.WriteString(markup); err != nil {
		telemetry.Warn("latex.debug_copy_failed", map[string]any{"error": err})
		return ""
	}
	return f.Name()
}

// Available reports whether the configured binary can be found.
func (c *Compiler) Available(ctx context.Context) error {
	if _, err := exec.LookPath(c.binary()); err != nil {
		return fmt.Errorf("%w: %v", ErrCompilerMissing, err)
	}
	return nil
}

func (c *Compiler) binary() string {
	if c.Binary == "" {
		return DefaultBinary
	}
	return c.Binary
}

func (c *Compiler) runner() Runner {
	if c.Runner == nil {
		return execRunner{}
	}
	return c.Runner
}
