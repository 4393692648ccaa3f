package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/guiderun/guiderun/internal/config"
	"github.com/guiderun/guiderun/internal/executor"
	"github.com/guiderun/guiderun/internal/parser"
)

// Options controls one tutorial run
type Options struct {
	Step   int    // 1-based step to run; 0 runs all steps
	CI     bool   // Stop the whole run at the first failed block
	Format string // text or jsonl
	Out    io.Writer
}

// BlockResult is the recorded outcome of one executed block
type BlockResult struct {
	Step       int    `json:"step"`
	StepTitle  string `json:"step_title"`
	Kind       string `json:"kind"` // run or file
	Line       int    `json:"line"`
	Detail     string `json:"detail"` // command text or file path
	Passed     bool   `json:"passed"`
	Message    string `json:"message"`
	ExitCode   int    `json:"exit_code"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Report accumulates the outcomes of a tutorial run
type Report struct {
	Title  string
	Source string
	Blocks []BlockResult
	Passed int
	Failed int
	Halted bool // Run stopped before reaching the last block
}

// Success reports whether every executed block passed
func (r *Report) Success() bool {
	return r.Failed == 0
}

// Runner drives a parsed tutorial through the executor, one block at a time,
// in document order. All output goes to the configured writer; the executor
// and validator never print.
type Runner struct {
	exec *executor.Executor
	opts Options
}

// New creates a runner around an executor
func New(exec *executor.Executor, opts Options) *Runner {
	if opts.Format == "" {
		opts.Format = config.GetOutputFormat()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Runner{exec: exec, opts: opts}
}

// Run executes the tutorial's steps sequentially. A failed block without
// continue-on-error skips the rest of its step; in CI mode it halts the whole
// run. The returned error covers structural problems only (no steps, step out
// of range), never block failures.
func (r *Runner) Run(ctx context.Context, tutorial *parser.Tutorial) (*Report, error) {
	report := &Report{Title: tutorial.Title, Source: tutorial.Source}

	steps := tutorial.Steps
	if len(steps) == 0 {
		return nil, fmt.Errorf("tutorial %q has no steps to execute", tutorial.Title)
	}
	offset := 0
	if r.opts.Step != 0 {
		if r.opts.Step < 1 || r.opts.Step > len(steps) {
			return nil, fmt.Errorf("step %d out of range (1-%d)", r.opts.Step, len(steps))
		}
		offset = r.opts.Step - 1
		steps = steps[offset : offset+1]
	}

	r.header(tutorial)

	for i, step := range steps {
		stepNum := offset + i + 1
		r.stepBanner(stepNum, step)

		haltRun := r.runStep(ctx, stepNum, step, report)
		if haltRun {
			report.Halted = true
			break
		}
	}

	r.summary(report)
	return report, nil
}

// runStep executes one step's blocks in document order. It returns true when
// the whole run must stop.
func (r *Runner) runStep(ctx context.Context, stepNum int, step *parser.Step, report *Report) bool {
	for _, part := range step.ContentParts {
		switch block := part.(type) {
		case parser.TextPart:
			r.preview(string(block))

		case *parser.FileBlock:
			start := time.Now()
			message, err := r.exec.WriteFile(block)
			br := BlockResult{
				Step:       stepNum,
				StepTitle:  step.Title,
				Kind:       "file",
				Line:       block.LineNumber,
				Detail:     block.Path,
				Passed:     err == nil,
				Message:    message,
				DurationMS: time.Since(start).Milliseconds(),
			}
			if err != nil {
				br.Message = err.Error()
			}
			r.record(report, br)
			if err != nil {
				if r.opts.CI {
					return true
				}
				return false // skip the rest of this step
			}

		case *parser.CodeBlock:
			r.command(block)
			start := time.Now()
			result, passed, message := r.exec.ExecuteAndValidate(ctx, block)
			br := BlockResult{
				Step:       stepNum,
				StepTitle:  step.Title,
				Kind:       "run",
				Line:       block.LineNumber,
				Detail:     block.Code,
				Passed:     passed,
				Message:    message,
				ExitCode:   result.ExitCode,
				Stdout:     result.Stdout,
				Stderr:     result.Stderr,
				DurationMS: time.Since(start).Milliseconds(),
			}
			r.record(report, br)
			if !passed && !block.ContinueOnError {
				if r.opts.CI {
					return true
				}
				return false
			}
		}
	}
	return false
}

func (r *Runner) record(report *Report, br BlockResult) {
	report.Blocks = append(report.Blocks, br)
	if br.Passed {
		report.Passed++
	} else {
		report.Failed++
	}

	if r.opts.Format == "jsonl" {
		if data, err := json.Marshal(br); err == nil {
			fmt.Fprintln(r.opts.Out, string(data))
		}
		return
	}

	mark := passStyle.Render("✓")
	if !br.Passed {
		mark = failStyle.Render("✗")
	}
	fmt.Fprintf(r.opts.Out, "  %s%s %s\n", r.timestamp(), mark, br.Message)
	if !br.Passed && config.GetShowCaptured() && (br.Stdout != "" || br.Stderr != "") {
		out := strings.TrimSpace(br.Stdout + br.Stderr)
		fmt.Fprintln(r.opts.Out, dimStyle.Render(indent(out, "    ")))
	}
}

func (r *Runner) header(tutorial *parser.Tutorial) {
	if r.opts.Format == "jsonl" || !config.GetShowStepBanners() {
		return
	}
	fmt.Fprintln(r.opts.Out, titleStyle.Render("Executing tutorial: "+tutorial.Title))
	fmt.Fprintln(r.opts.Out, dividerStyle.Render(strings.Repeat("=", 60)))
}

func (r *Runner) stepBanner(num int, step *parser.Step) {
	if r.opts.Format == "jsonl" || !config.GetShowStepBanners() {
		return
	}
	fmt.Fprintf(r.opts.Out, "\n%s\n", bannerStyle.Render(fmt.Sprintf("[Step %d] %s", num, step.Title)))
	fmt.Fprintln(r.opts.Out, dividerStyle.Render(strings.Repeat("-", 60)))
}

func (r *Runner) command(block *parser.CodeBlock) {
	if r.opts.Format == "jsonl" || !config.GetShowCommands() {
		return
	}
	fmt.Fprintf(r.opts.Out, "  %s$ %s\n", r.timestamp(), cmdStyle.Render(block.Code))
	if config.GetShowSubstituted() {
		substituted := r.exec.Vars().Substitute(block.Code)
		if substituted != block.Code {
			fmt.Fprintf(r.opts.Out, "    %s\n", dimStyle.Render("→ "+substituted))
		}
	}
	if config.GetShowExpected() && block.Mode != "exit" {
		fmt.Fprintf(r.opts.Out, "    %s\n", dimStyle.Render(fmt.Sprintf("expect %s: %s", block.Mode, block.Expected)))
	}
}

func (r *Runner) preview(text string) {
	if r.opts.Format == "jsonl" || !config.GetShowPreviews() {
		return
	}
	fmt.Fprintln(r.opts.Out, dimStyle.Render(indent(strings.TrimSpace(text), "  ")))
}

func (r *Runner) summary(report *Report) {
	if r.opts.Format == "jsonl" {
		return
	}
	fmt.Fprintln(r.opts.Out, "\n"+dividerStyle.Render(strings.Repeat("=", 60)))
	status := passStyle.Render(fmt.Sprintf("%d passed", report.Passed))
	if report.Failed > 0 {
		status += ", " + failStyle.Render(fmt.Sprintf("%d failed", report.Failed))
	}
	if report.Halted {
		status += dimStyle.Render(" (run halted)")
	}
	fmt.Fprintln(r.opts.Out, status)
}

func (r *Runner) timestamp() string {
	if !config.GetShowTimestamps() {
		return ""
	}
	return dimStyle.Render(time.Now().Format("15:04:05")) + " "
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
