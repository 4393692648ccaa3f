package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/guiderun/guiderun/internal/config"
	"github.com/guiderun/guiderun/internal/parser"
)

// ExecutionResult is the outcome of running one code block. It is created
// fresh per execution and never mutated after return.
type ExecutionResult struct {
	Success      bool
	ExitCode     int
	Stdout       string
	Stderr       string
	ErrorMessage string
}

// Executor runs code blocks and writes file blocks for one tutorial run.
// It owns its VariableStore for the lifetime of the run; blocks execute
// strictly one at a time because later blocks may read variables captured by
// earlier ones.
type Executor struct {
	baseDir      string
	vars         *VariableStore
	allowOutside bool
	shell        string
}

// NewExecutor creates an executor rooted at baseDir. An empty baseDir means
// the current directory; a nil store gets a fresh one.
func NewExecutor(baseDir string, vars *VariableStore, allowOutside bool) *Executor {
	if baseDir == "" {
		baseDir, _ = os.Getwd()
	}
	if vars == nil {
		vars = NewVariableStore(nil)
	}
	return &Executor{
		baseDir:      baseDir,
		vars:         vars,
		allowOutside: allowOutside,
		shell:        config.GetShell(),
	}
}

// Vars returns the run's variable store
func (e *Executor) Vars() *VariableStore {
	return e.vars
}

// BaseDir returns the sandboxed base working directory
func (e *Executor) BaseDir() string {
	return e.baseDir
}

// WriteFile writes a file block to disk inside the sandbox. A once=true block
// whose target already exists is skipped and reported as success. Filesystem
// failures come back as errors, never panics.
func (e *Executor) WriteFile(block *parser.FileBlock) (string, error) {
	resolved, err := ValidatePath(block.Path, e.baseDir, e.allowOutside)
	if err != nil {
		return "", err
	}

	if block.Once {
		if _, statErr := os.Stat(resolved); statErr == nil {
			return fmt.Sprintf("File already exists, skipping (once=true): %s", block.Path), nil
		}
	}

	content := block.Code
	if block.Template == "shell" {
		content = e.vars.Substitute(content)
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	if dir := filepath.Dir(resolved); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to write file: %w", err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if block.Mode == "append" {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(resolved, flags, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if block.Executable {
		if err := os.Chmod(resolved, info.Mode()|0111); err != nil {
			return "", fmt.Errorf("failed to set executable bits: %w", err)
		}
	}

	return fmt.Sprintf("Wrote %d bytes to %s", info.Size(), block.Path), nil
}

// ExecuteCodeBlock substitutes variables into the block's command, runs it
// through the configured shell bounded by the block's timeout, and captures
// stdout, stderr and the exit code. Execution errors (missing working
// directory, timeout, launch failure) come back as a failed result with a
// distinct ErrorMessage; nothing is ever raised to the caller.
func (e *Executor) ExecuteCodeBlock(ctx context.Context, block *parser.CodeBlock) *ExecutionResult {
	command := e.vars.Substitute(block.Code)

	workdir := e.baseDir
	if block.WorkingDir != "" {
		if filepath.IsAbs(block.WorkingDir) {
			workdir = block.WorkingDir
		} else {
			workdir = filepath.Join(e.baseDir, block.WorkingDir)
		}
	}
	if _, err := os.Stat(workdir); err != nil {
		return &ExecutionResult{
			Success:      false,
			ExitCode:     -1,
			ErrorMessage: fmt.Sprintf("Working directory does not exist: %s", workdir),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(block.Timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.shell, "-c", command)
	cmd.Dir = workdir
	cmd.Env = os.Environ()
	// Don't hang on grandchildren holding the output pipes after the kill
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return &ExecutionResult{
			Success:      false,
			ExitCode:     -1,
			Stdout:       stdout.String(),
			Stderr:       stderr.String(),
			ErrorMessage: fmt.Sprintf("Command timed out after %d seconds", block.Timeout),
		}
	}

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return &ExecutionResult{
				Success:      false,
				ExitCode:     -1,
				ErrorMessage: fmt.Sprintf("Execution error: %v", runErr),
			}
		}
	}

	result := &ExecutionResult{
		Success:  exitCode == 0,
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	// Captures happen on every successful launch, regardless of exit code
	if block.OutVar != "" {
		e.vars.Set(block.OutVar, strings.TrimSpace(result.Stdout+result.Stderr))
	}
	if block.OutFile != "" {
		if err := e.writeOutputFile(block.OutFile, result.Stdout); err != nil {
			result.ErrorMessage = fmt.Sprintf("Warning: Failed to write output file: %v", err)
		}
	}
	if block.CodeVar != "" {
		e.vars.Set(block.CodeVar, strconv.Itoa(exitCode))
	}

	return result
}

// writeOutputFile writes raw stdout to a sandboxed path for data-out-file
func (e *Executor) writeOutputFile(path, stdout string) error {
	resolved, err := ValidatePath(path, e.baseDir, e.allowOutside)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(resolved); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(resolved, []byte(stdout), 0644)
}

// ExecuteAndValidate runs a code block and judges the result. When execution
// itself failed (exit code -1 with an error message: timeout, missing working
// directory, launch failure) validation is skipped and that message is
// reported verbatim. An out-file warning on a launched command does not
// short-circuit validation.
func (e *Executor) ExecuteAndValidate(ctx context.Context, block *parser.CodeBlock) (*ExecutionResult, bool, string) {
	result := e.ExecuteCodeBlock(ctx, block)
	if result.ErrorMessage != "" && result.ExitCode == -1 {
		return result, false, result.ErrorMessage
	}
	passed, message := Validate(result, block.Mode, block.Expected)
	return result, passed, message
}
