package parser

import (
	"strings"
	"testing"
)

func TestParseTutorialTitle(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		expected string
	}{
		{
			name:     "first H1 becomes the title",
			markdown: "# My Tutorial\n\nsome prose\n",
			expected: "My Tutorial",
		},
		{
			name:     "later H1 does not override",
			markdown: "# First\n\n# Second\n",
			expected: "First",
		},
		{
			name:     "missing title defaults",
			markdown: "just prose\n",
			expected: "Untitled Tutorial",
		},
		{
			name:     "step heading is not a title",
			markdown: "# Setup {.gr-step}\n\n# Real Title\n",
			expected: "Real Title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tutorial := NewParser().Parse(tt.markdown, "<test>")
			if tutorial.Title != tt.expected {
				t.Errorf("expected title %q, got %q", tt.expected, tutorial.Title)
			}
		})
	}
}

func TestParseStepHeadings(t *testing.T) {
	markdown := `# Tutorial

## Install {.gr-step #install}

Install the thing.

## Verify {.gr-step}

Check it worked.
`
	tutorial := NewParser().Parse(markdown, "<test>")

	if len(tutorial.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(tutorial.Steps))
	}
	if tutorial.Steps[0].Title != "Install" {
		t.Errorf("expected step title %q, got %q", "Install", tutorial.Steps[0].Title)
	}
	if tutorial.Steps[0].StepID != "install" {
		t.Errorf("expected step id %q, got %q", "install", tutorial.Steps[0].StepID)
	}
	if tutorial.Steps[1].StepID != "" {
		t.Errorf("expected empty step id, got %q", tutorial.Steps[1].StepID)
	}
	if !strings.Contains(tutorial.Steps[0].Content, "Install the thing.") {
		t.Errorf("step content missing prose: %q", tutorial.Steps[0].Content)
	}
}

func TestParseStepAttributesOnNextLine(t *testing.T) {
	markdown := "# T\n\n## First Step\n{.gr-step #first}\n\nprose\n"
	tutorial := NewParser().Parse(markdown, "<test>")

	if len(tutorial.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(tutorial.Steps))
	}
	step := tutorial.Steps[0]
	if step.Title != "First Step" {
		t.Errorf("expected title %q, got %q", "First Step", step.Title)
	}
	if step.StepID != "first" {
		t.Errorf("expected step id %q, got %q", "first", step.StepID)
	}
	if strings.Contains(step.Content, "{.gr-step") {
		t.Errorf("attribute line leaked into step content: %q", step.Content)
	}
}

func TestParseCodeBlock(t *testing.T) {
	markdown := "# T\n\n## S {.gr-step}\n\n```bash {.gr-run data-mode=contains data-exp=hi}\necho hi\n```\n"
	tutorial := NewParser().Parse(markdown, "<test>")

	if len(tutorial.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(tutorial.Steps))
	}
	step := tutorial.Steps[0]
	if len(step.CodeBlocks) != 1 {
		t.Fatalf("expected 1 code block, got %d", len(step.CodeBlocks))
	}
	cb := step.CodeBlocks[0]
	if cb.Code != "echo hi" {
		t.Errorf("expected code %q, got %q", "echo hi", cb.Code)
	}
	if cb.Language != "bash" {
		t.Errorf("expected language bash, got %q", cb.Language)
	}
	if cb.Mode != "contains" || cb.Expected != "hi" {
		t.Errorf("expected contains/hi, got %s/%s", cb.Mode, cb.Expected)
	}
	if cb.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %d, got %d", DefaultTimeout, cb.Timeout)
	}
	if cb.LineNumber != 5 {
		t.Errorf("expected line 5, got %d", cb.LineNumber)
	}
}

func TestParseCodeBlockDefaults(t *testing.T) {
	markdown := "## S {.gr-step}\n\n```bash {.gr-run}\ntrue\n```\n"
	tutorial := NewParser().Parse(markdown, "<test>")

	cb := tutorial.Steps[0].CodeBlocks[0]
	if cb.Mode != "exit" {
		t.Errorf("expected default mode exit, got %q", cb.Mode)
	}
	if cb.Expected != "0" {
		t.Errorf("expected default expected 0, got %q", cb.Expected)
	}
	if cb.Timeout != 30 {
		t.Errorf("expected default timeout 30, got %d", cb.Timeout)
	}
	if cb.ContinueOnError {
		t.Error("expected continue_on_error false by default")
	}
}

func TestParseCodeBlockAttributeMapping(t *testing.T) {
	markdown := "## S {.gr-step}\n\n" +
		"```sh {.gr-run data-mode=regex data-expected=\"v[0-9]+\" data-timeout=5 data-workdir=sub " +
		"data-continue-on-error=TRUE data-out-var=OUT data-out-file=out.txt data-code-var=RC}\n" +
		"false\n```\n"
	tutorial := NewParser().Parse(markdown, "<test>")

	cb := tutorial.Steps[0].CodeBlocks[0]
	if cb.Mode != "regex" || cb.Expected != "v[0-9]+" {
		t.Errorf("expected regex/v[0-9]+, got %s/%q", cb.Mode, cb.Expected)
	}
	if cb.Timeout != 5 {
		t.Errorf("expected timeout 5, got %d", cb.Timeout)
	}
	if cb.WorkingDir != "sub" {
		t.Errorf("expected workdir sub, got %q", cb.WorkingDir)
	}
	if !cb.ContinueOnError {
		t.Error("expected continue_on_error true (case-insensitive)")
	}
	if cb.OutVar != "OUT" || cb.OutFile != "out.txt" || cb.CodeVar != "RC" {
		t.Errorf("capture targets wrong: %q %q %q", cb.OutVar, cb.OutFile, cb.CodeVar)
	}
	if cb.Language != "sh" {
		t.Errorf("expected language sh, got %q", cb.Language)
	}
}

func TestParseExpShorthandWinsOverExpected(t *testing.T) {
	markdown := "## S {.gr-step}\n\n```bash {.gr-run data-mode=contains data-exp=short data-expected=long}\necho x\n```\n"
	tutorial := NewParser().Parse(markdown, "<test>")

	if got := tutorial.Steps[0].CodeBlocks[0].Expected; got != "short" {
		t.Errorf("expected data-exp to win, got %q", got)
	}
}

func TestParseInvalidTimeoutFallsBack(t *testing.T) {
	markdown := "## S {.gr-step}\n\n```bash {.gr-run data-timeout=soon}\ntrue\n```\n"
	tutorial := NewParser().Parse(markdown, "<test>")

	if got := tutorial.Steps[0].CodeBlocks[0].Timeout; got != DefaultTimeout {
		t.Errorf("expected fallback timeout %d, got %d", DefaultTimeout, got)
	}
}

func TestParseFileBlock(t *testing.T) {
	markdown := "## S {.gr-step}\n\n" +
		"```ini {.gr-file data-path=conf/app.ini data-mode=append data-exec=true data-template=shell data-once=true}\n" +
		"key=${VALUE}\n```\n"
	tutorial := NewParser().Parse(markdown, "<test>")

	step := tutorial.Steps[0]
	if len(step.FileBlocks) != 1 {
		t.Fatalf("expected 1 file block, got %d", len(step.FileBlocks))
	}
	fb := step.FileBlocks[0]
	if fb.Path != "conf/app.ini" {
		t.Errorf("expected path conf/app.ini, got %q", fb.Path)
	}
	if fb.Mode != "append" {
		t.Errorf("expected mode append, got %q", fb.Mode)
	}
	if !fb.Executable || !fb.Once {
		t.Errorf("expected executable and once, got %v %v", fb.Executable, fb.Once)
	}
	if fb.Template != "shell" {
		t.Errorf("expected template shell, got %q", fb.Template)
	}
	if fb.Code != "key=${VALUE}" {
		t.Errorf("expected file content preserved, got %q", fb.Code)
	}
}

func TestParseFileBlockDefaults(t *testing.T) {
	markdown := "## S {.gr-step}\n\n```text {.gr-file data-path=a.txt}\nhello\n```\n"
	tutorial := NewParser().Parse(markdown, "<test>")

	fb := tutorial.Steps[0].FileBlocks[0]
	if fb.Mode != "write" || fb.Template != "none" || fb.Executable || fb.Once {
		t.Errorf("unexpected defaults: %+v", fb)
	}
}

func TestParseFileBlockWithoutPathIsInert(t *testing.T) {
	markdown := "## S {.gr-step}\n\n```text {.gr-file}\nhello\n```\n"
	tutorial := NewParser().Parse(markdown, "<test>")

	step := tutorial.Steps[0]
	if len(step.FileBlocks) != 0 {
		t.Errorf("expected no file blocks, got %d", len(step.FileBlocks))
	}
	for _, part := range step.ContentParts {
		if _, ok := part.(*FileBlock); ok {
			t.Error("inert file block leaked into content parts")
		}
	}
}

func TestParseUnmarkedFenceIsDropped(t *testing.T) {
	markdown := "## S {.gr-step}\n\n```bash\necho not executable\n```\n\n```python {.example}\nprint()\n```\n"
	tutorial := NewParser().Parse(markdown, "<test>")

	step := tutorial.Steps[0]
	if len(step.CodeBlocks) != 0 || len(step.FileBlocks) != 0 {
		t.Errorf("unmarked fences must not become blocks: %d code, %d file",
			len(step.CodeBlocks), len(step.FileBlocks))
	}
}

func TestParseContentPartsOrder(t *testing.T) {
	markdown := `# T

## S {.gr-step}

before the block

` + "```bash {.gr-run}\necho one\n```" + `

between blocks

` + "```text {.gr-file data-path=x.txt}\ncontent\n```" + `

after everything
`
	tutorial := NewParser().Parse(markdown, "<test>")
	parts := tutorial.Steps[0].ContentParts

	if len(parts) != 5 {
		t.Fatalf("expected 5 content parts, got %d", len(parts))
	}

	text1, ok := parts[0].(TextPart)
	if !ok || !strings.Contains(string(text1), "before the block") {
		t.Errorf("part 0 should be leading text, got %T %v", parts[0], parts[0])
	}
	if _, ok := parts[1].(*CodeBlock); !ok {
		t.Errorf("part 1 should be a code block, got %T", parts[1])
	}
	text2, ok := parts[2].(TextPart)
	if !ok || !strings.Contains(string(text2), "between blocks") {
		t.Errorf("part 2 should be middle text, got %T", parts[2])
	}
	if _, ok := parts[3].(*FileBlock); !ok {
		t.Errorf("part 3 should be a file block, got %T", parts[3])
	}
	text3, ok := parts[4].(TextPart)
	if !ok || !strings.Contains(string(text3), "after everything") {
		t.Errorf("part 4 should be trailing text, got %T", parts[4])
	}
}

func TestParseBlocksBeforeAnyStepAreIgnored(t *testing.T) {
	markdown := "# T\n\n```bash {.gr-run}\necho orphan\n```\n\n## S {.gr-step}\n\ndone\n"
	tutorial := NewParser().Parse(markdown, "<test>")

	if len(tutorial.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(tutorial.Steps))
	}
	if len(tutorial.Steps[0].CodeBlocks) != 0 {
		t.Error("orphan block must not attach to a later step")
	}
}

func TestParseEmptyAndMalformedInput(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
	}{
		{"empty document", ""},
		{"unclosed fence", "## S {.gr-step}\n```bash {.gr-run}\necho hi\n"},
		{"malformed attributes", "## S {.gr-step\n\n```bash {gr-run=???\ntrue\n```\n"},
		{"attribute soup", "## S {.gr-step}\n\n```bash {.gr-run data-=x data-mode}\ntrue\n```\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Must not panic, whatever the input
			tutorial := NewParser().Parse(tt.markdown, "<test>")
			if tutorial == nil {
				t.Fatal("parse returned nil")
			}
		})
	}
}

func TestParseMultipleStepsCollectBlocksSeparately(t *testing.T) {
	markdown := "## A {.gr-step}\n\n```bash {.gr-run}\necho a\n```\n\n## B {.gr-step}\n\n```bash {.gr-run}\necho b\n```\n"
	tutorial := NewParser().Parse(markdown, "<test>")

	if len(tutorial.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(tutorial.Steps))
	}
	if tutorial.Steps[0].CodeBlocks[0].Code != "echo a" {
		t.Errorf("step A has wrong block: %q", tutorial.Steps[0].CodeBlocks[0].Code)
	}
	if tutorial.Steps[1].CodeBlocks[0].Code != "echo b" {
		t.Errorf("step B has wrong block: %q", tutorial.Steps[1].CodeBlocks[0].Code)
	}
}

func TestParseSourcePropagates(t *testing.T) {
	tutorial := NewParser().Parse("# T\n", "tutorials/demo.md")
	if tutorial.Source != "tutorials/demo.md" {
		t.Errorf("expected source to propagate, got %q", tutorial.Source)
	}
}
