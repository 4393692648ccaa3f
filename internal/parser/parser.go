package parser

import (
	"os"
	"strconv"
	"strings"
)

// DefaultTimeout is the per-block command timeout in seconds when a fence
// carries no data-timeout attribute.
const DefaultTimeout = 30

// Marker classes recognized in fence and heading attribute lists.
const (
	StepClass = "gr-step"
	RunClass  = "gr-run"
	FileClass = "gr-file"
)

// Tutorial is a fully parsed tutorial document
type Tutorial struct {
	Title  string  // First unmarked H1, or "Untitled Tutorial"
	Source string  // File path, URL, or "<string>"
	Steps  []*Step // Steps in document order
}

// Step is a section delimited by a gr-step heading
type Step struct {
	Title        string
	StepID       string // From #id in the heading attributes, if any
	Content      string // Raw prose lines inside the step
	LineNumber   int
	ContentParts []ContentPart // Text spans and blocks in document order
	CodeBlocks   []*CodeBlock  // Derived: executable blocks only
	FileBlocks   []*FileBlock  // Derived: file-write blocks only
}

// ContentPart is one ordered element of a step: a prose span, a code block,
// or a file block. The variants are closed so consumers can switch
// exhaustively.
type ContentPart interface {
	isContentPart()
}

// TextPart is a span of prose between blocks
type TextPart string

func (TextPart) isContentPart()   {}
func (*CodeBlock) isContentPart() {}
func (*FileBlock) isContentPart() {}

// CodeBlock is a fenced block marked gr-run: a shell command with a
// validation expectation. Fields are fixed once parsed.
type CodeBlock struct {
	Code            string
	Language        string
	Mode            string // exit, contains, regex, exact
	Expected        string
	Timeout         int    // Seconds
	WorkingDir      string // Optional override, absolute or relative to base
	ContinueOnError bool
	OutVar          string // Capture combined output into this variable
	OutFile         string // Write raw stdout to this sandboxed path
	CodeVar         string // Capture the exit code into this variable
	LineNumber      int
}

// FileBlock is a fenced block marked gr-file: content written to disk
type FileBlock struct {
	Code       string
	Path       string
	Mode       string // write, append
	Executable bool
	Template   string // none, shell
	Once       bool   // Skip if the target already exists
	LineNumber int
}

// Parser converts annotated Markdown into Tutorial documents
type Parser struct{}

// NewParser creates a new parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parses a Markdown tutorial from the filesystem
func (p *Parser) ParseFile(path string) (*Tutorial, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(string(content), path), nil
}

// Parse converts raw Markdown into a Tutorial. Parsing never fails: malformed
// attributes degrade to defaults, a missing title becomes "Untitled Tutorial",
// and a document without step headings yields zero steps.
func (p *Parser) Parse(content, source string) *Tutorial {
	tutorial := &Tutorial{Source: source}
	lines := strings.Split(content, "\n")

	var (
		step       *Step
		inFence    bool
		fenceLang  string
		fenceAttrs attributes
		fenceLine  int
		fenceBody  []string
		textBuf    []string
	)

	flushText := func() {
		if step != nil && len(textBuf) > 0 {
			text := strings.Join(textBuf, "\n")
			if strings.TrimSpace(text) != "" {
				step.ContentParts = append(step.ContentParts, TextPart(text))
			}
		}
		textBuf = nil
	}
	closeStep := func() {
		if step != nil {
			flushText()
			tutorial.Steps = append(tutorial.Steps, step)
			step = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		lineNum := i + 1
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if !inFence {
				flushText()
				inFence = true
				fenceBody = nil
				fenceLine = lineNum
				fenceLang, fenceAttrs = parseFenceInfo(strings.TrimSpace(trimmed[3:]))
			} else {
				inFence = false
				if step != nil {
					code := strings.Join(fenceBody, "\n")
					switch {
					case fenceAttrs.hasClass(RunClass):
						cb := newCodeBlock(code, fenceLang, fenceAttrs, fenceLine)
						step.CodeBlocks = append(step.CodeBlocks, cb)
						step.ContentParts = append(step.ContentParts, cb)
					case fenceAttrs.hasClass(FileClass):
						if fb := newFileBlock(code, fenceAttrs, fenceLine); fb != nil {
							step.FileBlocks = append(step.FileBlocks, fb)
							step.ContentParts = append(step.ContentParts, fb)
						}
					}
				}
				fenceAttrs = attributes{}
			}
			continue
		}

		if inFence {
			fenceBody = append(fenceBody, line)
			continue
		}

		if strings.HasPrefix(trimmed, "#") {
			headingText := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			var attrs attributes
			if idx := strings.Index(line, "{"); idx != -1 {
				headingText = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line[:idx]), "#"))
				attrs = parseAttributes(line[idx:])
			} else if i+1 < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i+1]), "{") {
				attrs = parseAttributes(strings.TrimSpace(lines[i+1]))
				i++ // attribute line belongs to the heading, not to prose
			}

			if attrs.hasClass(StepClass) {
				closeStep()
				step = &Step{
					Title:      headingText,
					StepID:     attrs.id,
					LineNumber: lineNum,
				}
			} else if tutorial.Title == "" && strings.HasPrefix(trimmed, "# ") {
				tutorial.Title = headingText
			}
			continue
		}

		if step != nil {
			step.Content += line + "\n"
			textBuf = append(textBuf, line)
		}
	}

	closeStep()

	if tutorial.Title == "" {
		tutorial.Title = "Untitled Tutorial"
	}
	return tutorial
}

// parseFenceInfo splits the text after the opening backticks into a language
// token and an optional attribute block.
func parseFenceInfo(rest string) (string, attributes) {
	if rest == "" {
		return "bash", attributes{}
	}
	lang := rest
	tail := ""
	if idx := strings.IndexAny(rest, " \t"); idx != -1 {
		lang = rest[:idx]
		tail = strings.TrimSpace(rest[idx+1:])
	}
	if strings.Contains(tail, "{") {
		return lang, parseAttributes(tail)
	}
	return lang, attributes{}
}

func newCodeBlock(code, lang string, attrs attributes, line int) *CodeBlock {
	cb := &CodeBlock{
		Code:       strings.TrimSpace(code),
		Language:   lang,
		Mode:       "exit",
		Expected:   "0",
		Timeout:    DefaultTimeout,
		LineNumber: line,
	}
	if v, ok := attrs.data["mode"]; ok {
		cb.Mode = v
	}
	if v, ok := attrs.data["exp"]; ok {
		cb.Expected = v
	} else if v, ok := attrs.data["expected"]; ok {
		cb.Expected = v
	}
	if v, ok := attrs.data["timeout"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cb.Timeout = n
		}
	}
	cb.WorkingDir = attrs.data["workdir"]
	cb.ContinueOnError = isTrue(attrs.data["continue-on-error"])
	cb.OutVar = attrs.data["out-var"]
	cb.OutFile = attrs.data["out-file"]
	cb.CodeVar = attrs.data["code-var"]
	return cb
}

// newFileBlock returns nil when data-path is missing: a file block without a
// destination is inert.
func newFileBlock(code string, attrs attributes, line int) *FileBlock {
	path, ok := attrs.data["path"]
	if !ok || path == "" {
		return nil
	}
	fb := &FileBlock{
		Code:       strings.TrimSpace(code),
		Path:       path,
		Mode:       "write",
		Template:   "none",
		LineNumber: line,
	}
	if attrs.data["mode"] == "append" {
		fb.Mode = "append"
	}
	fb.Executable = isTrue(attrs.data["exec"]) || isTrue(attrs.data["executable"])
	if attrs.data["template"] == "shell" {
		fb.Template = "shell"
	}
	fb.Once = isTrue(attrs.data["once"])
	return fb
}

func isTrue(v string) bool {
	return strings.EqualFold(v, "true")
}
