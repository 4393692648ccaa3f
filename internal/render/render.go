// Package render turns tutorial YAML documents into annotated Markdown and
// CI workflow files.
package render

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// TutorialDoc is the YAML authoring format for tutorials
type TutorialDoc struct {
	Title       string    `yaml:"title"`
	Description string    `yaml:"description,omitempty"`
	Steps       []StepDoc `yaml:"steps"`
}

// StepDoc is one step in the YAML authoring format
type StepDoc struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Command     string `yaml:"command,omitempty"`
	Expected    string `yaml:"expected,omitempty"`
}

// defaultMarkdownTemplate renders a tutorial YAML into Markdown carrying the
// gr-step/gr-run annotations, so the output is directly executable.
const defaultMarkdownTemplate = `# {{ .Title }}
{{ if .Description }}
{{ .Description }}
{{ end }}{{ range $i, $step := .Steps }}
## Step {{ inc $i }}: {{ $step.Name }} {.gr-step}
{{ if $step.Description }}
{{ $step.Description }}
{{ end }}{{ if $step.Command }}
` + "```" + `bash {.gr-run{{ if $step.Expected }} data-mode=contains data-exp="{{ $step.Expected }}"{{ end }}}
{{ $step.Command }}
` + "```" + `
{{ end }}{{ end }}`

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// LoadTutorial reads and decodes a tutorial YAML file
func LoadTutorial(path string) (*TutorialDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tutorial: %w", err)
	}
	var doc TutorialDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tutorial YAML: %w", err)
	}
	if doc.Title == "" {
		doc.Title = "Untitled Tutorial"
	}
	return &doc, nil
}

// Markdown renders a tutorial document to annotated Markdown. An empty
// templatePath uses the built-in template.
func Markdown(doc *TutorialDoc, templatePath string) (string, error) {
	text := defaultMarkdownTemplate
	if templatePath != "" {
		data, err := readTemplateFile(templatePath)
		if err != nil {
			return "", err
		}
		text = data
	}

	tmpl, err := template.New("tutorial").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("render tutorial: %w", err)
	}
	return buf.String(), nil
}

func readTemplateFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load template: %w", err)
	}
	return string(data), nil
}
