package render

import (
	"fmt"
	"strings"
	"text/template"
)

// defaultWorkflowTemplate is the built-in GitHub Actions workflow that
// re-validates a tutorial on every push.
const defaultWorkflowTemplate = `name: {{ .WorkflowName }}

on:
  push:
    branches: [ main ]
  pull_request:
    branches: [ main ]
  workflow_dispatch:

jobs:
  validate-tutorial:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4

      - name: Set up Go
        uses: actions/setup-go@v5
        with:
          go-version: stable

      - name: Install guiderun
        run: go install github.com/guiderun/guiderun/cmd/guiderun@latest

      - name: Execute tutorial
        run: guiderun exec {{ .TutorialFile }} --ci
`

// workflowData feeds the workflow template
type workflowData struct {
	WorkflowName string
	TutorialName string
	TutorialFile string
}

// Workflow renders a GitHub Actions workflow for a tutorial file. An empty
// templatePath uses the built-in template.
func Workflow(doc *TutorialDoc, tutorialFile, templatePath string) (string, error) {
	text := defaultWorkflowTemplate
	if templatePath != "" {
		data, err := readTemplateFile(templatePath)
		if err != nil {
			return "", err
		}
		text = data
	}

	tmpl, err := template.New("workflow").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf strings.Builder
	err = tmpl.Execute(&buf, workflowData{
		WorkflowName: "Validate " + doc.Title,
		TutorialName: doc.Title,
		TutorialFile: tutorialFile,
	})
	if err != nil {
		return "", fmt.Errorf("render workflow: %w", err)
	}
	return buf.String(), nil
}
