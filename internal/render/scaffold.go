package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// sampleTutorial is the document written by `guiderun init`
var sampleTutorial = TutorialDoc{
	Title:       "Getting Started with guiderun",
	Description: "A sample tutorial demonstrating the basics of guiderun.",
	Steps: []StepDoc{
		{
			Name:        "Check Go version",
			Description: "Verify that a Go toolchain is installed.",
			Command:     "go version",
			Expected:    "go version",
		},
		{
			Name:        "Create a hello world program",
			Description: "Create a small program that prints a greeting.",
			Command:     `printf 'package main\n\nimport "fmt"\n\nfunc main() { fmt.Println("Hello, guiderun!") }\n' > hello.go`,
		},
		{
			Name:        "Run the program",
			Description: "Execute the hello world program.",
			Command:     "go run hello.go",
			Expected:    "Hello, guiderun!",
		},
		{
			Name:        "Clean up",
			Description: "Remove the temporary program.",
			Command:     "rm hello.go",
		},
	},
}

// Scaffold writes a sample tutorial YAML named after name into outputDir and
// returns the created path. An existing file is not overwritten unless force
// is set.
func Scaffold(name, outputDir string, force bool) (string, error) {
	if outputDir == "" {
		outputDir = "tutorials"
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	filename := name
	if !strings.HasSuffix(filename, ".yaml") && !strings.HasSuffix(filename, ".yml") {
		filename += ".yaml"
	}
	path := filepath.Join(outputDir, filename)

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	doc := sampleTutorial
	if name != "getting-started" {
		doc.Title = titleize(name)
		doc.Description = fmt.Sprintf("A sample tutorial for %s.", doc.Title)
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("encode tutorial: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write tutorial: %w", err)
	}
	return path, nil
}

// titleize converts a file-ish name like "my-first_tutorial" to "My First Tutorial"
func titleize(name string) string {
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
