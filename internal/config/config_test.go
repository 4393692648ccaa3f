package config

import (
	"os"
	"strings"
	"testing"
)

func TestVerbosityFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected VerbosityLevel
	}{
		{"quiet", VerbosityQuiet},
		{"normal", VerbosityNormal},
		{"verbose", VerbosityVerbose},
		{"debug", VerbosityDebug},
		{"chatty", VerbosityNormal},
		{"", VerbosityNormal},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := VerbosityFromString(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestVerbosityAtLeast(t *testing.T) {
	if !VerbosityDebug.AtLeast(VerbosityVerbose) {
		t.Error("debug should be at least verbose")
	}
	if !VerbosityNormal.AtLeast(VerbosityNormal) {
		t.Error("a level should be at least itself")
	}
	if VerbosityQuiet.AtLeast(VerbosityNormal) {
		t.Error("quiet should not be at least normal")
	}
}

func TestGetShellFallback(t *testing.T) {
	shell := GetShell()
	if shell == "" {
		t.Fatal("GetShell must never return an empty string")
	}
	if want := os.Getenv("SHELL"); want != "" && shell != want {
		t.Errorf("expected $SHELL %q, got %q", want, shell)
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare tilde", "~", home},
		{"tilde with path", "~/projects", home + "/projects"},
		{"no tilde", "/tmp/x", "/tmp/x"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandTilde(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSetVerbosityPresets(t *testing.T) {
	SetVerbosity(VerbosityVerbose)
	if !GetShowPreviews() || !GetShowTimestamps() || !GetShowSubstituted() {
		t.Error("verbose should enable previews, timestamps and substituted commands")
	}

	SetVerbosity(VerbosityQuiet)
	if GetShowStepBanners() || GetShowPreviews() {
		t.Error("quiet should disable banners and previews")
	}

	SetVerbosity(VerbosityNormal)
	if !GetShowStepBanners() {
		t.Error("normal should show step banners")
	}
	if GetVerbosity() != VerbosityNormal {
		t.Errorf("expected normal, got %q", GetVerbosity())
	}
}

func TestSetOutputFormat(t *testing.T) {
	SetOutputFormat("jsonl")
	if got := GetOutputFormat(); got != "jsonl" {
		t.Errorf("expected jsonl, got %q", got)
	}
	SetOutputFormat("text")
	if !strings.EqualFold(GetOutputFormat(), "text") {
		t.Errorf("expected text, got %q", GetOutputFormat())
	}
}
