package ui

import "github.com/charmbracelet/lipgloss"

// StyleManager holds the guided-mode styles
type StyleManager struct {
	Title      lipgloss.Style
	StepBanner lipgloss.Style
	Command    lipgloss.Style
	File       lipgloss.Style
	Pass       lipgloss.Style
	Fail       lipgloss.Style
	Dim        lipgloss.Style
	Divider    lipgloss.Style
	Spinner    lipgloss.Style
}

// DefaultStyles returns a StyleManager with default styles
func DefaultStyles() *StyleManager {
	return &StyleManager{
		Title:      lipgloss.NewStyle().Bold(true),
		StepBanner: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		Command:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		File:       lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		Pass:       lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Fail:       lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Dim:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Divider:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Spinner:    lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
	}
}

// Global style manager instance
var styles = DefaultStyles()
