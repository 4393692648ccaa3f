// Package ui implements the guided interactive mode: a terminal walker that
// steps through a parsed tutorial, running blocks one at a time. It is
// presentation only; execution and validation stay in internal/executor.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/guiderun/guiderun/internal/executor"
	"github.com/guiderun/guiderun/internal/parser"
)

// blockOutcome is one finished block shown in the step pane
type blockOutcome struct {
	kind    string // run or file
	detail  string // command text or file path
	passed  bool
	message string
	output  string
}

// stepDoneMsg carries the outcomes of one executed step
type stepDoneMsg struct {
	stepIdx  int
	outcomes []blockOutcome
}

type phase int

const (
	phaseIdle phase = iota
	phaseRunning
	phaseDone
)

type guidedModel struct {
	tutorial *parser.Tutorial
	exec     *executor.Executor

	stepIdx  int
	phase    phase
	outcomes map[int][]blockOutcome // per step index

	spin     spinner.Model
	view     viewport.Model
	width    int
	height   int
	ready    bool
	renderer *glamour.TermRenderer
}

// RunGuided starts the interactive walker for a parsed tutorial
func RunGuided(tutorial *parser.Tutorial, exec *executor.Executor) error {
	if len(tutorial.Steps) == 0 {
		return fmt.Errorf("tutorial %q has no steps", tutorial.Title)
	}
	m := newGuidedModel(tutorial, exec)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func newGuidedModel(tutorial *parser.Tutorial, exec *executor.Executor) guidedModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner
	return guidedModel{
		tutorial: tutorial,
		exec:     exec,
		outcomes: make(map[int][]blockOutcome),
		spin:     sp,
	}
}

func (m guidedModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m guidedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentHeight := m.height - 8
		if contentHeight < 3 {
			contentHeight = 3
		}
		if !m.ready {
			m.view = viewport.New(m.width, contentHeight)
			m.ready = true
		} else {
			m.view.Width = m.width
			m.view.Height = contentHeight
		}
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(m.width-4),
		)
		m.refreshContent()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case stepDoneMsg:
		m.outcomes[msg.stepIdx] = msg.outcomes
		if m.phase == phaseRunning {
			m.phase = phaseDone
		}
		m.refreshContent()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m guidedModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.phase == phaseRunning {
		// Only quitting is allowed while a step runs
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "enter", " ":
		m.phase = phaseRunning
		return m, tea.Batch(m.spin.Tick, m.runStepCmd(m.stepIdx))
	case "right", "l", "n":
		if m.stepIdx < len(m.tutorial.Steps)-1 {
			m.stepIdx++
			m.phase = phaseIdle
			m.refreshContent()
		}
	case "left", "h", "p":
		if m.stepIdx > 0 {
			m.stepIdx--
			m.phase = phaseIdle
			m.refreshContent()
		}
	default:
		// Viewport handles its own scrolling keys
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}
	return m, nil
}

// runStepCmd executes every block of a step, in document order, off the UI
// goroutine. Blocks still run strictly one after another.
func (m guidedModel) runStepCmd(stepIdx int) tea.Cmd {
	step := m.tutorial.Steps[stepIdx]
	exec := m.exec
	return func() tea.Msg {
		var outcomes []blockOutcome
		for _, part := range step.ContentParts {
			switch block := part.(type) {
			case *parser.FileBlock:
				message, err := exec.WriteFile(block)
				oc := blockOutcome{kind: "file", detail: block.Path, passed: err == nil, message: message}
				if err != nil {
					oc.message = err.Error()
				}
				outcomes = append(outcomes, oc)
				if err != nil {
					return stepDoneMsg{stepIdx: stepIdx, outcomes: outcomes}
				}
			case *parser.CodeBlock:
				result, passed, message := exec.ExecuteAndValidate(context.Background(), block)
				outcomes = append(outcomes, blockOutcome{
					kind:    "run",
					detail:  block.Code,
					passed:  passed,
					message: message,
					output:  strings.TrimSpace(result.Stdout + result.Stderr),
				})
				if !passed && !block.ContinueOnError {
					return stepDoneMsg{stepIdx: stepIdx, outcomes: outcomes}
				}
			}
		}
		return stepDoneMsg{stepIdx: stepIdx, outcomes: outcomes}
	}
}

// refreshContent rebuilds the viewport body for the current step
func (m *guidedModel) refreshContent() {
	if !m.ready {
		return
	}
	step := m.tutorial.Steps[m.stepIdx]

	var b strings.Builder
	b.WriteString(m.renderProse(step.Content))

	for _, part := range step.ContentParts {
		switch block := part.(type) {
		case *parser.CodeBlock:
			b.WriteString("\n" + styles.Command.Render("$ "+block.Code) + "\n")
		case *parser.FileBlock:
			b.WriteString("\n" + styles.File.Render("→ "+block.Path+" ("+block.Mode+")") + "\n")
		}
	}

	if outcomes, ok := m.outcomes[m.stepIdx]; ok {
		b.WriteString("\n" + styles.Divider.Render(strings.Repeat("─", max(1, m.width-4))) + "\n")
		for _, oc := range outcomes {
			mark := styles.Pass.Render("✓")
			if !oc.passed {
				mark = styles.Fail.Render("✗")
			}
			b.WriteString(fmt.Sprintf("%s %s\n", mark, oc.message))
			if oc.output != "" && !oc.passed {
				b.WriteString(styles.Dim.Render(oc.output) + "\n")
			}
		}
	}

	m.view.SetContent(b.String())
	m.view.GotoTop()
}

func (m guidedModel) renderProse(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if m.renderer != nil {
		if out, err := m.renderer.Render(content); err == nil {
			return out
		}
	}
	return content
}

func (m guidedModel) View() string {
	if !m.ready {
		return "loading..."
	}
	step := m.tutorial.Steps[m.stepIdx]

	header := styles.Title.Render(m.tutorial.Title) + "\n" +
		styles.StepBanner.Render(fmt.Sprintf("Step %d/%d: %s", m.stepIdx+1, len(m.tutorial.Steps), step.Title))

	var status string
	switch m.phase {
	case phaseRunning:
		status = m.spin.View() + " running..."
	case phaseDone:
		status = m.stepStatus()
	default:
		status = styles.Dim.Render("enter: run step")
	}

	help := styles.Dim.Render("←/→ steps · ↑/↓ scroll · enter run · q quit")

	return header + "\n\n" + m.view.View() + "\n" + status + "\n" + help
}

func (m guidedModel) stepStatus() string {
	outcomes := m.outcomes[m.stepIdx]
	failed := 0
	for _, oc := range outcomes {
		if !oc.passed {
			failed++
		}
	}
	if failed == 0 {
		return styles.Pass.Render(fmt.Sprintf("step passed (%d blocks)", len(outcomes)))
	}
	return styles.Fail.Render(fmt.Sprintf("step failed (%d of %d blocks)", failed, len(outcomes)))
}
