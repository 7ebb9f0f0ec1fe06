package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hexsmith/mtkwipe/cmd/mtkwipe/internal/styles"
	"github.com/hexsmith/mtkwipe/pkg/installer"
)

// tailLines is how many lines of live command output show under the
// running step.
const tailLines = 6

// Messages posted into the program by the setup goroutine.
type (
	stepEventMsg  installer.Event
	outputLineMsg string
	setupDoneMsg  struct{ err error }
)

// setupModel renders setup progress: one line per step with a status
// glyph, a spinner on the running step, and a tail of the current
// command's output.
type setupModel struct {
	steps   []installer.Step
	status  map[string]installer.Status
	current string
	tail    []string
	spin    spinner.Model
	done    bool
	err     error
}

func newSetupModel(steps []installer.Step) setupModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	return setupModel{
		steps:  steps,
		status: make(map[string]installer.Status, len(steps)),
		spin:   s,
	}
}

func (m setupModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = fmt.Errorf("interrupted")
			return m, tea.Quit
		}

	case stepEventMsg:
		ev := installer.Event(msg)
		m.status[ev.Step.Name] = ev.Status

		switch ev.Status {
		case installer.StatusStarted:
			m.current = ev.Step.Name
			m.tail = nil
		case installer.StatusDone, installer.StatusFailed, installer.StatusSkipped:
			if m.current == ev.Step.Name {
				m.current = ""
				m.tail = nil
			}
		}

	case outputLineMsg:
		m.tail = append(m.tail, string(msg))
		if len(m.tail) > tailLines {
			m.tail = m.tail[len(m.tail)-tailLines:]
		}

	case setupDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m setupModel) View() string {
	var sb strings.Builder

	sb.WriteString(styles.TitleStyle.Render("mtkwipe setup"))
	sb.WriteString("\n\n")

	for _, step := range m.steps {
		sb.WriteString("  ")
		sb.WriteString(m.stepLine(step))
		sb.WriteString("\n")

		if step.Name == m.current {
			for _, line := range m.tail {
				sb.WriteString(styles.TailStyle.Render(line))
				sb.WriteString("\n")
			}
		}
	}

	if m.done && m.err == nil {
		sb.WriteString("\n")
		sb.WriteString(styles.SuccessStyle.Render("Setup complete."))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m setupModel) stepLine(step installer.Step) string {
	switch m.status[step.Name] {
	case installer.StatusDone:
		return styles.SuccessStyle.Render(styles.GlyphDone) + " " + step.Title
	case installer.StatusFailed:
		return styles.ErrorStyle.Render(styles.GlyphFailed) + " " + step.Title
	case installer.StatusSkipped:
		return styles.DimStyle.Render(styles.GlyphSkipped + " " + step.Title + " (already done)")
	case installer.StatusStarted:
		return m.spin.View() + " " + step.Title
	default:
		return styles.DimStyle.Render(styles.GlyphPending) + " " + step.Title
	}
}

// plainObserver prints step events line by line, for non-interactive
// output (CI, piped logs).
func plainObserver(e installer.Event) {
	switch e.Status {
	case installer.StatusStarted:
		fmt.Printf("--> %s\n", e.Step.Title)
	case installer.StatusSkipped:
		fmt.Printf("    %s (already done)\n", e.Step.Title)
	case installer.StatusDone:
		fmt.Printf("    done\n")
	case installer.StatusFailed:
		fmt.Printf("    FAILED: %v\n", e.Err)
	}
}
