package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hexsmith/mtkwipe/pkg/doctor"
	"github.com/hexsmith/mtkwipe/pkg/installer"
)

func TestRenderChecks_Alignment(t *testing.T) {
	out := renderChecks([]doctor.Check{
		{Name: "git on PATH", Status: doctor.Pass},
		{Name: "virtualenv", Status: doctor.Fail, Detail: "no interpreter"},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "PASS")
	assert.Contains(t, lines[1], "FAIL")
	assert.Contains(t, lines[1], "no interpreter")
}

func TestRenderChecks_MultilineDetailIndented(t *testing.T) {
	out := renderChecks([]doctor.Check{
		{Name: "udev rules", Status: doctor.Warn, Detail: "drifted:\n-a\n+b"},
	})

	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "\n        ")
	assert.Contains(t, out, "+b")
}

func TestSetupModel_TracksStepStatus(t *testing.T) {
	steps := []installer.Step{
		{Name: "one", Title: "Step one"},
		{Name: "two", Title: "Step two"},
	}

	m := newSetupModel(steps)

	next, _ := m.Update(stepEventMsg(installer.Event{
		Step:   steps[0],
		Status: installer.StatusStarted,
	}))
	m = next.(setupModel)

	next, _ = m.Update(outputLineMsg("cloning..."))
	m = next.(setupModel)

	view := m.View()
	assert.Contains(t, view, "Step one")
	assert.Contains(t, view, "cloning...")

	next, _ = m.Update(stepEventMsg(installer.Event{
		Step:   steps[0],
		Status: installer.StatusDone,
	}))
	m = next.(setupModel)

	next, _ = m.Update(setupDoneMsg{})
	m = next.(setupModel)

	assert.True(t, m.done)
	assert.Contains(t, m.View(), "Setup complete.")
}

func TestSetupModel_TailBounded(t *testing.T) {
	steps := []installer.Step{{Name: "one", Title: "Step one"}}
	m := newSetupModel(steps)

	next, _ := m.Update(stepEventMsg(installer.Event{Step: steps[0], Status: installer.StatusStarted}))
	m = next.(setupModel)

	for i := 0; i < tailLines*3; i++ {
		next, _ = m.Update(outputLineMsg("line"))
		m = next.(setupModel)
	}

	assert.Len(t, m.tail, tailLines)
}
