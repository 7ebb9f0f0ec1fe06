package installer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexsmith/mtkwipe/pkg/config"
	"github.com/hexsmith/mtkwipe/pkg/platform"
	"github.com/hexsmith/mtkwipe/pkg/runner"
	"github.com/hexsmith/mtkwipe/pkg/toolhome"
)

func testConfig() config.Config {
	return config.Config{
		ToolRepo:  "https://example.com/mtkclient.git",
		Python:    "python3",
		Partition: "userdata",
	}
}

func newTestInstaller(t *testing.T, host platform.Host) (*Installer, *runner.Recorder) {
	t.Helper()

	home := toolhome.New(filepath.Join(t.TempDir(), ".mtkwipe"))
	rec := &runner.Recorder{}

	inst, err := New(home, host, testConfig(), rec)
	require.NoError(t, err)

	return inst, rec
}

func collectEvents(events *[]Event) Observer {
	return func(e Event) { *events = append(*events, e) }
}

func TestSteps_OrderLinux(t *testing.T) {
	inst, _ := newTestInstaller(t, platform.Host{OS: "linux", Manager: platform.Apt})

	var names []string
	for _, s := range inst.Steps() {
		names = append(names, s.Name)
	}

	assert.Equal(t, []string{StepPackages, StepUdev, StepClone, StepVenv, StepRequirements}, names)
}

func TestSteps_NoUdevOnDarwin(t *testing.T) {
	inst, _ := newTestInstaller(t, platform.Host{OS: "darwin", Manager: platform.Brew})

	for _, s := range inst.Steps() {
		assert.NotEqual(t, StepUdev, s.Name)
	}
}

func TestRun_ExecutesAllSteps(t *testing.T) {
	inst, rec := newTestInstaller(t, platform.Host{OS: "darwin", Manager: platform.Brew})

	var events []Event
	require.NoError(t, inst.Run(context.Background(), false, collectEvents(&events)))

	// brew install, git clone, venv, pip install.
	cmds := rec.Commands()
	require.Len(t, cmds, 4)
	assert.Equal(t, "brew", cmds[0][0])
	assert.Equal(t, "git", cmds[1][0])
	assert.Contains(t, cmds[2], "venv")
	assert.Contains(t, cmds[3][0], "pip")

	// Every step is recorded as completed.
	for _, name := range []string{StepPackages, StepClone, StepVenv, StepRequirements} {
		assert.True(t, inst.State().Completed(name), name)
	}
}

func TestRun_PackageInstallElevated(t *testing.T) {
	inst, rec := newTestInstaller(t, platform.Host{OS: "linux", Manager: platform.Apt})

	_ = inst.Run(context.Background(), false, nil)

	require.NotEmpty(t, rec.Specs)
	first := rec.Specs[0]
	assert.Equal(t, "apt-get", first.Argv[0])
	assert.True(t, first.Sudo)
}

func TestRun_SkipsCompletedSteps(t *testing.T) {
	inst, rec := newTestInstaller(t, platform.Host{OS: "darwin", Manager: platform.Brew})

	require.NoError(t, inst.State().MarkCompleted(StepPackages, ""))
	require.NoError(t, inst.State().MarkCompleted(StepClone, ""))

	var events []Event
	require.NoError(t, inst.Run(context.Background(), false, collectEvents(&events)))

	for _, cmd := range rec.Commands() {
		assert.NotEqual(t, "brew", cmd[0])
		assert.NotEqual(t, "git", cmd[0])
	}

	var skipped []string
	for _, e := range events {
		if e.Status == StatusSkipped {
			skipped = append(skipped, e.Step.Name)
		}
	}
	assert.ElementsMatch(t, []string{StepPackages, StepClone}, skipped)
}

func TestRun_DetectShortCircuits(t *testing.T) {
	inst, rec := newTestInstaller(t, platform.Host{OS: "darwin", Manager: platform.Brew})

	// Fabricate an existing checkout and venv on disk; no state recorded.
	require.NoError(t, os.MkdirAll(filepath.Join(inst.home.SourceDir(), ".git"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Dir(inst.home.VenvPython()), 0o750))
	require.NoError(t, os.WriteFile(inst.home.VenvPython(), []byte("#!stub"), 0o700)) //nolint:gosec // test stub

	require.NoError(t, inst.Run(context.Background(), false, nil))

	for _, cmd := range rec.Commands() {
		assert.NotEqual(t, "git", cmd[0])
		assert.NotContains(t, cmd, "venv")
	}
}

func TestRun_ForceRerunsEverything(t *testing.T) {
	inst, rec := newTestInstaller(t, platform.Host{OS: "darwin", Manager: platform.Brew})

	require.NoError(t, inst.State().MarkCompleted(StepPackages, ""))

	require.NoError(t, inst.Run(context.Background(), true, nil))

	assert.Equal(t, "brew", rec.Commands()[0][0])
}

func TestRun_ForceUpdatesExistingCheckout(t *testing.T) {
	inst, rec := newTestInstaller(t, platform.Host{OS: "darwin", Manager: platform.Brew})

	require.NoError(t, os.MkdirAll(filepath.Join(inst.home.SourceDir(), ".git"), 0o750))

	require.NoError(t, inst.Run(context.Background(), true, nil))

	var gitCmd []string
	for _, cmd := range rec.Commands() {
		if cmd[0] == "git" {
			gitCmd = cmd
			break
		}
	}
	require.NotEmpty(t, gitCmd)
	assert.Contains(t, gitCmd, "pull")
	assert.NotContains(t, gitCmd, "clone")
}

func TestRun_CloneRef(t *testing.T) {
	home := toolhome.New(filepath.Join(t.TempDir(), ".mtkwipe"))
	rec := &runner.Recorder{}

	cfg := testConfig()
	cfg.ToolRef = "v2.0.1"

	inst, err := New(home, platform.Host{OS: "darwin", Manager: platform.Brew}, cfg, rec)
	require.NoError(t, err)

	require.NoError(t, inst.Run(context.Background(), false, nil))

	var gitCmd []string
	for _, cmd := range rec.Commands() {
		if cmd[0] == "git" {
			gitCmd = cmd
			break
		}
	}
	require.NotEmpty(t, gitCmd)
	assert.Contains(t, gitCmd, "--branch")
	assert.Contains(t, gitCmd, "v2.0.1")
}

func TestPlan_TouchesNothingOnDisk(t *testing.T) {
	home := toolhome.New(filepath.Join(t.TempDir(), ".mtkwipe"))
	rec := &runner.Recorder{}

	inst, err := New(home, platform.Host{OS: "linux", Manager: platform.Apt}, testConfig(), rec)
	require.NoError(t, err)

	require.NoError(t, inst.Plan(context.Background()))

	// The plan includes the udev step, yet nothing was written: not the
	// rules, not the state file, not even the install root.
	require.NotEmpty(t, rec.Commands())
	_, statErr := os.Stat(home.Root())
	assert.True(t, os.IsNotExist(statErr), "plan must not create the install root")
}

func TestRun_UdevRulesViaElevatedTee(t *testing.T) {
	inst, rec := newTestInstaller(t, platform.Host{OS: "linux", Manager: platform.Apt})

	require.NoError(t, inst.Run(context.Background(), false, nil))

	var teeSpec *runner.Spec
	for i := range rec.Specs {
		if rec.Specs[i].Argv[0] == "tee" {
			teeSpec = &rec.Specs[i]
			break
		}
	}
	require.NotNil(t, teeSpec)
	assert.Equal(t, []string{"tee", toolhome.UdevRulesPath}, teeSpec.Argv)
	assert.Equal(t, UdevRules, teeSpec.Stdin)
	assert.True(t, teeSpec.Sudo)

	var reloaded bool
	for _, cmd := range rec.Commands() {
		if cmd[0] == "udevadm" {
			reloaded = true
		}
	}
	assert.True(t, reloaded, "udev rules must be reloaded after install")
}

func TestPlan_RecordsWithoutPersisting(t *testing.T) {
	inst, rec := newTestInstaller(t, platform.Host{OS: "darwin", Manager: platform.Brew})

	require.NoError(t, inst.State().MarkCompleted(StepPackages, ""))

	require.NoError(t, inst.Plan(context.Background()))

	// Every step contributes to the plan, completed or not.
	assert.Equal(t, "brew", rec.Commands()[0][0])

	// Nothing beyond the pre-existing completion got recorded.
	assert.True(t, inst.State().Completed(StepPackages))
	for _, name := range []string{StepClone, StepVenv, StepRequirements} {
		assert.False(t, inst.State().Completed(name), name)
	}
}

func TestRun_FailureStopsAndNamesStep(t *testing.T) {
	inst, rec := newTestInstaller(t, platform.Host{OS: "darwin", Manager: platform.Brew})
	rec.Responses = map[string]runner.CannedResult{
		"git": {Stderr: "fatal: could not resolve host", ExitCode: 128},
	}

	var events []Event
	err := inst.Run(context.Background(), false, collectEvents(&events))
	require.Error(t, err)

	var serr *StepError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StepClone, serr.Step)
	assert.Contains(t, serr.Output, "could not resolve host")

	// Packages completed before the failure and stays recorded.
	assert.True(t, inst.State().Completed(StepPackages))
	assert.False(t, inst.State().Completed(StepClone))

	// No step after the failure ran.
	last := events[len(events)-1]
	assert.Equal(t, StatusFailed, last.Status)
	assert.Equal(t, StepClone, last.Step.Name)
}

func TestStateStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s1, err := OpenState(path)
	require.NoError(t, err)
	require.NoError(t, s1.MarkCompleted(StepVenv, "/opt/venv"))

	s2, err := OpenState(path)
	require.NoError(t, err)

	assert.True(t, s2.Completed(StepVenv))

	c, ok := s2.Completion(StepVenv)
	require.True(t, ok)
	assert.Equal(t, "/opt/venv", c.Detail)
	assert.False(t, c.At.IsZero())
}

func TestStateStore_Reset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := OpenState(path)
	require.NoError(t, err)
	require.NoError(t, s.MarkCompleted(StepVenv, ""))
	require.NoError(t, s.Reset())

	assert.False(t, s.Completed(StepVenv))

	reopened, err := OpenState(path)
	require.NoError(t, err)
	assert.False(t, reopened.Completed(StepVenv))
}

func TestStateStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := OpenState(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse state")
}
