// Package doctor verifies a mtkwipe installation: required binaries,
// install-root layout, virtualenv, setup state, and udev rule drift. It
// produces a list of check results; rendering is the CLI's job.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/hexsmith/mtkwipe/pkg/config"
	"github.com/hexsmith/mtkwipe/pkg/installer"
	"github.com/hexsmith/mtkwipe/pkg/toolhome"
)

// Status classifies a check result.
type Status string

const (
	Pass Status = "PASS"
	Warn Status = "WARN"
	Fail Status = "FAIL"
)

// Check is one verification result.
type Check struct {
	Name   string
	Status Status
	Detail string
}

// Doctor runs environment checks for one install root.
type Doctor struct {
	home toolhome.Dir
	cfg  config.Config

	// Injectable for tests.
	goos     string
	udevPath string
	onPath   func(string) bool
}

// New creates a Doctor for the given install root and config.
func New(home toolhome.Dir, cfg config.Config) *Doctor {
	return &Doctor{
		home:     home,
		cfg:      cfg,
		goos:     runtime.GOOS,
		udevPath: toolhome.UdevRulesPath,
		onPath: func(name string) bool {
			_, err := exec.LookPath(name)
			return err == nil
		},
	}
}

// Run executes every check and returns the results in a stable order.
func (d *Doctor) Run() []Check {
	checks := []Check{
		d.checkBinary("git"),
		d.checkBinary(d.cfg.Python),
		d.checkRoot(),
		d.checkCheckout(),
		d.checkVenv(),
		d.checkState(),
	}

	if d.goos == "linux" {
		checks = append(checks, d.checkUdev())
	}

	return checks
}

// Failed reports whether any check in the list failed.
func Failed(checks []Check) bool {
	for _, c := range checks {
		if c.Status == Fail {
			return true
		}
	}

	return false
}

func (d *Doctor) checkBinary(name string) Check {
	c := Check{Name: name + " on PATH"}

	if name == "" {
		c.Status = Fail
		c.Detail = "no interpreter configured"
		return c
	}

	if d.onPath(name) {
		c.Status = Pass
		return c
	}

	c.Status = Fail
	c.Detail = fmt.Sprintf("%s not found: run `mtkwipe setup`", name)

	return c
}

func (d *Doctor) checkRoot() Check {
	c := Check{Name: "install root"}

	if d.home.Exists() {
		c.Status = Pass
		c.Detail = d.home.Root()
		return c
	}

	c.Status = Fail
	c.Detail = d.home.Root() + " does not exist: run `mtkwipe setup`"

	return c
}

func (d *Doctor) checkCheckout() Check {
	c := Check{Name: "tool checkout"}

	if _, err := os.Stat(filepath.Join(d.home.SourceDir(), ".git")); err != nil {
		c.Status = Fail
		c.Detail = "no checkout at " + d.home.SourceDir()
		return c
	}

	if _, err := os.Stat(d.home.ToolEntrypoint()); err != nil {
		c.Status = Fail
		c.Detail = "checkout present but entrypoint missing: " + d.home.ToolEntrypoint()
		return c
	}

	c.Status = Pass
	c.Detail = d.home.SourceDir()

	return c
}

func (d *Doctor) checkVenv() Check {
	c := Check{Name: "virtualenv"}

	if _, err := os.Stat(d.home.VenvPython()); err != nil {
		c.Status = Fail
		c.Detail = "no interpreter at " + d.home.VenvPython()
		return c
	}

	c.Status = Pass
	c.Detail = d.home.VenvDir()

	return c
}

func (d *Doctor) checkState() Check {
	c := Check{Name: "setup state"}

	if _, err := os.Stat(d.home.StatePath()); err != nil {
		c.Status = Warn
		c.Detail = "no state file: setup has not completed on this machine"
		return c
	}

	store, err := installer.OpenState(d.home.StatePath())
	if err != nil {
		c.Status = Fail
		c.Detail = err.Error()
		return c
	}

	missing := 0
	for _, name := range []string{installer.StepClone, installer.StepVenv, installer.StepRequirements} {
		if !store.Completed(name) {
			missing++
		}
	}

	if missing > 0 {
		c.Status = Warn
		c.Detail = fmt.Sprintf("%d setup step(s) not recorded as complete", missing)
		return c
	}

	c.Status = Pass

	return c
}

// checkUdev compares the installed rules file against the expected
// content and reports a unified diff on drift.
func (d *Doctor) checkUdev() Check {
	c := Check{Name: "udev rules"}

	data, err := os.ReadFile(d.udevPath) //nolint:gosec // fixed system path or test fixture
	if err != nil {
		c.Status = Fail
		c.Detail = d.udevPath + " missing: device access will need root"
		return c
	}

	if string(data) == installer.UdevRules {
		c.Status = Pass
		c.Detail = d.udevPath
		return c
	}

	diff, derr := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(data)),
		B:        difflib.SplitLines(installer.UdevRules),
		FromFile: "installed",
		ToFile:   "expected",
		Context:  2,
	})
	if derr != nil {
		diff = "(diff unavailable)"
	}

	c.Status = Warn
	c.Detail = "rules drifted from expected content:\n" + diff

	return c
}
