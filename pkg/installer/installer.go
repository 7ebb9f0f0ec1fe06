// Package installer sequences the setup steps that bootstrap the external
// flashing tool: OS packages, udev rules, the git checkout, the Python
// virtualenv, and the tool's requirements. Steps are idempotent: each one
// can detect that it is already satisfied, and completions are persisted
// to a state file so interrupted runs resume where they stopped.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hexsmith/mtkwipe/pkg/config"
	"github.com/hexsmith/mtkwipe/pkg/platform"
	"github.com/hexsmith/mtkwipe/pkg/runner"
	"github.com/hexsmith/mtkwipe/pkg/toolhome"
)

// Step is one unit of setup work.
type Step struct {
	Name  string // Stable identifier used in the state file.
	Title string // Human description shown in progress output.

	// Detect reports whether the step is already satisfied on disk,
	// independent of the state file. May be nil.
	Detect func() bool

	// Run performs the step. The returned detail is recorded in the
	// state file (e.g. the resolved ref or package list).
	Run func(ctx context.Context) (detail string, err error)
}

// Status describes a step transition reported to the observer.
type Status string

const (
	StatusStarted Status = "started"
	StatusSkipped Status = "skipped"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Event is a step progress notification.
type Event struct {
	Step   Step
	Status Status
	Detail string
	Err    error
}

// Observer receives step progress events. May be nil.
type Observer func(Event)

// StepError names the step that failed and carries the captured output of
// the failing command when available.
type StepError struct {
	Step   string
	Output string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("installer: step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Installer owns the setup sequence for one install root.
type Installer struct {
	home  toolhome.Dir
	host  platform.Host
	cfg   config.Config
	run   runner.Runner
	state *Store
}

// New creates an Installer. The state store is opened from the install
// root's state file. New performs no writes: creating the install root is
// the run's job, so building a dry-run plan leaves the disk untouched.
func New(home toolhome.Dir, host platform.Host, cfg config.Config, run runner.Runner) (*Installer, error) {
	state, err := OpenState(home.StatePath())
	if err != nil {
		return nil, err
	}

	return &Installer{home: home, host: host, cfg: cfg, run: run, state: state}, nil
}

// State exposes the step completion store (doctor reads it).
func (i *Installer) State() *Store { return i.state }

// Steps returns the ordered setup sequence for this host.
func (i *Installer) Steps() []Step {
	steps := []Step{i.packagesStep()}

	if i.host.OS == "linux" {
		steps = append(steps, i.udevStep())
	}

	return append(steps,
		i.cloneStep(),
		i.venvStep(),
		i.requirementsStep(),
	)
}

// Run executes the setup sequence. Steps whose completion is recorded or
// whose Detect reports satisfied are skipped unless force is set. The
// first failure stops the run; completed steps stay recorded so the next
// run resumes after them.
func (i *Installer) Run(ctx context.Context, force bool, observe Observer) error {
	return i.runSteps(ctx, force, true, observe)
}

// Plan executes every step against the installer's runner without
// recording completions. Paired with a runner.Recorder it yields the
// dry-run command plan.
func (i *Installer) Plan(ctx context.Context) error {
	return i.runSteps(ctx, true, false, nil)
}

func (i *Installer) runSteps(ctx context.Context, force, persist bool, observe Observer) error {
	if observe == nil {
		observe = func(Event) {}
	}

	for _, step := range i.Steps() {
		if !force && i.satisfied(step) {
			observe(Event{Step: step, Status: StatusSkipped})
			continue
		}

		observe(Event{Step: step, Status: StatusStarted})

		detail, err := step.Run(ctx)
		if err != nil {
			observe(Event{Step: step, Status: StatusFailed, Err: err})

			serr := &StepError{Step: step.Name, Err: err}
			if res, ok := resultFromErr(err); ok {
				serr.Output = res.Output()
			}

			return serr
		}

		if persist {
			if err := i.state.MarkCompleted(step.Name, detail); err != nil {
				return err
			}
		}

		observe(Event{Step: step, Status: StatusDone, Detail: detail})
	}

	return nil
}

func (i *Installer) satisfied(step Step) bool {
	if i.state.Completed(step.Name) {
		return true
	}

	return step.Detect != nil && step.Detect()
}

// resultFromErr digs a runner result out of a step error when the step
// surfaced one via resultError.
func resultFromErr(err error) (runner.Result, bool) {
	var rerr *resultError
	if errors.As(err, &rerr) {
		return rerr.res, true
	}

	return runner.Result{}, false
}

// resultError pairs a command failure with its captured output.
type resultError struct {
	res runner.Result
	err error
}

func (e *resultError) Error() string { return e.err.Error() }
func (e *resultError) Unwrap() error { return e.err }

// exec runs one command through the runner, wrapping failures so the
// captured output travels with the error.
func (i *Installer) exec(ctx context.Context, spec runner.Spec) (runner.Result, error) {
	res, err := i.run.Run(ctx, spec)
	if err != nil {
		return res, &resultError{res: res, err: err}
	}

	return res, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
