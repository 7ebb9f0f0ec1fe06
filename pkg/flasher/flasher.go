// Package flasher constructs and runs the external MTK tool's erase
// command. It owns no device protocol: the tool's CLI is the contract,
// and this package only builds the argv, guards the target partition, and
// interprets the exit status.
package flasher

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hexsmith/mtkwipe/pkg/runner"
	"github.com/hexsmith/mtkwipe/pkg/toolhome"
)

// ProtectedError is returned when the target partition is on the refusal
// list.
type ProtectedError struct {
	Partition string
}

func (e *ProtectedError) Error() string {
	return fmt.Sprintf("flasher: partition %q is bootloader-critical and will not be erased", e.Partition)
}

// NotInstalledError is returned when the tool environment is missing.
type NotInstalledError struct {
	Missing string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("flasher: %s not found: run `mtkwipe setup` first", e.Missing)
}

// Flasher invokes the installed flashing tool.
type Flasher struct {
	home    toolhome.Dir
	run     runner.Runner
	timeout time.Duration

	// stat is injectable for tests; defaults to os.Stat-based probing.
	stat func(path string) bool
}

// New creates a Flasher for the given install root. The timeout bounds a
// single tool invocation; it should be generous, since the tool blocks
// until the device is connected in download mode.
func New(home toolhome.Dir, run runner.Runner, timeout time.Duration) *Flasher {
	return &Flasher{home: home, run: run, timeout: timeout, stat: pathExists}
}

// EraseArgv returns the argv that erases the given partition: the
// virtualenv's python running the tool's CLI script with its erase
// subcommand.
func (f *Flasher) EraseArgv(partition string) []string {
	return []string{f.home.VenvPython(), f.home.ToolEntrypoint(), "e", partition}
}

// Erase runs the tool's erase command against partition. The Result is
// populated even on failure so callers can show the tool's own output
// alongside the troubleshooting text.
func (f *Flasher) Erase(ctx context.Context, partition string) (runner.Result, error) {
	if IsProtected(partition) {
		return runner.Result{}, &ProtectedError{Partition: partition}
	}

	if !f.stat(f.home.VenvPython()) {
		return runner.Result{}, &NotInstalledError{Missing: "virtualenv"}
	}

	if !f.stat(f.home.ToolEntrypoint()) {
		return runner.Result{}, &NotInstalledError{Missing: "tool checkout"}
	}

	return f.run.Run(ctx, runner.Spec{
		Argv:    f.EraseArgv(partition),
		Dir:     f.home.SourceDir(),
		Timeout: f.timeout,
	})
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
