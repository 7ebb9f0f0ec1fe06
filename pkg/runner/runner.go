// Package runner executes external commands on behalf of the installer and
// flasher. It is the only place in the program that shells out. Every run
// goes through a Runner so callers can be pointed at a Recorder for dry
// runs and tests.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Spec describes one external command invocation.
type Spec struct {
	Argv    []string      // Program and arguments; must be non-empty.
	Dir     string        // Working directory ("" = inherit).
	Stdin   string        // Fed to the command's stdin ("" = none).
	Timeout time.Duration // Per-command timeout (0 = none beyond ctx).
	Sudo    bool          // Elevate via sudo when not already root.
}

// Result holds the captured output of a completed command.
type Result struct {
	Argv     []string
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns stdout and stderr joined, for display on failure.
func (r Result) Output() string {
	var sb strings.Builder

	if s := strings.TrimSpace(r.Stdout); s != "" {
		sb.WriteString(s)
	}

	if s := strings.TrimSpace(r.Stderr); s != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(s)
	}

	return sb.String()
}

// Runner runs external commands.
type Runner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// LineFunc observes one line of combined command output as it is produced.
type LineFunc func(line string)

// Exec is the real Runner backed by os/exec.
type Exec struct {
	// OnLine, when set, receives each output line as the command runs.
	OnLine LineFunc

	// uid is injectable for tests; defaults to os.Getuid.
	uid func() int
}

// NewExec creates an Exec runner.
func NewExec() *Exec {
	return &Exec{uid: os.Getuid}
}

// needsSudo reports whether the spec must be wrapped in sudo. Only Linux
// uses sudo wrapping; on other systems elevation is the user's problem and
// commands that need root fail with their own message.
func (e *Exec) needsSudo(spec Spec) bool {
	return spec.Sudo && runtime.GOOS == "linux" && e.uid() != 0
}

// Run executes the command described by spec, streaming output to OnLine
// and capturing it into the Result. A non-zero exit status is returned as
// an error wrapping the underlying *exec.ExitError, with the Result still
// populated.
func (e *Exec) Run(ctx context.Context, spec Spec) (Result, error) {
	if len(spec.Argv) == 0 {
		return Result{}, fmt.Errorf("runner: empty command")
	}

	argv := spec.Argv
	if e.needsSudo(spec) {
		argv = append([]string{"sudo"}, argv...)
	}

	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := osexec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // argv is built from configuration, not remote input
	cmd.Dir = spec.Dir
	if spec.Stdin != "" {
		cmd.Stdin = strings.NewReader(spec.Stdin)
	}

	var stdout, stderr bytes.Buffer

	outWriter := io.Writer(&stdout)
	errWriter := io.Writer(&stderr)
	if e.OnLine != nil {
		// os/exec pumps stdout and stderr in separate goroutines: each
		// stream gets its own splitter so partial lines never merge
		// across streams, and the callback is serialized.
		var mu sync.Mutex
		emit := func(line string) {
			mu.Lock()
			defer mu.Unlock()
			e.OnLine(line)
		}

		outLW := &lineWriter{fn: emit}
		errLW := &lineWriter{fn: emit}
		defer outLW.Flush()
		defer errLW.Flush()

		outWriter = io.MultiWriter(&stdout, outLW)
		errWriter = io.MultiWriter(&stderr, errLW)
	}

	cmd.Stdout = outWriter
	cmd.Stderr = errWriter

	err := cmd.Run()

	res := Result{
		Argv:   argv,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("runner: %s: %w", argv[0], ctxErr)
		}

		return res, fmt.Errorf("runner: %s: %w", argv[0], err)
	}

	return res, nil
}

// lineWriter splits a byte stream into lines and feeds them to fn.
type lineWriter struct {
	fn  LineFunc
	buf bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)

	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line: keep it buffered for the next write.
			w.buf.WriteString(line)
			break
		}

		w.fn(strings.TrimRight(line, "\r\n"))
	}

	return len(p), nil
}

// Flush emits any trailing unterminated line.
func (w *lineWriter) Flush() {
	if w.buf.Len() > 0 {
		w.fn(strings.TrimRight(w.buf.String(), "\r\n"))
		w.buf.Reset()
	}
}

// Recorder is a Runner that records specs instead of executing them. It
// backs --dry-run and the test fakes. Results returned to callers report
// success with empty output unless Responses overrides a command.
type Recorder struct {
	Specs []Spec

	// Responses maps argv[0] to a canned outcome.
	Responses map[string]CannedResult
}

// CannedResult is a scripted outcome for a Recorder command.
type CannedResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run records the spec and returns its canned or default result.
func (r *Recorder) Run(_ context.Context, spec Spec) (Result, error) {
	if len(spec.Argv) == 0 {
		return Result{}, fmt.Errorf("runner: empty command")
	}

	r.Specs = append(r.Specs, spec)

	res := Result{Argv: spec.Argv}

	if canned, ok := r.Responses[spec.Argv[0]]; ok {
		res.Stdout = canned.Stdout
		res.Stderr = canned.Stderr
		res.ExitCode = canned.ExitCode

		if canned.ExitCode != 0 {
			return res, fmt.Errorf("runner: %s: exit status %d", spec.Argv[0], canned.ExitCode)
		}
	}

	return res, nil
}

// Commands returns the recorded argvs, one per run, for assertions and
// dry-run plan display.
func (r *Recorder) Commands() [][]string {
	cmds := make([][]string, len(r.Specs))
	for i, s := range r.Specs {
		cmds[i] = s.Argv
	}

	return cmds
}
