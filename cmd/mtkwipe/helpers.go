package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"

	"github.com/hexsmith/mtkwipe/cmd/mtkwipe/internal/styles"
	"github.com/hexsmith/mtkwipe/pkg/runner"
)

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}

// renderMarkdown converts markdown text to terminal-formatted output,
// falling back to the raw text when the renderer cannot be built.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(78),
	)
	if err != nil {
		return text
	}

	out, err := r.Render(text)
	if err != nil {
		return text
	}

	return strings.TrimRight(out, "\n")
}

// isInteractive reports whether stdout is a terminal. Progress UIs and
// wizards degrade to plain output when it is not.
func isInteractive() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

// printCommandOutput shows a failed command's captured output in an
// error block so it is visually separate from our own messages.
func printCommandOutput(output string) {
	output = strings.TrimSpace(output)
	if output == "" {
		return
	}

	fmt.Println(styles.ErrorBlockStyle.Render(output))
}

// captureToFile returns a LineFunc that appends each line to path, plus a
// close function. Capture failures are silently dropped: logging must
// never break the run.
func captureToFile(path string) (runner.LineFunc, func()) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // log file under the install root
	if err != nil {
		return func(string) {}, func() {}
	}

	return func(line string) {
			_, _ = f.WriteString(line + "\n")
		}, func() {
			_ = f.Close()
		}
}

// tee fans one LineFunc out to several sinks, skipping nil ones.
func tee(fns ...runner.LineFunc) runner.LineFunc {
	return func(line string) {
		for _, fn := range fns {
			if fn != nil {
				fn(line)
			}
		}
	}
}
