package toolhome

import (
	"fmt"
	"os"
)

// EnsureStructure creates the install root and its logs/ directory if they
// are missing. It is safe to call multiple times (idempotent). The src/ and
// venv/ directories are created by the setup steps that own them, not here.
func EnsureStructure(d Dir) error {
	if err := os.MkdirAll(d.LogsDir(), 0o750); err != nil {
		return fmt.Errorf("toolhome: create logs dir: %w", err)
	}

	return nil
}
