// Package toolhome encapsulates all path knowledge for the mtkwipe install
// root. It provides a Dir value object with accessors for the config file,
// setup state, tool checkout, virtualenv, and log paths.
package toolhome

import (
	"os"
	"path/filepath"
)

// DefaultDirName is the install root created under the user's home
// directory when no explicit root is configured.
const DefaultDirName = ".mtkwipe"

// UdevRulesPath is where the USB access rules for the flashing tool are
// installed on Linux. It lives outside the install root on purpose: udev
// only reads from its own directories.
const UdevRulesPath = "/etc/udev/rules.d/51-mtkwipe.rules"

// Dir is a value object that resolves paths within the install root.
type Dir struct {
	root string
}

// New creates a Dir rooted at the given path. The path is converted to an
// absolute path. No I/O is performed; use EnsureStructure to create the
// directory layout.
func New(root string) Dir {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	return Dir{root: abs}
}

// Default returns a Dir under the user's home directory.
func Default() Dir {
	home, err := os.UserHomeDir()
	if err != nil {
		return New(DefaultDirName)
	}

	return New(filepath.Join(home, DefaultDirName))
}

// Root returns the absolute path to the install root.
func (d Dir) Root() string { return d.root }

// ConfigPath returns the path to the main config file.
func (d Dir) ConfigPath() string { return filepath.Join(d.root, "config.yaml") }

// StatePath returns the path to the setup state file.
func (d Dir) StatePath() string { return filepath.Join(d.root, "state.json") }

// SourceDir returns the path to the flashing tool checkout.
func (d Dir) SourceDir() string { return filepath.Join(d.root, "src") }

// VenvDir returns the path to the Python virtualenv.
func (d Dir) VenvDir() string { return filepath.Join(d.root, "venv") }

// VenvPython returns the path to the virtualenv's python interpreter.
func (d Dir) VenvPython() string { return filepath.Join(d.root, "venv", "bin", "python") }

// VenvPip returns the path to the virtualenv's pip.
func (d Dir) VenvPip() string { return filepath.Join(d.root, "venv", "bin", "pip") }

// ToolEntrypoint returns the path to the flashing tool's CLI script inside
// the checkout.
func (d Dir) ToolEntrypoint() string { return filepath.Join(d.root, "src", "mtk") }

// RequirementsPath returns the path to the tool's Python requirements file.
func (d Dir) RequirementsPath() string { return filepath.Join(d.root, "src", "requirements.txt") }

// LogsDir returns the path to the captured-output directory.
func (d Dir) LogsDir() string { return filepath.Join(d.root, "logs") }

// LogPath returns the capture file for a named run ("setup", "wipe").
func (d Dir) LogPath(name string) string { return filepath.Join(d.root, "logs", name+".log") }

// Exists reports whether the install root exists on disk.
func (d Dir) Exists() bool {
	info, err := os.Stat(d.root)

	return err == nil && info.IsDir()
}
