// Package platform detects the host operating system and its package
// manager so the installer can pick the right package-install command.
// Detection is I/O-light: one read of /etc/os-release on Linux, with a
// PATH probe fallback for distros that do not ship the file.
package platform

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Manager identifies a supported package manager.
type Manager string

const (
	Apt    Manager = "apt"
	Dnf    Manager = "dnf"
	Pacman Manager = "pacman"
	Zypper Manager = "zypper"
	Brew   Manager = "brew"
)

// knownManagers lists every manager Detect can return, in probe order.
var knownManagers = []Manager{Apt, Dnf, Pacman, Zypper, Brew}

// Host describes the detected host environment.
type Host struct {
	OS      string  // runtime.GOOS value
	Distro  string  // os-release ID on Linux, "" elsewhere
	Manager Manager // package manager to use for installs
}

// UnsupportedError is returned when no usable package manager is found.
type UnsupportedError struct {
	OS     string
	Distro string
}

func (e *UnsupportedError) Error() string {
	names := make([]string, len(knownManagers))
	for i, m := range knownManagers {
		names[i] = string(m)
	}

	if e.Distro != "" {
		return fmt.Sprintf("platform: unsupported distro %q on %s (supported package managers: %s)",
			e.Distro, e.OS, strings.Join(names, ", "))
	}

	return fmt.Sprintf("platform: unsupported OS %q (supported package managers: %s)",
		e.OS, strings.Join(names, ", "))
}

// distroManagers maps os-release ID (and ID_LIKE entries) to a manager.
var distroManagers = map[string]Manager{
	"debian":    Apt,
	"ubuntu":    Apt,
	"raspbian":  Apt,
	"linuxmint": Apt,
	"fedora":    Dnf,
	"rhel":      Dnf,
	"centos":    Dnf,
	"rocky":     Dnf,
	"arch":      Pacman,
	"manjaro":   Pacman,
	"opensuse":  Zypper,
	"suse":      Zypper,
}

// Detect inspects the current host and returns its description.
func Detect() (Host, error) {
	return detect(runtime.GOOS, "/etc/os-release", lookPath)
}

// lookPath reports whether a binary is on PATH.
func lookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// detect is the testable core of Detect. goos and releasePath are injected
// so tests can fabricate hosts without touching the real system.
func detect(goos, releasePath string, onPath func(string) bool) (Host, error) {
	switch goos {
	case "darwin":
		if !onPath("brew") {
			return Host{}, fmt.Errorf("platform: homebrew is required on macOS: install it from https://brew.sh")
		}

		return Host{OS: goos, Manager: Brew}, nil

	case "linux":
		id, idLike := parseOSRelease(releasePath)

		for _, candidate := range append([]string{id}, idLike...) {
			if m, ok := distroManagers[candidate]; ok {
				return Host{OS: goos, Distro: id, Manager: m}, nil
			}
		}

		// No os-release match. Probe PATH for a manager binary instead.
		for _, m := range knownManagers {
			if m == Brew {
				continue
			}
			if onPath(managerBinary(m)) {
				return Host{OS: goos, Distro: id, Manager: m}, nil
			}
		}

		return Host{}, &UnsupportedError{OS: goos, Distro: id}

	default:
		return Host{}, &UnsupportedError{OS: goos}
	}
}

// managerBinary returns the binary name probed for a manager.
func managerBinary(m Manager) string {
	if m == Apt {
		return "apt-get"
	}

	return string(m)
}

// parseOSRelease extracts ID and ID_LIKE from an os-release file. A missing
// or unreadable file yields empty results, which callers treat as "unknown".
func parseOSRelease(path string) (id string, idLike []string) {
	data, err := os.ReadFile(path) //nolint:gosec // fixed system path or test fixture
	if err != nil {
		return "", nil
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}

		value = strings.Trim(value, `"'`)

		switch key {
		case "ID":
			id = strings.ToLower(value)
		case "ID_LIKE":
			for _, v := range strings.Fields(strings.ToLower(value)) {
				idLike = append(idLike, v)
			}
		}
	}

	return id, idLike
}

// InstallArgs returns the argv that installs the given packages with the
// host's package manager. The command assumes it will be run with enough
// privilege; the runner decides whether to wrap it in sudo.
func (h Host) InstallArgs(packages []string) []string {
	switch h.Manager {
	case Apt:
		return append([]string{"apt-get", "install", "-y"}, packages...)
	case Dnf:
		return append([]string{"dnf", "install", "-y"}, packages...)
	case Pacman:
		return append([]string{"pacman", "-S", "--noconfirm", "--needed"}, packages...)
	case Zypper:
		return append([]string{"zypper", "--non-interactive", "install"}, packages...)
	case Brew:
		return append([]string{"brew", "install"}, packages...)
	default:
		return nil
	}
}

// NeedsRoot reports whether package installs require elevated privileges.
// Homebrew refuses to run as root; everything else requires it.
func (h Host) NeedsRoot() bool {
	return h.Manager != Brew
}

// toolPackages lists the OS packages the external flashing tool needs,
// per package manager. Python and git drive the install itself; libusb is
// what the tool uses to reach the device.
var toolPackages = map[Manager][]string{
	Apt:    {"python3", "python3-pip", "python3-venv", "git", "libusb-1.0-0"},
	Dnf:    {"python3", "python3-pip", "git", "libusb1"},
	Pacman: {"python", "python-pip", "git", "libusb"},
	Zypper: {"python3", "python3-pip", "git", "libusb-1_0-0"},
	Brew:   {"python", "git", "libusb"},
}

// ToolPackages returns the OS package list for the host.
func (h Host) ToolPackages() []string {
	return toolPackages[h.Manager]
}
