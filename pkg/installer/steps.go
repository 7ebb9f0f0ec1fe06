package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hexsmith/mtkwipe/pkg/runner"
	"github.com/hexsmith/mtkwipe/pkg/toolhome"
)

// Step names recorded in the state file.
const (
	StepPackages     = "packages"
	StepUdev         = "udev"
	StepClone        = "clone"
	StepVenv         = "venv"
	StepRequirements = "requirements"
)

func (i *Installer) packagesStep() Step {
	pkgs := append(i.host.ToolPackages(), i.cfg.Packages...)

	return Step{
		Name:  StepPackages,
		Title: "Install OS packages (" + strings.Join(pkgs, ", ") + ")",
		Run: func(ctx context.Context) (string, error) {
			_, err := i.exec(ctx, runner.Spec{
				Argv: i.host.InstallArgs(pkgs),
				Sudo: i.host.NeedsRoot(),
			})
			if err != nil {
				return "", err
			}

			return strings.Join(pkgs, " "), nil
		},
	}
}

func (i *Installer) udevStep() Step {
	return Step{
		Name:  StepUdev,
		Title: "Install udev rules (" + toolhome.UdevRulesPath + ")",
		Detect: func() bool {
			data, err := os.ReadFile(toolhome.UdevRulesPath)
			return err == nil && string(data) == UdevRules
		},
		Run: func(ctx context.Context) (string, error) {
			// The rules go through `tee` under sudo so neither this
			// process nor any file it writes needs root.
			if _, err := i.exec(ctx, runner.Spec{
				Argv:  []string{"tee", toolhome.UdevRulesPath},
				Stdin: UdevRules,
				Sudo:  true,
			}); err != nil {
				return "", err
			}

			if _, err := i.exec(ctx, runner.Spec{
				Argv: []string{"udevadm", "control", "--reload-rules"},
				Sudo: true,
			}); err != nil {
				return "", err
			}

			if _, err := i.exec(ctx, runner.Spec{
				Argv: []string{"udevadm", "trigger"},
				Sudo: true,
			}); err != nil {
				return "", err
			}

			return toolhome.UdevRulesPath, nil
		},
	}
}

func (i *Installer) cloneStep() Step {
	return Step{
		Name:  StepClone,
		Title: "Clone " + i.cfg.ToolRepo,
		Detect: func() bool {
			return dirExists(filepath.Join(i.home.SourceDir(), ".git"))
		},
		Run: func(ctx context.Context) (string, error) {
			// A forced re-run on an existing checkout updates in place
			// rather than recloning.
			if dirExists(filepath.Join(i.home.SourceDir(), ".git")) {
				if _, err := i.exec(ctx, runner.Spec{
					Argv: []string{"git", "-C", i.home.SourceDir(), "pull", "--ff-only"},
				}); err != nil {
					return "", err
				}

				return "updated " + i.cfg.ToolRepo, nil
			}

			argv := []string{"git", "clone", "--depth", "1"}
			if i.cfg.ToolRef != "" {
				argv = append(argv, "--branch", i.cfg.ToolRef)
			}
			argv = append(argv, i.cfg.ToolRepo, i.home.SourceDir())

			if _, err := i.exec(ctx, runner.Spec{Argv: argv}); err != nil {
				return "", err
			}

			return i.cfg.ToolRepo, nil
		},
	}
}

func (i *Installer) venvStep() Step {
	return Step{
		Name:  StepVenv,
		Title: "Create Python virtualenv",
		Detect: func() bool {
			return fileExists(i.home.VenvPython())
		},
		Run: func(ctx context.Context) (string, error) {
			if _, err := i.exec(ctx, runner.Spec{
				Argv: []string{i.cfg.Python, "-m", "venv", i.home.VenvDir()},
			}); err != nil {
				return "", err
			}

			return i.home.VenvDir(), nil
		},
	}
}

func (i *Installer) requirementsStep() Step {
	return Step{
		Name:  StepRequirements,
		Title: "Install tool requirements into virtualenv",
		Run: func(ctx context.Context) (string, error) {
			argv := []string{i.home.VenvPip(), "install", "-r", i.home.RequirementsPath()}
			argv = append(argv, i.cfg.PipArgs...)

			if _, err := i.exec(ctx, runner.Spec{
				Argv: argv,
				Dir:  i.home.SourceDir(),
			}); err != nil {
				return "", err
			}

			return i.home.RequirementsPath(), nil
		},
	}
}
