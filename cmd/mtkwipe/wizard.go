package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/hexsmith/mtkwipe/pkg/config"
	"github.com/hexsmith/mtkwipe/pkg/flasher"
	"github.com/hexsmith/mtkwipe/pkg/toolhome"
)

// wizardAnswers collects the raw form values before they are folded into
// a Config.
type wizardAnswers struct {
	Root      string
	ToolRepo  string
	ToolRef   string
	Partition string
	Custom    string
}

// customPartition is the select sentinel that opens a free-text input.
const customPartition = "custom"

// runInitWizard walks the user through the config and writes it under the
// chosen install root. The pre-filled defaults come from cfg, so editing
// an existing config starts from its current values. It returns the path
// of the written file, or "" when the user aborted, so callers load the
// config from wherever the wizard actually put it.
func runInitWizard(cfg config.Config) (string, error) {
	a := wizardAnswers{
		Root:      cfg.Root,
		ToolRepo:  cfg.ToolRepo,
		ToolRef:   cfg.ToolRef,
		Partition: cfg.Partition,
	}
	if a.Root == "" {
		a.Root = toolhome.Default().Root()
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Install root").
			Description("Where the tool checkout, virtualenv, and logs live.").
			Value(&a.Root).
			Validate(validateNonEmpty("install root")),
		huh.NewInput().
			Title("Tool repository").
			Description("Git URL of the MTK flashing tool.").
			Value(&a.ToolRepo).
			Validate(validateNonEmpty("tool repository")),
		huh.NewInput().
			Title("Tool ref (branch or tag, empty = default branch)").
			Value(&a.ToolRef),
	)).Run(); err != nil {
		return "", err
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Wipe target partition").
			Options(
				huh.NewOption("userdata (factory reset)", "userdata"),
				huh.NewOption("cache", "cache"),
				huh.NewOption("frp (factory reset protection)", "frp"),
				huh.NewOption("custom...", customPartition),
			).
			Value(&a.Partition),
	)).Run(); err != nil {
		return "", err
	}

	if a.Partition == customPartition {
		if err := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Partition name").
				Value(&a.Custom).
				Validate(validatePartition),
		)).Run(); err != nil {
			return "", err
		}

		a.Partition = strings.TrimSpace(a.Custom)
	}

	out := foldAnswers(cfg, a)
	if err := out.Validate(); err != nil {
		return "", err
	}

	home := out.Home()

	var confirmed bool
	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Write config to %s?", home.ConfigPath())).
			Value(&confirmed),
	)).Run(); err != nil {
		return "", err
	}

	if !confirmed {
		fmt.Println("Aborted, nothing written.")
		return "", nil
	}

	if err := writeConfig(out, home); err != nil {
		return "", err
	}

	fmt.Printf("Wrote %s\n", home.ConfigPath())

	return home.ConfigPath(), nil
}

// offerWizard proposes the config wizard on a first setup, when no config
// exists yet. It returns the path of the config the wizard wrote, which
// may be under a non-default install root; "" means nothing was written
// and setup proceeds on built-in defaults.
func offerWizard() (string, error) {
	home := toolhome.Default()
	if _, err := os.Stat(home.ConfigPath()); err == nil {
		return "", nil
	}

	var runIt bool
	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("No config found. Configure before setup?").
			Description("Defaults install the tool under " + home.Root() + " and target the userdata partition.").
			Value(&runIt),
	)).Run(); err != nil {
		return "", err
	}

	if !runIt {
		return "", nil
	}

	cfg, err := config.Resolve("", home)
	if err != nil {
		return "", err
	}

	return runInitWizard(cfg)
}

// foldAnswers merges the wizard answers into a config, keeping fields the
// wizard does not expose (pip args, extra packages, timeout) untouched.
func foldAnswers(cfg config.Config, a wizardAnswers) config.Config {
	cfg.Root = strings.TrimSpace(a.Root)
	if cfg.Root == toolhome.Default().Root() {
		// The default root stays implicit so the config moves between
		// machines with different home directories.
		cfg.Root = ""
	}

	cfg.ToolRepo = strings.TrimSpace(a.ToolRepo)
	cfg.ToolRef = strings.TrimSpace(a.ToolRef)
	cfg.Partition = strings.TrimSpace(a.Partition)

	return cfg
}

// writeConfig persists cfg as YAML under the install root.
func writeConfig(cfg config.Config, home toolhome.Dir) error {
	if err := toolhome.EnsureStructure(home); err != nil {
		return err
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(home.ConfigPath(), data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func validateNonEmpty(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}

		return nil
	}
}

func validatePartition(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("partition name is required")
	}

	if flasher.IsProtected(s) {
		return fmt.Errorf("%s is bootloader-critical and cannot be a wipe target", s)
	}

	return nil
}
