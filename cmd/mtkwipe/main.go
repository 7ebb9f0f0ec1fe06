// Command mtkwipe bootstraps an external MTK flashing tool and drives its
// partition erase command. It installs OS packages, udev rules, a git
// checkout of the tool, and a Python virtualenv, then invokes the tool to
// erase the configured partition (userdata by default).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/hexsmith/mtkwipe/cmd/mtkwipe/internal/styles"
	"github.com/hexsmith/mtkwipe/pkg/config"
	"github.com/hexsmith/mtkwipe/pkg/doctor"
	"github.com/hexsmith/mtkwipe/pkg/flasher"
	"github.com/hexsmith/mtkwipe/pkg/installer"
	"github.com/hexsmith/mtkwipe/pkg/platform"
	"github.com/hexsmith/mtkwipe/pkg/runner"
	"github.com/hexsmith/mtkwipe/pkg/toolhome"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "setup":
		cmd := flag.NewFlagSet("setup", flag.ExitOnError)
		cmd.Usage = func() {
			fmt.Fprintf(os.Stderr, "Usage: mtkwipe setup [flags]\n\nInstall the flashing tool and its environment.\n\nFlags:\n")
			cmd.PrintDefaults()
		}
		configPath := cmd.String("config", "", "path to configuration file")
		envFile := cmd.String("env", ".env", "path to .env file (ignored if missing)")
		force := cmd.Bool("force", false, "re-run steps that are already complete")
		dryRun := cmd.Bool("dry-run", false, "print the commands that would run without executing them")
		_ = cmd.Parse(os.Args[2:])

		run(func(ctx context.Context) error {
			path := *configPath
			if path == "" && !*dryRun && isInteractive() {
				written, err := offerWizard()
				if err != nil {
					return err
				}
				// Load whatever the wizard wrote, even when it lives
				// under a non-default install root.
				path = written
			}

			cfg, err := loadConfig(path, *envFile)
			if err != nil {
				return err
			}

			return runSetup(ctx, cfg, *force, *dryRun)
		})

	case "wipe":
		cmd := flag.NewFlagSet("wipe", flag.ExitOnError)
		cmd.Usage = func() {
			fmt.Fprintf(os.Stderr, "Usage: mtkwipe wipe [flags]\n\nErase the configured partition via the flashing tool.\n\nFlags:\n")
			cmd.PrintDefaults()
		}
		configPath := cmd.String("config", "", "path to configuration file")
		envFile := cmd.String("env", ".env", "path to .env file (ignored if missing)")
		partition := cmd.String("partition", "", "partition to erase (overrides config)")
		timeout := cmd.Duration("timeout", 0, "tool invocation timeout (overrides config)")
		yes := cmd.Bool("yes", false, "skip the confirmation prompt")
		dryRun := cmd.Bool("dry-run", false, "print the command that would run without executing it")
		_ = cmd.Parse(os.Args[2:])

		run(func(ctx context.Context) error {
			cfg, err := loadConfig(*configPath, *envFile)
			if err != nil {
				return err
			}

			if *partition != "" {
				cfg.Partition = *partition
			}
			if *timeout > 0 {
				cfg.Timeout = timeout.String()
			}

			return runWipe(ctx, cfg, *yes, *dryRun)
		})

	case "doctor":
		cmd := flag.NewFlagSet("doctor", flag.ExitOnError)
		configPath := cmd.String("config", "", "path to configuration file")
		envFile := cmd.String("env", ".env", "path to .env file (ignored if missing)")
		_ = cmd.Parse(os.Args[2:])

		run(func(_ context.Context) error {
			cfg, err := loadConfig(*configPath, *envFile)
			if err != nil {
				return err
			}

			return runDoctor(cfg)
		})

	case "init":
		cmd := flag.NewFlagSet("init", flag.ExitOnError)
		configPath := cmd.String("config", "", "path to an existing configuration file to edit")
		_ = cmd.Parse(os.Args[2:])

		run(func(_ context.Context) error {
			cfg, err := config.Resolve(*configPath, toolhome.Default())
			if err != nil {
				return err
			}

			_, err = runInitWizard(cfg)

			return err
		})

	case "-h", "--help", "help":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: mtkwipe <command> [flags]

Commands:
  setup   Install the flashing tool: OS packages, udev rules, checkout, virtualenv
  wipe    Erase the configured partition (userdata by default)
  doctor  Verify the installation and device access setup
  init    Create or edit the configuration interactively

Run "mtkwipe <command> -h" for command flags.
`)
}

// run wires signal handling and the error exit path around a command.
func run(fn func(ctx context.Context) error) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := fn(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(explicit, envFile string) (config.Config, error) {
	if err := loadDotEnv(envFile); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Resolve(explicit, toolhome.Default())
	if err != nil {
		return config.Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func runSetup(ctx context.Context, cfg config.Config, force, dryRun bool) error {
	host, err := detectHost(cfg)
	if err != nil {
		return err
	}

	home := cfg.Home()

	if dryRun {
		rec := &runner.Recorder{}

		inst, err := installer.New(home, host, cfg, rec)
		if err != nil {
			return err
		}

		if err := inst.Plan(ctx); err != nil {
			return err
		}

		fmt.Println(styles.TitleStyle.Render("Would run:"))
		for _, argv := range rec.Commands() {
			fmt.Println("  " + styles.AccentStyle.Render(strings.Join(argv, " ")))
		}

		return nil
	}

	if err := toolhome.EnsureStructure(home); err != nil {
		return err
	}

	exec := runner.NewExec()
	capture, closeCapture := captureToFile(home.LogPath("setup"))
	defer closeCapture()

	inst, err := installer.New(home, host, cfg, exec)
	if err != nil {
		return err
	}

	if !isInteractive() {
		exec.OnLine = capture
		return reportSetupError(inst.Run(ctx, force, plainObserver))
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	model := newSetupModel(inst.Steps())
	p := tea.NewProgram(model)

	exec.OnLine = tee(capture, func(line string) {
		p.Send(outputLineMsg(line))
	})

	done := make(chan error, 1)
	go func() {
		err := inst.Run(runCtx, force, func(e installer.Event) {
			p.Send(stepEventMsg(e))
		})
		done <- err
		p.Send(setupDoneMsg{err: err})
	}()

	_, uiErr := p.Run()

	// If the UI exited early (ctrl+c), cancel the remaining steps and
	// wait for the run goroutine to observe it.
	cancelRun()
	runErr := <-done

	if uiErr != nil {
		return uiErr
	}

	return reportSetupError(runErr)
}

// reportSetupError surfaces the failing step's captured output before the
// error itself.
func reportSetupError(err error) error {
	if err == nil {
		return nil
	}

	var serr *installer.StepError
	if errors.As(err, &serr) {
		printCommandOutput(serr.Output)
	}

	return err
}

func runWipe(ctx context.Context, cfg config.Config, yes, dryRun bool) error {
	home := cfg.Home()

	if flasher.IsProtected(cfg.Partition) {
		return &flasher.ProtectedError{Partition: cfg.Partition}
	}

	if dryRun {
		f := flasher.New(home, &runner.Recorder{}, cfg.CommandTimeout())
		fmt.Println(styles.TitleStyle.Render("Would run:"))
		fmt.Println("  " + styles.AccentStyle.Render(strings.Join(f.EraseArgv(cfg.Partition), " ")))

		return nil
	}

	if !yes {
		if err := confirmWipe(cfg.Partition); err != nil {
			return err
		}
	}

	fmt.Println(renderMarkdown(flasher.DeviceInstructions))
	fmt.Println()
	fmt.Println(styles.DimStyle.Render("Waiting for the device... (ctrl+c to abort)"))
	fmt.Println()

	if err := toolhome.EnsureStructure(home); err != nil {
		return err
	}

	exec := runner.NewExec()
	capture, closeCapture := captureToFile(home.LogPath("wipe"))
	defer closeCapture()

	exec.OnLine = tee(capture, func(line string) {
		fmt.Println(styles.DimStyle.Render("  " + line))
	})

	f := flasher.New(home, exec, cfg.CommandTimeout())

	res, err := f.Erase(ctx, cfg.Partition)
	if err != nil {
		fmt.Println()
		fmt.Println(renderMarkdown(flasher.Troubleshooting))
		printCommandOutput(res.Output())

		return err
	}

	fmt.Println()
	fmt.Println(styles.SuccessStyle.Render(fmt.Sprintf("Partition %q erased.", cfg.Partition)))
	fmt.Println(styles.DimStyle.Render("Disconnect the device and boot it normally; first boot takes longer."))

	return nil
}

// confirmWipe requires an explicit confirmation before anything
// destructive runs. The erase is irreversible, so a default-no confirm is
// not enough: the user types the partition name.
func confirmWipe(partition string) error {
	if !isInteractive() {
		return fmt.Errorf("refusing to wipe without confirmation on a non-interactive terminal (use --yes)")
	}

	var typed string
	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(fmt.Sprintf("This PERMANENTLY erases %q. Type the partition name to continue:", partition)).
			Value(&typed),
	)).Run(); err != nil {
		return err
	}

	if strings.TrimSpace(typed) != partition {
		return fmt.Errorf("confirmation did not match, aborting")
	}

	return nil
}

func runDoctor(cfg config.Config) error {
	checks := doctor.New(cfg.Home(), cfg).Run()

	fmt.Println(styles.TitleStyle.Render("mtkwipe doctor"))
	fmt.Println()
	fmt.Print(renderChecks(checks))

	if doctor.Failed(checks) {
		return fmt.Errorf("doctor found problems")
	}

	return nil
}

// detectHost resolves the platform. A manager override in the config
// bypasses detection entirely, which is the escape hatch for distros the
// mapping does not know.
func detectHost(cfg config.Config) (platform.Host, error) {
	if cfg.Manager != "" {
		return platform.Host{OS: runtime.GOOS, Manager: platform.Manager(cfg.Manager)}, nil
	}

	return platform.Detect()
}
