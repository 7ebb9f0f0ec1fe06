// Package config loads and validates the mtkwipe YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hexsmith/mtkwipe/pkg/flasher"
	"github.com/hexsmith/mtkwipe/pkg/platform"
	"github.com/hexsmith/mtkwipe/pkg/toolhome"
)

// Default values applied by Load when the config file omits them.
const (
	DefaultToolRepo  = "https://github.com/bkerler/mtkclient.git"
	DefaultPartition = "userdata"
	DefaultPython    = "python3"
	DefaultTimeout   = 30 * time.Minute
)

// Config is the top-level configuration.
type Config struct {
	Root      string   `yaml:"root"`       // Install root override (default ~/.mtkwipe).
	ToolRepo  string   `yaml:"tool_repo"`  // Git URL of the flashing tool.
	ToolRef   string   `yaml:"tool_ref"`   // Branch or tag to check out ("" = default branch).
	Python    string   `yaml:"python"`     // Interpreter used to create the virtualenv.
	Partition string   `yaml:"partition"`  // Partition the wipe command targets.
	Timeout   string   `yaml:"timeout"`    // External command timeout as a duration string.
	Manager   string   `yaml:"manager"`    // Package manager override ("" = auto-detect).
	PipArgs   []string `yaml:"pip_args"`   // Extra arguments appended to pip install.
	Packages  []string `yaml:"packages"`   // Extra OS packages installed alongside the defaults.
}

// defaults returns a Config with every field at its built-in default.
func defaults() Config {
	return Config{
		ToolRepo:  DefaultToolRepo,
		Python:    DefaultPython,
		Partition: DefaultPartition,
		Timeout:   DefaultTimeout.String(),
	}
}

// Load reads a YAML file and returns a Config with defaults applied.
// Environment variables referenced as ${VAR} or $VAR in the YAML are
// expanded before parsing, so machine-specific paths can live in the
// environment (e.g. loaded from a .env file) rather than in the config.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("config: load: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := defaults()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}

	return cfg, nil
}

// Resolve returns the config to use. Priority:
// 1. Explicit --config flag (non-empty); a missing file is an error.
// 2. <root>/config.yaml if it exists.
// 3. Built-in defaults.
func Resolve(explicit string, home toolhome.Dir) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}

	if _, err := os.Stat(home.ConfigPath()); err == nil {
		return Load(home.ConfigPath())
	}

	return defaults(), nil
}

// Home returns the install root Dir the config points at.
func (c Config) Home() toolhome.Dir {
	if c.Root != "" {
		return toolhome.New(c.Root)
	}

	return toolhome.Default()
}

// CommandTimeout parses the configured timeout, falling back to the
// default on empty or malformed values.
func (c Config) CommandTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}

	return d
}

// knownManagers is the set of accepted manager override values.
var knownManagers = map[string]struct{}{
	string(platform.Apt):    {},
	string(platform.Dnf):    {},
	string(platform.Pacman): {},
	string(platform.Zypper): {},
	string(platform.Brew):   {},
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.ToolRepo == "" {
		return fmt.Errorf("config: tool_repo is required")
	}

	if c.Partition == "" {
		return fmt.Errorf("config: partition is required")
	}

	if flasher.IsProtected(c.Partition) {
		return fmt.Errorf("config: partition %q is bootloader-critical and cannot be a wipe target", c.Partition)
	}

	if c.Manager != "" {
		if _, ok := knownManagers[c.Manager]; !ok {
			return fmt.Errorf("config: unknown package manager %q", c.Manager)
		}
	}

	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return fmt.Errorf("config: invalid timeout %q: %w", c.Timeout, err)
		}
	}

	return nil
}

// Marshal renders the config as YAML, for the wizard to persist.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}

	return data, nil
}
