// Package config defines the provisioning configuration value object.
// Every component receives a Config explicitly; nothing reads ambient
// global state.
package config

import (
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/benchrig/rigup/pkg/errors"
	"github.com/benchrig/rigup/pkg/paths"
	"github.com/benchrig/rigup/pkg/types"
)

// Config is the complete provisioning configuration. Zero values are
// filled from Default(); an optional TOML file and CLI flags override it.
type Config struct {
	// AppName names the application, its service unit, and its
	// directories under /opt, /var/log and /var/lib.
	AppName string `toml:"app_name"`

	// RunAsUser is the pre-existing account the service runs as.
	RunAsUser string `toml:"run_as_user"`

	// Model selects the execution model: "system" or "user".
	Model types.ExecutionModel `toml:"model"`

	// SourceDir is the payload tree to deploy. Relative paths are
	// resolved against the invocation directory.
	SourceDir string `toml:"source_dir"`

	// EntryPoint is the payload's entry script relative to SourceDir.
	EntryPoint string `toml:"entry_point"`

	// InstallRoot, LogRoot and StateRoot default to the conventional
	// /opt, /var/log and /var/lib locations for AppName.
	InstallRoot string `toml:"install_root"`
	LogRoot     string `toml:"log_root"`
	StateRoot   string `toml:"state_root"`

	// SystemPackages is the fixed apt package set the payload needs.
	SystemPackages []string `toml:"system_packages"`

	// PythonRequirements is the optional pip manifest relative to
	// SourceDir. Absence is a skip, not a failure.
	PythonRequirements string `toml:"python_requirements"`

	// RuntimeIsolation selects "shared" or "venv" Python installs.
	RuntimeIsolation types.RuntimeIsolationMode `toml:"runtime_isolation"`

	// HardwareGroups lists the hardware-access groups the run-as
	// identity is added to. Groups absent on the platform are skipped.
	HardwareGroups []string `toml:"hardware_groups"`

	// SessionBridge selects how user-scope supervisor commands reach
	// the identity's session: "machinectl" or "sudo".
	SessionBridge types.SessionBridgeMode `toml:"session_bridge"`

	// RestartSec is the supervisor's restart backoff in seconds.
	RestartSec int `toml:"restart_sec"`

	// Display is the X display the kiosk GUI appears on.
	Display string `toml:"display"`
}

// Default returns the compiled-in configuration for the benchrig
// measurement application.
func Default() Config {
	return Config{
		AppName:    "benchrig",
		RunAsUser:  "rig",
		Model:      types.ModelSystem,
		SourceDir:  ".",
		EntryPoint: "run.py",
		SystemPackages: []string{
			"python3",
			"python3-venv",
			"python3-pip",
			"python3-tk",
			"python3-rpi.gpio",
			"rsync",
		},
		PythonRequirements: "requirements.txt",
		RuntimeIsolation:   types.IsolationVenv,
		HardwareGroups:     []string{"gpio", "i2c", "spi", "dialout", "video", "input"},
		SessionBridge:      types.BridgeMachinectl,
		RestartSec:         3,
		Display:            ":0",
	}
}

// Load reads an optional TOML config file over the defaults. An empty
// path means "discover": the first existing file from the standard
// search paths, or pure defaults when none exists.
func Load(fs types.FS, path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = paths.FindConfigFile(fs)
		if path == "" {
			return cfg.withDerivedPaths(), nil
		}
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read config file %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse config file %s", path)
	}

	return cfg.withDerivedPaths(), nil
}

// withDerivedPaths fills the root paths that default relative to AppName.
func (c Config) withDerivedPaths() Config {
	if c.InstallRoot == "" {
		c.InstallRoot = filepath.Join("/opt", c.AppName)
	}
	if c.LogRoot == "" {
		c.LogRoot = filepath.Join("/var/log", c.AppName)
	}
	if c.StateRoot == "" {
		c.StateRoot = filepath.Join("/var/lib", c.AppName)
	}
	return c
}

// Validate rejects configurations the orchestrator cannot act on.
func (c Config) Validate() error {
	if c.AppName == "" {
		return errors.New(errors.ErrConfigValid, "app_name must not be empty")
	}
	if c.RunAsUser == "" {
		return errors.New(errors.ErrConfigValid, "run_as_user must not be empty")
	}
	if c.EntryPoint == "" {
		return errors.New(errors.ErrConfigValid, "entry_point must not be empty")
	}
	if _, err := types.ParseExecutionModel(string(c.Model)); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "invalid model")
	}
	if _, err := types.ParseRuntimeIsolationMode(string(c.RuntimeIsolation)); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "invalid runtime_isolation")
	}
	if _, err := types.ParseSessionBridgeMode(string(c.SessionBridge)); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "invalid session_bridge")
	}
	if c.RestartSec <= 0 {
		return errors.New(errors.ErrConfigValid, "restart_sec must be positive")
	}
	return nil
}

// Target builds the installation target for a resolved identity.
func (c Config) Target(ident types.RunAsIdentity) types.InstallationTarget {
	return types.InstallationTarget{
		AppName:     c.AppName,
		Identity:    ident,
		InstallRoot: c.InstallRoot,
		LogRoot:     c.LogRoot,
		StateRoot:   c.StateRoot,
	}
}

// EntryPointPath returns the payload entry point inside the source tree.
func (c Config) EntryPointPath() string {
	return filepath.Join(c.SourceDir, c.EntryPoint)
}

// InstalledEntryPoint returns the entry point inside the install root.
func (c Config) InstalledEntryPoint() string {
	return filepath.Join(c.InstallRoot, c.EntryPoint)
}

// VenvDir returns the per-application virtualenv location.
func (c Config) VenvDir() string {
	return filepath.Join(c.InstallRoot, ".venv")
}

// PythonInterpreter returns the interpreter the service unit executes:
// the venv interpreter in isolated mode, the system one otherwise.
func (c Config) PythonInterpreter() string {
	if c.RuntimeIsolation == types.IsolationVenv {
		return filepath.Join(c.VenvDir(), "bin", "python3")
	}
	return "/usr/bin/python3"
}

// RequirementsPath returns the optional pip manifest path, or "" when
// no manifest is configured.
func (c Config) RequirementsPath() string {
	if c.PythonRequirements == "" {
		return ""
	}
	return filepath.Join(c.SourceDir, c.PythonRequirements)
}
