// Package deps installs the payload's runtime dependencies: the fixed
// apt package set and the Python package set, either into the shared
// interpreter or into a per-application virtualenv.
package deps

import (
	"path/filepath"

	"github.com/benchrig/rigup/pkg/config"
	"github.com/benchrig/rigup/pkg/errors"
	"github.com/benchrig/rigup/pkg/logging"
	"github.com/benchrig/rigup/pkg/runner"
	"github.com/benchrig/rigup/pkg/types"
)

// Installer converges the dependency set. apt and pip are both
// idempotent: packages already at the required state are no-ops.
type Installer struct {
	FS     types.FS
	Runner runner.Runner
}

// New creates a dependency installer.
func New(fs types.FS, run runner.Runner) *Installer {
	return &Installer{FS: fs, Runner: run}
}

// InstallSystemPackages installs the declared apt package set. Failure
// is fatal: the payload cannot run without its system dependencies.
func (i *Installer) InstallSystemPackages(cfg config.Config) error {
	log := logging.GetLogger("deps")

	if len(cfg.SystemPackages) == 0 {
		log.Debug().Msg("No system packages declared")
		return nil
	}

	args := append([]string{"install", "-y"}, cfg.SystemPackages...)
	env := []string{"DEBIAN_FRONTEND=noninteractive"}
	if err := i.Runner.RunEnv(env, "apt-get", args...); err != nil {
		return errors.Wrapf(err, errors.ErrPackageInstall,
			"failed to install system packages")
	}

	log.Info().Strs("packages", cfg.SystemPackages).Msg("System packages installed")
	return nil
}

// InstallPythonPackages converges the Python runtime. In venv mode the
// virtualenv is created once with system-site-packages visibility so
// apt-installed hardware bindings stay importable from inside it. A
// missing requirements manifest is a skip, reported as a warning in the
// returned outcome detail.
func (i *Installer) InstallPythonPackages(cfg config.Config) (types.Outcome, error) {
	log := logging.GetLogger("deps")

	pip := []string{"-m", "pip"}
	python := "/usr/bin/python3"

	if cfg.RuntimeIsolation == types.IsolationVenv {
		venvPython := filepath.Join(cfg.VenvDir(), "bin", "python3")
		if _, err := i.FS.Stat(venvPython); err != nil {
			log.Info().Str("venv", cfg.VenvDir()).Msg("Creating virtualenv")
			if err := i.Runner.Run("python3", "-m", "venv", "--system-site-packages", cfg.VenvDir()); err != nil {
				return types.Outcome{}, errors.Wrapf(err, errors.ErrRuntimeEnv,
					"failed to create virtualenv at %s", cfg.VenvDir())
			}
		}
		python = venvPython
	}

	manifest := cfg.RequirementsPath()
	if manifest == "" {
		return types.Skipped("python-deps", "no requirements manifest configured"), nil
	}
	if _, err := i.FS.Stat(manifest); err != nil {
		log.Warn().Str("manifest", manifest).Msg("Requirements manifest not found, skipping pip install")
		return types.Degraded("python-deps", "manifest absent, pip install skipped",
			[]string{"requirements manifest " + manifest + " not found"}), nil
	}

	args := append(pip, "install", "--upgrade", "-r", manifest)
	if err := i.Runner.Run(python, args...); err != nil {
		return types.Outcome{}, errors.Wrapf(err, errors.ErrPackageInstall,
			"failed to install Python packages from %s", manifest)
	}

	log.Info().Str("manifest", manifest).Str("interpreter", python).Msg("Python packages installed")
	return types.OK("python-deps", "python packages installed"), nil
}
