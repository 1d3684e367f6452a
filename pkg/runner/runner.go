// Package runner is the seam between rigup and the external commands it
// drives (systemctl, rsync, apt-get, usermod, machinectl). Components
// depend on the Runner interface; tests inject the recording fake from
// pkg/testutil.
package runner

import (
	"os"
	"os/exec"
	"strings"

	"github.com/benchrig/rigup/pkg/errors"
	"github.com/benchrig/rigup/pkg/logging"
)

// Runner executes external commands.
type Runner interface {
	// Run executes a command, returning an error that carries the
	// command's combined output on failure.
	Run(name string, args ...string) error

	// RunEnv is Run with extra KEY=VALUE environment entries appended
	// to the current environment.
	RunEnv(env []string, name string, args ...string) error

	// Output executes a command and returns its trimmed stdout.
	Output(name string, args ...string) (string, error)

	// LookPath reports whether a command is available.
	LookPath(name string) (string, error)
}

// osRunner implements Runner with os/exec.
type osRunner struct{}

// NewOS creates the production command runner.
func NewOS() Runner {
	return &osRunner{}
}

func (r *osRunner) Run(name string, args ...string) error {
	return r.RunEnv(nil, name, args...)
}

func (r *osRunner) RunEnv(env []string, name string, args ...string) error {
	log := logging.GetLogger("runner")
	log.Debug().Str("command", name).Strs("args", args).Strs("env", env).Msg("Executing command")

	cmd := exec.Command(name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "%s %s failed: %s",
			name, strings.Join(args, " "), strings.TrimSpace(string(output)))
	}
	return nil
}

func (r *osRunner) Output(name string, args ...string) (string, error) {
	log := logging.GetLogger("runner")
	log.Debug().Str("command", name).Strs("args", args).Msg("Executing command")

	cmd := exec.Command(name, args...)
	output, err := cmd.Output()
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInternal, "%s %s failed",
			name, strings.Join(args, " "))
	}
	return strings.TrimSpace(string(output)), nil
}

func (r *osRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
