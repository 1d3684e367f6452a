// Package supervisor wraps the system-scope service manager: systemctl
// for unit lifecycle and loginctl for session lingering. User-scope
// commands travel through the session bridge in pkg/session instead,
// because a root process cannot reach another user's service manager
// directly.
package supervisor

import (
	"strings"

	"github.com/benchrig/rigup/pkg/errors"
	"github.com/benchrig/rigup/pkg/logging"
	"github.com/benchrig/rigup/pkg/runner"
)

// Client drives systemctl at system scope.
type Client struct {
	Runner runner.Runner
}

// New creates a supervisor client.
func New(run runner.Runner) *Client {
	return &Client{Runner: run}
}

// unitName ensures the .service suffix.
func unitName(name string) string {
	if !strings.HasSuffix(name, ".service") {
		name = name + ".service"
	}
	return name
}

func (c *Client) systemctl(action string, args ...string) error {
	full := append([]string{action}, args...)
	if err := c.Runner.Run("systemctl", full...); err != nil {
		return errors.Wrapf(err, errors.ErrSupervisor, "systemctl %s failed", action)
	}
	return nil
}

// DaemonReload refreshes systemd's unit cache after descriptor changes.
func (c *Client) DaemonReload() error {
	return c.systemctl("daemon-reload")
}

// Enable marks the unit for activation at boot.
func (c *Client) Enable(name string) error {
	return c.systemctl("enable", unitName(name))
}

// Disable removes the unit's boot activation.
func (c *Client) Disable(name string) error {
	return c.systemctl("disable", unitName(name))
}

// Restart (re)starts the unit now. Restarting an already-running unit
// is the intended idempotent re-provision behavior, not a failure.
func (c *Client) Restart(name string) error {
	return c.systemctl("restart", unitName(name))
}

// Stop stops the unit if it is running.
func (c *Client) Stop(name string) error {
	return c.systemctl("stop", unitName(name))
}

// IsActive reports the unit's activation state ("active", "inactive",
// "failed"). systemctl exits non-zero for inactive units, so the
// command error is folded into the state string.
func (c *Client) IsActive(name string) string {
	out, err := c.Runner.Output("systemctl", "is-active", unitName(name))
	if err != nil {
		if out != "" {
			return out
		}
		return "inactive"
	}
	return out
}

// EnableLinger lets the user's service manager start at boot without an
// interactive login. Best-effort by contract: callers treat failure as
// a degraded outcome.
func (c *Client) EnableLinger(username string) error {
	log := logging.GetLogger("supervisor")
	if err := c.Runner.Run("loginctl", "enable-linger", username); err != nil {
		return errors.Wrapf(err, errors.ErrSupervisor,
			"failed to enable lingering for %s", username)
	}
	log.Debug().Str("user", username).Msg("Lingering enabled")
	return nil
}
