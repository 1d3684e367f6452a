// Package session reaches the run-as identity's service manager from a
// root provisioning process. A user-scope service started outside an
// interactive login does not inherit the graphical session's bus
// addressing, so supervisor commands must either execute inside the
// session (machinectl bridge) or carry the computed addressing as
// explicit environment overrides (sudo fallback).
package session

import (
	"fmt"

	"github.com/benchrig/rigup/pkg/logging"
	"github.com/benchrig/rigup/pkg/paths"
	"github.com/benchrig/rigup/pkg/runner"
	"github.com/benchrig/rigup/pkg/types"
)

// Resolver computes session environments and executes user-scope
// supervisor commands through the configured bridge.
type Resolver struct {
	Runner runner.Runner
}

// New creates a session resolver.
func New(run runner.Runner) *Resolver {
	return &Resolver{Runner: run}
}

// Resolve computes the expected session environment for an identity.
// It is recomputed on every activation and never persisted: the session
// itself may not exist yet at boot, only its well-known addresses do.
func (r *Resolver) Resolve(ident types.RunAsIdentity, display string) types.SessionEnvironment {
	return types.SessionEnvironment{
		Display:    display,
		RuntimeDir: paths.RuntimeDir(ident.UID),
		BusAddress: paths.SessionBusAddress(ident.UID),
	}
}

// Activate drives the identity's service manager through the full
// activation sequence: reload unit cache, enable, restart, query state.
// Every step is best-effort; if the session is not up yet the unit's
// restart policy takes over once it appears. The aggregated outcome
// carries each tolerated failure as a warning.
func (r *Resolver) Activate(ident types.RunAsIdentity, bridge types.SessionBridgeMode, env types.SessionEnvironment, unit string) types.Outcome {
	log := logging.GetLogger("session")

	if bridge == types.BridgeMachinectl {
		if _, err := r.Runner.LookPath("machinectl"); err != nil {
			log.Warn().Msg("machinectl not available, falling back to sudo bridge")
			bridge = types.BridgeSudo
		}
	}

	steps := []struct {
		name string
		args []string
	}{
		{"daemon-reload", []string{"daemon-reload"}},
		{"enable", []string{"enable", unit + ".service"}},
		{"restart", []string{"restart", unit + ".service"}},
		{"is-active", []string{"is-active", unit + ".service"}},
	}

	var warnings []string
	for _, step := range steps {
		var err error
		switch bridge {
		case types.BridgeMachinectl:
			err = r.runViaMachinectl(ident, step.args)
		default:
			err = r.runViaSudo(ident, env, step.args)
		}
		if err != nil {
			log.Warn().
				Str("step", step.name).
				Str("bridge", string(bridge)).
				Err(err).
				Msg("User service manager command failed, service will retry via restart policy")
			warnings = append(warnings, fmt.Sprintf("%s: %v", step.name, err))
		}
	}

	detail := fmt.Sprintf("user unit %s activated via %s bridge", unit, bridge)
	if len(warnings) > 0 {
		return types.Degraded("session", detail, warnings)
	}
	return types.OK("session", detail)
}

// runViaMachinectl executes a user-scope systemctl command inside the
// identity's session, inheriting its live bus address.
func (r *Resolver) runViaMachinectl(ident types.RunAsIdentity, args []string) error {
	inner := "systemctl --user"
	for _, a := range args {
		inner += " " + a
	}
	return r.Runner.Run("machinectl", "shell", "--quiet",
		"--uid="+ident.Username, ".host", "/bin/sh", "-c", inner)
}

// runViaSudo executes a user-scope systemctl command with the runtime
// directory and bus address injected explicitly.
func (r *Resolver) runViaSudo(ident types.RunAsIdentity, env types.SessionEnvironment, args []string) error {
	full := []string{
		"-u", ident.Username,
		"env",
		"XDG_RUNTIME_DIR=" + env.RuntimeDir,
		"DBUS_SESSION_BUS_ADDRESS=" + env.BusAddress,
		"systemctl", "--user",
	}
	full = append(full, args...)
	return r.Runner.Run("sudo", full...)
}
