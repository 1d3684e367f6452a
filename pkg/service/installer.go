package service

import (
	"fmt"
	"path/filepath"

	"github.com/benchrig/rigup/pkg/config"
	"github.com/benchrig/rigup/pkg/errors"
	"github.com/benchrig/rigup/pkg/fsops"
	"github.com/benchrig/rigup/pkg/logging"
	"github.com/benchrig/rigup/pkg/paths"
	"github.com/benchrig/rigup/pkg/session"
	"github.com/benchrig/rigup/pkg/supervisor"
	"github.com/benchrig/rigup/pkg/types"
)

// Installer drives the service model state machine. Filesystem
// mutations go through the staged operation executor so dry-run can
// preview them; supervisor commands go through the injected client.
type Installer struct {
	FS         types.FS
	Ops        fsops.Executor
	Supervisor *supervisor.Client
	Session    *session.Resolver
}

// NewInstaller creates a service installer.
func NewInstaller(fs types.FS, ops fsops.Executor, sup *supervisor.Client, ses *session.Resolver) *Installer {
	return &Installer{FS: fs, Ops: ops, Supervisor: sup, Session: ses}
}

// Transition drives the host from its current state into the desired
// model. Re-running with the same model rewrites the descriptor and
// restarts the service, which is the intended idempotent behavior.
func (i *Installer) Transition(cfg config.Config, ident types.RunAsIdentity, desired types.ExecutionModel) (types.Outcome, error) {
	log := logging.GetLogger("service")

	current := DetectState(i.FS, cfg, ident)
	log.Info().
		Str("current", string(current)).
		Str("desired", string(desired)).
		Msg("Service model transition")

	switch desired {
	case types.ModelSystem:
		return i.installSystem(cfg, ident)
	case types.ModelUser:
		return i.installUser(cfg, ident, current)
	}
	return types.Outcome{}, errors.Newf(errors.ErrModelConflict, "unknown execution model %q", desired)
}

// installSystem writes and activates the system-scope unit. It never
// touches the user-scope descriptor tree.
func (i *Installer) installSystem(cfg config.Config, ident types.RunAsIdentity) (types.Outcome, error) {
	d := DescriptorFor(cfg, ident, types.ModelSystem)
	unitPath := paths.SystemUnitPath(d)

	ops := []fsops.Op{
		fsops.WriteFile(unitPath, []byte(Render(d)), 0644),
	}
	if err := i.Ops.Execute(ops); err != nil {
		return types.Outcome{}, errors.Wrapf(err, errors.ErrUnitWrite,
			"failed to write system unit %s", unitPath)
	}

	// System-scope supervisor commands run as root and are expected to
	// succeed; failure here is fatal, not degraded.
	if err := i.Supervisor.DaemonReload(); err != nil {
		return types.Outcome{}, err
	}
	if err := i.Supervisor.Enable(d.Name); err != nil {
		return types.Outcome{}, err
	}
	if err := i.Supervisor.Restart(d.Name); err != nil {
		return types.Outcome{}, err
	}

	state := i.Supervisor.IsActive(d.Name)
	return types.OK("service", fmt.Sprintf("system unit %s installed and %s", d.UnitFileName(), state)), nil
}

// installUser tears down any system-scope installation, then writes and
// activates the user-scope unit under the identity's own configuration
// tree. Teardown runs first so the two supervisors never compete for
// the hardware.
func (i *Installer) installUser(cfg config.Config, ident types.RunAsIdentity, current types.ServiceState) (types.Outcome, error) {
	log := logging.GetLogger("service")
	var warnings []string

	if current == types.StateSystemActive {
		teardownWarnings, err := i.teardownSystem(cfg, ident)
		if err != nil {
			return types.Outcome{}, err
		}
		warnings = append(warnings, teardownWarnings...)
	}

	d := DescriptorFor(cfg, ident, types.ModelUser)
	unitDir := paths.UserUnitDir(ident)
	unitPath := paths.UserUnitPath(ident, d)

	ops := []fsops.Op{
		fsops.CreateDir(unitDir, 0755),
		fsops.WriteFile(unitPath, []byte(Render(d)), 0644),
	}
	if err := i.Ops.Execute(ops); err != nil {
		return types.Outcome{}, errors.Wrapf(err, errors.ErrUnitWrite,
			"failed to write user unit %s", unitPath)
	}

	// The directories were created by root; hand the whole tree to the
	// identity so its service manager can read it.
	for _, p := range userTreePaths(ident, unitPath) {
		if err := i.FS.Chown(p, ident.UID, ident.GID); err != nil {
			return types.Outcome{}, errors.Wrapf(err, errors.ErrOwnership,
				"failed to chown %s", p)
		}
	}

	if err := i.Supervisor.EnableLinger(ident.Username); err != nil {
		log.Warn().Err(err).Msg("Could not enable lingering, service starts on first login instead of boot")
		warnings = append(warnings, fmt.Sprintf("lingering: %v", err))
	}

	env := i.Session.Resolve(ident, cfg.Display)
	activation := i.Session.Activate(ident, cfg.SessionBridge, env, d.Name)
	warnings = append(warnings, activation.Warnings...)

	detail := fmt.Sprintf("user unit %s installed under %s", d.UnitFileName(), unitDir)
	if len(warnings) > 0 {
		return types.Degraded("service", detail, warnings), nil
	}
	return types.OK("service", detail), nil
}

// teardownSystem removes a stale system-scope installation. Stop and
// disable are tolerated (the unit may already be inactive), but the
// descriptor removal itself is required: leaving it behind would let
// two supervisors fight over the hardware.
func (i *Installer) teardownSystem(cfg config.Config, ident types.RunAsIdentity) ([]string, error) {
	log := logging.GetLogger("service")
	var warnings []string

	d := DescriptorFor(cfg, ident, types.ModelSystem)
	if err := i.Supervisor.Stop(d.Name); err != nil {
		warnings = append(warnings, fmt.Sprintf("stop system unit: %v", err))
	}
	if err := i.Supervisor.Disable(d.Name); err != nil {
		warnings = append(warnings, fmt.Sprintf("disable system unit: %v", err))
	}

	unitPath := paths.SystemUnitPath(d)
	if err := i.Ops.Execute([]fsops.Op{fsops.DeleteFile(unitPath)}); err != nil {
		return warnings, errors.Wrapf(err, errors.ErrUnitRemove,
			"failed to remove stale system unit %s", unitPath)
	}

	if err := i.Supervisor.DaemonReload(); err != nil {
		warnings = append(warnings, fmt.Sprintf("daemon-reload: %v", err))
	}

	log.Info().Str("unit", d.UnitFileName()).Msg("System-scope installation torn down")
	return warnings, nil
}

// userTreePaths lists the configuration tree entries that must belong
// to the identity, outermost first.
func userTreePaths(ident types.RunAsIdentity, unitPath string) []string {
	return []string{
		filepath.Join(ident.Home, ".config"),
		filepath.Join(ident.Home, ".config", "systemd"),
		filepath.Join(ident.Home, ".config", "systemd", "user"),
		unitPath,
	}
}
