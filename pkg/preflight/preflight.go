// Package preflight verifies the execution context before any mutation:
// privilege level, run-as identity existence, and payload presence.
package preflight

import (
	"os"

	"github.com/benchrig/rigup/pkg/config"
	"github.com/benchrig/rigup/pkg/errors"
	"github.com/benchrig/rigup/pkg/identity"
	"github.com/benchrig/rigup/pkg/logging"
	"github.com/benchrig/rigup/pkg/types"
)

// Checker runs the precondition gate. All collaborators are injected so
// the gate is testable without root or a real passwd database.
type Checker struct {
	FS       types.FS
	Resolver identity.Resolver

	// Euid reports the effective uid; defaults to os.Geteuid.
	Euid func() int
}

// New creates a checker with the default euid source.
func New(fs types.FS, resolver identity.Resolver) *Checker {
	return &Checker{FS: fs, Resolver: resolver, Euid: os.Geteuid}
}

// Check validates all preconditions and resolves the run-as identity.
// It has no side effects and must run before any mutating stage.
//
// The identity is resolved for both execution models: directory
// ownership needs the uid/gid even when the service runs system-scope.
func (c *Checker) Check(cfg config.Config) (types.RunAsIdentity, error) {
	log := logging.GetLogger("preflight")

	euid := os.Geteuid
	if c.Euid != nil {
		euid = c.Euid
	}
	if id := euid(); id != 0 {
		return types.RunAsIdentity{}, errors.Newf(errors.ErrPrivilege,
			"rigup must run as root (euid %d); re-run with sudo", id)
	}

	ident, err := c.Resolver.Lookup(cfg.RunAsUser)
	if err != nil {
		return types.RunAsIdentity{}, err
	}
	log.Debug().
		Str("user", ident.Username).
		Int("uid", ident.UID).
		Str("home", ident.Home).
		Msg("Resolved run-as identity")

	entry := cfg.EntryPointPath()
	if _, err := c.FS.Stat(entry); err != nil {
		return types.RunAsIdentity{}, errors.Wrapf(err, errors.ErrPayloadMissing,
			"payload entry point %s not found; run rigup from the payload checkout", entry)
	}

	return ident, nil
}
