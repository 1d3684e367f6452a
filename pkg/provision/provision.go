// Package provision establishes the on-disk layout for the application:
// install, log and state roots with correct ownership, and a mirrored
// copy of the payload tree.
package provision

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/benchrig/rigup/pkg/errors"
	"github.com/benchrig/rigup/pkg/logging"
	"github.com/benchrig/rigup/pkg/runner"
	"github.com/benchrig/rigup/pkg/types"
)

// Provisioner converges the filesystem layout. Every operation is
// idempotent: directories that already exist and ownership already in
// place are success, not errors.
type Provisioner struct {
	FS     types.FS
	Runner runner.Runner
}

// New creates a filesystem provisioner.
func New(fs types.FS, run runner.Runner) *Provisioner {
	return &Provisioner{FS: fs, Runner: run}
}

// EnsureDirectories creates the three roots and fixes their ownership.
// The log and state roots are group-writable so the payload, running as
// the identity's group, can append measurement logs and update its
// database.
func (p *Provisioner) EnsureDirectories(target types.InstallationTarget) error {
	log := logging.GetLogger("provision")

	roots := []struct {
		path string
		mode fs.FileMode
	}{
		{target.InstallRoot, 0o755},
		{target.LogRoot, 0o775},
		{target.StateRoot, 0o775},
	}

	for _, root := range roots {
		if err := p.FS.MkdirAll(root.path, root.mode); err != nil {
			return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", root.path)
		}
		// MkdirAll is a no-op on existing directories and does not
		// touch their mode; re-apply so re-runs converge.
		if err := p.FS.Chmod(root.path, root.mode); err != nil {
			return errors.Wrapf(err, errors.ErrOwnership, "failed to set mode on %s", root.path)
		}
		if err := p.FS.Chown(root.path, target.Identity.UID, target.Identity.GID); err != nil {
			return errors.Wrapf(err, errors.ErrOwnership, "failed to chown %s", root.path)
		}
		log.Debug().Str("path", root.path).Msg("Directory ensured")
	}

	return nil
}

// SyncPayload mirrors the source tree into the install root, deleting
// destination files that no longer exist in the source and excluding
// version-control metadata. Ownership is re-applied afterwards because
// rsync runs as root and resets owners to the invoking identity.
func (p *Provisioner) SyncPayload(sourceDir string, target types.InstallationTarget) error {
	log := logging.GetLogger("provision")

	// A trailing slash makes rsync copy the tree's contents rather
	// than the directory itself.
	src := strings.TrimSuffix(sourceDir, "/") + "/"

	if err := p.Runner.Run("rsync", "-a", "--delete", "--exclude=.git", src, target.InstallRoot); err != nil {
		return errors.Wrapf(err, errors.ErrSync,
			"failed to mirror %s into %s", sourceDir, target.InstallRoot)
	}

	owner := fmt.Sprintf("%d:%d", target.Identity.UID, target.Identity.GID)
	if err := p.Runner.Run("chown", "-R", owner, target.InstallRoot); err != nil {
		return errors.Wrapf(err, errors.ErrOwnership,
			"failed to re-apply ownership on %s", target.InstallRoot)
	}

	log.Info().
		Str("source", sourceDir).
		Str("installRoot", target.InstallRoot).
		Msg("Payload synchronized")
	return nil
}
