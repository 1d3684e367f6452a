// Package identity resolves the run-as account a provisioned service
// runs under. rigup never creates accounts; a missing identity is a
// precondition failure.
package identity

import (
	"os/user"
	"strconv"

	"github.com/benchrig/rigup/pkg/errors"
	"github.com/benchrig/rigup/pkg/types"
)

// Resolver looks up run-as identities. Tests inject a fake; production
// code uses the OS resolver backed by the passwd database.
type Resolver interface {
	Lookup(username string) (types.RunAsIdentity, error)
}

// osResolver implements Resolver with os/user.
type osResolver struct{}

// NewOS creates the production identity resolver.
func NewOS() Resolver {
	return &osResolver{}
}

func (r *osResolver) Lookup(username string) (types.RunAsIdentity, error) {
	u, err := user.Lookup(username)
	if err != nil {
		return types.RunAsIdentity{}, errors.Wrapf(err, errors.ErrIdentityUnknown,
			"run-as user %q does not exist on this host", username)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return types.RunAsIdentity{}, errors.Wrapf(err, errors.ErrIdentityUnknown,
			"non-numeric uid %q for user %q", u.Uid, username)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return types.RunAsIdentity{}, errors.Wrapf(err, errors.ErrIdentityUnknown,
			"non-numeric gid %q for user %q", u.Gid, username)
	}

	return types.RunAsIdentity{
		Username: u.Username,
		Home:     u.HomeDir,
		UID:      uid,
		GID:      gid,
	}, nil
}
