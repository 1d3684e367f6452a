// Package groups adds the run-as identity to the hardware-access groups
// the payload needs (GPIO, I2C, SPI and friends). Group names vary by
// platform image, so each add is best-effort: an absent group degrades
// the install instead of blocking it.
package groups

import (
	"fmt"

	"github.com/benchrig/rigup/pkg/logging"
	"github.com/benchrig/rigup/pkg/runner"
	"github.com/benchrig/rigup/pkg/types"
)

// Reconciler adds group memberships. Memberships are additive only;
// nothing is ever removed.
type Reconciler struct {
	Runner runner.Runner
}

// New creates a group reconciler.
func New(run runner.Runner) *Reconciler {
	return &Reconciler{Runner: run}
}

// Reconcile attempts every group add independently and returns a single
// outcome carrying the failures as warnings. It never returns an error:
// a missing optional group must not abort provisioning.
func (r *Reconciler) Reconcile(ident types.RunAsIdentity, hardwareGroups []string) types.Outcome {
	log := logging.GetLogger("groups")

	var warnings []string
	added := 0
	for _, group := range hardwareGroups {
		if err := r.Runner.Run("usermod", "-aG", group, ident.Username); err != nil {
			log.Warn().
				Str("group", group).
				Str("user", ident.Username).
				Err(err).
				Msg("Could not add user to group, continuing")
			warnings = append(warnings, fmt.Sprintf("group %s: %v", group, err))
			continue
		}
		added++
	}

	detail := fmt.Sprintf("%d/%d hardware groups ensured", added, len(hardwareGroups))
	if len(warnings) > 0 {
		return types.Degraded("groups", detail, warnings)
	}
	return types.OK("groups", detail)
}
