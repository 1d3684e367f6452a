// Package provision orchestrates the full provisioning run: a strictly
// linear, idempotent pipeline from precondition checks through service
// activation. Each stage completes (or explicitly tolerates failure)
// before the next begins; a failed run leaves a superset of previous
// state and is corrected by re-running to completion.
package provision

import (
	"github.com/benchrig/rigup/pkg/config"
	"github.com/benchrig/rigup/pkg/deps"
	"github.com/benchrig/rigup/pkg/filesystem"
	"github.com/benchrig/rigup/pkg/fsops"
	"github.com/benchrig/rigup/pkg/groups"
	"github.com/benchrig/rigup/pkg/identity"
	"github.com/benchrig/rigup/pkg/logging"
	"github.com/benchrig/rigup/pkg/preflight"
	"github.com/benchrig/rigup/pkg/provision"
	"github.com/benchrig/rigup/pkg/runner"
	"github.com/benchrig/rigup/pkg/service"
	"github.com/benchrig/rigup/pkg/session"
	"github.com/benchrig/rigup/pkg/supervisor"
	"github.com/benchrig/rigup/pkg/types"
)

// Options configures a provisioning run. Nil collaborators default to
// the production implementations; tests inject fakes.
type Options struct {
	Config config.Config
	DryRun bool

	FS       types.FS
	Runner   runner.Runner
	Resolver identity.Resolver
	Ops      fsops.Executor
	Euid     func() int
}

// Result is the aggregated record of a run.
type Result struct {
	// Outcomes lists every executed stage in pipeline order.
	Outcomes []types.Outcome

	// Identity is the resolved run-as identity.
	Identity types.RunAsIdentity
}

// Degraded reports whether any stage completed with warnings.
func (r *Result) Degraded() bool {
	for _, o := range r.Outcomes {
		if o.IsDegraded() {
			return true
		}
	}
	return false
}

// Run executes the provisioning pipeline. The returned error is the
// fatal failure that stopped the pipeline, if any; best-effort failures
// are carried inside the outcomes instead.
func Run(opts Options) (*Result, error) {
	log := logging.GetLogger("commands.provision")

	opts = withDefaults(opts)
	cfg := opts.Config

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: preconditions. No side effects; must pass before any
	// mutation.
	checker := preflight.New(opts.FS, opts.Resolver)
	if opts.Euid != nil {
		checker.Euid = opts.Euid
	}
	ident, err := checker.Check(cfg)
	if err != nil {
		result.Outcomes = append(result.Outcomes, types.Failed("preflight", err))
		return result, err
	}
	result.Identity = ident
	result.Outcomes = append(result.Outcomes, types.OK("preflight", "preconditions satisfied"))

	if opts.DryRun {
		log.Info().Msg("Dry run, stopping after preflight")
		for _, stage := range []string{"filesystem", "system-deps", "python-deps", "groups", "service"} {
			result.Outcomes = append(result.Outcomes, types.Skipped(stage, "dry-run"))
		}
		return result, nil
	}

	target := cfg.Target(ident)

	// Stage 2: filesystem layout and payload mirror.
	prov := provision.New(opts.FS, opts.Runner)
	if err := prov.EnsureDirectories(target); err != nil {
		result.Outcomes = append(result.Outcomes, types.Failed("filesystem", err))
		return result, err
	}
	if err := prov.SyncPayload(cfg.SourceDir, target); err != nil {
		result.Outcomes = append(result.Outcomes, types.Failed("filesystem", err))
		return result, err
	}
	result.Outcomes = append(result.Outcomes, types.OK("filesystem", "roots ensured, payload mirrored"))

	// Stage 3: dependencies.
	installer := deps.New(opts.FS, opts.Runner)
	if err := installer.InstallSystemPackages(cfg); err != nil {
		result.Outcomes = append(result.Outcomes, types.Failed("system-deps", err))
		return result, err
	}
	result.Outcomes = append(result.Outcomes, types.OK("system-deps", "system packages installed"))

	pyOutcome, err := installer.InstallPythonPackages(cfg)
	if err != nil {
		result.Outcomes = append(result.Outcomes, types.Failed("python-deps", err))
		return result, err
	}
	result.Outcomes = append(result.Outcomes, pyOutcome)

	// Stage 4: hardware group memberships, best-effort by contract.
	reconciler := groups.New(opts.Runner)
	result.Outcomes = append(result.Outcomes, reconciler.Reconcile(ident, cfg.HardwareGroups))

	// Stage 5: service model transition and activation.
	sup := supervisor.New(opts.Runner)
	ses := session.New(opts.Runner)
	svc := service.NewInstaller(opts.FS, opts.Ops, sup, ses)
	svcOutcome, err := svc.Transition(cfg, ident, cfg.Model)
	if err != nil {
		result.Outcomes = append(result.Outcomes, types.Failed("service", err))
		return result, err
	}
	result.Outcomes = append(result.Outcomes, svcOutcome)

	log.Info().
		Str("model", string(cfg.Model)).
		Bool("degraded", result.Degraded()).
		Msg("Provisioning run complete")
	return result, nil
}

// withDefaults fills nil collaborators with production implementations.
func withDefaults(opts Options) Options {
	if opts.FS == nil {
		opts.FS = filesystem.NewOS()
	}
	if opts.Runner == nil {
		opts.Runner = runner.NewOS()
	}
	if opts.Resolver == nil {
		opts.Resolver = identity.NewOS()
	}
	if opts.Ops == nil {
		opts.Ops = fsops.NewExecutor(opts.DryRun)
	}
	return opts
}
