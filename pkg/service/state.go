package service

import (
	"github.com/benchrig/rigup/pkg/config"
	"github.com/benchrig/rigup/pkg/paths"
	"github.com/benchrig/rigup/pkg/types"
)

// DetectState reports which service model is currently installed, by
// descriptor file presence. A host that crashed between "stop old" and
// "install new" detects as uninstalled, which is the acceptable
// re-runnable intermediate state.
func DetectState(fs types.FS, cfg config.Config, ident types.RunAsIdentity) types.ServiceState {
	d := types.ServiceDescriptor{Name: cfg.AppName}

	if _, err := fs.Stat(paths.SystemUnitPath(d)); err == nil {
		return types.StateSystemActive
	}
	if _, err := fs.Stat(paths.UserUnitPath(ident, d)); err == nil {
		return types.StateUserActive
	}
	return types.StateUninstalled
}
