// Package service is the service model selector and installer: it
// renders systemd unit descriptors for both execution models and drives
// the transition between them so that exactly one descriptor is
// installed for the application at any time.
package service

import (
	"fmt"
	"strings"

	"github.com/benchrig/rigup/pkg/config"
	"github.com/benchrig/rigup/pkg/types"
)

// DescriptorFor builds the unit descriptor for the configured model.
//
// Both models execute the interpreter selected by the runtime isolation
// mode: the per-application virtualenv interpreter in venv mode, the
// system interpreter in shared mode. The kiosk GUI needs a display in
// either model.
func DescriptorFor(cfg config.Config, ident types.RunAsIdentity, model types.ExecutionModel) types.ServiceDescriptor {
	d := types.ServiceDescriptor{
		Name:             cfg.AppName,
		Model:            model,
		Description:      fmt.Sprintf("%s measurement application", cfg.AppName),
		WorkingDirectory: cfg.InstallRoot,
		ExecStart:        cfg.PythonInterpreter() + " " + cfg.InstalledEntryPoint(),
		RestartSec:       cfg.RestartSec,
		Environment:      []string{"DISPLAY=" + cfg.Display},
	}

	switch model {
	case types.ModelSystem:
		d.User = ident.Username
		d.Group = ident.Username
		d.WantedBy = "graphical.target"
	case types.ModelUser:
		// User-scope units already run as their owning identity and
		// attach to that identity's default session target.
		d.WantedBy = "default.target"
	}

	return d
}

// Render produces the systemd unit file text for a descriptor.
func Render(d types.ServiceDescriptor) string {
	var b strings.Builder

	b.WriteString("[Unit]\n")
	fmt.Fprintf(&b, "Description=%s\n", d.Description)
	if d.Model == types.ModelSystem {
		b.WriteString("After=graphical.target\n")
	}
	b.WriteString("\n[Service]\n")
	b.WriteString("Type=simple\n")
	if d.User != "" {
		fmt.Fprintf(&b, "User=%s\n", d.User)
	}
	if d.Group != "" {
		fmt.Fprintf(&b, "Group=%s\n", d.Group)
	}
	fmt.Fprintf(&b, "WorkingDirectory=%s\n", d.WorkingDirectory)
	fmt.Fprintf(&b, "ExecStart=%s\n", d.ExecStart)
	b.WriteString("Restart=on-failure\n")
	fmt.Fprintf(&b, "RestartSec=%d\n", d.RestartSec)
	for _, env := range d.Environment {
		fmt.Fprintf(&b, "Environment=%s\n", env)
	}
	if d.Model == types.ModelSystem {
		// Keep the privilege escalation surface minimal; the unit
		// already runs as the unprivileged run-as identity.
		b.WriteString("NoNewPrivileges=true\n")
	}
	b.WriteString("\n[Install]\n")
	fmt.Fprintf(&b, "WantedBy=%s\n", d.WantedBy)

	return b.String()
}
