package types

import "fmt"

// ExecutionModel selects which systemd scope supervises the application.
// The two models are mutually exclusive: installing one always tears down
// the other.
type ExecutionModel string

const (
	// ModelSystem runs the application as a system-scope service bound to
	// the graphical boot target. It starts independent of any login.
	ModelSystem ExecutionModel = "system"

	// ModelUser runs the application as a user-scope service under the
	// run-as identity's own service manager, bound to its default target.
	ModelUser ExecutionModel = "user"
)

// ParseExecutionModel validates and converts a configuration string
func ParseExecutionModel(s string) (ExecutionModel, error) {
	switch ExecutionModel(s) {
	case ModelSystem, ModelUser:
		return ExecutionModel(s), nil
	}
	return "", fmt.Errorf("unknown execution model %q (want %q or %q)", s, ModelSystem, ModelUser)
}

// ServiceState describes what is currently installed on the host.
type ServiceState string

const (
	StateUninstalled  ServiceState = "uninstalled"
	StateSystemActive ServiceState = "system-active"
	StateUserActive   ServiceState = "user-active"
)

// RuntimeIsolationMode selects where Python dependencies are installed.
type RuntimeIsolationMode string

const (
	// IsolationShared installs packages into the system interpreter.
	IsolationShared RuntimeIsolationMode = "shared"

	// IsolationVenv installs packages into a per-application virtualenv
	// created with system-site-packages visibility, so apt-installed
	// hardware bindings stay importable.
	IsolationVenv RuntimeIsolationMode = "venv"
)

// ParseRuntimeIsolationMode validates and converts a configuration string
func ParseRuntimeIsolationMode(s string) (RuntimeIsolationMode, error) {
	switch RuntimeIsolationMode(s) {
	case IsolationShared, IsolationVenv:
		return RuntimeIsolationMode(s), nil
	}
	return "", fmt.Errorf("unknown runtime isolation mode %q (want %q or %q)", s, IsolationShared, IsolationVenv)
}

// SessionBridgeMode selects how user-scope supervisor commands reach the
// run-as identity's session.
type SessionBridgeMode string

const (
	// BridgeMachinectl executes supervisor commands inside the target
	// session via machinectl shell, inheriting its live bus address.
	BridgeMachinectl SessionBridgeMode = "machinectl"

	// BridgeSudo executes supervisor commands via sudo with the runtime
	// directory and bus address computed from the identity's uid and
	// injected as environment overrides.
	BridgeSudo SessionBridgeMode = "sudo"
)

// ParseSessionBridgeMode validates and converts a configuration string
func ParseSessionBridgeMode(s string) (SessionBridgeMode, error) {
	switch SessionBridgeMode(s) {
	case BridgeMachinectl, BridgeSudo:
		return SessionBridgeMode(s), nil
	}
	return "", fmt.Errorf("unknown session bridge mode %q (want %q or %q)", s, BridgeMachinectl, BridgeSudo)
}
