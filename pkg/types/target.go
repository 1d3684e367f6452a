package types

// InstallationTarget describes the on-disk layout for one application.
// All three roots exist, are owned by the run-as identity, and the log and
// state roots are group-writable once the filesystem provisioner has run.
type InstallationTarget struct {
	// AppName is the application's service and directory name.
	AppName string

	// Identity is the run-as identity that owns the roots.
	Identity RunAsIdentity

	// InstallRoot holds the mirrored payload tree.
	InstallRoot string

	// LogRoot holds the payload's append-only measurement logs.
	LogRoot string

	// StateRoot holds the payload's database and other mutable state.
	StateRoot string
}

// RunAsIdentity is the pre-existing user account the service runs as.
// rigup never creates accounts; it only resolves them and adds group
// memberships.
type RunAsIdentity struct {
	Username string
	Home     string
	UID      int
	GID      int
}

// ServiceDescriptor is the rendered form of a systemd service unit for
// the application. Exactly one descriptor is installed for a given
// application name at any time.
type ServiceDescriptor struct {
	// Name is the unit name without the .service suffix.
	Name string

	// Model is the scope the unit is installed under.
	Model ExecutionModel

	// Description is the unit's human-readable description line.
	Description string

	// WorkingDirectory is the directory the process starts in.
	WorkingDirectory string

	// ExecStart is the full start command line.
	ExecStart string

	// User and Group are set on system-scope units only; user-scope
	// units already run as their owning identity.
	User  string
	Group string

	// Restart policy: always on-failure with a fixed backoff.
	RestartSec int

	// Environment lists KEY=VALUE overrides for the process.
	Environment []string

	// WantedBy is the activation target the unit attaches to.
	WantedBy string
}

// UnitFileName returns the descriptor's file name.
func (d ServiceDescriptor) UnitFileName() string {
	return d.Name + ".service"
}

// SessionEnvironment is the graphical session addressing a user-scope
// service needs. It is ephemeral: resolved at activation time from the
// identity's uid, never persisted, because the session may not exist yet
// at boot.
type SessionEnvironment struct {
	// Display is the X display address, e.g. ":0".
	Display string

	// RuntimeDir is the identity's XDG runtime directory.
	RuntimeDir string

	// BusAddress is the session bus address derived from RuntimeDir.
	BusAddress string
}
