// Package paths provides centralized path handling for rigup: systemd
// unit locations for both scopes, config file discovery, and the
// per-user runtime directory layout the session resolver depends on.
package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/benchrig/rigup/pkg/types"
)

// Environment variable names
const (
	// EnvConfigFile overrides config file discovery entirely
	EnvConfigFile = "RIGUP_CONFIG"
)

// Fixed system locations. These are systemd's contract, not user
// configuration; user-configurable paths belong in pkg/config.
const (
	// SystemUnitDir is where system-scope units are installed
	SystemUnitDir = "/etc/systemd/system"

	// UserUnitRelDir is the per-user unit directory relative to the
	// run-as identity's home
	UserUnitRelDir = ".config/systemd/user"

	// RunUserDir is the parent of per-uid runtime directories
	RunUserDir = "/run/user"

	// EtcConfigDir is the system-wide config directory
	EtcConfigDir = "/etc/rigup"

	// ConfigFileName is the config file rigup looks for
	ConfigFileName = "rigup.toml"
)

// SystemUnitPath returns the system-scope unit file path for a descriptor.
func SystemUnitPath(d types.ServiceDescriptor) string {
	return filepath.Join(SystemUnitDir, d.UnitFileName())
}

// UserUnitDir returns the run-as identity's own unit directory.
func UserUnitDir(ident types.RunAsIdentity) string {
	return filepath.Join(ident.Home, UserUnitRelDir)
}

// UserUnitPath returns the user-scope unit file path for a descriptor.
func UserUnitPath(ident types.RunAsIdentity, d types.ServiceDescriptor) string {
	return filepath.Join(UserUnitDir(ident), d.UnitFileName())
}

// RuntimeDir returns the expected XDG runtime directory for a uid.
// pam_systemd creates it when the user's session starts; the session
// resolver computes it ahead of time for the bridge fallback.
func RuntimeDir(uid int) string {
	return filepath.Join(RunUserDir, fmt.Sprintf("%d", uid))
}

// SessionBusAddress returns the session bus address rooted in a uid's
// runtime directory.
func SessionBusAddress(uid int) string {
	return "unix:path=" + filepath.Join(RuntimeDir(uid), "bus")
}

// ConfigSearchPaths returns candidate config file paths in lookup order:
// the RIGUP_CONFIG override, the invoking user's XDG config directory,
// then the system-wide /etc location.
func ConfigSearchPaths() []string {
	if override := os.Getenv(EnvConfigFile); override != "" {
		return []string{override}
	}
	return []string{
		filepath.Join(xdg.ConfigHome, "rigup", ConfigFileName),
		filepath.Join(EtcConfigDir, ConfigFileName),
	}
}

// FindConfigFile returns the first config file that exists, or "" when
// none is present (defaults apply).
func FindConfigFile(fs types.FS) string {
	for _, candidate := range ConfigSearchPaths() {
		if _, err := fs.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
