package types

import (
	"io/fs"
)

// FS is the filesystem interface required for rigup operations.
// Production code uses the OS implementation in pkg/filesystem; tests
// inject the in-memory implementation from pkg/testutil.
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Ownership and permission operations
	Chown(name string, uid, gid int) error
	Chmod(name string, mode fs.FileMode) error

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
}
