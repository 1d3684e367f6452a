package testutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryFS implements types.FS with in-memory storage, including the
// ownership tracking the provisioning tests assert on.
type MemoryFS struct {
	mu    sync.RWMutex
	files map[string]*fileNode

	// Error injection
	errorPaths map[string]error
}

// fileNode represents a file or directory in memory
type fileNode struct {
	name    string
	mode    fs.FileMode
	modTime time.Time
	content []byte
	isDir   bool
	uid     int
	gid     int
}

// NewMemoryFS creates a new in-memory filesystem with a root directory.
func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		files: map[string]*fileNode{
			"/": {name: "/", mode: 0755 | fs.ModeDir, modTime: time.Now(), isDir: true},
		},
		errorPaths: make(map[string]error),
	}
}

// InjectError makes every operation on path fail with err.
func (m *MemoryFS) InjectError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorPaths[filepath.Clean(path)] = err
}

func (m *MemoryFS) getNode(path string) (*fileNode, error) {
	path = filepath.Clean(path)
	if err, ok := m.errorPaths[path]; ok {
		return nil, err
	}
	node, exists := m.files[path]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return node, nil
}

// Stat implements types.FS
func (m *MemoryFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, err := m.getNode(name)
	if err != nil {
		return nil, err
	}
	return &memFileInfo{node: node}, nil
}

// ReadFile implements types.FS
func (m *MemoryFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, err := m.getNode(name)
	if err != nil {
		return nil, err
	}
	if node.isDir {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	out := make([]byte, len(node.content))
	copy(out, node.content)
	return out, nil
}

// WriteFile implements types.FS
func (m *MemoryFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = filepath.Clean(name)
	if err, ok := m.errorPaths[name]; ok {
		return err
	}
	content := make([]byte, len(data))
	copy(content, data)
	m.files[name] = &fileNode{
		name:    filepath.Base(name),
		mode:    perm,
		modTime: time.Now(),
		content: content,
	}
	return nil
}

// MkdirAll implements types.FS
func (m *MemoryFS) MkdirAll(path string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if err, ok := m.errorPaths[path]; ok {
		return err
	}
	// Create every missing path segment, like os.MkdirAll.
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	current := ""
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		current = current + "/" + seg
		if node, exists := m.files[current]; exists {
			if !node.isDir {
				return &fs.PathError{Op: "mkdir", Path: current, Err: fs.ErrExist}
			}
			continue
		}
		m.files[current] = &fileNode{
			name:    seg,
			mode:    perm | fs.ModeDir,
			modTime: time.Now(),
			isDir:   true,
		}
	}
	return nil
}

// ReadDir implements types.FS
func (m *MemoryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dir, err := m.getNode(name)
	if err != nil {
		return nil, err
	}
	if !dir.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}

	prefix := filepath.Clean(name)
	if prefix != "/" {
		prefix += "/"
	} else {
		prefix = "/"
	}

	var entries []fs.DirEntry
	for path, node := range m.files {
		if path == filepath.Clean(name) {
			continue
		}
		if strings.HasPrefix(path, prefix) && !strings.Contains(strings.TrimPrefix(path, prefix), "/") {
			entries = append(entries, &memDirEntry{node: node})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// Chown implements types.FS
func (m *MemoryFS) Chown(name string, uid, gid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	node, err := m.getNode(name)
	if err != nil {
		return err
	}
	node.uid = uid
	node.gid = gid
	return nil
}

// Chmod implements types.FS
func (m *MemoryFS) Chmod(name string, mode fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	node, err := m.getNode(name)
	if err != nil {
		return err
	}
	if node.isDir {
		node.mode = mode | fs.ModeDir
	} else {
		node.mode = mode
	}
	return nil
}

// Remove implements types.FS
func (m *MemoryFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = filepath.Clean(name)
	if _, err := m.getNode(name); err != nil {
		return err
	}
	delete(m.files, name)
	return nil
}

// RemoveAll implements types.FS
func (m *MemoryFS) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	for p := range m.files {
		if p == path || strings.HasPrefix(p, path+"/") {
			delete(m.files, p)
		}
	}
	return nil
}

// Owner returns the recorded uid/gid for a path, for test assertions.
func (m *MemoryFS) Owner(name string) (uid, gid int, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, err := m.getNode(name)
	if err != nil {
		return 0, 0, false
	}
	return node.uid, node.gid, true
}

// Mode returns the recorded mode for a path, for test assertions.
func (m *MemoryFS) Mode(name string) (fs.FileMode, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, err := m.getNode(name)
	if err != nil {
		return 0, false
	}
	return node.mode, true
}

// Exists reports whether a path exists.
func (m *MemoryFS) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.getNode(name)
	return err == nil
}

// memFileInfo adapts fileNode to fs.FileInfo
type memFileInfo struct {
	node *fileNode
}

func (i *memFileInfo) Name() string       { return i.node.name }
func (i *memFileInfo) Size() int64        { return int64(len(i.node.content)) }
func (i *memFileInfo) Mode() fs.FileMode  { return i.node.mode }
func (i *memFileInfo) ModTime() time.Time { return i.node.modTime }
func (i *memFileInfo) IsDir() bool        { return i.node.isDir }
func (i *memFileInfo) Sys() interface{}   { return nil }

// memDirEntry adapts fileNode to fs.DirEntry
type memDirEntry struct {
	node *fileNode
}

func (e *memDirEntry) Name() string               { return e.node.name }
func (e *memDirEntry) IsDir() bool                { return e.node.isDir }
func (e *memDirEntry) Type() fs.FileMode          { return e.node.mode.Type() }
func (e *memDirEntry) Info() (fs.FileInfo, error) { return &memFileInfo{node: e.node}, nil }
