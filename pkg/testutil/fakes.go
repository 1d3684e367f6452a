package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/benchrig/rigup/pkg/fsops"
	"github.com/benchrig/rigup/pkg/types"
)

// FakeRunner records every executed command and answers from a table of
// scripted results. Unscripted commands succeed with empty output.
type FakeRunner struct {
	mu sync.Mutex

	// Commands lists every invocation as a single space-joined line,
	// in execution order.
	Commands []string

	// Failures maps a command prefix to the error returned for any
	// invocation starting with it.
	Failures map[string]error

	// Outputs maps a command prefix to the stdout returned for it.
	Outputs map[string]string

	// MissingBinaries fail LookPath.
	MissingBinaries map[string]bool
}

// NewFakeRunner creates an empty fake runner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Failures:        make(map[string]error),
		Outputs:         make(map[string]string),
		MissingBinaries: make(map[string]bool),
	}
}

func (f *FakeRunner) record(name string, args []string) string {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.Commands = append(f.Commands, line)
	return line
}

func (f *FakeRunner) scriptedError(line string) error {
	for prefix, err := range f.Failures {
		if strings.HasPrefix(line, prefix) {
			return err
		}
	}
	return nil
}

// Run implements runner.Runner
func (f *FakeRunner) Run(name string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scriptedError(f.record(name, args))
}

// RunEnv implements runner.Runner
func (f *FakeRunner) RunEnv(env []string, name string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scriptedError(f.record(name, args))
}

// Output implements runner.Runner
func (f *FakeRunner) Output(name string, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	line := f.record(name, args)
	if err := f.scriptedError(line); err != nil {
		return "", err
	}
	for prefix, out := range f.Outputs {
		if strings.HasPrefix(line, prefix) {
			return out, nil
		}
	}
	return "", nil
}

// LookPath implements runner.Runner
func (f *FakeRunner) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MissingBinaries[name] {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return "/usr/bin/" + name, nil
}

// Ran reports whether any recorded command starts with prefix.
func (f *FakeRunner) Ran(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, line := range f.Commands {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// CountRan returns how many recorded commands start with prefix.
func (f *FakeRunner) CountRan(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, line := range f.Commands {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

// FakeResolver answers identity lookups from a fixed table.
type FakeResolver struct {
	Identities map[string]types.RunAsIdentity
	Err        error
}

// NewFakeResolver creates a resolver that knows the given identities.
func NewFakeResolver(idents ...types.RunAsIdentity) *FakeResolver {
	m := make(map[string]types.RunAsIdentity, len(idents))
	for _, id := range idents {
		m[id.Username] = id
	}
	return &FakeResolver{Identities: m}
}

// Lookup implements identity.Resolver
func (f *FakeResolver) Lookup(username string) (types.RunAsIdentity, error) {
	if f.Err != nil {
		return types.RunAsIdentity{}, f.Err
	}
	if id, ok := f.Identities[username]; ok {
		return id, nil
	}
	return types.RunAsIdentity{}, fmt.Errorf("user: unknown user %s", username)
}

// FSOpsApplier executes staged filesystem operations directly against a
// MemoryFS, standing in for the synthfs pipeline in tests.
type FSOpsApplier struct {
	FS *MemoryFS

	// Err, when set, fails every Execute call.
	Err error

	// Applied records every executed operation.
	Applied []fsops.Op
}

// NewFSOpsApplier creates an applier bound to a memory filesystem.
func NewFSOpsApplier(fs *MemoryFS) *FSOpsApplier {
	return &FSOpsApplier{FS: fs}
}

// Execute implements fsops.Executor
func (a *FSOpsApplier) Execute(ops []fsops.Op) error {
	if a.Err != nil {
		return a.Err
	}
	for _, op := range ops {
		a.Applied = append(a.Applied, op)
		switch op.Type {
		case fsops.OpCreateDir:
			if err := a.FS.MkdirAll(op.Target, op.Mode); err != nil {
				return err
			}
		case fsops.OpWriteFile:
			if err := a.FS.WriteFile(op.Target, op.Content, op.Mode); err != nil {
				return err
			}
		case fsops.OpDeleteFile:
			if err := a.FS.Remove(op.Target); err != nil {
				return err
			}
		}
	}
	return nil
}

// TestIdentity returns the identity used throughout the tests.
func TestIdentity() types.RunAsIdentity {
	return types.RunAsIdentity{
		Username: "rig",
		Home:     "/home/rig",
		UID:      1000,
		GID:      1000,
	}
}

// RootEuid is an euid source that reports root.
func RootEuid() int { return 0 }

// UnprivilegedEuid is an euid source that reports a normal user.
func UnprivilegedEuid() int { return 1000 }
